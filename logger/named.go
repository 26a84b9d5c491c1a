/*
 * Copyright 2026 The Pytream Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

// namedLogger prefixes every message with a component name, so log lines
// from a multi-instance, multi-operator engine can be told apart.
type namedLogger struct {
	component string
	inner     Logger
}

// Named wraps inner so every message it logs is prefixed with component,
// e.g. "[instance-executor:count(2)] ...". Passing the result of
// GetDefault() as inner scopes the global default logger to one component.
func Named(component string, inner Logger) Logger {
	return &namedLogger{component: component, inner: inner}
}

func (n *namedLogger) Debug(format string, args ...interface{}) {
	n.inner.Debug(n.prefix(format), args...)
}

func (n *namedLogger) Info(format string, args ...interface{}) {
	n.inner.Info(n.prefix(format), args...)
}

func (n *namedLogger) Warn(format string, args ...interface{}) {
	n.inner.Warn(n.prefix(format), args...)
}

func (n *namedLogger) Error(format string, args ...interface{}) {
	n.inner.Error(n.prefix(format), args...)
}

func (n *namedLogger) SetLevel(level Level) {
	n.inner.SetLevel(level)
}

func (n *namedLogger) prefix(format string) string {
	return "[" + n.component + "] " + format
}
