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

package grouping

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/jaredzhou/pytream/event"
)

// exprFieldGrouping routes events by evaluating a user expression against
// the event's fields and hashing the result. The expression is compiled
// once at construction and evaluated fresh per event.
type exprFieldGrouping struct {
	source  string
	program *vm.Program
}

// NewExprFieldGrouping compiles expression once and returns a Strategy that
// evaluates it against each event's field map (exposed to the expression as
// top-level variables, e.g. "region" or "region + '-' + tier") to derive the
// routing key. A compile error is returned immediately so a misconfigured
// job fails when the strategy is built rather than on the first event.
func NewExprFieldGrouping(expression string) (Strategy, error) {
	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("grouping: compile expression %q: %w", expression, err)
	}
	return &exprFieldGrouping{source: expression, program: program}, nil
}

func (g *exprFieldGrouping) Instance(evt event.Event, numInstances int) int {
	out, err := expr.Run(g.program, env(evt))
	if err != nil {
		out = nil
	}
	return hashKey(out, numInstances)
}

// env exposes an event's fields to the compiled expression. Unknown
// identifiers evaluate to nil rather than failing, consistent with
// event.Field's own "absent field" contract.
func env(evt event.Event) map[string]any {
	fields := evt.Fields()
	if fields == nil {
		return map[string]any{}
	}
	return fields
}
