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

package engine

import (
	"github.com/google/uuid"
	"github.com/jaredzhou/pytream/dag"
)

// Connection is one edge of the physical topology: an upstream component's
// output channel feeding a downstream operator's named input. Its ID exists
// purely for log correlation across the upstream dispatch executor and the
// downstream component executor it feeds; it is never consulted for
// routing or grouping decisions.
type Connection struct {
	ID         string
	Upstream   dag.Component
	Channel    string
	Downstream dag.Operator
	StreamName string
}

func newConnection(upstream dag.Component, channel string, downstream dag.Operator, streamName string) *Connection {
	return &Connection{
		ID:         uuid.NewString(),
		Upstream:   upstream,
		Channel:    channel,
		Downstream: downstream,
		StreamName: streamName,
	}
}
