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

package dag

import (
	"github.com/jaredzhou/pytream/event"
	"github.com/jaredzhou/pytream/grouping"
	"github.com/jaredzhou/pytream/utils/timex"
	"github.com/jaredzhou/pytream/window"
)

// windowingOperator adapts a user-supplied window.Operator into a regular
// Operator the engine can schedule like any other, standing in for the
// user-defined window.Operator at the point it sits in the component graph.
type windowingOperator struct {
	BaseOperator
	adapter *window.Adapter
}

func newWindowingOperator(name string, parallelism int, strategy window.Strategy, op window.Operator) *windowingOperator {
	return &windowingOperator{
		BaseOperator: NewBaseOperator(name, parallelism, grouping.NewRoundRobin()),
		adapter:      window.NewAdapter(strategy, op),
	}
}

func (w *windowingOperator) SetupInstance(instance int) error {
	return w.adapter.SetupInstance(instance)
}

// Apply ignores streamName: a windowed operator accepts a single input and
// cannot be the target of a named join.
func (w *windowingOperator) Apply(_ string, evt event.Event, collect Collector) error {
	return w.adapter.Apply(evt, timex.NowMillis(), collect)
}

func (w *windowingOperator) Clone() Operator {
	return &windowingOperator{
		BaseOperator: w.BaseOperator,
		adapter:      w.adapter.Clone(),
	}
}

// IdleIntervalMillis exposes the wrapped window operator's requested idle
// re-check cadence, if any, so the engine's instance executor can drive
// Apply(nil, ...) even when no new events arrive.
func (w *windowingOperator) IdleIntervalMillis() (int64, bool) {
	return w.adapter.IdleIntervalMillis()
}
