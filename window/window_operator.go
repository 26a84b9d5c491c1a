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

package window

import "github.com/jaredzhou/pytream/event"

// Operator is the user-defined computation run over a closed window. It is
// the windowed counterpart to a plain per-event operator: instead of
// Apply(Event, Collector) it receives the whole span of events a window
// accumulated at once.
type Operator interface {
	// SetupInstance is called once per instance before any window is
	// applied, mirroring the per-event operator lifecycle.
	SetupInstance(instance int) error

	// ApplyWindow runs the user computation over w's accumulated events,
	// emitting zero or more results into collect. channel is variadic
	// exactly like collector.EventCollector.Add: omitted, it targets the
	// default channel; a window operator emitting side output passes the
	// channel name explicitly.
	ApplyWindow(w *EventWindow, collect func(evt event.Event, channel ...string)) error

	// Clone returns an independent copy suitable for a different instance,
	// the same per-instance isolation contract as a regular operator.
	Clone() Operator
}

// Idler is implemented by anything that wants the engine's instance
// executor to wake it on a fixed cadence even when no events arrive, so
// that processing-time-driven window closure isn't starved by idle input.
// This is the engine's fix for the known gap where the reference design
// never injects synthetic ticks and window closure stalls on silent inputs.
type Idler interface {
	IdleInterval() int64
}

// Adapter drives a Strategy and a user Operator together, the internal
// counterpart of a regular operator instance: it is what the engine
// actually schedules in a component executor for a windowed stream.
type Adapter struct {
	strategy Strategy
	operator Operator
}

// NewAdapter pairs a windowing Strategy with the user Operator that
// processes each window it closes.
func NewAdapter(strategy Strategy, operator Operator) *Adapter {
	return &Adapter{strategy: strategy, operator: operator}
}

// SetupInstance forwards to the wrapped user operator.
func (a *Adapter) SetupInstance(instance int) error {
	return a.operator.SetupInstance(instance)
}

// Apply adds evt (if non-nil) to the windowing strategy at the given
// processing time, then applies every window the strategy now considers
// ready. Passing a nil evt still checks for newly-ready windows, which is
// what the idle ticker relies on to close windows when no new events are
// arriving.
func (a *Adapter) Apply(evt event.Event, processingTimeMillis int64, collect func(evt event.Event, channel ...string)) error {
	if evt != nil {
		if err := a.strategy.Add(evt, processingTimeMillis); err != nil {
			return err
		}
	}

	for _, w := range a.strategy.ReadyWindows(processingTimeMillis) {
		if err := a.operator.ApplyWindow(w, collect); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent Adapter pairing a cloned Strategy with a
// cloned Operator, for a fresh component instance.
func (a *Adapter) Clone() *Adapter {
	return &Adapter{strategy: a.strategy.Clone(), operator: a.operator.Clone()}
}

// defaultIdler is implemented by strategies that can propose their own
// natural idle re-check cadence.
type defaultIdler interface {
	DefaultIdleIntervalMillis() int64
}

// IdleIntervalMillis reports how often the engine should re-check this
// adapter for newly-ready windows absent new events. The wrapped user
// Operator's own Idler preference, if any, takes precedence; otherwise the
// strategy's own proposed cadence is used if it offers one.
func (a *Adapter) IdleIntervalMillis() (int64, bool) {
	if idler, ok := a.operator.(Idler); ok {
		return idler.IdleInterval(), true
	}
	if idler, ok := a.strategy.(defaultIdler); ok {
		return idler.DefaultIdleIntervalMillis(), true
	}
	return 0, false
}
