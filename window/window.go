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

// Package window implements event-time windowing: accumulating timed events
// into fixed spans and deciding, from a processing-time clock, when a span
// is done accepting late arrivals and ready to be emitted.
package window

import "github.com/jaredzhou/pytream/event"

// EventWindow accumulates the events assigned to one [start, end) span of
// event time. start is inclusive, end is exclusive.
type EventWindow struct {
	events []event.Event
	start  int64
	end    int64
}

func newEventWindow(start, end int64) *EventWindow {
	return &EventWindow{start: start, end: end}
}

// Add appends evt to the window.
func (w *EventWindow) Add(evt event.Event) {
	w.events = append(w.events, evt)
}

// Events returns every event assigned to the window, in arrival order.
func (w *EventWindow) Events() []event.Event {
	return w.events
}

// Start returns the window's inclusive start time in event-time milliseconds.
func (w *EventWindow) Start() int64 {
	return w.start
}

// End returns the window's exclusive end time in event-time milliseconds.
func (w *EventWindow) End() int64 {
	return w.end
}

// Strategy decides which windows an event belongs to and when those windows
// are done waiting for late arrivals. Add and ReadyWindows are always
// invoked from the single goroutine driving one operator instance, so
// implementations need no internal locking.
type Strategy interface {
	// Add assigns evt to every window it falls in, given the current
	// processing time in epoch milliseconds. Events judged too late are
	// silently dropped.
	Add(evt event.Event, processingTimeMillis int64) error

	// ReadyWindows returns and forgets every window whose watermark has
	// passed as of processingTimeMillis.
	ReadyWindows(processingTimeMillis int64) []*EventWindow

	// Clone returns an independent strategy with the same configuration
	// but no accumulated windows, for use by a fresh operator instance.
	Clone() Strategy
}
