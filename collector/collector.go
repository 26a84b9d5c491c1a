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

// Package collector implements the per-instance scratch buffer a Source or
// Operator writes its output events into during one invocation.
package collector

import "github.com/jaredzhou/pytream/event"

// DefaultChannel is the name of the channel used when callers don't pick one.
const DefaultChannel = "default"

// EventCollector is a multi-channel output buffer. It is never shared across
// goroutines: each InstanceExecutor owns exactly one, pre-registers every
// channel the component declares, and clears it between invocations.
type EventCollector struct {
	registered map[string]bool
	events     map[string][]event.Event
	order      []string
}

// New creates an empty collector with no channels registered.
func New() *EventCollector {
	return &EventCollector{
		registered: make(map[string]bool),
		events:     make(map[string][]event.Event),
	}
}

// RegisterChannel creates channel if it doesn't already exist. Idempotent.
func (c *EventCollector) RegisterChannel(channel string) {
	if c.registered[channel] {
		return
	}
	c.registered[channel] = true
	c.events[channel] = nil
	c.order = append(c.order, channel)
}

// Add appends evt to channel, defaulting to DefaultChannel. Writing to an
// unregistered channel is silently dropped: the engine pre-registers every
// channel a component declares before the component ever runs, so this only
// happens if a component emits to a channel it never declared.
func (c *EventCollector) Add(evt event.Event, channel ...string) {
	ch := DefaultChannel
	if len(channel) > 0 && channel[0] != "" {
		ch = channel[0]
	}
	if !c.registered[ch] {
		return
	}
	c.events[ch] = append(c.events[ch], evt)
}

// RegisteredChannels returns every channel registered on this collector.
// Iteration order matches registration order.
func (c *EventCollector) RegisteredChannels() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// EventList returns the events buffered on channel, in insertion order. The
// returned slice must not be mutated by the caller.
func (c *EventCollector) EventList(channel string) []event.Event {
	return c.events[channel]
}

// Clear empties every channel's event list but keeps channels registered.
func (c *EventCollector) Clear() {
	for ch := range c.events {
		c.events[ch] = c.events[ch][:0]
	}
}
