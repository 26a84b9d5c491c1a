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

// Package event defines the envelope every record flowing through the
// dataflow engine is wrapped in. Rather than modelling "named" and "timed"
// events as a subclass hierarchy, a single concrete type carries both
// capabilities as optional fields; Named and Timed are thin interfaces used
// to ask whether a given Event exposes them.
package event

import (
	"fmt"

	"github.com/spf13/cast"
)

// Event is the base unit of data passed between stages of the engine. It is
// immutable: Fields returns the same map for the lifetime of the event and
// callers must not mutate it.
type Event interface {
	// Field returns the value stored under key, and whether it was present.
	Field(key string) (any, bool)
	// Fields returns the full field dictionary carried by the event.
	Fields() map[string]any
}

// Named is implemented by events that carry a stream-name label identifying
// which named input produced them. EventQueue wraps plain events into a
// Named event when the queue itself is tagged with a stream name.
type Named interface {
	Event
	StreamName() string
}

// Timed is implemented by events that expose an event-time timestamp in
// integer milliseconds, the unit windowing strategies bucket on.
type Timed interface {
	Event
	TimeMillis() int64
}

// record is the one concrete Event implementation. streamName and
// timeMillis are optional: named false means "not a Named event", timed
// false means "not a Timed event".
type record struct {
	fields     map[string]any
	streamName string
	named      bool
	timeMillis int64
	timed      bool
}

// New creates a plain Event over fields. AsNamed and AsTimed both report
// false for the returned value.
func New(fields map[string]any) Event {
	return &record{fields: fields}
}

func (r *record) Field(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

func (r *record) Fields() map[string]any {
	return r.fields
}

func (r *record) String() string {
	return fmt.Sprintf("Event%v", r.fields)
}

// WithStreamName returns a copy of evt tagged as a Named event carrying
// streamName. If evt is already Named, its fields are preserved and only
// the stream name is replaced.
func WithStreamName(evt Event, streamName string) Named {
	r := copyRecord(evt)
	r.streamName = streamName
	r.named = true
	return r
}

func (r *record) StreamName() string {
	if !r.named {
		return ""
	}
	return r.streamName
}

// WithTimeMillis returns a copy of evt tagged as a Timed event carrying the
// given event-time timestamp in milliseconds.
func WithTimeMillis(evt Event, millis int64) Timed {
	r := copyRecord(evt)
	r.timeMillis = millis
	r.timed = true
	return r
}

func (r *record) TimeMillis() int64 {
	return r.timeMillis
}

// AsNamed reports whether evt exposes a stream name, returning the typed
// view when it does.
func AsNamed(evt Event) (Named, bool) {
	if r, ok := evt.(*record); ok {
		return r, r.named
	}
	n, ok := evt.(Named)
	return n, ok
}

// AsTimed reports whether evt exposes an event-time timestamp, returning
// the typed view when it does.
func AsTimed(evt Event) (Timed, bool) {
	if r, ok := evt.(*record); ok {
		return r, r.timed
	}
	t, ok := evt.(Timed)
	return t, ok
}

// TimeField extracts and coerces the event-time timestamp out of a loosely
// typed field, the way a Source reading off the wire would: a "ts" field
// might arrive as an int64 epoch-millis, a float64 (decoded off JSON), or a
// numeric string. cast.ToInt64E absorbs that variance so callers don't have
// to type-switch on it themselves.
func TimeField(evt Event, field string) (int64, bool) {
	v, ok := evt.Field(field)
	if !ok {
		return 0, false
	}
	millis, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false
	}
	return millis, true
}

func copyRecord(evt Event) *record {
	if r, ok := evt.(*record); ok {
		cp := *r
		return &cp
	}
	return &record{fields: evt.Fields()}
}
