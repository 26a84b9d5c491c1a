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

// Package queue implements the bounded blocking FIFO used between every
// pair of stages in the engine: a channel-backed queue of event.Event
// values. A buffered Go channel already gives bounded capacity, blocking
// Put/Take and FIFO ordering for a single sender, so there is no need for a
// hand-rolled ring buffer or spin loop here.
package queue

import (
	"errors"

	"github.com/jaredzhou/pytream/event"
)

// DefaultCapacity is the queue capacity used when callers don't specify one.
const DefaultCapacity = 64

// ErrClosed is returned by Put and Take once the queue has been closed.
var ErrClosed = errors.New("queue: closed")

// EventQueue is a bounded, blocking FIFO optionally tagged with a stream
// name. When tagged, any event Put that doesn't already expose a stream
// name is wrapped into one carrying that tag, so a downstream dispatcher or
// operator can discriminate events by input name.
type EventQueue struct {
	ch         chan event.Event
	streamName string
	closed     chan struct{}
}

// New creates a queue with the given capacity and an optional stream-name
// tag. A capacity of zero or less selects DefaultCapacity.
func New(capacity int, streamName string) *EventQueue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &EventQueue{
		ch:         make(chan event.Event, capacity),
		streamName: streamName,
		closed:     make(chan struct{}),
	}
}

// StreamName returns the tag this queue wraps untagged events with, or the
// empty string if the queue carries no tag.
func (q *EventQueue) StreamName() string {
	return q.streamName
}

// Put enqueues evt, blocking while the queue is full. It returns ErrClosed
// if the queue is closed, either before or while blocking.
func (q *EventQueue) Put(evt event.Event) error {
	if q.streamName != "" {
		if _, ok := event.AsNamed(evt); !ok {
			evt = event.WithStreamName(evt, q.streamName)
		}
	}
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- evt:
		return nil
	case <-q.closed:
		return ErrClosed
	}
}

// Take dequeues the next event, blocking while the queue is empty. It
// returns ErrClosed once the queue is closed and drained.
func (q *EventQueue) Take() (event.Event, error) {
	select {
	case evt, ok := <-q.ch:
		if !ok {
			return nil, ErrClosed
		}
		return evt, nil
	case <-q.closed:
		select {
		case evt, ok := <-q.ch:
			if ok {
				return evt, nil
			}
		default:
		}
		return nil, ErrClosed
	}
}

// Chan exposes the underlying receive channel so a caller can multiplex a
// receive against other channels in its own select. The engine's executors
// read queues through Take and do not use it.
func (q *EventQueue) Chan() <-chan event.Event {
	return q.ch
}

// ClosedChan exposes the close signal for the same reason as Chan.
func (q *EventQueue) ClosedChan() <-chan struct{} {
	return q.closed
}

// Close marks the queue closed. Blocked and future Put calls return
// ErrClosed; Take may still return events buffered before the close and
// returns ErrClosed once none are left.
func (q *EventQueue) Close() {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
}
