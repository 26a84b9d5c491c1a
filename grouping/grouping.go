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

// Package grouping implements the routing decision functions a
// DispatchExecutor consults to pick which instance(s) of a downstream
// operator an event is delivered to.
package grouping

import (
	"hash/fnv"

	"github.com/jaredzhou/pytream/event"
	"github.com/spf13/cast"
)

// Broadcast is the sentinel instance id meaning "deliver to every instance".
// It is distinct from any valid instance index, which are always >= 0.
const Broadcast = -1

// Strategy is a pure decision function: given an event and the number of
// downstream instances, it returns the target instance id, or Broadcast.
// Strategy.Instance is always called from a single goroutine per owning
// dispatcher, so stateful strategies such as RoundRobin need no locking as
// long as one Strategy instance is never shared across two dispatchers.
type Strategy interface {
	Instance(evt event.Event, numInstances int) int
}

// roundRobin cycles destinations 0..N-1 in the order events arrive.
type roundRobin struct {
	current int
}

// NewRoundRobin creates a RoundRobin grouping strategy. Its internal
// counter starts such that the first call returns instance 0.
func NewRoundRobin() Strategy {
	return &roundRobin{current: -1}
}

func (r *roundRobin) Instance(_ event.Event, numInstances int) int {
	r.current = (r.current + 1) % numInstances
	return r.current
}

// allGrouping always routes to every instance.
type allGrouping struct{}

// NewAllGrouping creates a grouping strategy that broadcasts every event to
// every downstream instance. This is the default grouping for JoinOperator.
func NewAllGrouping() Strategy {
	return allGrouping{}
}

func (allGrouping) Instance(_ event.Event, _ int) int {
	return Broadcast
}

// KeyFunc extracts the routing key from an event for field grouping.
type KeyFunc func(evt event.Event) (any, error)

// FieldKey returns a KeyFunc reading a single named field, the common case
// for FieldGrouping ("route by deviceId").
func FieldKey(field string) KeyFunc {
	return func(evt event.Event) (any, error) {
		v, _ := evt.Field(field)
		return v, nil
	}
}

// fieldGrouping hashes a user-extracted key modulo N. The mapping from key
// to instance is stable across calls within one process because it only
// depends on the key's string form and numInstances, never on call order.
type fieldGrouping struct {
	key KeyFunc
}

// NewFieldGrouping creates a FieldGrouping strategy using key to extract the
// routing key from each event.
func NewFieldGrouping(key KeyFunc) Strategy {
	return &fieldGrouping{key: key}
}

func (f *fieldGrouping) Instance(evt event.Event, numInstances int) int {
	v, err := f.key(evt)
	if err != nil {
		v = nil
	}
	return hashKey(v, numInstances)
}

// hashKey converts key to a string via cast.ToString (tolerant of numeric,
// bool and nil inputs alike) and hashes it with FNV-1a, a stable,
// allocation-light hash appropriate for a single-process routing table.
func hashKey(key any, numInstances int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(cast.ToString(key)))
	return int(h.Sum32() % uint32(numInstances))
}
