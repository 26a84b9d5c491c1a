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

// Package dag describes the logical shape of a job: the sources and
// operators a user wires together and the streams connecting them, before
// the engine turns that description into running goroutines.
package dag

import (
	"github.com/jaredzhou/pytream/event"
	"github.com/jaredzhou/pytream/grouping"
)

// DefaultStreamName is the input name an event is attributed to when it
// carries no explicit stream tag of its own.
const DefaultStreamName = "default"

// Collector is the callback a Source or Operator emits events through.
// channel is variadic exactly like collector.EventCollector.Add: omitted or
// empty, it targets the default channel; a component emitting side output
// (e.g. an "errors" channel) passes the channel name explicitly.
type Collector func(evt event.Event, channel ...string)

// Component is the common surface of every node in a job graph: a Source or
// an Operator.
type Component interface {
	// Name identifies the component within a job.
	Name() string

	// Parallelism is the number of instances the engine runs for this
	// component.
	Parallelism() int

	// OutgoingStream returns the stream other components attach to in
	// order to consume this component's output, creating it on first use.
	OutgoingStream() *Stream
}

// BaseComponent supplies the Name/Parallelism/OutgoingStream bookkeeping
// shared by every Source and Operator implementation, meant to be embedded
// rather than reimplemented by each concrete component.
type BaseComponent struct {
	name        string
	parallelism int
	outgoing    *Stream
}

// NewBaseComponent creates the shared component bookkeeping for a
// concrete Source or Operator.
func NewBaseComponent(name string, parallelism int) BaseComponent {
	if parallelism <= 0 {
		parallelism = 1
	}
	return BaseComponent{name: name, parallelism: parallelism}
}

func (c *BaseComponent) Name() string     { return c.name }
func (c *BaseComponent) Parallelism() int { return c.parallelism }

// OutgoingStream lazily allocates this component's outgoing stream.
func (c *BaseComponent) OutgoingStream() *Stream {
	if c.outgoing == nil {
		c.outgoing = newStream()
	}
	return c.outgoing
}

// Source originates events into the job, e.g. by polling an external feed
// or replaying a fixture. One instance is created per unit of parallelism.
type Source interface {
	Component

	// SetupInstance prepares per-instance state for instance, called once
	// before the first GetEvents call on that instance.
	SetupInstance(instance int) error

	// GetEvents is invoked repeatedly; on each call it may emit zero or
	// more events via collect, optionally targeting a side channel.
	GetEvents(collect Collector) error

	// Clone returns an independent copy of this source so each instance
	// gets isolated state instead of sharing it with its siblings.
	Clone() Source
}

// Operator consumes events from one or more upstream streams and emits zero
// or more events downstream.
type Operator interface {
	Component

	// SetupInstance prepares per-instance state for instance.
	SetupInstance(instance int) error

	// Apply processes a single event received on the named input stream,
	// emitting results via collect, optionally onto a side channel.
	Apply(streamName string, evt event.Event, collect Collector) error

	// GroupingStrategy returns the routing strategy events on streamName
	// are distributed by. streamName is DefaultStreamName for operators
	// with a single input.
	GroupingStrategy(streamName string) grouping.Strategy

	// GroupingStrategyMap exposes every stream-name-to-strategy binding
	// this operator was configured with.
	GroupingStrategyMap() map[string]grouping.Strategy

	// Clone returns an independent copy of this operator for a new
	// instance.
	Clone() Operator
}

// BaseOperator supplies the grouping-strategy bookkeeping shared by every
// concrete Operator.
type BaseOperator struct {
	BaseComponent
	groupingMap map[string]grouping.Strategy
}

// NewBaseOperator creates operator bookkeeping with a single grouping
// strategy registered under DefaultStreamName. GroupingStrategy returns nil
// for any other input name.
func NewBaseOperator(name string, parallelism int, defaultGrouping grouping.Strategy) BaseOperator {
	return BaseOperator{
		BaseComponent: NewBaseComponent(name, parallelism),
		groupingMap:   map[string]grouping.Strategy{DefaultStreamName: defaultGrouping},
	}
}

// NewBaseOperatorWithGroupingMap creates operator bookkeeping with a
// distinct grouping strategy per named input stream, the shape a
// JoinOperator needs.
func NewBaseOperatorWithGroupingMap(name string, parallelism int, groupingMap map[string]grouping.Strategy) BaseOperator {
	m := make(map[string]grouping.Strategy, len(groupingMap))
	for k, v := range groupingMap {
		m[k] = v
	}
	return BaseOperator{
		BaseComponent: NewBaseComponent(name, parallelism),
		groupingMap:   m,
	}
}

func (o *BaseOperator) GroupingStrategy(streamName string) grouping.Strategy {
	return o.groupingMap[streamName]
}

func (o *BaseOperator) GroupingStrategyMap() map[string]grouping.Strategy {
	return o.groupingMap
}

// Dispatch routes evt to op.Apply using the stream name carried on the
// event itself when it's a Named event, otherwise DefaultStreamName. The
// engine's operator instance executor calls this instead of Operator.Apply
// directly so every operator gets the same stream-name resolution rule.
func Dispatch(op Operator, evt event.Event, collect Collector) error {
	streamName := DefaultStreamName
	if named, ok := event.AsNamed(evt); ok {
		streamName = named.StreamName()
	}
	return op.Apply(streamName, evt, collect)
}
