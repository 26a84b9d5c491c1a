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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jaredzhou/pytream/collector"
	"github.com/jaredzhou/pytream/dag"
	"github.com/jaredzhou/pytream/event"
	"github.com/jaredzhou/pytream/logger"
	"github.com/jaredzhou/pytream/utils/queue"
)

// idleAware is implemented by operators (the windowing adapter, notably)
// that want to be re-invoked on a fixed cadence even when no new event
// arrives, so event-time windows still close under a stalled input.
type idleAware interface {
	IdleIntervalMillis() (int64, bool)
}

// baseExecutor holds the bookkeeping common to every component instance:
// its own event collector and the fan-out of that collector's channels to
// downstream queues.
type baseExecutor struct {
	instanceID int
	collector  *collector.EventCollector
	outgoing   map[string][]*queue.EventQueue
	log        logger.Logger
}

func newBaseExecutor(instanceID int, log logger.Logger) baseExecutor {
	return baseExecutor{
		instanceID: instanceID,
		collector:  collector.New(),
		outgoing:   make(map[string][]*queue.EventQueue),
		log:        log,
	}
}

// registerChannel registers channel with both the collector and the
// outgoing queue table, so events collected on it have somewhere to go
// even before any downstream edge is wired.
func (e *baseExecutor) registerChannel(channel string) {
	e.collector.RegisterChannel(channel)
	if _, ok := e.outgoing[channel]; !ok {
		e.outgoing[channel] = nil
	}
}

// addOutgoingQueue wires q to receive every event collected on channel.
func (e *baseExecutor) addOutgoingQueue(channel string, q *queue.EventQueue) {
	if channel == "" {
		channel = dag.DefaultChannel
	}
	if _, ok := e.outgoing[channel]; !ok {
		e.registerChannel(channel)
	}
	e.outgoing[channel] = append(e.outgoing[channel], q)
}

// emit drains every registered channel's collected events to that
// channel's outgoing queues.
func (e *baseExecutor) emit() {
	for _, channel := range e.collector.RegisteredChannels() {
		events := e.collector.EventList(channel)
		if len(events) == 0 {
			continue
		}
		queues := e.outgoing[channel]
		for _, evt := range events {
			for _, q := range queues {
				if err := q.Put(evt); err != nil {
					e.log.Warn("instance %d: put to downstream queue failed: %v", e.instanceID, err)
				}
			}
		}
	}
}

// SourceInstanceExecutor drives one instance of a dag.Source: repeatedly
// polling it for events and fanning the results out to every registered
// channel's downstream queues.
type SourceInstanceExecutor struct {
	baseExecutor
	source dag.Source
}

func newSourceInstanceExecutor(instanceID int, source dag.Source, log logger.Logger) (*SourceInstanceExecutor, error) {
	e := &SourceInstanceExecutor{
		baseExecutor: newBaseExecutor(instanceID, log),
		source:       source,
	}
	e.registerChannel(dag.DefaultChannel)
	if err := source.SetupInstance(instanceID); err != nil {
		return nil, err
	}
	return e, nil
}

// run polls the source in a loop until ctx is cancelled. An error or panic
// from GetEvents is logged, the events of that call are dropped, and
// polling continues.
func (e *SourceInstanceExecutor) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e.collector.Clear()
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return e.source.GetEvents(func(evt event.Event, channel ...string) {
				e.collector.Add(evt, channel...)
			})
		}()
		if err != nil {
			e.log.Error("source %s instance %d: %v: %v", e.source.Name(), e.instanceID, ErrSourceFailed, err)
			continue
		}
		e.emit()
	}
}

// OperatorInstanceExecutor drives one instance of a dag.Operator: merging
// every inbound edge's queue into a single channel, applying the operator
// to each event (or, on an idle tick, to nothing, giving windowed
// operators a chance to close stalled windows), and fanning results out.
type OperatorInstanceExecutor struct {
	baseExecutor
	operator     dag.Operator
	merged       chan event.Event
	closed       chan struct{}
	closeOnce    sync.Once
	forwarderWG  sync.WaitGroup
	idleInterval time.Duration
}

func newOperatorInstanceExecutor(instanceID int, operator dag.Operator, queueCapacity int, idleFloorMillis int64, log logger.Logger) (*OperatorInstanceExecutor, error) {
	e := &OperatorInstanceExecutor{
		baseExecutor: newBaseExecutor(instanceID, log),
		operator:     operator,
		merged:       make(chan event.Event, queueCapacity),
		closed:       make(chan struct{}),
	}
	e.registerChannel(dag.DefaultChannel)
	if err := operator.SetupInstance(instanceID); err != nil {
		return nil, err
	}

	if idler, ok := operator.(idleAware); ok {
		if ms, has := idler.IdleIntervalMillis(); has {
			if ms < idleFloorMillis {
				ms = idleFloorMillis
			}
			e.idleInterval = time.Duration(ms) * time.Millisecond
		}
	}
	return e, nil
}

// addIncomingQueue starts a forwarder goroutine that copies every event
// taken off q into this instance's merged channel, letting one instance
// accept events from any number of inbound edges without the single
// overwritten-queue limitation of the original design.
func (e *OperatorInstanceExecutor) addIncomingQueue(q *queue.EventQueue) {
	e.forwarderWG.Add(1)
	go func() {
		defer e.forwarderWG.Done()
		for {
			evt, err := q.Take()
			if err != nil {
				return
			}
			select {
			case e.merged <- evt:
			case <-e.closed:
				return
			}
		}
	}()
}

func (e *OperatorInstanceExecutor) stop() {
	e.closeOnce.Do(func() { close(e.closed) })
}

// run consumes the merged channel until ctx is cancelled, additionally
// waking on an idle ticker when the wrapped operator asked for one.
func (e *OperatorInstanceExecutor) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	var tick <-chan time.Time
	if e.idleInterval > 0 {
		ticker := time.NewTicker(e.idleInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			e.stop()
			e.forwarderWG.Wait()
			return
		case evt, ok := <-e.merged:
			if !ok {
				return
			}
			e.process(evt)
		case <-tick:
			e.process(nil)
		}
	}
}

func (e *OperatorInstanceExecutor) process(evt event.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("operator %s instance %d: panic: %v", e.operator.Name(), e.instanceID, r)
		}
	}()
	e.collector.Clear()

	collect := dag.Collector(func(out event.Event, channel ...string) { e.collector.Add(out, channel...) })

	var err error
	if evt == nil {
		err = e.operator.Apply(dag.DefaultStreamName, nil, collect)
	} else {
		err = dag.Dispatch(e.operator, evt, collect)
	}
	if err != nil {
		e.log.Error("operator %s instance %d: %v", e.operator.Name(), e.instanceID, err)
		return
	}
	e.emit()
}
