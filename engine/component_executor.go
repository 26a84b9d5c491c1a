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

	"github.com/jaredzhou/pytream/dag"
	"github.com/jaredzhou/pytream/grouping"
	"github.com/jaredzhou/pytream/logger"
	"github.com/jaredzhou/pytream/utils/queue"
)

// instanceRunner is the common surface ComponentExecutor needs from either
// a SourceInstanceExecutor or an OperatorInstanceExecutor.
type instanceRunner interface {
	run(ctx context.Context, wg *sync.WaitGroup)
	addOutgoingQueue(channel string, q *queue.EventQueue)
}

// ComponentExecutor owns every instance of one dag.Component plus, for
// operators, the dispatch executors feeding those instances from each
// inbound edge. One ComponentExecutor per Source or Operator in a job.
type ComponentExecutor struct {
	component dag.Component
	isSource  bool

	instances         []instanceRunner
	operatorInstances []*OperatorInstanceExecutor

	dispatchers    []*DispatchExecutor
	instanceQueues []*queue.EventQueue

	cfg config
	log logger.Logger
	wg  sync.WaitGroup
}

func newComponentExecutor(component dag.Component, cfg config) (*ComponentExecutor, error) {
	ce := &ComponentExecutor{component: component, cfg: cfg}
	parallelism := component.Parallelism()

	// Every log line this component's instances and dispatchers emit is
	// prefixed with the component's name, so a multi-operator job's log
	// output can be told apart by eye.
	log := logger.Named(component.Name(), cfg.log)
	ce.log = log

	if source, ok := component.(dag.Source); ok {
		ce.isSource = true
		for i := 0; i < parallelism; i++ {
			se, err := newSourceInstanceExecutor(i, source.Clone(), log)
			if err != nil {
				return nil, fmt.Errorf("engine: setup source %s instance %d: %w", component.Name(), i, err)
			}
			ce.instances = append(ce.instances, se)
		}
		return ce, nil
	}

	operator, ok := component.(dag.Operator)
	if !ok {
		return nil, fmt.Errorf("engine: component %s is neither a Source nor an Operator", component.Name())
	}
	for i := 0; i < parallelism; i++ {
		oe, err := newOperatorInstanceExecutor(i, operator.Clone(), cfg.queueCapacity, cfg.idleTickFloorMillis, log)
		if err != nil {
			return nil, fmt.Errorf("engine: setup operator %s instance %d: %w", component.Name(), i, err)
		}
		ce.instances = append(ce.instances, oe)
		ce.operatorInstances = append(ce.operatorInstances, oe)
	}
	return ce, nil
}

// addIncomingEdge wires one upstream queue to every instance of this
// executor's operator, through a dedicated DispatchExecutor and a fresh
// per-instance queue tagged with the edge's stream name. Each inbound edge
// gets its own dispatcher and its own set of per-instance queues, so a
// multi-input operator (a join) keeps every input live instead of the
// last-wired edge silently replacing the others.
func (ce *ComponentExecutor) addIncomingEdge(conn *Connection, upstream *queue.EventQueue, strategy grouping.Strategy) error {
	if ce.isSource {
		return fmt.Errorf("engine: source %s does not accept incoming edges: %w", ce.component.Name(), ErrInvalidTopology)
	}

	instanceQueues := make([]*queue.EventQueue, len(ce.operatorInstances))
	for i, instance := range ce.operatorInstances {
		q := queue.New(ce.cfg.queueCapacity, upstream.StreamName())
		instanceQueues[i] = q
		instance.addIncomingQueue(q)
		ce.instanceQueues = append(ce.instanceQueues, q)
	}

	ce.dispatchers = append(ce.dispatchers, newDispatchExecutor(conn, upstream, instanceQueues, strategy, ce.log))
	return nil
}

// closeQueues closes every per-instance queue this executor created for an
// inbound edge, unblocking the forwarder goroutines reading them so the
// executor's goroutines can return during Stop.
func (ce *ComponentExecutor) closeQueues() {
	for _, q := range ce.instanceQueues {
		q.Close()
	}
}

// addOutgoingQueue wires q to receive every event this executor's
// instances collect on channel.
func (ce *ComponentExecutor) addOutgoingQueue(channel string, q *queue.EventQueue) {
	for _, instance := range ce.instances {
		instance.addOutgoingQueue(channel, q)
	}
}

// start launches every instance and dispatcher goroutine.
func (ce *ComponentExecutor) start(ctx context.Context) {
	for _, instance := range ce.instances {
		ce.wg.Add(1)
		go instance.run(ctx, &ce.wg)
	}
	for _, dispatcher := range ce.dispatchers {
		ce.wg.Add(1)
		go dispatcher.run(ctx, &ce.wg)
	}
}

// wait blocks until every goroutine this executor launched has returned.
func (ce *ComponentExecutor) wait() {
	ce.wg.Wait()
}
