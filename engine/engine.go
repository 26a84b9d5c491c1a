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
	"github.com/jaredzhou/pytream/utils/queue"
)

// StreamEngine turns a dag.Job into a running pipeline: one ComponentExecutor
// per component, wired together by queues, each driven by its own
// goroutines.
type StreamEngine struct {
	cfg config

	mu                sync.Mutex
	executors         []*ComponentExecutor
	operatorExecutors map[dag.Operator]*ComponentExecutor
	queues            []*queue.EventQueue

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a StreamEngine, ready for Submit.
func New(opts ...Option) *StreamEngine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &StreamEngine{
		cfg:               cfg,
		operatorExecutors: make(map[dag.Operator]*ComponentExecutor),
	}
}

// Submit builds executors for every component reachable from job's
// sources, wires the queues and dispatchers connecting them, and starts
// every goroutine. It returns ErrNoSources if the job has no sources,
// ErrCyclicTopology if the operator graph contains a cycle, and wraps any
// error a component's setup returns.
func (e *StreamEngine) Submit(job *dag.Job) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sources := job.Sources()
	if len(sources) == 0 {
		return ErrNoSources
	}

	if err := detectCycles(sources); err != nil {
		return err
	}

	for _, source := range sources {
		ce, err := newComponentExecutor(source, e.cfg)
		if err != nil {
			return err
		}
		e.executors = append(e.executors, ce)
		if err := e.traverse(source, ce); err != nil {
			return err
		}
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	for _, ce := range e.executors {
		ce.start(e.ctx)
	}
	return nil
}

// traverse wires component's outgoing stream to every operator attached to
// it, creating that operator's ComponentExecutor on first encounter and
// recursing into its own outgoing stream exactly once.
func (e *StreamEngine) traverse(component dag.Component, executor *ComponentExecutor) error {
	stream := component.OutgoingStream()
	for _, channel := range stream.Channels() {
		for streamName, operator := range stream.AppliedOperators(channel) {
			downstream, alreadyBuilt := e.operatorExecutors[operator]
			if !alreadyBuilt {
				var err error
				downstream, err = newComponentExecutor(operator, e.cfg)
				if err != nil {
					return err
				}
				e.operatorExecutors[operator] = downstream
				e.executors = append(e.executors, downstream)
			}

			edgeQueue := queue.New(e.cfg.queueCapacity, streamName)
			executor.addOutgoingQueue(channel, edgeQueue)
			e.queues = append(e.queues, edgeQueue)

			strategy := operator.GroupingStrategy(streamName)
			if strategy == nil {
				strategy = grouping.NewRoundRobin()
			}

			conn := newConnection(component, channel, operator, streamName)
			if err := downstream.addIncomingEdge(conn, edgeQueue, strategy); err != nil {
				return err
			}

			if !alreadyBuilt {
				if err := e.traverse(operator, downstream); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// detectCycles walks the operator graph reachable from sources and reports
// ErrCyclicTopology if any operator is reachable from itself.
func detectCycles(sources []dag.Source) error {
	visiting := make(map[dag.Operator]bool)
	visited := make(map[dag.Operator]bool)

	var walk func(stream *dag.Stream) error
	walk = func(stream *dag.Stream) error {
		for _, channel := range stream.Channels() {
			for _, op := range stream.AppliedOperators(channel) {
				if visiting[op] {
					return ErrCyclicTopology
				}
				if visited[op] {
					continue
				}
				visiting[op] = true
				if err := walk(op.OutgoingStream()); err != nil {
					return err
				}
				visiting[op] = false
				visited[op] = true
			}
		}
		return nil
	}

	for _, source := range sources {
		if err := walk(source.OutgoingStream()); err != nil {
			return err
		}
	}
	return nil
}

// Stop cancels every running goroutine, closes every queue (discarding any
// events still buffered in them), and waits for every executor to return.
func (e *StreamEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cancel == nil {
		return fmt.Errorf("%w", ErrNotRunning)
	}
	e.cancel()
	for _, q := range e.queues {
		q.Close()
	}
	for _, ce := range e.executors {
		ce.closeQueues()
	}
	for _, ce := range e.executors {
		ce.wait()
	}
	e.cancel = nil
	return nil
}
