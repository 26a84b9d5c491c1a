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

// Package engine turns a dag.Job into running goroutines: one instance
// executor per component instance, one dispatch executor per inbound edge,
// and the queues connecting them.
package engine

import "errors"

var (
	// ErrNoSources is returned by Submit when a job has no sources. This is
	// an engine-level guard, not one of the spec's named error kinds: it
	// keeps Submit from silently doing nothing on an empty job.
	ErrNoSources = errors.New("engine: job has no sources")

	// ErrInvalidTopology is returned when a Source is given an incoming
	// edge, the one condition the spec defines this error for: only an
	// Operator accepts input queues.
	ErrInvalidTopology = errors.New("engine: invalid topology")

	// ErrCyclicTopology is returned by Submit when the operator graph
	// reachable from the job's sources contains a cycle; the engine only
	// schedules directed acyclic graphs.
	ErrCyclicTopology = errors.New("engine: job topology contains a cycle")

	// ErrSourceFailed names, in the error log line, a source's GetEvents call
	// that returned an error or panicked. It is logged, not returned, and the
	// source instance keeps polling.
	ErrSourceFailed = errors.New("engine: source instance failed")

	// ErrNotRunning is returned by Stop when the engine was never started or
	// has already been stopped.
	ErrNotRunning = errors.New("engine: not running")
)
