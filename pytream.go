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

// Package pytream is the single obvious import for embedding the dataflow
// engine into a job driver: New builds a ready-to-Submit engine and NewJob
// starts a logical graph, a thin facade over the dag and engine packages.
package pytream

import (
	"github.com/jaredzhou/pytream/dag"
	"github.com/jaredzhou/pytream/engine"
)

// New creates a StreamEngine ready to Submit a Job, configured by opts.
//
//	eng := pytream.New(engine.WithQueueCapacity(256))
//	job := pytream.NewJob("fraud-detection")
//	stream, _ := job.AddSource(mySource)
//	stream.ApplyOperator(myOperator)
//	err := eng.Submit(job)
func New(opts ...engine.Option) *engine.StreamEngine {
	return engine.New(opts...)
}

// NewJob starts an empty logical graph that Sources and Operators are
// wired onto before being handed to a StreamEngine's Submit.
func NewJob(name string) *dag.Job {
	return dag.NewJob(name)
}
