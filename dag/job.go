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

package dag

import "fmt"

// ErrDuplicateSource is returned by Job.AddSource when the same source is
// added to a job more than once.
type ErrDuplicateSource struct {
	Source string
}

func (e *ErrDuplicateSource) Error() string {
	return fmt.Sprintf("dag: source %q is added to the job twice", e.Source)
}

// Job is the logical description of a streaming pipeline: a set of sources
// and the operator graph reachable from them, before the engine schedules
// it.
type Job struct {
	name    string
	sources map[Source]struct{}
	order   []Source
}

// NewJob creates an empty job.
func NewJob(name string) *Job {
	return &Job{name: name, sources: make(map[Source]struct{})}
}

// Name returns the job's name.
func (j *Job) Name() string {
	return j.name
}

// AddSource registers source with the job and returns its outgoing stream,
// ready to have operators attached. Adding the same source twice is
// rejected so a job's source set has no duplicate components.
func (j *Job) AddSource(source Source) (*Stream, error) {
	if _, ok := j.sources[source]; ok {
		return nil, &ErrDuplicateSource{Source: source.Name()}
	}
	j.sources[source] = struct{}{}
	j.order = append(j.order, source)
	return source.OutgoingStream(), nil
}

// Sources returns every source added to the job, in the order they were
// added.
func (j *Job) Sources() []Source {
	return append([]Source{}, j.order...)
}
