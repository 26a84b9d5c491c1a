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

package pytream

import (
	"sync"
	"testing"
	"time"

	"github.com/jaredzhou/pytream/dag"
	"github.com/jaredzhou/pytream/event"
	"github.com/jaredzhou/pytream/grouping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onceSource emits a fixed batch of events exactly once, then idles.
type onceSource struct {
	dag.BaseComponent
	once   sync.Once
	events []map[string]any
}

func (s *onceSource) SetupInstance(int) error { return nil }

func (s *onceSource) GetEvents(collect dag.Collector) error {
	s.once.Do(func() {
		for _, fields := range s.events {
			collect(event.New(fields))
		}
	})
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (s *onceSource) Clone() dag.Source {
	return &onceSource{BaseComponent: s.BaseComponent, events: s.events}
}

// recordingOperator appends every event's "v" field to a shared, mutex
// guarded slice, the simplest possible downstream sink for an end-to-end
// facade test.
type recordingOperator struct {
	dag.BaseOperator
	mu  *sync.Mutex
	out *[]any
}

func (o *recordingOperator) SetupInstance(int) error { return nil }

func (o *recordingOperator) Apply(_ string, evt event.Event, _ dag.Collector) error {
	v, _ := evt.Field("v")
	o.mu.Lock()
	*o.out = append(*o.out, v)
	o.mu.Unlock()
	return nil
}

func (o *recordingOperator) Clone() dag.Operator {
	return &recordingOperator{BaseOperator: o.BaseOperator, mu: o.mu, out: o.out}
}

// TestNewAndSubmitRunAnEndToEndPipeline exercises the root facade exactly
// the way a job driver would: build a job via NewJob, wire a source to an
// operator, Submit it on an engine built by New, and observe results.
func TestNewAndSubmitRunAnEndToEndPipeline(t *testing.T) {
	var mu sync.Mutex
	var out []any

	src := &onceSource{
		BaseComponent: dag.NewBaseComponent("src", 1),
		events: []map[string]any{
			{"v": 1}, {"v": 2}, {"v": 3},
		},
	}
	op := &recordingOperator{
		BaseOperator: dag.NewBaseOperator("recorder", 1, grouping.NewRoundRobin()),
		mu:           &mu,
		out:          &out,
	}

	job := NewJob("facade-demo")
	stream, err := job.AddSource(src)
	require.NoError(t, err)
	_, err = stream.ApplyOperator(op)
	require.NoError(t, err)

	eng := New()
	require.NoError(t, eng.Submit(job))
	defer eng.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(out) == 3
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []any{1, 2, 3}, out)
}
