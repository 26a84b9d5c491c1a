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
	"sync"
	"testing"
	"time"

	"github.com/jaredzhou/pytream/dag"
	"github.com/jaredzhou/pytream/event"
	"github.com/jaredzhou/pytream/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onceTimedSource emits a fixed batch of pre-timestamped events exactly
// once, then idles, the windowing counterpart to listSource.
type onceTimedSource struct {
	dag.BaseComponent
	once   sync.Once
	millis []int64
}

func (s *onceTimedSource) SetupInstance(int) error { return nil }

func (s *onceTimedSource) GetEvents(collect dag.Collector) error {
	s.once.Do(func() {
		for _, ms := range s.millis {
			collect(event.WithTimeMillis(event.New(map[string]any{"t": ms}), ms))
		}
	})
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (s *onceTimedSource) Clone() dag.Source {
	return &onceTimedSource{BaseComponent: s.BaseComponent, millis: s.millis}
}

// countingWindowOperator records how many events landed in each closed
// window it was handed, guarded by a mutex since the engine may run
// several of its instances concurrently.
type countingWindowOperator struct {
	mu     *sync.Mutex
	counts *[]int
}

func (o *countingWindowOperator) SetupInstance(int) error { return nil }

func (o *countingWindowOperator) ApplyWindow(w *window.EventWindow, collect func(evt event.Event, channel ...string)) error {
	o.mu.Lock()
	*o.counts = append(*o.counts, len(w.Events()))
	o.mu.Unlock()
	collect(event.New(map[string]any{"count": len(w.Events()), "start": w.Start()}))
	return nil
}

func (o *countingWindowOperator) Clone() window.Operator {
	return &countingWindowOperator{mu: o.mu, counts: o.counts}
}

// TestWindowedPipelineClosesOnIdleTickWithoutNewEvents runs a fixed window
// end to end through the real engine: a source emits three timed events
// well inside the processing-time clock, then goes idle. With no further
// events arriving, only the idle ticker wired into the operator instance
// executor advances the windowing adapter's clock far enough to close and
// emit the window.
func TestWindowedPipelineClosesOnIdleTickWithoutNewEvents(t *testing.T) {
	// Windowing closure runs off the wall clock, so the three events need
	// real epoch-millisecond timestamps a few
	// milliseconds apart, not small synthetic ones, to land in the same
	// bucket relative to the engine's own NowMillis() reads.
	base := time.Now().UnixMilli()
	src := &onceTimedSource{
		BaseComponent: dag.NewBaseComponent("src", 1),
		millis:        []int64{base, base + 2, base + 4},
	}

	var mu sync.Mutex
	var counts []int
	windowOp := &countingWindowOperator{mu: &mu, counts: &counts}

	job := dag.NewJob("windowed")
	stream, err := job.AddSource(src)
	require.NoError(t, err)

	// length = interval = 100ms, watermark 50ms: the window closes only
	// once the wall clock has advanced at least 50ms past the bucket's
	// end. No further events arrive after the initial batch, so only the
	// idle ticker wired into the operator instance executor can advance
	// that clock far enough to emit it.
	strategy := window.NewFixedTimeWindowingStrategy(100, 50)
	_, err = stream.WithWindowing(strategy).ApplyOperator(windowOp, "counter", 1)
	require.NoError(t, err)

	eng := New()
	require.NoError(t, eng.Submit(job))
	defer eng.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(counts) == 1
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3}, counts)
}
