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
	"github.com/jaredzhou/pytream/grouping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listSource emits its configured events exactly once, then idles; the
// idle sleep keeps the polling loop from spinning the test's CPU budget.
type listSource struct {
	dag.BaseComponent
	once   sync.Once
	events []map[string]any
}

func newListSource(name string, events []map[string]any) *listSource {
	return &listSource{BaseComponent: dag.NewBaseComponent(name, 1), events: events}
}

func (s *listSource) SetupInstance(int) error { return nil }

func (s *listSource) GetEvents(collect dag.Collector) error {
	s.once.Do(func() {
		for _, fields := range s.events {
			collect(event.New(fields))
		}
	})
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (s *listSource) Clone() dag.Source {
	return &listSource{BaseComponent: s.BaseComponent, events: s.events}
}

// resultSink is a concurrency-safe recorder shared by every clone of a
// recordOperator so the test can observe what each instance received.
type resultSink struct {
	mu   sync.Mutex
	hits map[int][]any
}

func newResultSink() *resultSink {
	return &resultSink{hits: make(map[int][]any)}
}

func (r *resultSink) record(instance int, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[instance] = append(r.hits[instance], v)
}

func (r *resultSink) snapshot() map[int][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int][]any, len(r.hits))
	for k, v := range r.hits {
		out[k] = append([]any{}, v...)
	}
	return out
}

func (r *resultSink) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.hits {
		n += len(v)
	}
	return n
}

// recordOperator records the field named by key from every event it sees,
// tagged with which instance processed it.
type recordOperator struct {
	dag.BaseOperator
	sink     *resultSink
	field    string
	instance int
}

func newRecordOperator(name string, parallelism int, strategy grouping.Strategy, field string, sink *resultSink) *recordOperator {
	return &recordOperator{
		BaseOperator: dag.NewBaseOperator(name, parallelism, strategy),
		sink:         sink,
		field:        field,
	}
}

func (o *recordOperator) SetupInstance(instance int) error {
	o.instance = instance
	return nil
}

func (o *recordOperator) Apply(_ string, evt event.Event, _ dag.Collector) error {
	v, _ := evt.Field(o.field)
	o.sink.record(o.instance, v)
	return nil
}

func (o *recordOperator) Clone() dag.Operator {
	return &recordOperator{BaseOperator: o.BaseOperator, sink: o.sink, field: o.field}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not satisfied before timeout")
}

func TestSubmitRejectsJobWithNoSources(t *testing.T) {
	eng := New()
	err := eng.Submit(dag.NewJob("empty"))
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestSubmitRejectsCyclicTopology(t *testing.T) {
	job := dag.NewJob("cyclic")
	src := newListSource("src", nil)
	srcStream, err := job.AddSource(src)
	require.NoError(t, err)

	sink := newResultSink()
	opA := newRecordOperator("a", 1, grouping.NewRoundRobin(), "v", sink)
	opB := newRecordOperator("b", 1, grouping.NewRoundRobin(), "v", sink)

	aStream, err := srcStream.ApplyOperator(opA)
	require.NoError(t, err)
	bStream, err := aStream.ApplyOperator(opB)
	require.NoError(t, err)
	_, err = bStream.ApplyOperator(opA)
	require.NoError(t, err)

	eng := New()
	err = eng.Submit(job)
	assert.ErrorIs(t, err, ErrCyclicTopology)
}

func TestRoundRobinFansOutInArrivalOrder(t *testing.T) {
	events := make([]map[string]any, 10)
	for i := range events {
		events[i] = map[string]any{"v": i}
	}
	src := newListSource("src", events)

	job := dag.NewJob("roundrobin")
	stream, err := job.AddSource(src)
	require.NoError(t, err)

	sink := newResultSink()
	op := newRecordOperator("fanout", 2, grouping.NewRoundRobin(), "v", sink)
	_, err = stream.ApplyOperator(op)
	require.NoError(t, err)

	eng := New(WithQueueCapacity(16))
	require.NoError(t, eng.Submit(job))
	defer eng.Stop()

	waitFor(t, time.Second, func() bool { return sink.total() == 10 })

	snapshot := sink.snapshot()
	assert.ElementsMatch(t, []any{0, 2, 4, 6, 8}, snapshot[0])
	assert.ElementsMatch(t, []any{1, 3, 5, 7, 9}, snapshot[1])
}

func TestFieldGroupingSendsSameKeyToSameInstance(t *testing.T) {
	keys := []string{"a", "b", "c", "a", "b", "a", "c", "b"}
	events := make([]map[string]any, len(keys))
	for i, k := range keys {
		events[i] = map[string]any{"key": k, "v": i}
	}
	src := newListSource("src", events)

	job := dag.NewJob("fieldgrouping")
	stream, err := job.AddSource(src)
	require.NoError(t, err)

	sink := newResultSink()
	strategy := grouping.NewFieldGrouping(grouping.FieldKey("key"))
	op := newRecordOperator("keyed", 3, strategy, "key", sink)
	_, err = stream.ApplyOperator(op)
	require.NoError(t, err)

	eng := New(WithQueueCapacity(16))
	require.NoError(t, eng.Submit(job))
	defer eng.Stop()

	waitFor(t, time.Second, func() bool { return sink.total() == len(keys) })

	snapshot := sink.snapshot()
	instanceOf := make(map[any]int)
	for instance, values := range snapshot {
		for _, v := range values {
			if seen, ok := instanceOf[v]; ok {
				assert.Equal(t, seen, instance, "key %v routed to two different instances", v)
			} else {
				instanceOf[v] = instance
			}
		}
	}
}

func TestAllGroupingBroadcastsToEveryInstance(t *testing.T) {
	events := []map[string]any{{"v": 1}, {"v": 2}, {"v": 3}}
	src := newListSource("src", events)

	job := dag.NewJob("broadcast")
	stream, err := job.AddSource(src)
	require.NoError(t, err)

	sink := newResultSink()
	op := newRecordOperator("broadcast", 3, grouping.NewAllGrouping(), "v", sink)
	_, err = stream.ApplyOperator(op)
	require.NoError(t, err)

	eng := New(WithQueueCapacity(16))
	require.NoError(t, eng.Submit(job))
	defer eng.Stop()

	waitFor(t, time.Second, func() bool { return sink.total() == len(events)*3 })

	snapshot := sink.snapshot()
	for instance := 0; instance < 3; instance++ {
		assert.ElementsMatch(t, []any{1, 2, 3}, snapshot[instance])
	}
}

func TestStopIsIdempotentlySafeAndUnblocksGoroutines(t *testing.T) {
	src := newListSource("src", []map[string]any{{"v": 1}})
	job := dag.NewJob("stop")
	stream, err := job.AddSource(src)
	require.NoError(t, err)

	sink := newResultSink()
	op := newRecordOperator("op", 1, grouping.NewRoundRobin(), "v", sink)
	_, err = stream.ApplyOperator(op)
	require.NoError(t, err)

	eng := New()
	require.NoError(t, eng.Submit(job))
	waitFor(t, time.Second, func() bool { return sink.total() == 1 })

	require.NoError(t, eng.Stop())

	err = eng.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
}

// namedHit records which named input stream an event arrived on alongside
// which instance processed it, for the join-routing scenario below.
type namedHit struct {
	streamName string
	instance   int
	value      any
}

// joinRecordOperator is a two-input join: each inbound stream name gets its
// own grouping strategy (configured via NewBaseOperatorWithGroupingMap), and
// every event it processes is recorded with the input name it arrived on.
type joinRecordOperator struct {
	dag.BaseOperator
	mu       *sync.Mutex
	hits     *[]namedHit
	instance int
}

func (o *joinRecordOperator) SetupInstance(instance int) error {
	o.instance = instance
	return nil
}

func (o *joinRecordOperator) Apply(streamName string, evt event.Event, _ dag.Collector) error {
	v, _ := evt.Field("v")
	o.mu.Lock()
	*o.hits = append(*o.hits, namedHit{streamName: streamName, instance: o.instance, value: v})
	o.mu.Unlock()
	return nil
}

func (o *joinRecordOperator) Clone() dag.Operator {
	return &joinRecordOperator{BaseOperator: o.BaseOperator, mu: o.mu, hits: o.hits}
}

// TestNamedStreamsJoinAppliesPerInputGrouping wires a joiner with two named
// inputs, one RoundRobin'd and one broadcast via AllGrouping, and confirms
// the dispatcher-per-inbound-edge design lets a join operator keep both
// inputs live simultaneously instead of one silently replacing the other.
func TestNamedStreamsJoinAppliesPerInputGrouping(t *testing.T) {
	vehicleEvents := []map[string]any{{"v": "v1"}, {"v": "v2"}, {"v": "v3"}, {"v": "v4"}}
	temperatureEvents := []map[string]any{{"v": "t1"}, {"v": "t2"}}

	job := dag.NewJob("join")
	vehicleSrc := newListSource("vehicle", vehicleEvents)
	temperatureSrc := newListSource("temperature", temperatureEvents)

	vehicleStream, err := job.AddSource(vehicleSrc)
	require.NoError(t, err)
	temperatureStream, err := job.AddSource(temperatureSrc)
	require.NoError(t, err)

	var mu sync.Mutex
	var hits []namedHit
	join := &joinRecordOperator{
		BaseOperator: dag.NewBaseOperatorWithGroupingMap("joiner", 2, map[string]grouping.Strategy{
			"vehicle":     grouping.NewRoundRobin(),
			"temperature": grouping.NewAllGrouping(),
		}),
		mu:   &mu,
		hits: &hits,
	}

	_, err = dag.NamedStreamsOf(map[string]*dag.Stream{
		"vehicle":     vehicleStream,
		"temperature": temperatureStream,
	}).Join(join)
	require.NoError(t, err)

	eng := New(WithQueueCapacity(16))
	require.NoError(t, eng.Submit(job))
	defer eng.Stop()

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(hits) == len(vehicleEvents)+len(temperatureEvents)*2
	})

	mu.Lock()
	defer mu.Unlock()

	vehicleByInstance := map[int]int{}
	temperatureByInstance := map[int]int{}
	for _, h := range hits {
		switch h.streamName {
		case "vehicle":
			vehicleByInstance[h.instance]++
		case "temperature":
			temperatureByInstance[h.instance]++
		default:
			t.Fatalf("unexpected stream name %q", h.streamName)
		}
	}

	assert.Len(t, vehicleByInstance, 2)
	assert.Equal(t, 2, vehicleByInstance[0])
	assert.Equal(t, 2, vehicleByInstance[1])

	// AllGrouping broadcasts every temperature event to both instances.
	assert.Equal(t, len(temperatureEvents), temperatureByInstance[0])
	assert.Equal(t, len(temperatureEvents), temperatureByInstance[1])
}

// sidedSource emits each of its configured events once, routing events
// whose "err" field is true onto the "errors" side channel and everything
// else onto the default channel, the way a component emits side output by
// naming the channel in its collect call.
type sidedSource struct {
	dag.BaseComponent
	once   sync.Once
	events []map[string]any
}

func (s *sidedSource) SetupInstance(int) error { return nil }

func (s *sidedSource) GetEvents(collect dag.Collector) error {
	s.once.Do(func() {
		for _, fields := range s.events {
			evt := event.New(fields)
			if errFlag, _ := fields["err"].(bool); errFlag {
				collect(evt, "errors")
				continue
			}
			collect(evt)
		}
	})
	time.Sleep(2 * time.Millisecond)
	return nil
}

func (s *sidedSource) Clone() dag.Source {
	return &sidedSource{BaseComponent: s.BaseComponent, events: s.events}
}

// TestSideChannelRoutesEventsToDedicatedDownstreamOperator wires one
// operator to a Source's default channel and a second to its "errors"
// channel, and confirms each receives only the events emitted onto its own
// channel.
func TestSideChannelRoutesEventsToDedicatedDownstreamOperator(t *testing.T) {
	events := []map[string]any{
		{"v": 1, "err": false},
		{"v": 2, "err": true},
		{"v": 3, "err": false},
		{"v": 4, "err": true},
	}
	src := &sidedSource{BaseComponent: dag.NewBaseComponent("sided", 1), events: events}

	job := dag.NewJob("channels")
	stream, err := job.AddSource(src)
	require.NoError(t, err)

	defaultSink := newResultSink()
	defaultOp := newRecordOperator("main", 1, grouping.NewRoundRobin(), "v", defaultSink)
	_, err = stream.ApplyOperator(defaultOp)
	require.NoError(t, err)

	errSink := newResultSink()
	errOp := newRecordOperator("errors", 1, grouping.NewRoundRobin(), "v", errSink)
	_, err = stream.SelectChannel("errors").ApplyOperator(errOp)
	require.NoError(t, err)

	eng := New(WithQueueCapacity(16))
	require.NoError(t, eng.Submit(job))
	defer eng.Stop()

	waitFor(t, time.Second, func() bool {
		return defaultSink.total() == 2 && errSink.total() == 2
	})

	assert.ElementsMatch(t, []any{1, 3}, defaultSink.snapshot()[0])
	assert.ElementsMatch(t, []any{2, 4}, errSink.snapshot()[0])
}
