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

import (
	"fmt"

	"github.com/jaredzhou/pytream/window"
)

// DefaultChannel is the output channel an operator writes to when it
// doesn't register any channel of its own.
const DefaultChannel = "default"

// ErrDuplicateEdge is returned when the same operator is attached twice to
// the same channel of one stream, whatever stream names the two edges use.
type ErrDuplicateEdge struct {
	Operator string
}

func (e *ErrDuplicateEdge) Error() string {
	return fmt.Sprintf("dag: operator %q is applied to the same stream channel twice", e.Operator)
}

// Stream represents the output of a Component: a set of channels, each
// fanning out to the operators attached to it.
type Stream struct {
	// downstream[channel][streamName] = operator
	downstream map[string]map[string]Operator
}

func newStream() *Stream {
	return &Stream{downstream: make(map[string]map[string]Operator)}
}

// streamOption configures how ApplyOperator attaches an operator to a
// stream.
type streamOption struct {
	channel    string
	streamName string
}

// StreamOption customizes a single ApplyOperator call.
type StreamOption func(*streamOption)

// WithChannel attaches the operator to a non-default output channel.
func WithChannel(channel string) StreamOption {
	return func(o *streamOption) { o.channel = channel }
}

// WithStreamName tags the edge with an input name the downstream operator
// can use to tell multiple inputs apart, as NamedStreams.Join does for each
// of its inputs.
func WithStreamName(streamName string) StreamOption {
	return func(o *streamOption) { o.streamName = streamName }
}

// ApplyOperator attaches op to this stream and returns op's own outgoing
// stream, so the next operator is attached to the returned stream:
// out, err := stream.ApplyOperator(a); then out.ApplyOperator(b).
func (s *Stream) ApplyOperator(op Operator, opts ...StreamOption) (*Stream, error) {
	cfg := streamOption{channel: DefaultChannel, streamName: DefaultStreamName}
	for _, opt := range opts {
		opt(&cfg)
	}

	operators, ok := s.downstream[cfg.channel]
	if !ok {
		operators = make(map[string]Operator)
		s.downstream[cfg.channel] = operators
	}

	for _, existing := range operators {
		if existing == op {
			return nil, &ErrDuplicateEdge{Operator: op.Name()}
		}
	}

	operators[cfg.streamName] = op
	return op.OutgoingStream(), nil
}

// SelectChannel returns a view of this stream scoped to one output channel.
func (s *Stream) SelectChannel(channel string) *StreamChannel {
	return &StreamChannel{base: s, channel: channel}
}

// Channels returns every channel an operator has been attached to.
func (s *Stream) Channels() []string {
	channels := make([]string, 0, len(s.downstream))
	for channel := range s.downstream {
		channels = append(channels, channel)
	}
	return channels
}

// AppliedOperators returns the stream-name-to-operator bindings attached to
// channel.
func (s *Stream) AppliedOperators(channel string) map[string]Operator {
	return s.downstream[channel]
}

// WithWindowing attaches a single windowing strategy applied uniformly to
// this stream's default input.
func (s *Stream) WithWindowing(strategy window.Strategy) *WindowedStream {
	return &WindowedStream{
		base:        s,
		strategyMap: map[string]window.Strategy{DefaultStreamName: strategy},
	}
}

// applyTo lets a plain Stream act as a fan-in source for Streams.Of.
func (s *Stream) applyTo(op Operator) (*Stream, error) {
	return s.ApplyOperator(op)
}

// StreamChannel is a view of a Stream scoped to one output channel.
type StreamChannel struct {
	base    *Stream
	channel string
}

// ApplyOperator attaches op to this channel of the underlying stream.
func (c *StreamChannel) ApplyOperator(op Operator, opts ...StreamOption) (*Stream, error) {
	opts = append([]StreamOption{WithChannel(c.channel)}, opts...)
	return c.base.ApplyOperator(op, opts...)
}

func (c *StreamChannel) applyTo(op Operator) (*Stream, error) {
	return c.ApplyOperator(op)
}

// fanInSource is anything Streams.Of can merge into a single operator.
type fanInSource interface {
	applyTo(op Operator) (*Stream, error)
}

// Streams merges several streams into one operator, each under the
// default input name, the unnamed counterpart to NamedStreams.
type Streams struct {
	sources []fanInSource
}

// Of collects one or more streams (or channel-scoped views of streams) to
// later apply the same operator to, as in:
//
//	dag.Of(s1, s2.SelectChannel("alerts")).ApplyOperator(op)
func Of(sources ...fanInSource) *Streams {
	return &Streams{sources: append([]fanInSource{}, sources...)}
}

// ApplyOperator attaches op to every merged source and returns op's
// outgoing stream.
func (s *Streams) ApplyOperator(op Operator) (*Stream, error) {
	var out *Stream
	for _, src := range s.sources {
		var err error
		out, err = src.applyTo(op)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NamedStreams binds several streams to distinct input names so a join
// operator can tell them apart and apply a per-input grouping strategy.
type NamedStreams struct {
	streams map[string]*Stream
}

// NamedStreamsOf builds a NamedStreams from a name-to-stream mapping.
func NamedStreamsOf(streams map[string]*Stream) *NamedStreams {
	m := make(map[string]*Stream, len(streams))
	for k, v := range streams {
		m[k] = v
	}
	return &NamedStreams{streams: m}
}

// Join attaches op to every named stream under its own input name and
// returns op's outgoing stream.
func (n *NamedStreams) Join(op Operator) (*Stream, error) {
	var out *Stream
	for streamName, stream := range n.streams {
		result, err := stream.ApplyOperator(op, WithStreamName(streamName))
		if err != nil {
			return nil, err
		}
		out = result
	}
	return out, nil
}

// WindowedStream is a Stream whose events are first grouped into windows
// before an Operator sees them.
type WindowedStream struct {
	base        *Stream
	strategyMap map[string]window.Strategy
}

// WindowedStreamOf builds a WindowedStream from a name-to-strategy map.
// ApplyOperator uses only the strategy stored under DefaultStreamName;
// strategies under other names are not applied, and ApplyOperator returns
// an error when the map has no DefaultStreamName entry.
func WindowedStreamOf(base *Stream, strategyMap map[string]window.Strategy) *WindowedStream {
	m := make(map[string]window.Strategy, len(strategyMap))
	for k, v := range strategyMap {
		m[k] = v
	}
	return &WindowedStream{base: base, strategyMap: m}
}

// ApplyOperator wraps op in a windowing adapter bound to this stream's
// strategy and attaches that adapter as the actual downstream component,
// substituting a windowingOperator for the caller's window.Operator in the
// component graph.
func (w *WindowedStream) ApplyOperator(op window.Operator, name string, parallelism int) (*Stream, error) {
	strategy, ok := w.strategyMap[DefaultStreamName]
	if !ok {
		return nil, fmt.Errorf("dag: windowed stream has no strategy for %q", DefaultStreamName)
	}
	windowing := newWindowingOperator(name, parallelism, strategy, op)
	return w.base.ApplyOperator(windowing)
}
