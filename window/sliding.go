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

package window

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jaredzhou/pytream/event"
	"github.com/jaredzhou/pytream/utils/timex"
)

// ErrUntimedEvent is returned by SlidingTimeWindowingStrategy.Add when given
// an event that doesn't carry an event-time timestamp.
var ErrUntimedEvent = errors.New("window: timed events are required by time based windowing strategy")

// SlidingTimeWindowingStrategy buckets events into overlapping, fixed-length
// windows that restart every intervalMillis. A window is ready once
// processing time has advanced watermarkMillis past its end.
type SlidingTimeWindowingStrategy struct {
	lengthMillis    int64
	intervalMillis  int64
	watermarkMillis int64
	windows         map[int64]*EventWindow
}

// NewSlidingTimeWindowingStrategy creates a sliding window strategy. Each
// window spans lengthMillis of event time; a new window starts every
// intervalMillis. watermarkMillis bounds how long a window stays open for
// late arrivals once its end time has passed, and how long an event can
// lag the processing-time clock before it is dropped as late.
func NewSlidingTimeWindowingStrategy(lengthMillis, intervalMillis, watermarkMillis int64) *SlidingTimeWindowingStrategy {
	return &SlidingTimeWindowingStrategy{
		lengthMillis:    lengthMillis,
		intervalMillis:  intervalMillis,
		watermarkMillis: watermarkMillis,
		windows:         make(map[int64]*EventWindow),
	}
}

// NewFixedTimeWindowingStrategy creates a tumbling (non-overlapping) window
// strategy, the special case of a sliding window whose interval equals its
// length.
func NewFixedTimeWindowingStrategy(lengthMillis, watermarkMillis int64) *SlidingTimeWindowingStrategy {
	return NewSlidingTimeWindowingStrategy(lengthMillis, lengthMillis, watermarkMillis)
}

func (s *SlidingTimeWindowingStrategy) Add(evt event.Event, processingTimeMillis int64) error {
	timed, ok := event.AsTimed(evt)
	if !ok {
		return fmt.Errorf("%w", ErrUntimedEvent)
	}

	eventTime := timed.TimeMillis()
	if s.isLate(eventTime, processingTimeMillis) {
		return nil
	}

	start := timex.AlignDownMillis(eventTime, s.intervalMillis)
	for eventTime < start+s.lengthMillis {
		w, ok := s.windows[start]
		if !ok {
			w = newEventWindow(start, start+s.lengthMillis)
			s.windows[start] = w
		}
		w.Add(evt)
		start -= s.intervalMillis
	}
	return nil
}

// isLate reports whether eventTime has already fallen outside the
// watermark's grace period as of processingTimeMillis.
func (s *SlidingTimeWindowingStrategy) isLate(eventTime, processingTimeMillis int64) bool {
	return eventTime+s.watermarkMillis < processingTimeMillis
}

// Clone returns a fresh strategy with the same length/interval/watermark
// configuration and no accumulated windows, for a new operator instance.
func (s *SlidingTimeWindowingStrategy) Clone() Strategy {
	return NewSlidingTimeWindowingStrategy(s.lengthMillis, s.intervalMillis, s.watermarkMillis)
}

// ReadyWindows returns every window whose watermark has passed as of
// processingTimeMillis, in ascending start-time order, and forgets them.
func (s *SlidingTimeWindowingStrategy) ReadyWindows(processingTimeMillis int64) []*EventWindow {
	var ready []*EventWindow
	for start, w := range s.windows {
		if processingTimeMillis >= w.end+s.watermarkMillis {
			ready = append(ready, w)
			delete(s.windows, start)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].start < ready[j].start })
	return ready
}

// defaultIdleFloorMillis is the longest idle re-check interval
// DefaultIdleIntervalMillis proposes: a window interval or watermark above
// it is cut down to it, so closure is re-checked at least every 100ms.
const defaultIdleFloorMillis = 100

// DefaultIdleIntervalMillis proposes how often the engine should re-check
// this strategy for newly-ready windows when processing time advances
// without a new event arriving, the fix for windows that would otherwise
// never close on a stalled input. It picks the tightest of the window
// interval, the watermark, and a 100ms ceiling, floored at 1ms.
func (s *SlidingTimeWindowingStrategy) DefaultIdleIntervalMillis() int64 {
	interval := s.intervalMillis
	if s.watermarkMillis > 0 && s.watermarkMillis < interval {
		interval = s.watermarkMillis
	}
	if interval > defaultIdleFloorMillis {
		interval = defaultIdleFloorMillis
	}
	if interval < 1 {
		interval = 1
	}
	return interval
}
