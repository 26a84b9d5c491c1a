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

// Package timex holds small time-bucketing helpers shared by the windowing
// strategies. The engine's windows are specified in integer event-time
// milliseconds rather than time.Duration, so these helpers work directly in
// int64 milliseconds rather than going through time.Duration conversions.
package timex

import "time"

// AlignDownMillis returns the largest multiple of interval that is <= t.
// This is the window-start arithmetic used by the sliding window strategy:
// mostRecentStart = (eventTime / interval) * interval.
func AlignDownMillis(t, interval int64) int64 {
	if interval <= 0 {
		return t
	}
	return (t / interval) * interval
}

// NowMillis returns the current wall-clock time in epoch milliseconds, the
// processing-time clock the windowing operator drives closure from.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
