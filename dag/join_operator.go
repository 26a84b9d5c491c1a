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

import "github.com/jaredzhou/pytream/grouping"

// JoinOperatorBase is embedded by operators that fan in several named
// streams (via NamedStreams.Join). Any input stream not given an explicit
// grouping strategy falls back to AllGrouping, so an unconfigured join
// input still broadcasts rather than silently dropping events, the
// behavior documented for JoinOperator's default grouping.
type JoinOperatorBase struct {
	BaseOperator
}

// NewJoinOperatorBase creates the shared bookkeeping for a join operator
// with a grouping strategy per named input stream.
func NewJoinOperatorBase(name string, parallelism int, groupingMap map[string]grouping.Strategy) JoinOperatorBase {
	return JoinOperatorBase{BaseOperator: NewBaseOperatorWithGroupingMap(name, parallelism, groupingMap)}
}

// GroupingStrategy returns the configured strategy for streamName, or
// AllGrouping if none was configured for that input.
func (j *JoinOperatorBase) GroupingStrategy(streamName string) grouping.Strategy {
	if strategy := j.BaseOperator.GroupingStrategy(streamName); strategy != nil {
		return strategy
	}
	return grouping.NewAllGrouping()
}
