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
	"context"
	"sync"

	"github.com/jaredzhou/pytream/grouping"
	"github.com/jaredzhou/pytream/logger"
	"github.com/jaredzhou/pytream/utils/queue"
)

// DispatchExecutor reads events off one inbound edge's queue and routes
// each to the target instance(s) of the downstream operator, chosen by
// that edge's grouping strategy. The engine runs one DispatchExecutor per
// inbound edge rather than one per downstream component, the fix for the
// original design's single dispatcher silently dropping every edge but the
// last one wired to a multi-input operator.
type DispatchExecutor struct {
	connection     *Connection
	upstream       *queue.EventQueue
	instanceQueues []*queue.EventQueue
	strategy       grouping.Strategy
	log            logger.Logger
}

func newDispatchExecutor(conn *Connection, upstream *queue.EventQueue, instanceQueues []*queue.EventQueue, strategy grouping.Strategy, log logger.Logger) *DispatchExecutor {
	return &DispatchExecutor{
		connection:     conn,
		upstream:       upstream,
		instanceQueues: instanceQueues,
		strategy:       strategy,
		log:            log,
	}
}

// run dispatches events until ctx is cancelled or the upstream queue is
// closed.
func (d *DispatchExecutor) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		evt, err := d.upstream.Take()
		if err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		instance := d.strategy.Instance(evt, len(d.instanceQueues))
		if instance == grouping.Broadcast {
			for _, q := range d.instanceQueues {
				if err := q.Put(evt); err != nil {
					d.log.Warn("dispatch %s: broadcast put failed: %v", d.connection.ID, err)
				}
			}
			continue
		}

		if instance < 0 || instance >= len(d.instanceQueues) {
			d.log.Error("dispatch %s: grouping strategy returned out-of-range instance %d for %d instances",
				d.connection.ID, instance, len(d.instanceQueues))
			continue
		}

		if err := d.instanceQueues[instance].Put(evt); err != nil {
			d.log.Warn("dispatch %s: put to instance %d failed: %v", d.connection.ID, instance, err)
		}
	}
}
