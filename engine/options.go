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
	"github.com/jaredzhou/pytream/logger"
	"github.com/jaredzhou/pytream/utils/queue"
)

// config holds the engine's tunables, assembled from Option values.
type config struct {
	queueCapacity       int
	log                 logger.Logger
	idleTickFloorMillis int64
}

func defaultConfig() config {
	return config{
		queueCapacity:       queue.DefaultCapacity,
		log:                 logger.GetDefault(),
		idleTickFloorMillis: 1,
	}
}

// Option configures a StreamEngine at construction time.
type Option func(*config)

// WithQueueCapacity sets the buffer size of every queue the engine creates
// between components. The default is queue.DefaultCapacity.
func WithQueueCapacity(capacity int) Option {
	return func(c *config) { c.queueCapacity = capacity }
}

// WithLogger overrides the logger the engine and its executors use. The
// default is logger.GetDefault().
func WithLogger(log logger.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithLogLevel sets the log level on the logger configured at the point
// this option is applied: options run in the order given, so it reaches a
// WithLogger logger only when it comes after WithLogger, and otherwise sets
// the level of logger.GetDefault().
func WithLogLevel(level logger.Level) Option {
	return func(c *config) { c.log.SetLevel(level) }
}

// WithIdleTickFloor sets the minimum interval, in milliseconds, between
// idle re-checks of a windowing operator instance. Strategies that propose
// a tighter cadence are clamped up to this floor, bounding how much CPU an
// idle pipeline with many windowed operators burns on ticking alone.
func WithIdleTickFloor(millis int64) Option {
	return func(c *config) {
		if millis > 0 {
			c.idleTickFloorMillis = millis
		}
	}
}
