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

// Package operator collects small, generic dag.Operator implementations
// built on the core engine contract rather than a concrete production
// source or analyzer: convenience operators any job driver can reach for.
package operator

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/jaredzhou/pytream/dag"
	"github.com/jaredzhou/pytream/event"
	"github.com/jaredzhou/pytream/grouping"
)

// BaseOp evaluates a compiled expr-lang program against an event's fields,
// compiling once at setup and running the program fresh against every
// event it sees.
type BaseOp struct {
	program *vm.Program
}

// compile parses source once and caches the resulting program.
func (o *BaseOp) compile(source string) error {
	program, err := expr.Compile(source)
	if err != nil {
		return fmt.Errorf("operator: compile expression %q: %w", source, err)
	}
	o.program = program
	return nil
}

// eval runs the compiled program against env, the field map of the event
// under evaluation.
func (o *BaseOp) eval(env map[string]any) (any, error) {
	return expr.Run(o.program, env)
}

// AsBool coerces an expression result to bool, treating anything that
// isn't literally a bool as false rather than erroring, so a filter
// expression returning nil (an absent field) drops the event instead of
// crashing the worker.
func AsBool(input any) bool {
	v, ok := input.(bool)
	return ok && v
}

// ExprFilterOperator passes an event through unchanged only when a compiled
// boolean expression evaluates to true for it; a false or non-bool result
// drops the event.
// It is a convenience Operator built on the core contract (expr-lang
// compiled once at SetupInstance, evaluated once per event), not a
// concrete domain operator, so it stays inside the engine's own budget
// rather than the example jobs' out-of-scope sources and analyzers.
type ExprFilterOperator struct {
	dag.BaseOperator
	BaseOp
	source string
}

// NewExprFilterOperator creates a filter operator that keeps only events
// for which predicate evaluates to true against the event's field map.
// Compilation happens once, in SetupInstance, so a malformed predicate
// fails the first instance's setup rather than silently dropping every
// event.
func NewExprFilterOperator(name string, parallelism int, predicate string) *ExprFilterOperator {
	return &ExprFilterOperator{
		BaseOperator: dag.NewBaseOperator(name, parallelism, grouping.NewRoundRobin()),
		source:       predicate,
	}
}

// SetupInstance compiles the filter predicate once per instance.
func (f *ExprFilterOperator) SetupInstance(int) error {
	return f.compile(f.source)
}

// Apply evaluates the filter predicate against evt's fields and forwards
// evt to collect only when it evaluates to true.
func (f *ExprFilterOperator) Apply(_ string, evt event.Event, collect dag.Collector) error {
	fields := evt.Fields()
	if fields == nil {
		fields = map[string]any{}
	}
	out, err := f.eval(fields)
	if err != nil {
		return fmt.Errorf("operator: evaluate filter %q: %w", f.source, err)
	}
	if AsBool(out) {
		collect(evt)
	}
	return nil
}

// Clone returns an independent filter operator instance sharing the same
// predicate source; each clone recompiles it in its own SetupInstance.
func (f *ExprFilterOperator) Clone() dag.Operator {
	return &ExprFilterOperator{
		BaseOperator: f.BaseOperator,
		source:       f.source,
	}
}
