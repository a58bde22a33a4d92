// Copyright 2026 OctoQL, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gql

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Registry binds tool names to their operations and is the only externally
// visible entry point of the core. The table is built at startup and
// resolved by lookup; invocations for unregistered names are rejected
// before any network activity occurs.
type Registry struct {
	ops    map[string]*Operation
	exec   *Executor
	pager  *Paginator
	logger *slog.Logger
}

// NewRegistry creates an empty registry backed by the given executor.
func NewRegistry(exec *Executor, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		ops:    make(map[string]*Operation),
		exec:   exec,
		pager:  NewPaginator(exec, logger),
		logger: logger,
	}
}

// Register adds an operation to the table. It fails on duplicate names and
// on structurally invalid operations so misconfigurations surface at
// startup rather than at invocation time.
func (r *Registry) Register(op *Operation) error {
	if op.Name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}
	if _, exists := r.ops[op.Name]; exists {
		return fmt.Errorf("operation %q is already registered", op.Name)
	}
	if !op.Raw && op.Document == "" {
		return fmt.Errorf("operation %q has no document", op.Name)
	}
	if op.Connection != nil {
		if len(op.Connection.Path) == 0 {
			return fmt.Errorf("operation %q declares a connection without a path", op.Name)
		}
		if op.Bounds.PageSize <= 0 || op.Bounds.MaxPages <= 0 || op.Bounds.MaxItems <= 0 {
			return fmt.Errorf("operation %q must carry finite pagination bounds", op.Name)
		}
	}
	r.ops[op.Name] = op
	return nil
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (*Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Operations returns all registered operations sorted by name.
func (r *Registry) Operations() []*Operation {
	out := make([]*Operation, 0, len(r.ops))
	for _, op := range r.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke runs the full pipeline for one tool invocation: lookup, build,
// execute (paginating for connection operations), map. It never panics and
// always returns a well-formed ToolResult.
func (r *Registry) Invoke(ctx context.Context, inv ToolInvocation) ToolResult {
	op, ok := r.ops[inv.Operation]
	if !ok {
		r.logger.Warn("unknown operation invoked", "operation", inv.Operation)
		return UnknownOperationResult(inv.Operation)
	}

	req, err := Build(op, inv)
	if err != nil {
		r.logger.Warn("invocation rejected", "operation", inv.Operation, "error", err)
		return InvalidArgumentResult(inv.Operation, err)
	}

	started := time.Now()

	if op.Connection != nil {
		bounds, err := PageArgs(op, inv)
		if err != nil {
			return InvalidArgumentResult(inv.Operation, err)
		}
		set := r.pager.FetchAll(ctx, req, op.Connection, bounds)
		r.logger.Info("paginated operation finished",
			"operation", inv.Operation, "pages", set.Pages, "items", len(set.Items),
			"stopReason", set.Reason, "duration", time.Since(started))
		return MapPages(op.Name, set)
	}

	out, execErr := r.exec.Execute(ctx, req)
	attempts := 0
	if out != nil {
		attempts = len(out.Attempts)
	}
	r.logger.Info("operation finished",
		"operation", inv.Operation, "attempts", attempts,
		"ok", execErr == nil, "duration", time.Since(started))
	return MapOutcome(op.Name, out, execErr)
}
