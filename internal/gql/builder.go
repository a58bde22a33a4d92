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
	"encoding/json"
	"fmt"
	"math"
	"strings"

	octoerrors "github.com/octoql/octoql/internal/errors"
)

// ParamType declares the expected JSON shape of an operation argument.
type ParamType string

// Supported parameter types.
const (
	ParamString     ParamType = "string"
	ParamInt        ParamType = "integer"
	ParamBool       ParamType = "boolean"
	ParamFloat      ParamType = "number"
	ParamObject     ParamType = "object"
	ParamStringList ParamType = "string_list"
)

// Param is one entry of an operation's declared parameter schema. Arguments
// are validated against it before any request is built.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Description string
	Enum        []string
}

// OpKind distinguishes queries from mutations. Mutations are never retried
// automatically unless the operation is marked idempotent.
type OpKind string

// Operation kinds.
const (
	OpQuery    OpKind = "query"
	OpMutation OpKind = "mutation"
)

// Connection declares that an operation returns a paginated list, and where
// in the response data the connection object lives.
type Connection struct {
	// Path walks from the data root to the object holding pageInfo and
	// nodes, e.g. ["repository", "issues"].
	Path []string
}

// PageBounds caps the work a single multi-page fetch can do. All fields are
// finite; an unbounded fetch is never allowed.
type PageBounds struct {
	PageSize int
	MaxPages int
	MaxItems int
	After    string
}

// Operation is one registered tool: a GraphQL document template, its
// parameter schema, and pagination/retry attributes. Operations are built
// once at startup and never mutated afterward.
type Operation struct {
	Name        string
	Description string
	Kind        OpKind
	Idempotent  bool
	Document    string
	Params      []Param
	Connection  *Connection
	Bounds      PageBounds

	// Raw marks a passthrough operation whose document and variables come
	// from the caller verbatim (the execute_graphql tool).
	Raw bool
}

// Reserved argument names accepted by connection operations in addition to
// their declared parameters. They steer pagination and are consumed by the
// registry, never forwarded as GraphQL variables.
const (
	argPageSize = "page_size"
	argMaxItems = "max_items"
	argMaxPages = "max_pages"
	argAfter    = "after"
)

// Build converts a tool invocation into a GraphQL request. It is a pure
// function: it performs no I/O and the same invocation always yields an
// identical request. It fails with ErrInvalidArgument if a required argument
// is missing or has the wrong shape, and rejects arguments the operation
// does not declare. Caller values are only ever passed as GraphQL
// variables, never spliced into the document text.
func Build(op *Operation, inv ToolInvocation) (*Request, error) {
	if op.Raw {
		return buildRaw(op, inv)
	}

	declared := make(map[string]Param, len(op.Params))
	for _, p := range op.Params {
		declared[p.Name] = p
	}

	vars := make(map[string]any, len(inv.Arguments))
	for name, value := range inv.Arguments {
		if op.Connection != nil && isReservedPageArg(name) {
			continue // validated separately by PageArgs
		}
		p, ok := declared[name]
		if !ok {
			return nil, fmt.Errorf("operation %q does not accept argument %q: %w",
				op.Name, name, octoerrors.ErrInvalidArgument)
		}
		coerced, err := coerceParam(p, value)
		if err != nil {
			return nil, fmt.Errorf("operation %q argument %q: %w", op.Name, name, err)
		}
		vars[p.Name] = coerced
	}

	for _, p := range op.Params {
		if p.Required {
			if _, ok := vars[p.Name]; !ok {
				return nil, fmt.Errorf("operation %q requires argument %q: %w",
					op.Name, p.Name, octoerrors.ErrInvalidArgument)
			}
		}
	}

	return &Request{
		Operation:  op.Name,
		Document:   op.Document,
		Variables:  vars,
		Mutation:   op.Kind == OpMutation,
		Idempotent: op.Idempotent,
	}, nil
}

// buildRaw handles the passthrough operation: the caller supplies the
// document itself plus an optional variables object.
func buildRaw(op *Operation, inv ToolInvocation) (*Request, error) {
	for name := range inv.Arguments {
		if name != "query" && name != "variables" {
			return nil, fmt.Errorf("operation %q does not accept argument %q: %w",
				op.Name, name, octoerrors.ErrInvalidArgument)
		}
	}

	raw, ok := inv.Arguments["query"]
	if !ok {
		return nil, fmt.Errorf("operation %q requires argument %q: %w",
			op.Name, "query", octoerrors.ErrInvalidArgument)
	}
	document, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("operation %q argument %q: expected string, got %T: %w",
			op.Name, "query", raw, octoerrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(document) == "" {
		return nil, fmt.Errorf("operation %q: query cannot be empty: %w",
			op.Name, octoerrors.ErrInvalidArgument)
	}

	vars := map[string]any{}
	if rawVars, ok := inv.Arguments["variables"]; ok && rawVars != nil {
		m, ok := rawVars.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("operation %q argument %q: expected object, got %T: %w",
				op.Name, "variables", rawVars, octoerrors.ErrInvalidArgument)
		}
		for k, v := range m {
			vars[k] = v
		}
	}

	return &Request{
		Operation:  op.Name,
		Document:   document,
		Variables:  vars,
		Mutation:   documentIsMutation(document),
		Idempotent: false,
	}, nil
}

// PageArgs resolves the effective pagination bounds for a connection
// operation: the operation's configured bounds overridden by any reserved
// arguments the caller passed. It fails with ErrInvalidArgument on mistyped
// or out-of-range values.
func PageArgs(op *Operation, inv ToolInvocation) (PageBounds, error) {
	bounds := op.Bounds

	if raw, ok := inv.Arguments[argPageSize]; ok {
		n, err := coerceInt(raw)
		if err != nil || n <= 0 || n > 100 {
			return bounds, fmt.Errorf("operation %q argument %q must be an integer in [1,100]: %w",
				op.Name, argPageSize, octoerrors.ErrInvalidArgument)
		}
		bounds.PageSize = n
	}
	if raw, ok := inv.Arguments[argMaxItems]; ok {
		n, err := coerceInt(raw)
		if err != nil || n <= 0 {
			return bounds, fmt.Errorf("operation %q argument %q must be a positive integer: %w",
				op.Name, argMaxItems, octoerrors.ErrInvalidArgument)
		}
		if n < bounds.MaxItems {
			bounds.MaxItems = n
		}
	}
	if raw, ok := inv.Arguments[argMaxPages]; ok {
		n, err := coerceInt(raw)
		if err != nil || n <= 0 {
			return bounds, fmt.Errorf("operation %q argument %q must be a positive integer: %w",
				op.Name, argMaxPages, octoerrors.ErrInvalidArgument)
		}
		if n < bounds.MaxPages {
			bounds.MaxPages = n
		}
	}
	if raw, ok := inv.Arguments[argAfter]; ok {
		s, ok := raw.(string)
		if !ok {
			return bounds, fmt.Errorf("operation %q argument %q must be a string cursor: %w",
				op.Name, argAfter, octoerrors.ErrInvalidArgument)
		}
		bounds.After = s
	}

	return bounds, nil
}

func isReservedPageArg(name string) bool {
	switch name {
	case argPageSize, argMaxItems, argMaxPages, argAfter:
		return true
	}
	return false
}

// coerceParam validates a decoded JSON value against the declared parameter
// type and normalizes it for the variables map.
func coerceParam(p Param, value any) (any, error) {
	switch p.Type {
	case ParamString:
		s, ok := value.(string)
		if !ok {
			return nil, typeError("string", value)
		}
		if err := checkEnum(p, s); err != nil {
			return nil, err
		}
		return s, nil

	case ParamInt:
		n, err := coerceInt(value)
		if err != nil {
			return nil, err
		}
		return n, nil

	case ParamBool:
		b, ok := value.(bool)
		if !ok {
			return nil, typeError("boolean", value)
		}
		return b, nil

	case ParamFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, typeError("number", value)
			}
			return f, nil
		}
		return nil, typeError("number", value)

	case ParamObject:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, typeError("object", value)
		}
		return m, nil

	case ParamStringList:
		items, ok := value.([]any)
		if !ok {
			if ss, ok := value.([]string); ok {
				for _, s := range ss {
					if err := checkEnum(p, s); err != nil {
						return nil, err
					}
				}
				return ss, nil
			}
			return nil, typeError("list of strings", value)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, typeError("list of strings", value)
			}
			if err := checkEnum(p, s); err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported parameter type %q: %w", p.Type, octoerrors.ErrInvalidArgument)
}

// coerceInt accepts the integer encodings a JSON decoder can produce.
func coerceInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, typeErrorValue("integer", value)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, typeErrorValue("integer", value)
		}
		return int(n), nil
	}
	return 0, typeError("integer", value)
}

func checkEnum(p Param, s string) error {
	if len(p.Enum) == 0 {
		return nil
	}
	for _, allowed := range p.Enum {
		if s == allowed {
			return nil
		}
	}
	return fmt.Errorf("value %q not in allowed set %v: %w", s, p.Enum, octoerrors.ErrInvalidArgument)
}

func typeError(want string, got any) error {
	return fmt.Errorf("expected %s, got %T: %w", want, got, octoerrors.ErrInvalidArgument)
}

func typeErrorValue(want string, got any) error {
	return fmt.Errorf("expected %s, got %v: %w", want, got, octoerrors.ErrInvalidArgument)
}

// documentIsMutation reports whether a raw GraphQL document's first
// operation is a mutation. Comments and leading whitespace are skipped;
// anything else (shorthand queries included) is treated as a query.
func documentIsMutation(document string) bool {
	for _, line := range strings.Split(document, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return strings.HasPrefix(trimmed, "mutation")
	}
	return false
}
