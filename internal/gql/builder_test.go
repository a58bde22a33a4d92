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
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	octoerrors "github.com/octoql/octoql/internal/errors"
)

func issuesOperation() *Operation {
	return &Operation{
		Name:     "list_issues",
		Kind:     OpQuery,
		Document: `query($owner: String!, $name: String!, $states: [IssueState!], $first: Int!, $after: String) { repository(owner: $owner, name: $name) { issues(states: $states, first: $first, after: $after) { totalCount pageInfo { hasNextPage endCursor } nodes { number title } } } }`,
		Params: []Param{
			{Name: "owner", Type: ParamString, Required: true},
			{Name: "name", Type: ParamString, Required: true},
			{Name: "states", Type: ParamStringList, Enum: []string{"OPEN", "CLOSED"}},
		},
		Connection: &Connection{Path: []string{"repository", "issues"}},
		Bounds:     PageBounds{PageSize: 50, MaxPages: 10, MaxItems: 500},
	}
}

func TestBuildDeterministic(t *testing.T) {
	op := issuesOperation()
	inv := ToolInvocation{
		Operation: "list_issues",
		Arguments: map[string]any{"owner": "octocat", "name": "hello", "states": []any{"OPEN"}},
	}

	first, err := Build(op, inv)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := Build(op, inv)
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("same invocation produced different requests:\n%s\n%s", a, b)
	}
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "missing required argument",
			args: map[string]any{"owner": "octocat"},
		},
		{
			name: "undeclared argument",
			args: map[string]any{"owner": "octocat", "name": "hello", "labels": []any{"bug"}},
		},
		{
			name: "wrong type for string",
			args: map[string]any{"owner": 42, "name": "hello"},
		},
		{
			name: "enum violation",
			args: map[string]any{"owner": "octocat", "name": "hello", "states": []any{"MERGED"}},
		},
		{
			name: "list with non-string element",
			args: map[string]any{"owner": "octocat", "name": "hello", "states": []any{1}},
		},
	}

	op := issuesOperation()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(op, ToolInvocation{Operation: op.Name, Arguments: tt.args})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, octoerrors.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got: %v", err)
			}
		})
	}
}

func TestBuildSkipsReservedPaginationArgs(t *testing.T) {
	op := issuesOperation()
	req, err := Build(op, ToolInvocation{
		Operation: op.Name,
		Arguments: map[string]any{
			"owner": "octocat", "name": "hello",
			"page_size": 10, "max_items": 20, "after": "CURSOR",
		},
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, reserved := range []string{"page_size", "max_items", "max_pages", "after"} {
		if _, ok := req.Variables[reserved]; ok {
			t.Errorf("reserved argument %q leaked into variables", reserved)
		}
	}
}

func TestBuildIntCoercion(t *testing.T) {
	op := &Operation{
		Name:     "search",
		Kind:     OpQuery,
		Document: `query($limit: Int!) { x }`,
		Params:   []Param{{Name: "limit", Type: ParamInt, Required: true}},
	}

	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{name: "plain int", value: 5, want: 5},
		{name: "json float64", value: float64(25), want: 25},
		{name: "fractional float", value: 2.5, wantErr: true},
		{name: "string", value: "5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Build(op, ToolInvocation{
				Operation: op.Name,
				Arguments: map[string]any{"limit": tt.value},
			})
			if tt.wantErr {
				if !errors.Is(err, octoerrors.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if got := req.Variables["limit"]; got != tt.want {
				t.Errorf("limit = %v, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildRaw(t *testing.T) {
	op := &Operation{Name: "execute_graphql", Kind: OpQuery, Raw: true}

	t.Run("valid query with variables", func(t *testing.T) {
		req, err := Build(op, ToolInvocation{
			Operation: op.Name,
			Arguments: map[string]any{
				"query":     `query($login: String!) { user(login: $login) { name } }`,
				"variables": map[string]any{"login": "octocat"},
			},
		})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if req.Mutation {
			t.Error("query document marked as mutation")
		}
		if req.Variables["login"] != "octocat" {
			t.Errorf("variables not carried through: %v", req.Variables)
		}
	})

	t.Run("mutation detected", func(t *testing.T) {
		req, err := Build(op, ToolInvocation{
			Operation: op.Name,
			Arguments: map[string]any{
				"query": "# adds a reaction\nmutation { addReaction(input: {}) { clientMutationId } }",
			},
		})
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if !req.Mutation {
			t.Error("mutation document not detected")
		}
		if req.Idempotent {
			t.Error("raw mutations must never be marked idempotent")
		}
	})

	t.Run("rejects empty query", func(t *testing.T) {
		_, err := Build(op, ToolInvocation{Operation: op.Name, Arguments: map[string]any{"query": "  "}})
		if !errors.Is(err, octoerrors.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("rejects missing query", func(t *testing.T) {
		_, err := Build(op, ToolInvocation{Operation: op.Name, Arguments: map[string]any{}})
		if !errors.Is(err, octoerrors.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("rejects non-object variables", func(t *testing.T) {
		_, err := Build(op, ToolInvocation{
			Operation: op.Name,
			Arguments: map[string]any{"query": "{ viewer { login } }", "variables": "nope"},
		})
		if !errors.Is(err, octoerrors.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got: %v", err)
		}
	})

	t.Run("rejects extra arguments", func(t *testing.T) {
		_, err := Build(op, ToolInvocation{
			Operation: op.Name,
			Arguments: map[string]any{"query": "{ viewer { login } }", "page_size": 5},
		})
		if !errors.Is(err, octoerrors.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got: %v", err)
		}
	})
}

func TestPageArgs(t *testing.T) {
	op := issuesOperation()

	tests := []struct {
		name    string
		args    map[string]any
		want    PageBounds
		wantErr bool
	}{
		{
			name: "defaults when no overrides",
			args: map[string]any{"owner": "o", "name": "n"},
			want: PageBounds{PageSize: 50, MaxPages: 10, MaxItems: 500},
		},
		{
			name: "page_size override",
			args: map[string]any{"page_size": 10},
			want: PageBounds{PageSize: 10, MaxPages: 10, MaxItems: 500},
		},
		{
			name: "max_items only lowers the cap",
			args: map[string]any{"max_items": 20},
			want: PageBounds{PageSize: 50, MaxPages: 10, MaxItems: 20},
		},
		{
			name: "max_items above the cap is ignored",
			args: map[string]any{"max_items": 10000},
			want: PageBounds{PageSize: 50, MaxPages: 10, MaxItems: 500},
		},
		{
			name: "max_pages only lowers the cap",
			args: map[string]any{"max_pages": 2},
			want: PageBounds{PageSize: 50, MaxPages: 2, MaxItems: 500},
		},
		{
			name: "after cursor",
			args: map[string]any{"after": "Y3Vyc29y"},
			want: PageBounds{PageSize: 50, MaxPages: 10, MaxItems: 500, After: "Y3Vyc29y"},
		},
		{
			name:    "page_size above github maximum",
			args:    map[string]any{"page_size": 101},
			wantErr: true,
		},
		{
			name:    "page_size zero",
			args:    map[string]any{"page_size": 0},
			wantErr: true,
		},
		{
			name:    "max_items negative",
			args:    map[string]any{"max_items": -1},
			wantErr: true,
		},
		{
			name:    "after not a string",
			args:    map[string]any{"after": 5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PageArgs(op, ToolInvocation{Operation: op.Name, Arguments: tt.args})
			if tt.wantErr {
				if !errors.Is(err, octoerrors.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PageArgs failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("bounds = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWithPageDoesNotMutateOriginal(t *testing.T) {
	req := &Request{
		Operation: "list_issues",
		Document:  "query { x }",
		Variables: map[string]any{"owner": "octocat"},
	}

	paged := req.WithPage(50, "CURSOR")

	if _, ok := req.Variables["first"]; ok {
		t.Error("WithPage mutated the original variables map")
	}
	if paged.Variables["first"] != 50 {
		t.Errorf("first = %v, want 50", paged.Variables["first"])
	}
	if paged.Variables["after"] != "CURSOR" {
		t.Errorf("after = %v, want CURSOR", paged.Variables["after"])
	}
	if paged.Variables["owner"] != "octocat" {
		t.Error("WithPage dropped existing variables")
	}

	firstPage := req.WithPage(50, "")
	if _, ok := firstPage.Variables["after"]; ok {
		t.Error("first page must not carry an after variable")
	}
}

func TestDocumentIsMutation(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     bool
	}{
		{name: "named query", document: "query Foo { viewer { login } }", want: false},
		{name: "shorthand query", document: "{ viewer { login } }", want: false},
		{name: "mutation", document: "mutation { createIssue(input: {}) { issue { id } } }", want: true},
		{name: "mutation after comments", document: "# comment\n\nmutation Foo { x }", want: true},
		{name: "empty", document: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documentIsMutation(tt.document); got != tt.want {
				t.Errorf("documentIsMutation(%q) = %v, want %v", tt.document, got, tt.want)
			}
		})
	}
}
