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
	"encoding/json"
	"testing"
)

func viewerOperation() *Operation {
	return &Operation{
		Name:     "get_viewer",
		Kind:     OpQuery,
		Document: "{ viewer { login } }",
	}
}

func TestRegisterValidation(t *testing.T) {
	exec := NewExecutor(ExecutorConfig{Endpoint: "http://example.invalid", Logger: testLogger()})
	reg := NewRegistry(exec, testLogger())

	if err := reg.Register(viewerOperation()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name string
		op   *Operation
	}{
		{name: "duplicate name", op: viewerOperation()},
		{name: "empty name", op: &Operation{Document: "query { x }"}},
		{name: "missing document", op: &Operation{Name: "no_document"}},
		{
			name: "connection without path",
			op: &Operation{
				Name: "bad_conn", Document: "query { x }",
				Connection: &Connection{},
				Bounds:     PageBounds{PageSize: 50, MaxPages: 10, MaxItems: 500},
			},
		},
		{
			name: "connection without bounds",
			op: &Operation{
				Name: "unbounded", Document: "query { x }",
				Connection: &Connection{Path: []string{"x"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := reg.Register(tt.op); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	// A raw operation legitimately has no document of its own.
	if err := reg.Register(&Operation{Name: "execute_graphql", Raw: true}); err != nil {
		t.Errorf("raw operation rejected: %v", err)
	}
}

func TestOperationsSortedByName(t *testing.T) {
	exec := NewExecutor(ExecutorConfig{Endpoint: "http://example.invalid", Logger: testLogger()})
	reg := NewRegistry(exec, testLogger())

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(&Operation{Name: name, Document: "query { x }"}); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	ops := reg.Operations()
	if len(ops) != 3 {
		t.Fatalf("len = %d, want 3", len(ops))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if ops[i].Name != want {
			t.Errorf("ops[%d] = %s, want %s", i, ops[i].Name, want)
		}
	}
}

func TestInvokeUnknownOperationSkipsNetwork(t *testing.T) {
	m := NewMockUpstream(okResponse(`{"data":{}}`))
	defer m.Close()

	exec := newTestExecutor(t, m, nil)
	reg := NewRegistry(exec, testLogger())

	res := reg.Invoke(context.Background(), ToolInvocation{Operation: "list_gists"})
	if res.Status != StatusError || res.Error.Kind != KindUnknownOperation {
		t.Errorf("unexpected result: %+v", res)
	}
	if got := m.RequestCount(); got != 0 {
		t.Errorf("upstream requests = %d, want 0", got)
	}
}

func TestInvokeInvalidArgumentSkipsNetwork(t *testing.T) {
	m := NewMockUpstream(okResponse(`{"data":{}}`))
	defer m.Close()

	exec := newTestExecutor(t, m, nil)
	reg := NewRegistry(exec, testLogger())
	if err := reg.Register(issuesOperation()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	res := reg.Invoke(context.Background(), ToolInvocation{
		Operation: "list_issues",
		Arguments: map[string]any{"owner": "octocat"}, // name is missing
	})
	if res.Status != StatusError || res.Error.Kind != KindInvalidArgument {
		t.Errorf("unexpected result: %+v", res)
	}
	if got := m.RequestCount(); got != 0 {
		t.Errorf("upstream requests = %d, want 0", got)
	}
}

func TestInvokeSimpleOperation(t *testing.T) {
	m := NewMockUpstream(okResponse(`{"data":{"viewer":{"login":"octocat"}}}`))
	defer m.Close()

	exec := newTestExecutor(t, m, nil)
	reg := NewRegistry(exec, testLogger())
	if err := reg.Register(viewerOperation()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	res := reg.Invoke(context.Background(), ToolInvocation{Operation: "get_viewer"})
	if res.Status != StatusOK {
		t.Fatalf("status = %s, error = %+v", res.Status, res.Error)
	}

	var data struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil {
		t.Fatalf("bad data: %v", err)
	}
	if data.Viewer.Login != "octocat" {
		t.Errorf("login = %q, want octocat", data.Viewer.Login)
	}
}

func TestInvokeConnectionOperationPaginates(t *testing.T) {
	m := NewMockUpstream(
		okResponse(issuesPage(1, 2, true, "C1", 3)),
		okResponse(issuesPage(3, 1, false, "C2", 3)),
	)
	defer m.Close()

	exec := newTestExecutor(t, m, nil)
	reg := NewRegistry(exec, testLogger())
	if err := reg.Register(issuesOperation()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	res := reg.Invoke(context.Background(), ToolInvocation{
		Operation: "list_issues",
		Arguments: map[string]any{"owner": "octocat", "name": "hello", "page_size": 2},
	})
	if res.Status != StatusOK {
		t.Fatalf("status = %s, error = %+v", res.Status, res.Error)
	}

	var payload PageResult
	if err := json.Unmarshal(res.Data, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.ItemCount != 3 || payload.Pages != 2 || payload.StopReason != StopComplete {
		t.Errorf("payload = %+v", payload)
	}
	if got := m.RequestCount(); got != 2 {
		t.Errorf("upstream requests = %d, want 2", got)
	}
}

func TestInvokeConnectionRespectsCallerCaps(t *testing.T) {
	m := NewMockUpstream(okResponse(issuesPage(1, 2, true, "C1", 100)))
	defer m.Close()

	exec := newTestExecutor(t, m, nil)
	reg := NewRegistry(exec, testLogger())
	if err := reg.Register(issuesOperation()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	res := reg.Invoke(context.Background(), ToolInvocation{
		Operation: "list_issues",
		Arguments: map[string]any{"owner": "octocat", "name": "hello", "page_size": 2, "max_items": 2},
	})
	if res.Status != StatusOK {
		t.Fatalf("status = %s, error = %+v", res.Status, res.Error)
	}

	var payload PageResult
	if err := json.Unmarshal(res.Data, &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.StopReason != StopMaxItems || payload.ItemCount != 2 {
		t.Errorf("payload = %+v", payload)
	}
	if got := m.RequestCount(); got != 1 {
		t.Errorf("upstream requests = %d, want 1", got)
	}
}
