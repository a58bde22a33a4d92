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
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockResponse is one scripted reply from a MockUpstream. Set Status to a
// non-zero code to emit a plain HTTP error instead of a GraphQL envelope.
type MockResponse struct {
	Status  int
	Headers map[string]string
	Body    string
}

// MockUpstream is a scripted GraphQL endpoint for tests. Responses are
// served in order; once the script is exhausted the last entry repeats.
// Every inbound request body is recorded for later assertions.
type MockUpstream struct {
	Server *httptest.Server

	mu        sync.Mutex
	responses []MockResponse
	requests  []mockRequest
}

type mockRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// NewMockUpstream starts a mock endpoint serving the given script.
func NewMockUpstream(responses ...MockResponse) *MockUpstream {
	m := &MockUpstream{responses: responses}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

func (m *MockUpstream) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	var req mockRequest
	_ = json.Unmarshal(body, &req)
	m.requests = append(m.requests, req)
	idx := len(m.requests) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	if idx < 0 {
		m.mu.Unlock()
		http.Error(w, "no scripted responses", http.StatusInternalServerError)
		return
	}
	resp := m.responses[idx]
	m.mu.Unlock()

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if resp.Status != 0 && resp.Status != http.StatusOK {
		w.WriteHeader(resp.Status)
		_, _ = w.Write([]byte(resp.Body))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(resp.Body))
}

// Close shuts the underlying test server down.
func (m *MockUpstream) Close() { m.Server.Close() }

// URL returns the endpoint to point an Executor at.
func (m *MockUpstream) URL() string { return m.Server.URL }

// RequestCount reports how many requests the upstream has received.
func (m *MockUpstream) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// RequestVariables returns the variables of the i-th recorded request.
func (m *MockUpstream) RequestVariables(i int) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.requests) {
		return nil
	}
	return m.requests[i].Variables
}

// RequestQuery returns the document of the i-th recorded request.
func (m *MockUpstream) RequestQuery(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.requests) {
		return ""
	}
	return m.requests[i].Query
}
