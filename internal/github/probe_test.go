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

package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	octoerrors "github.com/octoql/octoql/internal/errors"
)

func TestProbeSuccess(t *testing.T) {
	resetAt := time.Now().Add(30 * time.Minute).UTC().Truncate(time.Second)

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"viewer":{"login":"octocat"},"rateLimit":{"limit":5000,"remaining":4321,"resetAt":"` +
			resetAt.Format(time.RFC3339) + `"}}}`))
	}))
	defer server.Close()

	res, err := Probe(context.Background(), server.URL, "test-token")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if res.Login != "octocat" {
		t.Errorf("login = %q, want octocat", res.Login)
	}
	if res.Limit != 5000 || res.Remaining != 4321 {
		t.Errorf("rate limit = %d/%d, want 4321/5000", res.Remaining, res.Limit)
	}
	if !res.ResetAt.Equal(resetAt) {
		t.Errorf("resetAt = %s, want %s", res.ResetAt, resetAt)
	}
	if !strings.HasPrefix(gotAuth, "Bearer ") {
		t.Errorf("Authorization header = %q, want a bearer token", gotAuth)
	}
}

func TestProbeBadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	_, err := Probe(context.Background(), server.URL, "bad-token")
	if !errors.Is(err, octoerrors.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got: %v", err)
	}
}

func TestProbeEndpointNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := Probe(context.Background(), server.URL+"/api/wrong", "test-token")
	if !errors.Is(err, octoerrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestProbeUnreachableEndpoint(t *testing.T) {
	// A closed server yields a connection refused error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := Probe(context.Background(), url, "test-token")
	if !errors.Is(err, octoerrors.ErrNetworkFailure) {
		t.Errorf("expected ErrNetworkFailure, got: %v", err)
	}
}
