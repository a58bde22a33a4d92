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
	"io"
	"strings"
	"testing"
)

func newLimited(body string, limit int64) *limitedReader {
	return &limitedReader{
		ReadCloser: io.NopCloser(strings.NewReader(body)),
		limit:      limit,
	}
}

func TestLimitedReaderUnderLimit(t *testing.T) {
	data, err := io.ReadAll(newLimited("hello", 16))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q, want %q", data, "hello")
	}
}

func TestLimitedReaderExactLimit(t *testing.T) {
	body := strings.Repeat("a", 16)
	data, err := io.ReadAll(newLimited(body, 16))
	if err != nil {
		t.Fatalf("body of exactly the limit must read cleanly, got: %v", err)
	}
	if len(data) != 16 {
		t.Errorf("read %d bytes, want 16", len(data))
	}
}

func TestLimitedReaderOverLimit(t *testing.T) {
	body := strings.Repeat("a", 17)
	_, err := io.ReadAll(newLimited(body, 16))
	if err == nil {
		t.Fatal("expected error for body past the limit")
	}
	if !strings.Contains(err.Error(), "exceeded limit") {
		t.Errorf("unexpected error: %v", err)
	}
}
