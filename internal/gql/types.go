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
	"time"
)

// ToolInvocation is the immutable input of the core: an operation name plus
// the structured arguments the MCP transport layer received for it.
type ToolInvocation struct {
	Operation string
	Arguments map[string]any
}

// Request is a fully-built GraphQL request: a document string and a
// variables map. It is derived deterministically from a ToolInvocation;
// the same invocation and cursor always produce the same request.
type Request struct {
	Operation  string
	Document   string
	Variables  map[string]any
	Mutation   bool
	Idempotent bool
}

// WithPage returns a copy of the request with pagination variables set.
// The variables map is copied so that requests for different pages never
// share mutable state.
func (r *Request) WithPage(first int, after string) *Request {
	vars := make(map[string]any, len(r.Variables)+2)
	for k, v := range r.Variables {
		vars[k] = v
	}
	vars["first"] = first
	if after != "" {
		vars["after"] = after
	}
	out := *r
	out.Variables = vars
	return &out
}

// GraphQLError mirrors one entry of the upstream response's top-level
// errors array.
type GraphQLError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Path    []any  `json:"path,omitempty"`
}

// AttemptStatus records how a single execution attempt ended.
type AttemptStatus string

// Attempt outcomes.
const (
	AttemptSucceeded   AttemptStatus = "succeeded"
	AttemptRateLimited AttemptStatus = "rate_limited"
	AttemptTransient   AttemptStatus = "transient"
	AttemptFatal       AttemptStatus = "fatal"
)

// Attempt describes one execution attempt against the upstream API. The
// executor records an Attempt per outbound call so retry behavior stays
// observable and testable.
type Attempt struct {
	Number    int
	StartedAt time.Time
	Duration  time.Duration
	Status    AttemptStatus
	Err       string
}

// RateLimitInfo carries the upstream rate limit headers observed on a
// response.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Outcome is the result of executing one GraphQL request, including the
// per-attempt record and any rate limit telemetry the upstream reported.
// Data and Errors may both be populated: GitHub returns partial data
// alongside errors for independently-failing fields.
type Outcome struct {
	Data      json.RawMessage
	Errors    []GraphQLError
	Attempts  []Attempt
	RateLimit *RateLimitInfo
}

// PageInfo is the cursor state GitHub exposes on every connection.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// StopReason records why a multi-page fetch ended.
type StopReason string

// Pagination stop reasons.
const (
	StopComplete  StopReason = "complete"
	StopMaxItems  StopReason = "max_items"
	StopMaxPages  StopReason = "max_pages"
	StopCancelled StopReason = "cancelled"
	StopFailed    StopReason = "failed"
)

// PageSet accumulates the pages collected during a multi-page fetch, in
// arrival order. Items collected before a mid-pagination failure or
// cancellation are retained so callers can decide whether a partial result
// is usable.
type PageSet struct {
	Items       []json.RawMessage
	TotalCount  int // -1 when the connection does not report one
	Pages       int
	EndCursor   string
	HasNextPage bool
	Reason      StopReason
	Errors      []GraphQLError
	Err         error
}

// Status is the top-level disposition of a ToolResult.
type Status string

// Tool result statuses.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// ErrorKind classifies a surfaced failure so callers can distinguish
// "could not reach the API" from "the API rejected the query".
type ErrorKind string

// Error taxonomy.
const (
	KindInvalidArgument  ErrorKind = "invalid_argument"
	KindUnknownOperation ErrorKind = "unknown_operation"
	KindTransient        ErrorKind = "transient"
	KindRateLimited      ErrorKind = "rate_limited"
	KindFatal            ErrorKind = "fatal"
	KindPartialSuccess   ErrorKind = "partial_success"
	KindCancelled        ErrorKind = "cancelled"
)

// ErrorDetail is the error payload of a ToolResult. Every surfaced error
// names the offending operation and carries the upstream message where one
// is available. PartialData is populated when usable data accompanied the
// failure.
type ErrorDetail struct {
	Kind        ErrorKind       `json:"kind"`
	Operation   string          `json:"operation"`
	Message     string          `json:"message"`
	Errors      []GraphQLError  `json:"errors,omitempty"`
	PartialData json.RawMessage `json:"partialData,omitempty"`
}

// ToolResult is the envelope returned to the MCP transport layer. It is not
// retained after the call completes.
type ToolResult struct {
	Status Status          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  *ErrorDetail    `json:"error,omitempty"`
}

// PageResult is the payload marshaled into ToolResult.Data (or PartialData)
// for connection operations.
type PageResult struct {
	Items       []json.RawMessage `json:"items"`
	ItemCount   int               `json:"itemCount"`
	TotalCount  int               `json:"totalCount,omitempty"`
	Pages       int               `json:"pages"`
	EndCursor   string            `json:"endCursor,omitempty"`
	HasNextPage bool              `json:"hasNextPage"`
	StopReason  StopReason        `json:"stopReason"`
}
