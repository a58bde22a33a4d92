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

// Package gql implements the protocol-translation and query-execution core of
// octoql: it turns MCP tool invocations into GraphQL requests, executes them
// against GitHub with rate limiting and bounded retry, paginates connection
// results, and maps outcomes back into tool-result envelopes.
//
// The package is organized as a pipeline behind a single entry point:
//
//   - Registry: binds tool names to operations; the only externally visible
//     entry point. Unknown names are rejected before any network activity.
//   - Build: converts an invocation into a Request, validating arguments
//     against the operation's parameter schema. Arguments are always passed
//     as GraphQL variables, never interpolated into the document.
//   - Executor: performs requests through a shared token bucket, retrying
//     transient failures with exponential backoff and jitter. Mutations are
//     never retried unless the operation is marked idempotent.
//   - Paginator: drives connection operations across pages, feeding each
//     page's end cursor into the next request, bounded by finite page and
//     item caps. Partial results survive failure and cancellation.
//   - MapOutcome / MapPages: normalize results and failures into ToolResult,
//     preserving partial data alongside GraphQL errors.
//
// Basic usage:
//
//	exec := gql.NewExecutor(gql.ExecutorConfig{
//	    Endpoint: "https://api.github.com/graphql",
//	    Token:    token,
//	})
//	reg := gql.NewRegistry(exec, logger)
//	_ = reg.Register(op)
//	result := reg.Invoke(ctx, gql.ToolInvocation{
//	    Operation: "list_issues",
//	    Arguments: map[string]any{"owner": "golang", "name": "go"},
//	})
package gql
