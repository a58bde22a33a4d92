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

// Package errors defines sentinel errors for consistent error handling across the application.
// These errors map to specific exit codes in the CLI for proper scripting support.
package errors

import "errors"

// Sentinel errors for consistent error handling and exit code mapping
var (
	// ErrInvalidArgument indicates a tool invocation carried a missing or
	// mistyped argument. Caller error, never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownOperation indicates a tool invocation named an operation
	// that is not registered. Caller error, never retried.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidToken indicates GitHub authentication failed.
	// Maps to exit code 2.
	ErrInvalidToken = errors.New("invalid github token")

	// ErrNotFound indicates the requested GitHub resource does not exist
	// or is not accessible with the current token. Maps to exit code 2.
	ErrNotFound = errors.New("resource not found")

	// ErrNetworkFailure indicates a network connection problem.
	// Maps to exit code 3.
	ErrNetworkFailure = errors.New("network connection failed")

	// ErrRateLimit indicates the GitHub API rate limit has been exceeded
	// and the configured wait ceiling would be exceeded. Maps to exit code 2.
	ErrRateLimit = errors.New("github rate limit exceeded")

	// ErrMutationAborted indicates a mutation hit a retryable failure but
	// was not retried because mutations are unsafe to replay without an
	// idempotency guarantee.
	ErrMutationAborted = errors.New("mutation not retried after transient failure")
)
