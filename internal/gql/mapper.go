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
	"errors"
	"fmt"

	octoerrors "github.com/octoql/octoql/internal/errors"
	"github.com/octoql/octoql/internal/gherror"
)

var mapperInspector = gherror.NewErrorChainInspector(gherror.NewInspector())

// MapOutcome converts an execution outcome (or failure) into the tool
// result envelope. Partial success is preserved: a response carrying both
// data and errors surfaces as an error with the partial data attached,
// never as a silent full success and never with the data dropped.
func MapOutcome(operation string, out *Outcome, err error) ToolResult {
	if err != nil {
		return errorResult(operation, classifyError(err), err.Error(), nil, nil)
	}

	hasData := len(out.Data) > 0 && string(out.Data) != "null"

	switch {
	case len(out.Errors) == 0:
		return ToolResult{Status: StatusOK, Data: out.Data}

	case hasData:
		return errorResult(operation, KindPartialSuccess,
			fmt.Sprintf("operation %q returned partial data with %d errors: %s",
				operation, len(out.Errors), out.Errors[0].Message),
			out.Errors, out.Data)

	default:
		kind := classifyGraphQLErrors(out.Errors)
		return errorResult(operation, kind,
			fmt.Sprintf("operation %q rejected by upstream: %s", operation, out.Errors[0].Message),
			out.Errors, nil)
	}
}

// MapPages converts a multi-page fetch into the tool result envelope.
// Complete and cap-bounded fetches are successes; failed or cancelled ones
// surface the stop reason with the collected pages attached as partial data.
func MapPages(operation string, set *PageSet) ToolResult {
	payload := PageResult{
		Items:       set.Items,
		ItemCount:   len(set.Items),
		Pages:       set.Pages,
		EndCursor:   set.EndCursor,
		HasNextPage: set.HasNextPage,
		StopReason:  set.Reason,
	}
	if set.TotalCount >= 0 {
		payload.TotalCount = set.TotalCount
	}
	if payload.Items == nil {
		payload.Items = []json.RawMessage{}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return errorResult(operation, KindFatal,
			fmt.Sprintf("operation %q: failed to encode page results: %v", operation, err), nil, nil)
	}

	switch set.Reason {
	case StopComplete, StopMaxItems, StopMaxPages:
		return ToolResult{Status: StatusOK, Data: data}

	case StopCancelled:
		return errorResult(operation, KindCancelled,
			fmt.Sprintf("operation %q cancelled after %d pages (%d items collected)",
				operation, set.Pages, len(set.Items)),
			set.Errors, data)

	default:
		kind := KindFatal
		msg := fmt.Sprintf("operation %q failed after %d pages (%d items collected)",
			operation, set.Pages, len(set.Items))
		if set.Err != nil {
			kind = classifyError(set.Err)
			msg = fmt.Sprintf("%s: %v", msg, set.Err)
		} else if len(set.Errors) > 0 {
			kind = classifyGraphQLErrors(set.Errors)
			msg = fmt.Sprintf("%s: %s", msg, set.Errors[0].Message)
		}
		return errorResult(operation, kind, msg, set.Errors, data)
	}
}

// InvalidArgumentResult builds the caller-error result for a rejected
// invocation. No network activity has occurred when this is returned.
func InvalidArgumentResult(operation string, err error) ToolResult {
	return errorResult(operation, KindInvalidArgument, err.Error(), nil, nil)
}

// UnknownOperationResult builds the result for an unregistered tool name.
func UnknownOperationResult(operation string) ToolResult {
	return errorResult(operation, KindUnknownOperation,
		fmt.Sprintf("operation %q is not registered", operation), nil, nil)
}

func errorResult(operation string, kind ErrorKind, message string, ghErrors []GraphQLError, partial json.RawMessage) ToolResult {
	return ToolResult{
		Status: StatusError,
		Error: &ErrorDetail{
			Kind:        kind,
			Operation:   operation,
			Message:     message,
			Errors:      ghErrors,
			PartialData: partial,
		},
	}
}

// classifyError maps a Go error onto the error taxonomy. Transport-level
// failures (network, 5xx) are kept distinct from GraphQL-semantic ones so
// callers can tell "could not reach the API" from "the API rejected the
// query".
func classifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, octoerrors.ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, octoerrors.ErrUnknownOperation):
		return KindUnknownOperation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, octoerrors.ErrRateLimit):
		return KindRateLimited
	case errors.Is(err, octoerrors.ErrMutationAborted):
		return KindFatal
	case errors.Is(err, octoerrors.ErrInvalidToken), errors.Is(err, octoerrors.ErrNotFound):
		return KindFatal
	case mapperInspector.IsRateLimitError(err):
		return KindRateLimited
	case errors.Is(err, octoerrors.ErrNetworkFailure),
		mapperInspector.IsNetworkError(err),
		mapperInspector.IsRetryable(err):
		return KindTransient
	default:
		return KindFatal
	}
}

// classifyGraphQLErrors maps upstream error entries onto the taxonomy.
// GitHub reports the failure class in the type field; the message is the
// fallback. Not-found and validation errors are conclusively fatal, so they
// are settled before the rate limit message sniffing: a parse error whose
// message happens to quote a 429 must not read as rate limited.
func classifyGraphQLErrors(ghErrors []GraphQLError) ErrorKind {
	for _, ge := range ghErrors {
		asErr := errors.New(ge.Message)
		switch {
		case ge.Type == "RATE_LIMITED":
			return KindRateLimited
		case ge.Type == "NOT_FOUND", mapperInspector.IsNotFoundError(asErr):
			return KindFatal
		case mapperInspector.IsValidationError(asErr):
			return KindFatal
		case mapperInspector.IsRateLimitError(asErr):
			return KindRateLimited
		}
	}
	return KindFatal
}
