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
	"fmt"
	"time"

	"github.com/shurcooL/graphql"
	"golang.org/x/oauth2"

	octoerrors "github.com/octoql/octoql/internal/errors"
	"github.com/octoql/octoql/internal/gherror"
)

// ProbeResult is what the startup probe learned about the token.
type ProbeResult struct {
	// Login is the authenticated viewer's login.
	Login string
	// Limit and Remaining describe the token's current rate limit window.
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Probe verifies the configured token against the API before the server
// starts serving tools. It fetches the authenticated viewer plus the rate
// limit state, so a bad token fails fast and a nearly exhausted quota is
// known from the first invocation on.
func Probe(ctx context.Context, endpoint, token string) (*ProbeResult, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := graphql.NewClient(endpoint, oauth2.NewClient(ctx, src))

	var q struct {
		Viewer struct {
			Login graphql.String
		}
		RateLimit struct {
			Limit     graphql.Int
			Remaining graphql.Int
			ResetAt   time.Time
		}
	}
	if err := client.Query(ctx, &q, nil); err != nil {
		inspector := gherror.NewErrorChainInspector(gherror.NewInspector())
		switch {
		case inspector.IsAuthError(err):
			return nil, fmt.Errorf("github rejected the token: %w", octoerrors.ErrInvalidToken)
		case inspector.IsNotFoundError(err):
			// A 404 here means the endpoint path is wrong, typically a
			// misconfigured GitHub Enterprise URL.
			return nil, fmt.Errorf("no graphql api at %s: %w", endpoint, octoerrors.ErrNotFound)
		case inspector.IsNetworkError(err):
			return nil, fmt.Errorf("could not reach %s: %v: %w", endpoint, err, octoerrors.ErrNetworkFailure)
		default:
			return nil, fmt.Errorf("startup probe failed: %w", err)
		}
	}

	return &ProbeResult{
		Login:     string(q.Viewer.Login),
		Limit:     int(q.RateLimit.Limit),
		Remaining: int(q.RateLimit.Remaining),
		ResetAt:   q.RateLimit.ResetAt,
	}, nil
}
