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

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	octoerrors "github.com/octoql/octoql/internal/errors"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "octoql",
		Short: "MCP server for the GitHub GraphQL API",
		Long: `OctoQL bridges MCP clients to the GitHub GraphQL API. It exposes a
catalog of typed tools (repository metadata, issues, pull requests, search,
mutations) plus a raw GraphQL passthrough, with pagination, retries, and
rate limit pacing handled behind the tool boundary.`,
		Version:       version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
	}

	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, octoerrors.ErrInvalidToken) ||
		errors.Is(err, octoerrors.ErrNotFound) ||
		errors.Is(err, octoerrors.ErrRateLimit) {
		return 2 // Authentication/authorization errors
	}

	if errors.Is(err, octoerrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error
}
