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
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/octoql/octoql/internal/config"
	"github.com/octoql/octoql/internal/github"
	"github.com/octoql/octoql/internal/gql"
	"github.com/octoql/octoql/internal/mcpserver"
)

// newServeCommand builds the serve command, the process's main mode: speak
// MCP on stdio until the client disconnects or a signal arrives.
func newServeCommand() *cobra.Command {
	var (
		configPath string
		token      string
		endpoint   string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GitHub GraphQL tools over MCP on stdio",
		Long: `Start the MCP server. The client (an agent runtime or IDE) launches this
command and speaks the protocol over stdin/stdout; logs go to stderr.

Authentication is required via GitHub token:
  - Use --token flag to provide token directly
  - Or set the environment variable named by github.token_env (default GITHUB_TOKEN)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, token, endpoint, logLevel)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: search standard locations)")
	cmd.Flags().StringVar(&token, "token", "", "GitHub personal access token (overrides environment)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "GraphQL endpoint URL (for GitHub Enterprise)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

func runServe(ctx context.Context, configPath, tokenFlag, endpointFlag, logLevelFlag string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if endpointFlag != "" {
		cfg.GitHub.GraphQLEndpoint = endpointFlag
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// stdout carries the protocol stream; everything else goes to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	token := resolveToken(tokenFlag, cfg.GitHub.TokenEnv)
	if token == "" {
		return fmt.Errorf("GitHub token not found. Set %s or use --token flag", cfg.GitHub.TokenEnv)
	}

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	probe, err := github.Probe(probeCtx, cfg.GitHub.GraphQLEndpoint, token)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("github token verified",
		"login", probe.Login, "rateLimitRemaining", probe.Remaining, "rateLimitResetAt", probe.ResetAt)

	exec := gql.NewExecutor(gql.ExecutorConfig{
		Endpoint:          cfg.GitHub.GraphQLEndpoint,
		Token:             token,
		UserAgent:         fmt.Sprintf("octoql/%s", version),
		MaxRetries:        cfg.Retry.MaxRetries,
		InitialBackoff:    time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:        time.Duration(cfg.Retry.MaxBackoffMS) * time.Millisecond,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		AttemptTimeout:    time.Duration(cfg.Defaults.AttemptTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		LowWater:          cfg.RateLimit.LowWater,
		MaxWait:           time.Duration(cfg.RateLimit.MaxWaitSeconds) * time.Second,
		Logger:            logger,
	})
	exec.PrimeRateLimit(probe.Remaining, probe.ResetAt)

	registry := gql.NewRegistry(exec, logger)
	if err := github.RegisterCatalog(registry, cfg); err != nil {
		return err
	}

	server := mcpserver.New(registry, version, logger)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

// resolveToken returns the token from the flag or the configured environment
// variable, flag winning.
func resolveToken(flagToken, tokenEnv string) string {
	if flagToken != "" {
		return flagToken
	}
	if tokenEnv == "" {
		tokenEnv = "GITHUB_TOKEN"
	}
	return os.Getenv(tokenEnv)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
