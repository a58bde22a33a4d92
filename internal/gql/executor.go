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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	octoerrors "github.com/octoql/octoql/internal/errors"
	"github.com/octoql/octoql/internal/gherror"
)

// ExecutorConfig configures the rate-limited executor.
type ExecutorConfig struct {
	// Endpoint is the GraphQL endpoint URL.
	Endpoint string
	// Token is the GitHub bearer token.
	Token string
	// UserAgent identifies this process to the API.
	UserAgent string

	// MaxRetries is the maximum number of retry attempts after the first.
	MaxRetries int
	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64

	// AttemptTimeout bounds each individual attempt, not the whole
	// operation, so one slow page cannot silently hang a multi-page fetch.
	AttemptTimeout time.Duration

	// RequestsPerSecond and Burst size the shared token bucket.
	RequestsPerSecond float64
	Burst             int
	// LowWater is the remaining-quota threshold below which the executor
	// delays calls until the upstream window resets.
	LowWater int
	// MaxWait is the ceiling on any rate limit delay; a longer wait fails
	// the invocation with ErrRateLimit instead.
	MaxWait time.Duration

	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
	// Logger receives request and rate limit telemetry. Defaults to the
	// process logger.
	Logger *slog.Logger
}

func (c *ExecutorConfig) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "octoql/dev"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = 2.0
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = 30 * time.Second
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 2
	}
	if c.Burst == 0 {
		c.Burst = 5
	}
	if c.LowWater == 0 {
		c.LowWater = 50
	}
	if c.MaxWait == 0 {
		c.MaxWait = time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Executor performs GraphQL requests against the upstream API. It is safe
// for concurrent use: the token bucket serializes permit acquisition across
// invocations while the network I/O itself proceeds concurrently.
type Executor struct {
	endpoint   string
	httpClient *http.Client
	pacer      *pacer
	cfg        ExecutorConfig
	inspector  gherror.Inspector
	logger     *slog.Logger
}

// NewExecutor creates an executor with the provided configuration. Zero
// config fields fall back to defaults suitable for public GitHub.com.
func NewExecutor(cfg ExecutorConfig) *Executor {
	cfg.applyDefaults()

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Token, cfg.UserAgent)
	}

	return &Executor{
		endpoint:   cfg.Endpoint,
		httpClient: httpClient,
		pacer:      newPacer(cfg.RequestsPerSecond, cfg.Burst, cfg.LowWater, cfg.MaxWait),
		cfg:        cfg,
		inspector:  gherror.NewErrorChainInspector(gherror.NewInspector()),
		logger:     cfg.Logger,
	}
}

// PrimeRateLimit seeds the pacer with quota observed out of band, typically
// from the startup probe, so the first invocations already respect a nearly
// exhausted window.
func (e *Executor) PrimeRateLimit(remaining int, resetAt time.Time) {
	e.pacer.observe(remaining, resetAt)
}

// execState is the retry state machine. Keeping the transitions explicit
// keeps bounds and jitter testable in isolation.
type execState int

const (
	stateIdle execState = iota
	stateAttempting
	stateRetrying
	stateSucceeded
	stateFailed
)

// Execute performs the request, retrying transient failures with
// exponential backoff and handling rate limit pushback by delaying until
// the window resets. The returned Outcome always carries the per-attempt
// record, including on failure. GraphQL-level errors inside a 200 response
// are not failures here; they flow through Outcome.Errors to the mapper.
func (e *Executor) Execute(ctx context.Context, req *Request) (*Outcome, error) {
	var (
		state    = stateIdle
		attempts []Attempt
		outcome  *Outcome
		lastErr  error
		attempt  int
	)

	for {
		switch state {
		case stateIdle:
			state = stateAttempting

		case stateAttempting:
			if err := e.pacer.acquire(ctx); err != nil {
				lastErr = fmt.Errorf("operation %q: %w", req.Operation, err)
				state = stateFailed
				continue
			}

			started := time.Now()
			out, err := e.doAttempt(ctx, req)
			rec := Attempt{
				Number:    attempt + 1,
				StartedAt: started,
				Duration:  time.Since(started),
			}
			attempt++

			if err == nil {
				rec.Status = AttemptSucceeded
				attempts = append(attempts, rec)
				out.Attempts = attempts
				outcome = out
				state = stateSucceeded
				continue
			}

			rec.Err = err.Error()
			rec.Status = e.classifyAttempt(err)
			attempts = append(attempts, rec)
			lastErr = fmt.Errorf("operation %q: %w", req.Operation, err)

			if ctx.Err() != nil {
				lastErr = fmt.Errorf("operation %q: %w", req.Operation, ctx.Err())
				state = stateFailed
				continue
			}

			switch rec.Status {
			case AttemptFatal:
				state = stateFailed
			case AttemptRateLimited, AttemptTransient:
				if req.Mutation && !req.Idempotent {
					lastErr = fmt.Errorf("operation %q failed and is a non-idempotent mutation (%v): %w",
						req.Operation, err, octoerrors.ErrMutationAborted)
					state = stateFailed
				} else if attempt > e.cfg.MaxRetries {
					lastErr = fmt.Errorf("operation %q failed after %d retries: %w",
						req.Operation, e.cfg.MaxRetries, err)
					state = stateFailed
				} else {
					state = stateRetrying
				}
			}

		case stateRetrying:
			backoff := e.backoffFor(attempt - 1)
			if last := attempts[len(attempts)-1]; last.Status == AttemptRateLimited {
				if wait, ok := rateLimitWait(lastErr); ok {
					if wait > e.cfg.MaxWait {
						lastErr = fmt.Errorf("operation %q: rate limit reset in %s exceeds wait ceiling %s: %w",
							req.Operation, wait.Round(time.Second), e.cfg.MaxWait, octoerrors.ErrRateLimit)
						state = stateFailed
						continue
					}
					backoff = wait
				}
				e.logger.Warn("rate limit hit, delaying",
					"operation", req.Operation, "wait", backoff, "attempt", attempt)
			} else {
				e.logger.Warn("transient failure, retrying",
					"operation", req.Operation, "backoff", backoff, "attempt", attempt)
			}

			select {
			case <-time.After(backoff):
				state = stateAttempting
			case <-ctx.Done():
				lastErr = fmt.Errorf("operation %q: %w", req.Operation, ctx.Err())
				state = stateFailed
			}

		case stateSucceeded:
			return outcome, nil

		case stateFailed:
			return &Outcome{Attempts: attempts}, lastErr
		}
	}
}

// classifyAttempt maps an attempt error onto the attempt status taxonomy.
// The retryable check runs first: transport errors quote the full request
// URL, where a port number can collide with a status code substring. Real
// rate limit hits arrive as rateLimitError values and are never
// string-retryable, so they still land on the rate limited path.
func (e *Executor) classifyAttempt(err error) AttemptStatus {
	switch {
	case e.inspector.IsRetryable(err):
		return AttemptTransient
	case e.inspector.IsRateLimitError(err):
		return AttemptRateLimited
	default:
		return AttemptFatal
	}
}

// graphQLEnvelope is the wire shape of an upstream response.
type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// requestBody is the wire shape of an outbound request.
type requestBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// doAttempt performs a single outbound call. The only side effect is the
// network request; classification and retry policy live in Execute.
func (e *Executor) doAttempt(ctx context.Context, req *Request) (*Outcome, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
	defer cancel()

	payload, err := json.Marshal(requestBody{Query: req.Document, Variables: req.Variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		if timeoutErr := e.attemptTimeout(ctx, err); timeoutErr != nil {
			return nil, timeoutErr
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	info := parseRateHeaders(resp.Header)
	if info != nil {
		e.pacer.observe(info.Remaining, info.ResetAt)
		e.logger.Debug("github rate limit",
			"remaining", info.Remaining, "limit", info.Limit, "resetAt", info.ResetAt)
		if info.Remaining < e.cfg.LowWater {
			e.logger.Warn("github rate limit low", "remaining", info.Remaining, "limit", info.Limit)
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && info != nil && info.Remaining == 0) {
		return nil, newRateLimitError(resp.Header, info)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if timeoutErr := e.attemptTimeout(ctx, err); timeoutErr != nil {
			return nil, timeoutErr
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("received status %d from upstream", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("github authentication failed (status 401): %w", octoerrors.ErrInvalidToken)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("received status %d from upstream: %s",
			resp.StatusCode, truncateForError(body))
	}

	var envelope graphQLEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &Outcome{
		Data:      envelope.Data,
		Errors:    envelope.Errors,
		RateLimit: info,
	}, nil
}

// attemptTimeout converts a per-attempt deadline hit into a retryable
// attemptTimeoutError. ctx is the parent context: when it is still live the
// deadline belonged to this attempt only, so the next attempt gets a fresh
// budget. Returns nil when err is anything else, including a genuine caller
// cancellation.
func (e *Executor) attemptTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return &attemptTimeoutError{timeout: e.cfg.AttemptTimeout, cause: err}
	}
	return nil
}

// attemptTimeoutError marks a single attempt that outlived its per-attempt
// budget. The marker methods classify it as a retryable network failure; it
// deliberately does not unwrap to context.DeadlineExceeded, which would read
// as a caller cancellation downstream.
type attemptTimeoutError struct {
	timeout time.Duration
	cause   error
}

func (e *attemptTimeoutError) Error() string {
	return fmt.Sprintf("attempt exceeded %s timeout: %v", e.timeout, e.cause)
}

func (e *attemptTimeoutError) IsNetworkError() bool { return true }

func (e *attemptTimeoutError) IsRetryable() bool { return true }

// backoffFor calculates the backoff duration for the given attempt.
func (e *Executor) backoffFor(attempt int) time.Duration {
	backoff := float64(e.cfg.InitialBackoff) * math.Pow(e.cfg.BackoffMultiplier, float64(attempt))

	if backoff > float64(e.cfg.MaxBackoff) {
		backoff = float64(e.cfg.MaxBackoff)
	}

	// Add jitter (±10%) to prevent thundering herd
	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}

// rateLimitError is returned when the upstream signals quota exhaustion.
// It carries the reset time so the retry path can wait precisely.
type rateLimitError struct {
	resetAt time.Time
}

func newRateLimitError(hdr http.Header, info *RateLimitInfo) *rateLimitError {
	e := &rateLimitError{}
	if info != nil && !info.ResetAt.IsZero() {
		e.resetAt = info.ResetAt
	} else if retryAfter := hdr.Get("Retry-After"); retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil {
			e.resetAt = time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return e
}

func (e *rateLimitError) Error() string {
	if e.resetAt.IsZero() {
		return "github api rate limit exceeded"
	}
	return fmt.Sprintf("github api rate limit exceeded, resets at %s", e.resetAt.Format(time.RFC3339))
}

func (e *rateLimitError) IsRateLimitError() bool { return true }

// rateLimitWait extracts the remaining wait from a rate limit error chain.
func rateLimitWait(err error) (time.Duration, bool) {
	var rle *rateLimitError
	if !errors.As(err, &rle) || rle.resetAt.IsZero() {
		return 0, false
	}
	wait := time.Until(rle.resetAt)
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

// parseRateHeaders reads GitHub's X-RateLimit-* headers; returns nil when
// they are absent.
func parseRateHeaders(hdr http.Header) *RateLimitInfo {
	remaining := hdr.Get("X-RateLimit-Remaining")
	limit := hdr.Get("X-RateLimit-Limit")
	if remaining == "" || limit == "" {
		return nil
	}

	info := &RateLimitInfo{}
	var err error
	if info.Remaining, err = strconv.Atoi(remaining); err != nil {
		return nil
	}
	if info.Limit, err = strconv.Atoi(limit); err != nil {
		return nil
	}
	if reset := hdr.Get("X-RateLimit-Reset"); reset != "" {
		if unix, err := strconv.ParseInt(reset, 10, 64); err == nil {
			info.ResetAt = time.Unix(unix, 0)
		}
	}
	return info
}

func truncateForError(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// pacer is the single shared mutable resource of the executor: a token
// bucket plus the most recent upstream quota observation. A mutex guards
// the observation; permit acquisition blocks only the acquiring invocation.
type pacer struct {
	bucket   *rate.Limiter
	lowWater int
	maxWait  time.Duration

	mu        sync.Mutex
	remaining int // -1 when unknown
	resetAt   time.Time
}

func newPacer(rps float64, burst, lowWater int, maxWait time.Duration) *pacer {
	return &pacer{
		bucket:    rate.NewLimiter(rate.Limit(rps), burst),
		lowWater:  lowWater,
		maxWait:   maxWait,
		remaining: -1,
	}
}

// acquire blocks until a permit is available. When the observed remaining
// quota is at or below the low-water mark, it first waits out the upstream
// window, failing with ErrRateLimit if that wait would exceed the ceiling.
func (p *pacer) acquire(ctx context.Context) error {
	p.mu.Lock()
	var wait time.Duration
	now := time.Now()
	if p.remaining >= 0 && p.remaining <= p.lowWater {
		if now.Before(p.resetAt) {
			wait = p.resetAt.Sub(now)
		} else {
			// Window has reset; quota observation is stale.
			p.remaining = -1
		}
	}
	p.mu.Unlock()

	if wait > 0 {
		if wait > p.maxWait {
			return fmt.Errorf("rate limit nearly exhausted, window resets in %s (ceiling %s): %w",
				wait.Round(time.Second), p.maxWait, octoerrors.ErrRateLimit)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return p.bucket.Wait(ctx)
}

// observe records the latest upstream quota report.
func (p *pacer) observe(remaining int, resetAt time.Time) {
	p.mu.Lock()
	p.remaining = remaining
	if !resetAt.IsZero() {
		p.resetAt = resetAt
	}
	p.mu.Unlock()
}
