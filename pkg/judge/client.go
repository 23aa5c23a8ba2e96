package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	batchesDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codearena",
		Subsystem: "judge",
		Name:      "batches_dispatched_total",
		Help:      "Number of evaluation batches dispatched to the execution service",
	}, []string{"outcome"})

	pollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "codearena",
		Subsystem: "judge",
		Name:      "poll_duration_seconds",
		Help:      "Time spent waiting for a batch to reach terminal state",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	})

	pollTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "codearena",
		Subsystem: "judge",
		Name:      "poll_timeouts_total",
		Help:      "Number of batches that did not reach terminal state within the wait budget",
	})
)

// Execution service status codes. The set is closed; only StatusAccepted
// denotes success, everything above StatusAccepted is a failure category.
const (
	StatusInQueue      = 1
	StatusProcessing   = 2
	StatusAccepted     = 3
	StatusRuntimeError = 4
)

// ErrUnavailable indicates the execution service could not be reached or
// returned a malformed response.
var ErrUnavailable = errors.New("execution service unavailable")

// ErrTimeout indicates at least one token did not reach a terminal state
// within the wait budget. This is distinct from a per-test-case time limit,
// which is a normal terminal result.
var ErrTimeout = errors.New("execution service poll timed out")

// Unit is one per-test-case execution request inside an evaluation batch.
type Unit struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

// Token is the opaque handle the execution service assigns to one queued unit.
type Token string

// Result is the terminal outcome of one execution unit.
type Result struct {
	Token    Token  `json:"token"`
	StatusID int    `json:"status_id"`
	Time     string `json:"time"`
	MemoryKB int    `json:"memory"`
	Stderr   string `json:"stderr"`
}

// Terminal reports whether the unit has left the queued/running states.
func (r Result) Terminal() bool {
	return r.StatusID >= StatusAccepted
}

// TimeSeconds parses the elapsed time the service reports as a decimal string.
func (r Result) TimeSeconds() float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Time), 64)
	if err != nil {
		return 0
	}
	return parsed
}

// Client is the contract for dispatching evaluation batches and collecting
// their results. Implementations are stateless between invocations.
type Client interface {
	SubmitBatch(ctx context.Context, units []Unit) ([]Token, error)
	AwaitAll(ctx context.Context, tokens []Token) ([]Result, error)
}

// Config groups execution client configuration values.
type Config struct {
	BaseURL      string
	AuthToken    string
	PollInterval time.Duration
	PollBackoff  float64
	PollMax      time.Duration
	WaitBudget   time.Duration
	HTTPClient   *http.Client
	Logger       zerolog.Logger
}

// HTTPClient talks to a batch-oriented execution service over HTTP.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewHTTPClient constructs an execution client for the given service.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("judge base url is required")
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.PollBackoff < 1 {
		cfg.PollBackoff = 1.5
	}
	if cfg.PollMax <= 0 {
		cfg.PollMax = 3 * time.Second
	}
	if cfg.WaitBudget <= 0 {
		cfg.WaitBudget = 60 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &HTTPClient{
		cfg:    cfg,
		http:   httpClient,
		tracer: otel.Tracer("github.com/codearena/judge-api/pkg/judge"),
		logger: logger.With().Str("component", "judge_client").Logger(),
	}, nil
}

type batchCreateRequest struct {
	Submissions []Unit `json:"submissions"`
}

type batchCreateEntry struct {
	Token Token `json:"token"`
}

type batchFetchResponse struct {
	Submissions []Result `json:"submissions"`
}

// SubmitBatch sends the whole ordered batch in one request and returns one
// token per unit, preserving input order.
func (c *HTTPClient) SubmitBatch(parent context.Context, units []Unit) ([]Token, error) {
	ctx, span := c.tracer.Start(parent, "judge.submit_batch", trace.WithAttributes(
		attribute.Int("judge.batch_size", len(units)),
	))
	defer span.End()

	payload, err := json.Marshal(batchCreateRequest{Submissions: units})
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/submissions/batch?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		batchesDispatched.WithLabelValues("unavailable").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		batchesDispatched.WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.StatusCode))
		return nil, fmt.Errorf("%w: batch create returned %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var entries []batchCreateEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		batchesDispatched.WithLabelValues("malformed").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("%w: decode batch response: %v", ErrUnavailable, err)
	}

	if len(entries) != len(units) {
		batchesDispatched.WithLabelValues("malformed").Inc()
		return nil, fmt.Errorf("%w: expected %d tokens, got %d", ErrUnavailable, len(units), len(entries))
	}

	tokens := make([]Token, len(entries))
	for i, entry := range entries {
		tokens[i] = entry.Token
	}

	batchesDispatched.WithLabelValues("ok").Inc()
	c.logger.Debug().Int("units", len(units)).Msg("batch dispatched")
	return tokens, nil
}

// AwaitAll polls the execution service until every token reaches a terminal
// state, then returns results in token order. The wait budget bounds the
// total time spent polling; exceeding it surfaces ErrTimeout.
func (c *HTTPClient) AwaitAll(parent context.Context, tokens []Token) ([]Result, error) {
	ctx, span := c.tracer.Start(parent, "judge.await_all", trace.WithAttributes(
		attribute.Int("judge.batch_size", len(tokens)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.WaitBudget)
	defer cancel()

	start := time.Now()
	interval := c.cfg.PollInterval

	for {
		results, err := c.fetchBatch(ctx, tokens)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				pollTimeouts.Inc()
				span.SetStatus(codes.Error, "wait budget exceeded")
				return nil, fmt.Errorf("%w: after %s", ErrTimeout, time.Since(start).Round(time.Millisecond))
			}
			span.RecordError(err)
			return nil, err
		}

		if allTerminal(results) {
			pollDuration.Observe(time.Since(start).Seconds())
			return results, nil
		}

		select {
		case <-ctx.Done():
			pollTimeouts.Inc()
			span.SetStatus(codes.Error, "wait budget exceeded")
			return nil, fmt.Errorf("%w: after %s", ErrTimeout, time.Since(start).Round(time.Millisecond))
		case <-time.After(interval):
		}

		interval = time.Duration(float64(interval) * c.cfg.PollBackoff)
		if interval > c.cfg.PollMax {
			interval = c.cfg.PollMax
		}
	}
}

func (c *HTTPClient) fetchBatch(ctx context.Context, tokens []Token) ([]Result, error) {
	joined := make([]string, len(tokens))
	for i, token := range tokens {
		joined[i] = string(token)
	}

	endpoint := fmt.Sprintf(
		"%s/submissions/batch?tokens=%s&base64_encoded=false&fields=token,status_id,time,memory,stderr",
		c.cfg.BaseURL, url.QueryEscape(strings.Join(joined, ",")),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: batch fetch returned %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload batchFetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode fetch response: %v", ErrUnavailable, err)
	}

	if len(payload.Submissions) != len(tokens) {
		return nil, fmt.Errorf("%w: expected %d results, got %d", ErrUnavailable, len(tokens), len(payload.Submissions))
	}

	return payload.Submissions, nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.cfg.AuthToken != "" {
		req.Header.Set("X-Auth-Token", c.cfg.AuthToken)
	}
}

func allTerminal(results []Result) bool {
	for _, result := range results {
		if !result.Terminal() {
			return false
		}
	}
	return true
}
