// Package scoring sends credit scoring prompts to the LLM and turns every
// outcome, including failures, into a Result the caller can inspect.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"crediflow/internal/cache"
	"crediflow/internal/llm"
	"crediflow/internal/metrics"
)

// Failure categorizes why a scoring call produced no report.
type Failure string

const (
	FailureNone              Failure = "none"
	FailureMissingCredential Failure = "missing_credential"
	FailureRemoteError       Failure = "remote_error"
	FailureEmptyResponse     Failure = "empty_response"
)

const (
	missingCredentialMessage = "Cannot calculate: Missing OpenRouter API Key/Client."
	remoteErrorPrefix        = "Error communicating with OpenRouter: "
)

var errEmptyResponse = errors.New("empty response")

// Result is the outcome of one scoring call.
type Result struct {
	Text    string
	Failure Failure
	Err     error
	Model   string
	Cached  bool
}

// OK reports whether Text holds model output.
func (r Result) OK() bool {
	return r.Failure == FailureNone || r.Failure == ""
}

// String returns the model text on success and the user-facing message otherwise.
func (r Result) String() string {
	switch r.Failure {
	case FailureNone, "":
		return r.Text
	case FailureMissingCredential:
		return missingCredentialMessage
	default:
		if r.Err == nil {
			return remoteErrorPrefix + "unknown error"
		}
		return remoteErrorPrefix + r.Err.Error()
	}
}

type Options struct {
	// Model is reported when no client is configured.
	Model    string
	Cache    cache.Cache
	CacheTTL time.Duration
	Timeout  time.Duration
	Metrics  *metrics.Metrics
	Log      *slog.Logger
}

// Service wraps an llm.Client. A nil client means no credential is configured.
type Service struct {
	client   llm.Client
	model    string
	cache    cache.Cache
	cacheTTL time.Duration
	timeout  time.Duration
	metrics  *metrics.Metrics
	log      *slog.Logger
}

func NewService(client llm.Client, opts Options) *Service {
	model := opts.Model
	if client != nil && client.Model() != "" {
		model = client.Model()
	}
	if model == "" {
		model = llm.DefaultModel
	}
	c := opts.Cache
	if c == nil {
		c = cache.NewNoOpCache()
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		client:   client,
		model:    model,
		cache:    c,
		cacheTTL: opts.CacheTTL,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		log:      log,
	}
}

// Model names the model prompts are sent to.
func (s *Service) Model() string {
	return s.model
}

// Score sends prompt to the model. It never panics and never returns an error;
// failures are carried in the Result.
func (s *Service) Score(ctx context.Context, prompt string) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("scoring panic recovered", "panic", rec)
			res = Result{Failure: FailureRemoteError, Err: fmt.Errorf("panic: %v", rec), Model: s.model}
		}
		s.metrics.ScoreOutcome(string(res.Failure))
	}()

	if s.client == nil {
		s.log.Warn("scoring skipped, no OpenRouter credential configured")
		return Result{Failure: FailureMissingCredential, Model: s.model}
	}

	key := cache.Key(s.model, prompt)
	if cached, err := s.cache.GetReport(ctx, key); err != nil {
		s.log.Warn("report cache lookup failed", "err", err)
	} else if cached != nil {
		s.metrics.CacheHit()
		return Result{Text: cached.Text, Failure: FailureNone, Model: s.model, Cached: true}
	}
	s.metrics.CacheMiss()

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.client.Complete(callCtx, prompt)
	s.metrics.ObserveRemoteCall(time.Since(start))
	switch {
	case errors.Is(err, llm.ErrNoChoices):
		return Result{Failure: FailureEmptyResponse, Err: errEmptyResponse, Model: s.model}
	case err != nil:
		s.log.Error("openrouter request failed", "err", err, "status", llm.StatusCode(err))
		return Result{Failure: FailureRemoteError, Err: err, Model: s.model}
	case strings.TrimSpace(text) == "":
		return Result{Failure: FailureEmptyResponse, Err: errEmptyResponse, Model: s.model}
	}

	report := &cache.Report{Model: s.model, Text: text, CreatedAt: time.Now().UTC()}
	if err := s.cache.SetReport(ctx, key, report, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache report", "err", err)
	}
	return Result{Text: text, Failure: FailureNone, Model: s.model}
}
