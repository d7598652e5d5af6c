package synth

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"github.com/roach88/roboplan/internal/ir"
)

// RetryConfig bounds retries of transient transport failures.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig returns the default retry configuration: up to three
// retries starting at 500ms and capped at 8s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     8 * time.Second,
		Multiplier:      2.0,
	}
}

// backoff returns the delay before retry number attempt (0-based):
// InitialInterval * Multiplier^attempt capped at MaxInterval, with jitter
// in [0.75, 1.25) of the nominal delay.
func (rc RetryConfig) backoff(attempt int) time.Duration {
	delay := float64(rc.InitialInterval)
	for i := 0; i < attempt; i++ {
		delay *= rc.Multiplier
	}
	if delay > float64(rc.MaxInterval) {
		delay = float64(rc.MaxInterval)
	}
	jitter := rand.Float64() * delay * 0.5
	return time.Duration(delay*0.75 + jitter)
}

// IsRetryable reports whether a Completer error is transient: a network
// error or an APIError marked retryable (429, 5xx). Context cancellation
// is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// LLMSynthesizer generates plans by prompting a text-generation service.
type LLMSynthesizer struct {
	completer Completer
	retry     RetryConfig
	logger    *slog.Logger
}

var _ Synthesizer = (*LLMSynthesizer)(nil)

// Option configures an LLMSynthesizer.
type Option func(*LLMSynthesizer)

// WithRetryConfig overrides DefaultRetryConfig. A negative MaxRetries is
// treated as zero: the service is always called at least once.
func WithRetryConfig(rc RetryConfig) Option {
	return func(s *LLMSynthesizer) {
		rc.MaxRetries = max(rc.MaxRetries, 0)
		s.retry = rc
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *LLMSynthesizer) {
		s.logger = logger
	}
}

// NewLLMSynthesizer creates a synthesizer backed by completer.
func NewLLMSynthesizer(completer Completer, opts ...Option) *LLMSynthesizer {
	s := &LLMSynthesizer{
		completer: completer,
		retry:     DefaultRetryConfig(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratePlan prompts the service and parses its reply. Retryable
// transport failures are retried up to MaxRetries times; parse and schema
// failures are returned immediately. The returned SynthesisError records
// how many calls were made.
func (s *LLMSynthesizer) GeneratePlan(ctx context.Context, cmd ir.Command, scene ir.Scene) (ir.ActionPlan, error) {
	messages, err := BuildMessages(cmd, scene)
	if err != nil {
		return ir.ActionPlan{}, NewTransportError(0, err)
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retry.backoff(attempt - 1)
			s.logger.Debug("retrying text generation",
				"attempt", attempt+1,
				"delay", delay,
				"error", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return ir.ActionPlan{}, NewTransportError(attempts, err)
			}
		}

		attempts++
		text, err := s.completer.Complete(ctx, messages)
		if err != nil {
			lastErr = err
			if !IsRetryable(err) {
				break
			}
			continue
		}

		plan, err := ParsePlan(text)
		if err != nil {
			var se *SynthesisError
			if errors.As(err, &se) {
				se.Attempts = attempts
			}
			s.logger.Debug("unusable plan output", "error", err)
			return ir.ActionPlan{}, err
		}
		return plan, nil
	}

	s.logger.Warn("text generation failed", "attempts", attempts, "error", lastErr)
	return ir.ActionPlan{}, NewTransportError(attempts, lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
