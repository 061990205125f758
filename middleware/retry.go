// Package middleware provides opt-in stage decorators. The raw pipeline has
// no retry or timeout layer; wrap individual stages at construction time when
// a deployment wants one.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/maestroia/maestro-go/maestro"
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts includes the initial attempt. Default: 3.
	MaxAttempts int

	// InitialBackoff is the first backoff duration. Default: 100ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff. Default: 10s.
	MaxBackoff time.Duration

	// BackoffMultiplier for exponential backoff. Default: 2.0.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryStage wraps a stage with retry on infrastructure errors. Domain
// errors inside a StageResult are not retried; they are the stage's answer.
type RetryStage struct {
	stage  maestro.Stage
	config RetryConfig
}

var _ maestro.Stage = (*RetryStage)(nil)

// NewRetryStage wraps stage with the given config, applying defaults for
// unset fields.
func NewRetryStage(stage maestro.Stage, config RetryConfig) *RetryStage {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 100 * time.Millisecond
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 10 * time.Second
	}
	if config.BackoffMultiplier <= 0 {
		config.BackoffMultiplier = 2.0
	}
	return &RetryStage{stage: stage, config: config}
}

func (r *RetryStage) Name() string           { return r.stage.Name() }
func (r *RetryStage) InputFields() []string  { return r.stage.InputFields() }
func (r *RetryStage) OutputFields() []string { return r.stage.OutputFields() }

// Run retries the wrapped stage with exponential backoff.
func (r *RetryStage) Run(ctx context.Context, state *maestro.CampaignState) (*maestro.StageResult, error) {
	backoff := r.config.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		result, err := r.stage.Run(ctx, state)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("retry cancelled on attempt %d: %w", attempt, ctx.Err())
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled during backoff: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * r.config.BackoffMultiplier)
		if backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}

	return nil, fmt.Errorf("stage %s failed after %d attempts: %w",
		r.stage.Name(), r.config.MaxAttempts, lastErr)
}
