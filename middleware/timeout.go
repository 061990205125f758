package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maestroia/maestro-go/maestro"
)

// TimeoutStage bounds how long a wrapped stage may run.
type TimeoutStage struct {
	stage   maestro.Stage
	timeout time.Duration
}

var _ maestro.Stage = (*TimeoutStage)(nil)

// NewTimeoutStage wraps stage with a per-run deadline. Default: 60s.
func NewTimeoutStage(stage maestro.Stage, timeout time.Duration) *TimeoutStage {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &TimeoutStage{stage: stage, timeout: timeout}
}

func (t *TimeoutStage) Name() string           { return t.stage.Name() }
func (t *TimeoutStage) InputFields() []string  { return t.stage.InputFields() }
func (t *TimeoutStage) OutputFields() []string { return t.stage.OutputFields() }

// Run executes the wrapped stage under a deadline. A deadline hit becomes a
// stage-level error result so the pipeline keeps moving; caller cancellation
// still propagates as an error.
func (t *TimeoutStage) Run(ctx context.Context, state *maestro.CampaignState) (*maestro.StageResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	result, err := t.stage.Run(runCtx, state)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("stage %s cancelled: %w", t.stage.Name(), ctx.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return maestro.ErrorResult(fmt.Sprintf("%s: timed out after %s", t.stage.Name(), t.timeout)), nil
	}
	return nil, err
}
