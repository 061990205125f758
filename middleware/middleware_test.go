package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/maestroia/maestro-go/maestro"
)

// flakyStage fails a fixed number of times before succeeding.
type flakyStage struct {
	failures int
	calls    int
}

func (s *flakyStage) Name() string           { return "flaky" }
func (s *flakyStage) InputFields() []string  { return nil }
func (s *flakyStage) OutputFields() []string { return nil }

func (s *flakyStage) Run(context.Context, *maestro.CampaignState) (*maestro.StageResult, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("transient failure")
	}
	return &maestro.StageResult{Research: maestro.String("ok")}, nil
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	stage := &flakyStage{failures: 2}
	retry := NewRetryStage(stage, RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})

	result, err := retry.Run(context.Background(), &maestro.CampaignState{})
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if stage.calls != 3 {
		t.Errorf("calls = %d, want 3", stage.calls)
	}
	if result.Research == nil || *result.Research != "ok" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	stage := &flakyStage{failures: 10}
	retry := NewRetryStage(stage, RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})

	_, err := retry.Run(context.Background(), &maestro.CampaignState{})
	if err == nil {
		t.Fatal("expected failure after exhausting attempts")
	}
	if stage.calls != 3 {
		t.Errorf("calls = %d, want 3", stage.calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error should report attempt count: %v", err)
	}
}

// domainErrorStage reports a missing precondition, not an infrastructure
// failure.
type domainErrorStage struct{ calls int }

func (s *domainErrorStage) Name() string           { return "domain" }
func (s *domainErrorStage) InputFields() []string  { return nil }
func (s *domainErrorStage) OutputFields() []string { return nil }

func (s *domainErrorStage) Run(context.Context, *maestro.CampaignState) (*maestro.StageResult, error) {
	s.calls++
	return maestro.ErrorResult("input missing"), nil
}

func TestRetryDoesNotRetryDomainErrors(t *testing.T) {
	stage := &domainErrorStage{}
	retry := NewRetryStage(stage, DefaultRetryConfig())

	result, err := retry.Run(context.Background(), &maestro.CampaignState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage.calls != 1 {
		t.Errorf("domain errors must not be retried, got %d calls", stage.calls)
	}
	if len(result.Errors) != 1 {
		t.Errorf("domain error result should pass through: %+v", result)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := &flakyStage{failures: 10}
	retry := NewRetryStage(stage, RetryConfig{MaxAttempts: 5, InitialBackoff: time.Hour})

	_, err := retry.Run(ctx, &maestro.CampaignState{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stage.calls != 1 {
		t.Errorf("cancelled retry still re-ran the stage: %d calls", stage.calls)
	}
}

// slowStage blocks until its context is done.
type slowStage struct{}

func (slowStage) Name() string           { return "slow" }
func (slowStage) InputFields() []string  { return nil }
func (slowStage) OutputFields() []string { return nil }

func (slowStage) Run(ctx context.Context, _ *maestro.CampaignState) (*maestro.StageResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTimeoutBecomesErrorResult(t *testing.T) {
	wrapped := NewTimeoutStage(slowStage{}, 5*time.Millisecond)

	result, err := wrapped.Run(context.Background(), &maestro.CampaignState{})
	if err != nil {
		t.Fatalf("deadline hit must become an error result, got %v", err)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "timed out") {
		t.Errorf("expected timeout error result, got %+v", result)
	}
}

func TestTimeoutPropagatesCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wrapped := NewTimeoutStage(slowStage{}, time.Hour)

	if _, err := wrapped.Run(ctx, &maestro.CampaignState{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTimeoutPassThrough(t *testing.T) {
	stage := &flakyStage{}
	wrapped := NewTimeoutStage(stage, time.Second)

	result, err := wrapped.Run(context.Background(), &maestro.CampaignState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Research == nil || *result.Research != "ok" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestTimeoutKeepsStageIdentity(t *testing.T) {
	wrapped := NewTimeoutStage(slowStage{}, time.Second)
	if wrapped.Name() != "slow" {
		t.Errorf("wrapper must keep the stage name, got %q", wrapped.Name())
	}
}
