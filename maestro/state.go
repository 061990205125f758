// Package maestro provides the core types shared by the marketing pipeline:
// the campaign state carried between stages, the typed partial update a stage
// returns, and the Stage contract itself.
package maestro

import "slices"

// Status summarizes the terminal outcome of a pipeline run.
type Status string

const (
	// StatusPending is the zero-ish status before the terminal stage has run.
	StatusPending Status = "pending"

	// StatusCompleted means every stage produced its output and no errors
	// accumulated.
	StatusCompleted Status = "completed"

	// StatusBlocked means one or more stages recorded an error and the run
	// cannot be considered publishable.
	StatusBlocked Status = "blocked"

	// StatusAwaitingApproval means the run finished cleanly but requires a
	// human sign-off before results are acted on.
	StatusAwaitingApproval Status = "awaiting_approval"
)

// CampaignState is the shared state threaded through the pipeline. Each stage
// reads some fields and contributes others via a StageResult; fields a stage
// does not produce are left untouched.
//
// Errors is append-only: stages may add to it but never clear it. A non-empty
// Errors slice signals upstream failure to downstream stages.
type CampaignState struct {
	Objective      string   `json:"objective"`
	TargetAudience string   `json:"target_audience"`
	Channels       []string `json:"channels"`
	Budget         float64  `json:"budget"`

	Research          string             `json:"research_output"`
	Strategy          string             `json:"strategy_output"`
	ContentItems      []string           `json:"content_items"`
	Publications      map[string]string  `json:"publication_results"`
	Metrics           map[string]float64 `json:"metrics"`
	OptimizationNotes string             `json:"optimization_notes"`

	Status          Status   `json:"orchestration_status"`
	RequireApproval bool     `json:"require_approval"`
	Errors          []string `json:"errors"`
}

// Clone returns a deep copy of the state. The pipeline clones the caller's
// initial state so concurrent runs never share mutable slices or maps.
func (s *CampaignState) Clone() *CampaignState {
	c := *s
	c.Channels = slices.Clone(s.Channels)
	c.ContentItems = slices.Clone(s.ContentItems)
	c.Errors = slices.Clone(s.Errors)
	if s.Publications != nil {
		c.Publications = make(map[string]string, len(s.Publications))
		for k, v := range s.Publications {
			c.Publications[k] = v
		}
	}
	if s.Metrics != nil {
		c.Metrics = make(map[string]float64, len(s.Metrics))
		for k, v := range s.Metrics {
			c.Metrics[k] = v
		}
	}
	return &c
}

// StageResult is the partial update a stage returns. Nil pointer fields and
// nil maps/slices mean "no change"; Errors are appended, never replaced.
type StageResult struct {
	Research          *string
	Strategy          *string
	ContentItems      []string
	Publications      map[string]string
	Metrics           map[string]float64
	OptimizationNotes *string
	Status            *Status

	// Errors to append to the state's error list.
	Errors []string

	// Degraded marks results produced from a fallback rather than a live
	// provider call. It is recorded for observability only and does not
	// affect merge semantics.
	Degraded bool
}

// ErrorResult returns a result that only appends an error, the shape a stage
// returns when a required upstream field is missing.
func ErrorResult(msg string) *StageResult {
	return &StageResult{Errors: []string{msg}}
}

// Apply merges the result into the state. Present fields overwrite, absent
// fields leave the state alone, and Errors accumulate.
func (r *StageResult) Apply(s *CampaignState) {
	if r == nil {
		return
	}
	if r.Research != nil {
		s.Research = *r.Research
	}
	if r.Strategy != nil {
		s.Strategy = *r.Strategy
	}
	if r.ContentItems != nil {
		s.ContentItems = r.ContentItems
	}
	if r.Publications != nil {
		s.Publications = r.Publications
	}
	if r.Metrics != nil {
		s.Metrics = r.Metrics
	}
	if r.OptimizationNotes != nil {
		s.OptimizationNotes = *r.OptimizationNotes
	}
	if r.Status != nil {
		s.Status = *r.Status
	}
	s.Errors = append(s.Errors, r.Errors...)
}

// String returns a pointer to s, a small helper for building StageResults.
func String(s string) *string { return &s }
