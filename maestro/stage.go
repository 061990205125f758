package maestro

import "context"

// Stage is a single transformation step in the marketing pipeline.
//
// A stage inspects the fields named by InputFields, performs its work (usually
// one generation call), and returns a StageResult carrying the fields named by
// OutputFields. A stage whose required input is missing must return an
// error-only result and do no further work; it must not fail the run.
//
// Run returns a non-nil error only for infrastructure failures the stage
// cannot absorb (notably context cancellation). Domain-level problems are
// reported through StageResult.Errors.
type Stage interface {
	Name() string
	InputFields() []string
	OutputFields() []string
	Run(ctx context.Context, state *CampaignState) (*StageResult, error)
}

// StageDescriptor describes a stage's position in the data flow without
// executing it. The pipeline exposes descriptors so the chain can be
// inspected, logged, or re-wired without touching call sites.
type StageDescriptor struct {
	Name    string   `json:"name"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Describe builds a descriptor from a stage.
func Describe(s Stage) StageDescriptor {
	return StageDescriptor{
		Name:    s.Name(),
		Inputs:  s.InputFields(),
		Outputs: s.OutputFields(),
	}
}
