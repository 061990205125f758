package agents

import (
	"context"

	"github.com/maestroia/maestro-go/maestro"
)

// Approver decides whether a finished run may proceed without further human
// input. It is consulted only when the state requests approval.
type Approver func(ctx context.Context, state *maestro.CampaignState) bool

// Conduct is the terminal orchestration check: it inspects the accumulated
// errors and the approval flag and settles the run's status. It makes no
// generation calls.
type Conduct struct {
	approver Approver
}

var _ maestro.Stage = (*Conduct)(nil)

// NewConduct creates the terminal stage. A nil approver means approval
// requests are never granted automatically.
func NewConduct(approver Approver) *Conduct {
	return &Conduct{approver: approver}
}

func (c *Conduct) Name() string { return "conduct" }

func (c *Conduct) InputFields() []string {
	return []string{maestro.FieldErrors}
}

func (c *Conduct) OutputFields() []string {
	return []string{maestro.FieldStatus}
}

// Run settles the orchestration status. Accumulated errors win over
// everything; otherwise a pending approval blocks completion.
func (c *Conduct) Run(ctx context.Context, state *maestro.CampaignState) (*maestro.StageResult, error) {
	status := maestro.StatusCompleted
	switch {
	case len(state.Errors) > 0:
		status = maestro.StatusBlocked
	case state.RequireApproval && (c.approver == nil || !c.approver(ctx, state)):
		status = maestro.StatusAwaitingApproval
	}
	return &maestro.StageResult{Status: &status}, nil
}
