package planner

import (
	"context"

	"github.com/goalloop/goalloop/capability"
	"github.com/goalloop/goalloop/core"
	"github.com/goalloop/goalloop/orchestrator"
)

// Static serves a fixed task list and optional canned revisions. Useful in
// examples and tests where plan content is known up front.
type Static struct {
	generate func(goal *core.Goal) []*core.Task
	revise   func(plan *core.Plan, failure orchestrator.FailureContext) []*core.Task
}

// NewStatic creates a planner that always returns the tasks produced by
// generate. Revisions return nil unless WithRevision is set.
func NewStatic(generate func(goal *core.Goal) []*core.Task) *Static {
	return &Static{generate: generate}
}

// WithRevision installs a revision function and returns the planner.
func (s *Static) WithRevision(revise func(plan *core.Plan, failure orchestrator.FailureContext) []*core.Task) *Static {
	s.revise = revise
	return s
}

// GeneratePlan implements orchestrator.Planner.
func (s *Static) GeneratePlan(_ context.Context, goal *core.Goal, _ []capability.CatalogEntry) ([]*core.Task, error) {
	return s.generate(goal), nil
}

// RevisePlan implements orchestrator.Planner.
func (s *Static) RevisePlan(_ context.Context, plan *core.Plan, failure orchestrator.FailureContext) ([]*core.Task, error) {
	if s.revise == nil {
		return nil, nil
	}
	return s.revise(plan, failure), nil
}
