package core

import (
	"time"

	"github.com/google/uuid"
)

// PlanStatus tracks a plan through the orchestrator's state machine:
// draft -> (approval gate) -> executing -> completed | failed | cancelled.
type PlanStatus string

const (
	// PlanDraft means the plan has been generated but not approved/started.
	PlanDraft PlanStatus = "draft"
	// PlanApproved means the plan passed the autonomy gate.
	PlanApproved PlanStatus = "approved"
	// PlanExecuting means the orchestrator is running the plan's tasks.
	PlanExecuting PlanStatus = "executing"
	// PlanCompleted means every task reached a terminal state and the run
	// finished.
	PlanCompleted PlanStatus = "completed"
	// PlanFailed means the run terminated with failed tasks or a structural
	// error.
	PlanFailed PlanStatus = "failed"
	// PlanCancelled means the run was cancelled before completion.
	PlanCancelled PlanStatus = "cancelled"
)

// Plan is the ordered collection of tasks derived from a goal. The dependency
// relation over its tasks must form a DAG; plan.Graph enforces this before
// any execution begins.
type Plan struct {
	// ID uniquely identifies the plan.
	ID string `json:"id"`

	// Goal is the objective this plan was derived from.
	Goal *Goal `json:"goal"`

	// Tasks in declaration order. Order is meaningful: ready-task queries
	// and result lists preserve it.
	Tasks []*Task `json:"tasks"`

	// Status is the current lifecycle state.
	Status PlanStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Metadata carries free-form annotations (planner provenance, revision
	// counters).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewPlan creates a draft plan for a goal.
func NewPlan(goal *Goal, tasks []*Task) *Plan {
	p := &Plan{
		ID:        uuid.NewString(),
		Goal:      goal,
		Tasks:     tasks,
		Status:    PlanDraft,
		CreatedAt: time.Now(),
		Metadata:  map[string]any{},
	}
	for _, t := range p.Tasks {
		t.PlanID = p.ID
	}
	return p
}

// Task returns the task with the given ID, if present.
func (p *Plan) Task(id string) (*Task, bool) {
	for _, t := range p.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Episode is the archival record of one complete goal execution: the final
// plan plus every task result. It is handed to the episode sink exactly once
// when the orchestrator's loop exits; the engine keeps no cross-goal state.
type Episode struct {
	ID        string        `json:"id"`
	Plan      *Plan         `json:"plan"`
	Results   []*TaskResult `json:"results"`
	Success   bool          `json:"success"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewEpisode creates an episode snapshot for a finished run.
func NewEpisode(plan *Plan, results []*TaskResult, success bool) *Episode {
	return &Episode{
		ID:        uuid.NewString(),
		Plan:      plan,
		Results:   results,
		Success:   success,
		CreatedAt: time.Now(),
	}
}
