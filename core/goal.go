package core

import "github.com/google/uuid"

// Goal is a declarative objective handed to the orchestrator. A Goal is
// immutable once execution starts; the orchestrator never writes to it.
type Goal struct {
	// ID uniquely identifies the goal.
	ID string `json:"id"`

	// Description is the free-text statement of what should be achieved.
	Description string `json:"description"`

	// Constraints carries caller-imposed restrictions (budgets, allowed
	// capabilities, deadlines) that the planner should honor.
	Constraints map[string]any `json:"constraints,omitempty"`

	// Context carries arbitrary additional information made available to
	// the planner when deriving tasks.
	Context map[string]any `json:"context,omitempty"`

	// Priority orders goals relative to each other. Higher means more urgent.
	Priority int `json:"priority"`
}

// NewGoal creates a Goal with a generated ID and default priority.
func NewGoal(description string) *Goal {
	return &Goal{
		ID:          uuid.NewString(),
		Description: description,
		Constraints: map[string]any{},
		Context:     map[string]any{},
		Priority:    5,
	}
}

// AutonomyLevel is the trust gate controlling whether a generated plan is
// executed automatically or handed back for manual approval.
type AutonomyLevel int

const (
	// AutonomyManual blocks execution entirely: the orchestrator returns the
	// generated plan with AwaitingApproval set and runs zero tasks.
	AutonomyManual AutonomyLevel = iota

	// AutonomySupervised executes automatically. Whether supervised mode
	// should diverge from full autonomy (for example per-wave confirmation)
	// is unresolved upstream; today it behaves identically to AutonomyFull.
	AutonomySupervised

	// AutonomyFull executes automatically with no gating.
	AutonomyFull
)

// String returns the string representation of the autonomy level.
func (a AutonomyLevel) String() string {
	switch a {
	case AutonomyManual:
		return "manual"
	case AutonomySupervised:
		return "supervised"
	case AutonomyFull:
		return "full"
	default:
		return "unknown"
	}
}
