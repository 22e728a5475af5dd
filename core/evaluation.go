package core

// Evaluation is a structured judgment over a task or plan outcome. Exactly
// one of TaskID / PlanID is set. Evaluations are produced fresh for every
// evaluated outcome and never mutated afterward.
type Evaluation struct {
	// TaskID is set for task-level evaluations.
	TaskID string `json:"task_id,omitempty"`

	// PlanID is set for plan-level evaluations.
	PlanID string `json:"plan_id,omitempty"`

	// Success reports whether the outcome met the configured criteria.
	Success bool `json:"success"`

	// Confidence scores the judgment between 0.0 and 1.0.
	Confidence float64 `json:"confidence"`

	// Issues lists detected problems in human-readable form.
	Issues []string `json:"issues,omitempty"`

	// Suggestions lists recommended fixes for the detected issues.
	Suggestions []string `json:"suggestions,omitempty"`

	// ShouldReplan is true when a revised plan is expected to help.
	ShouldReplan bool `json:"should_replan"`
}
