package core

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus tracks a task through its lifecycle. Status transitions are the
// only mutation applied to a task after plan creation.
type TaskStatus string

const (
	// TaskPending means the task has not started yet.
	TaskPending TaskStatus = "pending"
	// TaskRunning means the task is currently executing.
	TaskRunning TaskStatus = "running"
	// TaskCompleted means the task finished successfully.
	TaskCompleted TaskStatus = "completed"
	// TaskFailed means the task finished with an error.
	TaskFailed TaskStatus = "failed"
	// TaskCancelled means the task was cancelled before or between attempts.
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Task is a single unit of work inside a plan: one capability invocation with
// bound parameters, ordered after its dependencies.
type Task struct {
	// ID uniquely identifies the task within its plan.
	ID string `json:"id"`

	// PlanID references the owning plan.
	PlanID string `json:"plan_id"`

	// Description is the human-readable statement of what the task does.
	Description string `json:"description"`

	// Capability names the registered capability to invoke.
	Capability string `json:"capability"`

	// Parameters is the opaque argument bag passed to the capability.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Dependencies lists task IDs that must complete before this task may
	// run. All referenced IDs must exist in the same plan; self references
	// and cycles are rejected at validation time.
	Dependencies []string `json:"dependencies,omitempty"`

	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`

	// Output holds the capability result once the task completed.
	Output any `json:"output,omitempty"`

	// Error holds the failure message once the task failed.
	Error string `json:"error,omitempty"`

	// StartedAt / CompletedAt are set by the executor.
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Metadata carries free-form annotations (expected timings, retry
	// counters, planner notes).
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewTask creates a pending Task with a generated ID.
func NewTask(planID, description, capability string, params map[string]any) *Task {
	if params == nil {
		params = map[string]any{}
	}
	return &Task{
		ID:          uuid.NewString(),
		PlanID:      planID,
		Description: description,
		Capability:  capability,
		Parameters:  params,
		Status:      TaskPending,
		Metadata:    map[string]any{},
	}
}

// DependsOn appends dependency task IDs and returns the task for chaining.
func (t *Task) DependsOn(ids ...string) *Task {
	t.Dependencies = append(t.Dependencies, ids...)
	return t
}

// TaskResult captures the outcome of one logical execution of a task. Retries
// collapse into a single result; superseding attempts produce new values
// rather than editing old ones.
type TaskResult struct {
	// TaskID references the executed task.
	TaskID string `json:"task_id"`

	// Success reports whether the capability invocation succeeded.
	Success bool `json:"success"`

	// Output is the capability's result payload. Nil on failure.
	Output any `json:"output,omitempty"`

	// Error is the failure message. Set iff Success is false.
	Error string `json:"error,omitempty"`

	// Logs holds ordered log lines captured during execution.
	Logs []string `json:"logs,omitempty"`

	// Duration is the wall-clock execution time.
	Duration time.Duration `json:"duration"`

	// Metadata carries executor annotations such as "retries" and
	// "retry_exhausted".
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Metadata keys written by the executor's retry wrapper.
const (
	// MetaRetries is the number of re-invocations performed after the first
	// attempt.
	MetaRetries = "retries"
	// MetaRetryExhausted marks a result whose every attempt failed.
	MetaRetryExhausted = "retry_exhausted"
)
