// Package capability implements the invocation boundary between the engine
// and the catalog of invocable capabilities ("tools"): a minimal Capability
// interface, a function adapter with schema-validated arguments, a
// concurrency-safe registry and a resilience guard. The engine never
// implements a capability itself; it only invokes them by name.
package capability

import (
	"context"
	"fmt"

	"github.com/goalloop/goalloop/internal/util"
)

// Capability is a named, schema-described operation the executor can invoke
// on behalf of a task.
//
// Implementations must be safe to call from multiple worker goroutines
// concurrently with different parameters.
type Capability interface {
	// Name returns the unique identifier for this capability
	// (snake_case or dotted names recommended, e.g. "filesystem.read").
	Name() string

	// Description returns a human-readable description. It is surfaced to
	// the planner so generated tasks pick appropriate capabilities.
	Description() string

	// Parameters returns a minimal JSON-schema-like map describing the
	// expected parameter bag.
	Parameters() map[string]any

	// Invoke executes the capability. Any returned error is captured into
	// the task's result by the executor; it never crosses the boundary as
	// a process-level fault.
	Invoke(ctx context.Context, params map[string]any) (any, error)
}

// ValidationError re-exports the shared parameter validation error type.
type ValidationError = util.ValidationError

// Error codes attached to CapabilityError for uniform downstream handling.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// CapabilityError represents errors raised at the capability boundary.
type CapabilityError struct {
	Capability string `json:"capability"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("capability error [%s] in %s: %s", e.Code, e.Capability, e.Message)
	}
	return fmt.Sprintf("capability error in %s: %s", e.Capability, e.Message)
}

// NewCapabilityError creates a CapabilityError with the specified details.
func NewCapabilityError(capability, message, code string) *CapabilityError {
	return &CapabilityError{Capability: capability, Message: message, Code: code}
}
