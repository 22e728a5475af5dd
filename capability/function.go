package capability

import (
	"context"
	"fmt"

	"github.com/goalloop/goalloop/internal/util"
)

// Func is a generic adapter that exposes a plain Go function as a
// Capability.
//
// Responsibilities:
//   - Holds a lightweight JSON-schema-like parameter specification
//   - Validates supplied parameters against that schema before execution
//   - Normalizes error handling so callers receive *CapabilityError with
//     consistent codes: VALIDATION_ERROR for schema mismatches,
//     EXECUTION_ERROR for plain errors from the wrapped function; custom
//     codes are preserved when the function returns *CapabilityError itself.
//
// A Func has no internal mutable state after construction and is safe for
// concurrent use by multiple goroutines.
type Func struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, params map[string]any) (any, error)
}

// NewFunc constructs a Func from explicit schema and function.
//
// Example:
//
//	echo := capability.NewFunc(
//	  "echo",
//	  "Echo the given text back",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "text": map[string]any{"type": "string"},
//	    },
//	    "required": []any{"text"},
//	  },
//	  func(ctx context.Context, params map[string]any) (any, error) {
//	    return params["text"], nil
//	  },
//	)
func NewFunc(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, params map[string]any) (any, error),
) *Func {
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &Func{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFuncFromStruct derives the parameter schema from a struct using
// reflection. It is a convenience for simple argument containers.
func NewFuncFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, params map[string]any) (any, error),
) *Func {
	return NewFunc(name, description, util.SchemaFromStruct(structType), fn)
}

// Name returns the unique capability name used in task declarations.
func (f *Func) Name() string { return f.name }

// Description returns the short natural language description.
func (f *Func) Description() string { return f.description }

// Parameters returns the schema describing expected parameters.
func (f *Func) Parameters() map[string]any { return f.parameters }

// Invoke validates the provided params against the declared schema then
// calls the underlying function. Validation or execution failures are
// wrapped (or passed through) as *CapabilityError.
func (f *Func) Invoke(ctx context.Context, params map[string]any) (any, error) {
	if err := util.ValidateParameters(params, f.parameters); err != nil {
		return nil, &CapabilityError{
			Capability: f.name,
			Message:    fmt.Sprintf("parameter validation failed: %v", err),
			Code:       CodeValidation,
			Details:    err,
		}
	}

	result, err := f.fn(ctx, params)
	if err != nil {
		if capErr, ok := err.(*CapabilityError); ok {
			return nil, capErr
		}
		return nil, &CapabilityError{
			Capability: f.name,
			Message:    err.Error(),
			Code:       CodeExecution,
		}
	}

	return result, nil
}
