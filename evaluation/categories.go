package evaluation

import "strings"

// Error categories assigned by substring classification of a failed task's
// error text. The table below is a compatibility contract: category
// membership and replan eligibility must not drift between releases, since
// downstream planners key off both.
const (
	CategoryTimeout    = "timeout"
	CategoryPermission = "permission"
	CategoryNotFound   = "not_found"
	CategoryNetwork    = "network"
	CategoryValidation = "validation"
	CategoryResource   = "resource"
	CategoryExecution  = "execution"
)

type errorCategory struct {
	name       string
	substrings []string
	suggestion string
	replan     bool
}

// Classification order matters: the first matching category wins, and the
// catch-all execution category matches everything.
var errorCategories = []errorCategory{
	{
		name:       CategoryTimeout,
		substrings: []string{"timeout", "timed out"},
		suggestion: "Increase the task timeout or split the task into smaller steps",
		replan:     true,
	},
	{
		name:       CategoryPermission,
		substrings: []string{"permission", "access denied", "unauthorized", "forbidden"},
		suggestion: "Check credentials and access permissions for the capability",
		replan:     false,
	},
	{
		name:       CategoryNotFound,
		substrings: []string{"not found", "no such", "does not exist"},
		suggestion: "Verify the referenced resource exists or create it first",
		replan:     true,
	},
	{
		name:       CategoryNetwork,
		substrings: []string{"network", "connection", "unreachable", "refused"},
		suggestion: "Retry with backoff or check network connectivity",
		replan:     true,
	},
	{
		name:       CategoryValidation,
		substrings: []string{"invalid", "validation", "malformed"},
		suggestion: "Correct the task parameters to match the capability schema",
		replan:     false,
	},
	{
		name:       CategoryResource,
		substrings: []string{"out of memory", "resource", "quota", "disk"},
		suggestion: "Free resources or reduce the task's working set",
		replan:     true,
	},
}

var executionCategory = errorCategory{
	name:       CategoryExecution,
	suggestion: "Inspect the capability error and adjust the task",
	replan:     false,
}

// classifyError maps an error message onto its category. Matching is
// case-insensitive substring search in table order; unmatched errors fall
// into the execution catch-all.
func classifyError(message string) errorCategory {
	lower := strings.ToLower(message)
	for _, cat := range errorCategories {
		for _, sub := range cat.substrings {
			if strings.Contains(lower, sub) {
				return cat
			}
		}
	}
	return executionCategory
}
