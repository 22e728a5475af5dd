package plan

import (
	"fmt"
	"strings"
)

// ValidationError reports a structural defect in a plan graph: duplicate
// task IDs, dangling dependency references or self-dependencies. Structural
// defects are fatal for the whole goal execution.
type ValidationError struct {
	TaskID  string `json:"task_id,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("invalid plan graph: task %s: %s", e.TaskID, e.Message)
	}
	return fmt.Sprintf("invalid plan graph: %s", e.Message)
}

// CycleError reports a dependency cycle, carrying one witness path
// (closed: first and last element are the same task ID).
type CycleError struct {
	Path []string `json:"path"`
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("invalid plan graph: dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// Validate checks the plan's structural invariants: task ID uniqueness, no
// dangling dependency references, no self-dependencies and no cycles. It
// must run once before any execution begins and again after every revision.
//
// Validate is a pure inspection: it mutates nothing and calling it twice on
// an unmodified plan produces the same outcome both times.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.plan.Tasks))
	for _, t := range g.plan.Tasks {
		if _, dup := seen[t.ID]; dup {
			return &ValidationError{TaskID: t.ID, Message: "duplicate task id"}
		}
		seen[t.ID] = struct{}{}
	}

	for _, t := range g.plan.Tasks {
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				return &ValidationError{TaskID: t.ID, Message: "task depends on itself"}
			}
			if _, ok := g.index[dep]; !ok {
				return &ValidationError{TaskID: t.ID, Message: fmt.Sprintf("unknown dependency %q", dep)}
			}
		}
	}

	return g.validateAcyclic()
}

// validateAcyclic runs a depth-first search with white/gray/black coloring.
// A gray node reached over a back-edge proves a cycle; the recursion stack
// is unwound to produce a stable witness path.
func (g *Graph) validateAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.plan.Tasks))
	parent := make(map[string]string, len(g.plan.Tasks))

	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		for _, dep := range g.index[id].Dependencies {
			switch color[dep] {
			case white:
				parent[dep] = id
				if dfs(dep) {
					return true
				}
			case gray:
				// Back-edge id -> dep closes the cycle dep ... id -> dep.
				cycle = append(cycle, dep)
				cur := id
				for cur != "" && cur != dep {
					cycle = append(cycle, cur)
					cur = parent[cur]
				}
				cycle = append(cycle, dep)
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, t := range g.plan.Tasks {
		if color[t.ID] != white {
			continue
		}
		if dfs(t.ID) {
			break
		}
	}

	if len(cycle) == 0 {
		return nil
	}

	// The parent walk collected the path in reverse; normalize to forward
	// order while keeping the closure.
	path := make([]string, len(cycle))
	for i := range cycle {
		path[i] = cycle[len(cycle)-1-i]
	}
	return &CycleError{Path: path}
}
