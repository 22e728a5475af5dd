// Package plan wraps a core.Plan with the dependency-graph behavior the
// orchestrator needs: structural validation (uniqueness, dangling references,
// cycle detection) and deterministic ready-task queries.
package plan

import "github.com/goalloop/goalloop/core"

// Graph is the validated view over a plan's task dependency relation.
//
// The graph does not copy tasks; it indexes the plan's task slice so status
// changes made between waves are observed by subsequent ReadyTasks calls.
// Graph methods are not safe for concurrent use; the plan is only touched
// by the orchestrator goroutine between waves.
type Graph struct {
	plan  *core.Plan
	index map[string]*core.Task
}

// New builds a Graph over the plan. Validate must be called (and succeed)
// before the graph is used for execution.
func New(p *core.Plan) *Graph {
	g := &Graph{plan: p}
	g.reindex()
	return g
}

func (g *Graph) reindex() {
	g.index = make(map[string]*core.Task, len(g.plan.Tasks))
	for _, t := range g.plan.Tasks {
		g.index[t.ID] = t
	}
}

// Plan returns the underlying plan.
func (g *Graph) Plan() *core.Plan { return g.plan }

// Add appends a task to the plan and re-validates the graph. On validation
// failure the plan is left unchanged and the structural error is returned.
func (g *Graph) Add(t *core.Task) error {
	t.PlanID = g.plan.ID
	g.plan.Tasks = append(g.plan.Tasks, t)
	g.index[t.ID] = t
	if err := g.Validate(); err != nil {
		g.plan.Tasks = g.plan.Tasks[:len(g.plan.Tasks)-1]
		g.reindex()
		return err
	}
	return nil
}

// Get returns the task with the given ID, if present.
func (g *Graph) Get(id string) (*core.Task, bool) {
	t, ok := g.index[id]
	return t, ok
}

// ReadyTasks returns every pending task whose dependencies have all
// completed, in declaration order. The ordering is stable: callers must not
// observe nondeterministic reordering beyond what concurrent execution of a
// single wave implies.
func (g *Graph) ReadyTasks() []*core.Task {
	var ready []*core.Task
	for _, t := range g.plan.Tasks {
		if t.Status != core.TaskPending {
			continue
		}
		ok := true
		for _, dep := range t.Dependencies {
			d, found := g.index[dep]
			if !found || d.Status != core.TaskCompleted {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, t)
		}
	}
	return ready
}

// AllDone reports whether every task has reached a terminal status.
func (g *Graph) AllDone() bool {
	for _, t := range g.plan.Tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

// Stuck reports whether the plan can make no further progress: no task is
// ready yet not all tasks are terminal. This happens when a pending task
// depends on a failed or cancelled one.
func (g *Graph) Stuck() bool {
	return len(g.ReadyTasks()) == 0 && !g.AllDone()
}

// ApplyRevision replaces the plan's non-terminal tasks with the revised list
// while keeping completed/failed/cancelled tasks in place, then re-validates
// the resulting graph. On validation failure the plan is left unchanged and
// the structural error is returned.
func (g *Graph) ApplyRevision(revised []*core.Task) error {
	var merged []*core.Task
	for _, t := range g.plan.Tasks {
		if t.Status.Terminal() {
			merged = append(merged, t)
		}
	}
	for _, t := range revised {
		t.PlanID = g.plan.ID
		merged = append(merged, t)
	}

	candidate := &Graph{plan: &core.Plan{ID: g.plan.ID, Goal: g.plan.Goal, Tasks: merged}}
	candidate.reindex()
	if err := candidate.Validate(); err != nil {
		return err
	}

	g.plan.Tasks = merged
	g.reindex()
	return nil
}
