package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalloop/goalloop/core"
)

func mkTask(id string, deps ...string) *core.Task {
	return &core.Task{
		ID:           id,
		Description:  "task " + id,
		Capability:   "test.cap",
		Dependencies: deps,
		Status:       core.TaskPending,
		Parameters:   map[string]any{},
		Metadata:     map[string]any{},
	}
}

func mkPlan(tasks ...*core.Task) *core.Plan {
	return core.NewPlan(core.NewGoal("test goal"), tasks)
}

func TestValidateAcceptsLinearChain(t *testing.T) {
	g := New(mkPlan(mkTask("a"), mkTask("b", "a"), mkTask("c", "b")))
	assert.NoError(t, g.Validate())
}

func TestValidateIsIdempotent(t *testing.T) {
	g := New(mkPlan(mkTask("a"), mkTask("b", "a")))
	require.NoError(t, g.Validate())
	require.NoError(t, g.Validate())
	// No status was touched by validation.
	for _, task := range g.Plan().Tasks {
		assert.Equal(t, core.TaskPending, task.Status)
	}
}

func TestAddValidatesAndRollsBack(t *testing.T) {
	g := New(mkPlan(mkTask("a"), mkTask("b", "a")))
	require.NoError(t, g.Validate())

	require.NoError(t, g.Add(mkTask("c", "b")))
	assert.Len(t, g.Plan().Tasks, 3)
	got, ok := g.Get("c")
	require.True(t, ok)
	assert.Equal(t, g.Plan().ID, got.PlanID)

	// Dangling dependency is rejected and the plan is unchanged.
	err := g.Add(mkTask("d", "ghost"))
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, g.Plan().Tasks, 3)
	_, ok = g.Get("d")
	assert.False(t, ok)

	// Duplicate id is rejected without clobbering the original.
	err = g.Add(mkTask("a"))
	require.Error(t, err)
	orig, ok := g.Get("a")
	require.True(t, ok)
	assert.Equal(t, "task a", orig.Description)
}

func TestValidateRejectsCycle(t *testing.T) {
	g := New(mkPlan(mkTask("a", "c"), mkTask("b", "a"), mkTask("c", "b")))

	err := g.Validate()
	require.Error(t, err)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.GreaterOrEqual(t, len(cycleErr.Path), 3)
	assert.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
}

func TestValidateRejectsSelfDependency(t *testing.T) {
	g := New(mkPlan(mkTask("a", "a")))

	err := g.Validate()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "a", valErr.TaskID)
	assert.Contains(t, valErr.Error(), "depends on itself")
}

func TestValidateRejectsDanglingDependency(t *testing.T) {
	g := New(mkPlan(mkTask("a"), mkTask("b", "ghost")))

	err := g.Validate()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Error(), "ghost")
}

func TestValidateRejectsDuplicateID(t *testing.T) {
	g := New(mkPlan(mkTask("a"), mkTask("a")))

	err := g.Validate()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Error(), "duplicate")
}

func TestReadyTasksRespectsDependencies(t *testing.T) {
	a, b, c, d := mkTask("a"), mkTask("b", "a"), mkTask("c", "a"), mkTask("d", "b", "c")
	g := New(mkPlan(a, b, c, d))
	require.NoError(t, g.Validate())

	ready := g.ReadyTasks()
	require.Len(t, ready, 1)
	assert.Equal(t, "a", ready[0].ID)

	a.Status = core.TaskCompleted
	ready = g.ReadyTasks()
	require.Len(t, ready, 2)
	// Declaration order is preserved.
	assert.Equal(t, "b", ready[0].ID)
	assert.Equal(t, "c", ready[1].ID)

	b.Status = core.TaskCompleted
	c.Status = core.TaskCompleted
	ready = g.ReadyTasks()
	require.Len(t, ready, 1)
	assert.Equal(t, "d", ready[0].ID)
}

func TestReadyTasksLiveness(t *testing.T) {
	// Every task must surface as ready exactly once as execution proceeds.
	g := New(mkPlan(mkTask("a"), mkTask("b", "a"), mkTask("c", "b"), mkTask("d", "a")))
	require.NoError(t, g.Validate())

	seen := map[string]int{}
	for !g.AllDone() {
		ready := g.ReadyTasks()
		require.NotEmpty(t, ready, "valid DAG must not get stuck")
		for _, task := range ready {
			seen[task.ID]++
			task.Status = core.TaskCompleted
		}
	}

	assert.Len(t, seen, 4)
	for id, count := range seen {
		assert.Equalf(t, 1, count, "task %s returned ready more than once", id)
	}
}

func TestStuckDetection(t *testing.T) {
	a, b := mkTask("a"), mkTask("b", "a")
	g := New(mkPlan(a, b))
	require.NoError(t, g.Validate())
	assert.False(t, g.Stuck())

	// A failed dependency strands its dependents.
	a.Status = core.TaskFailed
	assert.True(t, g.Stuck())
	assert.False(t, g.AllDone())
}

func TestApplyRevisionKeepsFinishedTasks(t *testing.T) {
	a, b, c := mkTask("a"), mkTask("b", "a"), mkTask("c", "b")
	g := New(mkPlan(a, b, c))
	require.NoError(t, g.Validate())

	a.Status = core.TaskCompleted
	b.Status = core.TaskFailed

	revised := []*core.Task{mkTask("b2", "a"), mkTask("c2", "b2")}
	require.NoError(t, g.ApplyRevision(revised))

	tasks := g.Plan().Tasks
	require.Len(t, tasks, 4) // a, b kept; b2, c2 replace pending c
	_, ok := g.Get("c")
	assert.False(t, ok)
	got, ok := g.Get("b2")
	require.True(t, ok)
	assert.Equal(t, g.Plan().ID, got.PlanID)
}

func TestApplyRevisionRejectsInvalidGraphAndKeepsOriginal(t *testing.T) {
	a := mkTask("a")
	g := New(mkPlan(a))
	require.NoError(t, g.Validate())

	err := g.ApplyRevision([]*core.Task{mkTask("x", "missing")})
	require.Error(t, err)

	// Original plan untouched.
	require.Len(t, g.Plan().Tasks, 1)
	_, ok := g.Get("a")
	assert.True(t, ok)
}
