package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalloop/goalloop/core"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		message  string
		category string
		replan   bool
	}{
		{"Connection timeout after 30s", CategoryTimeout, true},
		{"operation timed out", CategoryTimeout, true},
		{"permission denied", CategoryPermission, false},
		{"401 Unauthorized", CategoryPermission, false},
		{"file not found", CategoryNotFound, true},
		{"no such bucket", CategoryNotFound, true},
		{"network unreachable", CategoryNetwork, true},
		{"connection refused", CategoryNetwork, true},
		{"invalid parameter: count", CategoryValidation, false},
		{"malformed payload", CategoryValidation, false},
		{"out of memory", CategoryResource, true},
		{"disk quota exceeded", CategoryResource, true},
		{"something unexpected happened", CategoryExecution, false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			cat := classifyError(tt.message)
			assert.Equal(t, tt.category, cat.name)
			assert.Equal(t, tt.replan, cat.replan)
		})
	}
}

func TestEvaluateTaskSuccess(t *testing.T) {
	r := NewReflector()
	task := core.NewTask("", "fetch data", "http_get", nil)
	result := &core.TaskResult{
		TaskID:   task.ID,
		Success:  true,
		Output:   map[string]any{"status": 200},
		Duration: 100 * time.Millisecond,
	}

	eval := r.EvaluateTask(task, result)

	assert.True(t, eval.Success)
	assert.Equal(t, task.ID, eval.TaskID)
	assert.InDelta(t, 0.9, eval.Confidence, 0.001)
	assert.Empty(t, eval.Issues)
	assert.False(t, eval.ShouldReplan)
}

func TestEvaluateTaskFailureSetsReplanFromCategory(t *testing.T) {
	r := NewReflector()

	tests := []struct {
		name   string
		errMsg string
		replan bool
	}{
		{"timeout replans", "Connection timeout", true},
		{"permission does not replan", "permission denied", false},
		{"network replans", "connection refused by host", true},
		{"validation does not replan", "invalid argument: limit", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := core.NewTask("", "do work", "worker", nil)
			result := &core.TaskResult{TaskID: task.ID, Success: false, Error: tt.errMsg}

			eval := r.EvaluateTask(task, result)

			assert.False(t, eval.Success)
			assert.Equal(t, tt.replan, eval.ShouldReplan)
			require.NotEmpty(t, eval.Issues)
			assert.Contains(t, eval.Issues[0], tt.errMsg)
			assert.NotEmpty(t, eval.Suggestions)
		})
	}
}

func TestEvaluateTaskSlowExecutionIsIssueNotFailure(t *testing.T) {
	r := NewReflector()
	task := core.NewTask("", "crunch numbers", "compute", nil)
	task.Metadata[MetaExpectedSeconds] = 1.0
	result := &core.TaskResult{
		TaskID:   task.ID,
		Success:  true,
		Output:   "done",
		Duration: 5 * time.Second,
	}

	eval := r.EvaluateTask(task, result)

	assert.True(t, eval.Success, "slow tasks stay successful")
	require.Len(t, eval.Issues, 1)
	assert.Contains(t, eval.Issues[0], "expected around 1.0s")
	assert.Less(t, eval.Confidence, 0.9)
}

func TestEvaluateTaskEmptyOutput(t *testing.T) {
	r := NewReflector()
	task := core.NewTask("", "fetch", "http_get", nil)
	result := &core.TaskResult{TaskID: task.ID, Success: true, Output: ""}

	eval := r.EvaluateTask(task, result)

	assert.True(t, eval.Success)
	require.Len(t, eval.Issues, 1)
	assert.Contains(t, eval.Issues[0], "empty output")
}

func TestEvaluateTaskEmptyOutputCheckDisabled(t *testing.T) {
	r := NewReflector(func(o *Options) {
		o.Criteria = DefaultCriteria
		o.Criteria.CheckOutputQuality = false
	})
	task := core.NewTask("", "fetch", "http_get", nil)
	result := &core.TaskResult{TaskID: task.ID, Success: true, Output: nil}

	eval := r.EvaluateTask(task, result)
	assert.Empty(t, eval.Issues)
}

func chainPlan(n int) *core.Plan {
	tasks := make([]*core.Task, 0, n)
	var prev *core.Task
	for i := 0; i < n; i++ {
		t := core.NewTask("", "step", "noop", nil)
		if prev != nil {
			t.DependsOn(prev.ID)
		}
		tasks = append(tasks, t)
		prev = t
	}
	return core.NewPlan(core.NewGoal("chained goal"), tasks)
}

func TestEvaluatePlanBelowThreshold(t *testing.T) {
	r := NewReflector()
	p := chainPlan(3)
	for _, task := range p.Tasks {
		task.Status = core.TaskCompleted
	}
	p.Tasks[1].Status = core.TaskFailed
	results := []*core.TaskResult{
		{TaskID: p.Tasks[0].ID, Success: true, Output: "ok"},
		{TaskID: p.Tasks[1].ID, Success: false, Error: "connection refused"},
		{TaskID: p.Tasks[2].ID, Success: true, Output: "ok"},
	}

	eval := r.EvaluatePlan(p, results)

	assert.False(t, eval.Success, "2/3 is below the 0.8 threshold")
	assert.True(t, eval.ShouldReplan)
	assert.InDelta(t, 2.0/3.0, eval.Confidence, 0.001)
	require.NotEmpty(t, eval.Issues)
	assert.Contains(t, eval.Issues[0], "below the 80% threshold")
}

func TestEvaluatePlanAllSucceeded(t *testing.T) {
	r := NewReflector()
	p := chainPlan(3)
	var results []*core.TaskResult
	for _, task := range p.Tasks {
		task.Status = core.TaskCompleted
		results = append(results, &core.TaskResult{TaskID: task.ID, Success: true, Output: "ok"})
	}

	eval := r.EvaluatePlan(p, results)

	assert.True(t, eval.Success)
	assert.False(t, eval.ShouldReplan)
	assert.InDelta(t, 1.0, eval.Confidence, 0.001)
}

func TestEvaluatePlanIncompleteTasks(t *testing.T) {
	r := NewReflector()
	p := chainPlan(2)
	p.Tasks[0].Status = core.TaskCompleted
	// second task never ran
	results := []*core.TaskResult{
		{TaskID: p.Tasks[0].ID, Success: true, Output: "ok"},
	}

	eval := r.EvaluatePlan(p, results)

	assert.False(t, eval.Success)
	assert.Contains(t, eval.Issues, "1 task(s) never reached a terminal state")
}

func TestEvaluatePlanDetectsRepeatedErrors(t *testing.T) {
	r := NewReflector()
	p := chainPlan(3)
	for _, task := range p.Tasks {
		task.Status = core.TaskFailed
	}
	results := []*core.TaskResult{
		{TaskID: p.Tasks[0].ID, Success: false, Error: "connection refused"},
		{TaskID: p.Tasks[1].ID, Success: false, Error: "network unreachable"},
		{TaskID: p.Tasks[2].ID, Success: false, Error: "connection reset"},
	}

	eval := r.EvaluatePlan(p, results)

	assert.False(t, eval.Success)
	joined := ""
	for _, issue := range eval.Issues {
		joined += issue + "\n"
	}
	assert.Contains(t, joined, "Repeated network errors")
	assert.Contains(t, joined, "consecutive tasks failed")

	patterns := r.FailurePatterns()
	types := map[string]bool{}
	for _, pat := range patterns {
		types[pat.PatternType] = true
	}
	assert.True(t, types[CategoryNetwork])
	assert.True(t, types["sequential_failures"])
	assert.True(t, types["tool_failure"], "same capability failed three times")
}

func TestEvaluatePlanFlagsLongSequentialChain(t *testing.T) {
	r := NewReflector()
	p := chainPlan(5)
	var results []*core.TaskResult
	for _, task := range p.Tasks {
		task.Status = core.TaskCompleted
		results = append(results, &core.TaskResult{TaskID: task.ID, Success: true, Output: "ok"})
	}

	eval := r.EvaluatePlan(p, results)

	assert.True(t, eval.Success)
	joined := ""
	for _, issue := range eval.Issues {
		joined += issue + "\n"
	}
	assert.Contains(t, joined, "sequential chain of 5 tasks")
	assert.NotEmpty(t, eval.Suggestions)
}

func TestLearnFromEpisode(t *testing.T) {
	r := NewReflector()
	p := chainPlan(3)
	for _, task := range p.Tasks {
		task.Capability = "http_get"
		task.Status = core.TaskCompleted
	}
	p.Tasks[2].Status = core.TaskFailed
	results := []*core.TaskResult{
		{TaskID: p.Tasks[0].ID, Success: true, Output: "ok", Duration: time.Second},
		{TaskID: p.Tasks[1].ID, Success: true, Output: "ok", Duration: 2 * time.Second},
		{TaskID: p.Tasks[2].ID, Success: false, Error: "connection refused", Duration: time.Second},
	}
	ep := core.NewEpisode(p, results, false)

	insights := r.LearnFromEpisode(ep)

	byCategory := map[string][]Insight{}
	for _, in := range insights {
		byCategory[in.Category] = append(byCategory[in.Category], in)
	}

	require.Len(t, byCategory["tool_effectiveness"], 1)
	assert.Contains(t, byCategory["tool_effectiveness"][0].Description, "http_get")
	assert.InDelta(t, 2.0/3.0, byCategory["tool_effectiveness"][0].Confidence, 0.001)

	require.Len(t, byCategory["failure_mode"], 1)
	assert.Contains(t, byCategory["failure_mode"][0].Description, CategoryNetwork)

	require.Len(t, byCategory["performance"], 1)
	assert.Contains(t, byCategory["performance"][0].Description, "3 tasks")

	assert.Len(t, r.Insights("", 0), len(insights))
	assert.Len(t, r.Insights("performance", 0), 1)
	assert.Empty(t, r.Insights("tool_effectiveness", 0.9), "confidence filter applies")
}

func TestCriteriaDefaults(t *testing.T) {
	r := NewReflector()
	c := r.Criteria()
	assert.InDelta(t, 0.8, c.MinSuccessRate, 0.001)
	assert.InDelta(t, 2.0, c.MaxExecutionTimeMultiplier, 0.001)
	assert.True(t, c.RequireAllTasksComplete)
	assert.True(t, c.CheckOutputQuality)
}
