// Package evaluation turns raw task and plan outcomes into actionable
// judgments: per-task error classification with replan eligibility, plan
// level success-rate scoring, structural failure-pattern detection and
// episode-level learning. The reflector never mutates the tasks, plans or
// results it inspects.
package evaluation

import (
	"fmt"
	"sync"

	"github.com/goalloop/goalloop/core"
	"github.com/goalloop/goalloop/logging"
)

// Criteria configure what the reflector considers a successful outcome.
type Criteria struct {
	// MinSuccessRate is the minimum fraction of successful tasks for a
	// plan to evaluate as successful.
	MinSuccessRate float64

	// MaxExecutionTimeMultiplier flags tasks whose duration exceeds this
	// multiple of their expected time (task metadata
	// "expected_time_seconds"). Slow tasks become issues, not failures.
	MaxExecutionTimeMultiplier float64

	// RequireAllTasksComplete counts non-terminal tasks as issues during
	// plan evaluation.
	RequireAllTasksComplete bool

	// CheckOutputQuality enables output heuristics (empty output detection)
	// for successful tasks.
	CheckOutputQuality bool
}

// DefaultCriteria are the baseline evaluation thresholds.
var DefaultCriteria = Criteria{
	MinSuccessRate:             0.8,
	MaxExecutionTimeMultiplier: 2.0,
	RequireAllTasksComplete:    true,
	CheckOutputQuality:         true,
}

// MetaExpectedSeconds is the task metadata key holding the planner's
// expected execution time in seconds.
const MetaExpectedSeconds = "expected_time_seconds"

// FailurePattern is a recurring failure shape detected across a plan's
// results: repeated error categories or a capability that keeps failing.
type FailurePattern struct {
	PatternType string `json:"pattern_type"`
	Description string `json:"description"`
	Occurrences int    `json:"occurrences"`
}

// Options configure a Reflector.
type Options struct {
	Criteria Criteria
	Logger   logging.Logger
}

// Reflector evaluates task and plan outcomes against configured criteria.
// Evaluations themselves are pure functions of inputs plus criteria; the
// reflector additionally accumulates detected failure patterns and insights
// for later inspection, guarded by an internal mutex.
type Reflector struct {
	criteria Criteria
	logger   logging.Logger

	mu       sync.Mutex
	patterns map[string]*FailurePattern
	insights []Insight
}

// NewReflector creates a reflector with the given criteria (defaults when
// unset).
func NewReflector(optFns ...func(o *Options)) *Reflector {
	opts := Options{
		Criteria: DefaultCriteria,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reflector{
		criteria: opts.Criteria,
		logger:   opts.Logger,
		patterns: make(map[string]*FailurePattern),
	}
}

// Criteria returns the configured evaluation criteria.
func (r *Reflector) Criteria() Criteria { return r.criteria }

// EvaluateTask judges a single task outcome. Success mirrors the result's
// success flag; failures are classified into an error category whose table
// determines the suggested fix and replan eligibility.
func (r *Reflector) EvaluateTask(task *core.Task, result *core.TaskResult) *core.Evaluation {
	eval := &core.Evaluation{TaskID: task.ID}

	if !result.Success {
		cat := classifyError(result.Error)
		eval.Success = false
		eval.Confidence = 0.2
		eval.Issues = append(eval.Issues,
			fmt.Sprintf("Task failed: %s", result.Error),
			fmt.Sprintf("Detected %s error", cat.name),
		)
		eval.Suggestions = append(eval.Suggestions, cat.suggestion)
		eval.ShouldReplan = cat.replan

		r.logger.Debug("reflector.task.evaluated",
			"task_id", task.ID, "category", cat.name, "should_replan", cat.replan)
		return eval
	}

	eval.Success = true
	eval.Confidence = 0.9

	if expected, ok := expectedSeconds(task); ok && r.criteria.MaxExecutionTimeMultiplier > 0 {
		actual := result.Duration.Seconds()
		if actual > expected*r.criteria.MaxExecutionTimeMultiplier {
			eval.Issues = append(eval.Issues,
				fmt.Sprintf("Task took %.1fs, expected around %.1fs", actual, expected))
			eval.Suggestions = append(eval.Suggestions,
				"Split the task or raise its expected execution time")
			eval.Confidence = 0.6
		}
	}

	if r.criteria.CheckOutputQuality && emptyOutput(result.Output) {
		eval.Issues = append(eval.Issues, "Task succeeded but produced empty output")
		eval.Suggestions = append(eval.Suggestions, "Verify the capability returns a useful payload")
		eval.Confidence = 0.7
	}

	return eval
}

// EvaluatePlan judges a whole plan execution from its ordered results. The
// evaluation reports the success rate against the configured threshold and
// surfaces structural failure patterns (repeated error categories,
// consecutive failures, capability-specific failures, long sequential
// chains).
func (r *Reflector) EvaluatePlan(p *core.Plan, results []*core.TaskResult) *core.Evaluation {
	eval := &core.Evaluation{PlanID: p.ID}

	total := len(results)
	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
		}
	}

	rate := 1.0
	if total > 0 {
		rate = float64(succeeded) / float64(total)
	}

	eval.Success = rate >= r.criteria.MinSuccessRate
	eval.Confidence = rate

	if !eval.Success {
		eval.Issues = append(eval.Issues,
			fmt.Sprintf("Success rate %.0f%% below the %.0f%% threshold",
				rate*100, r.criteria.MinSuccessRate*100))
		eval.Suggestions = append(eval.Suggestions, "Revise the plan around the failed tasks")
		eval.ShouldReplan = true
	}

	if r.criteria.RequireAllTasksComplete {
		incomplete := 0
		for _, t := range p.Tasks {
			if !t.Status.Terminal() {
				incomplete++
			}
		}
		if incomplete > 0 {
			eval.Success = false
			eval.Issues = append(eval.Issues,
				fmt.Sprintf("%d task(s) never reached a terminal state", incomplete))
		}
	}

	r.detectFailurePatterns(p, results, eval)
	r.detectSequentialChain(p, eval)

	r.logger.Debug("reflector.plan.evaluated",
		"plan_id", p.ID, "success", eval.Success, "rate", rate, "issues", len(eval.Issues))
	return eval
}

// detectFailurePatterns records repeated error categories, capability
// specific failures and consecutive failing tasks.
func (r *Reflector) detectFailurePatterns(p *core.Plan, results []*core.TaskResult, eval *core.Evaluation) {
	categories := map[string]int{}
	capFailures := map[string]int{}

	for _, res := range results {
		if res.Success {
			continue
		}
		cat := classifyError(res.Error)
		categories[cat.name]++
		if task, ok := p.Task(res.TaskID); ok {
			capFailures[task.Capability]++
		}
	}

	for name, count := range categories {
		if count < 2 {
			continue
		}
		eval.Issues = append(eval.Issues,
			fmt.Sprintf("Repeated %s errors across %d tasks", name, count))
		eval.Suggestions = append(eval.Suggestions,
			fmt.Sprintf("Address the shared cause of the %s failures before retrying", name))
		r.recordPattern(name, fmt.Sprintf("repeated %s errors", name), count)
	}

	for capName, count := range capFailures {
		if count < 2 {
			continue
		}
		r.recordPattern("tool_failure",
			fmt.Sprintf("capability %s failed %d times", capName, count), count)
	}

	// Consecutive failures in declaration order.
	streak, maxStreak := 0, 0
	byTask := make(map[string]*core.TaskResult, len(results))
	for _, res := range results {
		byTask[res.TaskID] = res
	}
	for _, t := range p.Tasks {
		res, ok := byTask[t.ID]
		if ok && !res.Success {
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		} else {
			streak = 0
		}
	}
	if maxStreak >= 2 {
		eval.Issues = append(eval.Issues,
			fmt.Sprintf("%d consecutive tasks failed in sequence", maxStreak))
		eval.Suggestions = append(eval.Suggestions,
			"Check whether an early failure cascaded into its successors")
		r.recordPattern("sequential_failures",
			fmt.Sprintf("%d consecutive task failures", maxStreak), maxStreak)
	}
}

// detectSequentialChain flags long strictly linear plans; independent steps
// forced into a chain waste the executor's parallelism.
func (r *Reflector) detectSequentialChain(p *core.Plan, eval *core.Evaluation) {
	if len(p.Tasks) < 5 {
		return
	}
	for i, t := range p.Tasks {
		if i == 0 {
			if len(t.Dependencies) != 0 {
				return
			}
			continue
		}
		if len(t.Dependencies) != 1 || t.Dependencies[0] != p.Tasks[i-1].ID {
			return
		}
	}
	eval.Issues = append(eval.Issues,
		fmt.Sprintf("Plan is a sequential chain of %d tasks", len(p.Tasks)))
	eval.Suggestions = append(eval.Suggestions,
		"Parallelize independent tasks instead of chaining them")
}

func (r *Reflector) recordPattern(patternType, description string, occurrences int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := patternType + "|" + description
	if p, ok := r.patterns[key]; ok {
		if occurrences > p.Occurrences {
			p.Occurrences = occurrences
		}
		return
	}
	r.patterns[key] = &FailurePattern{
		PatternType: patternType,
		Description: description,
		Occurrences: occurrences,
	}
}

// FailurePatterns returns all patterns detected so far.
func (r *Reflector) FailurePatterns() []*FailurePattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*FailurePattern, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, p)
	}
	return out
}

func expectedSeconds(task *core.Task) (float64, bool) {
	v, ok := task.Metadata[MetaExpectedSeconds]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func emptyOutput(output any) bool {
	switch v := output.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}
