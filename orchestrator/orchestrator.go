// Package orchestrator drives the goal-to-result pipeline: request a plan,
// validate it, gate on the configured autonomy level, execute ready-task
// waves with bounded concurrency, evaluate failures, replan when warranted
// and assemble the final report.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goalloop/goalloop/capability"
	"github.com/goalloop/goalloop/core"
	"github.com/goalloop/goalloop/evaluation"
	"github.com/goalloop/goalloop/executor"
	"github.com/goalloop/goalloop/logging"
	"github.com/goalloop/goalloop/plan"
)

// ErrPlanStuck reports a plan whose remaining tasks can never become ready
// because a dependency failed or was cancelled. It is terminal for the goal.
var ErrPlanStuck = errors.New("plan stuck: no ready tasks and plan not complete")

// Planner generates and revises task lists for a goal. Implementations live
// outside the engine; the orchestrator only consumes this interface.
type Planner interface {
	// GeneratePlan derives tasks for the goal given the available
	// capability catalog.
	GeneratePlan(ctx context.Context, goal *core.Goal, catalog []capability.CatalogEntry) ([]*core.Task, error)

	// RevisePlan produces a replacement task list for the plan's pending
	// tasks after a qualifying failure. Returning an empty list means the
	// planner has no revision to offer.
	RevisePlan(ctx context.Context, p *core.Plan, failure FailureContext) ([]*core.Task, error)
}

// FailureContext is handed to the planner when requesting a plan revision.
type FailureContext struct {
	// TaskID identifies the failed task.
	TaskID string `json:"task_id"`

	// Error is the failure message from the task result.
	Error string `json:"error"`

	// Evaluation is the reflector's judgment of the failure.
	Evaluation *core.Evaluation `json:"evaluation"`
}

// Config is the orchestrator's execution configuration.
type Config struct {
	// MaxConcurrentTasks bounds one wave's parallelism and sizes the
	// executor's worker pool.
	MaxConcurrentTasks int

	// TaskTimeout bounds each capability invocation.
	TaskTimeout time.Duration

	// MaxReplans caps plan revisions per goal execution.
	MaxReplans int

	// MaxRetries re-invokes a failed task before its failure is surfaced
	// to the evaluator. Zero disables retrying.
	MaxRetries int

	// RetryDelay is the pause between retry attempts.
	RetryDelay time.Duration

	// Autonomy gates execution. AutonomyManual returns the generated plan
	// for approval without running any task.
	Autonomy core.AutonomyLevel

	// Limits are advisory resource ceilings forwarded to the executor.
	Limits executor.ResourceLimits
}

// DefaultConfig returns the baseline orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentTasks: 4,
		TaskTimeout:        30 * time.Second,
		MaxReplans:         2,
		MaxRetries:         0,
		RetryDelay:         time.Second,
		Autonomy:           core.AutonomySupervised,
	}
}

// GoalResult is the structured report returned for every goal execution,
// including failed ones.
type GoalResult struct {
	// Goal is the goal that was executed.
	Goal *core.Goal `json:"goal"`

	// Plan is the final plan, including any applied revisions.
	Plan *core.Plan `json:"plan"`

	// Results are the per-task results in completion-wave order.
	Results []*core.TaskResult `json:"results"`

	// Evaluations are the per-task judgments produced for failed tasks.
	Evaluations []*core.Evaluation `json:"evaluations,omitempty"`

	// Success is true iff every executed task succeeded.
	Success bool `json:"success"`

	// Replans counts the plan revisions applied.
	Replans int `json:"replans"`

	// AwaitingApproval is set when the autonomy gate blocked execution.
	// Results is empty in that case.
	AwaitingApproval bool `json:"awaiting_approval,omitempty"`
}

// Options configure an Orchestrator.
type Options struct {
	Config     Config
	Hooks      core.ExecutionHooks
	Logger     logging.Logger
	Reflector  *evaluation.Reflector
	OnProgress executor.ProgressFunc
}

// Orchestrator executes goals against a capability registry using an
// external planner. The control loop is single threaded; only task waves
// run in parallel.
type Orchestrator struct {
	planner    Planner
	registry   *capability.Registry
	reflector  *evaluation.Reflector
	config     Config
	hooks      core.ExecutionHooks
	logger     logging.Logger
	onProgress executor.ProgressFunc
}

// New creates an Orchestrator. The planner and registry are required; all
// other collaborators default to no-op implementations.
func New(planner Planner, registry *capability.Registry, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Config: DefaultConfig(),
		Hooks:  core.NoOpHooks{},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Reflector == nil {
		opts.Reflector = evaluation.NewReflector()
	}
	if opts.Config.MaxConcurrentTasks < 1 {
		opts.Config.MaxConcurrentTasks = 1
	}
	return &Orchestrator{
		planner:    planner,
		registry:   registry,
		reflector:  opts.Reflector,
		config:     opts.Config,
		hooks:      opts.Hooks,
		logger:     opts.Logger,
		onProgress: opts.OnProgress,
	}
}

// Config returns the orchestrator's configuration.
func (o *Orchestrator) Config() Config { return o.config }

// ExecuteGoal runs the full goal pipeline and returns a structured report.
// A non-nil error is reserved for structural conditions (plan generation
// failure, invalid graph, stuck plan, context cancellation); individual task
// failures are reported inside the result instead.
func (o *Orchestrator) ExecuteGoal(ctx context.Context, goal *core.Goal) (*GoalResult, error) {
	o.logger.Info("orchestrator.goal.start",
		"goal_id", goal.ID, "description", goal.Description, "autonomy", o.config.Autonomy.String())

	tasks, err := o.planner.GeneratePlan(ctx, goal, o.registry.Catalog())
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}

	p := core.NewPlan(goal, tasks)
	graph := plan.New(p)
	if err := graph.Validate(); err != nil {
		now := time.Now()
		p.Status = core.PlanFailed
		p.CompletedAt = &now
		return nil, fmt.Errorf("validate plan: %w", err)
	}
	core.Notify(func() { o.hooks.PlanCreated(p) })

	if o.config.Autonomy == core.AutonomyManual {
		o.logger.Info("orchestrator.goal.awaiting_approval", "goal_id", goal.ID, "plan_id", p.ID)
		return &GoalResult{
			Goal:             goal,
			Plan:             p,
			Results:          []*core.TaskResult{},
			AwaitingApproval: true,
		}, nil
	}

	approved := time.Now()
	p.Status = core.PlanApproved
	p.ApprovedAt = &approved
	return o.executePlan(ctx, goal, graph)
}

// executePlan runs the wave loop over a validated, approved plan graph.
func (o *Orchestrator) executePlan(ctx context.Context, goal *core.Goal, graph *plan.Graph) (*GoalResult, error) {
	p := graph.Plan()
	started := time.Now()
	p.Status = core.PlanExecuting
	p.StartedAt = &started

	exec := executor.New(o.registry, func(eo *executor.Options) {
		eo.Workers = o.config.MaxConcurrentTasks
		eo.DefaultTimeout = o.config.TaskTimeout
		eo.Hooks = o.hooks
		eo.Logger = o.logger
		eo.OnProgress = o.onProgress
		eo.Limits = o.config.Limits
	})
	defer exec.Shutdown(true)

	result := &GoalResult{Goal: goal, Plan: p}
	var loopErr error

loop:
	for {
		if err := ctx.Err(); err != nil {
			p.Status = core.PlanCancelled
			loopErr = err
			break
		}

		ready := graph.ReadyTasks()
		if len(ready) == 0 {
			if graph.AllDone() {
				break
			}
			p.Status = core.PlanFailed
			loopErr = ErrPlanStuck
			break
		}

		waveResults := o.runWave(ctx, exec, ready)
		result.Results = append(result.Results, waveResults...)

		for i, res := range waveResults {
			if res.Success {
				continue
			}
			task := ready[i]
			eval := o.reflector.EvaluateTask(task, res)
			result.Evaluations = append(result.Evaluations, eval)

			if !eval.ShouldReplan || result.Replans >= o.config.MaxReplans {
				o.logger.Debug("orchestrator.failure.stands",
					"task_id", task.ID, "should_replan", eval.ShouldReplan, "replans", result.Replans)
				continue
			}
			if o.replan(ctx, graph, task, res, eval) {
				result.Replans++
				continue loop
			}
		}
	}

	success := loopErr == nil && len(result.Results) > 0
	for _, res := range result.Results {
		if !res.Success {
			success = false
			break
		}
	}
	result.Success = success

	if loopErr == nil {
		if success {
			p.Status = core.PlanCompleted
		} else {
			p.Status = core.PlanFailed
		}
	}
	ended := time.Now()
	p.CompletedAt = &ended

	episode := core.NewEpisode(p, result.Results, success)
	core.Notify(func() { o.hooks.EpisodeRecorded(episode) })
	o.reflector.LearnFromEpisode(episode)

	planEval := o.reflector.EvaluatePlan(p, result.Results)
	core.Notify(func() { o.hooks.PlanEvaluated(p, planEval) })

	o.logger.Info("orchestrator.goal.done",
		"goal_id", goal.ID, "plan_id", p.ID, "success", success,
		"results", len(result.Results), "replans", result.Replans)
	return result, loopErr
}

// runWave executes one batch of ready tasks. Output order matches input
// order regardless of completion order.
func (o *Orchestrator) runWave(ctx context.Context, exec *executor.Executor, wave []*core.Task) []*core.TaskResult {
	o.logger.Debug("orchestrator.wave.start", "tasks", len(wave))

	if o.config.MaxRetries <= 0 {
		return exec.RunMany(ctx, wave, o.config.MaxConcurrentTasks)
	}

	// Retry-wrapped waves run each task through the executor's retry
	// wrapper; the worker pool still bounds actual parallelism.
	results := make([]*core.TaskResult, len(wave))
	var wg sync.WaitGroup
	for i, task := range wave {
		wg.Add(1)
		go func(i int, task *core.Task) {
			defer wg.Done()
			results[i] = exec.RunWithRetry(ctx, task, o.config.MaxRetries, o.config.RetryDelay)
		}(i, task)
	}
	wg.Wait()
	return results
}

// replan asks the planner for a revision and applies it to the graph.
// Returns true when a revision was applied.
func (o *Orchestrator) replan(ctx context.Context, graph *plan.Graph, task *core.Task, res *core.TaskResult, eval *core.Evaluation) bool {
	failure := FailureContext{TaskID: task.ID, Error: res.Error, Evaluation: eval}

	revised, err := o.planner.RevisePlan(ctx, graph.Plan(), failure)
	if err != nil {
		o.logger.Warn("orchestrator.replan.error", "task_id", task.ID, "error", err.Error())
		return false
	}
	if len(revised) == 0 {
		o.logger.Debug("orchestrator.replan.empty", "task_id", task.ID)
		return false
	}

	if err := graph.ApplyRevision(revised); err != nil {
		o.logger.Warn("orchestrator.replan.invalid", "task_id", task.ID, "error", err.Error())
		return false
	}

	o.logger.Info("orchestrator.replan.applied",
		"task_id", task.ID, "revised_tasks", len(revised))
	return true
}
