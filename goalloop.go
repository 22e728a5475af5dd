// Package goalloop provides a high-level façade over the goal execution
// engine (planning, DAG validation, bounded-concurrency execution, outcome
// evaluation and replanning). Most applications interact with this package
// by:
//  1. Creating a GoalLoop via New() with a planner (model-backed or static)
//  2. Registering one or more capabilities (functions or custom types)
//  3. Executing goals with ExecuteGoal
//
// The façade delegates the control loop to orchestrator.Orchestrator while
// keeping setup and usage ergonomics concise. All defaults are safe for
// local development and testing; production deployments typically supply a
// structured logger and lifecycle hooks.
package goalloop

import (
	"context"

	"github.com/goalloop/goalloop/capability"
	"github.com/goalloop/goalloop/core"
	"github.com/goalloop/goalloop/evaluation"
	"github.com/goalloop/goalloop/executor"
	"github.com/goalloop/goalloop/logging"
	"github.com/goalloop/goalloop/orchestrator"
)

// Options configures the GoalLoop instance.
type Options struct {
	// Config is the orchestrator configuration (concurrency, timeouts,
	// replan and retry budgets, autonomy level).
	Config orchestrator.Config

	// Criteria are the reflector's evaluation thresholds.
	Criteria evaluation.Criteria

	// Hooks receives lifecycle notifications (plan created, task started/
	// completed/failed, plan evaluated, episode recorded). Defaults to
	// NoOpHooks.
	Hooks core.ExecutionHooks

	// OnProgress receives per-task progress events. Nil disables progress
	// reporting.
	OnProgress executor.ProgressFunc

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// GoalLoop is the high-level façade aggregating the capability registry,
// the reflector and the orchestrator.
type GoalLoop struct {
	opts      Options
	registry  *capability.Registry
	reflector *evaluation.Reflector
	orch      *orchestrator.Orchestrator
}

// New creates a GoalLoop with optional overrides. The planner is required;
// everything else defaults to a safe local setup.
func New(planner orchestrator.Planner, optFns ...func(o *Options)) *GoalLoop {
	opts := Options{
		Config:   orchestrator.DefaultConfig(),
		Criteria: evaluation.DefaultCriteria,
		Hooks:    core.NoOpHooks{},
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := capability.NewRegistry()
	reflector := evaluation.NewReflector(func(o *evaluation.Options) {
		o.Criteria = opts.Criteria
		o.Logger = opts.Logger
	})
	orch := orchestrator.New(planner, registry, func(o *orchestrator.Options) {
		o.Config = opts.Config
		o.Hooks = opts.Hooks
		o.Logger = opts.Logger
		o.Reflector = reflector
		o.OnProgress = opts.OnProgress
	})

	return &GoalLoop{
		opts:      opts,
		registry:  registry,
		reflector: reflector,
		orch:      orch,
	}
}

// RegisterCapability adds a capability to the registry. Later registrations
// under the same name replace earlier ones.
func (g *GoalLoop) RegisterCapability(c capability.Capability) { g.registry.Register(c) }

// Registry exposes the underlying capability registry.
func (g *GoalLoop) Registry() *capability.Registry { return g.registry }

// Reflector exposes the underlying reflector, including accumulated failure
// patterns and insights.
func (g *GoalLoop) Reflector() *evaluation.Reflector { return g.reflector }

// ExecuteGoal runs the full goal pipeline: plan, validate, gate, execute,
// evaluate and replan as needed.
func (g *GoalLoop) ExecuteGoal(ctx context.Context, goal *core.Goal) (*orchestrator.GoalResult, error) {
	return g.orch.ExecuteGoal(ctx, goal)
}

// Execute is a convenience that wraps a description into a Goal and runs it.
func (g *GoalLoop) Execute(ctx context.Context, description string) (*orchestrator.GoalResult, error) {
	return g.orch.ExecuteGoal(ctx, core.NewGoal(description))
}
