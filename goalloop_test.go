package goalloop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalloop/goalloop/capability"
	"github.com/goalloop/goalloop/core"
	"github.com/goalloop/goalloop/planner"
)

func TestExecuteRunsStaticPlan(t *testing.T) {
	p := planner.NewStatic(func(*core.Goal) []*core.Task {
		greet := core.NewTask("", "say hello", "greet", map[string]any{"name": "world"})
		return []*core.Task{greet}
	})

	loop := New(p)
	loop.RegisterCapability(capability.NewFunc("greet", "greets someone", nil,
		func(_ context.Context, params map[string]any) (any, error) {
			name, _ := params["name"].(string)
			return "hello " + name, nil
		}))

	result, err := loop.Execute(context.Background(), "greet the world")

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "hello world", result.Results[0].Output)
	assert.Equal(t, "greet the world", result.Goal.Description)
}

func TestManualAutonomyThroughFacade(t *testing.T) {
	p := planner.NewStatic(func(*core.Goal) []*core.Task {
		return []*core.Task{core.NewTask("", "risky step", "noop", nil)}
	})

	loop := New(p, func(o *Options) {
		o.Config.Autonomy = core.AutonomyManual
	})

	result, err := loop.Execute(context.Background(), "needs a human")

	require.NoError(t, err)
	assert.True(t, result.AwaitingApproval)
	assert.Empty(t, result.Results)
}

func TestRegistryAndReflectorAccessors(t *testing.T) {
	p := planner.NewStatic(func(*core.Goal) []*core.Task { return nil })
	loop := New(p)

	loop.RegisterCapability(capability.NewFunc("noop", "does nothing", nil,
		func(context.Context, map[string]any) (any, error) { return nil, nil }))

	assert.Contains(t, loop.Registry().Names(), "noop")
	assert.NotNil(t, loop.Reflector())
}
