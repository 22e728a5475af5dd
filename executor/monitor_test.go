package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalloop/goalloop/core"
)

func TestMonitorStartStop(t *testing.T) {
	m := NewMonitor()
	task := newTask("t1", "test.cap", nil)

	metrics := m.Start(task)
	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.StartTime)
	assert.True(t, m.IsRunning("t1"))

	time.Sleep(10 * time.Millisecond)

	final := m.Stop("t1")
	require.NotNil(t, final)
	assert.NotNil(t, final.EndTime)
	assert.GreaterOrEqual(t, final.Duration, 10*time.Millisecond)
	assert.False(t, m.IsRunning("t1"))
}

func TestMonitorStopUnknownTask(t *testing.T) {
	m := NewMonitor()
	assert.Nil(t, m.Stop("ghost"))
}

func TestMonitorCheckpoints(t *testing.T) {
	m := NewMonitor()
	m.Start(newTask("t1", "test.cap", nil))

	m.Checkpoint("t1", "fetch", map[string]any{"step": 1})
	m.Checkpoint("t1", "parse", map[string]any{"step": 2})
	m.Checkpoint("ghost", "ignored", nil)

	metrics, ok := m.Get("t1")
	require.True(t, ok)
	require.Len(t, metrics.Checkpoints, 2)
	assert.Equal(t, "fetch", metrics.Checkpoints[0].Name)
	assert.Equal(t, 2, metrics.Checkpoints[1].Data["step"])
}

func TestMonitorRunningTasks(t *testing.T) {
	m := NewMonitor()
	t1 := newTask("t1", "test.cap", nil)
	t2 := newTask("t2", "test.cap", nil)
	m.Start(t1)
	m.Start(t2)

	running := m.RunningTasks()
	assert.Len(t, running, 2)

	m.Stop("t1")
	assert.Len(t, m.RunningTasks(), 1)
}

func TestMonitorClear(t *testing.T) {
	m := NewMonitor()
	m.Start(newTask("t1", "test.cap", nil))
	m.Stop("t1")

	m.Clear("t1")
	_, ok := m.Get("t1")
	assert.False(t, ok)
}

func TestMonitorStats(t *testing.T) {
	m := NewMonitor()
	m.Start(newTask("t1", "test.cap", nil))
	m.Start(newTask("t2", "test.cap", nil))
	m.Stop("t1")

	stats := m.Stats()
	assert.Equal(t, 2, stats.Started)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Running)
}

func TestMonitorGetReturnsDetachedCopy(t *testing.T) {
	m := NewMonitor()
	m.Start(newTask("t1", "test.cap", nil))
	m.Checkpoint("t1", "first", nil)

	before, ok := m.Get("t1")
	require.True(t, ok)

	m.Checkpoint("t1", "second", nil)
	m.Stop("t1")

	assert.Len(t, before.Checkpoints, 1)
	assert.Nil(t, before.EndTime)
}

func TestMonitorReadWhileTaskRunning(t *testing.T) {
	e := New(testRegistry())
	defer e.Shutdown(true)

	task := newTask("t1", "test.cap", map[string]any{"sleep": 50 * time.Millisecond})
	done := make(chan *core.TaskResult, 1)
	go func() { done <- e.RunOne(context.Background(), task, 0) }()

	deadline := time.After(2 * time.Second)
	for {
		if metrics, ok := e.Monitor().Get("t1"); ok {
			_ = metrics.Duration
			_ = len(metrics.Checkpoints)
		}
		for _, metrics := range e.Monitor().All() {
			_ = metrics.EndTime
		}

		select {
		case result := <-done:
			require.True(t, result.Success)
			metrics, ok := e.Monitor().Get("t1")
			require.True(t, ok)
			assert.NotNil(t, metrics.EndTime)
			return
		case <-deadline:
			t.Fatal("task did not finish")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestExecutorRecordsMetrics(t *testing.T) {
	e := New(testRegistry())
	defer e.Shutdown(true)

	task := newTask("t1", "test.cap", map[string]any{"sleep": 10 * time.Millisecond})
	result := e.RunOne(context.Background(), task, 0)
	require.True(t, result.Success)

	metrics, ok := e.Monitor().Get("t1")
	require.True(t, ok)
	assert.Equal(t, "t1", metrics.TaskID)
	assert.Greater(t, metrics.Duration, time.Duration(0))
	assert.Len(t, e.Monitor().All(), 1)
	assert.Equal(t, core.TaskCompleted, task.Status)
}
