package executor

import (
	"sync"
	"time"

	"github.com/goalloop/goalloop/core"
)

// Checkpoint is a named moment recorded during a task's execution.
type Checkpoint struct {
	Name string         `json:"name"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

// Metrics captures timing information for one task execution.
type Metrics struct {
	TaskID      string        `json:"task_id"`
	StartTime   *time.Time    `json:"start_time,omitempty"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Duration    time.Duration `json:"duration"`
	Checkpoints []Checkpoint  `json:"checkpoints,omitempty"`
}

// snapshot returns a detached copy with a cloned Checkpoints slice. Workers
// keep mutating the stored record, so callers only ever see copies.
func (m *Metrics) snapshot() Metrics {
	s := *m
	s.Checkpoints = append([]Checkpoint(nil), m.Checkpoints...)
	return s
}

// Stats aggregates counters across all monitored tasks.
type Stats struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Running   int `json:"running"`
}

// Monitor records per-task execution metrics. It is written from concurrent
// workers and read from the caller, so every accessor takes the internal
// mutex and returns detached Metrics copies rather than live records.
// Monitors are explicitly constructed instances with the lifecycle of their
// executor; there is no process-wide monitor.
type Monitor struct {
	mu      sync.Mutex
	metrics map[string]*Metrics
	running map[string]*core.Task
	stats   Stats
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		metrics: make(map[string]*Metrics),
		running: make(map[string]*core.Task),
	}
}

// Start begins monitoring a task, recording its start timestamp.
func (m *Monitor) Start(task *core.Task) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	metrics := &Metrics{TaskID: task.ID, StartTime: &now}
	m.metrics[task.ID] = metrics
	m.running[task.ID] = task
	m.stats.Started++
	s := metrics.snapshot()
	return &s
}

// Stop finalizes monitoring for a task, deriving its duration. Returns the
// final metrics, or nil when the task was never started.
func (m *Monitor) Stop(taskID string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.metrics[taskID]
	if !ok {
		return nil
	}
	now := time.Now()
	metrics.EndTime = &now
	if metrics.StartTime != nil {
		metrics.Duration = now.Sub(*metrics.StartTime)
	}
	delete(m.running, taskID)
	m.stats.Completed++
	s := metrics.snapshot()
	return &s
}

// Checkpoint appends a named checkpoint to a task's metrics. Unknown task
// IDs are ignored.
func (m *Monitor) Checkpoint(taskID, name string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.metrics[taskID]
	if !ok {
		return
	}
	metrics.Checkpoints = append(metrics.Checkpoints, Checkpoint{Name: name, At: time.Now(), Data: data})
}

// Get returns a copy of the metrics recorded for a task.
func (m *Monitor) Get(taskID string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	metrics, ok := m.metrics[taskID]
	if !ok {
		return Metrics{}, false
	}
	return metrics.snapshot(), true
}

// All returns copies of the metrics for every monitored task.
func (m *Monitor) All() []Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Metrics, 0, len(m.metrics))
	for _, metrics := range m.metrics {
		out = append(out, metrics.snapshot())
	}
	return out
}

// IsRunning reports whether a task is currently being monitored.
func (m *Monitor) IsRunning(taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.running[taskID]
	return ok
}

// RunningTasks returns the tasks currently under monitoring.
func (m *Monitor) RunningTasks() []*core.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*core.Task, 0, len(m.running))
	for _, t := range m.running {
		out = append(out, t)
	}
	return out
}

// Clear removes the metrics recorded for a task.
func (m *Monitor) Clear(taskID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.metrics, taskID)
	delete(m.running, taskID)
}

// Stats returns a snapshot of aggregate counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Running = len(m.running)
	return s
}
