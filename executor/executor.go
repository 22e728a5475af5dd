// Package executor runs ready tasks against the capability registry under
// timeout, retry and bounded-parallelism constraints. A task failure is
// always captured into its TaskResult; it never propagates as a
// process-level fault.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goalloop/goalloop/capability"
	"github.com/goalloop/goalloop/core"
	"github.com/goalloop/goalloop/logging"
)

// Progress event names delivered to the optional ProgressFunc.
const (
	ProgressStarted   = "started"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
	ProgressTimeout   = "timeout"
)

// ProgressFunc receives named progress events with a small data payload
// (task id, capability name). Panics raised by the callback are isolated and
// never abort execution.
type ProgressFunc func(event string, data map[string]any)

// ResourceLimits carries advisory per-task resource ceilings. They are
// consumed by logging and telemetry only; the executor does not enforce
// memory or CPU limits.
type ResourceLimits struct {
	TimeoutSeconds  float64 `json:"timeout_seconds,omitempty"`
	MemoryLimitMB   int     `json:"memory_limit_mb,omitempty"`
	CPULimitPercent float64 `json:"cpu_limit_percent,omitempty"`
}

// Options configure an Executor instance.
type Options struct {
	// Workers bounds the executor's worker pool. Every invocation path
	// (RunOne, RunMany, RunWithRetry) acquires a pool slot.
	Workers int

	// DefaultTimeout bounds a single capability invocation when the caller
	// does not substitute an explicit timeout.
	DefaultTimeout time.Duration

	// Hooks receives task lifecycle notifications. Defaults to NoOpHooks.
	Hooks core.ExecutionHooks

	// Logger receives structured execution logs. Defaults to NoOpLogger.
	Logger logging.Logger

	// Monitor records per-task metrics. A fresh Monitor is created when nil;
	// pass a shared instance to aggregate across executors.
	Monitor *Monitor

	// OnProgress receives progress events. Nil disables progress reporting.
	OnProgress ProgressFunc

	// Limits are advisory resource ceilings, logged at construction.
	Limits ResourceLimits
}

// Executor owns a bounded worker pool and executes tasks against a
// capability registry.
//
// Lifecycle: an Executor is created with New and must be released with
// Shutdown on every exit path, including early returns on structural
// failure. After Shutdown all Run* calls return failed results immediately.
type Executor struct {
	registry       *capability.Registry
	workers        int
	defaultTimeout time.Duration
	hooks          core.ExecutionHooks
	logger         logging.Logger
	monitor        *Monitor
	onProgress     ProgressFunc

	sem chan struct{}
	wg  sync.WaitGroup

	mu        sync.Mutex
	cancelled map[string]struct{}
	running   map[string]struct{}
	shutdown  bool
}

// New creates an Executor bound to a capability registry.
func New(registry *capability.Registry, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Workers:        4,
		DefaultTimeout: 30 * time.Second,
		Hooks:          core.NoOpHooks{},
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Monitor == nil {
		opts.Monitor = NewMonitor()
	}

	if opts.Limits != (ResourceLimits{}) {
		opts.Logger.Info("executor.limits.advisory",
			"timeout_seconds", opts.Limits.TimeoutSeconds,
			"memory_limit_mb", opts.Limits.MemoryLimitMB,
			"cpu_limit_percent", opts.Limits.CPULimitPercent,
		)
	}

	return &Executor{
		registry:       registry,
		workers:        opts.Workers,
		defaultTimeout: opts.DefaultTimeout,
		hooks:          opts.Hooks,
		logger:         opts.Logger,
		monitor:        opts.Monitor,
		onProgress:     opts.OnProgress,
		sem:            make(chan struct{}, opts.Workers),
		cancelled:      make(map[string]struct{}),
		running:        make(map[string]struct{}),
	}
}

// Monitor returns the executor's metrics monitor.
func (e *Executor) Monitor() *Monitor { return e.monitor }

// Cancel requests cooperative cancellation of a task. The request is honored
// at the boundaries before and after capability invocation; an in-flight
// capability call is never forcibly interrupted. Returns false when the task
// was already flagged.
func (e *Executor) Cancel(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, already := e.cancelled[taskID]; already {
		return false
	}
	e.cancelled[taskID] = struct{}{}
	return true
}

// RunningTasks returns the IDs of tasks currently executing.
func (e *Executor) RunningTasks() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.running))
	for id := range e.running {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown releases the worker pool. With wait set it blocks until all
// in-flight work has drained. Shutdown is idempotent and safe to defer on
// every orchestrator exit path.
func (e *Executor) Shutdown(wait bool) {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		if wait {
			e.wg.Wait()
		}
		return
	}
	e.shutdown = true
	e.mu.Unlock()

	if wait {
		e.wg.Wait()
	}
	e.logger.Debug("executor.shutdown", "waited", wait)
}

func (e *Executor) isCancelled(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.cancelled[taskID]
	return ok
}

// emitProgress delivers a progress event, isolating callback panics.
func (e *Executor) emitProgress(event string, task *core.Task) {
	if e.onProgress == nil {
		return
	}
	core.Notify(func() {
		e.onProgress(event, map[string]any{
			"task_id":    task.ID,
			"capability": task.Capability,
		})
	})
}

// RunOne executes a single task with the given timeout (zero substitutes the
// executor default). It never returns an error: capability failures, panics,
// timeouts and cancellations are all converted into a failed TaskResult.
func (e *Executor) RunOne(ctx context.Context, task *core.Task, timeout time.Duration) *core.TaskResult {
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	// Admission and the waitgroup increment share one critical section so
	// Shutdown's wait cannot return while an admitted task is still starting.
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		return failedResult(task, "executor is shut down", 0)
	}
	// Cancellation boundary before invocation.
	if _, cancelled := e.cancelled[task.ID]; cancelled {
		e.mu.Unlock()
		task.Status = core.TaskCancelled
		return failedResult(task, fmt.Sprintf("task %s was cancelled", task.ID), 0)
	}
	e.wg.Add(1)
	e.mu.Unlock()
	defer e.wg.Done()
	e.sem <- struct{}{}
	defer func() { <-e.sem }()

	now := time.Now()
	task.Status = core.TaskRunning
	task.StartedAt = &now
	logs := []string{fmt.Sprintf("task %s started via %s", task.ID, task.Capability)}

	e.mu.Lock()
	e.running[task.ID] = struct{}{}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.running, task.ID)
		e.mu.Unlock()
	}()

	e.monitor.Start(task)
	e.emitProgress(ProgressStarted, task)
	core.Notify(func() { e.hooks.TaskStarted(task) })

	output, err := e.invoke(ctx, task, timeout)
	duration := time.Since(now)

	// Cancellation boundary after invocation: a flag raised while the
	// capability was running overrides its outcome.
	if e.isCancelled(task.ID) {
		task.Status = core.TaskCancelled
		err = fmt.Errorf("task %s was cancelled", task.ID)
		output = nil
		logs = append(logs, "cancellation flag honored after invocation")
	}

	result := &core.TaskResult{
		TaskID:   task.ID,
		Duration: duration,
		Metadata: map[string]any{},
	}

	end := time.Now()
	task.CompletedAt = &end
	e.monitor.Stop(task.ID)

	if err != nil {
		if task.Status != core.TaskCancelled {
			task.Status = core.TaskFailed
		}
		task.Error = err.Error()
		result.Error = err.Error()
		result.Logs = append(logs, "failed: "+err.Error())
		e.logger.Error("executor.task.failed", "task_id", task.ID, "capability", task.Capability, "error", err.Error())
		e.emitProgress(ProgressFailed, task)
		core.Notify(func() { e.hooks.TaskFailed(task, result) })
		return result
	}

	task.Status = core.TaskCompleted
	task.Output = output
	result.Success = true
	result.Output = output
	result.Logs = append(logs, fmt.Sprintf("completed in %s", duration))
	e.logger.Debug("executor.task.completed", "task_id", task.ID, "capability", task.Capability, "duration", duration)
	e.emitProgress(ProgressCompleted, task)
	core.Notify(func() { e.hooks.TaskCompleted(task, result) })
	return result
}

// invoke runs the capability bounded by timeout, converting panics into
// errors. On timeout the invocation goroutine is left to finish on its own;
// the shutdown waitgroup still tracks it.
func (e *Executor) invoke(ctx context.Context, task *core.Task, timeout time.Duration) (any, error) {
	invokeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		output any
		err    error
	}
	done := make(chan outcome, 1)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("capability panicked: %v", r)}
			}
		}()
		output, err := e.registry.Invoke(invokeCtx, task.Capability, task.Parameters)
		done <- outcome{output: output, err: err}
	}()

	select {
	case out := <-done:
		return out.output, out.err
	case <-invokeCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("task %s aborted: %v", task.ID, ctx.Err())
		}
		e.emitProgress(ProgressTimeout, task)
		return nil, fmt.Errorf("task execution timeout after %s", timeout)
	}
}

// RunMany executes tasks with at most maxConcurrency running at once. The
// returned slice preserves input order regardless of completion order; a
// failing task is isolated and cannot cancel its siblings.
func (e *Executor) RunMany(ctx context.Context, tasks []*core.Task, maxConcurrency int) []*core.TaskResult {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	results := make([]*core.TaskResult, len(tasks))
	gate := make(chan struct{}, maxConcurrency)

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task *core.Task) {
			defer wg.Done()
			gate <- struct{}{}
			defer func() { <-gate }()
			results[i] = e.RunOne(ctx, task, e.defaultTimeout)
		}(i, task)
	}
	wg.Wait()

	return results
}

// RunWithRetry re-invokes RunOne up to maxRetries+1 total attempts, sleeping
// retryDelay between attempts. It returns the first success (annotated with
// the retry count when retries happened) or the last failure annotated with
// "retries" and "retry_exhausted" metadata.
func (e *Executor) RunWithRetry(ctx context.Context, task *core.Task, maxRetries int, retryDelay time.Duration) *core.TaskResult {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var result *core.TaskResult
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			e.logger.Debug("executor.task.retry", "task_id", task.ID, "attempt", attempt)
			task.Status = core.TaskPending
			select {
			case <-ctx.Done():
				return failedResult(task, fmt.Sprintf("task %s aborted: %v", task.ID, ctx.Err()), 0)
			case <-time.After(retryDelay):
			}
		}

		result = e.RunOne(ctx, task, e.defaultTimeout)
		if result.Success {
			if attempt > 0 {
				result.Metadata[core.MetaRetries] = attempt
			}
			return result
		}
		// A cancelled task is not retried.
		if task.Status == core.TaskCancelled {
			break
		}
	}

	if task.Status != core.TaskCancelled {
		result.Metadata[core.MetaRetries] = maxRetries
		result.Metadata[core.MetaRetryExhausted] = true
	}
	return result
}

func failedResult(task *core.Task, message string, duration time.Duration) *core.TaskResult {
	task.Error = message
	return &core.TaskResult{
		TaskID:   task.ID,
		Success:  false,
		Error:    message,
		Logs:     []string{message},
		Duration: duration,
		Metadata: map[string]any{},
	}
}
