package core

// ExecutionHooks receives fire-and-forget notifications at lifecycle
// transition points. Implementations are external observers (plugin
// dispatchers, loggers, persistence layers); the engine never depends on
// their behavior. A hook that panics is isolated by Notify and cannot affect
// task outcomes.
type ExecutionHooks interface {
	// PlanCreated fires after a plan has been generated and validated.
	PlanCreated(plan *Plan)

	// TaskStarted fires immediately before a capability invocation.
	TaskStarted(task *Task)

	// TaskCompleted fires after a task finished successfully.
	TaskCompleted(task *Task, result *TaskResult)

	// TaskFailed fires after a task finished with an error.
	TaskFailed(task *Task, result *TaskResult)

	// PlanEvaluated fires after the whole-plan evaluation on loop exit.
	PlanEvaluated(plan *Plan, evaluation *Evaluation)

	// EpisodeRecorded fires once per goal execution with the final episode.
	EpisodeRecorded(episode *Episode)
}

// NoOpHooks discards all notifications. Useful as a default and in tests.
type NoOpHooks struct{}

// PlanCreated implements ExecutionHooks.
func (NoOpHooks) PlanCreated(*Plan) {}

// TaskStarted implements ExecutionHooks.
func (NoOpHooks) TaskStarted(*Task) {}

// TaskCompleted implements ExecutionHooks.
func (NoOpHooks) TaskCompleted(*Task, *TaskResult) {}

// TaskFailed implements ExecutionHooks.
func (NoOpHooks) TaskFailed(*Task, *TaskResult) {}

// PlanEvaluated implements ExecutionHooks.
func (NoOpHooks) PlanEvaluated(*Plan, *Evaluation) {}

// EpisodeRecorded implements ExecutionHooks.
func (NoOpHooks) EpisodeRecorded(*Episode) {}

// Notify invokes fn and swallows any panic it raises. Every hook dispatch in
// the engine goes through this wrapper so misbehaving sink consumers cannot
// propagate failures back into execution.
func Notify(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
