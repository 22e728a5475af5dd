// Package core defines the shared data model of the goal execution engine:
// goals, plans, tasks, per-task results, evaluations and episodes, together
// with the hook interface used to notify external observers of lifecycle
// transitions. All other packages depend on core; core depends on nothing
// inside the module.
package core
