// Package planner provides orchestrator.Planner implementations: a
// model-backed planner that prompts a language model for a JSON task list,
// and a static planner with canned tasks for tests and examples.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goalloop/goalloop/capability"
	"github.com/goalloop/goalloop/core"
	"github.com/goalloop/goalloop/internal/util"
	"github.com/goalloop/goalloop/logging"
	"github.com/goalloop/goalloop/model"
	"github.com/goalloop/goalloop/orchestrator"
)

const planPromptTemplate = `Goal: {{.goal}}
{{if .constraints}}Constraints: {{.constraints}}
{{end}}{{if .context}}Context: {{.context}}
{{end}}
Available capabilities:
{{.catalog}}

Produce a JSON array of tasks. Each task:
{"id": "<short-id>", "description": "...", "capability": "<name>", "parameters": {...}, "dependencies": ["<id>", ...]}

Respond with the JSON array only.`

const revisePromptTemplate = `The plan below failed and needs revision.

Goal: {{.goal}}
Failed task: {{.failed_task}}
Error: {{.error}}
Issues: {{.issues}}
Suggestions: {{.suggestions}}

Remaining tasks to replace:
{{.pending}}

Available capabilities:
{{.catalog}}

Produce a revised JSON array of tasks covering the remaining work, same
schema as before. Respond with the JSON array only.`

const plannerInstructions = "You are a planning assistant. You decompose goals " +
	"into small executable tasks bound to the available capabilities. You only " +
	"emit valid JSON."

// taskSpec is the wire shape of one planned task.
type taskSpec struct {
	ID           string         `json:"id"`
	Description  string         `json:"description"`
	Capability   string         `json:"capability"`
	Parameters   map[string]any `json:"parameters"`
	Dependencies []string       `json:"dependencies"`
}

// ModelOptions configure a ModelPlanner.
type ModelOptions struct {
	Logger      logging.Logger
	MaxTokens   int64
	Temperature float64
}

// ModelPlanner derives task lists by prompting a language model. An
// unavailable model yields an empty plan; a revision that cannot be parsed
// yields the plan's pending tasks unchanged. Both degradations are logged,
// never fatal.
type ModelPlanner struct {
	model       model.Model
	logger      logging.Logger
	maxTokens   int64
	temperature float64
}

// NewModelPlanner creates a planner backed by the given model.
func NewModelPlanner(m model.Model, optFns ...func(o *ModelOptions)) *ModelPlanner {
	opts := ModelOptions{
		Logger:      logging.NoOpLogger{},
		MaxTokens:   4096,
		Temperature: 0.2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelPlanner{
		model:       m,
		logger:      opts.Logger,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
}

// GeneratePlan implements orchestrator.Planner.
func (p *ModelPlanner) GeneratePlan(ctx context.Context, goal *core.Goal, catalog []capability.CatalogEntry) ([]*core.Task, error) {
	prompt, err := util.RenderTemplate(planPromptTemplate, map[string]any{
		"goal":        goal.Description,
		"constraints": formatMap(goal.Constraints),
		"context":     formatMap(goal.Context),
		"catalog":     formatCatalog(catalog),
	})
	if err != nil {
		return nil, fmt.Errorf("render plan prompt: %w", err)
	}

	resp, err := p.model.Generate(ctx, model.Request{
		Instructions: plannerInstructions,
		Prompt:       prompt,
		MaxTokens:    p.maxTokens,
		Temperature:  p.temperature,
	})
	if err != nil {
		p.logger.Warn("planner.model.unavailable", "error", err.Error())
		return nil, nil
	}

	tasks, err := parseTasks(resp.Content)
	if err != nil {
		p.logger.Warn("planner.parse.failed", "error", err.Error())
		return nil, nil
	}
	p.logger.Info("planner.plan.generated", "goal_id", goal.ID, "tasks", len(tasks))
	return tasks, nil
}

// RevisePlan implements orchestrator.Planner. On model failure or
// unparseable output it returns the plan's pending tasks unchanged.
func (p *ModelPlanner) RevisePlan(ctx context.Context, plan *core.Plan, failure orchestrator.FailureContext) ([]*core.Task, error) {
	pending := pendingTasks(plan)

	failedDesc := failure.TaskID
	if t, ok := plan.Task(failure.TaskID); ok {
		failedDesc = t.Description
	}

	issues, suggestions := "", ""
	if failure.Evaluation != nil {
		issues = strings.Join(failure.Evaluation.Issues, "; ")
		suggestions = strings.Join(failure.Evaluation.Suggestions, "; ")
	}

	prompt, err := util.RenderTemplate(revisePromptTemplate, map[string]any{
		"goal":        plan.Goal.Description,
		"failed_task": failedDesc,
		"error":       failure.Error,
		"issues":      issues,
		"suggestions": suggestions,
		"pending":     formatPending(pending),
		"catalog":     "(unchanged)",
	})
	if err != nil {
		return nil, fmt.Errorf("render revise prompt: %w", err)
	}

	resp, err := p.model.Generate(ctx, model.Request{
		Instructions: plannerInstructions,
		Prompt:       prompt,
		MaxTokens:    p.maxTokens,
		Temperature:  p.temperature,
	})
	if err != nil {
		p.logger.Warn("planner.revise.unavailable", "error", err.Error())
		return pending, nil
	}

	tasks, err := parseTasks(resp.Content)
	if err != nil {
		p.logger.Warn("planner.revise.parse_failed", "error", err.Error())
		return pending, nil
	}
	p.logger.Info("planner.plan.revised", "plan_id", plan.ID, "tasks", len(tasks))
	return tasks, nil
}

// parseTasks decodes a JSON task array, tolerating a markdown code fence
// around the payload. Planner-local ids in the "id"/"dependencies" fields
// are rewritten to generated task ids with dependencies remapped.
func parseTasks(content string) ([]*core.Task, error) {
	payload := stripFence(content)

	var specs []taskSpec
	if err := json.Unmarshal([]byte(payload), &specs); err != nil {
		return nil, fmt.Errorf("decode task array: %w", err)
	}

	idMap := make(map[string]string, len(specs))
	tasks := make([]*core.Task, 0, len(specs))
	for _, spec := range specs {
		if spec.Description == "" || spec.Capability == "" {
			return nil, fmt.Errorf("task missing description or capability")
		}
		t := core.NewTask("", spec.Description, spec.Capability, spec.Parameters)
		if spec.ID != "" {
			idMap[spec.ID] = t.ID
		}
		tasks = append(tasks, t)
	}
	for i, spec := range specs {
		for _, dep := range spec.Dependencies {
			mapped, ok := idMap[dep]
			if !ok {
				return nil, fmt.Errorf("dependency %q references unknown task id", dep)
			}
			tasks[i].DependsOn(mapped)
		}
	}
	return tasks, nil
}

// stripFence removes a surrounding markdown code fence, if present.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func pendingTasks(plan *core.Plan) []*core.Task {
	var pending []*core.Task
	for _, t := range plan.Tasks {
		if !t.Status.Terminal() {
			pending = append(pending, t)
		}
	}
	return pending
}

func formatCatalog(catalog []capability.CatalogEntry) string {
	if len(catalog) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, entry := range catalog {
		fmt.Fprintf(&sb, "- %s: %s\n", entry.Name, entry.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatPending(tasks []*core.Task) string {
	if len(tasks) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&sb, "- %s (%s)\n", t.Description, t.Capability)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatMap(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
