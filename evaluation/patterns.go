package evaluation

import (
	"fmt"

	"github.com/goalloop/goalloop/core"
)

// Insight is a learned observation extracted from a completed episode.
// Categories: tool_effectiveness, failure_mode, performance.
type Insight struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// LearnFromEpisode mines a finished episode for reusable insights:
// capability effectiveness rates, dominant failure modes and plan-level
// performance observations. Returned insights are also retained on the
// reflector for later inspection via Insights.
func (r *Reflector) LearnFromEpisode(ep *core.Episode) []Insight {
	var learned []Insight

	// Per-capability effectiveness across the episode's results.
	type capStats struct{ total, ok int }
	stats := map[string]*capStats{}
	for _, res := range ep.Results {
		task, ok := ep.Plan.Task(res.TaskID)
		if !ok {
			continue
		}
		s := stats[task.Capability]
		if s == nil {
			s = &capStats{}
			stats[task.Capability] = s
		}
		s.total++
		if res.Success {
			s.ok++
		}
	}
	for capName, s := range stats {
		if s.total < 2 {
			continue
		}
		rate := float64(s.ok) / float64(s.total)
		learned = append(learned, Insight{
			Category: "tool_effectiveness",
			Description: fmt.Sprintf("capability %s succeeded %d/%d times (%.0f%%)",
				capName, s.ok, s.total, rate*100),
			Confidence: rate,
		})
	}

	// Dominant failure mode.
	categories := map[string]int{}
	failures := 0
	for _, res := range ep.Results {
		if res.Success {
			continue
		}
		failures++
		categories[classifyError(res.Error).name]++
	}
	if failures > 0 {
		dominant, count := "", 0
		for name, c := range categories {
			if c > count {
				dominant, count = name, c
			}
		}
		learned = append(learned, Insight{
			Category: "failure_mode",
			Description: fmt.Sprintf("%s errors caused %d of %d failures",
				dominant, count, failures),
			Confidence: float64(count) / float64(failures),
		})
	}

	// Plan-level performance.
	if len(ep.Results) > 0 {
		total := 0.0
		for _, res := range ep.Results {
			total += res.Duration.Seconds()
		}
		learned = append(learned, Insight{
			Category: "performance",
			Description: fmt.Sprintf("plan executed %d tasks in %.1fs total task time",
				len(ep.Results), total),
			Confidence: 0.8,
		})
	}

	r.mu.Lock()
	r.insights = append(r.insights, learned...)
	r.mu.Unlock()

	r.logger.Debug("reflector.episode.learned",
		"plan_id", ep.Plan.ID, "insights", len(learned))
	return learned
}

// Insights returns learned insights filtered by category and minimum
// confidence. An empty category matches every insight.
func (r *Reflector) Insights(category string, minConfidence float64) []Insight {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Insight
	for _, in := range r.insights {
		if category != "" && in.Category != category {
			continue
		}
		if in.Confidence < minConfidence {
			continue
		}
		out = append(out, in)
	}
	return out
}
