// Package history provides a process-local episode archive. It implements
// core.ExecutionHooks so it can be attached to a GoalLoop and passively
// record every finished goal execution for later inspection.
package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goalloop/goalloop/core"
)

// InMemoryStore is a naive process-local episode archive. It offers:
//  1. Hook-driven capture of recorded episodes
//  2. Lookup by episode id and by goal id
//  3. Substring Search over plan and task descriptions
//
// Concurrency: protected by RWMutex. Search is a linear scan with case
// sensitive substring matching. Suitable for tests and demos; swap for a
// durable store when episodes must outlive the process.
type InMemoryStore struct {
	core.NoOpHooks

	mu       sync.RWMutex
	episodes []*core.Episode
	byID     map[string]*core.Episode
}

// NewInMemoryStore creates a new in-memory episode store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[string]*core.Episode)}
}

// EpisodeRecorded implements core.ExecutionHooks by archiving the episode.
func (s *InMemoryStore) EpisodeRecorded(ep *core.Episode) {
	if ep == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[ep.ID]; exists {
		return
	}
	s.episodes = append(s.episodes, ep)
	s.byID[ep.ID] = ep
}

// Get returns the episode with the given id.
func (s *InMemoryStore) Get(id string) (*core.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, exists := s.byID[id]
	if !exists {
		return nil, fmt.Errorf("episode not found: %s", id)
	}
	return ep, nil
}

// ByGoal returns all episodes recorded for the given goal, oldest first.
func (s *InMemoryStore) ByGoal(goalID string) []*core.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Episode
	for _, ep := range s.episodes {
		if ep.Plan != nil && ep.Plan.Goal != nil && ep.Plan.Goal.ID == goalID {
			out = append(out, ep)
		}
	}
	return out
}

// Recent returns up to n most recent episodes, newest first.
func (s *InMemoryStore) Recent(n int) []*core.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.episodes) {
		n = len(s.episodes)
	}
	out := make([]*core.Episode, 0, n)
	for i := len(s.episodes) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.episodes[i])
	}
	return out
}

// Search performs a substring match over goal and task descriptions.
// Results are returned oldest first up to the provided limit.
func (s *InMemoryStore) Search(query string, limit int) []*core.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Episode
	for _, ep := range s.episodes {
		if limit > 0 && len(out) >= limit {
			break
		}
		if query == "" || episodeMatches(ep, query) {
			out = append(out, ep)
		}
	}
	return out
}

// Len returns the number of archived episodes.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.episodes)
}

// Clear removes all archived episodes.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes = nil
	s.byID = make(map[string]*core.Episode)
}

func episodeMatches(ep *core.Episode, query string) bool {
	if ep.Plan == nil {
		return false
	}
	if ep.Plan.Goal != nil && strings.Contains(ep.Plan.Goal.Description, query) {
		return true
	}
	for _, t := range ep.Plan.Tasks {
		if strings.Contains(t.Description, query) {
			return true
		}
	}
	return false
}
