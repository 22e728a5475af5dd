package capability

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// CatalogEntry is the planner-facing description of one registered
// capability.
type CatalogEntry struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Registry is a thread-safe catalog of capabilities. Registration normally
// happens during setup; lookups and invocations run concurrently from
// executor workers.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{capabilities: make(map[string]Capability)}
}

// Register adds a capability by its name. Registering the same name twice
// replaces the earlier entry.
func (r *Registry) Register(c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.capabilities[c.Name()] = c
}

// Get retrieves a capability by name.
func (r *Registry) Get(name string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capabilities[name]
	return c, ok
}

// Names returns the sorted list of registered capability names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog returns planner-facing entries for every registered capability,
// sorted by name.
func (r *Registry) Catalog() []CatalogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]CatalogEntry, 0, len(r.capabilities))
	for _, c := range r.capabilities {
		entries = append(entries, CatalogEntry{
			Name:        c.Name(),
			Description: c.Description(),
			Parameters:  c.Parameters(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Invoke looks up and invokes a capability by name. An unknown name yields a
// *CapabilityError with code NOT_FOUND so the evaluator can classify it.
func (r *Registry) Invoke(ctx context.Context, name string, params map[string]any) (any, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, &CapabilityError{
			Capability: name,
			Message:    fmt.Sprintf("capability not found: %s", name),
			Code:       CodeNotFound,
		}
	}
	return c.Invoke(ctx, params)
}
