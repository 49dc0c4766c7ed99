// Package registry provides a generic, thread-safe registry for reference
// data that is loaded once and read often (currencies, providers).
package registry

import (
	"sync"
)

// Meta represents generic metadata that can be associated with any entity.
type Meta struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Active   bool              `json:"active"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Registry is a generic, thread-safe registry for managing any type of entity.
type Registry struct {
	entities map[string]Meta
	mu       sync.RWMutex
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		entities: make(map[string]Meta),
	}
}

// Register adds or updates an entity in the registry.
func (r *Registry) Register(id string, meta Meta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta.ID = id
	r.entities[id] = meta
}

// Get returns entity metadata for the given ID.
// Returns an inactive empty Meta if the entity is not found.
func (r *Registry) Get(id string) Meta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if meta, exists := r.entities[id]; exists {
		return meta
	}
	return Meta{ID: id, Active: false}
}

// IsRegistered checks if an entity ID is registered.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.entities[id]
	return exists
}

// ListRegistered returns a list of all registered entity IDs.
func (r *Registry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	return ids
}

// Unregister removes an entity from the registry.
// Returns true if the entity existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.entities[id]
	delete(r.entities, id)
	return exists
}

// Count returns the total number of registered entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
