// Package vectorstore provides the VectorStore façade drivers: an in-memory
// embedded store and a Qdrant-backed store, behind a shared registry.
package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/rs/zerolog/log"
)

// Registry holds named VectorStore drivers. Thread-safe.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]contracts.VectorStore
}

// NewRegistry creates an empty vector store registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]contracts.VectorStore)}
}

// Register adds a driver under the given name. Overwrites if it exists.
func (r *Registry) Register(name string, driver contracts.VectorStore) {
	r.mu.Lock()
	r.drivers[name] = driver
	r.mu.Unlock()
	log.Info().Str("name", name).Str("kind", driver.Kind()).Msg("vector store driver registered")
}

// Get returns the driver by name, or an error if not found.
func (r *Registry) Get(name string) (contracts.VectorStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[name]
	if !ok {
		return nil, fmt.Errorf("vector store driver not found: %s", name)
	}
	return d, nil
}

// List returns all registered driver names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	return names
}

// HealthCheckAll pings every registered driver's backend via GetStats.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	snapshot := make(map[string]contracts.VectorStore, len(r.drivers))
	for k, v := range r.drivers {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	results := make(map[string]error, len(snapshot))
	for name, driver := range snapshot {
		_, err := driver.GetStats(ctx)
		results[name] = err
	}
	return results
}
