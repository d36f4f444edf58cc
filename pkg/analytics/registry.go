package analytics

import (
	"errors"
	"fmt"
	"sync"
)

// ErrProjectionExists reports an attempt to register a projection under a
// name that already has a live projection. The caller must drop first;
// silent replacement would hide a concurrent run's state.
var ErrProjectionExists = errors.New("projection already exists")

// Registry tracks live projections by name. At most one projection may
// exist under a given name at any time.
type Registry struct {
	mu          sync.Mutex
	projections map[string]*Projection
}

// NewRegistry creates an empty projection registry
func NewRegistry() *Registry {
	return &Registry{
		projections: make(map[string]*Projection),
	}
}

// Drop removes the named projection if it exists. Dropping a missing name
// is not an error; the bool reports whether anything was dropped.
func (r *Registry) Drop(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.projections[name]
	delete(r.projections, name)
	return existed
}

// Register installs a projection under its name
func (r *Registry) Register(p *Projection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.projections[p.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrProjectionExists, p.Name())
	}
	r.projections[p.Name()] = p
	return nil
}

// Get returns the named projection if it is live
func (r *Registry) Get(name string) (*Projection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, exists := r.projections[name]
	return p, exists
}
