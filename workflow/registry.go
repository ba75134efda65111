package workflow

import "sync"

// ActionType describes a registered action type: whether the engine can run
// it, and which execution defaults the parser must resolve for it.
type ActionType struct {
	// Name is the root tag of the action configuration document.
	Name string
	// RequiresEndpointDefaults marks types that cannot run without the
	// storage and compute endpoint addresses resolved.
	RequiresEndpointDefaults bool
	// SupportsSharedConfig marks types that inherit the shared
	// configuration and job-xml references from the global section.
	SupportsSharedConfig bool
}

// Registry answers which action types the execution engine supports.
// The zero value is not usable; create one with NewRegistry. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]ActionType
}

// NewRegistry returns an empty action-type registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]ActionType)}
}

// Register adds or replaces an action type.
func (r *Registry) Register(at ActionType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[at.Name] = at
}

// Lookup returns the registered action type and whether it exists.
func (r *Registry) Lookup(name string) (ActionType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.types[name]
	return at, ok
}

// Supported reports whether the action type is registered.
func (r *Registry) Supported(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}
