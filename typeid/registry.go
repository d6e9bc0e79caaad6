package typeid

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry is a bidirectional mapping between reflect.Types and stable
// string ids. Ids are what the "__type" discriminator carries on the wire,
// so they must stay stable across releases of the registering code.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]reflect.Type
	byType map[reflect.Type]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   map[string]reflect.Type{},
		byType: map[reflect.Type]string{},
	}
}

// Register associates t with id. Re-registering the same pair is a no-op;
// conflicting re-registrations return an error rather than silently
// remapping a wire id.
func (r *Registry) Register(t reflect.Type, id string) error {
	if t == nil || id == "" {
		return fmt.Errorf("typeid: register requires a type and a non-empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byID[id]; ok && prev != t {
		return fmt.Errorf("typeid: id %q already registered for %s", id, prev)
	}
	if prev, ok := r.byType[t]; ok && prev != id {
		return fmt.Errorf("typeid: type %s already registered as %q", t, prev)
	}
	r.byID[id] = t
	r.byType[t] = id
	return nil
}

// TypeOf resolves an id to its registered type.
func (r *Registry) TypeOf(id string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

// IDOf resolves a type to its registered id.
func (r *Registry) IDOf(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byType[t]
	return id, ok
}

// Entry is a single (type, id) association in a registry snapshot.
type Entry struct {
	Type reflect.Type
	ID   string
}

// Entries returns a snapshot for diagnostics. Order is unspecified.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.byID))
	for id, t := range r.byID {
		out = append(out, Entry{Type: t, ID: id})
	}
	return out
}

// Count returns the number of registered associations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Reset clears the registry. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = map[string]reflect.Type{}
	r.byType = map[reflect.Type]string{}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry. Containers record every
// registered mapper's (type, id) pair here so discriminators resolve even
// before the decoding container has seen the mapper through a link.
func DefaultRegistry() *Registry { return defaultRegistry }
