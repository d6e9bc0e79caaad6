package mappable

import (
	"reflect"
	"slices"
	"sync"

	"github.com/mappable-go/mappable/typeid"
)

// TypeKey is the reserved object key carrying the polymorphic discriminator.
const TypeKey = "__type"

// Container owns a mapper set, links to other containers, and the resolution
// caches. A container resolves from its own mapper set first, then
// transitively from all linked containers. The link graph may contain cycles;
// every graph walk carries a visited set and terminates.
//
// All operations are safe for concurrent use; mutation (Use, Unuse, Link)
// takes the write lock, lookups take read locks per container.
type Container struct {
	mu       sync.RWMutex
	mappers  map[reflect.Type]Mapper
	order    []reflect.Type // registration order, drives IsFor scanning
	children []*Container
	parents  []*Container

	valueCache map[reflect.Type]Mapper
	typeCache  map[reflect.Type]Mapper
}

// NewContainer returns a container holding the given mappers, implicitly
// linked to the default root so built-in primitive and collection types
// always resolve.
func NewContainer(mappers ...Mapper) *Container {
	c := newBareContainer()
	c.Link(Default())
	c.UseAll(mappers...)
	return c
}

func newBareContainer() *Container {
	return &Container{
		mappers:    map[reflect.Type]Mapper{},
		valueCache: map[reflect.Type]Mapper{},
		typeCache:  map[reflect.Type]Mapper{},
	}
}

var (
	defaultOnce sync.Once
	defaultRoot *Container
	globalOnce  sync.Once
	globalUpper *Container
)

// Default returns the well-known root container pre-populated with mappers
// for the built-in primitive and collection types. Every container created
// through NewContainer links to it.
func Default() *Container {
	defaultOnce.Do(func() {
		defaultRoot = newBareContainer()
		defaultRoot.UseAll(builtinMappers()...)
	})
	return defaultRoot
}

// Global returns the well-known container that holds no mappers of its own;
// generated mappers register into it at init time so any container can link
// it to gain access to every known domain mapper.
func Global() *Container {
	globalOnce.Do(func() {
		globalUpper = newBareContainer()
		globalUpper.Link(Default())
	})
	return globalUpper
}

// ---- registration ----

// Use inserts m, replacing any previous mapper for the same base type, and
// invalidates the resolution caches here and in every ancestor. The mapper's
// (type, id) pair is also recorded in the default typeid registry so its
// discriminator resolves process-wide.
func (c *Container) Use(m Mapper) {
	if m == nil {
		return
	}
	t := m.Type()
	c.mu.Lock()
	if _, exists := c.mappers[t]; !exists {
		c.order = append(c.order, t)
	}
	c.mappers[t] = m
	c.mu.Unlock()
	// Best effort: a conflicting id keeps its first registration.
	_ = typeid.DefaultRegistry().Register(t, m.ID())
	c.invalidate()
}

// UseAll registers every mapper in order.
func (c *Container) UseAll(mappers ...Mapper) {
	for _, m := range mappers {
		c.Use(m)
	}
}

// Unuse removes and returns the mapper registered for T's base type in this
// container, or nil when none is registered here. Inherited mappers are not
// touched.
func Unuse[T any](c *Container) Mapper {
	return c.unuse(reflect.TypeFor[T]())
}

func (c *Container) unuse(t reflect.Type) Mapper {
	c.mu.Lock()
	m, ok := c.mappers[t]
	if ok {
		delete(c.mappers, t)
		c.order = slices.DeleteFunc(c.order, func(o reflect.Type) bool { return o == t })
	}
	c.mu.Unlock()
	if !ok {
		return nil
	}
	c.invalidate()
	return m
}

// Get returns the mapper that would decode T, consulting own and inherited
// sets, or nil when T is unmapped.
func Get[T any](c *Container) Mapper {
	m, _ := c.mapperForType(reflect.TypeFor[T]())
	return m
}

// GetAll returns this container's own mappers in registration order.
func (c *Container) GetAll() []Mapper {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Mapper, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.mappers[t])
	}
	return out
}

// ---- linking ----

// Link adds other as a fallback resolution source. Linking is idempotent and
// records the inverse edge so cache invalidation can propagate back.
func (c *Container) Link(other *Container) {
	if other == nil || other == c {
		return
	}
	c.mu.Lock()
	if slices.Contains(c.children, other) {
		c.mu.Unlock()
		return
	}
	c.children = append(c.children, other)
	c.mu.Unlock()

	other.mu.Lock()
	if !slices.Contains(other.parents, c) {
		other.parents = append(other.parents, c)
	}
	other.mu.Unlock()

	c.invalidate()
}

// LinkAll links every container in order.
func (c *Container) LinkAll(others ...*Container) {
	for _, o := range others {
		c.Link(o)
	}
}

// Unlink removes a previously established link. It reuses the same
// invalidation walk as Link; unlinking a container that was never linked is
// a no-op.
func (c *Container) Unlink(other *Container) {
	if other == nil {
		return
	}
	c.mu.Lock()
	n := len(c.children)
	c.children = slices.DeleteFunc(c.children, func(o *Container) bool { return o == other })
	removed := len(c.children) != n
	c.mu.Unlock()
	if !removed {
		return
	}
	other.mu.Lock()
	other.parents = slices.DeleteFunc(other.parents, func(o *Container) bool { return o == c })
	other.mu.Unlock()

	c.invalidate()
}

// ---- cache invalidation ----

// invalidate clears this container's caches and recursively every ancestor's,
// guarded against link cycles.
func (c *Container) invalidate() {
	c.invalidateWalk(map[*Container]struct{}{})
}

func (c *Container) invalidateWalk(visited map[*Container]struct{}) {
	if _, ok := visited[c]; ok {
		return
	}
	visited[c] = struct{}{}
	c.mu.Lock()
	clear(c.valueCache)
	clear(c.typeCache)
	parents := slices.Clone(c.parents)
	c.mu.Unlock()
	for _, p := range parents {
		p.invalidateWalk(visited)
	}
}

// ---- resolution ----

// mapperForValue resolves a mapper for a concrete value: own exact match,
// own IsFor in registration order, inherited exact match, inherited IsFor.
// The result is refined through SubOrSelfFor and cached by base type.
func (c *Container) mapperForValue(v any) (Mapper, bool) {
	t := typeid.BaseOf(v)
	if t == nil {
		return nil, false
	}
	c.mu.RLock()
	m, hit := c.valueCache[t]
	c.mu.RUnlock()
	if hit {
		return m, true
	}

	m = c.resolveValue(v, t)
	if m == nil {
		return nil, false
	}
	if r, ok := m.(Refinable); ok {
		if sub := r.SubOrSelfFor(v); sub != nil {
			m = sub
		}
	}
	c.mu.Lock()
	c.valueCache[t] = m
	c.mu.Unlock()
	return m, true
}

func (c *Container) resolveValue(v any, t reflect.Type) Mapper {
	c.mu.RLock()
	if m, ok := c.mappers[t]; ok {
		c.mu.RUnlock()
		return m
	}
	for _, rt := range c.order {
		if m := c.mappers[rt]; m.IsFor(v) {
			c.mu.RUnlock()
			return m
		}
	}
	c.mu.RUnlock()

	inherited := c.inheritedMappers()
	for _, m := range inherited {
		if m.Type() == t {
			return m
		}
	}
	for _, m := range inherited {
		if m.IsFor(v) {
			return m
		}
	}
	return nil
}

// mapperForType resolves a mapper for a decode target: exact base-type
// matches only, own set before inherited. There is no value to test IsFor
// against, so no predicate step applies.
func (c *Container) mapperForType(t reflect.Type) (Mapper, bool) {
	if t == nil {
		return nil, false
	}
	c.mu.RLock()
	if m, ok := c.typeCache[t]; ok {
		c.mu.RUnlock()
		return m, true
	}
	m, own := c.mappers[t]
	c.mu.RUnlock()
	if !own {
		for _, im := range c.inheritedMappers() {
			if im.Type() == t {
				m = im
				break
			}
		}
	}
	if m == nil {
		return nil, false
	}
	c.mu.Lock()
	c.typeCache[t] = m
	c.mu.Unlock()
	return m, true
}

// inheritedMappers aggregates the mapper sets of all linked containers,
// transitively and cycle-guarded. Own entries shadow duplicates from
// descendants; among descendants, link order then registration order wins.
func (c *Container) inheritedMappers() []Mapper {
	visited := map[*Container]struct{}{c: {}}
	seen := map[reflect.Type]struct{}{}
	c.mu.RLock()
	for _, t := range c.order {
		seen[t] = struct{}{}
	}
	children := slices.Clone(c.children)
	c.mu.RUnlock()

	var out []Mapper
	for _, ch := range children {
		out = ch.appendMappers(visited, seen, out)
	}
	return out
}

func (c *Container) appendMappers(visited map[*Container]struct{}, seen map[reflect.Type]struct{}, out []Mapper) []Mapper {
	if _, ok := visited[c]; ok {
		return out
	}
	visited[c] = struct{}{}
	c.mu.RLock()
	for _, t := range c.order {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, c.mappers[t])
	}
	children := slices.Clone(c.children)
	c.mu.RUnlock()
	for _, ch := range children {
		out = ch.appendMappers(visited, seen, out)
	}
	return out
}

// typeOf resolves a discriminator id to a concrete type: mapper ids within
// this container's closure first (so federation is respected), then the
// process-wide typeid registry.
func (c *Container) typeOf(id string) (reflect.Type, bool) {
	c.mu.RLock()
	for _, t := range c.order {
		if c.mappers[t].ID() == id {
			c.mu.RUnlock()
			return t, true
		}
	}
	c.mu.RUnlock()
	for _, m := range c.inheritedMappers() {
		if m.ID() == id {
			return m.Type(), true
		}
	}
	return typeid.DefaultRegistry().TypeOf(id)
}

// ---- equality / hash / stringify dispatch ----

// IsEqual compares two values through the mapper resolved for a. Unmapped
// types fall back to native equality instead of erroring.
func (c *Container) IsEqual(a, b any) (bool, error) {
	m, ok := c.mapperForValue(a)
	if ok {
		if eq, can := m.(EqualityMapper); can {
			res, err := eq.Equals(a, b, MappingContext{container: c})
			return res, chain(MethodEquals, func() string { return nativeString(a) }, err)
		}
	}
	return nativeEqual(a, b), nil
}

// Hash hashes a value through the mapper resolved for it, falling back to the
// native structural hash for unmapped types.
func (c *Container) Hash(v any) (uint64, error) {
	m, ok := c.mapperForValue(v)
	if ok {
		if h, can := m.(HashMapper); can {
			res, err := h.Hash(v, MappingContext{container: c})
			return res, chain(MethodHash, func() string { return nativeString(v) }, err)
		}
	}
	return nativeHash(v), nil
}

// AsString renders a value through the mapper resolved for it, falling back
// to the native string conversion for unmapped types.
func (c *Container) AsString(v any) (string, error) {
	m, ok := c.mapperForValue(v)
	if ok {
		if s, can := m.(StringifyMapper); can {
			res, err := s.Stringify(v, MappingContext{container: c})
			return res, chain(MethodStringify, func() string { return nativeString(v) }, err)
		}
	}
	return nativeString(v), nil
}
