package core

import (
	"fmt"
	"sort"
	"sync"
)

var globalRegistry = NewRegistry()

// Registry maps source types to their prototypes.
type Registry struct {
	prototypes map[string]Source
	mu         sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{prototypes: make(map[string]Source)}
}

// RegisterSourcePrototype lets sources register themselves during init().
func RegisterSourcePrototype(sourceType string, prototype Source) {
	globalRegistry.Register(sourceType, prototype)
}

// GetGlobalRegistry returns the registry populated by init() registrations.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds or replaces a prototype.
func (r *Registry) Register(sourceType string, prototype Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prototypes[sourceType] = prototype
}

// Prototype returns the prototype for sourceType.
func (r *Registry) Prototype(sourceType string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prototypes[sourceType]
	if !ok {
		return nil, fmt.Errorf("unknown source type %q (available: %v)", sourceType, r.typesLocked())
	}
	return p, nil
}

// CreateSource instantiates a source of sourceType with an already typed
// config (see Source.ConfigType).
func (r *Registry) CreateSource(sourceType string, config any) (Source, error) {
	prototype, err := r.Prototype(sourceType)
	if err != nil {
		return nil, err
	}
	src, err := prototype.Factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating %s source: %w", sourceType, err)
	}
	return src, nil
}

// Types lists registered source types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typesLocked()
}

func (r *Registry) typesLocked() []string {
	types := make([]string, 0, len(r.prototypes))
	for t := range r.prototypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
