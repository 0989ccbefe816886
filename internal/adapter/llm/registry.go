package llm

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"shellmate/internal/domain"
)

// Registry maps llm.provider names to command generators. initLLM fills it
// once at startup; doctor and the unknown-provider error read it back.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]domain.CommandGenerator
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{generators: make(map[string]domain.CommandGenerator)}
}

// Register adds g under its Name. A name can be registered once.
func (r *Registry) Register(g domain.CommandGenerator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := g.Name()
	if _, taken := r.generators[name]; taken {
		return fmt.Errorf("generator %q already registered", name)
	}
	r.generators[name] = g
	return nil
}

// Get returns the generator registered as name. The error for an unknown
// name wraps domain.ErrGeneratorNotFound and lists the registered names.
func (r *Registry) Get(name string) (domain.CommandGenerator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if g, ok := r.generators[name]; ok {
		return g, nil
	}
	return nil, fmt.Errorf("%w: %q (available: %s)",
		domain.ErrGeneratorNotFound, name, strings.Join(r.sortedNames(), ", "))
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

// sortedNames requires r.mu held.
func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
