package collector

import (
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/checksignal/internal/core"
)

type named interface {
	Name() string
}

// set holds collectors of one kind by name.
type set[T named] struct {
	kind  string
	mu    sync.RWMutex
	items map[string]T
}

func newSet[T named](kind string) *set[T] {
	return &set[T]{kind: kind, items: make(map[string]T)}
}

// Register adds c under its name, replacing any previous entry.
func (s *set[T]) Register(c T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c.Name()] = c
}

// Get retrieves a collector by name.
func (s *set[T]) Get(name string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[name]
	return c, ok
}

// Lookup is Get with a configuration error for unknown names.
func (s *set[T]) Lookup(name string) (T, error) {
	c, ok := s.Get(name)
	if !ok {
		return c, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("no %s collector named %q (have %v)", s.kind, name, s.Names()))
	}
	return c, nil
}

// Names returns the registered names in order.
func (s *set[T]) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.items))
	for name := range s.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns the registered collectors ordered by name.
func (s *set[T]) GetAll() []T {
	names := s.Names()

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]T, 0, len(names))
	for _, name := range names {
		if c, ok := s.items[name]; ok {
			result = append(result, c)
		}
	}
	return result
}

// Registry manages price collectors by name
type Registry struct {
	*set[Collector]
}

// NewRegistry creates a new price collector registry
func NewRegistry() *Registry {
	return &Registry{newSet[Collector]("price")}
}
