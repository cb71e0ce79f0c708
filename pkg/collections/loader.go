package collections

import (
	"plugin"
	"sort"
	"sync"

	"github.com/mkulik-rh/rpm/pkg/errors"
)

// Symbols is an in-process module: a fixed symbol table
type Symbols map[string]interface{}

func (s Symbols) Lookup(symbol string) (interface{}, error) {
	v, ok := s[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "symbol %s not found", symbol)
	}
	return v, nil
}

func (s Symbols) Close() error { return nil }

// ModuleFactory creates a fresh module instance for one hook call
type ModuleFactory func() (Module, error)

// Registry is a Loader serving modules registered in process under a path
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ModuleFactory
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ModuleFactory)}
}

// Register adds a module factory under path
func (r *Registry) Register(path string, factory ModuleFactory) error {
	if path == "" {
		return errors.New(errors.ErrInvalidInput, "module path cannot be empty")
	}
	if factory == nil {
		return errors.Newf(errors.ErrInvalidInput, "module %s has no factory", path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[path]; exists {
		return errors.Newf(errors.ErrAlreadyExists, "module '%s' is already registered", path)
	}
	r.factories[path] = factory
	return nil
}

// RegisterSymbols registers a fixed symbol table under path
func (r *Registry) RegisterSymbols(path string, symbols Symbols) error {
	return r.Register(path, func() (Module, error) { return symbols, nil })
}

// Has reports whether path is registered
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[path]
	return exists
}

// List returns the registered paths in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.factories))
	for path := range r.factories {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Open creates the module registered under path
func (r *Registry) Open(path string) (Module, error) {
	r.mu.RLock()
	factory, exists := r.factories[path]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrNotFound, "module '%s' not found in registry", path)
	}
	return factory()
}

// PluginLoader opens Go plugins built with -buildmode=plugin
type PluginLoader struct{}

type pluginModule struct {
	p *plugin.Plugin
}

func (PluginLoader) Open(path string) (Module, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &pluginModule{p: p}, nil
}

func (m *pluginModule) Lookup(symbol string) (interface{}, error) {
	return m.p.Lookup(symbol)
}

// Close drops the handle. The Go runtime never unmaps a plugin.
func (m *pluginModule) Close() error {
	m.p = nil
	return nil
}

// Chain returns a Loader trying each loader in turn
func Chain(loaders ...Loader) Loader {
	return chain(loaders)
}

type chain []Loader

func (c chain) Open(path string) (Module, error) {
	var last error = errors.Newf(errors.ErrNotFound, "no loader for module %s", path)
	for _, l := range c {
		mod, err := l.Open(path)
		if err == nil {
			return mod, nil
		}
		last = err
	}
	return nil, last
}
