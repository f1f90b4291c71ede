package crud

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps URL resource names (e.g. "users") to the Model
// handling them.
type Registry struct {
	models map[string]Model
	mutex  sync.RWMutex
}

// Global default registry instance
var defaultRegistry = NewRegistry()

// NewRegistry creates an empty model registry
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]Model)}
}

func GetDefaultRegistry() *Registry {
	return defaultRegistry
}

// Register binds a resource name to a model. Registering the same
// resource twice is a programmer error.
func (r *Registry) Register(resource string, model Model) error {
	if model == nil {
		return fmt.Errorf("cannot register nil model for resource %q", resource)
	}
	resource = strings.ToLower(strings.TrimSpace(resource))
	if resource == "" {
		return fmt.Errorf("cannot register model with empty resource name")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, exists := r.models[resource]; exists {
		return fmt.Errorf("resource %q is already registered", resource)
	}
	r.models[resource] = model
	return nil
}

// Get returns the model registered for a resource name.
func (r *Registry) Get(resource string) (Model, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	model, ok := r.models[strings.ToLower(resource)]
	return model, ok
}

// Resources lists the registered resource names, sorted.
func (r *Registry) Resources() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a model to the default registry.
func Register(resource string, model Model) error {
	return defaultRegistry.Register(resource, model)
}

// GetModel looks up a model in the default registry.
func GetModel(resource string) (Model, bool) {
	return defaultRegistry.Get(resource)
}
