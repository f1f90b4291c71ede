package models

import "github.com/bitechdev/AdminSpec/pkg/crud"

// All returns one instance of every entity, in migration order.
func All() []any {
	return []any{&User{}, &Role{}, &Address{}}
}

// RegisterAll binds every entity to its resource name in the registry.
func RegisterAll(registry *crud.Registry) error {
	for resource, model := range map[string]crud.Model{
		"users":     &User{},
		"roles":     &Role{},
		"addresses": &Address{},
	} {
		if err := registry.Register(resource, model); err != nil {
			return err
		}
	}
	return nil
}
