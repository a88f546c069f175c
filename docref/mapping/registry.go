package mapping

import "strings"

// Registry maps target entity names to their configured default collection.
// Unregistered entities fall back to the lowercased entity name.
type Registry struct {
	collections map[string]string
}

func NewRegistry() *Registry {
	return &Registry{collections: map[string]string{}}
}

func (r *Registry) Register(entity, collection string) *Registry {
	r.collections[entity] = collection
	return r
}

func (r *Registry) Collection(entity string) string {
	if collection, ok := r.collections[entity]; ok {
		return collection
	}
	return fallbackCollection(entity)
}

func fallbackCollection(entity string) string {
	return strings.ToLower(entity)
}
