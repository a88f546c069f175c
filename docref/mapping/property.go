// Package mapping holds the read-only association metadata the resolution
// engine consumes. The engine never mutates a descriptor; callers with
// their own metadata model implement Property directly.
package mapping

// DefaultLookup is the filter template used when an association declares
// none explicitly: identifier equality against the reference value itself.
const DefaultLookup = "{ '_id' : ?0 }"

// DocumentReference describes a filter-template association: a query
// template plus optional database/collection/sort expressions.
// Empty expression strings mean "derive a default at resolution time".
type DocumentReference struct {
	Database   string
	Collection string
	Sort       string
	Lookup     string
	Lazy       bool
}

// LookupOrDefault returns the configured filter template, falling back to
// identifier equality.
func (r DocumentReference) LookupOrDefault() string {
	if r.Lookup == "" {
		return DefaultLookup
	}
	return r.Lookup
}

// DBRef marks a legacy identifier reference. Target location comes from
// hints embedded in the stored value, not from templates.
type DBRef struct {
	Lazy bool
}

// Property is the association field descriptor consumed by the engine.
type Property interface {
	Name() string
	IsCollectionLike() bool
	IsMap() bool

	// TargetCollection is the configured default collection of the target
	// entity, used whenever nothing more specific is derivable.
	TargetCollection() string

	DocumentReference() (DocumentReference, bool)
	DBRef() (DBRef, bool)
}

// Descriptor is a plain Property implementation for callers without their
// own metadata model.
type Descriptor struct {
	PropertyName   string
	CollectionLike bool
	MapLike        bool
	TargetEntity   string

	Registry  *Registry
	Reference *DocumentReference
	Legacy    *DBRef
}

func (d Descriptor) Name() string {
	return d.PropertyName
}

func (d Descriptor) IsCollectionLike() bool {
	return d.CollectionLike
}

func (d Descriptor) IsMap() bool {
	return d.MapLike
}

func (d Descriptor) TargetCollection() string {
	if d.Registry != nil {
		return d.Registry.Collection(d.TargetEntity)
	}
	return fallbackCollection(d.TargetEntity)
}

func (d Descriptor) DocumentReference() (DocumentReference, bool) {
	if d.Reference == nil {
		return DocumentReference{}, false
	}
	return *d.Reference, true
}

func (d Descriptor) DBRef() (DBRef, bool) {
	if d.Legacy == nil {
		return DBRef{}, false
	}
	return *d.Legacy, true
}
