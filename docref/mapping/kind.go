package mapping

// Kind is the reference variant of a property, resolved once per descriptor
// instead of re-testing the stored value's type on every lookup:
// {legacy, templated} x {single, multi}.
type Kind int

const (
	KindLegacySingle Kind = iota
	KindLegacyMulti
	KindTemplatedSingle
	KindTemplatedMulti
)

func (k Kind) IsTemplated() bool {
	return k == KindTemplatedSingle || k == KindTemplatedMulti
}

func (k Kind) IsMulti() bool {
	return k == KindLegacyMulti || k == KindTemplatedMulti
}

func (k Kind) String() string {
	switch k {
	case KindLegacySingle:
		return "legacy/single"
	case KindLegacyMulti:
		return "legacy/multi"
	case KindTemplatedSingle:
		return "templated/single"
	case KindTemplatedMulti:
		return "templated/multi"
	}
	return "unknown"
}

// KindOf classifies a property. A property without a filter template is a
// legacy identifier reference.
func KindOf(p Property) Kind {
	_, templated := p.DocumentReference()
	multi := p.IsCollectionLike() || p.IsMap()
	switch {
	case templated && multi:
		return KindTemplatedMulti
	case templated:
		return KindTemplatedSingle
	case multi:
		return KindLegacyMulti
	default:
		return KindLegacySingle
	}
}

// IsLazy reports whether the association defers resolution to first access,
// from whichever reference kind is in use.
func IsLazy(p Property) bool {
	if ref, ok := p.DocumentReference(); ok {
		return ref.Lazy
	}
	if dbref, ok := p.DBRef(); ok {
		return dbref.Lazy
	}
	return false
}
