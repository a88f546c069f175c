package reference

import (
	"context"

	json "github.com/goccy/go-json"

	"github.com/krew-solutions/docref-go/docref/option"
)

// ResolveThunk is the captured resolution pass of a deferred association.
type ResolveThunk func(ctx context.Context) (any, error)

// Association is the stand-in returned for lazy associations: either
// already Resolved or Deferred behind a thunk. The first Get runs the thunk
// exactly once and caches the outcome — value or error — for the lifetime
// of the instance; every later access passes through the cache.
//
// IsResolved and identity comparisons never trigger resolution.
//
// Not safe for concurrent first access from multiple goroutines: the
// resolved cell is single-assignment without synchronization. Callers
// sharing an unresolved association across goroutines must synchronize
// externally.
type Association struct {
	thunk ResolveThunk
	value option.Option[any]
	err   error
}

// ResolvedAssociation wraps an eagerly resolved value.
func ResolvedAssociation(value any) *Association {
	return &Association{value: option.Some(value)}
}

// DeferredAssociation defers resolution until the first Get.
func DeferredAssociation(thunk ResolveThunk) *Association {
	return &Association{thunk: thunk}
}

// IsResolved reports whether a resolution pass has completed, successfully
// or not, without triggering one.
func (a *Association) IsResolved() bool {
	return a.value.IsSome() || a.err != nil
}

// Get returns the resolved value, resolving on first call. A nil resolved
// value is cached like any other; a failed resolution is cached too and
// returns the same error on every subsequent access.
func (a *Association) Get(ctx context.Context) (any, error) {
	if a.value.IsSome() {
		return a.value.Unwrap(), nil
	}
	if a.err != nil {
		return nil, a.err
	}

	value, err := a.thunk(ctx)
	a.thunk = nil
	if err != nil {
		a.err = err
		return nil, err
	}
	a.value = option.Some(value)
	return value, nil
}

// MarshalJSON forces resolution first: an unresolved association must never
// silently serialize as an empty placeholder.
func (a *Association) MarshalJSON() ([]byte, error) {
	value, err := a.Get(context.Background())
	if err != nil {
		return nil, err
	}
	return json.Marshal(value)
}
