package reference

import (
	"github.com/krew-solutions/docref-go/docref/document"
	"github.com/krew-solutions/docref-go/docref/option"
)

// Context is the resolved lookup target for one association occurrence:
// database, collection and an optional sort. Nothing on database or
// collection means "use the caller's default". Constructed fresh per lookup
// and immutable afterwards.
type Context struct {
	database   option.Option[string]
	collection option.Option[string]
	sort       document.Document
	hasSort    bool
}

func NewContext(database, collection option.Option[string], sort document.Document) Context {
	return Context{
		database:   database,
		collection: collection,
		sort:       sort,
		hasSort:    sort.Len() > 0,
	}
}

func (c Context) Database() option.Option[string] {
	return c.database
}

func (c Context) Collection() option.Option[string] {
	return c.collection
}

// Sort returns the sort specification and whether one is present.
func (c Context) Sort() (document.Document, bool) {
	return c.sort, c.hasSort
}

func (c Context) String() string {
	sort := "none"
	if c.hasSort {
		sort = c.sort.String()
	}
	return "Context(db=" + c.database.String() + ", collection=" + c.collection.String() + ", sort=" + sort + ")"
}
