// Package faker generates fake documents for tests and examples.
package faker

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/icrowley/fake"
	"github.com/oklog/ulid/v2"

	"github.com/krew-solutions/docref-go/docref/document"
)

// Monotonic entropy keeps generated ids strictly increasing, so insertion
// order and id order agree and "natural datastore order" is deterministic.
var entropy = ulid.Monotonic(rand.Reader, 0)

// NextID returns a ULID, strictly greater than any previous one.
func NextID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Publisher generates a publisher document with a random UUID identifier.
func Publisher() document.Document {
	return document.New().
		Set("_id", uuid.NewString()).
		Set("name", fake.Company()).
		Set("city", fake.City())
}

// Book generates a book document pointing at a publisher, with a monotonic
// ULID identifier.
func Book(publisherID string) document.Document {
	return document.New().
		Set("_id", NextID()).
		Set("title", fake.Product()).
		Set("author", fake.FullName()).
		Set("publisherId", publisherID)
}
