// Package persistence serializes the record store's collections to a
// durable key-value medium. The byte encoding is an internal, swappable
// concern behind Codec; functionally Load(Save(x)) must round-trip
// structurally identical data.
package persistence

// Collection names the durable record sets.
type Collection string

const (
	CollectionAccounts            Collection = "accounts"
	CollectionSubscriptions       Collection = "subscriptions"
	CollectionCancellationRecords Collection = "cancellation_records"
	CollectionTokenRegistry       Collection = "token_registry"
)

// Adapter is the durable medium boundary consumed by the record store.
// Save marshals and writes the whole collection; Load unmarshals it into
// out (a pointer to a slice or map). A missing collection is not an error:
// out is left at its zero value.
type Adapter interface {
	Save(c Collection, records any) error
	Load(c Collection, out any) error
	HasData() bool
	Version() string
	SetVersion(v string) error
	ClearAll() error
}
