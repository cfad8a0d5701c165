package repository

import (
	"context"
	"time"
)

// Collection paths. Items live in a sub-collection scoped to their list;
// an item cannot outlive its list.
const (
	Lists = "lists"
	Users = "users"
)

// ItemsOf returns the sub-collection path holding the items of one list.
func ItemsOf(listID string) string {
	return Lists + "/" + listID + "/items"
}

// Document is a raw record from the document store. Data is schemaless;
// view-model mapping tolerates absent or malformed fields.
type Document struct {
	ID        string
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order is the creation-time ordering applied by List.
type Order int

const (
	CreatedAsc Order = iota
	CreatedDesc
)

// serverTimestamp is the sentinel type behind ServerTimestamp.
type serverTimestamp struct{}

// ServerTimestamp marks a field value to be replaced with the store's clock
// at write time, so concurrent writers never disagree about event times.
var ServerTimestamp = serverTimestamp{}

// WriteBatch collects deletes that must commit as a single atomic unit.
type WriteBatch interface {
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

// DocumentStore is the boundary to the backing document database. IDs are
// store-assigned except for Set, which writes under a caller-chosen key
// (profiles are keyed by auth UID). Every successful write signals the
// affected collection's watchers; consumers re-query and fully re-map,
// never patching local state from the write itself.
type DocumentStore interface {
	// Get returns the document or (nil, nil) when it does not exist.
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string, order Order) ([]Document, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges the patch into the document and refreshes updatedAt.
	// Nil patch values are written as explicit nulls.
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Batch() WriteBatch
	// Watch emits a signal whenever the collection changes. The returned
	// cancel func is idempotent and closes the channel.
	Watch(collection string) (<-chan struct{}, func())
}
