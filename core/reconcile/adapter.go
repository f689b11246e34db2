package reconcile

import "context"

// Adapter loads both sides of a reconciliation.
type Adapter interface {
	// Name identifies the adapter in logs and errors.
	Name() string

	// LoadDBIndex returns every object key referenced by the database,
	// mapped to the ID of the row that references it.
	LoadDBIndex(ctx context.Context) (map[string]string, error)

	// LoadStorageSet returns the keys of all objects the adapter owns in storage.
	// Implementations should list once rather than issue per-object HEAD calls.
	LoadStorageSet(ctx context.Context) (map[string]struct{}, error)
}

// Mutator is implemented by adapters that can repair drift.
type Mutator interface {
	// DeleteStorage removes unreferenced objects.
	DeleteStorage(ctx context.Context, keys []string) error

	// ClearReferences drops database references to missing objects.
	ClearReferences(ctx context.Context, keys []string) error
}

// Excluder is implemented by adapters that keep some keys out of a run, such as
// objects that may still be in the middle of an upload. It is consulted after
// both indices are loaded and an excluded key is dropped from both sides.
type Excluder interface {
	Excluded(key string) bool
}
