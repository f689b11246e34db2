package reconcile

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Reconcile loads both indices and returns one result per key, sorted by key.
// Keys excluded by the adapter are left out.
func Reconcile(ctx context.Context, adapter Adapter) ([]Result, error) {
	results, _, err := run(ctx, adapter)
	return results, err
}

func run(ctx context.Context, adapter Adapter) ([]Result, int, error) {
	var (
		dbIndex    map[string]string
		storageSet map[string]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dbIndex, err = adapter.LoadDBIndex(gctx)
		if err != nil {
			return fmt.Errorf("%s: load database index: %w", adapter.Name(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		storageSet, err = adapter.LoadStorageSet(gctx)
		if err != nil {
			return fmt.Errorf("%s: list storage: %w", adapter.Name(), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	skipped := 0
	if ex, ok := adapter.(Excluder); ok {
		skipped = exclude(ex, dbIndex, storageSet)
	}
	return buildResults(dbIndex, storageSet), skipped, nil
}

// exclude removes excluded keys from both sides and returns how many distinct keys it removed.
func exclude(ex Excluder, dbIndex map[string]string, storageSet map[string]struct{}) int {
	n := 0
	for key := range dbIndex {
		if ex.Excluded(key) {
			delete(dbIndex, key)
			delete(storageSet, key)
			n++
		}
	}
	for key := range storageSet {
		if ex.Excluded(key) {
			delete(storageSet, key)
			n++
		}
	}
	return n
}

func buildResults(dbIndex map[string]string, storageSet map[string]struct{}) []Result {
	results := make([]Result, 0, len(dbIndex)+len(storageSet))
	for key, owner := range dbIndex {
		_, stored := storageSet[key]
		results = append(results, Result{Key: key, Owner: owner, DBPresent: true, StoragePresent: stored})
	}
	for key := range storageSet {
		if _, referenced := dbIndex[key]; !referenced {
			results = append(results, Result{Key: key, StoragePresent: true})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Key < results[j].Key
	})
	return results
}
