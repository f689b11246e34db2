package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	db         map[string]string
	storage    map[string]struct{}
	dbErr      error
	storageErr error
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) LoadDBIndex(ctx context.Context) (map[string]string, error) {
	return f.db, f.dbErr
}

func (f *fakeAdapter) LoadStorageSet(ctx context.Context) (map[string]struct{}, error) {
	return f.storage, f.storageErr
}

type fakeMutator struct {
	fakeAdapter
	deleted []string
	cleared []string
	err     error
}

func (f *fakeMutator) DeleteStorage(ctx context.Context, keys []string) error {
	f.deleted = append(f.deleted, keys...)
	return f.err
}

func (f *fakeMutator) ClearReferences(ctx context.Context, keys []string) error {
	f.cleared = append(f.cleared, keys...)
	return f.err
}

func drifted() fakeAdapter {
	return fakeAdapter{
		db: map[string]string{
			"avatars/1/a.png": "1",
			"avatars/2/b.png": "2",
		},
		storage: map[string]struct{}{
			"avatars/1/a.png":   {},
			"avatars/3/old.gif": {},
		},
	}
}

func TestReconcile(t *testing.T) {
	a := drifted()
	results, err := Reconcile(context.Background(), &a)
	require.NoError(t, err)

	assert.Equal(t, []Result{
		{Key: "avatars/1/a.png", Owner: "1", DBPresent: true, StoragePresent: true},
		{Key: "avatars/2/b.png", Owner: "2", DBPresent: true},
		{Key: "avatars/3/old.gif", StoragePresent: true},
	}, results)
}

func TestReconcile_Errors(t *testing.T) {
	a := &fakeAdapter{dbErr: errors.New("db down")}
	_, err := Reconcile(context.Background(), a)
	assert.ErrorContains(t, err, "fake: load database index: db down")

	a = &fakeAdapter{storageErr: errors.New("s3 down")}
	_, err = Reconcile(context.Background(), a)
	assert.ErrorContains(t, err, "fake: list storage: s3 down")
}

func TestBuildPlan(t *testing.T) {
	a := drifted()
	plan, err := BuildPlan(context.Background(), &a)
	require.NoError(t, err)

	assert.Equal(t, Summary{TotalItems: 3, InSync: 1, MissingStorage: 1, Orphaned: 1}, plan.Summary)
	assert.ElementsMatch(t, []Action{
		{Type: ActionClearReference, Key: "avatars/2/b.png", Reason: "referenced by 2 but missing in storage"},
		{Type: ActionDeleteStorage, Key: "avatars/3/old.gif", Reason: "not referenced by any row"},
	}, plan.Actions)
}

type recentAdapter struct {
	fakeAdapter
	recent map[string]struct{}
}

func (r *recentAdapter) Excluded(key string) bool {
	_, ok := r.recent[key]
	return ok
}

func TestBuildPlan_ExcludedKeysLeaveBothSides(t *testing.T) {
	a := &recentAdapter{
		fakeAdapter: fakeAdapter{
			db: map[string]string{
				"avatars/1/a.png":   "1",
				"avatars/2/new.png": "2",
			},
			storage: map[string]struct{}{
				"avatars/1/a.png":       {},
				"avatars/2/new.png":     {},
				"avatars/3/partial.png": {},
			},
		},
		recent: map[string]struct{}{
			"avatars/2/new.png":     {},
			"avatars/3/partial.png": {},
		},
	}

	plan, err := BuildPlan(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, Summary{TotalItems: 1, InSync: 1, Skipped: 2}, plan.Summary)
	assert.Empty(t, plan.Actions)
	assert.Equal(t, []Result{{Key: "avatars/1/a.png", Owner: "1", DBPresent: true, StoragePresent: true}}, plan.Results)
}

func TestApplyPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("Unconfirmed", func(t *testing.T) {
		m := &fakeMutator{fakeAdapter: drifted()}
		plan, err := BuildPlan(ctx, m)
		require.NoError(t, err)

		n, err := ApplyPlan(ctx, m, plan, Options{})
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = ApplyPlan(ctx, m, plan, Options{Confirmed: true, DryRun: true})
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Empty(t, m.deleted)
	})

	t.Run("Confirmed", func(t *testing.T) {
		m := &fakeMutator{fakeAdapter: drifted()}
		plan, err := BuildPlan(ctx, m)
		require.NoError(t, err)

		n, err := ApplyPlan(ctx, m, plan, Options{Confirmed: true})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"avatars/3/old.gif"}, m.deleted)
		assert.Equal(t, []string{"avatars/2/b.png"}, m.cleared)
	})

	t.Run("NotMutator", func(t *testing.T) {
		a := drifted()
		plan, err := BuildPlan(ctx, &a)
		require.NoError(t, err)

		_, err = ApplyPlan(ctx, &a, plan, Options{Confirmed: true})
		assert.ErrorContains(t, err, "does not implement Mutator")
	})

	t.Run("MutatorFails", func(t *testing.T) {
		m := &fakeMutator{fakeAdapter: drifted(), err: errors.New("boom")}
		plan, err := BuildPlan(ctx, m)
		require.NoError(t, err)

		n, err := ApplyPlan(ctx, m, plan, Options{Confirmed: true})
		assert.ErrorContains(t, err, "clear references: boom")
		assert.Zero(t, n)
	})
}
