//go:build integration

package setstore

import (
	"context"
	"testing"

	stderrors "errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e-plus-healthcare-alliance/schemas/annotation"
	"github.com/e-plus-healthcare-alliance/schemas/config"
	"github.com/e-plus-healthcare-alliance/schemas/errors"
	"github.com/e-plus-healthcare-alliance/schemas/natsclient"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tc := natsclient.NewTestClient(t)
	store, err := NewStore(tc.Client, config.StoreConfig{Bucket: "test_annotation_sets"})
	require.NoError(t, err)
	return store
}

func TestStore_FeatureSetLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fs := annotation.NewFeatureSet("fs1")
	fs.ReferenceSetID = annotation.StringPtr("GRCh38")
	fs.Attributes.Append("source", annotation.TextValue("gencode"))

	require.NoError(t, store.CreateFeatureSet(ctx, fs))

	// Create is create-only.
	err := store.CreateFeatureSet(ctx, fs)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	got, rev, err := store.GetFeatureSet(ctx, "fs1")
	require.NoError(t, err)
	assert.True(t, fs.Equal(got))
	assert.NotZero(t, rev)

	// Stale revision loses.
	got.Name = annotation.StringPtr("release 44")
	newRev, err := store.UpdateFeatureSet(ctx, got, rev)
	require.NoError(t, err)
	_, err = store.UpdateFeatureSet(ctx, got, rev)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrRevisionConflict))

	// Fresh revision wins.
	got.Name = annotation.StringPtr("release 45")
	_, err = store.UpdateFeatureSet(ctx, got, newRev)
	require.NoError(t, err)

	require.NoError(t, store.DeleteFeatureSet(ctx, "fs1"))
	_, _, err = store.GetFeatureSet(ctx, "fs1")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestStore_ListSeparatesKinds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"fs-a", "fs-b"} {
		require.NoError(t, store.CreateFeatureSet(ctx, annotation.NewFeatureSet(id)))
	}
	ws := annotation.NewWiggleSet("coverage")
	ws.Attributes.Append("assay", annotation.TextValue("WGS"))
	require.NoError(t, store.CreateWiggleSet(ctx, ws))

	featureSets, err := store.ListFeatureSets(ctx)
	require.NoError(t, err)
	assert.Len(t, featureSets, 2)

	wiggleSets, err := store.ListWiggleSets(ctx)
	require.NoError(t, err)
	require.Len(t, wiggleSets, 1)
	assert.True(t, ws.Equal(wiggleSets[0]))
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.GetWiggleSet(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}
