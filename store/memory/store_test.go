package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/store"
)

func TestStore_StoreAndRead(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := crossregion.Record{ID: "user-1", Timestamp: 100, Body: []byte("hello")}
	require.NoError(t, s.Store(ctx, "us-east-1", rec))

	got, err := s.Read(ctx, "us-east-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestStore_RegionsAreIsolated(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := crossregion.Record{ID: "user-1", Timestamp: 100}
	require.NoError(t, s.Store(ctx, "us-east-1", rec))

	_, err := s.Read(ctx, "us-west-2", "user-1")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
	assert.Equal(t, 1, s.Len("us-east-1"))
	assert.Equal(t, 0, s.Len("us-west-2"))
}

func TestStore_OverwritesSameID(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "us-east-1", crossregion.Record{ID: "user-1", Timestamp: 100, Body: []byte("old")}))
	require.NoError(t, s.Store(ctx, "us-east-1", crossregion.Record{ID: "user-1", Timestamp: 200, Body: []byte("new")}))

	got, err := s.Read(ctx, "us-east-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.Timestamp)
	assert.Equal(t, []byte("new"), got.Body)
	assert.Equal(t, 1, s.Len("us-east-1"))
}

func TestStore_DeleteRegion(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "us-east-1", crossregion.Record{ID: "user-1", Timestamp: 100}))
	require.NoError(t, s.Store(ctx, "us-east-1", crossregion.Record{ID: "user-2", Timestamp: 100}))
	require.NoError(t, s.Store(ctx, "us-west-2", crossregion.Record{ID: "user-1", Timestamp: 100}))

	require.NoError(t, s.DeleteRegion(ctx, "us-east-1"))

	assert.Equal(t, 0, s.Len("us-east-1"))
	assert.Equal(t, 1, s.Len("us-west-2"))
}

func TestStore_ReadMissing(t *testing.T) {
	s := New()

	_, err := s.Read(context.Background(), "us-east-1", "nope")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}
