package blob_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-avesta/Eventure-sub001/internal/blob"
)

func TestMemory(t *testing.T) {
	m := blob.NewMemory()
	ctx := context.Background()

	_, err := m.GetObject(ctx, "a")
	assert.ErrorIs(t, err, blob.ErrNotFound)

	data := []byte("hello")
	require.NoError(t, m.PutObject(ctx, "a", data, "text/plain"))
	data[0] = 'j'

	got, err := m.GetObject(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got), "stored copy is independent of the caller's slice")

	obj, ok := m.Stat("a")
	require.True(t, ok)
	assert.Equal(t, "text/plain", obj.ContentType)

	require.NoError(t, m.DeleteObject(ctx, "a"))
	require.NoError(t, m.DeleteObject(ctx, "a"))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryCancelledContext(t *testing.T) {
	m := blob.NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.PutObject(ctx, "a", nil, ""), context.Canceled)
	_, err := m.GetObject(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
