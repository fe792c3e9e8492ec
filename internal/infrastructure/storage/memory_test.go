package storage

import (
	"context"
	"testing"

	"github.com/reimburse/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryObjectStorage("receipts-dev", "")

	data := []byte("receipt")
	require.NoError(t, m.Upload(ctx, "receipts/default/operations/1_a.jpg", "image/jpeg", data))
	data[0] = 'X'

	got, contentType, err := m.Download(ctx, "receipts/default/operations/1_a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("receipt"), got)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, 1, m.Len())

	_, _, err = m.Download(ctx, "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Equal(t, "https://storage.googleapis.com/receipts-dev/a/b.png", m.PublicURL("a/b.png"))
}
