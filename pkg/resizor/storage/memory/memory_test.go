package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/resizor-go/pkg/resizor/storage"
)

func TestBackend_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	b := New()

	n, err := b.Put(ctx, "images/1", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	rc, err := b.Get(ctx, "images/1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	ct, ok := b.ContentType("images/1")
	assert.True(t, ok)
	assert.Equal(t, "image/png", ct)

	require.NoError(t, b.Delete(ctx, "images/1"))

	_, err = b.Get(ctx, "images/1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, b.Delete(ctx, "images/1"), storage.ErrNotFound)
}

func TestBackend_DefaultContentType(t *testing.T) {
	b := New()
	_, err := b.Put(context.Background(), "k", strings.NewReader(""), "")
	require.NoError(t, err)

	ct, _ := b.ContentType("k")
	assert.Equal(t, "application/octet-stream", ct)
}

func TestBackend_ImplementsBlobStore(t *testing.T) {
	var _ storage.BlobStore = New()
}
