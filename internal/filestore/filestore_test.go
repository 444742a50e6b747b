package filestore

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/postboard/internal/config"
)

type nopSeekCloser struct {
	*strings.Reader
}

func (nopSeekCloser) Close() error { return nil }

func TestLocalStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a.png", nopSeekCloser{strings.NewReader("png-bytes")}, 9))
	require.Equal(t, "images/a.png", store.URL("a.png"))

	rc, err := store.Open(ctx, "a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "a.png"))
	_, err = os.Stat(dir + "/a.png")
	require.True(t, os.IsNotExist(err))
	require.ErrorIs(t, store.Delete(ctx, "a.png"), ErrNotExist)
	_, err = store.Open(ctx, "a.png")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)
	ctx := context.Background()
	for _, key := range []string{"../x", "a/b", `a\b`, "..", ""} {
		require.Error(t, store.Save(ctx, key, nopSeekCloser{strings.NewReader("x")}, 1), key)
		require.Error(t, store.Delete(ctx, key), key)
	}
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp", Data: map[string]interface{}{}})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{"endpoint": "x"}})
	require.Error(t, err)
}

func TestS3URL(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{
		"endpoint": "minio.local:9000", "bucket": "blog", "secret_id": "id", "secret_key": "key", "prefix": "/uploads/",
	}})
	require.NoError(t, err)
	require.Equal(t, "http://minio.local:9000/blog/uploads/a.png", store.URL("a.png"))
}
