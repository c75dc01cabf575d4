package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/logging"
)

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	log := logging.NewTextLogger(io.Discard)
	store, err := NewLocalStore(t.TempDir(), DefaultCompressThreshold, log)
	require.NoError(t, err)
	return store
}

func TestLocalRoundTripSmallPayload(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	payload := []byte("500 bytes is under the threshold")
	stored, err := store.Put(ctx, "templates/e1/t1-100.xml", payload, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "templates/e1/t1-100.xml", stored, "small payloads stay uncompressed")

	got, err := store.Get(ctx, "templates/e1/t1-100.xml")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLocalRoundTripCompressedPayload(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	payload := bytes.Repeat([]byte("placeholder content "), 250)
	require.Greater(t, len(payload), DefaultCompressThreshold)

	stored, err := store.Put(ctx, "templates/e1/t1-100.xml", payload, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "templates/e1/t1-100.xml"+CompressedSuffix, stored)

	onDisk, err := os.ReadFile(filepath.Join(store.Root(), "templates", "e1", "t1-100.xml.gz"))
	require.NoError(t, err)
	assert.Less(t, len(onDisk), len(payload), "bytes on disk are the gzip form")

	got, err := store.Get(ctx, stored)
	require.NoError(t, err)
	assert.Equal(t, payload, got, "get by stored name decompresses")

	got, err = store.Get(ctx, "templates/e1/t1-100.xml")
	require.NoError(t, err)
	assert.Equal(t, payload, got, "get by original name decompresses too")
}

func TestLocalCompressionThreshold(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	small := bytes.Repeat([]byte("a"), 500)
	stored, err := store.Put(ctx, "small.xml", small, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "small.xml", stored)

	large := bytes.Repeat([]byte("a"), 5000)
	stored, err = store.Put(ctx, "large.xml", large, Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "large.xml"+CompressedSuffix, stored)

	got, err := store.Get(ctx, "large.xml")
	require.NoError(t, err)
	assert.Equal(t, large, got)
}

func TestLocalPrecompressedStoredRaw(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	deck := bytes.Repeat([]byte{0x50, 0x4B, 0x03, 0x04}, 2048)
	stored, err := store.Put(ctx, "templates/e1/t1-100.pptx", deck, Metadata{ContentType: common.MIMEPptx})
	require.NoError(t, err)
	assert.Equal(t, "templates/e1/t1-100.pptx", stored)

	onDisk, err := os.ReadFile(filepath.Join(store.Root(), "templates", "e1", "t1-100.pptx"))
	require.NoError(t, err)
	assert.Equal(t, deck, onDisk)
}

func TestLocalGetMissing(t *testing.T) {
	store := newLocalStore(t)

	_, err := store.Get(context.Background(), "templates/none.xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestLocalDeleteBestEffort(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	payload := bytes.Repeat([]byte("x"), 4096)
	stored, err := store.Put(ctx, "templates/e1/doomed.xml", payload, Metadata{})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(stored, CompressedSuffix))

	assert.True(t, store.Delete(ctx, "templates/e1/doomed.xml"), "delete by original name finds the compressed file")
	assert.False(t, store.Delete(ctx, "templates/e1/doomed.xml"), "second delete reports false, no error")
	assert.False(t, store.Delete(ctx, "never/existed.xml"))
}

func TestLocalSecureURLDegradesToFileReference(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	payload := []byte("tiny")
	stored, err := store.Put(ctx, "certificates/e1/CERT-1.png", payload, Metadata{})
	require.NoError(t, err)

	url, err := store.SecureURL(ctx, stored, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.Contains(t, url, "certificates/e1/CERT-1.png")

	_, err = store.SecureURL(ctx, "certificates/e1/missing.png", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestLocalListPrefix(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	for _, name := range []string{
		"templates/e1/t1-100.xml",
		"templates/e1/t1-200.xml",
		"templates/e2/t9-100.xml",
		"certificates/e1/CERT-1.png",
	} {
		_, err := store.Put(ctx, name, []byte("v"), Metadata{})
		require.NoError(t, err)
	}

	names, err := store.ListPrefix(ctx, "templates/e1/t1-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"templates/e1/t1-100.xml", "templates/e1/t1-200.xml"}, names)

	names, err = store.ListPrefix(ctx, "archive/")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalRejectsUnsafeNames(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "../escape.xml", []byte("x"), Metadata{})
	assert.Error(t, err)

	_, err = store.Put(ctx, `windows\style.xml`, []byte("x"), Metadata{})
	assert.Error(t, err)

	_, err = store.Put(ctx, "", []byte("x"), Metadata{})
	assert.Error(t, err)
}
