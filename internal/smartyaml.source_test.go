package internal

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestDecompress(t *testing.T) {
	plain := []byte("name: compressed\n")

	t.Run("plain passthrough", func(t *testing.T) {
		out, err := Decompress("a.yaml", plain, 1)
		require.NoError(t, err)
		assert.Equal(t, plain, out)
	})

	t.Run("gzip", func(t *testing.T) {
		out, err := Decompress("a.yaml.gz", gzipBytes(t, plain), 0)
		require.NoError(t, err)
		assert.Equal(t, plain, out)
	})

	t.Run("zstd", func(t *testing.T) {
		out, err := Decompress("a.yaml.zst", zstdBytes(t, plain), 0)
		require.NoError(t, err)
		assert.Equal(t, plain, out)
	})

	t.Run("expansion bounded", func(t *testing.T) {
		big := []byte(strings.Repeat("a", 4096))
		_, err := Decompress("a.yaml.gz", gzipBytes(t, big), 1024)
		assert.ErrorIs(t, err, ErrResourceLimit)
	})

	t.Run("corrupt", func(t *testing.T) {
		_, err := Decompress("a.yaml.gz", []byte("not gzip"), 0)
		assert.ErrorIs(t, err, ErrEncoding)
	})
}

func TestDocumentName(t *testing.T) {
	assert.Equal(t, "a.yaml", DocumentName("a.yaml.gz"))
	assert.Equal(t, "a.toml", DocumentName("a.toml.zst"))
	assert.Equal(t, "a.yaml", DocumentName("a.yaml"))
}

func TestOSSource(t *testing.T) {
	dir := canonicalTempDir(t)
	path := filepath.Join(dir, "a.yaml.gz")
	require.NoError(t, os.WriteFile(path, gzipBytes(t, []byte("a: 1\n")), 0o644))
	src := OSSource{MaxSize: 1024}
	ctx := context.Background()

	t.Run("stat and read", func(t *testing.T) {
		size, modTime, err := src.Stat(ctx, path)
		require.NoError(t, err)
		assert.Positive(t, size)
		assert.False(t, modTime.IsZero())

		data, err := src.ReadFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "a: 1\n", string(data))
	})

	t.Run("directory is not a document", func(t *testing.T) {
		_, _, err := src.Stat(ctx, dir)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := src.Stat(ctx, filepath.Join(dir, "nope.yaml"))
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := src.ReadFile(canceled, path)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("canonical of missing path", func(t *testing.T) {
		got, err := src.Canonical(filepath.Join(dir, "sub", "..", "x.yaml"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "x.yaml"), got)
	})
}
