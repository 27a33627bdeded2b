package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compressed document suffixes understood by OSSource.
const (
	SuffixGzip = ".gz"
	SuffixZstd = ".zst"
)

// ErrMsgDecompress reports a corrupt compressed document.
const ErrMsgDecompress = "failed to decompress document"

// OSSource reads documents from the local filesystem. Files ending in .gz or
// .zst are decompressed; MaxSize bounds the decompressed output (zero means
// unbounded).
type OSSource struct {
	MaxSize int64
}

// Stat implements FileSource.
func (s OSSource) Stat(ctx context.Context, path string) (int64, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, time.Time{}, err
	}
	if info.IsDir() {
		return 0, time.Time{}, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return info.Size(), info.ModTime(), nil
}

// ReadFile implements FileSource.
func (s OSSource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decompress(path, data, s.MaxSize)
}

// Canonical implements FileSource. Symlinks are resolved when the path
// exists; a missing path is returned cleaned so that the later Stat reports it.
func (s OSSource) Canonical(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return canonicalMissing(path), nil
		}
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// canonicalMissing resolves symlinks in the longest existing prefix of a
// path that does not exist, so containment checks see the real directory.
func canonicalMissing(path string) string {
	dir, file := filepath.Split(filepath.Clean(path))
	dir = filepath.Clean(dir)
	if dir == path || dir == "" {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return filepath.Join(resolved, file)
	}
	return filepath.Join(canonicalMissing(dir), file)
}

// Decompress inflates data when name carries a compressed suffix. The output
// is bounded by maxSize so a small archive cannot expand without limit.
func Decompress(name string, data []byte, maxSize int64) ([]byte, error) {
	var r io.Reader
	switch {
	case strings.HasSuffix(name, SuffixGzip):
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, NewError(KindEncoding, ErrMsgDecompress).WithCause(err)
		}
		defer gz.Close()
		r = gz
	case strings.HasSuffix(name, SuffixZstd):
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, NewError(KindEncoding, ErrMsgDecompress).WithCause(err)
		}
		defer zr.Close()
		r = zr
	default:
		return data, nil
	}

	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, NewError(KindEncoding, ErrMsgDecompress).WithCause(err)
	}
	if maxSize > 0 && int64(len(out)) > maxSize {
		return nil, NewError(KindResourceLimit, ErrMsgFileTooLarge)
	}
	return out, nil
}

// DocumentName strips a compression suffix so the decoder can be chosen by
// the inner extension.
func DocumentName(name string) string {
	for _, suffix := range []string{SuffixGzip, SuffixZstd} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
