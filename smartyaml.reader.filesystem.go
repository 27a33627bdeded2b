package smartyaml

import (
	"context"
	"path/filepath"

	"github.com/apuigsech/smartyaml/internal"
)

// FilesystemReader reads documents from the local filesystem. Files ending in
// .gz or .zst are decompressed transparently. When a root is set, paths
// outside it are rejected by Canonical.
type FilesystemReader struct {
	root    string
	maxSize int64
}

// FilesystemReaderDriver is the driver for creating FilesystemReader instances.
type FilesystemReaderDriver struct{}

func init() {
	RegisterReaderDriver(ReaderDriverFile, &FilesystemReaderDriver{})
}

// Open creates a new FilesystemReader.
// The connection string is an optional root directory.
func (d *FilesystemReaderDriver) Open(connectionString string) (Reader, error) {
	return NewFilesystemReader(connectionString)
}

// NewFilesystemReader creates a filesystem reader confined to root, or
// unconfined when root is empty.
func NewFilesystemReader(root string) (*FilesystemReader, error) {
	r := &FilesystemReader{}
	if root == "" {
		return r, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, NewConfigError(ErrMsgInvalidOption, root)
	}
	canonical, err := internal.OSSource{}.Canonical(abs)
	if err != nil {
		return nil, NewReaderError(ErrMsgReaderConnect, err)
	}
	r.root = canonical
	return r, nil
}

// WithMaxSize returns a copy of the reader whose decompressed output is
// bounded by n bytes.
func (r *FilesystemReader) WithMaxSize(n int64) *FilesystemReader {
	out := *r
	out.maxSize = n
	return &out
}

// Root returns the confining directory, or "".
func (r *FilesystemReader) Root() string {
	return r.root
}

func (r *FilesystemReader) source() internal.OSSource {
	return internal.OSSource{MaxSize: r.maxSize}
}

// Stat implements Reader.
func (r *FilesystemReader) Stat(ctx context.Context, path string) (FileInfo, error) {
	size, modTime, err := r.source().Stat(ctx, path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Size: size, ModTime: modTime}, nil
}

// ReadFile implements Reader.
func (r *FilesystemReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return r.source().ReadFile(ctx, path)
}

// Canonical implements Reader.
func (r *FilesystemReader) Canonical(path string) (string, error) {
	canonical, err := r.source().Canonical(path)
	if err != nil {
		return "", err
	}
	if r.root != "" && !internal.Within(r.root, canonical) {
		return "", internal.NewError(internal.KindPathViolation, internal.ErrMsgPathEscapesRoot).WithDetail(path)
	}
	return canonical, nil
}
