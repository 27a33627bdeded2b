package smartyaml

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryReader is an in-memory Reader keyed by slash-separated absolute
// paths. It is primarily intended for testing and embedding.
// All data is lost when the process terminates.
type MemoryReader struct {
	mu     sync.RWMutex
	files  map[string]memoryFile
	closed bool
}

type memoryFile struct {
	data    []byte
	modTime time.Time
}

// MemoryReaderDriver is the driver for creating MemoryReader instances.
type MemoryReaderDriver struct{}

func init() {
	RegisterReaderDriver(ReaderDriverMemory, &MemoryReaderDriver{})
}

// Open creates a new MemoryReader instance.
// The connection string is ignored for memory readers.
func (d *MemoryReaderDriver) Open(connectionString string) (Reader, error) {
	return NewMemoryReader(nil), nil
}

// NewMemoryReader creates a reader holding files, keyed by path.
func NewMemoryReader(files map[string]string) *MemoryReader {
	r := &MemoryReader{files: make(map[string]memoryFile, len(files))}
	now := time.Now()
	for p, content := range files {
		r.files[memoryKey(p)] = memoryFile{data: []byte(content), modTime: now}
	}
	return r
}

// memoryKey canonicalises a path: slash-separated, rooted and cleaned.
func memoryKey(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Put stores content at p, replacing any previous content.
func (r *MemoryReader) Put(p string, content []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]byte, len(content))
	copy(data, content)
	r.files[memoryKey(p)] = memoryFile{data: data, modTime: time.Now()}
}

// Delete removes the document at p. It reports whether it existed.
func (r *MemoryReader) Delete(p string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memoryKey(p)
	if _, ok := r.files[key]; !ok {
		return false
	}
	delete(r.files, key)
	return true
}

// List returns every stored path in sorted order.
func (r *MemoryReader) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.files))
	for p := range r.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Close releases the stored documents. Later reads fail.
func (r *MemoryReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.files = nil
	return nil
}

func (r *MemoryReader) get(ctx context.Context, p string) (memoryFile, error) {
	if err := ctx.Err(); err != nil {
		return memoryFile{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return memoryFile{}, NewReaderError(ErrMsgReaderClosed, nil)
	}
	f, ok := r.files[memoryKey(p)]
	if !ok {
		return memoryFile{}, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return f, nil
}

// Stat implements Reader.
func (r *MemoryReader) Stat(ctx context.Context, p string) (FileInfo, error) {
	f, err := r.get(ctx, p)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Size: int64(len(f.data)), ModTime: f.modTime}, nil
}

// ReadFile implements Reader.
func (r *MemoryReader) ReadFile(ctx context.Context, p string) ([]byte, error) {
	f, err := r.get(ctx, p)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(f.data))
	copy(data, f.data)
	return data, nil
}

// Canonical implements Reader.
func (r *MemoryReader) Canonical(p string) (string, error) {
	return memoryKey(p), nil
}
