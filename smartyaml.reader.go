package smartyaml

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/apuigsech/smartyaml/internal"
)

// FileInfo describes a document known to a Reader.
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// Reader is the capability the engine reads documents through. Every read
// still passes the engine's path, size, depth and cycle checks.
// Implementations must be safe for concurrent use and must report a missing
// document with an error matching fs.ErrNotExist.
type Reader interface {
	// Stat returns the size and modification time of the document at path.
	Stat(ctx context.Context, path string) (FileInfo, error)

	// ReadFile returns the content of the document at path.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// Canonical returns the canonical form of path, used for containment,
	// cycle detection and cache keys.
	Canonical(path string) (string, error)
}

// ReaderDriver creates Readers from a connection string.
// Drivers register themselves during init().
type ReaderDriver interface {
	// Open creates a new reader with the given connection string.
	// The format of the connection string is driver-specific.
	Open(connectionString string) (Reader, error)
}

// Reader driver registry
var (
	readerDriversMu sync.RWMutex
	readerDrivers   = make(map[string]ReaderDriver)
)

// RegisterReaderDriver registers a reader driver by name.
// This is typically called from a driver's init() function.
// Panics if a driver with the same name is already registered.
func RegisterReaderDriver(name string, driver ReaderDriver) {
	readerDriversMu.Lock()
	defer readerDriversMu.Unlock()

	if driver == nil {
		panic("smartyaml: RegisterReaderDriver driver is nil")
	}
	if _, exists := readerDrivers[name]; exists {
		panic("smartyaml: RegisterReaderDriver called twice for driver " + name)
	}
	readerDrivers[name] = driver
}

// OpenReader opens a reader using the named driver.
func OpenReader(driverName, connectionString string) (Reader, error) {
	readerDriversMu.RLock()
	driver, ok := readerDrivers[driverName]
	readerDriversMu.RUnlock()

	if !ok {
		return nil, NewReaderDriverNotFoundError(driverName)
	}
	return driver.Open(connectionString)
}

// ListReaderDrivers returns the names of all registered reader drivers.
func ListReaderDrivers() []string {
	readerDriversMu.RLock()
	defer readerDriversMu.RUnlock()

	names := make([]string, 0, len(readerDrivers))
	for name := range readerDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// readerSource adapts a Reader to internal.FileSource.
type readerSource struct {
	reader Reader
}

func (s readerSource) Stat(ctx context.Context, path string) (int64, time.Time, error) {
	info, err := s.reader.Stat(ctx, path)
	if err != nil {
		return 0, time.Time{}, err
	}
	return info.Size, info.ModTime, nil
}

func (s readerSource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return s.reader.ReadFile(ctx, path)
}

func (s readerSource) Canonical(path string) (string, error) {
	return s.reader.Canonical(path)
}

// sourceFor returns the internal file source for r. An unbounded filesystem
// reader takes the load's file size limit as its decompression bound.
func sourceFor(r Reader, maxFileSize int64) internal.FileSource {
	switch fr := r.(type) {
	case nil:
		return internal.OSSource{MaxSize: maxFileSize}
	case *FilesystemReader:
		if fr.maxSize <= 0 {
			fr = fr.WithMaxSize(maxFileSize)
		}
		if fr.root == "" {
			return fr.source()
		}
		return readerSource{reader: fr}
	default:
		return readerSource{reader: r}
	}
}
