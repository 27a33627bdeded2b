package internal

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// FileSource is the file capability the engine reads documents through.
// Stat and ReadFile report a missing file with an error matching fs.ErrNotExist.
type FileSource interface {
	Stat(ctx context.Context, path string) (size int64, modTime time.Time, err error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Canonical(path string) (string, error)
}

// Limits bounds a single load.
type Limits struct {
	MaxFileSize           int64
	MaxRecursionDepth     int
	MaxTotalBytes         int64
	MaxVariableIterations int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:           DefaultMaxFileSize,
		MaxRecursionDepth:     DefaultMaxRecursionDepth,
		MaxVariableIterations: DefaultMaxVariableIterations,
	}
}

// ImportStack holds the canonical paths of the documents currently being
// resolved, outermost first. It is shared by every context of one load.
type ImportStack struct {
	paths []string
	// base is the number of entries that do not count towards the depth limit
	// (the root document when it was loaded from a file).
	base int
}

// NewImportStack creates a stack for one load. A non-empty root is the
// canonical path of the top-level document; it takes part in cycle detection
// but not in the depth count.
func NewImportStack(root string) *ImportStack {
	s := &ImportStack{}
	if root != "" {
		s.paths = []string{root}
		s.base = 1
	}
	return s
}

// Contains reports whether path is being resolved.
func (s *ImportStack) Contains(path string) bool {
	for _, p := range s.paths {
		if p == path {
			return true
		}
	}
	return false
}

// Depth returns the number of nested documents below the root.
func (s *ImportStack) Depth() int {
	return len(s.paths) - s.base
}

// Paths returns a copy of the stack.
func (s *ImportStack) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

func (s *ImportStack) push(path string) {
	s.paths = append(s.paths, path)
}

func (s *ImportStack) pop() {
	if len(s.paths) > 0 {
		s.paths = s.paths[:len(s.paths)-1]
	}
}

// Gate enforces path containment, size ceilings, recursion depth and cycle
// detection. One Gate is shared by every load of an engine.
type Gate struct {
	source FileSource
	roots  []string
	limits Limits
}

// NewGate creates a gate. Allowed roots are canonicalised through source;
// no roots means every path is allowed.
func NewGate(source FileSource, roots []string, limits Limits) *Gate {
	g := &Gate{source: source, limits: limits}
	for _, r := range roots {
		if r == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			abs = filepath.Clean(r)
		}
		if canon, err := source.Canonical(abs); err == nil {
			abs = canon
		}
		g.roots = append(g.roots, abs)
	}
	return g
}

// Limits returns the configured limits.
func (g *Gate) Limits() Limits {
	return g.limits
}

// CheckPath resolves candidate against baseDir and returns its canonical form.
func (g *Gate) CheckPath(candidate, baseDir string) (string, error) {
	if candidate == "" {
		return "", NewError(KindPathViolation, ErrMsgPathEmpty)
	}
	if strings.IndexByte(candidate, CharNUL) >= 0 {
		return "", NewError(KindPathViolation, ErrMsgPathNUL).WithDetail(strings.ReplaceAll(candidate, "\x00", "\\0"))
	}

	p := candidate
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", NewError(KindPathViolation, err.Error()).WithDetail(candidate)
	}
	canonical, err := g.source.Canonical(filepath.Clean(abs))
	if err != nil {
		if e, ok := AsError(err); ok {
			return "", e.WithDetail(candidate)
		}
		return "", NewError(KindPathViolation, err.Error()).WithDetail(candidate)
	}

	if !g.allowed(canonical) {
		return "", NewError(KindPathViolation, ErrMsgPathEscapesRoot).WithDetail(candidate)
	}
	return canonical, nil
}

func (g *Gate) allowed(path string) bool {
	if len(g.roots) == 0 {
		return true
	}
	for _, root := range g.roots {
		if Within(root, path) {
			return true
		}
	}
	return false
}

// Within reports whether path lies inside root. Both must be absolute and clean.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// CheckSize fails when n exceeds the per-file ceiling, or when adding n to
// the running total would exceed the aggregate ceiling.
func (g *Gate) CheckSize(n int64, total *atomic.Int64) error {
	if g.limits.MaxFileSize > 0 && n > g.limits.MaxFileSize {
		return NewError(KindResourceLimit, ErrMsgFileTooLarge)
	}
	if g.limits.MaxTotalBytes > 0 && total != nil && total.Load()+n > g.limits.MaxTotalBytes {
		return NewError(KindResourceLimit, ErrMsgTotalTooLarge)
	}
	return nil
}

// CheckDepth fails when another nested document would exceed the depth limit.
func (g *Gate) CheckDepth(stack *ImportStack) error {
	if g.limits.MaxRecursionDepth > 0 && stack.Depth() >= g.limits.MaxRecursionDepth {
		return NewError(KindRecursionLimit, ErrMsgDepthExceeded).
			WithDetail(strings.Join(stack.Paths(), " -> "))
	}
	return nil
}

// CheckCycle fails when canonical is already being resolved.
func (g *Gate) CheckCycle(stack *ImportStack, canonical string) error {
	if stack.Contains(canonical) {
		return NewError(KindCircularRef, ErrMsgCycleDetected).
			WithDetail(strings.Join(append(stack.Paths(), canonical), " -> "))
	}
	return nil
}

// Enter runs the cycle and depth checks and pushes canonical onto the stack.
// The caller must defer the returned release.
func (g *Gate) Enter(stack *ImportStack, canonical string) (func(), error) {
	if err := g.CheckCycle(stack, canonical); err != nil {
		return nil, err
	}
	if err := g.CheckDepth(stack); err != nil {
		return nil, err
	}
	stack.push(canonical)
	return stack.pop, nil
}
