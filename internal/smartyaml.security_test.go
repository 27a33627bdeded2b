package internal

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// canonicalTempDir returns a temp dir with symlinks resolved, so expected
// paths compare equal to what the gate returns.
func canonicalTempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestGate_CheckPath(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "a.yaml"), []byte("a: 1"), 0o644))

	gate := NewGate(OSSource{}, []string{root}, DefaultLimits())

	t.Run("relative inside root", func(t *testing.T) {
		got, err := gate.CheckPath("a.yaml", filepath.Join(root, "conf"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "conf", "a.yaml"), got)
	})

	t.Run("missing file is canonicalised", func(t *testing.T) {
		got, err := gate.CheckPath("conf/missing.yaml", root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "conf", "missing.yaml"), got)
	})

	t.Run("dot segments stay inside", func(t *testing.T) {
		got, err := gate.CheckPath("conf/../conf/a.yaml", root)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "conf", "a.yaml"), got)
	})

	t.Run("escape", func(t *testing.T) {
		_, err := gate.CheckPath("../../etc/passwd", filepath.Join(root, "conf"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPathViolation)
	})

	t.Run("absolute outside", func(t *testing.T) {
		_, err := gate.CheckPath(filepath.Join(filepath.Dir(root), "elsewhere.yaml"), root)
		assert.ErrorIs(t, err, ErrPathViolation)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := gate.CheckPath("", root)
		assert.ErrorIs(t, err, ErrPathViolation)
	})

	t.Run("NUL byte", func(t *testing.T) {
		_, err := gate.CheckPath("a\x00.yaml", root)
		require.ErrorIs(t, err, ErrPathViolation)
		assert.NotContains(t, err.Error(), "\x00")
	})
}

func TestGate_CheckPathSymlinkEscape(t *testing.T) {
	base := canonicalTempDir(t)
	root := filepath.Join(base, "root")
	outside := filepath.Join(base, "outside")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.yaml"), []byte("s: 1"), 0o644))
	if err := os.Symlink(filepath.Join(outside, "secret.yaml"), filepath.Join(root, "link.yaml")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	gate := NewGate(OSSource{}, []string{root}, DefaultLimits())

	_, err := gate.CheckPath("link.yaml", root)
	assert.ErrorIs(t, err, ErrPathViolation)
}

func TestGate_NoRootsAllowsAll(t *testing.T) {
	gate := NewGate(OSSource{}, nil, DefaultLimits())

	_, err := gate.CheckPath("/definitely/not/here.yaml", "/")
	assert.NoError(t, err)
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, path string
		want       bool
	}{
		{"/a", "/a/b", true},
		{"/a", "/a", true},
		{"/a", "/a/b/../c", true},
		{"/a", "/ab", false},
		{"/a", "/", false},
		{"/a/b", "/a", false},
		{"/a", "/a/..b", true},
	}

	for _, tt := range tests {
		t.Run(tt.root+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Within(tt.root, filepath.Clean(tt.path)))
		})
	}
}

func TestGate_CheckSize(t *testing.T) {
	gate := NewGate(OSSource{}, nil, Limits{MaxFileSize: 10, MaxTotalBytes: 20})
	var total atomic.Int64

	assert.NoError(t, gate.CheckSize(10, &total))
	assert.ErrorIs(t, gate.CheckSize(11, &total), ErrResourceLimit)

	total.Store(15)
	assert.NoError(t, gate.CheckSize(5, &total))
	assert.ErrorIs(t, gate.CheckSize(6, &total), ErrResourceLimit)

	unbounded := NewGate(OSSource{}, nil, Limits{})
	assert.NoError(t, unbounded.CheckSize(1<<40, &total))
}

func TestGate_EnterCycleAndDepth(t *testing.T) {
	gate := NewGate(OSSource{}, nil, Limits{MaxRecursionDepth: 2})
	stack := NewImportStack("/root.yaml")
	assert.Equal(t, 0, stack.Depth())

	t.Run("self reference", func(t *testing.T) {
		_, err := gate.Enter(stack, "/root.yaml")
		require.ErrorIs(t, err, ErrCircularRef)
		assert.Contains(t, err.Error(), "/root.yaml -> /root.yaml")
	})

	releaseA, err := gate.Enter(stack, "/a.yaml")
	require.NoError(t, err)
	releaseB, err := gate.Enter(stack, "/b.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, stack.Depth())

	t.Run("depth", func(t *testing.T) {
		_, err := gate.Enter(stack, "/c.yaml")
		assert.ErrorIs(t, err, ErrRecursionLimit)
	})

	t.Run("cycle reported before depth", func(t *testing.T) {
		_, err := gate.Enter(stack, "/a.yaml")
		assert.Equal(t, KindCircularRef, KindOf(err))
	})

	releaseB()
	releaseA()
	assert.Equal(t, 0, stack.Depth())
	assert.Equal(t, []string{"/root.yaml"}, stack.Paths())

	// Siblings may reference the same document.
	release, err := gate.Enter(stack, "/a.yaml")
	require.NoError(t, err)
	release()
}
