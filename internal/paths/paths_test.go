package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustnocode/auditdash/internal/fserr"
)

func skipIfRoot(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/a/c"), Normalize("/a/b/../c/."))
	assert.Equal(t, filepath.FromSlash("/a/b"), Normalize("  /a//b/  "))
}

func TestResolve_TraversalRejectedInBothModes(t *testing.T) {
	for _, raw := range []string{"../etc", "a/../../b", "/tmp/a..b", ".."} {
		for _, mode := range []Mode{ModeRead, ModeWrite} {
			_, err := Resolve(raw, mode)
			assert.True(t, fserr.Is(err, fserr.PathTraversal), "%q %s: %v", raw, mode, err)
		}
	}
}

func TestResolve_AbsoluteDotDotCollapses(t *testing.T) {
	dir := t.TempDir()
	res, err := Resolve(filepath.Join(dir, "sub", ".."), ModeRead)
	require.NoError(t, err)
	assert.Equal(t, dir, res.Normalized)
	assert.Equal(t, KindDirectory, res.Kind)
}

func TestResolve_EmptyAndRelative(t *testing.T) {
	_, err := Resolve("   ", ModeRead)
	assert.True(t, fserr.Is(err, fserr.PathRequired))

	_, err = Resolve("relative/dir", ModeRead)
	assert.True(t, fserr.Is(err, fserr.NotAbsolute))
}

func TestResolve_Read(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	res, err := Resolve(file, ModeRead)
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, KindFile, res.Kind)
	assert.Equal(t, AccessRead, res.Access)
	assert.Equal(t, file, res.Raw)

	_, err = Resolve(filepath.Join(dir, "missing"), ModeRead)
	assert.True(t, fserr.Is(err, fserr.NotFound))
}

func TestResolve_WriteExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	res, err := Resolve(dir, ModeWrite)
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.False(t, res.WillCreate)
	assert.Equal(t, AccessWrite, res.Access)
}

func TestResolve_WriteWillCreate(t *testing.T) {
	dir := t.TempDir()
	res, err := Resolve(filepath.Join(dir, "new-output"), ModeWrite)
	require.NoError(t, err)
	assert.False(t, res.Exists)
	assert.True(t, res.WillCreate)
	assert.Equal(t, KindNone, res.Kind)
}

func TestResolve_WriteParentMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Resolve(filepath.Join(dir, "nope", "deeper"), ModeWrite)
	assert.True(t, fserr.Is(err, fserr.ParentMissing))
}

func TestResolve_WriteOnFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Resolve(file, ModeWrite)
	assert.True(t, fserr.Is(err, fserr.NotDirectory))

	_, err = Resolve(filepath.Join(file, "child"), ModeWrite)
	assert.True(t, fserr.Is(err, fserr.ParentMissing), "got %v", err)

	_, err = Resolve(filepath.Join(file, "a", "b"), ModeWrite)
	assert.True(t, fserr.Is(err, fserr.ParentMissing), "got %v", err)
}

func TestResolve_ReadUnderFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Resolve(filepath.Join(file, "child"), ModeRead)
	assert.True(t, fserr.Is(err, fserr.NotFound), "got %v", err)
	assert.Equal(t, "Path does not exist", fserr.ReasonOf(err).Message())
}

func TestResolve_WriteAccessDenied(t *testing.T) {
	skipIfRoot(t)
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(locked, 0o555))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	_, err := Resolve(locked, ModeWrite)
	assert.True(t, fserr.Is(err, fserr.AccessDenied), "got %v", err)

	_, err = Resolve(filepath.Join(locked, "child"), ModeWrite)
	assert.True(t, fserr.Is(err, fserr.AccessDenied), "got %v", err)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeWrite, ParseMode("write"))
	assert.Equal(t, ModeRead, ParseMode("read"))
	assert.Equal(t, ModeRead, ParseMode(""))
}
