package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustnocode/auditdash/internal/fserr"
	"github.com/trustnocode/auditdash/internal/logging"
)

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestList_SeparatesAndSorts(t *testing.T) {
	logging.InitNop()
	dir := t.TempDir()
	for _, d := range []string{"zeta", "Alpha", "beta"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, d), 0o755))
	}
	for _, f := range []string{"b.md", "B.json", "a.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("12345"), 0o644))
	}

	l, err := New().List(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, l.Path)
	assert.Equal(t, filepath.Dir(dir), l.Parent)
	assert.Equal(t, []string{"Alpha", "beta", "zeta"}, names(l.Dirs))
	assert.Equal(t, []string{"B.json", "a.txt", "b.md"}, names(l.Files))
	assert.Equal(t, int64(5), l.Files[0].Size)
	assert.Equal(t, filepath.Join(dir, "B.json"), l.Files[0].Path)
}

func TestList_Idempotent(t *testing.T) {
	logging.InitNop()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one"), []byte("1"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "two"), 0o755))

	first, err := New().List(dir)
	require.NoError(t, err)
	second, err := New().List(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestList_EmptyDirectory(t *testing.T) {
	l, err := New().List(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, l.Dirs)
	assert.NotNil(t, l.Files)
	assert.Empty(t, l.Dirs)
	assert.Empty(t, l.Files)
}

func TestList_SkipsDanglingSymlink(t *testing.T) {
	logging.InitNop()
	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "dangling")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept"), nil, 0o644))

	l, err := New().List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, names(l.Files))
}

func TestList_Root(t *testing.T) {
	root := string(filepath.Separator)
	if vol := filepath.VolumeName(t.TempDir()); vol != "" {
		root = vol + root
	}
	l, err := New().List(root)
	require.NoError(t, err)
	assert.Equal(t, l.Path, l.Parent)
}

func TestList_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New().List(filepath.Join(dir, "missing"))
	assert.True(t, fserr.Is(err, fserr.NotFound), "got %v", err)

	_, err = New().List(file)
	assert.True(t, fserr.Is(err, fserr.NotReadable), "got %v", err)

	_, err = New().List("../etc")
	assert.True(t, fserr.Is(err, fserr.PathTraversal))
}

func TestList_FollowsSymlinks(t *testing.T) {
	logging.InitNop()
	dir := t.TempDir()
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "r.md"), []byte("x"), 0o644))
	if err := os.Symlink(target, filepath.Join(dir, "linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(target, "r.md"), filepath.Join(dir, "report-link.md")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "dangling")))

	l, err := New().List(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"linked"}, names(l.Dirs))
	assert.Equal(t, []string{"report-link.md"}, names(l.Files))
	assert.Equal(t, int64(1), l.Files[0].Size)
}
