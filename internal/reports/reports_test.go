package reports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustnocode/auditdash/internal/fserr"
)

func writeAt(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestList_FiltersAndOrdersByRecency(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	writeAt(t, filepath.Join(dir, "old.md"), "old", base)
	writeAt(t, filepath.Join(dir, "NEW.JSON"), "{}", base.Add(2*time.Hour))
	writeAt(t, filepath.Join(dir, "mid.Md"), "mid", base.Add(time.Hour))
	writeAt(t, filepath.Join(dir, "notes.txt"), "skip", base.Add(3*time.Hour))
	writeAt(t, filepath.Join(dir, "archive.md.bak"), "skip", base.Add(3*time.Hour))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.md"), 0o755))

	got, err := New().List(dir)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "NEW.JSON", got[0].Name)
	assert.Equal(t, JSON, got[0].Type)
	assert.Equal(t, "mid.Md", got[1].Name)
	assert.Equal(t, Markdown, got[1].Type)
	assert.Equal(t, "old.md", got[2].Name)
	assert.Equal(t, int64(3), got[2].Size)
	assert.Equal(t, filepath.Join(dir, "old.md"), got[2].Path)
	assert.True(t, got[2].Modified.Equal(base))
}

func TestList_TiesBrokenByName(t *testing.T) {
	dir := t.TempDir()
	mod := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	writeAt(t, filepath.Join(dir, "b.md"), "", mod)
	writeAt(t, filepath.Join(dir, "a.md"), "", mod)

	got, err := New().List(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.md", got[0].Name)
	assert.Equal(t, "b.md", got[1].Name)
}

func TestList_NoReportsIsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	writeAt(t, filepath.Join(dir, "readme.txt"), "", time.Now())

	got, err := New().List(dir)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_Errors(t *testing.T) {
	_, err := New().List(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, fserr.Is(err, fserr.NotFound))

	_, err = New().List("")
	assert.True(t, fserr.Is(err, fserr.PathRequired))

	_, err = New().List("srv/../../x")
	assert.True(t, fserr.Is(err, fserr.PathTraversal))
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.md")
	content := "# Findings\n\nüñïcødé ✓\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := New().Read(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestRead_UnsupportedTypeBeforeFilesystem(t *testing.T) {
	_, err := New().Read("/definitely/not/there.txt")
	assert.True(t, fserr.Is(err, fserr.UnsupportedType))

	_, err = New().Read("../../etc/passwd")
	assert.True(t, fserr.Is(err, fserr.UnsupportedType))
}

func TestRead_NotFound(t *testing.T) {
	_, err := New().Read(filepath.Join(t.TempDir(), "gone.json"))
	assert.True(t, fserr.Is(err, fserr.NotFound))
}

func TestRead_Directory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dir.md")
	require.NoError(t, os.Mkdir(dir, 0o755))
	_, err := New().Read(dir)
	assert.True(t, fserr.Is(err, fserr.NotReadable), "got %v", err)
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf("x.JSON")
	assert.True(t, ok)
	assert.Equal(t, JSON, k)
	_, ok = KindOf("x.markdown")
	assert.False(t, ok)
}
