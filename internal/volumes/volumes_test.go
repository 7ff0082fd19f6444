package volumes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustnocode/auditdash/internal/logging"
)

func TestPosixProbe_ListVolumes(t *testing.T) {
	logging.InitNop()
	root := t.TempDir()
	home := filepath.Join(root, "home", "alice")
	mnt := filepath.Join(root, "mnt")
	require.NoError(t, os.MkdirAll(home, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(mnt, "data"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(mnt, "backup"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mnt, "notes.txt"), nil, 0o644))

	p := &PosixProbe{
		Candidates:     []string{mnt, filepath.Join(root, "opt"), root, root},
		Home:           home,
		ContainerMount: mnt,
	}
	got := p.ListVolumes(context.Background())

	assert.Equal(t, []string{
		root,
		home,
		mnt,
		filepath.Join(mnt, "backup"),
		filepath.Join(mnt, "data"),
	}, got)
}

func TestPosixProbe_HomeAlreadyCandidate(t *testing.T) {
	root := t.TempDir()
	p := &PosixProbe{Candidates: []string{root}, Home: root}
	assert.Equal(t, []string{root}, p.ListVolumes(context.Background()))
}

func TestPosixProbe_NothingExists(t *testing.T) {
	logging.InitNop()
	missing := filepath.Join(t.TempDir(), "missing")
	p := &PosixProbe{
		Candidates:     []string{missing},
		Home:           missing,
		ContainerMount: missing,
	}
	got := p.ListVolumes(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func fakeStat(existing ...string) statFunc {
	set := map[string]bool{}
	for _, e := range existing {
		set[e] = true
	}
	return func(name string) (os.FileInfo, error) {
		if set[name] {
			return nil, nil
		}
		return nil, os.ErrNotExist
	}
}

func TestWindowsProbe_ParsesCommandOutput(t *testing.T) {
	p := &WindowsProbe{
		Timeout: time.Second,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			assert.Equal(t, "wmic", name)
			return []byte("Name  \r\nC:    \r\nD:\r\nnot-a-drive\r\nz:\r\nE:\\\r\n\r\n"), nil
		},
		stat: fakeStat(),
	}
	assert.Equal(t, []string{`C:\`, `D:\`}, p.ListVolumes(context.Background()))
}

func TestWindowsProbe_FallsBackOnError(t *testing.T) {
	logging.InitNop()
	p := &WindowsProbe{
		Timeout: time.Second,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, errors.New("wmic not found")
		},
		stat: fakeStat(`A:\`, `C:\`, `Q:\`),
	}
	assert.Equal(t, []string{`C:\`, `Q:\`}, p.ListVolumes(context.Background()))
}

func TestWindowsProbe_FallsBackOnTimeout(t *testing.T) {
	logging.InitNop()
	p := &WindowsProbe{
		Timeout: 10 * time.Millisecond,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
		stat: fakeStat(`D:\`),
	}
	assert.Equal(t, []string{`D:\`}, p.ListVolumes(context.Background()))
}

func TestWindowsProbe_EmptyFallback(t *testing.T) {
	logging.InitNop()
	p := &WindowsProbe{
		Timeout: time.Second,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("Name\r\n"), nil
		},
		stat: fakeStat(),
	}
	got := p.ListVolumes(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetect(t *testing.T) {
	assert.IsType(t, &WindowsProbe{}, detect("windows", 0))
	assert.IsType(t, &PosixProbe{}, detect("linux", 0))
	assert.IsType(t, &PosixProbe{}, detect("darwin", 0))

	wp := detect("windows", 0).(*WindowsProbe)
	assert.Equal(t, DefaultTimeout, wp.Timeout)
}
