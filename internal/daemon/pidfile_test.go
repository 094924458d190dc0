package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFileCreateAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), PIDFileName)

	pf := NewPIDFile(path)
	require.NoError(t, pf.Create())
	defer pf.Release()

	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestPIDFileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), PIDFileName)

	first := NewPIDFile(path)
	require.NoError(t, first.Create())
	defer first.Release()

	second := NewPIDFile(path)
	assert.ErrorIs(t, second.Create(), ErrPIDFileLocked)
}

func TestPIDFileRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), PIDFileName)

	pf := NewPIDFile(path)
	require.NoError(t, pf.Create())
	require.NoError(t, pf.Release())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "release should remove the file")

	// The lock is gone, so another instance can acquire it
	next := NewPIDFile(path)
	require.NoError(t, next.Create())
	require.NoError(t, next.Release())
}

func TestPIDFileReleaseWithoutCreate(t *testing.T) {
	pf := NewPIDFile(filepath.Join(t.TempDir(), PIDFileName))
	assert.NoError(t, pf.Release())
}

func TestReadPIDErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadPID(filepath.Join(dir, "missing.pid"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.pid")
	require.NoError(t, os.WriteFile(bad, []byte("not-a-pid\n"), 0600))
	_, err = ReadPID(bad)
	assert.Error(t, err)
}
