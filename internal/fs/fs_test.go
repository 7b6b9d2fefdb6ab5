package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "pages.rst")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = f.WriteAt([]byte("slot1"), 8)
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(13), info.Size())

	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 8)
	require.NoError(t, err)
	assert.Equal(t, "slot1", string(buf))

	require.NoError(t, f.Truncate(8))
	require.NoError(t, f.Close())

	info, err = lfs.Stat(fpath)
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size())

	renamed := filepath.Join(dir, "renamed.rst")
	require.NoError(t, lfs.Rename(fpath, renamed))
	require.NoError(t, lfs.Remove(renamed))
	_, err = lfs.Stat(renamed)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_GlobalLimit(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.SetLimit(5)

	fpath := filepath.Join(t.TempDir(), "faulty.rst")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.WriteAt([]byte("!"), 5)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Zero(t, n)
	assert.Equal(t, int64(5), ffs.Written())
}

func TestFaultyFS_Rules(t *testing.T) {
	boom := errors.New("boom")
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule(".rst", Fault{FailAfterBytes: 4, FailOnSync: true, FailOnClose: true, Err: boom})

	dir := t.TempDir()
	f, err := ffs.OpenFile(filepath.Join(dir, "index.rst"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = f.WriteAt([]byte("abcd"), 0)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte("e"), 4)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, f.Sync(), boom)
	assert.ErrorIs(t, f.Close(), boom)

	// Unmatched names are untouched.
	g, err := ffs.OpenFile(filepath.Join(dir, "other.dat"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = g.Write([]byte("abcdef"))
	require.NoError(t, err)
	require.NoError(t, g.Sync())
	require.NoError(t, g.Close())
}
