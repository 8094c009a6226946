package fsutil

import (
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystemReadWrite(t *testing.T) {
	m := NewMemoryFileSystem()

	err := m.WriteFile("out/doses.txt", []byte("1.000\n"), 0644)
	require.NoError(t, err)

	data, err := m.ReadFile("out/doses.txt")
	require.NoError(t, err)
	assert.Equal(t, "1.000\n", string(data))

	info, err := m.Stat("out/doses.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(6), info.Size())
	assert.False(t, info.IsDir())
}

func TestMemoryFileSystemCreateAndOpen(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("layers.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("layer 1"))
	require.NoError(t, err)
	_, err = w.Write([]byte(" dose 1.000\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := m.Open("layers.txt")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "layer 1 dose 1.000\n", string(data))
}

func TestMemoryFileSystemMissingFile(t *testing.T) {
	m := NewMemoryFileSystem()

	_, err := m.ReadFile("absent")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = m.Open("absent")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.False(t, m.Exists("absent"))
}

func TestMemoryFileSystemMkdirAll(t *testing.T) {
	m := NewMemoryFileSystem()

	require.NoError(t, m.MkdirAll("a/b/c", 0755))
	assert.True(t, m.Exists("a/b/c"))
	assert.True(t, m.Exists("a/b"))
	assert.True(t, m.Exists("a"))

	info, err := m.Stat("a/b")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMemoryFileSystemWriteCopiesData(t *testing.T) {
	m := NewMemoryFileSystem()

	buf := []byte("original")
	require.NoError(t, m.WriteFile("f", buf, 0644))
	buf[0] = 'X'

	data, err := m.ReadFile("f")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}
