package stream

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openFile(t *testing.T, content string, chunkSize int) *Stream {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/ten.bin", []byte(content), 0o644))

	s, err := New("/data/ten.bin", Options{Fs: fs, ChunkSize: chunkSize})
	require.NoError(t, err)
	require.False(t, s.IsRemote())
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileReadsWholeFile(t *testing.T) {
	s := openFile(t, "0123456789", DefaultChunkSize)

	n, ok := s.Length()
	require.True(t, ok)
	assert.Equal(t, int64(10), n)

	chunk, err := s.ReadChunk()
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(chunk))
	assert.Equal(t, int64(10), s.Offset())

	chunk, err = s.ReadChunk()
	require.NoError(t, err)
	assert.Empty(t, chunk)
}

func TestFileReadsFixedChunks(t *testing.T) {
	s := openFile(t, "0123456789", 4)

	var got []string
	for {
		chunk, err := s.ReadChunk()
		require.NoError(t, err)
		if len(chunk) == 0 {
			break
		}
		got = append(got, string(chunk))
	}
	assert.Equal(t, []string{"0123", "4567", "89"}, got)
}

func TestFileSeek(t *testing.T) {
	s := openFile(t, "0123456789", DefaultChunkSize)

	off, err := s.Seek(5, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(5), off)
	chunk, err := s.ReadChunk()
	require.NoError(t, err)
	assert.Equal(t, "56789", string(chunk))

	off, err = s.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(7), off)

	off, err = s.Seek(-2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(5), off)

	_, err = s.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.Seek(0, 7)
	assert.ErrorIs(t, err, ErrInvalidSeek)

	// past the end reads as end of stream
	_, err = s.Seek(20, io.SeekStart)
	require.NoError(t, err)
	chunk, err = s.ReadChunk()
	require.NoError(t, err)
	assert.Empty(t, chunk)
}

func TestFileOpenMissing(t *testing.T) {
	s, err := New("/nope/missing.bin", Options{Fs: afero.NewMemMapFs()})
	require.NoError(t, err)

	err = s.Open(context.Background())
	var accessErr *FileAccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, "/nope/missing.bin", accessErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileNotOpen(t *testing.T) {
	s, err := New("/data/x", Options{Fs: afero.NewMemMapFs()})
	require.NoError(t, err)

	_, err = s.ReadChunk()
	assert.ErrorIs(t, err, ErrNotOpen)
	_, err = s.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestFileCloseAndReopen(t *testing.T) {
	s := openFile(t, "0123456789", 6)

	_, err := s.ReadChunk()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.ReadChunk()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, ErrClosed)

	require.NoError(t, s.Open(context.Background()))
	chunk, err := s.ReadChunk()
	require.NoError(t, err)
	assert.Equal(t, "012345", string(chunk))
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("http://example.com/a"))
	assert.True(t, IsRemote("https://example.com/a"))
	assert.False(t, IsRemote("/tmp/http://x"))
	assert.False(t, IsRemote("ftp://example.com/a"))
	assert.False(t, IsRemote("HTTP://example.com/a"))
}
