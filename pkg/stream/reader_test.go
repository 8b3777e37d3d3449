package stream

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openReader(t *testing.T, data []byte, chunkSize int) *Reader {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/r.bin", data, 0o644))
	s, err := New("/r.bin", Options{Fs: fs, ChunkSize: chunkSize})
	require.NoError(t, err)
	require.NoError(t, s.Open(context.Background()))
	r := s.Reader()
	t.Cleanup(func() { r.Close() })
	return r
}

func TestReaderReadAll(t *testing.T) {
	data := testBody(10_000)
	r := openReader(t, data, 333)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), r.Size())
}

func TestReaderSeekWithinChunk(t *testing.T) {
	data := testBody(1000)
	r := openReader(t, data, 100)

	buf := make([]byte, 10)
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)

	// skipping forward inside the buffered chunk leaves the stream alone
	before := r.s.Offset()
	pos, err := r.Seek(50, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(60), pos)
	assert.Equal(t, before, r.s.Offset())

	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, data[60:70], buf)

	pos, err = r.Seek(5, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(5), pos)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, data[5:15], buf)
}

func TestReaderSeekEndAndPast(t *testing.T) {
	data := testBody(1000)
	r := openReader(t, data, 128)

	pos, err := r.Seek(-10, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(990), pos)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data[990:], rest)

	_, err = r.Seek(5000, io.SeekStart)
	require.NoError(t, err)
	n, err := r.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	_, err = r.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestReaderReadAt(t *testing.T) {
	data := testBody(4096)
	r := openReader(t, data, 512)

	buf := make([]byte, 100)
	n, err := r.ReadAt(buf, 3000)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[3000:3100], buf)

	n, err = r.ReadAt(buf, 10)
	require.NoError(t, err)
	assert.Equal(t, data[10:110], buf[:n])

	n, err = r.ReadAt(buf, 4050)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 46, n)
	assert.Equal(t, data[4050:], buf[:n])

	// usable as the backing store of a SectionReader
	sec := io.NewSectionReader(r, 1000, 24)
	got, err := io.ReadAll(sec)
	require.NoError(t, err)
	assert.Equal(t, data[1000:1024], got)
}
