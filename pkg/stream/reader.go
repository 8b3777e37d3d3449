package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Compile-time interface satisfaction checks
var (
	_ io.ReadSeekCloser = (*Reader)(nil)
	_ io.ReaderAt       = (*Reader)(nil)
)

// Reader adapts a Stream to the io interfaces expected by archive
// libraries. Seeks that land inside the current chunk are served without
// touching the stream.
type Reader struct {
	s  *Stream
	mu sync.Mutex

	cur []byte // unread remainder of the current chunk
	pos int64  // position as seen by the reader's consumer
	eof bool
}

// Reader returns an io view positioned at the stream's current offset.
func (s *Stream) Reader() *Reader {
	return &Reader{s: s, pos: s.Offset()}
}

func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.read(p)
}

func (r *Reader) read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.cur) == 0 {
		if r.eof {
			return 0, io.EOF
		}
		chunk, err := r.s.ReadChunk()
		if err != nil {
			return 0, err
		}
		if len(chunk) == 0 {
			r.eof = true
			return 0, io.EOF
		}
		r.cur = chunk
	}

	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	r.pos += int64(n)
	return n, nil
}

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seek(offset, whence)
}

func (r *Reader) seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		n, ok := r.s.Length()
		if !ok {
			return 0, ErrLengthUnknown
		}
		target = n + offset
	default:
		return 0, ErrInvalidWhence
	}
	if target < 0 {
		return 0, fmt.Errorf("%w: offset %d", ErrOutOfRange, target)
	}

	if target == r.pos {
		return target, nil
	}
	if d := target - r.pos; d > 0 && d <= int64(len(r.cur)) {
		r.cur = r.cur[d:]
		r.pos = target
		return target, nil
	}

	pos, err := r.s.Seek(target, io.SeekStart)
	if err != nil {
		return 0, err
	}
	r.cur = nil
	r.pos = pos
	// Past the end the stream stays closed; report EOF instead of
	// surfacing ErrOutOfRange on the next read.
	n, ok := r.s.Length()
	r.eof = ok && pos >= n
	return pos, nil
}

// ReadAt reads len(p) bytes at off. Calls are serialized; each moves the
// underlying stream.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := io.ReadFull(readerFunc(r.read), p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}

// Size returns the stream length, or -1 if unknown.
func (r *Reader) Size() int64 {
	n, _ := r.s.Length()
	return n
}

func (r *Reader) Close() error {
	return r.s.Close()
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
