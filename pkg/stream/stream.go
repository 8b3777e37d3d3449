// Package stream exposes a local file or an HTTP resource as one seekable,
// chunked byte source.
//
// The HTTP backend reads the response body through a bounded prefetch
// pipeline and implements Seek by reconnecting with a Range header. The
// file backend reads fixed-size chunks from an afero.Fs.
//
// # Usage
//
//	s, err := stream.New("https://example.com/archive.zip", stream.DefaultOptions())
//	if err := s.Open(ctx); err != nil { ... }
//	defer s.Close()
//	for {
//	    chunk, err := s.ReadChunk()
//	    if err != nil { ... }
//	    if len(chunk) == 0 {
//	        break // end of stream
//	    }
//	}
//
// A Stream is owned by one goroutine; it is not safe for concurrent use.
package stream

import (
	"context"
	"strings"
)

type source interface {
	open(ctx context.Context) error
	read() ([]byte, error)
	seek(offset int64, whence int) (int64, error)
	close()
	position() (offset, length int64)
}

// Stream is the facade over the backend selected at construction.
type Stream struct {
	uri    string
	remote bool
	src    source
	closed bool
}

// IsRemote reports whether uri selects the HTTP backend.
func IsRemote(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// New binds uri to a backend: http:// and https:// identifiers use HTTP,
// anything else is a local path. The choice never changes afterwards.
func New(uri string, opts Options) (*Stream, error) {
	opts = opts.withDefaults()

	s := &Stream{uri: uri, remote: IsRemote(uri)}
	if s.remote {
		src, err := newHTTPSource(uri, opts)
		if err != nil {
			return nil, err
		}
		s.src = src
	} else {
		s.src = newFileSource(uri, opts)
	}
	return s, nil
}

// Open prepares the backend. For HTTP it connects, exchanges headers and
// starts prefetching; ctx bounds the connect and header exchange.
func (s *Stream) Open(ctx context.Context) error {
	s.closed = false
	return s.src.open(ctx)
}

// ReadChunk returns the next chunk, blocking until one is available. An
// empty chunk with a nil error marks the end of the stream. The returned
// slice stays valid until the next ReadChunk or Close and must not be
// modified.
func (s *Stream) ReadChunk() ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	return s.src.read()
}

// Seek repositions the stream and returns the new absolute offset.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return s.src.seek(offset, whence)
}

// Close releases every resource held by the backend. It is safe to call
// more than once and always returns nil.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.src.close()
	return nil
}

// Offset returns the current absolute offset.
func (s *Stream) Offset() int64 {
	off, _ := s.src.position()
	return off
}

// Length returns the total length and whether it is known.
func (s *Stream) Length() (int64, bool) {
	_, n := s.src.position()
	return n, n >= 0
}

func (s *Stream) URI() string    { return s.uri }
func (s *Stream) IsRemote() bool { return s.remote }
