package stream

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidSeek   = errors.New("stream: invalid seek")
	ErrLengthUnknown = fmt.Errorf("%w: seek from end without known length", ErrInvalidSeek)
	ErrInvalidWhence = fmt.Errorf("%w: unknown whence", ErrInvalidSeek)
	ErrOutOfRange    = errors.New("stream: offset out of range")
	ErrNotOpen       = errors.New("stream: not open")
	ErrClosed        = errors.New("stream: closed")
)

// TransportError reports a DNS, connect, socket or timeout failure. It is
// fatal to the connection that produced it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned by Open when the server answers with a status
// other than 200 or 206.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status code: %d", e.Code)
}

// FileAccessError reports a local file that could not be opened or probed.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("failed to open file %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
