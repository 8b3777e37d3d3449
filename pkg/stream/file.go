package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"unpack/pkg/logger"
)

type fileSource struct {
	fs        afero.Fs
	path      string
	chunkSize int

	file   afero.File
	offset int64
	length int64
}

func newFileSource(path string, opts Options) *fileSource {
	return &fileSource{
		fs:        opts.Fs,
		path:      path,
		chunkSize: opts.ChunkSize,
		length:    -1,
	}
}

func (s *fileSource) open(context.Context) error {
	s.close()

	f, err := s.fs.Open(s.path)
	if err != nil {
		return &FileAccessError{Path: s.path, Err: err}
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = f.Close()
		return &FileAccessError{Path: s.path, Err: err}
	}

	s.file = f
	s.length = size
	s.offset = 0
	return nil
}

func (s *fileSource) read() ([]byte, error) {
	if s.file == nil {
		return nil, ErrNotOpen
	}

	chunk := make([]byte, s.chunkSize)
	n, err := io.ReadFull(s.file, chunk)
	s.offset += int64(n)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if n == 0 {
		return nil, nil
	}
	return chunk[:n], nil
}

func (s *fileSource) seek(offset int64, whence int) (int64, error) {
	if s.file == nil {
		return 0, ErrNotOpen
	}

	target, err := resolveSeek(s.offset, s.length, offset, whence)
	if err != nil {
		return 0, err
	}
	if target < 0 {
		return 0, fmt.Errorf("%w: offset %d", ErrOutOfRange, target)
	}

	pos, err := s.file.Seek(target, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("seek %s: %w", s.path, err)
	}
	s.offset = pos
	return pos, nil
}

func (s *fileSource) close() {
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			logger.Debug("Discarding file close error", "path", s.path, "err", err)
		}
		s.file = nil
	}
	s.offset = 0
}

func (s *fileSource) position() (int64, int64) {
	return s.offset, s.length
}
