package unpack

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unpack: unsupported archive format")
	ErrNoFilename        = errors.New("unpack: archive path does not have a filename")
)

// ArchiveError reports a failure of the archive engine during operation Op.
type ArchiveError struct {
	Op  string
	Err error
}

func (e *ArchiveError) Error() string {
	if e.Err == nil {
		return e.Op + ": (empty error message)"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// EntryError reports an entry that could not be placed under the output
// directory.
type EntryError struct {
	Name   string
	Detail string
}

func (e *EntryError) Error() string {
	return e.Name + ": " + e.Detail
}
