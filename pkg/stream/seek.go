package stream

import "io"

// resolveSeek computes the absolute offset for a seek request. length < 0
// means the total size is unknown. It performs no I/O.
func resolveSeek(current, length, offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		return offset, nil
	case io.SeekCurrent:
		return current + offset, nil
	case io.SeekEnd:
		if length < 0 {
			return 0, ErrLengthUnknown
		}
		return length + offset, nil
	default:
		return 0, ErrInvalidWhence
	}
}

// inRange reports whether offset addresses a byte of a resource of the
// given length.
func inRange(offset, length int64) bool {
	return length >= 0 && offset >= 0 && offset < length
}
