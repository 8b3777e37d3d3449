package unpack

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format identifies an archive container.
type Format string

const (
	FormatUnknown Format = ""
	FormatZip     Format = "zip"
	Format7z      Format = "7z"
	FormatRar     Format = "rar"
	FormatTar     Format = "tar"
	FormatTarGz   Format = "tar.gz"
)

// Extension constants
const (
	ExtRar = ".rar"
	ExtZip = ".zip"
	Ext7z  = ".7z"
	ExtTar = ".tar"
	ExtTgz = ".tgz"
	ExtGz  = ".gz"
)

// RandomAccess reports whether the format needs io.ReaderAt over a stream
// of known length.
func (f Format) RandomAccess() bool {
	return f == FormatZip || f == Format7z
}

var mimeFormats = []struct {
	mime   string
	format Format
}{
	{"application/zip", FormatZip},
	{"application/x-7z-compressed", Format7z},
	{"application/x-rar-compressed", FormatRar},
	{"application/x-tar", FormatTar},
	{"application/gzip", FormatTarGz},
}

// DetectFormat maps a sniffed MIME type to a format, walking up the MIME
// tree so zip-based documents still resolve to zip. When sniffing yields
// nothing usable the file name extension decides.
func DetectFormat(m *mimetype.MIME, name string) Format {
	for ; m != nil; m = m.Parent() {
		for _, mf := range mimeFormats {
			if m.Is(mf.mime) {
				return mf.format
			}
		}
	}
	return FormatFromName(name)
}

// FormatFromName guesses the format from the file name extension.
func FormatFromName(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ExtZip):
		return FormatZip
	case strings.HasSuffix(lower, Ext7z):
		return Format7z
	case strings.HasSuffix(lower, ExtRar), IsRarPart(lower):
		return FormatRar
	case strings.HasSuffix(lower, ExtTar):
		return FormatTar
	case strings.HasSuffix(lower, ExtTar+ExtGz), strings.HasSuffix(lower, ExtTgz):
		return FormatTarGz
	default:
		return FormatUnknown
	}
}

// IsRarPart checks if extension is .rXX (e.g. .r01, .r99)
func IsRarPart(name string) bool {
	if len(name) < 4 {
		return false
	}

	// Check last 4 chars: .rNN
	ext := name[len(name)-4:]
	if ext[0] != '.' || ext[1] != 'r' {
		return false
	}

	return isDigit(ext[2]) && isDigit(ext[3])
}

// IsMiddleRarVolume checks if a RAR file is a middle volume (not the first)
func IsMiddleRarVolume(name string) bool {
	name = strings.ToLower(name)

	// Match .partXX.rar format
	if strings.Contains(name, ".part") && strings.HasSuffix(name, ExtRar) {
		// part10 must not match part1, so the dot after the number matters
		if strings.Contains(name, ".part1.rar") ||
			strings.Contains(name, ".part01.rar") ||
			strings.Contains(name, ".part001.rar") {
			return false
		}
		return true
	}

	// .r00 or .rar is the first volume, .r01+ are middle volumes
	if IsRarPart(name) {
		return name[len(name)-2:] != "00"
	}

	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
