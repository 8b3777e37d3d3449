package unpack

import (
	"testing"

	"github.com/gabriel-vasile/mimetype"
)

func TestFormatFromName(t *testing.T) {
	tests := map[string]Format{
		"a.zip":        FormatZip,
		"A.7Z":         Format7z,
		"a.rar":        FormatRar,
		"a.r00":        FormatRar,
		"a.tar":        FormatTar,
		"a.tar.gz":     FormatTarGz,
		"a.tgz":        FormatTarGz,
		"a.mkv":        FormatUnknown,
		"":             FormatUnknown,
		"archive.part": FormatUnknown,
	}
	for name, want := range tests {
		if got := FormatFromName(name); got != want {
			t.Errorf("FormatFromName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestDetectFormatPrefersContent(t *testing.T) {
	m := mimetype.Detect([]byte("7z\xbc\xaf\x27\x1c\x00\x04"))
	if got := DetectFormat(m, "mislabeled.zip"); got != Format7z {
		t.Errorf("expected 7z from magic bytes, got %q", got)
	}

	m = mimetype.Detect([]byte("plain text"))
	if got := DetectFormat(m, "fallback.tar"); got != FormatTar {
		t.Errorf("expected extension fallback to tar, got %q", got)
	}
}

func TestIsMiddleRarVolume(t *testing.T) {
	tests := map[string]bool{
		"movie.rar":         false,
		"movie.part1.rar":   false,
		"movie.part01.rar":  false,
		"movie.part001.rar": false,
		"movie.part02.rar":  true,
		"movie.part10.rar":  true,
		"movie.r00":         false,
		"movie.r01":         true,
		"movie.zip":         false,
	}
	for name, want := range tests {
		if got := IsMiddleRarVolume(name); got != want {
			t.Errorf("IsMiddleRarVolume(%q) = %v, want %v", name, got, want)
		}
	}
}
