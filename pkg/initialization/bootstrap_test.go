package initialization

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"unpack/pkg/paths"
	"unpack/pkg/stream"
	"unpack/pkg/unpack"
)

func TestExitCode(t *testing.T) {
	transport := &stream.TransportError{Op: "connect", Err: errors.New("refused")}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), ExitInterrupted},
		{"status", &stream.StatusError{Code: 404}, ExitSource},
		{"file", &stream.FileAccessError{Path: "/x", Err: os.ErrNotExist}, ExitSource},
		{"transport", transport, ExitSource},
		{"transport inside engine", &unpack.ArchiveError{Op: "zip open", Err: transport}, ExitSource},
		{"engine", &unpack.ArchiveError{Op: "zip open", Err: errors.New("not a valid zip file")}, ExitArchive},
		{"entry", &unpack.EntryError{Name: "../x", Detail: "path escapes output directory"}, ExitArchive},
		{"unsupported", unpack.ErrUnsupportedFormat, ExitArchive},
		{"other", errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("%s: ExitCode = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestBootstrap(t *testing.T) {
	t.Setenv(paths.DataDirEnv, t.TempDir())
	t.Setenv("UNPACK_BACKPRESSURE_CHUNKS", "3")

	comp, err := Bootstrap()
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if comp.Options.Stream.Backpressure != 3 {
		t.Errorf("expected backpressure 3, got %d", comp.Options.Stream.Backpressure)
	}
	if len(comp.Options.Encodings) == 0 {
		t.Error("expected candidate encodings")
	}
}
