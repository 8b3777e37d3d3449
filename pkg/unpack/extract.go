package unpack

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/gabriel-vasile/mimetype"
	"github.com/javi11/rardecode/v2"
	"github.com/javi11/sevenzip"

	"unpack/pkg/logger"
	"unpack/pkg/stream"
)

// Result summarizes one extraction.
type Result struct {
	Format  Format
	Entries int
	Bytes   int64
	Skipped int
}

// Run opens the stream, extracts every file entry and closes the stream.
// Directories are created as needed; entries other than regular files are
// skipped.
func (c *Context) Run(ctx context.Context) (*Result, error) {
	if err := c.stream.Open(ctx); err != nil {
		return nil, err
	}
	defer c.stream.Close()

	r := c.stream.Reader()
	format, err := c.sniff(r)
	if err != nil {
		return nil, err
	}
	if format == FormatRar && IsMiddleRarVolume(c.name) {
		return nil, &ArchiveError{Op: "rar", Err: fmt.Errorf("%s is not the first volume", c.name)}
	}

	length, known := c.stream.Length()
	if format.RandomAccess() && !known {
		return nil, &ArchiveError{Op: string(format), Err: stream.ErrLengthUnknown}
	}
	logger.Info("Unpacking archive", "uri", c.stream.URI(), "id", c.id, "format", format, "size", length)

	res := &Result{Format: format}
	switch format {
	case FormatZip:
		err = c.extractZip(ctx, r, res)
	case Format7z:
		err = c.extract7z(ctx, r, res)
	case FormatRar:
		err = c.extractRar(ctx, r, res)
	case FormatTar:
		err = c.extractTar(ctx, r, res)
	case FormatTarGz:
		err = c.extractTarGz(ctx, r, res)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return res, err
	}

	logger.Info("Unpacked archive", "id", c.id, "entries", res.Entries, "bytes", res.Bytes, "skipped", res.Skipped)
	return res, nil
}

// sniff detects the format from the first bytes and rewinds the stream.
func (c *Context) sniff(r *stream.Reader) (Format, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return FormatUnknown, &ArchiveError{Op: "detect format", Err: err}
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return FormatUnknown, &ArchiveError{Op: "rewind", Err: err}
	}

	format := DetectFormat(m, c.name)
	logger.Debug("Detected archive format", "id", c.id, "mime", m.String(), "format", format)
	return format, nil
}

// readerAt buffers random access for zip and 7z. Run has already checked
// that the length is known.
func (c *Context) readerAt(r *stream.Reader) (io.ReaderAt, int64) {
	size, _ := c.stream.Length()
	return bufra.NewBufReaderAt(r, c.bufSize), size
}

func (c *Context) extractZip(ctx context.Context, r *stream.Reader, res *Result) error {
	ra, size := c.readerAt(r)
	zr, err := zip.NewReader(ra, size)
	// insecure names are rejected per entry by OutputPath
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return &ArchiveError{Op: "zip open", Err: err}
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !f.Mode().IsRegular() {
			c.skip(f.Name, f.Mode(), res)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return &ArchiveError{Op: "zip entry", Err: fmt.Errorf("%s: %w", f.Name, err)}
		}
		err = c.writeEntry(ctx, f.Name, f.Mode(), rc, res)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) extract7z(ctx context.Context, r *stream.Reader, res *Result) error {
	ra, size := c.readerAt(r)
	zr, err := sevenzip.NewReader(ra, size)
	if err != nil {
		return &ArchiveError{Op: "7z open", Err: err}
	}

	for _, f := range zr.File {
		info := f.FileInfo()
		if info.IsDir() {
			continue
		}
		if !info.Mode().IsRegular() {
			c.skip(f.Name, info.Mode(), res)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return &ArchiveError{Op: "7z entry", Err: fmt.Errorf("%s: %w", f.Name, err)}
		}
		err = c.writeEntry(ctx, f.Name, info.Mode(), rc, res)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) extractRar(ctx context.Context, r *stream.Reader, res *Result) error {
	rr, err := rardecode.NewReader(r)
	if err != nil {
		return &ArchiveError{Op: "rar open", Err: err}
	}

	for {
		hdr, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &ArchiveError{Op: "rar next header", Err: err}
		}
		if hdr.IsDir {
			continue
		}
		if mode := hdr.Mode(); !mode.IsRegular() {
			c.skip(hdr.Name, mode, res)
			continue
		}
		if err := c.writeEntry(ctx, hdr.Name, hdr.Mode(), rr, res); err != nil {
			return err
		}
	}
}

func (c *Context) extractTarGz(ctx context.Context, r *stream.Reader, res *Result) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return &ArchiveError{Op: "gzip open", Err: err}
	}
	defer gz.Close()
	return c.extractTar(ctx, gz, res)
}

func (c *Context) extractTar(ctx context.Context, r io.Reader, res *Result) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return &EntryError{Name: hdr.Name, Detail: "path escapes output directory"}
		}
		if err != nil {
			return &ArchiveError{Op: "tar next header", Err: err}
		}

		mode := hdr.FileInfo().Mode()
		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
			if err := c.writeEntry(ctx, hdr.Name, mode, tr, res); err != nil {
				return err
			}
		default:
			c.skip(hdr.Name, mode, res)
		}
	}
}

func (c *Context) skip(name string, mode fs.FileMode, res *Result) {
	logger.Debug("Skipping non-regular entry", "id", c.id, "name", name, "mode", mode.String())
	res.Skipped++
}

// writeEntry copies one entry to its output path.
func (c *Context) writeEntry(ctx context.Context, name string, mode fs.FileMode, src io.Reader, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := c.OutputPath(name)
	if err != nil {
		return err
	}
	if err := c.out.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &EntryError{Name: name, Detail: err.Error()}
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	f, err := c.out.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return &EntryError{Name: name, Detail: err.Error()}
	}

	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: src})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	res.Bytes += n
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ArchiveError{Op: "extract", Err: fmt.Errorf("%s: %w", name, err)}
	}

	res.Entries++
	logger.Debug("Extracted entry", "id", c.id, "path", target, "bytes", n)
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
