// Package unpack extracts an archive read through a stream.Stream into an
// output directory.
package unpack

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"unpack/pkg/stream"
	"unpack/pkg/text"
)

// NodeStreamURL is the local endpoint that serves a node's content.
const NodeStreamURL = "http://localhost:%d/api/v1/nodes/%s/stream"

// Options configures a Context.
type Options struct {
	Stream stream.Options

	// Output receives extracted entries.
	// Default: afero.NewOsFs()
	Output afero.Fs

	// Encodings are the candidate entry name encodings, in order.
	// Default: text.DefaultEncodings
	Encodings []string

	// BufferSize is the read-ahead of the random-access adapter used for
	// zip and 7z.
	// Default: 1 MiB
	BufferSize int
}

const defaultBufferSize = 1 << 20

// Context binds one archive source to one destination. Entries land in
// <root>/<id>/<entry name>.
type Context struct {
	id   string
	name string
	root string

	stream  *stream.Stream
	out     afero.Fs
	decoder *text.Decoder
	bufSize int
}

// NewContext prepares extraction of the archive at uri into dest. The id
// is the archive's file name without its extension.
func NewContext(uri, dest string, opts Options) (*Context, error) {
	name, err := archiveName(uri)
	if err != nil {
		return nil, err
	}

	id := name
	if ext := path.Ext(name); ext != "" && ext != name {
		id = strings.TrimSuffix(name, ext)
	}
	return newContext(uri, id, name, dest, opts)
}

// NewNodeContext prepares extraction of the node id served by the local
// API on port.
func NewNodeContext(port uint16, id, dest string, opts Options) (*Context, error) {
	if id == "" {
		return nil, fmt.Errorf("unpack: empty node id")
	}
	uri := fmt.Sprintf(NodeStreamURL, port, url.PathEscape(id))
	return newContext(uri, id, id, dest, opts)
}

func newContext(uri, id, name, dest string, opts Options) (*Context, error) {
	s, err := stream.New(uri, opts.Stream)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = afero.NewOsFs()
	}
	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}

	return &Context{
		id:      id,
		name:    name,
		root:    dest,
		stream:  s,
		out:     out,
		decoder: text.NewDecoder(opts.Encodings),
		bufSize: bufSize,
	}, nil
}

func archiveName(uri string) (string, error) {
	p := uri
	if stream.IsRemote(uri) {
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("invalid url %q: %w", uri, err)
		}
		p = u.Path
	} else {
		p = filepath.ToSlash(p)
	}

	if p == "" || strings.HasSuffix(p, "/") {
		return "", ErrNoFilename
	}
	name := path.Base(p)
	if name == "." || name == ".." || name == "/" {
		return "", ErrNoFilename
	}
	return name, nil
}

func (c *Context) ID() string   { return c.id }
func (c *Context) Root() string { return c.root }

// OutputPath decodes a raw entry name and resolves it below <root>/<id>.
// Names that resolve outside that directory are rejected.
func (c *Context) OutputPath(raw string) (string, error) {
	if raw == "" {
		return "", &EntryError{Name: raw, Detail: "entry name is empty"}
	}
	name := c.decoder.ToUTF8([]byte(raw))

	base := filepath.Join(c.root, c.id)
	target := filepath.Join(base, filepath.FromSlash(name))

	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &EntryError{Name: name, Detail: "path escapes output directory"}
	}
	return target, nil
}
