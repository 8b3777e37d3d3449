package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"unpack/pkg/logger"
)

type httpSource struct {
	opts Options
	ctx  context.Context

	// Parsed URL components, constant across connections.
	uri    string
	host   string
	port   string
	useTLS bool

	// Current connection; nil while closed or while a seek target is
	// waiting for the next read.
	link *connection

	// Stream state, persists across reconnections.
	offset int64
	length int64

	opened bool
}

func newHTTPSource(uri string, opts Options) (*httpSource, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", uri, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid url %q: unsupported scheme %q", uri, u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid url %q: missing host", uri)
	}

	s := &httpSource{
		opts:   opts,
		uri:    uri,
		host:   u.Hostname(),
		port:   u.Port(),
		useTLS: u.Scheme == "https",
		length: -1,
	}
	if s.port == "" {
		if s.useTLS {
			s.port = "443"
		} else {
			s.port = "80"
		}
	}
	return s, nil
}

func (s *httpSource) open(ctx context.Context) error {
	s.closeLink()
	s.ctx = ctx
	s.offset = 0
	s.opened = true
	return s.connect(false)
}

// connect replaces the current connection with a fresh one positioned at
// s.offset. The Range header is sent only when useRange is set and the
// current position forms a valid sub-range.
func (s *httpSource) connect(useRange bool) error {
	s.closeLink()

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.ConnectTimeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	c := newConnection(s.opts)
	if err := s.handshake(ctx, c, useRange && s.isRangeValid(), deadline); err != nil {
		c.close()
		return err
	}
	s.link = c
	c.startRead()
	return nil
}

func (s *httpSource) handshake(ctx context.Context, c *connection, ranged bool, deadline time.Time) error {
	if err := c.dial(ctx, s.host, s.port, s.useTLS); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.uri, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Connection", "keep-alive")
	if ranged {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", s.offset, s.length-1))
	}

	if err := c.exchange(req, deadline); err != nil {
		return err
	}

	status := c.resp.StatusCode
	if status != http.StatusOK && status != http.StatusPartialContent {
		c.setState(stateError)
		return &StatusError{Code: status}
	}

	if status == http.StatusOK {
		if c.resp.ContentLength >= 0 {
			s.length = c.resp.ContentLength
		}
		// A server that ignores Range answers 200 from byte zero.
		if ranged {
			c.skip = s.offset
		}
	}

	if status == http.StatusPartialContent {
		if cr := c.resp.Header.Get("Content-Range"); cr != "" {
			start, _, _, err := parseContentRange(cr)
			if err != nil {
				c.setState(stateError)
				return &TransportError{Op: "range response", Err: err}
			}
			if start != s.offset {
				c.setState(stateError)
				return &TransportError{
					Op:  "range response",
					Err: fmt.Errorf("content range starts at %d, requested %d", start, s.offset),
				}
			}
		}
	}

	logger.Debug("HTTP stream connected", "conn", c.id, "url", s.uri, "status", status,
		"offset", s.offset, "length", s.length, "ranged", ranged)
	return nil
}

func (s *httpSource) read() ([]byte, error) {
	if !s.opened {
		return nil, ErrNotOpen
	}

	if s.link == nil {
		if err := s.resolveDeferred(); err != nil || s.link == nil {
			return nil, err
		}
	}

	c := s.link
	c.loop.poll()

	for {
		if chunk, ok := c.pop(); ok {
			s.offset += int64(len(chunk))
			return chunk, nil
		}
		if c.err != nil {
			return nil, c.err
		}
		if c.eof {
			return nil, nil
		}

		c.startRead()
		if !c.loop.runOne() {
			// nothing in flight
			return nil, nil
		}
	}
}

// resolveDeferred handles a read issued while no connection exists, which
// happens after a seek to a position outside [0, length).
func (s *httpSource) resolveDeferred() error {
	switch {
	case s.length >= 0 && s.offset == s.length:
		return nil
	case s.isRangeValid():
		return s.connect(true)
	case s.length < 0 && s.offset == 0:
		return s.connect(false)
	default:
		return fmt.Errorf("%w: offset %d, length %d", ErrOutOfRange, s.offset, s.length)
	}
}

func (s *httpSource) seek(offset int64, whence int) (int64, error) {
	if !s.opened {
		return 0, ErrNotOpen
	}

	s.closeLink()

	target, err := resolveSeek(s.offset, s.length, offset, whence)
	if err != nil {
		return 0, err
	}
	s.offset = target

	if s.isRangeValid() {
		if err := s.connect(true); err != nil {
			return 0, err
		}
	}
	return s.offset, nil
}

func (s *httpSource) close() {
	s.closeLink()
	s.opened = false
}

func (s *httpSource) closeLink() {
	if s.link != nil {
		s.link.close()
		s.link = nil
	}
}

func (s *httpSource) position() (int64, int64) {
	return s.offset, s.length
}

func (s *httpSource) isRangeValid() bool {
	return inRange(s.offset, s.length)
}

// parseContentRange parses a Content-Range header value.
// Returns start, end, total bytes. Total may be -1 if unknown.
func parseContentRange(header string) (start, end, total int64, err error) {
	// Format: bytes start-end/total or bytes start-end/*
	header = strings.TrimPrefix(header, "bytes ")
	parts := strings.Split(header, "/")
	if len(parts) != 2 {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range format: %s", header)
	}

	rangeParts := strings.Split(parts[0], "-")
	if len(rangeParts) != 2 {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range format: %s", header)
	}

	start, err = strconv.ParseInt(rangeParts[0], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid start byte: %w", err)
	}

	end, err = strconv.ParseInt(rangeParts[1], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid end byte: %w", err)
	}

	if parts[1] == "*" {
		total = -1
	} else {
		total, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid total bytes: %w", err)
		}
	}

	return start, end, total, nil
}
