package stream

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"unpack/pkg/logger"
)

type connState int

const (
	stateIdle connState = iota
	stateResolving
	stateConnecting
	stateRequestSent
	stateHeadersReceived
	stateStreaming
	stateEOF
	stateError
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateResolving:
		return "resolving"
	case stateConnecting:
		return "connecting"
	case stateRequestSent:
		return "request_sent"
	case stateHeadersReceived:
		return "headers_received"
	case stateStreaming:
		return "streaming"
	case stateEOF:
		return "eof"
	case stateError:
		return "error"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// connection is one physical request/response exchange. It serves a single
// contiguous byte range and is never reused after close.
type connection struct {
	id    string
	state connState

	raw  net.Conn // the TCP socket, closed to cancel a pending read
	conn net.Conn // raw, or a TLS client over raw
	buf  *bufio.Reader
	resp *http.Response
	loop *loop

	queue    [][]byte
	bound    int
	readSize int

	// skip discards a prefix of the body when a server ignored our Range
	// header and answered from byte zero.
	skip int64

	eof     bool
	pending bool
	closing bool
	err     error

	// peak is the largest queue length observed right after a completion.
	peak int
}

func newConnection(opts Options) *connection {
	return &connection{
		id:       uuid.NewString(),
		state:    stateIdle,
		loop:     newLoop(),
		bound:    opts.Backpressure,
		readSize: opts.ReadSize,
	}
}

func (c *connection) setState(s connState) {
	if c.state == s {
		return
	}
	logger.Debug("Connection state", "conn", c.id, "from", c.state.String(), "to", s.String())
	c.state = s
}

// dial resolves host and connects to it. The caller's ctx carries the
// connect deadline.
func (c *connection) dial(ctx context.Context, host, port string, useTLS bool) error {
	c.setState(stateResolving)
	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		c.setState(stateError)
		return &TransportError{Op: "dns resolution", Err: err}
	}

	c.setState(stateConnecting)
	var dialer net.Dialer
	var lastErr error
	for _, addr := range addrs {
		raw, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, port))
		if err != nil {
			lastErr = err
			continue
		}
		c.raw = raw
		c.conn = raw
		break
	}
	if c.raw == nil {
		c.setState(stateError)
		return &TransportError{Op: "connect", Err: lastErr}
	}

	if useTLS {
		tc := tls.Client(c.raw, &tls.Config{ServerName: host})
		if err := tc.HandshakeContext(ctx); err != nil {
			c.setState(stateError)
			return &TransportError{Op: "tls handshake", Err: err}
		}
		c.conn = tc
	}

	c.buf = bufio.NewReader(c.conn)
	return nil
}

// exchange writes req and reads the response headers, leaving the body
// unread. The whole exchange is bounded by deadline.
func (c *connection) exchange(req *http.Request, deadline time.Time) error {
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.setState(stateError)
		return &TransportError{Op: "set deadline", Err: err}
	}

	if err := req.Write(c.conn); err != nil {
		c.setState(stateError)
		return &TransportError{Op: "request send", Err: err}
	}
	c.setState(stateRequestSent)

	resp, err := http.ReadResponse(c.buf, req)
	if err != nil {
		c.setState(stateError)
		return &TransportError{Op: "header read", Err: err}
	}
	c.resp = resp
	c.setState(stateHeadersReceived)

	// Body reads have no deadline.
	if err := c.conn.SetDeadline(time.Time{}); err != nil {
		c.setState(stateError)
		return &TransportError{Op: "set deadline", Err: err}
	}
	return nil
}

// startRead issues one asynchronous body read unless one is pending or the
// connection is finished.
func (c *connection) startRead() {
	if c.resp == nil || c.closing || c.eof || c.pending || c.err != nil {
		return
	}
	c.pending = true
	c.setState(stateStreaming)

	body := c.resp.Body
	size := c.readSize
	c.loop.start(func() func() {
		buf := make([]byte, size)
		n, err := body.Read(buf)
		return func() { c.onRead(buf[:n], err) }
	})
}

// onRead is the completion handler of startRead. It runs on the owner.
func (c *connection) onRead(data []byte, err error) {
	c.pending = false
	if c.closing {
		return
	}

	if c.skip > 0 && len(data) > 0 {
		drop := int64(len(data))
		if drop > c.skip {
			drop = c.skip
		}
		c.skip -= drop
		data = data[drop:]
	}
	if len(data) > 0 {
		c.queue = append(c.queue, data)
		if len(c.queue) > c.peak {
			c.peak = len(c.queue)
		}
	}

	switch {
	case errors.Is(err, io.EOF):
		c.eof = true
		c.setState(stateEOF)
		return
	case err != nil:
		c.err = &TransportError{Op: "body read", Err: err}
		c.setState(stateError)
		return
	}

	if len(c.queue) < c.bound {
		c.startRead()
	}
}

// pop removes the oldest chunk and re-arms the pipeline when the queue has
// room again.
func (c *connection) pop() ([]byte, bool) {
	if len(c.queue) == 0 {
		return nil, false
	}
	chunk := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	if len(c.queue) < c.bound {
		c.startRead()
	}
	return chunk, true
}

// buffered returns the number of undelivered chunks.
func (c *connection) buffered() int {
	return len(c.queue)
}

// close stops the pipeline, shuts the socket down so a pending read returns,
// and drains every completion before returning. After close no handler of
// this connection runs again.
func (c *connection) close() {
	if c.state == stateClosed {
		return
	}
	c.closing = true

	if c.raw != nil {
		_ = c.raw.Close()
	}
	c.loop.drain()

	c.queue = nil
	c.resp = nil
	c.buf = nil
	c.conn = nil
	c.raw = nil
	c.setState(stateClosed)
}
