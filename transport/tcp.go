package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/samaelod/usmu/types"
)

const (
	dialTimeout    = 5 * time.Second
	streamBufSize  = 4096
	maxDatagramLen = 64 * 1024
)

// tcpTransport owns one dialed TCP stream.
type tcpTransport struct {
	endpoint types.Endpoint
	conn     net.Conn
	closed   atomic.Bool
	buf      []byte
}

func newTCP(ep types.Endpoint) *tcpTransport {
	return &tcpTransport{endpoint: ep, buf: make([]byte, streamBufSize)}
}

func (t *tcpTransport) Connect(ctx context.Context) error {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.endpoint.Addr())
	if err != nil {
		return &ConnectError{Endpoint: t.endpoint, Err: err}
	}
	t.conn = conn
	// A Close that raced the dial has already spent the closed flag, so
	// it cannot release this conn; release it here instead.
	if t.closed.Load() {
		_ = conn.Close()
		return &ConnectError{Endpoint: t.endpoint, Err: net.ErrClosed}
	}
	return nil
}

func (t *tcpTransport) Send(data []byte) error {
	if t.conn == nil {
		return &SendError{Err: ErrNotConnected}
	}
	for len(data) > 0 {
		n, err := t.conn.Write(data)
		if err != nil {
			return &SendError{Err: err}
		}
		data = data[n:]
	}
	return nil
}

func (t *tcpTransport) Receive() ([]byte, error) {
	if t.conn == nil {
		return nil, &ReceiveError{Err: ErrNotConnected}
	}
	for {
		n, err := t.conn.Read(t.buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, t.buf[:n])
			return chunk, nil
		}
		if err == nil {
			// Read may legally return zero bytes with no error.
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil, ErrPeerClosed
		}
		return nil, &ReceiveError{Err: err}
	}
}

func (t *tcpTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
