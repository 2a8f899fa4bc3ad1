package transport

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/samaelod/usmu/types"
)

// udpTransport owns one unconnected UDP socket bound to an ephemeral
// local port. The configured endpoint is only the default send target:
// Receive delivers datagrams from any sender, so peers that answer
// from a different port still get through.
type udpTransport struct {
	endpoint types.Endpoint
	conn     *net.UDPConn
	remote   *net.UDPAddr
	closed   atomic.Bool
	buf      []byte
}

func newUDP(ep types.Endpoint) *udpTransport {
	return &udpTransport{endpoint: ep, buf: make([]byte, maxDatagramLen)}
}

func (t *udpTransport) Connect(ctx context.Context) error {
	raddr, err := net.ResolveUDPAddr("udp", t.endpoint.Addr())
	if err != nil {
		return &ConnectError{Endpoint: t.endpoint, Err: err}
	}
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return &ConnectError{Endpoint: t.endpoint, Err: err}
	}
	t.conn = conn
	t.remote = raddr
	// A Close that raced socket creation has already spent the closed
	// flag; release the fresh socket here instead.
	if t.closed.Load() {
		_ = conn.Close()
		return &ConnectError{Endpoint: t.endpoint, Err: net.ErrClosed}
	}
	return nil
}

func (t *udpTransport) Send(data []byte) error {
	if t.conn == nil {
		return &SendError{Err: ErrNotConnected}
	}
	if _, err := t.conn.WriteToUDP(data, t.remote); err != nil {
		return &SendError{Err: err}
	}
	return nil
}

func (t *udpTransport) Receive() ([]byte, error) {
	if t.conn == nil {
		return nil, &ReceiveError{Err: ErrNotConnected}
	}
	n, _, err := t.conn.ReadFromUDP(t.buf)
	if err != nil {
		return nil, &ReceiveError{Err: err}
	}
	datagram := make([]byte, n)
	copy(datagram, t.buf[:n])
	return datagram, nil
}

func (t *udpTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
