// Package transport wraps one TCP stream or one UDP socket behind a
// uniform send/receive capability. A transport's OS resource is owned
// exclusively by the session driving it and is released exactly once.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/samaelod/usmu/types"
)

// Transport is the capability set a session drives.
type Transport interface {
	// Connect establishes the transport. TCP dials the endpoint; UDP
	// binds a local socket and records the endpoint as the default
	// send target without any handshake.
	Connect(ctx context.Context) error
	// Send writes the whole buffer or fails. TCP retries partial
	// writes internally; UDP transmits one datagram.
	Send(data []byte) error
	// Receive blocks for the next inbound chunk or datagram. It
	// returns ErrPeerClosed when a TCP peer closes the stream.
	Receive() ([]byte, error)
	// Close releases the OS resource. Idempotent: closing an
	// already-closed transport is a no-op, never an error.
	Close() error
}

// New returns the adapter variant for the endpoint's protocol.
func New(ep types.Endpoint) (Transport, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	switch ep.Protocol {
	case types.TCP:
		return newTCP(ep), nil
	case types.UDP:
		return newUDP(ep), nil
	default:
		return nil, fmt.Errorf("unsupported protocol %q", ep.Protocol)
	}
}

// ErrPeerClosed is returned by Receive when the remote end closed the stream.
var ErrPeerClosed = errors.New("peer closed connection")

// ErrNotConnected is returned when sending or receiving before Connect.
var ErrNotConnected = errors.New("transport not connected")

// ConnectError reports a failed connection attempt.
type ConnectError struct {
	Endpoint types.Endpoint
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SendError reports a transport failure while sending.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return fmt.Sprintf("send: %v", e.Err) }

func (e *SendError) Unwrap() error { return e.Err }

// ReceiveError reports a transport failure while receiving.
type ReceiveError struct {
	Err error
}

func (e *ReceiveError) Error() string { return fmt.Sprintf("receive: %v", e.Err) }

func (e *ReceiveError) Unwrap() error { return e.Err }
