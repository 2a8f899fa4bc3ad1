package types

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Protocol selects the transport variant used by a session.
type Protocol string

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// ParseProtocol maps a config/CLI string to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tcp":
		return TCP, nil
	case "udp":
		return UDP, nil
	default:
		return "", fmt.Errorf("unknown protocol %q", s)
	}
}

// Encoding identifies the textual form a payload was authored in.
type Encoding string

const (
	Hex   Encoding = "hex"
	Ascii Encoding = "ascii"
)

// ParseEncoding maps a config/script string to an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex":
		return Hex, nil
	case "ascii":
		return Ascii, nil
	default:
		return "", fmt.Errorf("unknown encoding %q", s)
	}
}

// Endpoint identifies a network target. Immutable once a session is built.
type Endpoint struct {
	Protocol Protocol
	Host     string
	Port     int
}

// Addr returns the host:port form used for dialing.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return string(e.Protocol) + "://" + e.Addr()
}

func (e Endpoint) Validate() error {
	if e.Protocol != TCP && e.Protocol != UDP {
		return fmt.Errorf("unknown protocol %q", e.Protocol)
	}
	if e.Host == "" {
		return fmt.Errorf("empty host")
	}
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("port %d out of range", e.Port)
	}
	return nil
}

// Payload is an owned byte sequence plus the form it was authored in.
// Text holds the normalized operator text (whitespace stripped, case kept)
// so log exports round-trip to what was typed. Payloads built from received
// bytes carry lowercase hex text.
type Payload struct {
	Data     []byte
	Encoding Encoding
	Text     string
}

// Direction of a log entry.
type Direction int

const (
	Sent Direction = iota
	Received
	SystemEvent
)

func (d Direction) String() string {
	switch d {
	case Sent:
		return "Sent"
	case Received:
		return "Received"
	case SystemEvent:
		return "System"
	default:
		return "Unknown"
	}
}

// SessionState is a session's lifecycle state.
type SessionState int

const (
	Idle SessionState = iota
	Connecting
	Open
	Closed
	Failed
)

func (s SessionState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s SessionState) Terminal() bool {
	return s == Closed || s == Failed
}

// LogEntry is one event in a session's packet log. Payload is nil for
// SystemEvent entries; Note carries the system text ("connected", ...).
type LogEntry struct {
	Seq       uint64
	Time      time.Time
	Direction Direction
	Payload   *Payload
	Note      string
}

// ReplayRecord is one scripted send: the time to wait since the previous
// scripted send (zero for the first), then the payload to issue.
type ReplayRecord struct {
	Delay   time.Duration
	Payload Payload
}

// ReplayScript is the sends-only subset of a session log, in original order.
// It never carries received data, so replay output cannot become script input.
type ReplayScript struct {
	Records []ReplayRecord
}
