// Package sessionlog records one session's packet history: an ordered,
// append-only sequence of sent/received/system entries with strictly
// increasing sequence numbers, exportable for humans or for replay.
package sessionlog

import (
	"sync"
	"time"

	"github.com/samaelod/usmu/types"
)

// Log is safe for concurrent appends; the inbound and outbound paths of
// a session both write to it, serialized here so sequence numbers stay
// strictly increasing even when a send and a receive race.
type Log struct {
	mu       sync.Mutex
	entries  []types.LogEntry
	nextSeq  uint64
	lastTime time.Time
}

func New() *Log {
	return &Log{}
}

// AppendSent records an operator (or replay) send.
func (l *Log) AppendSent(p types.Payload) types.LogEntry {
	return l.appendAt(types.Sent, &p, "", time.Now())
}

// AppendReceived records an inbound chunk or datagram.
func (l *Log) AppendReceived(p types.Payload) types.LogEntry {
	return l.appendAt(types.Received, &p, "", time.Now())
}

// AppendSystem records a lifecycle note ("connecting", "closed", ...).
func (l *Log) AppendSystem(note string) types.LogEntry {
	return l.appendAt(types.SystemEvent, nil, note, time.Now())
}

// appendAt assigns the next sequence number and clamps the timestamp so
// times never decrease within a log.
func (l *Log) appendAt(dir types.Direction, p *types.Payload, note string, t time.Time) types.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.Before(l.lastTime) {
		t = l.lastTime
	}
	l.lastTime = t

	entry := types.LogEntry{
		Seq:       l.nextSeq,
		Time:      t,
		Direction: dir,
		Payload:   p,
		Note:      note,
	}
	l.nextSeq++
	l.entries = append(l.entries, entry)
	return entry
}

// Entries returns a snapshot of the log in append order.
func (l *Log) Entries() []types.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
