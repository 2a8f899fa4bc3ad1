package engine

import "github.com/samaelod/usmu/types"

// Event is delivered to the presentation layer through Engine.Events().
// Every session failure surfaces either as a returned error or as one
// of these, never both and never silently.
type Event interface {
	event()
}

// PacketReceived announces an inbound chunk or datagram appended to a
// session's log.
type PacketReceived struct {
	SessionID int
	Entry     types.LogEntry
}

// SessionStateChanged announces a lifecycle transition. Cause is non-nil
// only for transitions into Failed.
type SessionStateChanged struct {
	SessionID int
	State     types.SessionState
	Cause     error
}

// ReplayProgress announces one scripted send completed.
type ReplayProgress struct {
	ReplayID  int
	SessionID int
	Sent      int
	Total     int
}

// ReplayFinished announces the end of a replay. FailedIndex is the
// offending script entry for an aborted replay, -1 otherwise.
type ReplayFinished struct {
	ReplayID    int
	SessionID   int
	Outcome     ReplayOutcome
	FailedIndex int
	Cause       error
}

func (PacketReceived) event()      {}
func (SessionStateChanged) event() {}
func (ReplayProgress) event()      {}
func (ReplayFinished) event()      {}
