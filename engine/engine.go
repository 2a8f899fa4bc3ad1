// Package engine owns the live sessions and replays and exposes the
// command and event surfaces a presentation layer drives. It has no
// dependency on any window or rendering concept; the TUI and the CLI
// are both just consumers.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samaelod/usmu/sessionlog"
	"github.com/samaelod/usmu/transport"
	"github.com/samaelod/usmu/types"
)

var (
	ErrSessionNotFound = errors.New("unknown session id")
	ErrReplayNotFound  = errors.New("unknown replay id")
)

// ExportFormat selects a log serialization.
type ExportFormat int

const (
	// ExportHuman is the line-oriented inspection format.
	ExportHuman ExportFormat = iota
	// ExportReplay is the machine-replayable JSON format.
	ExportReplay
)

const eventBufferSize = 256

// Engine is the session registry plus the replay registry. Sessions are
// fully independent of each other; the engine's mutex guards only the
// maps, never any per-session state.
type Engine struct {
	mu            sync.Mutex
	sessions      map[int]*Session
	replays       map[int]*Replay
	nextSessionID int
	nextReplayID  int

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc

	// dial builds the transport for a new session's endpoint.
	dial func(types.Endpoint) (transport.Transport, error)

	Log *Logger
}

// New builds an engine. logPath may be empty for a memory-only
// diagnostic log.
func New(logPath string, logLines int) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		sessions: make(map[int]*Session),
		replays:  make(map[int]*Replay),
		events:   make(chan Event, eventBufferSize),
		ctx:      ctx,
		cancel:   cancel,
		dial:     transport.New,
		Log:      NewLogger(logPath, logLines),
	}
}

// Events is the engine's event surface. The channel has a single
// consumer which must keep draining it while sessions are live.
func (e *Engine) Events() <-chan Event {
	return e.events
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.ctx.Done():
	}
}

// NewSession constructs a session for the endpoint, registers it, and
// connects. The id is valid even when connect fails: the failed session
// stays addressable so its log remains exportable.
func (e *Engine) NewSession(ep types.Endpoint, initial *types.Payload) (int, error) {
	tr, err := e.dial(ep)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	e.nextSessionID++
	id := e.nextSessionID
	s := NewSession(id, ep, tr, initial, e.emit)
	e.sessions[id] = s
	e.mu.Unlock()

	e.logf("session %d: connecting to %s", id, ep)
	if err := s.Connect(e.ctx); err != nil {
		e.logf("session %d: connect failed: %v", id, err)
		return id, err
	}
	e.logf("session %d: open", id)
	return id, nil
}

// Session resolves an id to its live (or terminal) session.
func (e *Engine) Session(id int) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
	}
	return s, nil
}

// Sessions lists all registered sessions in id order.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	out := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	e.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Send forwards a payload to an open session.
func (e *Engine) Send(id int, p types.Payload) error {
	s, err := e.Session(id)
	if err != nil {
		return err
	}
	if err := s.Send(p); err != nil {
		e.logf("session %d: send failed: %v", id, err)
		return err
	}
	return nil
}

// CloseSession closes a session. Closing twice is a no-op.
func (e *Engine) CloseSession(id int) error {
	s, err := e.Session(id)
	if err != nil {
		return err
	}
	e.logf("session %d: closed", id)
	return s.Close()
}

// ExportLog serializes a session's log in the requested format.
func (e *Engine) ExportLog(id int, format ExportFormat) ([]byte, error) {
	s, err := e.Session(id)
	if err != nil {
		return nil, err
	}
	switch format {
	case ExportHuman:
		return []byte(s.Log().ExportHuman()), nil
	case ExportReplay:
		script, err := s.Log().ExportReplay()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := sessionlog.WriteReplay(&buf, script); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown export format %d", format)
	}
}

// StartReplay opens a fresh session against the endpoint (which may
// differ from the script's origin) and plays the script into it.
// interval > 0 overrides the recorded gaps between sends.
func (e *Engine) StartReplay(script types.ReplayScript, ep types.Endpoint, interval time.Duration) (int, error) {
	if len(script.Records) == 0 {
		return 0, sessionlog.ErrEmptyScript
	}

	sid, err := e.NewSession(ep, nil)
	if err != nil {
		return 0, err
	}
	s, err := e.Session(sid)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithCancel(e.ctx)
	e.mu.Lock()
	e.nextReplayID++
	rid := e.nextReplayID
	r := &Replay{
		id:       rid,
		session:  s,
		script:   script,
		interval: interval,
		cancel:   cancel,
		emit:     e.emit,
	}
	e.replays[rid] = r
	e.mu.Unlock()

	e.logf("replay %d: %d entries into session %d", rid, len(script.Records), sid)
	go r.run(ctx)
	return rid, nil
}

// Replay resolves a replay id.
func (e *Engine) Replay(id int) (*Replay, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.replays[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrReplayNotFound, id)
	}
	return r, nil
}

// CancelReplay requests a cooperative stop of a running replay.
func (e *Engine) CancelReplay(id int) error {
	r, err := e.Replay(id)
	if err != nil {
		return err
	}
	e.logf("replay %d: cancel requested", id)
	r.Cancel()
	return nil
}

// Shutdown stops every replay, closes every session, and retires the
// event surface.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	replays := make([]*Replay, 0, len(e.replays))
	for _, r := range e.replays {
		replays = append(replays, r)
	}
	sessions := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	for _, r := range replays {
		r.Cancel()
	}
	for _, s := range sessions {
		_ = s.Close()
	}
	e.cancel()
	e.Log.Close()
}

func (e *Engine) logf(format string, args ...any) {
	ts := time.Now().Format("15:04:05")
	e.Log.Write(fmt.Sprintf("[%s] %s", ts, fmt.Sprintf(format, args...)))
}
