package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/sessionlog"
	"github.com/samaelod/usmu/transport"
	"github.com/samaelod/usmu/types"
)

// ErrInvalidState is returned for commands issued outside the state
// they are valid in (send before Open, connect after Idle, ...).
var ErrInvalidState = errors.New("operation not valid in current session state")

const sendQueueSize = 1

// Session owns one network connection's lifecycle: a transport, a packet
// log, and the pair of loops that keep inbound delivery independent of
// outbound sends. States: Idle -> Connecting -> Open -> {Closed|Failed},
// with Failed reachable from Connecting and Open. Terminal states are
// final; the log stays exportable after.
type Session struct {
	id       int
	endpoint types.Endpoint
	initial  *types.Payload

	tr  transport.Transport
	log *sessionlog.Log

	mu    sync.Mutex
	state types.SessionState

	sendCh chan sendRequest
	cancel context.CancelFunc
	done   chan struct{}

	emit func(Event)
}

type sendRequest struct {
	data   []byte
	result chan error
}

// NewSession builds an Idle session around an owned transport. emit may
// be nil for headless use; initial, if non-nil, is sent right after a
// successful connect.
func NewSession(id int, ep types.Endpoint, tr transport.Transport, initial *types.Payload, emit func(Event)) *Session {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Session{
		id:       id,
		endpoint: ep,
		initial:  initial,
		tr:       tr,
		log:      sessionlog.New(),
		state:    types.Idle,
		sendCh:   make(chan sendRequest, sendQueueSize),
		done:     make(chan struct{}),
		emit:     emit,
	}
}

func (s *Session) ID() int                  { return s.id }
func (s *Session) Endpoint() types.Endpoint { return s.endpoint }
func (s *Session) Log() *sessionlog.Log     { return s.log }

func (s *Session) State() types.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect drives Idle -> Connecting -> Open, sends the configured
// initial payload if any, and starts the receive loop and write pump.
// On transport failure the session lands in Failed and the cause is
// both logged and returned.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state != types.Idle {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: connect from %s", ErrInvalidState, st)
	}
	s.state = types.Connecting
	s.mu.Unlock()
	s.log.AppendSystem("connecting")
	s.emit(SessionStateChanged{SessionID: s.id, State: types.Connecting})

	if err := s.tr.Connect(ctx); err != nil {
		s.fail(err)
		return err
	}

	// Close may have landed while the dial was in flight; a terminal
	// session must never come back up.
	s.mu.Lock()
	if s.state != types.Connecting {
		st := s.state
		s.mu.Unlock()
		_ = s.tr.Close()
		return fmt.Errorf("%w: connect from %s", ErrInvalidState, st)
	}
	s.state = types.Open
	s.mu.Unlock()
	s.log.AppendSystem("connected")
	s.emit(SessionStateChanged{SessionID: s.id, State: types.Open})

	if s.initial != nil && len(s.initial.Data) > 0 {
		if err := s.tr.Send(s.initial.Data); err != nil {
			s.fail(err)
			return err
		}
		s.log.AppendSent(*s.initial)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(runCtx)
	return nil
}

// run joins the receive loop and the write pump; whichever fails first
// tears the other down through the shared context.
func (s *Session) run(ctx context.Context) {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return s.readLoop(ctx) })
	group.Go(func() error { return s.writeLoop(ctx) })
	err := group.Wait()
	close(s.done)

	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, net.ErrClosed):
		// Torn down locally; Close or fail already ran.
	case errors.Is(err, transport.ErrPeerClosed):
		s.closeWithNote("peer closed")
	default:
		s.fail(err)
	}
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		data, err := s.tr.Receive()
		if err != nil {
			return err
		}
		entry := s.log.AppendReceived(payload.FromBytes(data))
		s.emit(PacketReceived{SessionID: s.id, Entry: entry})

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (s *Session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.sendCh:
			err := s.tr.Send(req.data)
			req.result <- err
			if err != nil {
				return err
			}
		}
	}
}

// Send forwards a payload through the write pump and logs it on
// success. Valid only while Open; a transport failure drives the
// session to Failed and is returned to the caller.
func (s *Session) Send(p types.Payload) error {
	s.mu.Lock()
	if s.state != types.Open {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: send from %s", ErrInvalidState, st)
	}
	s.mu.Unlock()

	req := sendRequest{data: p.Data, result: make(chan error, 1)}
	select {
	case s.sendCh <- req:
	case <-s.done:
		return fmt.Errorf("%w: send from %s", ErrInvalidState, s.State())
	}

	select {
	case err := <-req.result:
		if err != nil {
			s.fail(err)
			return err
		}
	case <-s.done:
		return fmt.Errorf("%w: send from %s", ErrInvalidState, s.State())
	}

	s.log.AppendSent(p)
	return nil
}

// Close releases the transport and finishes the session. Valid from any
// state; closing an already-terminal session is a no-op, so calling it
// twice appends exactly one "closed" entry.
func (s *Session) Close() error {
	return s.closeWithNote("closed")
}

func (s *Session) closeWithNote(note string) error {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return nil
	}
	s.state = types.Closed
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	err := s.tr.Close()
	s.log.AppendSystem(note)
	s.emit(SessionStateChanged{SessionID: s.id, State: types.Closed})
	return err
}

// fail moves the session into Failed once, releasing the transport and
// putting the cause in both the log and the event stream.
func (s *Session) fail(cause error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = types.Failed
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	_ = s.tr.Close()
	s.log.AppendSystem("error: " + cause.Error())
	s.emit(SessionStateChanged{SessionID: s.id, State: types.Failed, Cause: cause})
}
