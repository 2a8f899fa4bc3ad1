package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samaelod/usmu/types"
)

// ErrReplayCancelled marks a replay aborted by operator request rather
// than by a failing send.
var ErrReplayCancelled = errors.New("replay cancelled")

// ReplayOutcome is the terminal result of a replay.
type ReplayOutcome int

const (
	ReplayCompleted ReplayOutcome = iota
	ReplayAborted
)

func (o ReplayOutcome) String() string {
	switch o {
	case ReplayCompleted:
		return "Completed"
	case ReplayAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// ReplayState tracks the runner: Idle -> Running -> Done.
type ReplayState int

const (
	ReplayIdle ReplayState = iota
	ReplayRunning
	ReplayDone
)

// Replay drives a recorded script into a session, one send at a time,
// honoring recorded delays (or a fixed interval when configured). At
// most one replay drives a given session; replays of other sessions
// are unaffected.
type Replay struct {
	id      int
	session *Session
	script  types.ReplayScript

	// interval overrides the recorded gap before every entry after the
	// first; zero keeps recorded timing.
	interval time.Duration

	cancel context.CancelFunc
	emit   func(Event)

	mu      sync.Mutex
	state   ReplayState
	outcome ReplayOutcome
	sent    int
}

func (r *Replay) ID() int        { return r.id }
func (r *Replay) SessionID() int { return r.session.id }

func (r *Replay) State() ReplayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Outcome is meaningful once State returns ReplayDone.
func (r *Replay) Outcome() ReplayOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Sent returns how many script entries have been issued so far.
func (r *Replay) Sent() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// Cancel requests a cooperative stop. It is honored at the next delay
// boundary; an in-flight send is never interrupted.
func (r *Replay) Cancel() {
	r.cancel()
}

// run issues the script sequentially. The delay-then-send step yields
// during the wait, so other sessions keep making progress. On a send
// failure the replay aborts at that index but leaves the session open
// for whatever responses are still arriving.
func (r *Replay) run(ctx context.Context) {
	r.mu.Lock()
	r.state = ReplayRunning
	r.mu.Unlock()

	total := len(r.script.Records)
	for i, rec := range r.script.Records {
		delay := rec.Delay
		if r.interval > 0 && i > 0 {
			delay = r.interval
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				r.finish(ReplayAborted, i, ErrReplayCancelled)
				return
			}
		} else {
			select {
			case <-ctx.Done():
				r.finish(ReplayAborted, i, ErrReplayCancelled)
				return
			default:
			}
		}

		if err := r.session.Send(rec.Payload); err != nil {
			r.finish(ReplayAborted, i, err)
			return
		}

		r.mu.Lock()
		r.sent = i + 1
		r.mu.Unlock()
		r.emit(ReplayProgress{ReplayID: r.id, SessionID: r.session.id, Sent: i + 1, Total: total})
	}

	r.finish(ReplayCompleted, -1, nil)
}

func (r *Replay) finish(outcome ReplayOutcome, failedIndex int, cause error) {
	r.mu.Lock()
	r.state = ReplayDone
	r.outcome = outcome
	r.mu.Unlock()

	r.emit(ReplayFinished{
		ReplayID:    r.id,
		SessionID:   r.session.id,
		Outcome:     outcome,
		FailedIndex: failedIndex,
		Cause:       cause,
	})
}
