package sessionlog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/types"
)

// ErrEmptyScript is returned when a log holds nothing replayable.
var ErrEmptyScript = errors.New("log contains no sent entries")

const humanTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatEntry renders one entry as a human log line:
// seq, timestamp, direction, encoding (or "system"), payload text or note.
func FormatEntry(e types.LogEntry) string {
	ts := e.Time.Format(humanTimeLayout)
	if e.Direction == types.SystemEvent {
		return fmt.Sprintf("%d %s %s system %s", e.Seq, ts, e.Direction, e.Note)
	}
	return fmt.Sprintf("%d %s %s %s %s", e.Seq, ts, e.Direction, e.Payload.Encoding, payload.Decode(*e.Payload))
}

// ExportHuman renders the whole log, one line per entry. The output is
// for inspection only and is never re-imported.
func (l *Log) ExportHuman() string {
	var b strings.Builder
	for _, e := range l.Entries() {
		b.WriteString(FormatEntry(e))
		b.WriteByte('\n')
	}
	return b.String()
}

// ExportReplay filters the log to Sent entries and derives the time gap
// between consecutive sends. Received and system entries never reach
// the script.
func (l *Log) ExportReplay() (types.ReplayScript, error) {
	var script types.ReplayScript
	var prev time.Time
	for _, e := range l.Entries() {
		if e.Direction != types.Sent {
			continue
		}
		var delay time.Duration
		if !prev.IsZero() {
			delay = e.Time.Sub(prev)
		}
		prev = e.Time
		script.Records = append(script.Records, types.ReplayRecord{
			Delay:   delay,
			Payload: *e.Payload,
		})
	}
	if len(script.Records) == 0 {
		return types.ReplayScript{}, ErrEmptyScript
	}
	return script, nil
}
