package sessionlog

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/types"
)

// replayRecord is the wire form of one script entry. Pointers distinguish
// absent fields from zero values; unknown fields are ignored so the
// format can grow.
type replayRecord struct {
	DelayMS  *int64  `json:"delay_ms"`
	Encoding string  `json:"encoding"`
	Data     *string `json:"data"`
}

// ParseError rejects a malformed replay import, naming the first
// offending record and field. Nothing is mutated on a parse failure.
type ParseError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("replay script record %d: field %q: %s", e.Index, e.Field, e.Reason)
}

// WriteReplay serializes a script as a JSON array of records.
func WriteReplay(w io.Writer, script types.ReplayScript) error {
	records := make([]replayRecord, 0, len(script.Records))
	for _, r := range script.Records {
		delay := r.Delay.Milliseconds()
		text := payload.Decode(r.Payload)
		records = append(records, replayRecord{
			DelayMS:  &delay,
			Encoding: string(r.Payload.Encoding),
			Data:     &text,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// ReadReplay parses the replay export format. A record missing data,
// carrying a negative delay_ms, or naming an unknown encoding is a
// ParseError; a missing delay_ms means zero.
func ReadReplay(r io.Reader) (types.ReplayScript, error) {
	var records []replayRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return types.ReplayScript{}, &ParseError{Index: 0, Field: "script", Reason: err.Error()}
	}

	var script types.ReplayScript
	for i, rec := range records {
		if rec.Data == nil {
			return types.ReplayScript{}, &ParseError{Index: i, Field: "data", Reason: "missing"}
		}
		var delayMS int64
		if rec.DelayMS != nil {
			delayMS = *rec.DelayMS
		}
		if delayMS < 0 {
			return types.ReplayScript{}, &ParseError{Index: i, Field: "delay_ms", Reason: "negative"}
		}
		enc, err := types.ParseEncoding(rec.Encoding)
		if err != nil {
			return types.ReplayScript{}, &ParseError{Index: i, Field: "encoding", Reason: err.Error()}
		}
		p, err := payload.Encode(*rec.Data, enc)
		if err != nil {
			return types.ReplayScript{}, &ParseError{Index: i, Field: "data", Reason: err.Error()}
		}
		script.Records = append(script.Records, types.ReplayRecord{
			Delay:   time.Duration(delayMS) * time.Millisecond,
			Payload: p,
		})
	}
	return script, nil
}
