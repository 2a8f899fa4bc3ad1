// Package lua reads and writes replay scripts authored as Lua files.
// A script file returns a table with a records list; because it is Lua,
// payloads may be computed rather than typed out.
package lua

import (
	"fmt"
	"time"

	"github.com/yuin/gluamapper"
	lua "github.com/yuin/gopher-lua"

	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/sessionlog"
	"github.com/samaelod/usmu/types"
)

type luaScript struct {
	Records []luaRecord
}

type luaRecord struct {
	Data     string
	Encoding string
	Delay    int64 // ms before this send
}

// ReadScript loads a replay script from a Lua file. The file must
// return a table shaped like:
//
//	return {
//	    records = {
//	        { data = "50494e47", encoding = "hex", delay = 0 },
//	        { data = "quit", encoding = "ascii", delay = 250 },
//	    },
//	}
func ReadScript(path string) (types.ReplayScript, error) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return types.ReplayScript{}, err
	}

	// Lua file returns the script table
	lv := L.Get(-1)
	table, ok := lv.(*lua.LTable)
	if !ok {
		return types.ReplayScript{}, fmt.Errorf("%s: lua file did not return a table", path)
	}

	var raw luaScript
	if err := gluamapper.Map(table, &raw); err != nil {
		return types.ReplayScript{}, err
	}
	return convert(raw)
}

func convert(raw luaScript) (types.ReplayScript, error) {
	if len(raw.Records) == 0 {
		return types.ReplayScript{}, sessionlog.ErrEmptyScript
	}

	var script types.ReplayScript
	for i, rec := range raw.Records {
		if rec.Delay < 0 {
			return types.ReplayScript{}, &sessionlog.ParseError{Index: i, Field: "delay", Reason: "negative"}
		}
		enc, err := types.ParseEncoding(rec.Encoding)
		if err != nil {
			return types.ReplayScript{}, &sessionlog.ParseError{Index: i, Field: "encoding", Reason: err.Error()}
		}
		p, err := payload.Encode(rec.Data, enc)
		if err != nil {
			return types.ReplayScript{}, &sessionlog.ParseError{Index: i, Field: "data", Reason: err.Error()}
		}
		script.Records = append(script.Records, types.ReplayRecord{
			Delay:   time.Duration(rec.Delay) * time.Millisecond,
			Payload: p,
		})
	}
	return script, nil
}
