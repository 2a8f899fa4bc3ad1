package lua

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/sessionlog"
	"github.com/samaelod/usmu/types"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lua")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadScript(t *testing.T) {
	path := writeScript(t, `
return {
	records = {
		{ data = "50494e47", encoding = "hex", delay = 0 },
		{ data = "quit", encoding = "ascii", delay = 250 },
	},
}
`)

	script, err := ReadScript(path)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if len(script.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(script.Records))
	}
	if string(script.Records[0].Payload.Data) != "PING" {
		t.Errorf("record 0 data = %q", script.Records[0].Payload.Data)
	}
	if script.Records[1].Delay != 250*time.Millisecond {
		t.Errorf("record 1 delay = %v", script.Records[1].Delay)
	}
	if script.Records[1].Payload.Encoding != types.Ascii {
		t.Errorf("record 1 encoding = %q", script.Records[1].Payload.Encoding)
	}
}

func TestReadScriptComputed(t *testing.T) {
	// Payloads may be assembled by Lua code rather than typed literally.
	path := writeScript(t, `
local msgs = {}
for i = 1, 3 do
	msgs[i] = { data = "ping " .. i, encoding = "ascii", delay = 10 }
end
return { records = msgs }
`)

	script, err := ReadScript(path)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if len(script.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(script.Records))
	}
	if string(script.Records[2].Payload.Data) != "ping 3" {
		t.Errorf("record 2 data = %q", script.Records[2].Payload.Data)
	}
}

func TestReadScriptErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"negative delay", `return { records = { { data = "00", encoding = "hex", delay = -1 } } }`, "delay"},
		{"bad encoding", `return { records = { { data = "00", encoding = "utf32", delay = 0 } } }`, "encoding"},
		{"bad hex", `return { records = { { data = "zz", encoding = "hex", delay = 0 } } }`, "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadScript(writeScript(t, tt.body))
			var pe *sessionlog.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if pe.Field != tt.wantField {
				t.Errorf("field = %q, want %q", pe.Field, tt.wantField)
			}
		})
	}
}

func TestReadScriptEmpty(t *testing.T) {
	_, err := ReadScript(writeScript(t, `return { records = {} }`))
	if !errors.Is(err, sessionlog.ErrEmptyScript) {
		t.Fatalf("error = %v, want ErrEmptyScript", err)
	}
}

func TestReadScriptNotATable(t *testing.T) {
	if _, err := ReadScript(writeScript(t, `return 42`)); err == nil {
		t.Fatal("numeric return accepted")
	}
}

func TestReadScriptSyntaxError(t *testing.T) {
	if _, err := ReadScript(writeScript(t, `return {{{`)); err == nil {
		t.Fatal("malformed lua accepted")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	p1, _ := payload.Encode("DEADBEEF", types.Hex)
	p2, _ := payload.Encode("status", types.Ascii)
	script := types.ReplayScript{Records: []types.ReplayRecord{
		{Delay: 0, Payload: p1},
		{Delay: 120 * time.Millisecond, Payload: p2},
	}}

	path := filepath.Join(t.TempDir(), "out.lua")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteScript(f, script); err != nil {
		t.Fatalf("WriteScript: %v", err)
	}
	f.Close()

	got, err := ReadScript(path)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("records = %d", len(got.Records))
	}
	if string(got.Records[0].Payload.Data) != "\xde\xad\xbe\xef" {
		t.Errorf("record 0 data = %x", got.Records[0].Payload.Data)
	}
	if got.Records[1].Delay != 120*time.Millisecond || string(got.Records[1].Payload.Data) != "status" {
		t.Errorf("record 1 = %v %q", got.Records[1].Delay, got.Records[1].Payload.Data)
	}
}
