package payload

import (
	"bytes"
	"errors"
	"testing"

	"github.com/samaelod/usmu/types"
)

func TestEncodeHex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     []byte
		wantText string
		wantErr  error
	}{
		{"plain", "48656C6C6F", []byte("Hello"), "48656C6C6F", nil},
		{"spaced pairs", "48 65 6C 6C 6F", []byte("Hello"), "48656C6C6F", nil},
		{"tabs and newlines", "48\t65\n6c", []byte("Hel"), "48656c", nil},
		{"empty", "", nil, "", nil},
		{"odd digit count", "484", nil, "", ErrInvalidHex},
		{"non-hex character", "12G4", nil, "", ErrInvalidHex},
		{"stray space inside pair", "4 8", nil, "", ErrInvalidHex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Encode(tt.input, types.Hex)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Encode(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode(%q) unexpected error: %v", tt.input, err)
			}
			if !bytes.Equal(p.Data, tt.want) {
				t.Errorf("Encode(%q) data = %x, want %x", tt.input, p.Data, tt.want)
			}
			if p.Text != tt.wantText {
				t.Errorf("Encode(%q) text = %q, want %q", tt.input, p.Text, tt.wantText)
			}
		})
	}
}

func TestEncodeAscii(t *testing.T) {
	p, err := Encode("GET / HTTP/1.0", types.Ascii)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(p.Data) != "GET / HTTP/1.0" {
		t.Errorf("data = %q", p.Data)
	}

	if _, err := Encode("price: €10", types.Ascii); !errors.Is(err, ErrInvalidAscii) {
		t.Errorf("wide character error = %v, want ErrInvalidAscii", err)
	}

	// Latin-1 range still fits in one byte
	p, err = Encode("café", types.Ascii)
	if err != nil {
		t.Fatalf("latin-1 input rejected: %v", err)
	}
	if p.Data[3] != 0xE9 {
		t.Errorf("latin-1 byte = %#x, want 0xE9", p.Data[3])
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
		enc  types.Encoding
		want string
	}{
		{"hex normalized", "48 65 6C 6C 6F", types.Hex, "48656C6C6F"},
		{"hex lowercase kept", "cafe", types.Hex, "cafe"},
		{"ascii verbatim", "hello world", types.Ascii, "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Encode(tt.text, tt.enc)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if got := Decode(p); got != tt.want {
				t.Errorf("Decode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromBytes(t *testing.T) {
	raw := []byte{0x48, 0x65, 0x6C, 0x6C, 0x6F}
	p := FromBytes(raw)

	if p.Encoding != types.Hex {
		t.Errorf("encoding = %q, want hex", p.Encoding)
	}
	if got := Decode(p); got != "48656c6c6f" {
		t.Errorf("Decode = %q, want lowercase hex", got)
	}

	// caller's buffer must not alias the payload
	raw[0] = 0x00
	if p.Data[0] != 0x48 {
		t.Error("payload aliases the caller's buffer")
	}
}

func TestEncodeNoSideEffects(t *testing.T) {
	first, err := Encode("dead beef", types.Hex)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Encode("dead beef", types.Hex)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Data, second.Data) || first.Text != second.Text {
		t.Error("encode is not deterministic")
	}
}
