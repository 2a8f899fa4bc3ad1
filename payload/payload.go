// Package payload converts between the textual form an operator types
// (hex digit pairs or ASCII) and the raw bytes placed on the wire.
// All functions are pure; encoding failures are reported before any
// network effect.
package payload

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/samaelod/usmu/types"
)

var (
	// ErrInvalidHex is returned for odd digit counts or non-hex characters.
	ErrInvalidHex = errors.New("invalid hex payload")
	// ErrInvalidAscii is returned when a character does not fit in one byte.
	ErrInvalidAscii = errors.New("payload contains characters wider than one byte")
)

// Encode converts operator text in the given form into a wire payload.
// Hex input may contain whitespace between digit pairs; it is stripped
// and the stripped text is retained for round-tripping.
func Encode(text string, enc types.Encoding) (types.Payload, error) {
	switch enc {
	case types.Hex:
		clean := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, text)
		if len(clean)%2 != 0 {
			return types.Payload{}, fmt.Errorf("%w: odd number of digits", ErrInvalidHex)
		}
		data, err := hex.DecodeString(clean)
		if err != nil {
			return types.Payload{}, fmt.Errorf("%w: %v", ErrInvalidHex, err)
		}
		return types.Payload{Data: data, Encoding: types.Hex, Text: clean}, nil

	case types.Ascii:
		data := make([]byte, 0, len(text))
		for i, r := range text {
			if r > 0xFF {
				return types.Payload{}, fmt.Errorf("%w: %q at index %d", ErrInvalidAscii, r, i)
			}
			data = append(data, byte(r))
		}
		return types.Payload{Data: data, Encoding: types.Ascii, Text: text}, nil

	default:
		return types.Payload{}, fmt.Errorf("unknown encoding %q", enc)
	}
}

// Decode renders a payload back to text in its recorded form. It never
// fails: arbitrary bytes are always representable as hex digits.
func Decode(p types.Payload) string {
	if p.Text != "" {
		return p.Text
	}
	if len(p.Data) == 0 {
		return ""
	}
	if p.Encoding == types.Ascii {
		var b strings.Builder
		b.Grow(len(p.Data))
		for _, c := range p.Data {
			b.WriteRune(rune(c))
		}
		return b.String()
	}
	return hex.EncodeToString(p.Data)
}

// FromBytes wraps raw received bytes as a hex payload. The buffer is
// copied so callers may reuse theirs.
func FromBytes(data []byte) types.Payload {
	d := make([]byte, len(data))
	copy(d, data)
	return types.Payload{Data: d, Encoding: types.Hex, Text: hex.EncodeToString(d)}
}
