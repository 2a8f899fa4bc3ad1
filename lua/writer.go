package lua

import (
	"fmt"
	"io"

	"github.com/samaelod/usmu/payload"
	"github.com/samaelod/usmu/types"
)

// WriteScript renders a script as a Lua file ReadScript accepts.
func WriteScript(w io.Writer, script types.ReplayScript) error {
	fmt.Fprintln(w, "local script = {}")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "-- RECORDS ----------------------------------------")
	fmt.Fprintln(w, "script.records = {")
	for _, r := range script.Records {
		fmt.Fprintln(w, "\t{")
		fmt.Fprintf(w, "\t\tdata = %q,\n", payload.Decode(r.Payload))
		fmt.Fprintf(w, "\t\tencoding = %q,\n", r.Payload.Encoding)
		fmt.Fprintf(w, "\t\tdelay = %d,\n", r.Delay.Milliseconds())
		fmt.Fprintln(w, "\t},")
	}
	fmt.Fprintln(w, "}")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "return script")

	return nil
}
