// Package vtrender feeds raw terminal bytes through an in-memory VT100
// screen emulator and extracts the visible text, the way the teacher's
// internal/overlay package feeds child PTY output into a midterm.Terminal
// to drive its own on-screen rendering.
package vtrender

import (
	"strings"

	"github.com/vito/midterm"
)

// Render constructs a virtual screen of the given geometry, feeds bytes
// into it (decoded as best-effort UTF-8 by the underlying VT100 decoder,
// which substitutes invalid sequences rather than erroring), and returns
// the non-empty, right-trimmed visible rows joined with "\n".
//
// midterm's SGR decoder already tolerates the "private" CSI parameter
// marker (e.g. "?" prefixes) the way spec.md's design notes call out as a
// quirk to accept and ignore — no monkey-patching is needed here because,
// unlike the Python original's pyte dependency, this is handled internally
// by the real library rather than patched from the outside.
func Render(data []byte, columns, lines int) string {
	if columns <= 0 || lines <= 0 {
		return ""
	}

	term := midterm.NewTerminal(lines, columns)
	// Terminal.Write never returns an error for malformed input; it is an
	// io.Writer over the VT100 byte stream.
	_, _ = term.Write(data)

	var out []string
	for row := 0; row < len(term.Content) && row < lines; row++ {
		line := strings.TrimRight(string(term.Content[row]), " \t")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
