package gate

import (
	"bytes"
	"strings"
)

// delimiter is the SUB control byte terminating every frame on the wire, in
// both directions.
const delimiter = 0x1a

// Frame is one delimited unit of the serial protocol: a verb plus an optional
// argument, e.g. "running:open" or "opened".
type Frame struct {
	Verb string
	Arg  string
}

// parseFrame decodes one raw frame. Whitespace around the frame is trimmed
// before splitting on the first colon. Empty frames are dropped.
func parseFrame(raw string) (Frame, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Frame{}, false
	}
	verb, arg, _ := strings.Cut(trimmed, ":")
	return Frame{Verb: verb, Arg: strings.TrimSpace(arg)}, true
}

// scanFrames is a bufio.SplitFunc that tokenizes the inbound byte stream on
// the SUB delimiter.
func scanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.IndexByte(data, delimiter); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
