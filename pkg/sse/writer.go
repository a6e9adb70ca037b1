// Package sse writes Server-Sent Events in the plain "data:" framing the chat
// widgets parse.
//
//	data: <token>\n\n
//	...
//	data: [DONE]\n\n
package sse

import (
	"io"
	"strings"
)

const DoneMarker = "[DONE]"

// FlushWriter is satisfied by *bufio.Writer, which is what fasthttp hands to
// body stream writers.
type FlushWriter interface {
	io.Writer
	Flush() error
}

type Writer struct {
	w FlushWriter
}

func NewWriter(w FlushWriter) *Writer {
	return &Writer{w: w}
}

// WriteToken sends one event. Multi-line tokens get one data line per line;
// EventSource clients join them back with newlines.
func (s *Writer) WriteToken(token string) error {
	var b strings.Builder
	for _, line := range strings.Split(token, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return s.write(b.String())
}

// WriteError sends a named error event.
func (s *Writer) WriteError(message string) error {
	message = strings.ReplaceAll(message, "\n", " ")
	return s.write("event: error\ndata: " + message + "\n\n")
}

func (s *Writer) Done() error {
	return s.write("data: " + DoneMarker + "\n\n")
}

func (s *Writer) write(frame string) error {
	if _, err := io.WriteString(s.w, frame); err != nil {
		return err
	}
	return s.w.Flush()
}
