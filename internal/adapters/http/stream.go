package http

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// streamFrame is a single event in the UI message stream protocol that the
// chat frontend consumes. Frames are sent as SSE data lines; only the fields
// relevant to each frame type are populated.
type streamFrame struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Delta     string `json:"delta,omitempty"`
	ErrorText string `json:"errorText,omitempty"`
}

// streamWriter serializes UI message stream frames onto an SSE body writer.
// Each frame is flushed immediately so deltas reach the client as they are
// generated.
type streamWriter struct {
	w   *bufio.Writer
	err error
}

func newStreamWriter(w *bufio.Writer) *streamWriter {
	return &streamWriter{w: w}
}

func (s *streamWriter) frame(f streamFrame) error {
	if s.err != nil {
		return s.err
	}
	data, err := json.Marshal(f)
	if err != nil {
		s.err = err
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		s.err = err
		return err
	}
	if err := s.w.Flush(); err != nil {
		s.err = err
		return err
	}
	return nil
}

// Start opens the message stream.
func (s *streamWriter) Start() error {
	return s.frame(streamFrame{Type: "start"})
}

// TextStart opens a text part with the given part ID.
func (s *streamWriter) TextStart(id string) error {
	return s.frame(streamFrame{Type: "text-start", ID: id})
}

// TextDelta appends a fragment to the open text part.
func (s *streamWriter) TextDelta(id, delta string) error {
	return s.frame(streamFrame{Type: "text-delta", ID: id, Delta: delta})
}

// TextEnd closes the text part.
func (s *streamWriter) TextEnd(id string) error {
	return s.frame(streamFrame{Type: "text-end", ID: id})
}

// Finish closes the message stream.
func (s *streamWriter) Finish() error {
	return s.frame(streamFrame{Type: "finish"})
}

// Error reports a generation failure to the client in-stream.
func (s *streamWriter) Error(msg string) error {
	return s.frame(streamFrame{Type: "error", ErrorText: msg})
}

// Done terminates the SSE stream.
func (s *streamWriter) Done() error {
	if s.err != nil {
		return s.err
	}
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		s.err = err
		return err
	}
	return s.w.Flush()
}
