// Package session holds the state behind one interactive session: the file
// selection and the editable transcript buffer.
//
// A Session is owned by a single goroutine (the UI loop or the headless
// driver); worker results reach it as messages, never by direct calls from
// the worker goroutine.
package session

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chaz8081/gostt-scribe/internal/worker"
)

// Session is the selection plus transcript buffer.
//
// Selecting new files keeps the buffer: transcripts from several selections
// accumulate until the operator saves or clears them.
type Session struct {
	selection     []string
	buf           strings.Builder
	lastProcessed string
	dirty         bool
}

// New creates an empty Session.
func New() *Session {
	return &Session{}
}

// SetSelection replaces the file selection. The buffer is left untouched.
func (s *Session) SetSelection(paths []string) {
	s.selection = append([]string(nil), paths...)
}

// Selection returns a copy of the current selection.
func (s *Session) Selection() []string {
	return append([]string(nil), s.selection...)
}

// AppendEntry renders e at the end of the buffer and remembers its file as
// the last processed one.
func (s *Session) AppendEntry(e worker.Entry) {
	s.buf.WriteString(Render(e))
	s.lastProcessed = filepath.Base(e.Path)
	s.dirty = true
}

// Render formats an entry the way it appears in the buffer. The header
// carries the batch size so sections from successive batches stay distinct.
func Render(e worker.Entry) string {
	var b strings.Builder
	if e.Total > 0 {
		fmt.Fprintf(&b, "[%d/%d] %s\n", e.Index+1, e.Total, e.Path)
	} else {
		fmt.Fprintf(&b, "[%d] %s\n", e.Index+1, e.Path)
	}
	if e.Failed() {
		fmt.Fprintf(&b, "transcription failed: %v\n", e.Err)
	} else {
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// SetText replaces the buffer with operator-edited text. Later appends go
// after it.
func (s *Session) SetText(text string) {
	if text == s.buf.String() {
		return
	}
	s.buf.Reset()
	s.buf.WriteString(text)
	s.dirty = true
}

// Text returns the current buffer, including operator edits.
func (s *Session) Text() string {
	return s.buf.String()
}

// LastProcessed returns the base name of the most recently appended entry's file.
func (s *Session) LastProcessed() string {
	return s.lastProcessed
}

// Dirty reports whether the buffer changed since the last MarkSaved.
func (s *Session) Dirty() bool {
	return s.dirty && strings.TrimSpace(s.buf.String()) != ""
}

// MarkSaved records that the current buffer has been written out.
func (s *Session) MarkSaved() {
	s.dirty = false
}

// Clear empties the selection and the buffer.
func (s *Session) Clear() {
	s.selection = nil
	s.buf.Reset()
	s.lastProcessed = ""
	s.dirty = false
}
