package client

import (
	"fmt"
	"io"
	"sync"
)

// Sink is where the client renders everything the operator sees.
// Implementations must be safe for use by both loops at once.
type Sink interface {
	// Prompt shows the input prompt for name.
	Prompt(name string)

	// Message renders one received chunk for the session owned by name.
	Message(name string, msg []byte)

	// Notice shows a status line such as a banner or the quit notice.
	Notice(text string)
}

// TerminalSink renders to a terminal, redrawing the prompt after every
// received message so it stays on the last line.
type TerminalSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminalSink creates a TerminalSink writing to w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{w: w}
}

// Prompt implements Sink.
func (ts *TerminalSink) Prompt(name string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	fmt.Fprintf(ts.w, "%s: ", name)
}

// Message implements Sink.
func (ts *TerminalSink) Message(name string, msg []byte) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	fmt.Fprintf(ts.w, "\r%s\n%s: ", msg, name)
}

// Notice implements Sink.
func (ts *TerminalSink) Notice(text string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	fmt.Fprintln(ts.w, text)
}
