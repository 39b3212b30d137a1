// Package ui provides a gocui front end for the chat client: a scrolling
// message list that serves as the client's output sink, and an input line
// that feeds the client's non-interactive Send path.
package ui

import (
	"strings"
	"sync"

	"github.com/kosalvireak/chatroom/pkg/protocol"
)

const (
	colorSystem = "\x1b[33m"
	colorReset  = "\x1b[0m"
)

// List is an append-only message log. It satisfies client.Sink; each
// received chunk becomes one entry and no prompt is ever drawn.
type List struct {
	mu       sync.Mutex
	lines    []string
	onChange func()
}

// NewList creates an empty List.
func NewList() *List {
	return &List{}
}

// Prompt implements client.Sink. The input view is the prompt.
func (l *List) Prompt(string) {}

// Message implements client.Sink.
func (l *List) Message(_ string, msg []byte) {
	l.append(formatEntry(msg))
}

// Notice implements client.Sink.
func (l *List) Notice(text string) {
	text = strings.Trim(text, "\r\n")
	if text == "" {
		return
	}
	l.append(colorSystem + text + colorReset)
}

// Lines returns a copy of the entries.
func (l *List) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// OnChange registers fn to run after every append.
func (l *List) OnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *List) append(line string) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	fn := l.onChange
	l.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// formatEntry highlights system-style messages. Chunks that do not decode
// are shown as received.
func formatEntry(msg []byte) string {
	text := strings.TrimRight(string(msg), "\r\n")

	var m protocol.Message
	if err := m.Decode([]byte(text)); err != nil {
		return text
	}
	if m.Type != protocol.MessageTypeText || m.Sender == protocol.ServerSender {
		return colorSystem + text + colorReset
	}
	return text
}
