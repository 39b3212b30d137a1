// Package protocol builds and recognizes the plain-text chat wire messages.
//
// A wire message is ASCII text of the form "<prefix>: <text>" with no
// delimiter or length field. The server broadcasts whatever bytes it
// receives, so the join and leave notices are written by the client itself
// under the "Server" prefix.
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// QuitSentinel is the input line that ends a session instead of being sent.
const QuitSentinel = "QUIT"

// ServerSender is the prefix used for system-style messages.
const ServerSender = "Server"

const (
	separator    = ": "
	joinedSuffix = " has joined the chat. Say hi!"
	leftSuffix   = " has left the chat."
)

// ErrNonASCII is returned when a message cannot be ASCII-encoded.
var ErrNonASCII = errors.New("message is not ASCII")

// MessageType represents the type of message
type MessageType int

const (
	MessageTypeText MessageType = iota
	MessageTypeJoin
	MessageTypeLeave
)

// String returns the string representation of MessageType
func (mt MessageType) String() string {
	switch mt {
	case MessageTypeText:
		return "TEXT"
	case MessageTypeJoin:
		return "JOIN"
	case MessageTypeLeave:
		return "LEAVE"
	default:
		return "UNKNOWN"
	}
}

// Message represents a chat message
type Message struct {
	Type    MessageType
	Sender  string
	Content string
}

// Text returns a chat message authored by sender.
func Text(sender, content string) Message {
	return Message{Type: MessageTypeText, Sender: sender, Content: content}
}

// Join returns the announcement sent when sender enters the chat.
func Join(sender string) Message {
	return Message{Type: MessageTypeJoin, Sender: sender}
}

// Leave returns the announcement sent when sender quits.
func Leave(sender string) Message {
	return Message{Type: MessageTypeLeave, Sender: sender}
}

// IsQuit reports whether line is the Quit Sentinel. The match is exact and
// case-sensitive.
func IsQuit(line string) bool {
	return line == QuitSentinel
}

// String renders the message as it appears on the wire.
func (m Message) String() string {
	switch m.Type {
	case MessageTypeJoin:
		return ServerSender + separator + m.Sender + joinedSuffix
	case MessageTypeLeave:
		return ServerSender + separator + m.Sender + leftSuffix
	default:
		return m.Sender + separator + m.Content
	}
}

// Encode encodes the message into ASCII bytes
func (m *Message) Encode() ([]byte, error) {
	s := m.String()
	if i := nonASCIIIndex(s); i >= 0 {
		return nil, fmt.Errorf("failed to encode message: %w: byte %d", ErrNonASCII, i)
	}
	return []byte(s), nil
}

// Decode classifies a received chunk. Transport reads are not aligned with
// sends, so the result only guides rendering and is never authoritative.
func (m *Message) Decode(data []byte) error {
	if i := nonASCIIIndex(string(data)); i >= 0 {
		return fmt.Errorf("failed to decode message: %w: byte %d", ErrNonASCII, i)
	}
	s := string(data)

	if rest, ok := strings.CutPrefix(s, ServerSender+separator); ok {
		if name, ok := strings.CutSuffix(rest, joinedSuffix); ok {
			*m = Join(name)
			return nil
		}
		if name, ok := strings.CutSuffix(rest, leftSuffix); ok {
			*m = Leave(name)
			return nil
		}
	}

	sender, content, ok := strings.Cut(s, separator)
	if !ok {
		*m = Text("", s)
		return nil
	}
	*m = Text(sender, content)
	return nil
}

func nonASCIIIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return i
		}
	}
	return -1
}
