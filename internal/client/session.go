package client

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kosalvireak/chatroom/pkg/protocol"
)

const (
	quittingNotice = "\nQuitting..."
	lostNotice     = "\nOh no, we have lost connection to the server!"
)

// ShutdownNotices returns the notices shown to the operator when a session
// ends for reason.
func ShutdownNotices(reason error) []string {
	if errors.Is(reason, ErrUserQuit) {
		return []string{quittingNotice}
	}
	return []string{lostNotice, quittingNotice}
}

// session is the state the two loops share: one connection, one identity
// and one shutdown signal.
type session struct {
	conn Connection
	name string
	logf func(format string, args ...any)

	sinkMu sync.RWMutex
	sink   Sink

	// writeMu orders writes so nothing follows the leave announcement.
	writeMu sync.Mutex
	closed  atomic.Bool

	once sync.Once
	done chan struct{}
	err  error
}

func newSession(conn Connection, name string, sink Sink, logf func(string, ...any)) *session {
	return &session{
		conn: conn,
		name: name,
		sink: sink,
		logf: logf,
		done: make(chan struct{}),
	}
}

func (s *session) output() Sink {
	s.sinkMu.RLock()
	defer s.sinkMu.RUnlock()
	return s.sink
}

func (s *session) attach(sink Sink) {
	s.sinkMu.Lock()
	s.sink = sink
	s.sinkMu.Unlock()
}

// dispatch sends line as a chat message, or ends the session if line is the
// Quit Sentinel. Encoding errors leave the session running; transport
// errors shut it down.
func (s *session) dispatch(line string) error {
	if protocol.IsQuit(line) {
		s.shutdown(ErrUserQuit)
		return nil
	}

	msg := protocol.Text(s.name, line)
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	return s.write(data)
}

func (s *session) write(data []byte) error {
	s.writeMu.Lock()
	if s.closed.Load() {
		s.writeMu.Unlock()
		return ErrClosed
	}
	err := s.conn.Send(data)
	s.writeMu.Unlock()

	if err != nil {
		s.shutdown(err)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// shutdown runs the termination path exactly once, for whichever loop gets
// here first, and records why the session ended.
func (s *session) shutdown(reason error) {
	s.once.Do(func() {
		s.err = reason
		out := s.output()

		if errors.Is(reason, ErrUserQuit) {
			s.writeMu.Lock()
			leave := protocol.Leave(s.name)
			if data, err := leave.Encode(); err == nil {
				if err := s.conn.Send(data); err != nil {
					s.logf("Failed to send leave message: %v", err)
				}
			}
			s.closed.Store(true)
			s.writeMu.Unlock()
		} else {
			s.closed.Store(true)
			if !errors.Is(reason, ErrPeerClosed) {
				s.logf("Connection error: %v", reason)
			}
		}

		for _, notice := range ShutdownNotices(reason) {
			out.Notice(notice)
		}
		if err := s.conn.Close(); err != nil {
			s.logf("Failed to close connection: %v", err)
		}
		close(s.done)
	})
}

// reason returns why the session ended, or nil while it is still running.
func (s *session) reason() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
