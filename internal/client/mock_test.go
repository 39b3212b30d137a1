package client_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/kosalvireak/chatroom/internal/client"
)

// mockConn is a mock implementation of client.Connection for testing.
type mockConn struct {
	reads chan []byte

	mu         sync.Mutex
	written    []string
	failWrites int // fail every write after this many; 0 disables
	closeCount int

	closed    chan struct{}
	closeOnce sync.Once
}

func newMockConn() *mockConn {
	return &mockConn{
		reads:  make(chan []byte, 10),
		closed: make(chan struct{}),
	}
}

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.closed:
		return fmt.Errorf("%w: %w", client.ErrTransport, net.ErrClosed)
	default:
	}
	if m.failWrites > 0 && len(m.written) >= m.failWrites {
		return fmt.Errorf("%w: broken pipe", client.ErrTransport)
	}
	m.written = append(m.written, string(data))
	return nil
}

func (m *mockConn) Receive() ([]byte, error) {
	select {
	case data, ok := <-m.reads:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case <-m.closed:
		return nil, fmt.Errorf("%w: %w", client.ErrTransport, net.ErrClosed)
	}
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	m.closeCount++
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.closed) })
	return nil
}

func (m *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: client.DefaultPort}
}

func (m *mockConn) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}

func (m *mockConn) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCount
}

func (m *mockConn) dial(ctx context.Context, host string, port int) (client.Connection, error) {
	return m, nil
}

// recordSink is a client.Sink that remembers everything rendered to it.
type recordSink struct {
	mu       sync.Mutex
	prompts  []string
	messages []string
	notices  []string
	notify   chan struct{}
}

func newRecordSink() *recordSink {
	return &recordSink{notify: make(chan struct{}, 100)}
}

func (r *recordSink) Prompt(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, name)
}

func (r *recordSink) Message(name string, msg []byte) {
	r.mu.Lock()
	r.messages = append(r.messages, string(msg))
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recordSink) Notice(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, text)
}

func (r *recordSink) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func (r *recordSink) Notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notices...)
}

func (r *recordSink) NoticeCount(substr string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.notices {
		if strings.Contains(s, substr) {
			n++
		}
	}
	return n
}

func (r *recordSink) hasMessage(want string) bool {
	for _, m := range r.Messages() {
		if m == want {
			return true
		}
	}
	return false
}

func discardLogf(string, ...any) {}

var (
	_ client.Connection = (*mockConn)(nil)
	_ client.Sink       = (*recordSink)(nil)
)
