package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

// ReceiveBufferSize caps the number of bytes returned by a single Receive.
const ReceiveBufferSize = 1024

// DefaultPort is the chat server port used when none is given.
const DefaultPort = 1060

// Connection is the single live link to the chat server.
type Connection interface {
	// Send writes data in full or returns an error wrapping ErrTransport.
	Send(data []byte) error

	// Receive blocks for the next chunk of at most ReceiveBufferSize bytes.
	// It returns io.EOF when the server closes the connection.
	Receive() ([]byte, error)

	// Close closes the connection. Calls after the first are no-ops.
	Close() error

	// RemoteAddr returns the server address
	RemoteAddr() net.Addr
}

// DialFunc opens a Connection to host:port.
type DialFunc func(ctx context.Context, host string, port int) (Connection, error)

// Dial connects to the chat server. A host given as a ws:// or wss:// URL
// selects the WebSocket transport; anything else is dialed over TCP.
func Dial(ctx context.Context, host string, port int) (Connection, error) {
	if isWebSocketURL(host) {
		return dialWebSocket(ctx, host, port)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}
	return NewTCPConnection(conn), nil
}

// Address formats host and port the way they are shown to the operator.
func Address(host string, port int) string {
	if isWebSocketURL(host) {
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func isWebSocketURL(host string) bool {
	return strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://")
}

// TCPConnection wraps net.Conn for TCP connections
type TCPConnection struct {
	conn      net.Conn
	closeOnce sync.Once
}

// NewTCPConnection creates a new TCP connection wrapper
func NewTCPConnection(conn net.Conn) *TCPConnection {
	return &TCPConnection{conn: conn}
}

// Send implements Connection.
func (tc *TCPConnection) Send(data []byte) error {
	if _, err := tc.conn.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// Receive implements Connection.
// Each call returns whatever a single read delivered; chunk boundaries do
// not follow the sender's writes.
func (tc *TCPConnection) Receive() ([]byte, error) {
	buf := make([]byte, ReceiveBufferSize)
	n, err := tc.conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	return nil, fmt.Errorf("%w: %w", ErrTransport, err)
}

// Close implements Connection.
func (tc *TCPConnection) Close() error {
	var err error
	tc.closeOnce.Do(func() {
		err = tc.conn.Close()
	})
	return err
}

// RemoteAddr implements Connection.
func (tc *TCPConnection) RemoteAddr() net.Addr {
	return tc.conn.RemoteAddr()
}
