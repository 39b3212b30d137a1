package client

import "errors"

var (
	// ErrConnect reports that the TCP (or WebSocket) handshake failed.
	ErrConnect = errors.New("connect failure")

	// ErrTransport reports a send or receive failure on an established connection.
	ErrTransport = errors.New("transport failure")

	// ErrPeerClosed reports an orderly close by the server.
	ErrPeerClosed = errors.New("peer closed connection")

	// ErrUserQuit is the shutdown reason after a deliberate quit.
	ErrUserQuit = errors.New("user quit")

	// ErrNotConnected is returned when an operation needs a connection that
	// has not been established yet.
	ErrNotConnected = errors.New("not connected to server")

	// ErrClosed is returned by Send once the session has shut down.
	ErrClosed = errors.New("session closed")
)
