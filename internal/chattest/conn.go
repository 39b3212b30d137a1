package chattest

import (
	"bufio"
	"bytes"
	"io"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// conn is one relay-side client connection, TCP or WebSocket.
type conn interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
}

type tcpConn struct {
	conn   net.Conn
	reader io.Reader
}

func (tc *tcpConn) Read() ([]byte, error) {
	buf := make([]byte, 4096)
	n, err := tc.reader.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (tc *tcpConn) Write(data []byte) error {
	_, err := tc.conn.Write(data)
	return err
}

func (tc *tcpConn) Close() error {
	return tc.conn.Close()
}

type wsConn struct {
	conn net.Conn
	rw   io.ReadWriter
}

func (wc *wsConn) Read() ([]byte, error) {
	for {
		data, _, err := wsutil.ReadClientData(wc.rw)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			return data, nil
		}
	}
}

func (wc *wsConn) Write(data []byte) error {
	return wsutil.WriteServerText(wc.conn, data)
}

func (wc *wsConn) Close() error {
	_ = wsutil.WriteServerMessage(wc.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	return wc.conn.Close()
}

// accept peeks at the first bytes to tell an HTTP upgrade request from raw
// TCP chat text, and upgrades the former with gobwas/ws.
func accept(nc net.Conn) (conn, error) {
	reader := bufio.NewReader(nc)
	peek, err := reader.Peek(4)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(peek, []byte("GET ")) {
		return &tcpConn{conn: nc, reader: reader}, nil
	}

	rw := struct {
		io.Reader
		io.Writer
	}{reader, nc}
	if _, err := ws.Upgrade(rw); err != nil {
		return nil, err
	}
	return &wsConn{conn: nc, rw: rw}, nil
}
