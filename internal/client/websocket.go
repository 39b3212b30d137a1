package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// WebSocketConnection carries the chat text over WebSocket using gobwas/ws.
// Every Send is one text frame; frames larger than ReceiveBufferSize are
// handed out across several Receive calls.
//
// Frames are written by Send, by Close and by Receive when it answers pings
// and close frames; writeMu keeps each frame's header and payload together.
type WebSocketConnection struct {
	conn      net.Conn
	r         io.Reader
	pending   []byte
	writeMu   sync.Mutex
	closeOnce sync.Once
}

// closeTimeout bounds how long Close waits behind a stalled write.
const closeTimeout = time.Second

// NewWebSocketConnection wraps an upgraded net.Conn. br holds any bytes the
// handshake read past the response and may be nil.
func NewWebSocketConnection(conn net.Conn, br *bufio.Reader) *WebSocketConnection {
	wc := &WebSocketConnection{conn: conn, r: conn}
	if br != nil {
		wc.r = br
	}
	return wc
}

func dialWebSocket(ctx context.Context, rawURL string, port int) (Connection, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %q: %w", ErrConnect, rawURL, err)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}

	conn, br, _, err := ws.Dial(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, u.String(), err)
	}
	return NewWebSocketConnection(conn, br), nil
}

// Send implements Connection.
func (wc *WebSocketConnection) Send(data []byte) error {
	wc.writeMu.Lock()
	err := wsutil.WriteClientText(wc.conn, data)
	wc.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// Receive implements Connection. A close frame from the server is reported
// as io.EOF, the same as an orderly TCP shutdown.
func (wc *WebSocketConnection) Receive() ([]byte, error) {
	for len(wc.pending) == 0 {
		data, err := wc.readData()
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) || errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		wc.pending = data
	}

	n := min(len(wc.pending), ReceiveBufferSize)
	chunk := wc.pending[:n]
	wc.pending = wc.pending[n:]
	return chunk, nil
}

// readData returns the payload of the next text or binary message. It
// follows wsutil.ReadServerData, except that control replies go through
// handleControl.
func (wc *WebSocketConnection) readData() ([]byte, error) {
	rd := &wsutil.Reader{
		Source:         wc.r,
		State:          ws.StateClientSide,
		CheckUTF8:      true,
		OnIntermediate: wc.handleControl,
	}
	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return nil, err
		}
		if hdr.OpCode.IsControl() {
			if err := wc.handleControl(hdr, rd); err != nil {
				return nil, err
			}
			continue
		}
		if hdr.OpCode&(ws.OpText|ws.OpBinary) == 0 {
			if err := rd.Discard(); err != nil {
				return nil, err
			}
			continue
		}
		return io.ReadAll(rd)
	}
}

// handleControl answers pings and close frames under writeMu.
func (wc *WebSocketConnection) handleControl(h ws.Header, r io.Reader) error {
	wc.writeMu.Lock()
	defer wc.writeMu.Unlock()
	return wsutil.ControlFrameHandler(wc.conn, ws.StateClientSide)(h, r)
}

// Close implements Connection.
func (wc *WebSocketConnection) Close() error {
	wc.closeOnce.Do(func() {
		_ = wc.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
		wc.writeMu.Lock()
		_ = wsutil.WriteClientMessage(wc.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
		wc.writeMu.Unlock()
		_ = wc.conn.Close()
	})
	return nil
}

// RemoteAddr implements Connection.
func (wc *WebSocketConnection) RemoteAddr() net.Addr {
	return wc.conn.RemoteAddr()
}
