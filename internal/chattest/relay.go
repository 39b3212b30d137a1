// Package chattest provides an in-process chat relay for exercising clients
// in tests. Like the real chat server it forwards every chunk a client sends
// to the other clients unchanged, over TCP or WebSocket on the same port.
package chattest

import (
	"bytes"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// Relay is a broadcast relay listening on a loopback port.
type Relay struct {
	// Echo also sends each chunk back to its sender.
	Echo bool

	address  string
	listener net.Listener
	hub      *hub
	quit     chan struct{}
	wg       sync.WaitGroup

	mu         sync.Mutex
	transcript bytes.Buffer
	conns      map[net.Conn]struct{}
}

// New creates a relay for address, e.g. "127.0.0.1:0".
func New(address string) *Relay {
	return &Relay{
		address: address,
		hub:     newHub(),
		quit:    make(chan struct{}),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start listens and accepts clients in the background.
func (r *Relay) Start() error {
	listener, err := net.Listen("tcp", r.address)
	if err != nil {
		return fmt.Errorf("failed to start relay: %w", err)
	}
	r.listener = listener

	r.wg.Add(1)
	go r.acceptLoop()
	return nil
}

// Stop closes the listener and every client connection.
func (r *Relay) Stop() {
	close(r.quit)
	if r.listener != nil {
		r.listener.Close()
	}
	r.hub.closeAll()

	r.mu.Lock()
	for nc := range r.conns {
		nc.Close()
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// Addr returns the listening address.
func (r *Relay) Addr() string {
	if r.listener != nil {
		return r.listener.Addr().String()
	}
	return ""
}

// Port returns the listening port.
func (r *Relay) Port() int {
	if r.listener == nil {
		return 0
	}
	return r.listener.Addr().(*net.TCPAddr).Port
}

// ClientCount returns the number of registered clients.
func (r *Relay) ClientCount() int {
	return r.hub.count()
}

// CloseClients closes every client connection, which the clients observe
// as peer closure.
func (r *Relay) CloseClients() {
	r.hub.closeAll()
}

// Transcript returns every byte received from clients, in arrival order.
func (r *Relay) Transcript() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transcript.String()
}

// WaitForTranscript polls until the transcript contains substr or the
// timeout passes.
func (r *Relay) WaitForTranscript(substr string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if bytes.Contains([]byte(r.Transcript()), []byte(substr)) {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForClients polls until n clients are registered or the timeout passes.
func (r *Relay) WaitForClients(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if r.ClientCount() == n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func (r *Relay) acceptLoop() {
	defer r.wg.Done()
	for {
		nc, err := r.listener.Accept()
		if err != nil {
			select {
			case <-r.quit:
				return
			default:
				log.Printf("chattest: failed to accept connection: %v", err)
				return
			}
		}

		r.wg.Add(1)
		go r.handle(nc)
	}
}

func (r *Relay) handle(nc net.Conn) {
	defer r.wg.Done()

	r.mu.Lock()
	r.conns[nc] = struct{}{}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.conns, nc)
		r.mu.Unlock()
	}()

	c, err := accept(nc)
	if err != nil {
		nc.Close()
		return
	}

	m := &member{conn: c, outgoing: make(chan []byte, 64)}
	r.hub.register(m)

	r.wg.Add(1)
	go r.writeLoop(m)

	defer func() {
		r.hub.unregister(m)
		c.Close()
	}()

	for {
		data, err := c.Read()
		if err != nil {
			return
		}

		r.mu.Lock()
		r.transcript.Write(data)
		r.mu.Unlock()

		r.hub.broadcast(m, data, r.Echo)
	}
}

func (r *Relay) writeLoop(m *member) {
	defer r.wg.Done()
	for data := range m.outgoing {
		if err := m.conn.Write(data); err != nil {
			return
		}
	}
}
