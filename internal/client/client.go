// Package client implements the terminal chat client: one connection to the
// chat server shared by an outbound loop that sends what the operator types
// and an inbound loop that renders what the server broadcasts.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/kosalvireak/chatroom/pkg/protocol"
)

// Config configures a Client.
type Config struct {
	// Host is a hostname, an IP address, or a ws:// or wss:// URL.
	Host string
	// Port defaults to DefaultPort.
	Port int
	// Name is the identity. If empty it is read from Input at Start.
	Name string
	// Input supplies the name and, when Interactive is set, chat lines.
	Input io.Reader
	// Interactive starts the outbound loop on Input.
	Interactive bool
	// Sink defaults to a TerminalSink on stdout.
	Sink Sink
	// Dial defaults to Dial.
	Dial DialFunc
	// Logf receives diagnostics. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Client owns the connection and the identity, and coordinates the two loops.
type Client struct {
	cfg   Config
	input *bufio.Scanner

	mu       sync.Mutex
	conn     Connection
	session  *session
	starting bool

	// stop is closed by Quit before a session exists.
	stop     chan struct{}
	stopOnce sync.Once

	wg sync.WaitGroup
}

// New creates a new Client instance
func New(cfg Config) *Client {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Sink == nil {
		cfg.Sink = NewTerminalSink(os.Stdout)
	}
	if cfg.Dial == nil {
		cfg.Dial = Dial
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}

	c := &Client{cfg: cfg, stop: make(chan struct{})}
	if cfg.Input != nil {
		c.input = bufio.NewScanner(cfg.Input)
	}
	return c
}

// Connect establishes a connection to the server. Failures wrap ErrConnect.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return fmt.Errorf("already connected to %s", c.address())
	}

	c.cfg.Sink.Notice(fmt.Sprintf("Trying to connect to %s...", c.address()))
	conn, err := c.cfg.Dial(ctx, c.cfg.Host, c.cfg.Port)
	if err != nil {
		return err
	}
	c.conn = conn
	c.cfg.Sink.Notice(fmt.Sprintf("Successfully connected to %s", c.address()))

	return nil
}

// Start obtains the identity, announces it to the chat and starts the loops.
// The join announcement is written before the outbound loop starts, so it
// precedes every message the operator types. Cancelling ctx ends the session
// as a quit; cancelling it, or calling Quit, while the name is still being
// read closes the connection without joining.
//
// The returned Receiver lets a caller attach another rendering target once
// its own UI is ready.
func (c *Client) Start(ctx context.Context) (*Receiver, error) {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	if c.starting {
		c.mu.Unlock()
		return nil, fmt.Errorf("client already started")
	}
	c.starting = true
	conn := c.conn
	c.mu.Unlock()

	name, err := c.identity(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}

	join := protocol.Join(name)
	data, err := join.Encode()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("invalid name %q: %w", name, err)
	}

	// The lock is held until the join is written so a concurrent Send
	// cannot get ahead of it.
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.stop:
		return nil, ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		conn.Close()
		return nil, err
	}

	sink := c.cfg.Sink
	sink.Notice("")
	sink.Notice(fmt.Sprintf("Welcome, %s! Getting ready to send and receive messages...", name))

	s := newSession(conn, name, sink, c.cfg.Logf)
	c.session = s

	receiver := newReceiver(s)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		receiver.Run()
	}()

	if err := s.write(data); err != nil {
		return nil, fmt.Errorf("failed to join chat: %w", err)
	}
	sink.Notice("\rAll set! Leave the chatroom anytime by typing 'QUIT'\n")

	go func() {
		select {
		case <-ctx.Done():
			s.shutdown(ErrUserQuit)
		case <-s.done:
		}
	}()

	if c.cfg.Interactive && c.input != nil {
		sender := newSender(s, c.input)
		go sender.Run()
	}

	return receiver, nil
}

type inputLine struct {
	text string
	err  error
}

// identity returns the configured name or reads one from the input. The
// read cannot be interrupted, so it runs in its own goroutine and is
// abandoned if ctx is cancelled or Quit is called first.
func (c *Client) identity(ctx context.Context) (string, error) {
	if c.cfg.Name != "" {
		return c.cfg.Name, nil
	}
	if c.input == nil {
		return "", fmt.Errorf("no name configured and no input to read it from")
	}

	c.cfg.Sink.Notice("")
	c.cfg.Sink.Prompt("Your name")

	lines := make(chan inputLine, 1)
	go func() {
		if !c.input.Scan() {
			err := c.input.Err()
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			lines <- inputLine{err: fmt.Errorf("failed to read name: %w", err)}
			return
		}
		lines <- inputLine{text: c.input.Text()}
	}()

	select {
	case line := <-lines:
		return line.text, line.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.stop:
		return "", ErrClosed
	}
}

// Send dispatches text exactly as if the operator had typed it: the Quit
// Sentinel ends the session, anything else is sent as a chat message.
func (c *Client) Send(text string) error {
	s := c.current()
	if s == nil {
		return ErrNotConnected
	}
	return s.dispatch(text)
}

// Quit ends the session the same way the Quit Sentinel does. Called while
// Start is still reading the name, it closes the connection and Start
// returns ErrClosed without joining.
func (c *Client) Quit() {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.stopOnce.Do(func() { close(c.stop) })
		if c.conn != nil {
			c.conn.Close()
		}
	}
	c.mu.Unlock()

	if s != nil {
		s.shutdown(ErrUserQuit)
	}
}

// Attach replaces the rendering target of a started client.
func (c *Client) Attach(sink Sink) {
	if s := c.current(); s != nil {
		s.attach(sink)
	}
}

// Name returns the identity, or "" before Start.
func (c *Client) Name() string {
	if s := c.current(); s != nil {
		return s.name
	}
	return ""
}

// Done is closed once the session has shut down. It is nil before Start.
func (c *Client) Done() <-chan struct{} {
	if s := c.current(); s != nil {
		return s.done
	}
	return nil
}

// Err reports why the session ended: ErrUserQuit, ErrPeerClosed, or an error
// wrapping ErrTransport. It is nil while the session is running.
func (c *Client) Err() error {
	if s := c.current(); s != nil {
		return s.reason()
	}
	return nil
}

// Wait blocks until the session has shut down and the inbound loop has
// returned. Every way a started session can end is a normal end, so Wait
// returns nil; see Err for the reason.
func (c *Client) Wait() error {
	s := c.current()
	if s == nil {
		return ErrNotConnected
	}
	<-s.done
	c.wg.Wait()
	return nil
}

func (c *Client) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) address() string {
	return Address(c.cfg.Host, c.cfg.Port)
}

// Run connects, starts the session and waits for it to end.
func Run(ctx context.Context, cfg Config) error {
	c := New(cfg)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	if _, err := c.Start(ctx); err != nil {
		return err
	}
	return c.Wait()
}
