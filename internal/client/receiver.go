package client

import (
	"errors"
	"io"
)

// Receiver is the inbound loop. It renders every chunk the server sends to
// the attached Sink until the connection goes away.
type Receiver struct {
	s *session
}

func newReceiver(s *session) *Receiver {
	return &Receiver{s: s}
}

// Run blocks on the connection. Peer closure and read errors both end the
// session; nothing is retried.
func (r *Receiver) Run() {
	for {
		data, err := r.s.conn.Receive()
		if err != nil || len(data) == 0 {
			if err == nil || errors.Is(err, io.EOF) {
				r.s.shutdown(ErrPeerClosed)
			} else {
				r.s.shutdown(err)
			}
			return
		}

		r.s.output().Message(r.s.name, data)
	}
}

// Attach replaces the rendering target. Chunks received afterwards go to sink.
func (r *Receiver) Attach(sink Sink) {
	r.s.attach(sink)
}

// Done is closed when the session has shut down.
func (r *Receiver) Done() <-chan struct{} {
	return r.s.done
}
