package client

import (
	"bufio"
	"errors"

	"github.com/kosalvireak/chatroom/pkg/protocol"
)

// Sender is the outbound loop: it prompts, reads one line from the operator
// and dispatches it, until the operator quits or the session ends.
type Sender struct {
	s     *session
	input *bufio.Scanner
}

func newSender(s *session, input *bufio.Scanner) *Sender {
	return &Sender{s: s, input: input}
}

// Run blocks on the input source. End of input counts as a quit.
func (snd *Sender) Run() {
	for {
		select {
		case <-snd.s.done:
			return
		default:
		}

		snd.s.output().Prompt(snd.s.name)
		if !snd.input.Scan() {
			if err := snd.input.Err(); err != nil {
				snd.s.logf("Error reading input: %v", err)
			}
			snd.s.shutdown(ErrUserQuit)
			return
		}

		if err := snd.s.dispatch(snd.input.Text()); err != nil {
			if errors.Is(err, protocol.ErrNonASCII) {
				snd.s.output().Notice("Only ASCII text can be sent.")
				continue
			}
			return
		}
	}
}
