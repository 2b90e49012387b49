package control

import (
	"errors"
	"io"
	"log/slog"
)

// Operator commands on the control channel.
const (
	CommandToggle byte = 'p'
	CommandQuit   byte = 'q'
)

// InputListener decodes single-byte operator commands from the control
// channel and drives the shared state.
type InputListener struct {
	state *SharedState
	input io.Reader
}

// NewInputListener returns a listener reading from input.
func NewInputListener(state *SharedState, input io.Reader) *InputListener {
	return &InputListener{state: state, input: input}
}

// Run blocks reading one byte at a time until the quit command arrives
// or the channel ends. Either way the termination signal is raised before
// Run returns.
//
// There is no way to interrupt a blocked read: if the stop comes from
// elsewhere, Run returns only after the channel yields another byte or ends.
func (l *InputListener) Run() {
	buf := make([]byte, 1)
	for {
		n, err := l.input.Read(buf)
		if n == 1 {
			if l.handle(buf[0]) {
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("camera-control: control channel closed")
				l.state.RequestStop(CauseInputClosed)
			} else {
				slog.Error("camera-control: control channel read failed", "error", err)
				l.state.RequestStop(CauseInputError)
			}
			return
		}
	}
}

// handle applies one command. Returns true when the listener must stop.
func (l *InputListener) handle(b byte) bool {
	switch b {
	case CommandToggle:
		l.state.Toggle()
	case CommandQuit:
		l.state.RequestStop(CauseOperatorQuit)
		return true
	default:
		l.state.stats.ignoredCommands.Add(1)
		slog.Debug("camera-control: ignoring input byte", "byte", b)
	}
	return false
}
