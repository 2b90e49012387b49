package control

import (
	"fmt"
	"io"
	"sync"
)

// Console writes the operator-facing lines. Writes are serialized so lines
// from the listener and the dispatcher never interleave.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// NewConsole returns a console writing status lines to out and failures to errOut.
func NewConsole(out, errOut io.Writer) *Console {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return &Console{out: out, err: errOut}
}

// Printf writes to the status stream.
func (c *Console) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Errorf writes to the failure stream.
func (c *Console) Errorf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.err, format, args...)
}

// Banner prints the list of operator commands.
func (c *Console) Banner() {
	c.Printf("\nCamera Controls:\n")
	c.Printf("%c - Play/Pause\n", CommandToggle)
	c.Printf("%c - Quit\n\n", CommandQuit)
}
