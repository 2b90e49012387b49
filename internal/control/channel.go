package control

import (
	"fmt"
	"io"
	"os"
)

// StdinSource selects standard input as the control channel.
const StdinSource = "-"

// SourceOpener returns a ControlOpener for source: StdinSource reads stdin,
// anything else is a path.
//
// A named pipe is opened read-write so that open does not block waiting for
// a writer and the channel does not end when one writer disconnects; the
// listener then stops only on the quit command. Regular files are replayed
// and end with the file.
func SourceOpener(source string, stdin io.ReadCloser) ControlOpener {
	return func() (io.ReadCloser, error) {
		if source == "" || source == StdinSource {
			if stdin == nil {
				return nil, fmt.Errorf("stdin not available")
			}
			return stdin, nil
		}

		info, err := os.Stat(source)
		if err != nil {
			return nil, err
		}

		flag := os.O_RDONLY
		if info.Mode()&os.ModeNamedPipe != 0 {
			flag = os.O_RDWR
		}
		f, err := os.OpenFile(source, flag, 0)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}
