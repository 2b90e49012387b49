package control

import "errors"

// Construction-time failures. They are fatal and reported before the loop
// runs; ExitCode maps them to a non-zero status.
var (
	ErrElementCreate  = errors.New("not all elements could be created")
	ErrBus            = errors.New("could not get bus from pipeline")
	ErrLink           = errors.New("elements could not be linked")
	ErrControlChannel = errors.New("could not open control channel")
	ErrWatch          = errors.New("could not watch pipeline bus")
)

// ExitCode maps the result of Coordinator.Run to a process exit status.
// A run that completed its managed shutdown exits 0 whatever stopped it.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
