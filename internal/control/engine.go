package control

import "fmt"

// State is the pipeline state requested from the engine.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

// String returns a human-readable string representation of the state
func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stage describes one element of the pipeline.
type Stage struct {
	Factory    string
	Name       string
	Properties map[string]any
}

// EventKind classifies an engine notification.
type EventKind int

const (
	EventOther EventKind = iota
	EventError
	EventWarning
	EventEOS
	EventStateChanged
)

// String returns a human-readable string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventError:
		return "error"
	case EventWarning:
		return "warning"
	case EventEOS:
		return "eos"
	case EventStateChanged:
		return "state_changed"
	default:
		return "other"
	}
}

// Event is an engine notification delivered to an EventDispatcher.
//
// Message and Debug are set for Error and Warning events. Old and New are set
// for StateChanged events. Source is the name of the emitting element.
type Event struct {
	Kind    EventKind
	Source  string
	Message string
	Debug   string
	Old     State
	New     State
}

// EventDispatcher receives engine events, possibly from an engine thread.
// The return value tells the engine whether to keep delivering events.
type EventDispatcher interface {
	HandleEvent(ev Event) bool
}

// Transitioner is the part of the pipeline the shared state drives.
type Transitioner interface {
	SetState(state State) error
}

// Quitter is the part of the loop the shared state drives.
type Quitter interface {
	Quit()
}

// Engine is the external media engine.
//
// Implementations must guarantee:
//   - NewPipeline creates every stage or none; the error names each stage
//     that could not be created
//   - Loop.Quit may be called from any goroutine, before or during Run
//   - Release methods are idempotent
type Engine interface {
	// NewPipeline creates the named pipeline and its stages. Nothing is
	// linked yet.
	NewPipeline(name string, stages []Stage) (Pipeline, error)

	// NewLoop creates the cooperative loop that delivers bus events.
	NewLoop() Loop
}

// Pipeline is a built pipeline owned by the coordinator.
type Pipeline interface {
	Transitioner

	// Bus returns the pipeline's event bus handle.
	Bus() (Bus, error)

	// Link connects the stages in order.
	Link() error

	// Release moves the pipeline to StateNull and drops the handle.
	Release()
}

// Bus is the pipeline's asynchronous event channel.
type Bus interface {
	AddWatch(d EventDispatcher) error
	RemoveWatch()
	Release()
}

// Loop is the cooperative event loop.
type Loop interface {
	Quitter

	// Run blocks until Quit is called. Returns immediately if Quit was
	// called before Run.
	Run()

	Release()
}
