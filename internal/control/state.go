package control

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// StopCause records who raised the termination signal first.
type StopCause int32

const (
	CauseNone StopCause = iota
	CauseOperatorQuit
	CauseInputClosed
	CauseInputError
	CausePipelineError
	CauseEndOfStream
	CauseSignal
)

// String returns a human-readable string representation of the stop cause
func (c StopCause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseOperatorQuit:
		return "operator_quit"
	case CauseInputClosed:
		return "input_closed"
	case CauseInputError:
		return "input_error"
	case CausePipelineError:
		return "pipeline_error"
	case CauseEndOfStream:
		return "end_of_stream"
	case CauseSignal:
		return "signal"
	default:
		return "unknown"
	}
}

// SharedState is the single source of truth for playback and termination.
// It is owned by the Coordinator and borrowed by the InputListener and the
// EventDispatcher.
//
// playing reflects the last requested transition, not a confirmed engine
// state: SetState is fire-and-forget.
type SharedState struct {
	mu       sync.Mutex
	playing  bool
	pipeline Transitioner

	loop    Quitter
	stopped atomic.Bool
	cause   atomic.Int32
	done    chan struct{}

	console *Console
	stats   *Stats
}

// NewSharedState returns state for a pipeline that has been asked to play
// when playing is true. stats may be nil.
func NewSharedState(pipeline Transitioner, loop Quitter, console *Console, stats *Stats, playing bool) *SharedState {
	if console == nil {
		console = NewConsole(nil, nil)
	}
	if stats == nil {
		stats = NewStats()
	}
	return &SharedState{
		playing:  playing,
		pipeline: pipeline,
		loop:     loop,
		done:     make(chan struct{}),
		console:  console,
		stats:    stats,
	}
}

// Toggle flips PlaybackState and requests the matching pipeline transition.
// It does not wait for the engine to reach the state.
func (s *SharedState) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := StatePaused
	if !s.playing {
		target = StatePlaying
	}

	if err := s.pipeline.SetState(target); err != nil {
		s.stats.transitionFails.Add(1)
		slog.Warn("camera-control: pipeline rejected state change",
			"target", target.String(),
			"error", err,
		)
	}

	s.playing = !s.playing
	s.stats.recordToggle(s.playing)

	if s.playing {
		s.console.Printf("Resumed.\n")
	} else {
		s.console.Printf("Paused.\n")
	}
}

// Playing reports the last requested playback state.
func (s *SharedState) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// RequestStop raises the termination signal. Only the first call has any
// effect; it returns true for that call.
func (s *SharedState) RequestStop(cause StopCause) bool {
	if !s.stopped.CompareAndSwap(false, true) {
		slog.Debug("camera-control: stop already requested",
			"cause", cause.String(),
			"first_cause", s.Cause().String(),
		)
		return false
	}

	s.cause.Store(int32(cause))
	s.stats.stopCause.Store(int32(cause))
	close(s.done)

	slog.Info("camera-control: stop requested", "cause", cause.String())

	if s.loop != nil {
		s.loop.Quit()
	}
	return true
}

// Done is closed once the termination signal has been raised.
func (s *SharedState) Done() <-chan struct{} {
	return s.done
}

// Stopping reports whether the termination signal has been raised.
func (s *SharedState) Stopping() bool {
	return s.stopped.Load()
}

// Cause returns the first stop cause, or CauseNone.
func (s *SharedState) Cause() StopCause {
	return StopCause(s.cause.Load())
}
