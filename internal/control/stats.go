package control

import (
	"sync/atomic"
	"time"
)

// Stats holds run counters. All fields are updated atomically so the
// listener, the dispatcher and metric scrapes may touch them concurrently.
type Stats struct {
	pauses          atomic.Uint64
	resumes         atomic.Uint64
	ignoredCommands atomic.Uint64
	transitionFails atomic.Uint64

	eventsError        atomic.Uint64
	eventsWarning      atomic.Uint64
	eventsEOS          atomic.Uint64
	eventsStateChanged atomic.Uint64
	eventsOther        atomic.Uint64

	errorsDevice      atomic.Uint64
	errorsNegotiation atomic.Uint64
	errorsResource    atomic.Uint64
	errorsUnknown     atomic.Uint64

	playing   atomic.Bool
	stopCause atomic.Int32
	startedAt atomic.Int64 // unix nanos, 0 until RUNNING
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Toggles         uint64
	Pauses          uint64
	Resumes         uint64
	IgnoredCommands uint64
	// TransitionFailures counts state requests the engine rejected
	// synchronously. PlaybackState is flipped regardless.
	TransitionFailures uint64

	Events map[EventKind]uint64
	Errors map[ErrorCategory]uint64

	Playing   bool
	StopCause StopCause
	Uptime    time.Duration
}

// NewStats returns zeroed counters.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) recordToggle(playing bool) {
	if playing {
		s.resumes.Add(1)
	} else {
		s.pauses.Add(1)
	}
	s.playing.Store(playing)
}

func (s *Stats) recordEvent(kind EventKind) {
	switch kind {
	case EventError:
		s.eventsError.Add(1)
	case EventWarning:
		s.eventsWarning.Add(1)
	case EventEOS:
		s.eventsEOS.Add(1)
	case EventStateChanged:
		s.eventsStateChanged.Add(1)
	default:
		s.eventsOther.Add(1)
	}
}

func (s *Stats) recordError(category ErrorCategory) {
	switch category {
	case ErrCategoryDevice:
		s.errorsDevice.Add(1)
	case ErrCategoryNegotiation:
		s.errorsNegotiation.Add(1)
	case ErrCategoryResource:
		s.errorsResource.Add(1)
	default:
		s.errorsUnknown.Add(1)
	}
}

func (s *Stats) markRunning(playing bool) {
	s.playing.Store(playing)
	s.startedAt.Store(time.Now().UnixNano())
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	pauses := s.pauses.Load()
	resumes := s.resumes.Load()

	var uptime time.Duration
	if started := s.startedAt.Load(); started != 0 {
		uptime = time.Since(time.Unix(0, started))
	}

	return Snapshot{
		Toggles:            pauses + resumes,
		Pauses:             pauses,
		Resumes:            resumes,
		IgnoredCommands:    s.ignoredCommands.Load(),
		TransitionFailures: s.transitionFails.Load(),
		Events: map[EventKind]uint64{
			EventError:        s.eventsError.Load(),
			EventWarning:      s.eventsWarning.Load(),
			EventEOS:          s.eventsEOS.Load(),
			EventStateChanged: s.eventsStateChanged.Load(),
			EventOther:        s.eventsOther.Load(),
		},
		Errors: map[ErrorCategory]uint64{
			ErrCategoryDevice:      s.errorsDevice.Load(),
			ErrCategoryNegotiation: s.errorsNegotiation.Load(),
			ErrCategoryResource:    s.errorsResource.Load(),
			ErrCategoryUnknown:     s.errorsUnknown.Load(),
		},
		Playing:   s.playing.Load(),
		StopCause: StopCause(s.stopCause.Load()),
		Uptime:    uptime,
	}
}
