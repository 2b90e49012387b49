package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Phase is the coordinator's position in the process lifetime.
type Phase int32

const (
	PhaseInit Phase = iota
	PhaseElementsBuilt
	PhaseLinked
	PhaseRunning
	PhaseTeardown
	PhaseDone
)

// String returns a human-readable string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhaseElementsBuilt:
		return "ELEMENTS_BUILT"
	case PhaseLinked:
		return "LINKED"
	case PhaseRunning:
		return "RUNNING"
	case PhaseTeardown:
		return "TEARDOWN"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// ControlOpener opens the control channel. It is called once, after the
// pipeline has been linked and set to play.
type ControlOpener func() (io.ReadCloser, error)

// CoordinatorConfig contains what the coordinator builds and reads from.
type CoordinatorConfig struct {
	PipelineName string
	Stages       []Stage
	OpenControl  ControlOpener
}

// Coordinator owns the pipeline lifecycle: build, link, run the loop, then
// tear everything down exactly once.
type Coordinator struct {
	engine  Engine
	cfg     CoordinatorConfig
	console *Console
	stats   *Stats

	phase atomic.Int32
	state atomic.Pointer[SharedState]
}

// NewCoordinator returns a coordinator. console and stats may be nil.
func NewCoordinator(engine Engine, cfg CoordinatorConfig, console *Console, stats *Stats) *Coordinator {
	if console == nil {
		console = NewConsole(nil, nil)
	}
	if stats == nil {
		stats = NewStats()
	}
	return &Coordinator{
		engine:  engine,
		cfg:     cfg,
		console: console,
		stats:   stats,
	}
}

// Phase returns the current lifecycle phase.
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

// Stats returns the run counters.
func (c *Coordinator) Stats() *Stats {
	return c.stats
}

// Stop raises the termination signal. It is a no-op before RUNNING or after
// the signal has already been raised.
func (c *Coordinator) Stop(cause StopCause) bool {
	state := c.state.Load()
	if state == nil {
		return false
	}
	return state.RequestStop(cause)
}

// Run builds the pipeline and runs the loop until the termination signal is
// raised by the operator, by a pipeline event, or by ctx.
//
// Construction failures return an error wrapping one of ErrElementCreate,
// ErrBus, ErrLink or ErrControlChannel, with every resource acquired so far
// released. Once RUNNING, Run returns nil after a complete teardown unless
// the bus could not be watched.
//
// Teardown order:
//  1. Join the input listener (no further reads of the control channel)
//  2. Close the control channel
//  3. Remove the bus watch
//  4. Release the loop
//  5. Release the bus handle
//  6. Stop the pipeline and release it
func (c *Coordinator) Run(ctx context.Context) error {
	c.setPhase(PhaseInit)

	pipeline, err := c.engine.NewPipeline(c.cfg.PipelineName, c.cfg.Stages)
	if err != nil {
		c.console.Errorf("Not all elements could be created.\n")
		slog.Error("camera-control: failed to create pipeline",
			"pipeline", c.cfg.PipelineName,
			"error", err,
		)
		return fmt.Errorf("camera-control: %w: %w", ErrElementCreate, err)
	}

	bus, err := pipeline.Bus()
	if err != nil {
		c.console.Errorf("Could not get bus from pipeline.\n")
		slog.Error("camera-control: failed to get pipeline bus", "error", err)
		pipeline.Release()
		return fmt.Errorf("camera-control: %w: %w", ErrBus, err)
	}
	c.setPhase(PhaseElementsBuilt)

	if err := pipeline.Link(); err != nil {
		c.console.Errorf("Elements could not be linked.\n")
		slog.Error("camera-control: failed to link pipeline", "error", err)
		bus.Release()
		pipeline.Release()
		return fmt.Errorf("camera-control: %w: %w", ErrLink, err)
	}
	c.setPhase(PhaseLinked)

	// A refused transition surfaces as an error message on the bus.
	if err := pipeline.SetState(StatePlaying); err != nil {
		slog.Warn("camera-control: failed to start pipeline", "error", err)
	}

	input, err := c.cfg.OpenControl()
	if err != nil {
		c.console.Errorf("Could not open control channel: %v\n", err)
		slog.Error("camera-control: failed to open control channel", "error", err)
		bus.Release()
		pipeline.Release()
		return fmt.Errorf("camera-control: %w: %w", ErrControlChannel, err)
	}

	loop := c.engine.NewLoop()
	state := NewSharedState(pipeline, loop, c.console, c.stats, true)
	c.state.Store(state)
	dispatcher := NewBusDispatcher(state, c.console, c.cfg.PipelineName)
	c.stats.markRunning(true)

	c.console.Banner()

	var listenerWG sync.WaitGroup
	listenerWG.Add(1)
	go func() {
		defer listenerWG.Done()
		NewInputListener(state, input).Run()
	}()

	var runErr error
	watching := true
	if err := bus.AddWatch(dispatcher); err != nil {
		watching = false
		runErr = fmt.Errorf("camera-control: %w: %w", ErrWatch, err)
		c.console.Errorf("Could not watch pipeline bus.\n")
		slog.Error("camera-control: failed to add bus watch", "error", err)
		state.RequestStop(CausePipelineError)
	}

	ctxWatchDone := make(chan struct{})
	go func() {
		defer close(ctxWatchDone)
		select {
		case <-ctx.Done():
			state.RequestStop(CauseSignal)
		case <-state.Done():
		}
	}()

	c.setPhase(PhaseRunning)
	loop.Run()
	c.setPhase(PhaseTeardown)

	listenerWG.Wait()
	slog.Debug("camera-control: input listener joined")

	if err := input.Close(); err != nil {
		slog.Warn("camera-control: failed to close control channel", "error", err)
	}
	if watching {
		bus.RemoveWatch()
	}
	loop.Release()
	bus.Release()
	pipeline.Release()
	<-ctxWatchDone

	c.setPhase(PhaseDone)

	snap := c.stats.Snapshot()
	slog.Info("camera-control: shutdown complete",
		"cause", snap.StopCause.String(),
		"toggles", snap.Toggles,
		"pipeline_errors", snap.Events[EventError],
		"uptime", snap.Uptime,
	)

	return runErr
}

func (c *Coordinator) setPhase(p Phase) {
	old := Phase(c.phase.Swap(int32(p)))
	slog.Debug("camera-control: phase transition", "from", old.String(), "to", p.String())
}
