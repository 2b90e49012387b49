package control

import "log/slog"

// BusDispatcher turns engine events into termination requests.
//
// Error and end-of-stream events raise the termination signal; a reported
// error is terminal for the run and is never retried. Every event returns
// true so the watch stays installed until the coordinator removes it.
type BusDispatcher struct {
	state    *SharedState
	console  *Console
	pipeline string
}

// NewBusDispatcher returns a dispatcher for the named pipeline. The name is
// used to pick the pipeline's own state changes out of its children's.
func NewBusDispatcher(state *SharedState, console *Console, pipeline string) *BusDispatcher {
	if console == nil {
		console = NewConsole(nil, nil)
	}
	return &BusDispatcher{state: state, console: console, pipeline: pipeline}
}

// HandleEvent implements EventDispatcher.
func (d *BusDispatcher) HandleEvent(ev Event) bool {
	d.state.stats.recordEvent(ev.Kind)

	switch ev.Kind {
	case EventError:
		debug := ev.Debug
		if debug == "" {
			debug = "none"
		}
		category := ClassifyError(ev.Message, ev.Debug)
		d.state.stats.recordError(category)

		d.console.Errorf("Error received from element %s: %s\n", ev.Source, ev.Message)
		d.console.Errorf("Debugging information: %s\n", debug)

		slog.Error("camera-control: pipeline error",
			"source", ev.Source,
			"error", ev.Message,
			"debug", debug,
			"category", category.String(),
			"playing", d.state.Playing(),
		)
		d.state.RequestStop(CausePipelineError)

	case EventEOS:
		d.console.Printf("End-Of-Stream reached.\n")
		slog.Info("camera-control: end of stream received", "source", ev.Source)
		d.state.RequestStop(CauseEndOfStream)

	case EventWarning:
		slog.Warn("camera-control: pipeline warning",
			"source", ev.Source,
			"warning", ev.Message,
			"debug", ev.Debug,
		)

	case EventStateChanged:
		if ev.Source == d.pipeline {
			slog.Debug("camera-control: pipeline state changed",
				"from", ev.Old.String(),
				"to", ev.New.String(),
			)
		}
	}

	return true
}
