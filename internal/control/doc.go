// Package control runs a capture-to-display pipeline under operator control.
//
// Three actors share one SharedState:
//
//   - the InputListener reads single-byte commands from the control channel
//     ('p' toggles play/pause, 'q' quits);
//   - the BusDispatcher reacts to pipeline bus events, stopping on error or
//     end-of-stream;
//   - the Coordinator builds and links the pipeline, runs the event loop and
//     tears everything down once the loop returns.
//
// # Quick Start
//
//	coord := control.NewCoordinator(gstengine.New(), control.CoordinatorConfig{
//	    PipelineName: "camera-pipeline",
//	    Stages:       cfg.Stages(),
//	    OpenControl:  control.SourceOpener("-", os.Stdin),
//	}, control.NewConsole(os.Stdout, os.Stderr), control.NewStats())
//
//	if err := coord.Run(ctx); err != nil {
//	    os.Exit(control.ExitCode(err))
//	}
//
// # Termination
//
// Whichever actor raises the stop first wins: RequestStop records its
// StopCause and quits the loop, later calls are no-ops. Teardown always runs
// in the same order: join the listener, close the control channel, remove
// the bus watch, then release the loop, the bus and the pipeline.
//
// The listener is only joined after its current Read returns. An idle
// terminal therefore delays shutdown after an error or end-of-stream until
// the operator sends a byte or closes the input.
package control
