package gstengine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/control"
)

// Engine implements control.Engine on GStreamer.
type Engine struct{}

// New initializes GStreamer (safe to call multiple times) and returns an engine.
func New() *Engine {
	gst.Init(nil)
	return &Engine{}
}

// NewPipeline creates the pipeline and every stage, sets stage properties and
// adds the stages to the pipeline. The stages are not linked.
//
// All stages are attempted so the returned error names every factory that
// is missing, not only the first.
func (e *Engine) NewPipeline(name string, stages []control.Stage) (control.Pipeline, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("gstengine: no stages")
	}

	var errs []error
	elements := make([]*gst.Element, 0, len(stages))
	for _, stage := range stages {
		elem, err := gst.NewElementWithName(stage.Factory, stage.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create %s (%s): %w", stage.Name, stage.Factory, err))
			continue
		}
		elements = append(elements, elem)
	}

	pipeline, err := gst.NewPipeline(name)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to create pipeline %s: %w", name, err))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for i, stage := range stages {
		for prop, value := range stage.Properties {
			if err := elements[i].SetProperty(prop, value); err != nil {
				return nil, fmt.Errorf("failed to set %s.%s: %w", stage.Name, prop, err)
			}
			slog.Debug("gstengine: property set", "element", stage.Name, "property", prop, "value", value)
		}
	}

	if err := pipeline.AddMany(elements...); err != nil {
		return nil, fmt.Errorf("failed to add elements to pipeline: %w", err)
	}

	slog.Debug("gstengine: pipeline created", "pipeline", name, "stages", len(elements))

	return &Pipeline{
		name:     name,
		pipeline: pipeline,
		elements: elements,
	}, nil
}

// NewLoop returns a loop on the default main context, where bus watches
// are dispatched.
func (e *Engine) NewLoop() control.Loop {
	return newMainLoop()
}

// Pipeline wraps a gst.Pipeline and its stages in link order.
type Pipeline struct {
	mu       sync.Mutex
	name     string
	pipeline *gst.Pipeline
	elements []*gst.Element
}

// Bus implements control.Pipeline.
func (p *Pipeline) Bus() (control.Bus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline == nil {
		return nil, fmt.Errorf("gstengine: pipeline released")
	}
	bus := p.pipeline.GetPipelineBus()
	if bus == nil {
		return nil, fmt.Errorf("gstengine: pipeline %s has no bus", p.name)
	}
	return &Bus{bus: bus}, nil
}

// Link implements control.Pipeline.
func (p *Pipeline) Link() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline == nil {
		return fmt.Errorf("gstengine: pipeline released")
	}
	if len(p.elements) < 2 {
		return nil
	}
	if err := gst.ElementLinkMany(p.elements...); err != nil {
		return fmt.Errorf("failed to link %s: %w", p.name, err)
	}
	return nil
}

// SetState implements control.Transitioner.
func (p *Pipeline) SetState(state control.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline == nil {
		return fmt.Errorf("gstengine: pipeline released")
	}
	return p.pipeline.SetState(toGstState(state))
}

// Release sets the pipeline to NULL and drops the references. The
// underlying objects are unreferenced by their finalizers. Safe to call more
// than once.
func (p *Pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline == nil {
		return
	}
	if err := p.pipeline.SetState(gst.StateNull); err != nil {
		slog.Error("gstengine: failed to set pipeline to NULL", "pipeline", p.name, "error", err)
	}
	p.pipeline = nil
	p.elements = nil
	slog.Debug("gstengine: pipeline released", "pipeline", p.name)
}

func toGstState(state control.State) gst.State {
	switch state {
	case control.StateReady:
		return gst.StateReady
	case control.StatePaused:
		return gst.StatePaused
	case control.StatePlaying:
		return gst.StatePlaying
	default:
		return gst.StateNull
	}
}

func fromGstState(state gst.State) control.State {
	switch state {
	case gst.StateReady:
		return control.StateReady
	case gst.StatePaused:
		return control.StatePaused
	case gst.StatePlaying:
		return control.StatePlaying
	default:
		return control.StateNull
	}
}
