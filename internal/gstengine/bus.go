package gstengine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/control"
)

// Bus wraps the pipeline bus. The watch callback runs on the thread that
// iterates the default main context, i.e. inside Loop.Run.
type Bus struct {
	mu       sync.Mutex
	bus      *gst.Bus
	watching bool
}

// AddWatch implements control.Bus.
func (b *Bus) AddWatch(d control.EventDispatcher) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bus == nil {
		return fmt.Errorf("gstengine: bus released")
	}
	if b.watching {
		return fmt.Errorf("gstengine: bus already watched")
	}
	ok := b.bus.AddWatch(func(msg *gst.Message) bool {
		return d.HandleEvent(translateMessage(msg))
	})
	if !ok {
		return fmt.Errorf("gstengine: bus refused watch")
	}
	b.watching = true
	return nil
}

// RemoveWatch implements control.Bus.
func (b *Bus) RemoveWatch() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bus == nil || !b.watching {
		return
	}
	if !b.bus.RemoveWatch() {
		slog.Warn("gstengine: bus watch already removed")
	}
	b.watching = false
}

// Release drops the bus reference.
func (b *Bus) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bus = nil
}

// translateMessage maps a bus message to a control.Event.
func translateMessage(msg *gst.Message) control.Event {
	ev := control.Event{Source: msg.Source()}

	switch msg.Type() {
	case gst.MessageError:
		ev.Kind = control.EventError
		if gerr := msg.ParseError(); gerr != nil {
			ev.Message = gerr.Error()
			ev.Debug = gerr.DebugString()
		}

	case gst.MessageWarning:
		ev.Kind = control.EventWarning
		if gerr := msg.ParseWarning(); gerr != nil {
			ev.Message = gerr.Error()
			ev.Debug = gerr.DebugString()
		}

	case gst.MessageEOS:
		ev.Kind = control.EventEOS

	case gst.MessageStateChanged:
		ev.Kind = control.EventStateChanged
		old, new := msg.ParseStateChanged()
		ev.Old = fromGstState(old)
		ev.New = fromGstState(new)

	default:
		ev.Kind = control.EventOther
	}

	return ev
}
