package control_test

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/e7canasta/orion-care-sensor/modules/camera-control/internal/control"
)

// recorder keeps the ordered list of engine calls.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) index(call string) int {
	for i, c := range r.list() {
		if c == call {
			return i
		}
	}
	return -1
}

func (r *recorder) count(call string) int {
	n := 0
	for _, c := range r.list() {
		if c == call {
			n++
		}
	}
	return n
}

// fakeEngine is an in-memory control.Engine.
type fakeEngine struct {
	rec *recorder

	failCreate error
	failBus    error
	failLink   error
	failWatch  error

	pipeline *fakePipeline
	bus      *fakeBus
	loop     *fakeLoop
}

func newFakeEngine() *fakeEngine {
	rec := &recorder{}
	bus := &fakeBus{rec: rec, watched: make(chan struct{})}
	return &fakeEngine{
		rec:      rec,
		bus:      bus,
		pipeline: &fakePipeline{rec: rec, bus: bus},
		loop:     &fakeLoop{rec: rec, quit: make(chan struct{})},
	}
}

func (e *fakeEngine) NewPipeline(name string, stages []control.Stage) (control.Pipeline, error) {
	e.rec.add("engine.new_pipeline")
	if e.failCreate != nil {
		return nil, e.failCreate
	}
	e.pipeline.failBus = e.failBus
	e.pipeline.failLink = e.failLink
	e.bus.failWatch = e.failWatch
	return e.pipeline, nil
}

func (e *fakeEngine) NewLoop() control.Loop {
	e.rec.add("engine.new_loop")
	return e.loop
}

type fakePipeline struct {
	rec      *recorder
	bus      *fakeBus
	failBus  error
	failLink error
	failSet  error

	mu     sync.Mutex
	states []control.State
}

func (p *fakePipeline) SetState(state control.State) error {
	p.mu.Lock()
	p.states = append(p.states, state)
	p.mu.Unlock()
	p.rec.add("pipeline.set_state:" + state.String())
	return p.failSet
}

func (p *fakePipeline) Bus() (control.Bus, error) {
	p.rec.add("pipeline.bus")
	if p.failBus != nil {
		return nil, p.failBus
	}
	return p.bus, nil
}

func (p *fakePipeline) Link() error {
	p.rec.add("pipeline.link")
	return p.failLink
}

func (p *fakePipeline) Release() {
	p.rec.add("pipeline.stop")
	p.rec.add("pipeline.release")
}

func (p *fakePipeline) requested() []control.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]control.State(nil), p.states...)
}

type fakeBus struct {
	rec       *recorder
	failWatch error
	watched   chan struct{}

	mu         sync.Mutex
	dispatcher control.EventDispatcher
}

func (b *fakeBus) AddWatch(d control.EventDispatcher) error {
	b.rec.add("bus.add_watch")
	if b.failWatch != nil {
		return b.failWatch
	}
	b.mu.Lock()
	b.dispatcher = d
	b.mu.Unlock()
	close(b.watched)
	return nil
}

func (b *fakeBus) RemoveWatch() {
	b.rec.add("bus.remove_watch")
	b.mu.Lock()
	b.dispatcher = nil
	b.mu.Unlock()
}

func (b *fakeBus) Release() {
	b.rec.add("bus.release")
}

// emit delivers ev the way the engine would, from the caller's goroutine.
func (b *fakeBus) emit(ev control.Event) bool {
	<-b.watched
	b.mu.Lock()
	d := b.dispatcher
	b.mu.Unlock()
	if d == nil {
		return false
	}
	return d.HandleEvent(ev)
}

type fakeLoop struct {
	rec   *recorder
	once  sync.Once
	quit  chan struct{}
	quits atomic.Int32
}

func (l *fakeLoop) Run() {
	l.rec.add("loop.run")
	<-l.quit
	l.rec.add("loop.exit")
}

func (l *fakeLoop) Quit() {
	l.quits.Add(1)
	l.once.Do(func() {
		l.rec.add("loop.quit")
		close(l.quit)
	})
}

func (l *fakeLoop) Release() {
	l.rec.add("loop.release")
}

// scriptChannel replays data one byte per Read. When data runs out it
// blocks on hold (if set) and then reports io.EOF or readErr.
type scriptChannel struct {
	t       *testing.T
	rec     *recorder
	data    []byte
	hold    chan struct{}
	readErr error

	mu      sync.Mutex
	pos     int
	reads   int
	reading atomic.Bool
	closed  atomic.Bool
}

func newScriptChannel(t *testing.T, rec *recorder, data string) *scriptChannel {
	return &scriptChannel{t: t, rec: rec, data: []byte(data)}
}

func (c *scriptChannel) withHold() *scriptChannel {
	c.hold = make(chan struct{})
	return c
}

func (c *scriptChannel) release() {
	close(c.hold)
}

func (c *scriptChannel) Read(p []byte) (int, error) {
	if c.closed.Load() {
		c.t.Errorf("control channel read after close")
		return 0, io.ErrClosedPipe
	}
	c.reading.Store(true)
	defer c.reading.Store(false)

	c.mu.Lock()
	c.reads++
	if c.pos < len(c.data) {
		p[0] = c.data[c.pos]
		c.pos++
		c.mu.Unlock()
		c.rec.add("channel.read")
		return 1, nil
	}
	c.mu.Unlock()

	if c.hold != nil {
		<-c.hold
	}
	c.rec.add("channel.end")
	if c.readErr != nil {
		return 0, c.readErr
	}
	return 0, io.EOF
}

func (c *scriptChannel) Close() error {
	if c.reading.Load() {
		c.t.Errorf("control channel closed while a read is in progress")
	}
	if !c.closed.CompareAndSwap(false, true) {
		c.t.Errorf("control channel closed twice")
	}
	c.rec.add("channel.close")
	return nil
}

func (c *scriptChannel) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// opener returns a ControlOpener handing out ch once.
func opener(rec *recorder, ch io.ReadCloser, err error) control.ControlOpener {
	return func() (io.ReadCloser, error) {
		rec.add("control.open")
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}

// fakeTransitioner records requested states.
type fakeTransitioner struct {
	mu     sync.Mutex
	states []control.State
	err    error
}

func (f *fakeTransitioner) SetState(state control.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return f.err
}

func (f *fakeTransitioner) requested() []control.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]control.State(nil), f.states...)
}

// countingQuitter counts Quit calls.
type countingQuitter struct {
	n atomic.Int32
}

func (q *countingQuitter) Quit() { q.n.Add(1) }

var errBoom = errors.New("boom")
