package gstengine

import (
	"runtime"
	"sync"
	"time"

	"github.com/tinyzimmer/go-glib/glib"
)

// quitPollInterval is how often Quit re-checks that the glib loop has
// entered its run state. Only used in the window between Run committing to
// start and g_main_loop_run setting is_running.
const quitPollInterval = time.Millisecond

// mainLoop adapts glib.MainLoop to control.Loop.
//
// g_main_loop_quit before g_main_loop_run is lost (run resets is_running),
// so Quit is remembered and Run returns immediately when it comes first.
type mainLoop struct {
	mu      sync.Mutex
	loop    *glib.MainLoop
	started bool
	quit    bool
}

func newMainLoop() *mainLoop {
	return &mainLoop{loop: glib.NewMainLoop(glib.MainContextDefault(), false)}
}

// Run blocks iterating the default main context until Quit.
func (l *mainLoop) Run() {
	l.mu.Lock()
	if l.quit || l.loop == nil {
		l.mu.Unlock()
		return
	}
	l.started = true
	loop := l.loop
	l.mu.Unlock()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	loop.Run()
}

// Quit stops Run. Only the first call has any effect.
func (l *mainLoop) Quit() {
	l.mu.Lock()
	if l.quit {
		l.mu.Unlock()
		return
	}
	l.quit = true
	started := l.started
	loop := l.loop
	l.mu.Unlock()

	if !started || loop == nil {
		return
	}
	for !loop.IsRunning() {
		time.Sleep(quitPollInterval)
	}
	loop.Quit()
}

// Release drops the loop reference; the finalizer unrefs it.
func (l *mainLoop) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loop = nil
}
