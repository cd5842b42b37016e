package loadgen_test

import (
	"sync/atomic"
	"testing"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/stretchr/testify/assert"
	"github.com/vearutop/dperf/loadgen"
)

func handle(events chan ui.Event, done chan struct{}, interrupt func()) chan struct{} {
	exited := make(chan struct{})

	go func() {
		defer close(exited)

		loadgen.HandleEvents(events, done, interrupt)
	}()

	return exited
}

func TestHandleEvents_quit(t *testing.T) {
	var interrupted atomic.Int32

	events := make(chan ui.Event)
	exited := handle(events, make(chan struct{}), func() { interrupted.Add(1) })

	events <- ui.Event{Type: ui.KeyboardEvent, ID: "x"}
	events <- ui.Event{Type: ui.ResizeEvent, ID: "<Resize>"}
	assert.Equal(t, int32(0), interrupted.Load())

	events <- ui.Event{Type: ui.KeyboardEvent, ID: "q"}

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("event loop did not exit on q")
	}

	assert.Equal(t, int32(1), interrupted.Load())
}

func TestHandleEvents_done(t *testing.T) {
	var interrupted atomic.Int32

	done := make(chan struct{})
	exited := handle(make(chan ui.Event), done, func() { interrupted.Add(1) })

	close(done)

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("event loop did not exit after close")
	}

	assert.Equal(t, int32(0), interrupted.Load())
}
