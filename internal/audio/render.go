// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"io"
	"math"
	"sync/atomic"

	"player/internal/bus"
	"player/internal/decode"
)

// renderContext is everything the render callback touches. The control
// thread talks to it only through the atomic flags; readHead and err are
// owned by the callback except while the stream is stopped.
type renderContext struct {
	source    decode.Source
	channels  int
	session   uint64
	telemetry *bus.Telemetry
	tap       *bus.Tap
	gain      *atomic.Uint64 // math.Float64bits of the linear gain.

	paused   atomic.Bool
	quitting atomic.Bool
	finished atomic.Bool
	aborted  atomic.Bool

	readHead int64
	err      error // Set before aborted is stored.
}

// render is the device callback. It must stay free of allocation, locks,
// logging and I/O other than the source read.
func (rc *renderContext) render(out []float32) Result {
	clear(out)

	if rc.aborted.Load() {
		return Abort
	}
	if rc.finished.Load() {
		return Complete
	}
	if rc.quitting.Load() || rc.paused.Load() {
		return Continue
	}

	want := len(out) / rc.channels
	n, err := rc.source.ReadFrames(out)
	if n > 0 {
		if g := float32(math.Float64frombits(rc.gain.Load())); g != 1 {
			samples := out[:n*rc.channels]
			for i := range samples {
				samples[i] *= g
			}
		}
		rc.readHead += int64(n)
		rc.telemetry.Publish(rc.session, rc.readHead)
		rc.tap.Capture(out)
	}

	if err != nil && !errors.Is(err, io.EOF) {
		rc.err = err
		rc.aborted.Store(true)
		return Abort
	}
	if n < want {
		rc.finished.Store(true)
		return Complete
	}
	return Continue
}

// rewind moves the source and read head back to the first frame. The
// stream must be stopped.
func (rc *renderContext) rewind() error {
	if err := rc.source.Rewind(); err != nil {
		return err
	}
	rc.readHead = 0
	rc.finished.Store(false)
	rc.telemetry.Publish(rc.session, 0)
	return nil
}
