// SPDX-License-Identifier: MIT
/*
Package audio implements a real-time single-track playback engine:
- Render callback driven by an output device (PortAudio or beep)
- Lock-free control through the command queue and atomic flags
- Position telemetry and a capture tap for spectrum analysis
- Linear gain with clamping

Thread Safety:
- The control thread (Run) owns the source, the stream and the state
- The render callback only touches the render context
- State and gain are stored atomically so other goroutines may read them
*/
package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"player/internal/bus"
	"player/internal/config"
	"player/internal/decode"
	applog "player/internal/log"
)

// State is the engine lifecycle state.
type State int32

const (
	Idle State = iota
	Loaded
	Streaming
	Paused
	Stopped
	Quitting
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Loaded:
		return "LOADED"
	case Streaming:
		return "STREAMING"
	case Paused:
		return "PAUSED"
	case Stopped:
		return "STOPPED"
	case Quitting:
		return "QUITTING"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Info describes the loaded source.
type Info struct {
	Path       string
	Channels   int
	SampleRate int
	Frames     int64
	Session    uint64
}

// Duration returns the source length, or 0 when unknown.
func (i Info) Duration() time.Duration {
	if i.SampleRate <= 0 || i.Frames <= 0 {
		return 0
	}
	return time.Duration(float64(i.Frames) / float64(i.SampleRate) * float64(time.Second))
}

type Engine struct {
	// Core configuration and collaborators.
	config *config.Config
	device Device
	opener decode.Opener
	bus    *bus.Bus
	log    applog.Logger

	state atomic.Int32
	gain  atomic.Uint64

	infoMu sync.RWMutex // Info is read by the presentation loop.
	info   Info

	// Owned by the control thread.
	source  decode.Source
	stream  Stream
	rc      *renderContext
	tap     *bus.Tap
	session uint64

	doneMu   sync.Mutex // Done is re-armed when a closed engine loads again.
	done     chan struct{}
	doneOnce sync.Once
}

func NewEngine(cfg *config.Config, device Device, opener decode.Opener, b *bus.Bus,
	logger applog.Logger) (*Engine, error) {
	if cfg.Audio.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", cfg.Audio.FramesPerBuffer)
	}
	if device == nil || opener == nil || b == nil {
		return nil, fmt.Errorf("engine needs a device, an opener and a bus")
	}

	e := &Engine{
		config: cfg,
		device: device,
		opener: opener,
		bus:    b,
		log:    logger,
		done:   make(chan struct{}),
	}
	e.SetGain(cfg.Audio.InitialGain)
	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	old := State(e.state.Swap(int32(s)))
	if old != s {
		e.log.Debugf("State %s -> %s", old, s)
	}
}

// Info describes the loaded source.
func (e *Engine) Info() Info {
	e.infoMu.RLock()
	defer e.infoMu.RUnlock()
	return e.info
}

// Tap returns the capture tap of the loaded source, nil before Load. A new
// tap is created on every Load.
func (e *Engine) Tap() *bus.Tap {
	return e.tap
}

// Done is closed once the engine reaches Closed. A Load from Closed
// replaces it with a fresh channel.
func (e *Engine) Done() <-chan struct{} {
	e.doneMu.Lock()
	defer e.doneMu.Unlock()
	return e.done
}

// Load opens path and prepares it for playback, releasing any previously
// loaded source first. A closed engine may be loaded again.
func (e *Engine) Load(path string) error {
	switch e.State() {
	case Quitting:
		return fmt.Errorf("load %q: %w", path, ErrInvalidState)
	case Closed:
		e.doneMu.Lock()
		e.done = make(chan struct{})
		e.doneOnce = sync.Once{}
		e.doneMu.Unlock()
	}
	e.release()
	e.rc = nil

	src, err := e.opener.Open(path)
	if err != nil {
		e.setState(Idle)
		return &DecodeError{Path: path, Err: err}
	}
	if src.Channels() <= 0 {
		src.Close()
		e.setState(Idle)
		return &DecodeError{Path: path, Err: decode.ErrNoChannels}
	}
	if src.SampleRate() <= 0 {
		src.Close()
		e.setState(Idle)
		return &DecodeError{Path: path, Err: decode.ErrInvalidSampleRate}
	}

	if r, ok := src.(decode.Reserver); ok {
		r.Reserve(e.config.Audio.FramesPerBuffer)
	}

	e.session++
	e.source = src
	e.tap = bus.NewTap(e.config.Audio.FramesPerBuffer*src.Channels(), bus.DefaultTapDepth)
	e.rc = &renderContext{
		source:    src,
		channels:  src.Channels(),
		session:   e.session,
		telemetry: &e.bus.Telemetry,
		tap:       e.tap,
		gain:      &e.gain,
	}
	e.infoMu.Lock()
	e.info = Info{
		Path:       path,
		Channels:   src.Channels(),
		SampleRate: src.SampleRate(),
		Frames:     src.Frames(),
		Session:    e.session,
	}
	e.infoMu.Unlock()
	e.bus.Telemetry.Publish(e.session, 0)
	e.setState(Loaded)

	e.log.Infof("Loaded %s (Channels: %d, Sample rate: %d Hz, Duration: %s)",
		path, e.info.Channels, e.info.SampleRate, e.info.Duration().Round(time.Millisecond))
	return nil
}

// Start opens the output stream if needed and starts it. A device failure
// closes the engine.
func (e *Engine) Start() error {
	switch e.State() {
	case Loaded, Stopped:
	case Idle:
		return ErrNotLoaded
	default:
		return fmt.Errorf("start from %s: %w", e.State(), ErrInvalidState)
	}

	if e.stream == nil {
		params := StreamParams{
			Channels:        e.info.Channels,
			SampleRate:      float64(e.info.SampleRate),
			FramesPerBuffer: e.config.Audio.FramesPerBuffer,
			LowLatency:      e.config.Audio.LowLatency,
		}
		stream, err := e.device.OpenStream(params, e.rc.render)
		if err != nil {
			e.teardown("device error")
			return &DeviceError{Op: "open", Err: err}
		}
		e.stream = stream
		if l, ok := stream.(interface{ Latency() time.Duration }); ok {
			e.log.Infof("Output stream opened (Latency: %s)", l.Latency())
		}
	}

	e.rc.paused.Store(false)
	if err := e.stream.Start(); err != nil {
		e.teardown("device error")
		return &DeviceError{Op: "start", Err: err}
	}
	e.setState(Streaming)
	return nil
}

// Run starts playback and services the command queue until the engine
// closes. Cancelling ctx has the same effect as a Quit command.
func (e *Engine) Run(ctx context.Context) error {
	switch e.State() {
	case Idle:
		return ErrNotLoaded
	case Closed:
		return nil
	case Loaded:
		if err := e.Start(); err != nil {
			return err
		}
	}

	interval := e.config.Audio.PollInterval
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if done, err := e.poll(); done {
			return err
		}
		select {
		case <-ctx.Done():
			e.teardown("cancelled")
			return nil
		case <-ticker.C:
		}
	}
}

// poll checks the render flags, then drains the command queue. It reports
// whether the engine has closed, with the error that closed it.
func (e *Engine) poll() (bool, error) {
	if rc := e.rc; rc != nil {
		switch {
		case rc.aborted.Load():
			err := &DecodeError{Path: e.info.Path, Err: rc.err}
			e.log.Errorf("Playback aborted: %v", err)
			e.teardown("decode error")
			return true, err
		case rc.finished.Load() && e.State() != Stopped:
			e.teardown("completed")
			return true, nil
		}
	}

	for {
		cmd, ok := e.bus.Commands.TryPop()
		if !ok {
			break
		}
		if err := e.handle(cmd); err != nil {
			return true, err
		}
		if e.State() == Closed {
			return true, nil
		}
	}
	return e.State() == Closed, nil
}

// handle applies one command. Commands that do not apply to the current
// state are ignored.
func (e *Engine) handle(cmd bus.Command) error {
	state := e.State()
	e.log.Debugf("Command %s in state %s", cmd, state)

	switch cmd {
	case bus.PlayPause:
		switch state {
		case Streaming:
			e.rc.paused.Store(true)
			e.setState(Paused)
		case Paused:
			e.rc.paused.Store(false)
			e.setState(Streaming)
		case Stopped, Loaded:
			return e.Start()
		}
	case bus.Stop:
		if state == Streaming || state == Paused {
			e.stop()
		}
	case bus.Quit:
		e.teardown("quit")
	case bus.GainUp:
		e.stepGain(e.config.Audio.GainStep)
	case bus.GainDown:
		e.stepGain(-e.config.Audio.GainStep)
	default:
		e.log.Warnf("Ignoring unknown command %d", uint8(cmd))
	}
	return nil
}

// stop halts the device stream and rewinds to the first frame. The stream
// stays open so playback can restart.
func (e *Engine) stop() {
	if err := e.stream.Stop(); err != nil {
		e.log.Warnf("Stopping stream: %v", err)
	}
	e.rc.paused.Store(false)
	if err := e.rc.rewind(); err != nil {
		e.log.Errorf("Rewinding %s: %v", e.info.Path, err)
	}
	e.setState(Stopped)
}

// teardown silences the callback, then stops and closes the stream and the
// source, each exactly once, and leaves the engine Closed.
func (e *Engine) teardown(reason string) {
	switch e.State() {
	case Quitting, Closed:
		return
	}
	e.setState(Quitting)
	e.release()
	e.setState(Closed)
	e.doneMu.Lock()
	e.doneOnce.Do(func() { close(e.done) })
	e.doneMu.Unlock()
	e.log.Infof("Playback closed (%s)", reason)
}

// release stops and closes the current stream and source.
func (e *Engine) release() {
	if e.rc != nil {
		e.rc.quitting.Store(true)
	}
	if e.stream != nil {
		if err := e.stream.Stop(); err != nil {
			e.log.Warnf("Stopping stream: %v", err)
		}
		if err := e.stream.Close(); err != nil {
			e.log.Warnf("Closing stream: %v", err)
		}
		e.stream = nil
	}
	if e.source != nil {
		if err := e.source.Close(); err != nil {
			e.log.Warnf("Closing source: %v", err)
		}
		e.source = nil
	}
}
