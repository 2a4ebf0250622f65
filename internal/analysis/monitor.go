// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	applog "player/internal/log"
)

// Capture is the consumer side of the render tap.
type Capture interface {
	Latest(dst []float32) (n int, ok bool)
}

// Position reports the last published playback position.
type Position interface {
	Snapshot() (session uint64, frame int64)
}

// Sink receives every computed frame, e.g. a network transport.
type Sink interface {
	Send(data any) error
}

// Monitor is the single consumer of the render tap. On every tick it takes
// the newest captured buffer, analyses it, keeps the result for the
// presentation loop and forwards it to the configured sinks.
type Monitor struct {
	analyzer *Analyzer
	capture  Capture
	position Position
	sinks    []Sink
	interval time.Duration
	log      applog.Logger

	buf []float32 // Reusable copy of the captured buffer.

	mu       sync.RWMutex // Protects latest/hasFrame.
	latest   Frame
	hasFrame bool

	failures atomic.Int64
}

// NewMonitor wires an analyzer to a capture source. An interval <= 0
// defaults to 33ms (~30Hz).
func NewMonitor(analyzer *Analyzer, capture Capture, position Position, interval time.Duration,
	logger applog.Logger, sinks ...Sink) (*Monitor, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("monitor: analyzer cannot be nil")
	}
	if capture == nil {
		return nil, fmt.Errorf("monitor: capture source cannot be nil")
	}
	if interval <= 0 {
		interval = 33 * time.Millisecond
		logger.Warnf("Invalid monitor interval, defaulting to %s", interval)
	}

	return &Monitor{
		analyzer: analyzer,
		capture:  capture,
		position: position,
		sinks:    sinks,
		interval: interval,
		log:      logger,
		buf:      make([]float32, analyzer.cfg.Frames*analyzer.cfg.Channels),
	}, nil
}

// Run updates the spectrum every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Infof("Spectrum monitor started (Interval: %s, Bands: %d, FFT: %d)",
		m.interval, m.analyzer.cfg.Bands, m.analyzer.cfg.Frames)
	for {
		select {
		case <-ctx.Done():
			m.log.Infof("Spectrum monitor stopped")
			return nil
		case <-ticker.C:
			m.Update()
		}
	}
}

// Update analyses the newest captured buffer, if any, and reports whether a
// new frame was produced.
func (m *Monitor) Update() bool {
	n, ok := m.capture.Latest(m.buf)
	if !ok {
		return false
	}

	frame, err := m.analyzer.Analyze(m.buf[:n])
	if err != nil {
		if m.failures.Add(1) == 1 {
			m.log.Errorf("Spectrum analysis failed: %v", err)
		}
		return false
	}
	if m.position != nil {
		frame.Session, frame.Position = m.position.Snapshot()
	}

	m.mu.Lock()
	m.latest = frame
	m.hasFrame = true
	m.mu.Unlock()

	for _, s := range m.sinks {
		if err := s.Send(frame); err != nil {
			m.log.Debugf("Spectrum sink error: %v", err)
		}
	}
	return true
}

// Latest returns the most recent frame. Frames are immutable once stored.
func (m *Monitor) Latest() (Frame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.hasFrame
}

// Failures returns how many captured buffers could not be analysed.
func (m *Monitor) Failures() int {
	return int(m.failures.Load())
}
