// SPDX-License-Identifier: MIT
/*
Package analysis turns captured render buffers into log-scaled spectra:

 1. Raised-sine window, computed once per buffer length
 2. Channel extraction with the window applied
 3. Real FFT and per-bin magnitude
 4. Linear frequency axis, recomputed when rate or length change
 5. Reduction into log-spaced bands by linear interpolation
 6. Decibel conversion with an explicit floor

Nothing in this package runs on the render thread. Analyzer reuses its
workspace between calls but each returned Frame is freshly allocated.
*/
package analysis

import (
	"fmt"

	"player/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Config describes the stream an Analyzer reads and the spectrum it
// produces.
type Config struct {
	Frames        int     // Buffer length N in frames, power of 2.
	SampleRate    float64 // Stream sample rate in Hz.
	Channels      int     // Interleaved channel count of captured buffers.
	Channel       int     // Channel to analyse.
	Bands         int     // Number of log-spaced output bands.
	MaxFrequency  float64 // Upper band bound, MaxFrequency when zero.
	ReferenceZero float64 // Amplitude mapped to 0 dB, N/4 when zero.
	Window        WindowFunc
}

// Pre-allocated buffers for FFT calculations.
type workspace struct {
	input     []float64    // Windowed single-channel input.
	coeffs    []complex128 // FFT output, N/2+1 values.
	magnitude []float64    // Magnitudes of the first N/2 bins.
	window    []float64    // Window coefficients, length N.
	axis      []float64    // Bin frequencies, length N/2.
}

// Analyzer runs the spectral pipeline over captured interleaved buffers. It
// is not safe for concurrent use; each consumer owns its own Analyzer.
type Analyzer struct {
	cfg     Config
	fft     *fourier.FFT
	maxFreq float64
	ref     float64
	ws      workspace
}

// NewAnalyzer validates cfg and pre-allocates the workspace.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.Channels <= 0 || cfg.Channel < 0 || cfg.Channel >= cfg.Channels {
		return nil, fmt.Errorf("%w: channel %d of %d", ErrPrecondition, cfg.Channel, cfg.Channels)
	}
	if cfg.Bands <= 0 {
		return nil, fmt.Errorf("%w: band count must be positive, got %d", ErrPrecondition, cfg.Bands)
	}
	if cfg.MaxFrequency <= 0 {
		cfg.MaxFrequency = MaxFrequency
	}

	a := &Analyzer{cfg: cfg}
	if err := a.Reconfigure(cfg.Frames, cfg.SampleRate); err != nil {
		return nil, err
	}
	return a, nil
}

// Reconfigure adapts the workspace to a new buffer length or sample rate.
// The window and FFT plan are rebuilt only when the length changes; the
// frequency axis whenever either value changes.
func (a *Analyzer) Reconfigure(frames int, sampleRate float64) error {
	if !bitint.IsPowerOfTwo(frames) || frames < 4 {
		return fmt.Errorf("%w: fft size must be a power of 2 >= 4, got %d", ErrPrecondition, frames)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %f", ErrPrecondition, sampleRate)
	}

	if frames != len(a.ws.window) {
		w, err := WindowOf(a.cfg.Window, frames)
		if err != nil {
			return err
		}
		a.fft = fourier.NewFFT(frames)
		a.ws.window = w
		a.ws.input = make([]float64, frames)
		a.ws.coeffs = make([]complex128, frames/2+1)
		a.ws.magnitude = make([]float64, frames/2)
		a.ws.axis = nil
	}
	if a.ws.axis == nil || sampleRate != a.cfg.SampleRate {
		a.ws.axis = FrequencyAxis(frames, sampleRate)
	}
	a.cfg.Frames = frames
	a.cfg.SampleRate = sampleRate

	// Low sample rates cannot reach MaxFrequency; the top band moves down
	// to the highest frequency that still has an upper neighbour.
	a.maxFreq = a.cfg.MaxFrequency
	if top := a.ws.axis[len(a.ws.axis)-2]; a.maxFreq > top {
		a.maxFreq = top
	}
	a.ref = a.cfg.ReferenceZero
	if a.ref <= 0 {
		a.ref = float64(frames) / 4
	}
	return nil
}

// Analyze computes a spectrum from one captured interleaved buffer.
func (a *Analyzer) Analyze(interleaved []float32) (Frame, error) {
	if err := ExtractChannel(a.ws.input, interleaved, a.ws.window, a.cfg.Channels, a.cfg.Channel); err != nil {
		return Frame{}, err
	}

	a.fft.Coefficients(a.ws.coeffs, a.ws.input)
	Magnitudes(a.ws.magnitude, a.ws.coeffs)

	bands, err := ReduceBands(a.ws.axis, a.ws.magnitude, a.cfg.Bands, a.maxFreq, a.ref)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Channel: a.cfg.Channel, Bands: bands}, nil
}

// MagnitudesInto copies the magnitudes of the last Analyze call into dst
// and returns the number of values copied.
func (a *Analyzer) MagnitudesInto(dst []float64) int {
	return copy(dst, a.ws.magnitude)
}

// Axis returns a copy of the current frequency axis.
func (a *Analyzer) Axis() []float64 {
	out := make([]float64, len(a.ws.axis))
	copy(out, a.ws.axis)
	return out
}

// MaxBandFrequency returns the effective frequency of the top band.
func (a *Analyzer) MaxBandFrequency() float64 {
	return a.maxFreq
}

// FFTSize returns the configured FFT size.
func (a *Analyzer) FFTSize() int {
	return a.cfg.Frames
}

// SampleRate returns the configured sample rate in Hz.
func (a *Analyzer) SampleRate() float64 {
	return a.cfg.SampleRate
}
