// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Window returns n raised-sine coefficients w[i] = sin²(π·i/(n−1)). This is
// the Hann window, so gonum's implementation is used to generate it.
func Window(n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: window length must be >= 2, got %d", ErrPrecondition, n)
	}
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	return window.Hann(coeffs), nil
}

// WindowFunc selects the analysis window.
type WindowFunc int

// Available window functions. Hann is the zero value.
const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Nuttall
)

var windowNames = map[string]WindowFunc{
	"hann":            Hann,
	"hanning":         Hann,
	"hamming":         Hamming,
	"blackman":        Blackman,
	"blackmannuttall": BlackmanNuttall,
	"bartletthann":    BartlettHann,
	"nuttall":         Nuttall,
}

// ParseWindowFunc converts a case-insensitive name to a WindowFunc. Unknown
// names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	if w, ok := windowNames[strings.ToLower(name)]; ok {
		return w, nil
	}
	return Hann, fmt.Errorf("unknown window function %q", name)
}

// WindowOf returns n coefficients of the selected window.
func WindowOf(kind WindowFunc, n int) ([]float64, error) {
	if kind == Hann {
		return Window(n)
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: window length must be >= 2, got %d", ErrPrecondition, n)
	}
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch kind {
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		return nil, fmt.Errorf("%w: unknown window function %d", ErrPrecondition, kind)
	}
	return coeffs, nil
}

// ExtractChannel de-interleaves one channel into dst and applies the window:
// dst[i] = interleaved[channels·i + channel] · w[i]. The interleaved length
// must be a whole number of frames (an even count for stereo).
func ExtractChannel(dst []float64, interleaved []float32, w []float64, channels, channel int) error {
	if channels <= 0 || channel < 0 || channel >= channels {
		return fmt.Errorf("%w: channel %d out of range for %d channels", ErrPrecondition, channel, channels)
	}
	if len(interleaved)%channels != 0 {
		return fmt.Errorf("%w: %d samples is not a whole number of %d-channel frames",
			ErrPrecondition, len(interleaved), channels)
	}
	frames := len(interleaved) / channels
	if frames > len(w) || frames > len(dst) {
		return fmt.Errorf("%w: %d frames exceed window length %d", ErrPrecondition, frames, len(w))
	}
	for i := range frames {
		dst[i] = float64(interleaved[channels*i+channel]) * w[i]
	}
	// A short capture is zero-padded up to the window length.
	for i := frames; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}

// Magnitudes writes sqrt(re²+im²) of the first len(dst) coefficients.
func Magnitudes(dst []float64, coeffs []complex128) {
	for i := range dst {
		re, im := real(coeffs[i]), imag(coeffs[i])
		dst[i] = math.Sqrt(re*re + im*im)
	}
}

// FrequencyAxis returns the centre frequency of each of the n/2 bins of an
// n-point transform: k·sampleRate/n.
func FrequencyAxis(n int, sampleRate float64) []float64 {
	axis := make([]float64, n/2)
	fft := fourier.NewFFT(n)
	for k := range axis {
		axis[k] = fft.Freq(k) * sampleRate
	}
	return axis
}
