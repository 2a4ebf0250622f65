// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
)

// Upper band bound and decibel floor.
const (
	MaxFrequency = 20e3
	MinDecibels  = -120.0
)

var (
	// ErrPrecondition marks a violated calling contract: odd sample
	// counts, out-of-range frequencies and similar programming errors.
	ErrPrecondition = errors.New("analysis precondition violated")

	// ErrNoBracket is returned when no pair of bins surrounds a target
	// frequency.
	ErrNoBracket = fmt.Errorf("%w: no frequency bracket", ErrPrecondition)
)

// Band is one entry of a log-scaled spectrum.
type Band struct {
	LogFrequency float64 `json:"log_freq"`
	Frequency    float64 `json:"freq"`
	Amplitude    float64 `json:"amp"`
	Decibels     float64 `json:"db"`
}

// Frame is a spectrum computed from one captured buffer. It is never
// modified after it is returned.
type Frame struct {
	Session  uint64 `json:"session"`
	Position int64  `json:"position"`
	Channel  int    `json:"channel"`
	Bands    []Band `json:"bands"`
}

// FindBracket returns the index of the last bin at or below f, i.e. the bin
// before the first bin whose frequency exceeds f. ok is false when no bin
// exceeds f, in which case there is no upper neighbour to interpolate with.
func FindBracket(axis []float64, f float64) (idx int, ok bool) {
	for i, binFreq := range axis {
		if binFreq > f {
			if i == 0 {
				return 0, false
			}
			return i - 1, true
		}
	}
	return -1, false
}

// Interpolate linearly interpolates amps at frequency f over axis.
func Interpolate(axis, amps []float64, f float64) (float64, error) {
	if len(axis) < 2 || len(amps) < len(axis) {
		return 0, fmt.Errorf("%w: need at least two bins with amplitudes", ErrPrecondition)
	}
	i, ok := FindBracket(axis, f)
	if !ok {
		return 0, fmt.Errorf("%w: %.2f Hz outside [%.2f, %.2f)", ErrNoBracket, f, axis[0], axis[len(axis)-1])
	}
	f0, f1 := axis[i], axis[i+1]
	a0, a1 := amps[i], amps[i+1]
	return a0 + (f-f0)*(a1-a0)/(f1-f0), nil
}

// Decibels converts an amplitude to dB relative to ref. Non-positive
// amplitudes and anything quieter than MinDecibels return MinDecibels.
func Decibels(amp, ref float64) float64 {
	if amp <= 0 || ref <= 0 {
		return MinDecibels
	}
	db := 20 * math.Log10(amp/ref)
	if db < MinDecibels || math.IsNaN(db) {
		return MinDecibels
	}
	return db
}

// ReduceBands summarises a linear magnitude spectrum into count bands whose
// log10 frequencies are evenly spaced: band i sits at (i+1)·log10(maxFreq)/count,
// so the last band lands exactly on maxFreq.
func ReduceBands(axis, amps []float64, count int, maxFreq, ref float64) ([]Band, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: band count must be positive, got %d", ErrPrecondition, count)
	}
	if len(axis) != len(amps) || len(axis) < 2 {
		return nil, fmt.Errorf("%w: axis/amplitude length mismatch (%d, %d)", ErrPrecondition, len(axis), len(amps))
	}

	step := math.Log10(maxFreq) / float64(count)
	bands := make([]Band, count)
	for i := range bands {
		logF := step * float64(i+1)
		f := math.Pow(10, logF)
		amp, err := Interpolate(axis, amps, f)
		if err != nil {
			return nil, fmt.Errorf("band %d: %w", i, err)
		}
		bands[i] = Band{
			LogFrequency: logF,
			Frequency:    f,
			Amplitude:    amp,
			Decibels:     Decibels(amp, ref),
		}
	}
	return bands, nil
}
