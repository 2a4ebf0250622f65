// SPDX-License-Identifier: MIT
// Package utils holds signal generators and fakes shared by tests.
package utils

import (
	"math"
	"sync"
)

// MockTransport records everything sent to it instead of transmitting.
type MockTransport struct {
	mu       sync.Mutex
	LastData any
	Count    int
	Closed   bool
}

// Send stores the data for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastData = data
	m.Count++
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Sent returns the number of Send calls so far.
func (m *MockTransport) Sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Count
}

// GenerateSineWave returns frames mono samples of a sine at frequency Hz
// with amplitude 0.9.
func GenerateSineWave(frames int, sampleRate, frequency float64) []float32 {
	return GenerateInterleavedSine(frames, 1, sampleRate, frequency)
}

// GenerateInterleavedSine returns frames interleaved frames with the same
// sine on every channel.
func GenerateInterleavedSine(frames, channels int, sampleRate, frequency float64) []float32 {
	buffer := make([]float32, frames*channels)
	for i := range frames {
		v := float32(math.Sin(2*math.Pi*frequency*float64(i)/sampleRate) * 0.9)
		for c := range channels {
			buffer[i*channels+c] = v
		}
	}
	return buffer
}

// GenerateComplexWave returns a mono 440Hz tone with its second and third
// harmonics.
func GenerateComplexWave(frames int, sampleRate float64) []float32 {
	buffer := make([]float32, frames)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in
// [startBin, endBin], clamped to the slice.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
