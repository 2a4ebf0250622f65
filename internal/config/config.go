// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the player.
const (
	// Default values for the player configuration
	DefaultDeviceID        = -1          // -1 represents the system default device
	DefaultBackend         = "portaudio" // Output backend
	DefaultFramesPerBuffer = 1024        // Balanced latency/FFT resolution
	DefaultLowLatency      = false       // Standard latency mode
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultQueueCapacity   = 1024 // Command queue slots
	DefaultGainStep        = 0.1
	DefaultMaxGain         = 2.0
	DefaultInitialGain     = 1.0
	DefaultBands           = 32
	DefaultMaxFrequency    = 20000.0 // Top band in Hz
	DefaultSpectrumRate    = 33 * time.Millisecond
	DefaultRefreshInterval = 50 * time.Millisecond
	DefaultWindow          = "hann"
	DefaultLogLevel        = "info"
	DefaultWebSocketAddr   = ":8080"
	DefaultUDPTarget       = "127.0.0.1:9090"

	// Limits
	MinFramesPerBuffer = 64
	MaxFramesPerBuffer = 8192 // Power of 2
	MaxBands           = 512
	MaxGainLimit       = 10.0
)

// Output backends.
const (
	BackendPortAudio = "portaudio"
	BackendBeep      = "beep"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Backend:         DefaultBackend,
			OutputDevice:    DefaultDeviceID,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			PollInterval:    DefaultPollInterval,
			QueueCapacity:   DefaultQueueCapacity,
			GainStep:        DefaultGainStep,
			MaxGain:         DefaultMaxGain,
			InitialGain:     DefaultInitialGain,
		},
		Spectrum: SpectrumConfig{
			Bands:        DefaultBands,
			MaxFrequency: DefaultMaxFrequency,
			Channel:      0,
			Interval:     DefaultSpectrumRate,
			Window:       DefaultWindow,
		},
		UI: UIConfig{
			RefreshInterval: DefaultRefreshInterval,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    DefaultWebSocketAddr,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
			LogEnabled:       false,
		},
	}
}
