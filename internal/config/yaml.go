// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"player/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"`          // Logging level ("debug", "info", "warn", "error").
	LogFile   string          `yaml:"log_file,omitempty"` // Log destination; empty keeps logs off the terminal UI.
	Headless  bool            `yaml:"headless"`           // Play without the terminal UI.
	Audio     AudioConfig     `yaml:"audio"`              // Playback settings.
	Spectrum  SpectrumConfig  `yaml:"spectrum"`           // Spectrum analysis settings.
	UI        UIConfig        `yaml:"ui"`                 // Terminal UI settings.
	Transport TransportConfig `yaml:"transport"`          // Spectrum fan-out settings.

	File         string   `yaml:"-"` // Track to play, from the command line.
	Command      string   `yaml:"-"` // Subcommand to run instead of playing.
	EnvOverrides []string `yaml:"-"` // Settings replaced from the environment.
}

// AudioConfig holds settings related to audio output and the control loop.
type AudioConfig struct {
	Backend         string        `yaml:"backend"`           // "portaudio" or "beep".
	OutputDevice    int           `yaml:"output_device"`     // PortAudio device index (-1 for default).
	FramesPerBuffer int           `yaml:"frames_per_buffer"` // Frames per render callback; also the FFT size.
	LowLatency      bool          `yaml:"low_latency"`       // Request low latency settings from the device.
	PollInterval    time.Duration `yaml:"poll_interval"`     // Command polling interval of the control loop.
	QueueCapacity   int           `yaml:"queue_capacity"`    // Command queue slots, rounded up to a power of 2.
	GainStep        float64       `yaml:"gain_step"`         // Gain change per GainUp/GainDown.
	MaxGain         float64       `yaml:"max_gain"`          // Upper gain bound.
	InitialGain     float64       `yaml:"initial_gain"`      // Gain at startup.
}

// SpectrumConfig holds settings for the spectrum monitor.
type SpectrumConfig struct {
	Bands         int           `yaml:"bands"`          // Number of log-spaced bands.
	MaxFrequency  float64       `yaml:"max_frequency"`  // Top band frequency in Hz.
	ReferenceZero float64       `yaml:"reference_zero"` // Amplitude mapped to 0 dB (0 for N/4).
	Channel       int           `yaml:"channel"`        // Channel to analyse.
	Interval      time.Duration `yaml:"interval"`       // Analysis interval.
	Window        string        `yaml:"window"`         // Window function name, e.g. "hann".
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"` // Redraw interval.
}

// TransportConfig holds settings related to sending spectrum frames over the network.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`  // Serve frames as JSON on /spectrum.
	WebSocketAddr    string `yaml:"websocket_addr"`     // Listen address for the WebSocket server.
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Send frames as UDP packets.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	LogEnabled       bool   `yaml:"log_enabled"`        // Log a summary of every frame at debug level.
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("player.yaml", "config.yaml"). If no file is found,
// it uses built-in defaults. After loading defaults or from file, it applies environment
// variable overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range []string{"player.yaml", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(validLogLevel(c.LogLevel), "log_level %q must be one of debug, info, warn, error", c.LogLevel)

	a := c.Audio
	check(a.Backend == BackendPortAudio || a.Backend == BackendBeep,
		"audio.backend %q must be %q or %q", a.Backend, BackendPortAudio, BackendBeep)
	check(a.OutputDevice >= DefaultDeviceID, "audio.output_device must be >= %d", DefaultDeviceID)
	check(bitint.IsPowerOfTwo(a.FramesPerBuffer) &&
		a.FramesPerBuffer >= MinFramesPerBuffer && a.FramesPerBuffer <= MaxFramesPerBuffer,
		"audio.frames_per_buffer %d must be a power of 2 in [%d, %d]",
		a.FramesPerBuffer, MinFramesPerBuffer, MaxFramesPerBuffer)
	check(a.PollInterval > 0, "audio.poll_interval must be positive")
	check(a.QueueCapacity > 0, "audio.queue_capacity must be positive")
	check(a.GainStep > 0, "audio.gain_step must be positive")
	check(a.MaxGain > 0 && a.MaxGain <= MaxGainLimit, "audio.max_gain must be in (0, %.0f]", MaxGainLimit)
	check(a.InitialGain >= 0 && a.InitialGain <= a.MaxGain, "audio.initial_gain must be in [0, max_gain]")

	s := c.Spectrum
	check(s.Bands > 0 && s.Bands <= MaxBands, "spectrum.bands %d must be in [1, %d]", s.Bands, MaxBands)
	check(s.MaxFrequency > 1, "spectrum.max_frequency must be above 1 Hz")
	check(s.ReferenceZero >= 0, "spectrum.reference_zero must not be negative")
	check(s.Channel >= 0, "spectrum.channel must not be negative")
	check(s.Interval > 0, "spectrum.interval must be positive")
	check(s.Window != "", "spectrum.window must be set")

	check(c.UI.RefreshInterval > 0, "ui.refresh_interval must be positive")

	t := c.Transport
	if t.WebSocketEnabled {
		check(t.WebSocketAddr != "", "transport.websocket_addr must be set when the WebSocket server is enabled")
	}
	if t.UDPEnabled {
		check(strings.Contains(t.UDPTargetAddress, ":"),
			"transport.udp_target_address '%s' appears invalid (missing port?)", t.UDPTargetAddress)
	}

	return errors.Join(errs...)
}

func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// applyEnvOverrides replaces settings from PLAYER_* environment variables.
// Unparseable values are ignored. Applied overrides are recorded in
// EnvOverrides so they can be logged once the logger exists.
func (c *Config) applyEnvOverrides() {
	str := func(key string, dst *string) {
		if val, ok := os.LookupEnv(key); ok {
			*dst = val
			c.EnvOverrides = append(c.EnvOverrides, fmt.Sprintf("%s=%s", key, val))
		}
	}
	boolean := func(key string, dst *bool) {
		if val, ok := os.LookupEnv(key); ok {
			if b, err := strconv.ParseBool(val); err == nil {
				*dst = b
				c.EnvOverrides = append(c.EnvOverrides, fmt.Sprintf("%s=%v", key, b))
			}
		}
	}
	integer := func(key string, dst *int) {
		if val, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(val); err == nil {
				*dst = n
				c.EnvOverrides = append(c.EnvOverrides, fmt.Sprintf("%s=%d", key, n))
			}
		}
	}
	duration := func(key string, dst *time.Duration) {
		if val, ok := os.LookupEnv(key); ok {
			if d, err := time.ParseDuration(val); err == nil {
				*dst = d
				c.EnvOverrides = append(c.EnvOverrides, fmt.Sprintf("%s=%s", key, d))
			}
		}
	}

	// PLAYER_{...}
	// These are general overrides.
	str("PLAYER_LOG_LEVEL", &c.LogLevel)
	str("PLAYER_LOG_FILE", &c.LogFile)
	boolean("PLAYER_HEADLESS", &c.Headless)

	// PLAYER_AUDIO_{...}
	str("PLAYER_AUDIO_BACKEND", &c.Audio.Backend)
	integer("PLAYER_AUDIO_OUTPUT_DEVICE", &c.Audio.OutputDevice)
	integer("PLAYER_AUDIO_FRAMES_PER_BUFFER", &c.Audio.FramesPerBuffer)
	boolean("PLAYER_AUDIO_LOW_LATENCY", &c.Audio.LowLatency)
	duration("PLAYER_AUDIO_POLL_INTERVAL", &c.Audio.PollInterval)

	// PLAYER_SPECTRUM_{...}
	integer("PLAYER_SPECTRUM_BANDS", &c.Spectrum.Bands)
	str("PLAYER_SPECTRUM_WINDOW", &c.Spectrum.Window)

	// PLAYER_TRANSPORT_{...}
	// These are specific to the transport layer.
	boolean("PLAYER_TRANSPORT_WEBSOCKET_ENABLED", &c.Transport.WebSocketEnabled)
	str("PLAYER_TRANSPORT_WEBSOCKET_ADDR", &c.Transport.WebSocketAddr)
	boolean("PLAYER_TRANSPORT_UDP_ENABLED", &c.Transport.UDPEnabled)
	str("PLAYER_TRANSPORT_UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
}
