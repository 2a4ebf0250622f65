// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"
	"io"

	"player/internal/config"
	"player/pkg/build"

	"github.com/spf13/cobra"
)

var (
	// ErrUsage marks a command line that could not be acted on. Usage has
	// already been printed when it is returned.
	ErrUsage = errors.New("invalid usage")

	// ErrHelp is returned after -h/--help printed usage.
	ErrHelp = fmt.Errorf("%w: help requested", ErrUsage)
)

// Subcommands recorded in config.Config.Command.
const (
	CommandDevices            = "devices"
	CommandDevicesInteractive = "devices-interactive"
)

type flagValues struct {
	configPath      string
	file            string
	device          int
	backend         string
	framesPerBuffer int
	lowLatency      bool
	bands           int
	logLevel        string
	logFile         string
	headless        bool
	wsAddr          string
	udpTarget       string
	interactive     bool
}

// ParseArgs parses args (without the program name) into a configuration.
// Values come from the built-in defaults, then the YAML file, then the
// environment and finally any flag set on the command line. A nil config
// with a nil error means the invocation was fully handled, e.g. --version.
func ParseArgs(args []string, stdout, stderr io.Writer) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags         flagValues
		cfg           *config.Config
		helpRequested bool
		configErr     error
	)

	load := func(c *cobra.Command, command string) error {
		loaded, err := config.LoadConfig(flags.configPath)
		if err != nil {
			configErr = err
			return err
		}
		applyFlags(c, loaded, &flags)
		if err := loaded.Validate(); err != nil {
			configErr = err
			return err
		}
		loaded.Command = command
		cfg = loaded
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " -f <path>",
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(c *cobra.Command, args []string) error {
			if flags.file == "" {
				return errors.New("required flag -f/--file not set")
			}
			if err := load(c, ""); err != nil {
				return err
			}
			cfg.File = flags.file
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		helpRequested = true
		c.SetOut(stderr)
		_ = c.Usage()
	})

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available output devices",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			command := CommandDevices
			if flags.interactive {
				command = CommandDevicesInteractive
			}
			return load(c, command)
		},
	}
	devicesCmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false,
		"Browse devices in the terminal UI")
	rootCmd.AddCommand(devicesCmd)

	rootCmd.Flags().StringVarP(&flags.file, "file", "f", "",
		"Audio file to play (wav, mp3, ogg)")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "",
		"Path to a YAML config file (default player.yaml or config.yaml if present)")
	pf.IntVarP(&flags.device, "device", "d", config.DefaultDeviceID,
		"Output device ID. Use the 'devices' command to see available devices.")
	pf.StringVar(&flags.backend, "backend", config.DefaultBackend,
		"Output backend: portaudio or beep")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per buffer, a power of two (affects latency and spectrum resolution)")
	pf.BoolVarP(&flags.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode")
	pf.IntVar(&flags.bands, "bands", config.DefaultBands,
		"Number of spectrum bands")
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel,
		"Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFile, "log-file", "",
		"Write logs to this file")
	pf.BoolVar(&flags.headless, "headless", false,
		"Play without the terminal UI")
	pf.StringVar(&flags.wsAddr, "ws-addr", "",
		"Serve spectrum frames over WebSocket on this address")
	pf.StringVar(&flags.udpTarget, "udp-target", "",
		"Send spectrum frames as UDP packets to this address")

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	switch {
	case err != nil && configErr != nil:
		return nil, err
	case err != nil:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		rootCmd.SetOut(stderr)
		_ = rootCmd.Usage()
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	case helpRequested:
		return nil, ErrHelp
	}
	return cfg, nil
}

// applyFlags copies the flags the user actually set over cfg.
func applyFlags(c *cobra.Command, cfg *config.Config, f *flagValues) {
	changed := c.Flags().Changed
	if changed("device") {
		cfg.Audio.OutputDevice = f.device
	}
	if changed("backend") {
		cfg.Audio.Backend = f.backend
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = f.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if changed("bands") {
		cfg.Spectrum.Bands = f.bands
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if changed("headless") {
		cfg.Headless = f.headless
	}
	if changed("ws-addr") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddr = f.wsAddr
	}
	if changed("udp-target") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = f.udpTarget
	}
}
