// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"player/cmd"
	"player/internal/analysis"
	"player/internal/audio"
	"player/internal/bus"
	"player/internal/config"
	"player/internal/decode"
	applog "player/internal/log"
	"player/internal/transport"
	"player/internal/transport/udp"
	"player/internal/tui"
	"player/pkg/build"

	"golang.org/x/sync/errgroup"
)

// main is the entry point for the player.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and configuration
//   - Set up logging and the output backend
//   - Execute one-off commands if requested
//   - Load the track
//
// 2. Concurrent Phase (Hot Path):
//   - Engine control loop and render callback
//   - Spectrum monitor and network transports
//   - Terminal UI, or a signal wait when headless
//
// 3. Shutdown Phase (Cold Path):
//   - Engine teardown releases the stream and the file
//   - Transports and the log file are closed
func main() {
	os.Exit(run())
}

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func run() int {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds run without ldflags; the error is only logged.
	buildErr := build.Initialize()

	cfg, err := cmd.ParseArgs(os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case errors.Is(err, cmd.ErrUsage):
		return exitUsage
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	case cfg == nil:
		return exitOK
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer closeLog.Close()

	logger.Infof("Starting %s", build.GetBuildFlags())
	if buildErr != nil {
		logger.Debugf("Build flags incomplete: %v", buildErr)
	}
	for _, override := range cfg.EnvOverrides {
		logger.Infof("Config override from environment: %s", override)
	}

	// Handle one-off commands (e.g., device listing) that don't require
	// the engine to be running
	if cfg.Command != "" {
		if err := executeCommand(cfg.Command); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return exitError
		}
		return exitOK
	}

	device, release, err := openBackend(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer release()

	b := bus.New(cfg.Audio.QueueCapacity)
	engine, err := audio.NewEngine(cfg, device, decode.DefaultRegistry(), b, logger.Named("engine"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if err := engine.Load(cfg.File); err != nil {
		logger.Errorf("Load failed: %v", err)
		if !cfg.Headless {
			if uiErr := tui.StartPlayerUI(tui.NewErrorModel(err), nil); uiErr != nil {
				logger.Errorf("UI error: %v", uiErr)
			}
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	info := engine.Info()
	logger.Infof("Loaded %s: %d channels, %d Hz, %s", info.Path, info.Channels, info.SampleRate, info.Duration())

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	sinks, closers, serve, err := openTransports(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	monitor, err := newMonitor(cfg, engine, b, logger, sinks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeAll(closers, logger)
		return exitError
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return engine.Run(gctx)
	})
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	for _, s := range serve {
		g.Go(s)
	}
	g.Go(func() error {
		// Exactly one goroutine produces commands at any time.
		if cfg.Headless {
			select {
			case <-signals:
				logger.Infof("Signal received, quitting")
				b.Commands.TryPush(bus.Quit)
			case <-engine.Done():
			case <-gctx.Done():
			}
			return nil
		}
		uiErr := tui.StartPlayerUI(tui.NewPlayerModel(engine, b, monitor, cfg.UI.RefreshInterval, logger.Named("ui")), signals)
		select {
		case <-engine.Done():
		default:
			b.Commands.TryPush(bus.Quit)
		}
		return uiErr
	})
	g.Go(func() error {
		<-gctx.Done()
		closeAll(closers, logger)
		return nil
	})

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	err = g.Wait()
	cancel()
	if err != nil {
		logger.Errorf("Playback failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	logger.Infof("Playback finished")
	return exitOK
}

// newLogger writes to the configured log file, or to stderr when there is
// no terminal UI to corrupt. Otherwise logs are discarded.
func newLogger(cfg *config.Config) (*applog.LevelLogger, io.Closer, error) {
	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		return nil, nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	switch {
	case cfg.LogFile != "":
		return applog.Open(cfg.LogFile, level)
	case cfg.Headless || cfg.Command == cmd.CommandDevices:
		return applog.New(os.Stderr, level), io.NopCloser(nil), nil
	default:
		return applog.New(io.Discard, level), io.NopCloser(nil), nil
	}
}

// executeCommand handles one-off commands that don't need the engine.
func executeCommand(command string) error {
	switch command {
	case cmd.CommandDevices:
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(os.Stdout)
	case cmd.CommandDevicesInteractive:
		sel, ok, err := tui.StartDeviceListUI(audio.GetDevices)
		if err != nil || !ok {
			return err
		}
		flag := "--device " + fmt.Sprint(sel.Device.ID)
		if sel.LowLatency {
			flag += " --low-latency"
		}
		fmt.Printf("Selected %s, play with: %s %s -f <path>\n", sel.Device.Name, build.GetBuildFlags().Name, flag)
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// openBackend prepares the configured output device. The returned release
// function must run after the engine has closed its stream.
func openBackend(cfg *config.Config) (audio.Device, func(), error) {
	switch cfg.Audio.Backend {
	case config.BackendBeep:
		return audio.BeepDevice{}, func() {}, nil
	default:
		if err := audio.Initialize(); err != nil {
			return nil, nil, err
		}
		return audio.PortAudioDevice{DeviceID: cfg.Audio.OutputDevice}, func() { _ = audio.Terminate() }, nil
	}
}

// openTransports builds the enabled spectrum sinks. serve holds the
// long-running server loops to run alongside the engine.
func openTransports(cfg *config.Config, logger *applog.LevelLogger) (
	sinks []analysis.Sink, closers []transport.Transport, serve []func() error, err error) {
	t := cfg.Transport

	if t.LogEnabled {
		lt := transport.NewLoggingTransport(logger.Named("spectrum"))
		sinks = append(sinks, lt)
		closers = append(closers, lt)
	}
	if t.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(t.WebSocketAddr, logger.Named("websocket"))
		sinks = append(sinks, ws)
		closers = append(closers, ws)
		serve = append(serve, ws.ListenAndServe)
	}
	if t.UDPEnabled {
		sender, err := udp.NewSender(t.UDPTargetAddress, logger.Named("udp"))
		if err != nil {
			closeAll(closers, logger)
			return nil, nil, nil, err
		}
		pub, err := udp.NewPublisher(sender, logger.Named("udp"))
		if err != nil {
			_ = sender.Close()
			closeAll(closers, logger)
			return nil, nil, nil, err
		}
		sinks = append(sinks, pub)
		closers = append(closers, pub)
	}
	return sinks, closers, serve, nil
}

func newMonitor(cfg *config.Config, engine *audio.Engine, b *bus.Bus, logger *applog.LevelLogger,
	sinks []analysis.Sink) (*analysis.Monitor, error) {
	info := engine.Info()
	channel := cfg.Spectrum.Channel
	if channel >= info.Channels {
		logger.Warnf("Spectrum channel %d not in a %d channel track, using channel 0", channel, info.Channels)
		channel = 0
	}

	window, err := analysis.ParseWindowFunc(cfg.Spectrum.Window)
	if err != nil {
		return nil, err
	}
	analyzer, err := analysis.NewAnalyzer(analysis.Config{
		Frames:        cfg.Audio.FramesPerBuffer,
		SampleRate:    float64(info.SampleRate),
		Channels:      info.Channels,
		Channel:       channel,
		Bands:         cfg.Spectrum.Bands,
		MaxFrequency:  cfg.Spectrum.MaxFrequency,
		ReferenceZero: cfg.Spectrum.ReferenceZero,
		Window:        window,
	})
	if err != nil {
		return nil, err
	}
	return analysis.NewMonitor(analyzer, engine.Tap(), &b.Telemetry, cfg.Spectrum.Interval,
		logger.Named("spectrum"), sinks...)
}

func closeAll(closers []transport.Transport, logger applog.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warnf("Transport close: %v", err)
		}
	}
}
