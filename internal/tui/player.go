// SPDX-License-Identifier: MIT
/*
Package tui is the terminal presentation layer. The player model polls the
engine and spectrum monitor on a fixed tick and turns key presses into bus
commands. It never blocks on the engine: commands are offered to the queue
and dropped, with a log line, when the queue is full.
*/
package tui

import (
	"fmt"
	"os"
	"time"

	"player/internal/analysis"
	"player/internal/audio"
	"player/internal/bus"
	"player/internal/config"
	applog "player/internal/log"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Engine is the read side of the playback engine the view needs.
type Engine interface {
	State() audio.State
	Info() audio.Info
	Gain() float64
	Done() <-chan struct{}
}

// Spectrum supplies the most recent analysed frame.
type Spectrum interface {
	Latest() (analysis.Frame, bool)
}

type keyMap struct {
	PlayPause key.Binding
	Stop      key.Binding
	Quit      key.Binding
	GainUp    key.Binding
	GainDown  key.Binding
}

var keys = keyMap{
	PlayPause: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space/p", "play/pause")),
	Stop:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	GainUp:    key.NewBinding(key.WithKeys("+", "=", "up"), key.WithHelp("+", "gain up")),
	GainDown:  key.NewBinding(key.WithKeys("-", "down"), key.WithHelp("-", "gain down")),
}

type tickMsg time.Time

// QuitRequest asks the model to queue a Quit command, e.g. on SIGTERM.
type QuitRequest struct{}

// PlayerModel is the Bubble Tea model for the playback screen.
type PlayerModel struct {
	engine    Engine
	commands  *bus.Queue[bus.Command]
	telemetry *bus.Telemetry
	spectrum  Spectrum
	log       applog.Logger
	refresh   time.Duration

	width, height int
	dropped       int
	err           error
}

// NewPlayerModel builds the playback screen. spectrum may be nil, in which
// case no bars are drawn.
func NewPlayerModel(engine Engine, b *bus.Bus, spectrum Spectrum, refresh time.Duration, logger applog.Logger) PlayerModel {
	if refresh <= 0 {
		refresh = config.DefaultRefreshInterval
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return PlayerModel{
		engine:    engine,
		commands:  b.Commands,
		telemetry: &b.Telemetry,
		spectrum:  spectrum,
		log:       logger,
		refresh:   refresh,
		width:     80,
		height:    24,
	}
}

// NewErrorModel builds a screen that only shows err and exits on any key.
func NewErrorModel(err error) PlayerModel {
	return PlayerModel{err: err, log: applog.Discard(), width: 80, height: 24}
}

// Dropped returns how many commands could not be queued.
func (m PlayerModel) Dropped() int {
	return m.dropped
}

func (m PlayerModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the refresh tick.
func (m PlayerModel) Init() tea.Cmd {
	if m.err != nil {
		return nil
	}
	return m.tick()
}

func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case QuitRequest:
		if m.err != nil {
			return m, tea.Quit
		}
		m.send(bus.Quit)

	case tickMsg:
		if m.err != nil {
			return m, nil
		}
		select {
		case <-m.engine.Done():
			return m, tea.Quit
		default:
		}
		return m, m.tick()

	case tea.KeyMsg:
		if m.err != nil {
			return m, tea.Quit
		}
		switch {
		case key.Matches(msg, keys.PlayPause):
			m.send(bus.PlayPause)
		case key.Matches(msg, keys.Stop):
			m.send(bus.Stop)
		case key.Matches(msg, keys.Quit):
			m.send(bus.Quit)
		case key.Matches(msg, keys.GainUp):
			m.send(bus.GainUp)
		case key.Matches(msg, keys.GainDown):
			m.send(bus.GainDown)
		}
	}
	return m, nil
}

func (m *PlayerModel) send(cmd bus.Command) {
	if !m.commands.TryPush(cmd) {
		m.dropped++
		m.log.Warnf("Command queue full, dropped %s", cmd)
	}
}

// Status snapshots the engine for rendering.
func (m PlayerModel) Status() Status {
	info := m.engine.Info()
	st := Status{
		State:      m.engine.State().String(),
		Path:       info.Path,
		Frames:     info.Frames,
		SampleRate: info.SampleRate,
		Channels:   info.Channels,
		Gain:       m.engine.Gain(),
		Dropped:    m.dropped,
	}
	if session, pos := m.telemetry.Snapshot(); session == info.Session {
		st.Position = pos
	}
	return st
}

// View renders the UI
func (m PlayerModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%v\n\n%s",
			titleStyle.Render("Error"), m.err, infoStyle.Render("Press any key to exit."))
	}

	var (
		frame analysis.Frame
		ok    bool
	)
	if m.spectrum != nil {
		frame, ok = m.spectrum.Latest()
	}
	st := m.Status()
	// Frames from a previous track are not shown.
	if ok && frame.Session != m.engine.Info().Session {
		ok = false
	}
	return BuildScene(m.width, m.height, st, frame, ok).Render()
}

// StartPlayerUI runs the playback screen until the engine closes or the
// user quits. Every value received on quit is delivered to the model as a
// QuitRequest, so the program stays the only producer of bus commands.
func StartPlayerUI(model PlayerModel, quit <-chan os.Signal) error {
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithoutSignalHandler())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-quit:
				p.Send(QuitRequest{})
			case <-stop:
				return
			}
		}
	}()

	_, err := p.Run()
	return err
}
