// SPDX-License-Identifier: MIT
package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"player/internal/analysis"
	"player/internal/audio"
	"player/internal/bus"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeEngine struct {
	state audio.State
	info  audio.Info
	gain  float64
	done  chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		state: audio.Streaming,
		info:  audio.Info{Path: "track.wav", Channels: 2, SampleRate: 44100, Frames: 441000, Session: 1},
		gain:  1,
		done:  make(chan struct{}),
	}
}

func (e *fakeEngine) State() audio.State    { return e.state }
func (e *fakeEngine) Info() audio.Info      { return e.info }
func (e *fakeEngine) Gain() float64         { return e.gain }
func (e *fakeEngine) Done() <-chan struct{} { return e.done }

type fakeSpectrum struct {
	frame analysis.Frame
	ok    bool
}

func (s fakeSpectrum) Latest() (analysis.Frame, bool) { return s.frame, s.ok }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func drain(q *bus.Queue[bus.Command]) []bus.Command {
	var out []bus.Command
	for {
		c, ok := q.TryPop()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

func TestPlayerKeyBindings(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want bus.Command
	}{
		{"space", tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, bus.PlayPause},
		{"p", runes("p"), bus.PlayPause},
		{"s", runes("s"), bus.Stop},
		{"q", runes("q"), bus.Quit},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, bus.Quit},
		{"plus", runes("+"), bus.GainUp},
		{"up", tea.KeyMsg{Type: tea.KeyUp}, bus.GainUp},
		{"minus", runes("-"), bus.GainDown},
		{"down", tea.KeyMsg{Type: tea.KeyDown}, bus.GainDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bus.New(8)
			m := NewPlayerModel(newFakeEngine(), b, nil, time.Millisecond, nil)

			next, cmd := m.Update(tt.msg)
			if cmd != nil {
				t.Errorf("key should not return a command")
			}
			got := drain(b.Commands)
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("queued %v, want [%v]", got, tt.want)
			}
			if next.(PlayerModel).Dropped() != 0 {
				t.Errorf("unexpected drop")
			}
		})
	}
}

func TestPlayerIgnoresUnboundKeys(t *testing.T) {
	b := bus.New(8)
	m := NewPlayerModel(newFakeEngine(), b, nil, time.Millisecond, nil)
	m.Update(runes("x"))
	if got := drain(b.Commands); len(got) != 0 {
		t.Errorf("queued %v for an unbound key", got)
	}
}

func TestPlayerDropsWhenQueueFull(t *testing.T) {
	b := bus.New(2)
	var model tea.Model = NewPlayerModel(newFakeEngine(), b, nil, time.Millisecond, nil)

	for range b.Commands.Cap() + 3 {
		model, _ = model.Update(runes("p"))
	}
	if got := model.(PlayerModel).Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	if got := len(drain(b.Commands)); got != b.Commands.Cap() {
		t.Errorf("queued %d commands, want %d", got, b.Commands.Cap())
	}
	if !strings.Contains(model.View(), "3 commands dropped") {
		t.Errorf("view does not report dropped commands")
	}
}

func TestPlayerTick(t *testing.T) {
	e := newFakeEngine()
	m := NewPlayerModel(e, bus.New(8), nil, time.Millisecond, nil)

	if m.Init() == nil {
		t.Fatal("Init should schedule a tick")
	}
	if _, cmd := m.Update(tickMsg(time.Now())); cmd == nil {
		t.Fatal("tick should reschedule while the engine runs")
	}

	close(e.done)
	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick after close should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("tick after close returned %T, want tea.QuitMsg", cmd())
	}
}

func TestPlayerStatus(t *testing.T) {
	e := newFakeEngine()
	b := bus.New(8)
	m := NewPlayerModel(e, b, nil, time.Millisecond, nil)

	b.Telemetry.Publish(1, 22050)
	st := m.Status()
	if st.State != "STREAMING" || st.Path != "track.wav" || st.Position != 22050 {
		t.Errorf("Status() = %+v", st)
	}

	// Position from another session is ignored.
	b.Telemetry.Publish(7, 99)
	if st := m.Status(); st.Position != 0 {
		t.Errorf("stale position %d shown", st.Position)
	}
}

func TestPlayerView(t *testing.T) {
	e := newFakeEngine()
	b := bus.New(8)
	frame := analysis.Frame{Session: 1, Bands: []analysis.Band{{Decibels: 0}, {Decibels: -60}}}

	m := NewPlayerModel(e, b, fakeSpectrum{frame: frame, ok: true}, time.Millisecond, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	view := next.View()

	if lines := strings.Split(view, "\n"); len(lines) != 12 {
		t.Errorf("view has %d lines, want 12", len(lines))
	}
	for _, want := range []string{"STREAMING", "track.wav", "0:00 / 0:10", "█"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	// A frame from a previous track is not drawn.
	frame.Session = 0
	m = NewPlayerModel(e, b, fakeSpectrum{frame: frame, ok: true}, time.Millisecond, nil)
	if view := m.View(); strings.Contains(view, "█") || !strings.Contains(view, "waiting for audio") {
		t.Errorf("stale frame drawn:\n%s", view)
	}
}

func TestErrorModel(t *testing.T) {
	m := NewErrorModel(errors.New("decode track.wav: unsupported format"))

	if m.Init() != nil {
		t.Error("error screen should not tick")
	}
	if !strings.Contains(m.View(), "unsupported format") {
		t.Errorf("view does not show the error:\n%s", m.View())
	}
	_, cmd := m.Update(runes("x"))
	if cmd == nil {
		t.Fatal("any key should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("got %T, want tea.QuitMsg", cmd())
	}
}

func TestPlayerQuitRequest(t *testing.T) {
	b := bus.New(8)
	m := NewPlayerModel(newFakeEngine(), b, nil, time.Millisecond, nil)

	if _, cmd := m.Update(QuitRequest{}); cmd != nil {
		t.Error("quit request should wait for the engine to close")
	}
	if got := drain(b.Commands); len(got) != 1 || got[0] != bus.Quit {
		t.Errorf("queued %v, want [QUIT]", got)
	}
}
