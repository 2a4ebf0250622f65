// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"

	"player/internal/analysis"

	"github.com/charmbracelet/lipgloss"
)

func testFrame(dbs ...float64) analysis.Frame {
	f := analysis.Frame{Session: 1}
	for _, db := range dbs {
		f.Bands = append(f.Bands, analysis.Band{Decibels: db})
	}
	return f
}

func barRects(s Scene) []Rect {
	var out []Rect
	for _, r := range s.Rects {
		if r.Y >= spectrumTop {
			out = append(out, r)
		}
	}
	return out
}

func TestBarHeight(t *testing.T) {
	tests := []struct {
		db   float64
		area int
		want int
	}{
		{0, 10, 10},
		{6, 10, 10},
		{analysis.MinDecibels, 10, 0},
		{-200, 10, 0},
		{analysis.MinDecibels / 2, 10, 5},
		{analysis.MinDecibels / 2, 0, 0},
	}
	for _, tt := range tests {
		if got := BarHeight(tt.db, tt.area); got != tt.want {
			t.Errorf("BarHeight(%v, %d) = %d, want %d", tt.db, tt.area, got, tt.want)
		}
	}
}

func TestBuildSceneBars(t *testing.T) {
	const width, height = 40, 20
	s := BuildScene(width, height, Status{State: "STREAMING"}, testFrame(-60, 0, analysis.MinDecibels, -30), true)

	bars := barRects(s)
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3 (silent band skipped)", len(bars))
	}
	bottom := height - helpRows - 1
	for _, r := range bars {
		if r.X < 0 || r.X+r.W > width || r.Y < spectrumTop || r.Y+r.H-1 != bottom {
			t.Errorf("bar %+v not anchored inside the spectrum area", r)
		}
	}
	if bars[1].H <= bars[2].H || bars[2].H <= bars[0].H {
		t.Errorf("bar heights %d %d %d not ordered by level", bars[0].H, bars[1].H, bars[2].H)
	}
	if bars[1].Paint != PaintPeak || bars[0].Paint != PaintBar {
		t.Errorf("full-scale bar should use the peak paint")
	}
	if bars[1].X != width/4 {
		t.Errorf("second bar at x=%d, want %d", bars[1].X, width/4)
	}
}

func TestBuildSceneManyBandsClipped(t *testing.T) {
	dbs := make([]float64, 100)
	s := BuildScene(MinSceneWidth, MinSceneHeight, Status{}, testFrame(dbs...), true)
	for _, r := range barRects(s) {
		if r.X+r.W > s.Width {
			t.Errorf("bar %+v exceeds width %d", r, s.Width)
		}
	}
	if got := len(barRects(s)); got != MinSceneWidth {
		t.Errorf("got %d bars, want %d", got, MinSceneWidth)
	}
}

func TestBuildSceneProgress(t *testing.T) {
	s := BuildScene(40, 12, Status{Position: 250, Frames: 1000, SampleRate: 100}, analysis.Frame{}, false)

	var progress []Rect
	for _, r := range s.Rects {
		if r.Y == progressRow {
			progress = append(progress, r)
		}
	}
	if len(progress) != 2 {
		t.Fatalf("got %d progress rects, want track and fill", len(progress))
	}
	if progress[0].W != 40 || progress[1].W != 10 {
		t.Errorf("progress widths %d/%d, want 40/10", progress[0].W, progress[1].W)
	}

	// Unknown length draws no progress bar.
	s = BuildScene(40, 12, Status{}, analysis.Frame{}, false)
	for _, r := range s.Rects {
		if r.Y == progressRow {
			t.Errorf("unexpected progress rect %+v", r)
		}
	}
}

func TestBuildSceneMinimumSize(t *testing.T) {
	s := BuildScene(1, 1, Status{}, analysis.Frame{}, false)
	if s.Width != MinSceneWidth || s.Height != MinSceneHeight {
		t.Errorf("scene is %dx%d, want %dx%d", s.Width, s.Height, MinSceneWidth, MinSceneHeight)
	}
}

func TestSceneRender(t *testing.T) {
	s := Scene{
		Width:  6,
		Height: 3,
		Rects:  []Rect{{X: 1, Y: 1, W: 3, H: 2, Fill: '#', Paint: PaintBar}, {X: 4, Y: -1, W: 9, H: 9, Fill: '+', Paint: PaintMuted}},
		Labels: []Label{{X: 0, Y: 0, Text: "abcdefgh", Paint: PaintText}, {X: 2, Y: 2, Text: "x", Paint: PaintText}, {X: 0, Y: 5, Text: "off"}},
	}

	lines := strings.Split(s.Render(), "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want 3", len(lines))
	}
	want := []string{"abcdef", " ###++", " #x#++"}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 6 {
			t.Errorf("line %d is %d cells wide, want 6", i, w)
		}
		if got := stripANSI(line); got != want[i] {
			t.Errorf("line %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestClock(t *testing.T) {
	tests := []struct {
		frames int64
		rate   int
		want   string
	}{
		{0, 44100, "0:00"},
		{44100 * 75, 44100, "1:15"},
		{100, 0, "-:--"},
		{-1, 44100, "-:--"},
	}
	for _, tt := range tests {
		if got := clock(tt.frames, tt.rate); got != tt.want {
			t.Errorf("clock(%d, %d) = %q, want %q", tt.frames, tt.rate, got, tt.want)
		}
	}
}

// stripANSI removes CSI escape sequences.
func stripANSI(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && (s[i] < 0x40 || s[i] > 0x7e) {
				i++
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
