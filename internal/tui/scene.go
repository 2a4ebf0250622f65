// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"player/internal/analysis"

	"github.com/charmbracelet/lipgloss"
)

// Paint selects the style a primitive is drawn with.
type Paint int

const (
	PaintText Paint = iota
	PaintTitle
	PaintBar
	PaintPeak
	PaintProgress
	PaintMuted
)

var paints = map[Paint]lipgloss.Style{
	PaintText:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")),
	PaintTitle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFDF5")).Background(lipgloss.Color("#25A065")).Bold(true),
	PaintBar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")),
	PaintPeak:     lipgloss.NewStyle().Foreground(lipgloss.Color("#E8B923")),
	PaintProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("#5A9BD5")),
	PaintMuted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7A7A7A")),
}

// Rect is a filled cell rectangle.
type Rect struct {
	X, Y, W, H int
	Fill       rune
	Paint      Paint
}

// Label is a single line of text starting at X, Y.
type Label struct {
	X, Y  int
	Text  string
	Paint Paint
}

// Scene is a list of drawable primitives on a Width x Height cell grid.
type Scene struct {
	Width, Height int
	Rects         []Rect
	Labels        []Label
}

// Status is the playback state shown above the spectrum.
type Status struct {
	State      string
	Path       string
	Position   int64
	Frames     int64
	SampleRate int
	Channels   int
	Gain       float64
	Dropped    int
}

// Layout rows.
const (
	titleRow    = 0
	statusRow   = 1
	progressRow = 2
	spectrumTop = 4
	helpRows    = 1
)

// MinSceneWidth and MinSceneHeight are the smallest grid a scene is built for.
const (
	MinSceneWidth  = 20
	MinSceneHeight = 8
)

// BuildScene lays out the player screen. Bands are drawn left to right as
// vertical bars whose height is proportional to their level above
// analysis.MinDecibels.
func BuildScene(width, height int, st Status, frame analysis.Frame, hasFrame bool) Scene {
	width = max(width, MinSceneWidth)
	height = max(height, MinSceneHeight)
	s := Scene{Width: width, Height: height}

	s.Labels = append(s.Labels,
		Label{X: 0, Y: titleRow, Text: fmt.Sprintf(" %s %s ", stateGlyph(st.State), st.State), Paint: PaintTitle},
		Label{X: len(st.State) + 5, Y: titleRow, Text: st.Path, Paint: PaintText},
		Label{X: 0, Y: statusRow, Text: statusLine(st), Paint: PaintMuted},
	)

	if st.Frames > 0 {
		done := int(float64(width) * float64(min(st.Position, st.Frames)) / float64(st.Frames))
		s.Rects = append(s.Rects,
			Rect{X: 0, Y: progressRow, W: width, H: 1, Fill: '─', Paint: PaintMuted},
			Rect{X: 0, Y: progressRow, W: done, H: 1, Fill: '━', Paint: PaintProgress},
		)
	}

	bottom := height - helpRows - 1
	area := bottom - spectrumTop + 1
	if hasFrame && len(frame.Bands) > 0 && area > 0 {
		col := max(1, width/len(frame.Bands))
		barW := max(1, col-1)
		for i, b := range frame.Bands {
			x := i * col
			if x >= width {
				break
			}
			h := BarHeight(b.Decibels, area)
			if h == 0 {
				continue
			}
			paint := PaintBar
			if h == area {
				paint = PaintPeak
			}
			s.Rects = append(s.Rects, Rect{X: x, Y: bottom - h + 1, W: min(barW, width-x), H: h, Fill: '█', Paint: paint})
		}
	} else if area > 0 {
		s.Labels = append(s.Labels, Label{X: 0, Y: spectrumTop, Text: "waiting for audio...", Paint: PaintMuted})
	}

	s.Labels = append(s.Labels, Label{
		X: 0, Y: height - 1,
		Text:  "space/p: Play/Pause • s: Stop • +/-: Gain • q: Quit",
		Paint: PaintMuted,
	})
	return s
}

// BarHeight maps a level in dB to a bar of at most area cells.
func BarHeight(db float64, area int) int {
	frac := (db - analysis.MinDecibels) / -analysis.MinDecibels
	frac = min(max(frac, 0), 1)
	return int(frac*float64(area) + 0.5)
}

func stateGlyph(state string) string {
	switch state {
	case "STREAMING":
		return "▶"
	case "PAUSED":
		return "⏸"
	case "STOPPED", "CLOSED":
		return "■"
	default:
		return "•"
	}
}

func statusLine(st Status) string {
	line := fmt.Sprintf("%s / %s   gain %.1f   %d Hz %dch",
		clock(st.Position, st.SampleRate), clock(st.Frames, st.SampleRate),
		st.Gain, st.SampleRate, st.Channels)
	if st.Dropped > 0 {
		line += fmt.Sprintf("   %d commands dropped", st.Dropped)
	}
	return line
}

// clock formats a frame count as m:ss.
func clock(frames int64, sampleRate int) string {
	if sampleRate <= 0 || frames < 0 {
		return "-:--"
	}
	d := time.Duration(frames) * time.Second / time.Duration(sampleRate)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

type cell struct {
	r     rune
	paint Paint
}

// Render rasterises the scene. Later primitives paint over earlier ones and
// labels are drawn over rectangles.
func (s Scene) Render() string {
	grid := make([][]cell, s.Height)
	for y := range grid {
		grid[y] = make([]cell, s.Width)
		for x := range grid[y] {
			grid[y][x] = cell{' ', PaintText}
		}
	}

	for _, r := range s.Rects {
		for y := max(r.Y, 0); y < min(r.Y+r.H, s.Height); y++ {
			for x := max(r.X, 0); x < min(r.X+r.W, s.Width); x++ {
				grid[y][x] = cell{r.Fill, r.Paint}
			}
		}
	}
	for _, l := range s.Labels {
		if l.Y < 0 || l.Y >= s.Height {
			continue
		}
		x := l.X
		for _, r := range l.Text {
			if x >= s.Width {
				break
			}
			if x >= 0 {
				grid[l.Y][x] = cell{r, l.Paint}
			}
			x++
		}
	}

	var sb strings.Builder
	for y, row := range grid {
		if y > 0 {
			sb.WriteByte('\n')
		}
		// Consecutive cells with the same paint are styled as one run.
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].paint == row[start].paint {
				continue
			}
			var run strings.Builder
			for _, c := range row[start:x] {
				run.WriteRune(c.r)
			}
			sb.WriteString(paints[row[start].paint].Render(run.String()))
			start = x
		}
	}
	return sb.String()
}
