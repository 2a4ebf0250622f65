// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"player/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the output device and latency mode picked in the browser.
type Selection struct {
	Device     audio.DeviceInfo
	LowLatency bool
}

// FetchFunc lists host audio devices.
type FetchFunc func() ([]audio.DeviceInfo, error)

var latencyModes = []string{"high (stable)", "low"}

// DeviceListModel is the Bubble Tea model for browsing output devices.
type DeviceListModel struct {
	fetch         FetchFunc
	devices       []audio.DeviceInfo
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType
	latencyIndex  int
	selection     *Selection
}

// NewDeviceListModel creates a device browser that lists devices with fetch.
// A nil fetch uses audio.GetDevices.
func NewDeviceListModel(fetch FetchFunc) DeviceListModel {
	if fetch == nil {
		fetch = audio.GetDevices
	}
	return DeviceListModel{
		fetch:        fetch,
		activeScreen: ListScreen,
	}
}

type devicesMsg struct {
	devices []audio.DeviceInfo
}

type errMsg struct {
	err error
}

// Init fetches the device list.
func (m DeviceListModel) Init() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		all, err := fetch()
		if err != nil {
			return errMsg{err}
		}
		outputs := make([]audio.DeviceInfo, 0, len(all))
		for _, d := range all {
			if d.IsOutput() {
				outputs = append(outputs, d)
			}
		}
		return devicesMsg{outputs}
	}
}

// Selection returns the confirmed choice, if any.
func (m DeviceListModel) Selection() (Selection, bool) {
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
}

func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = msg.devices
		m.refresh()

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if m.err != nil || key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if m.selectedIndex > 0 {
					m.selectedIndex--
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				if len(m.devices) > 0 {
					m.activeScreen = ConfigScreen
					m.latencyIndex = 0
				}
			}

		case ConfigScreen:
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
				m.activeScreen = ListScreen
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if m.latencyIndex > 0 {
					m.latencyIndex--
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if m.latencyIndex < len(latencyModes)-1 {
					m.latencyIndex++
				}
			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				m.selection = &Selection{
					Device:     m.devices[m.selectedIndex],
					LowLatency: m.latencyIndex == 1,
				}
				return m, tea.Quit
			}
		}
		m.refresh()
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *DeviceListModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
		return
	}
	m.viewport.SetContent(m.renderDevices())
}

// View renders the UI
func (m DeviceListModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress any key to exit.", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Output Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Change Value • Enter: Select • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No output devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		info := fmt.Sprintf("[%d] %s", device.ID, device.Name)
		if device.HostAPI != "" {
			info += fmt.Sprintf(" (%s)", device.HostAPI)
		}
		info += fmt.Sprintf("\n    Output channels: %d, default sample rate: %.0f Hz\n",
			device.MaxOutputChannels, device.DefaultSampleRate)

		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m DeviceListModel) renderDeviceConfig() string {
	device := m.devices[m.selectedIndex]

	var sb strings.Builder
	fmt.Fprintf(&sb, "Configure Device: %s\n\n", device.Name)
	fmt.Fprintf(&sb, "Latency (low %.1f ms, high %.1f ms):\n", device.LowLatencyMs, device.HighLatencyMs)

	for i, mode := range latencyModes {
		marker := " "
		if i == m.latencyIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %s\n", marker, mode)
		if i == m.latencyIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// StartDeviceListUI runs the device browser and returns the confirmed
// selection. ok is false when the user quit without choosing.
func StartDeviceListUI(fetch FetchFunc) (sel Selection, ok bool, err error) {
	p := tea.NewProgram(
		NewDeviceListModel(fetch),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return Selection{}, false, err
	}
	sel, ok = final.(DeviceListModel).Selection()
	return sel, ok, nil
}
