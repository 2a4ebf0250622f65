// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

func mockDevices(t *testing.T, devices []*portaudio.DeviceInfo, err error) {
	t.Helper()
	orig := paDevicesFunc
	t.Cleanup(func() { paDevicesFunc = orig })
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return devices, err
	}
}

func testDeviceInfos() []*portaudio.DeviceInfo {
	return []*portaudio.DeviceInfo{
		{Name: "Built-in Microphone", MaxInputChannels: 2, DefaultSampleRate: 44100},
		{
			Name:                     "Built-in Output",
			MaxOutputChannels:        2,
			DefaultSampleRate:        48000,
			DefaultLowOutputLatency:  5 * time.Millisecond,
			DefaultHighOutputLatency: 20 * time.Millisecond,
			HostApi:                  &portaudio.HostApiInfo{Name: "Core Audio"},
		},
		{Name: "USB Interface", MaxInputChannels: 2, MaxOutputChannels: 4, DefaultSampleRate: 96000},
	}
}

func TestHostDevices(t *testing.T) {
	mockDevices(t, testDeviceInfos(), nil)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
	}

	out := devices[1]
	if !out.IsOutput() || out.HostAPI != "Core Audio" {
		t.Errorf("output device = %+v", out)
	}
	if out.LowLatencyMs != 5 || out.HighLatencyMs != 20 {
		t.Errorf("latencies = %g/%g ms, want 5/20", out.LowLatencyMs, out.HighLatencyMs)
	}
	if devices[0].IsOutput() {
		t.Error("input-only device reported as output")
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	mockDevices(t, nil, fmt.Errorf("mock error"))

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestOutputDevice(t *testing.T) {
	mockDevices(t, testDeviceInfos(), nil)

	t.Run("Valid output device", func(t *testing.T) {
		dev, err := OutputDevice(2)
		if err != nil {
			t.Fatalf("OutputDevice(2) error: %v", err)
		}
		if dev.Name != "USB Interface" {
			t.Errorf("OutputDevice(2) = %q", dev.Name)
		}
	})

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Negative ID", -2, "invalid device ID"},
		{"Too high ID", 13, "invalid device ID"},
		{"Input-only device", 0, "no output channels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OutputDevice(tt.id)
			if err == nil {
				t.Errorf("Expected error for ID %d", tt.id)
			} else if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}
}

func TestOutputDevice_Default(t *testing.T) {
	orig := paDefaultOutputDevice
	defer func() { paDefaultOutputDevice = orig }()

	want := &portaudio.DeviceInfo{Name: "Default Output", MaxOutputChannels: 2}
	paDefaultOutputDevice = func() (*portaudio.DeviceInfo, error) { return want, nil }
	if dev, err := OutputDevice(-1); err != nil || dev != want {
		t.Errorf("OutputDevice(-1) = (%v, %v)", dev, err)
	}

	paDefaultOutputDevice = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock default output error")
	}
	if _, err := OutputDevice(-1); err == nil || !strings.Contains(err.Error(), "mock default output error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestErrorInitialize(t *testing.T) {
	orig := paInitialize
	defer func() { paInitialize = orig }()

	paInitialize = func() error { return nil }
	if err := Initialize(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paInitialize = func() error { return fmt.Errorf("mock init error") }
	if err := Initialize(); err == nil || !strings.Contains(err.Error(), "mock init error") {
		t.Errorf("expected mock init error, got %v", err)
	}
}

func TestErrorTerminate(t *testing.T) {
	orig := paTerminate
	defer func() { paTerminate = orig }()

	paTerminate = func() error { return nil }
	if err := Terminate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	paTerminate = func() error { return fmt.Errorf("mock term error") }
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}
}

func TestGetDevices(t *testing.T) {
	origInit, origTerm := paInitialize, paTerminate
	defer func() { paInitialize, paTerminate = origInit, origTerm }()

	terminated := false
	paInitialize = func() error { return nil }
	paTerminate = func() error { terminated = true; return nil }
	mockDevices(t, testDeviceInfos(), nil)

	devices, err := GetDevices()
	if err != nil || len(devices) != 3 {
		t.Fatalf("GetDevices() = (%d devices, %v)", len(devices), err)
	}
	if !terminated {
		t.Error("GetDevices() did not terminate PortAudio")
	}
}

func TestWriteDeviceList(t *testing.T) {
	mockDevices(t, testDeviceInfos(), nil)

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"[1] Built-in Output (Output)",
		"[2] USB Interface (Input/Output)",
		"Default sample rate: 48000 Hz",
		"Latency: Low=5.00ms, High=20.00ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Microphone") {
		t.Errorf("listing includes input-only device:\n%s", out)
	}
}
