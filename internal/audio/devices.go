// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"

	"player/internal/config"

	"github.com/gordonklaus/portaudio"
)

// PortAudio entry points, replaced in tests.
var (
	paInitialize          = portaudio.Initialize
	paTerminate           = portaudio.Terminate
	paDevicesFunc         = portaudio.Devices
	paDefaultOutputDevice = portaudio.DefaultOutputDevice
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := paInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
// This should be deferred immediately after Initialize().
func Terminate() error {
	if err := paTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// OutputDevice retrieves the output device for the given device ID.
// If deviceID is config.DefaultDeviceID (-1), returns the system default output device.
func OutputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == config.DefaultDeviceID {
		return paDefaultOutputDevice()
	}

	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if devices[deviceID].MaxOutputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) has no output channels", deviceID, devices[deviceID].Name)
	}
	return devices[deviceID], nil
}

// ListDevices prints every output-capable device to w.
func ListDevices(w io.Writer) error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}
	WriteDeviceList(w, devices)
	return nil
}

// WriteDeviceList formats devices as a plain listing, skipping input-only
// devices.
func WriteDeviceList(w io.Writer, devices []DeviceInfo) {
	fmt.Fprintf(w, "\nAvailable Output Devices\n\n")

	for _, d := range devices {
		if !d.IsOutput() {
			continue
		}
		deviceType := "Output"
		if d.MaxInputChannels > 0 {
			deviceType = "Input/Output"
		}

		fmt.Fprintf(w, "[%d] %s (%s)\n", d.ID, d.Name, deviceType)
		fmt.Fprintf(w, "    Output channels: %d\n", d.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Fprintf(w, "    Latency: Low=%.2fms, High=%.2fms\n", d.LowLatencyMs, d.HighLatencyMs)
		fmt.Fprintln(w)
	}
}
