// SPDX-License-Identifier: MIT
package audio

// Result tells the device what to do after a render callback.
type Result int

const (
	Continue Result = iota // Keep calling.
	Complete               // End of stream; remaining callbacks render silence.
	Abort                  // Unrecoverable error; remaining callbacks render silence.
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Complete:
		return "complete"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// RenderFunc fills one interleaved output buffer. It runs on the device's
// real-time thread and must not block, allocate or log.
type RenderFunc func(out []float32) Result

// StreamParams describes the output stream requested from a Device.
type StreamParams struct {
	Channels        int
	SampleRate      float64
	FramesPerBuffer int
	LowLatency      bool
}

// Stream is an opened output stream. Stop must not return while a render
// callback is still running.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Device opens output streams driven by a render callback.
type Device interface {
	OpenStream(params StreamParams, render RenderFunc) (Stream, error)
}

// DeviceInfo describes a host audio device.
type DeviceInfo struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowLatencyMs      float64
	HighLatencyMs     float64
}

// IsOutput reports whether the device can play audio.
func (d DeviceInfo) IsOutput() bool {
	return d.MaxOutputChannels > 0
}

// GetDevices returns all available audio devices.
func GetDevices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	defer Terminate()

	return HostDevices()
}

// HostDevices converts the PortAudio device list. PortAudio must already be
// initialised.
func HostDevices() ([]DeviceInfo, error) {
	paDeviceInfos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, len(paDeviceInfos))
	for i, info := range paDeviceInfos {
		d := DeviceInfo{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			LowLatencyMs:      info.DefaultLowOutputLatency.Seconds() * 1000,
			HighLatencyMs:     info.DefaultHighOutputLatency.Seconds() * 1000,
		}
		if info.HostApi != nil {
			d.HostAPI = info.HostApi.Name
		}
		devices[i] = d
	}
	return devices, nil
}
