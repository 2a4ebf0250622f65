// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice opens output streams on a PortAudio device. PortAudio
// must be initialised for the lifetime of its streams.
type PortAudioDevice struct {
	DeviceID int
}

func (d PortAudioDevice) OpenStream(p StreamParams, render RenderFunc) (Stream, error) {
	dev, err := OutputDevice(d.DeviceID)
	if err != nil {
		return nil, err
	}
	if p.Channels > dev.MaxOutputChannels {
		return nil, fmt.Errorf("%s supports %d output channels, source has %d",
			dev.Name, dev.MaxOutputChannels, p.Channels)
	}

	latency := dev.DefaultHighOutputLatency
	if p.LowLatency {
		latency = dev.DefaultLowOutputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: p.Channels,
			Device:   dev,
			Latency:  latency,
		},
		FramesPerBuffer: p.FramesPerBuffer,
		SampleRate:      p.SampleRate,
	}

	s := &paStream{render: render, latency: latency}
	stream, err := portaudio.OpenStream(params, s.process)
	if err != nil {
		return nil, err
	}
	s.stream = stream
	return s, nil
}

// paStream adapts a RenderFunc to PortAudio's callback, which has no way
// to signal completion. Once the render function stops returning Continue
// the buffer is left silent and the engine notices on its next poll.
type paStream struct {
	stream  *portaudio.Stream
	render  RenderFunc
	latency time.Duration
}

// process is the PortAudio callback.
// Performance Critical:
// - Runs on PortAudio's real-time thread
// - Uses pre-allocated buffers only
// - No dynamic allocations in the hot path
func (s *paStream) process(out []float32) {
	s.render(out)
}

func (s *paStream) Start() error { return s.stream.Start() }
func (s *paStream) Stop() error  { return s.stream.Stop() }
func (s *paStream) Close() error { return s.stream.Close() }

// Latency returns the output latency the stream was opened with.
func (s *paStream) Latency() time.Duration {
	return s.latency
}
