// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// BeepDevice plays through the beep speaker, which always mixes to stereo
// and keeps a single global output. Mono sources are duplicated to both
// channels.
type BeepDevice struct{}

func (BeepDevice) OpenStream(p StreamParams, render RenderFunc) (Stream, error) {
	if p.Channels != 1 && p.Channels != 2 {
		return nil, fmt.Errorf("beep output supports 1 or 2 channels, got %d", p.Channels)
	}
	if p.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", p.FramesPerBuffer)
	}

	sr := beep.SampleRate(int(p.SampleRate))
	if err := speaker.Init(sr, p.FramesPerBuffer); err != nil {
		return nil, err
	}
	return &beepStream{streamer: newRenderStreamer(render, p.Channels, p.FramesPerBuffer)}, nil
}

type beepStream struct {
	mu       sync.Mutex
	streamer *renderStreamer
	playing  bool
}

func (s *beepStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return nil
	}
	speaker.Lock()
	s.streamer.done = false
	speaker.Unlock()
	speaker.Play(s.streamer)
	s.playing = true
	return nil
}

// Stop removes the streamer. speaker.Clear holds the speaker lock, so no
// callback is running once it returns.
func (s *beepStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		speaker.Clear()
		s.playing = false
	}
	return nil
}

func (s *beepStream) Close() error {
	return s.Stop()
}

// renderStreamer is a beep.Streamer that pulls interleaved float32 buffers
// from a RenderFunc in chunks of at most frames frames.
type renderStreamer struct {
	render   RenderFunc
	channels int
	frames   int
	buf      []float32
	done     bool
}

var _ beep.Streamer = (*renderStreamer)(nil)

func newRenderStreamer(render RenderFunc, channels, frames int) *renderStreamer {
	return &renderStreamer{
		render:   render,
		channels: channels,
		frames:   frames,
		buf:      make([]float32, frames*channels),
	}
}

// Stream fills samples. After the render function reports Complete or Abort
// the current chunk is delivered and the next call drains the streamer.
func (r *renderStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if r.done {
		return 0, false
	}

	for n < len(samples) {
		frames := min(len(samples)-n, r.frames)
		out := r.buf[:frames*r.channels]
		res := r.render(out)

		dst := samples[n : n+frames]
		if r.channels == 1 {
			for i := range dst {
				v := float64(out[i])
				dst[i] = [2]float64{v, v}
			}
		} else {
			for i := range dst {
				dst[i] = [2]float64{float64(out[2*i]), float64(out[2*i+1])}
			}
		}
		n += frames

		if res != Continue {
			r.done = true
			break
		}
	}
	return n, true
}

func (r *renderStreamer) Err() error {
	return nil
}
