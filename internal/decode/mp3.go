// SPDX-License-Identifier: MIT
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian stereo.
const (
	mp3Channels   = 2
	mp3FrameBytes = 4
)

// mp3Source converts the decoder's PCM byte stream into float frames.
type mp3Source struct {
	c      io.Closer
	pcm    io.ReadSeeker
	rate   int
	frames int64
	raw    []byte
}

// OpenMP3 opens an MPEG-1/2 layer III file.
func OpenMP3(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mp3: %w", err)
	}
	if err := validate(mp3Channels, dec.SampleRate()); err != nil {
		f.Close()
		return nil, err
	}
	return newMP3Source(f, dec, dec.SampleRate(), dec.Length()), nil
}

// newMP3Source wraps a 16-bit stereo PCM stream of length bytes; a
// non-positive length means unknown.
func newMP3Source(c io.Closer, pcm io.ReadSeeker, rate int, length int64) *mp3Source {
	s := &mp3Source{c: c, pcm: pcm, rate: rate}
	if length > 0 {
		s.frames = length / mp3FrameBytes
	}
	return s
}

func (s *mp3Source) Channels() int   { return mp3Channels }
func (s *mp3Source) SampleRate() int { return s.rate }
func (s *mp3Source) Frames() int64   { return s.frames }

func (s *mp3Source) Reserve(frames int) {
	s.raw = growBytes(s.raw, frames*mp3FrameBytes)
}

func (s *mp3Source) ReadFrames(dst []float32) (int, error) {
	want := len(dst) / mp3Channels
	s.raw = growBytes(s.raw, want*mp3FrameBytes)

	n, err := io.ReadFull(s.pcm, s.raw)
	frames := n / mp3FrameBytes
	for i := range frames * mp3Channels {
		lo, hi := uint16(s.raw[2*i]), uint16(s.raw[2*i+1])
		dst[i] = float32(int16(lo|hi<<8)) / 32768
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return frames, err
}

func (s *mp3Source) Rewind() error {
	_, err := s.pcm.Seek(0, io.SeekStart)
	return err
}

func (s *mp3Source) Close() error {
	return s.c.Close()
}
