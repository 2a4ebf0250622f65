// SPDX-License-Identifier: MIT
package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// packetReader is the part of oggvorbis.Reader a vorbisSource uses.
type packetReader interface {
	Read(p []float32) (int, error)
	SetPosition(pos int64) error
}

var _ packetReader = (*oggvorbis.Reader)(nil)

type vorbisSource struct {
	c        io.Closer
	dec      packetReader
	channels int
	rate     int
	frames   int64
}

// OpenVorbis opens an Ogg Vorbis file.
func OpenVorbis(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	if err := validate(dec.Channels(), dec.SampleRate()); err != nil {
		f.Close()
		return nil, err
	}
	return &vorbisSource{
		c:        f,
		dec:      dec,
		channels: dec.Channels(),
		rate:     dec.SampleRate(),
		frames:   dec.Length(),
	}, nil
}

func (s *vorbisSource) Channels() int   { return s.channels }
func (s *vorbisSource) SampleRate() int { return s.rate }
func (s *vorbisSource) Frames() int64   { return s.frames }

// ReadFrames decodes straight into dst. The reader hands out at most one
// packet per call, so it is called until dst is full.
func (s *vorbisSource) ReadFrames(dst []float32) (int, error) {
	want := len(dst) / s.channels * s.channels
	filled := 0
	for filled < want {
		n, err := s.dec.Read(dst[filled:want])
		filled += n
		if err != nil {
			return filled / s.channels, err
		}
		if n == 0 {
			return filled / s.channels, io.EOF
		}
	}
	return filled / s.channels, nil
}

func (s *vorbisSource) Rewind() error {
	return s.dec.SetPosition(0)
}

func (s *vorbisSource) Close() error {
	return s.c.Close()
}
