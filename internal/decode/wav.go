// SPDX-License-Identifier: MIT
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// wavSource streams the PCM chunk of a RIFF/WAVE file. The header is parsed
// by go-audio/wav; samples are converted here from a reusable byte buffer
// because the decoder's own PCMBuffer allocates on every call.
type wavSource struct {
	f        *os.File
	dec      *wav.Decoder
	pcm      io.Reader
	channels int
	rate     int
	depth    int // Bytes per sample.
	float    bool
	frames   int64
	left     int64 // PCM bytes not yet read.
	raw      []byte
}

// OpenWAV opens a PCM (8/16/24/32 bit) or 32-bit float WAV file.
func OpenWAV(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s := &wavSource{f: f}
	if err := s.init(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *wavSource) init() error {
	dec := wav.NewDecoder(s.f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if err := validate(int(dec.NumChans), int(dec.SampleRate)); err != nil {
		return err
	}

	switch {
	case dec.WavAudioFormat == wavFormatFloat && dec.BitDepth == 32:
		s.float = true
	case dec.WavAudioFormat == wavFormatPCM || dec.WavAudioFormat == wavFormatExtensible:
		switch dec.BitDepth {
		case 8, 16, 24, 32:
		default:
			return fmt.Errorf("%w: %d-bit pcm", ErrUnsupportedFormat, dec.BitDepth)
		}
	default:
		return fmt.Errorf("%w: wav format tag %#x", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	s.dec = dec
	s.channels = int(dec.NumChans)
	s.rate = int(dec.SampleRate)
	s.depth = int(dec.BitDepth) / 8
	return s.seekPCM()
}

// seekPCM positions the reader at the first PCM byte.
func (s *wavSource) seekPCM() error {
	if err := s.dec.FwdToPCM(); err != nil {
		return fmt.Errorf("locating pcm data: %w", err)
	}
	s.pcm = s.dec.PCMChunk.R
	s.left = s.dec.PCMLen()
	s.frames = s.left / int64(s.depth*s.channels)
	return nil
}

func (s *wavSource) Channels() int   { return s.channels }
func (s *wavSource) SampleRate() int { return s.rate }
func (s *wavSource) Frames() int64   { return s.frames }

func (s *wavSource) Reserve(frames int) {
	s.raw = growBytes(s.raw, frames*s.depth*s.channels)
}

func (s *wavSource) ReadFrames(dst []float32) (int, error) {
	frameBytes := s.depth * s.channels
	want := (len(dst) / s.channels) * frameBytes
	if int64(want) > s.left {
		want = int(s.left) / frameBytes * frameBytes
	}
	s.raw = growBytes(s.raw, want)

	n, err := io.ReadFull(s.pcm, s.raw)
	frames := n / frameBytes
	s.left -= int64(n)
	s.convert(dst[:frames*s.channels], s.raw[:frames*frameBytes])

	switch {
	case err == nil && frames*s.channels < len(dst):
		return frames, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return frames, io.EOF
	}
	return frames, err
}

func (s *wavSource) convert(dst []float32, raw []byte) {
	switch {
	case s.float:
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	case s.depth == 1:
		for i := range dst {
			dst[i] = (float32(raw[i]) - 128) / 128
		}
	case s.depth == 2:
		for i := range dst {
			dst[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
		}
	case s.depth == 3:
		for i := range dst {
			b := raw[3*i:]
			v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
			dst[i] = float32(v) / 8388608
		}
	case s.depth == 4:
		for i := range dst {
			dst[i] = float32(float64(int32(binary.LittleEndian.Uint32(raw[4*i:]))) / 2147483648)
		}
	}
}

func (s *wavSource) Rewind() error {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	s.dec = wav.NewDecoder(s.f)
	return s.seekPCM()
}

func (s *wavSource) Close() error {
	return s.f.Close()
}
