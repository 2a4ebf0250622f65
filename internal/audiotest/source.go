// SPDX-License-Identifier: MIT
// Package audiotest provides in-memory sources for playback tests.
package audiotest

import (
	"io"
	"sync/atomic"

	"player/internal/decode"
)

var (
	_ decode.Source   = (*Source)(nil)
	_ decode.Reserver = (*Source)(nil)
)

// Source is a decode.Source producing a constant value for a fixed number
// of frames. It never allocates on read and counts every call.
type Source struct {
	Chans int
	Rate  int
	Total int64   // Frames before end of stream.
	Value float32 // Sample value written to every channel.

	// ReadErr, when set, is returned by the read after FailAfter reads.
	ReadErr   error
	FailAfter int64

	pos     atomic.Int64
	reads   atomic.Int64
	rewinds atomic.Int64
	closes  atomic.Int64
	reserve atomic.Int64
}

// NewSource returns a source of total frames of value on channels channels.
func NewSource(channels, rate int, total int64, value float32) *Source {
	return &Source{Chans: channels, Rate: rate, Total: total, Value: value}
}

func (s *Source) Channels() int   { return s.Chans }
func (s *Source) SampleRate() int { return s.Rate }
func (s *Source) Frames() int64   { return s.Total }

func (s *Source) ReadFrames(dst []float32) (int, error) {
	reads := s.reads.Add(1)
	if s.ReadErr != nil && reads > s.FailAfter {
		return 0, s.ReadErr
	}

	pos := s.pos.Load()
	n := min(int64(len(dst)/s.Chans), s.Total-pos)
	for i := range n * int64(s.Chans) {
		dst[i] = s.Value
	}
	s.pos.Store(pos + n)

	if int(n) < len(dst)/s.Chans {
		return int(n), io.EOF
	}
	return int(n), nil
}

func (s *Source) Reserve(frames int) {
	s.reserve.Store(int64(frames))
}

func (s *Source) Rewind() error {
	s.rewinds.Add(1)
	s.pos.Store(0)
	return nil
}

func (s *Source) Close() error {
	s.closes.Add(1)
	return nil
}

// Position returns the next frame to be read.
func (s *Source) Position() int64 { return s.pos.Load() }

// Reads returns the number of ReadFrames calls.
func (s *Source) Reads() int64 { return s.reads.Load() }

// Rewinds returns the number of Rewind calls.
func (s *Source) Rewinds() int64 { return s.rewinds.Load() }

// Closes returns the number of Close calls.
func (s *Source) Closes() int64 { return s.closes.Load() }

// Reserved returns the frame count of the last Reserve call, 0 if none.
func (s *Source) Reserved() int { return int(s.reserve.Load()) }

// Opener hands out a prepared source, or fails with Err.
type Opener struct {
	Source *Source
	Err    error
	Opened []string
}

func (o *Opener) Open(path string) (decode.Source, error) {
	o.Opened = append(o.Opened, path)
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Source, nil
}
