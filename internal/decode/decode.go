// SPDX-License-Identifier: MIT
/*
Package decode opens audio files as frame-oriented sample sources.

A Source yields interleaved float32 frames in [-1, 1]. Sources that convert
through a scratch buffer implement Reserver; once reserved for the largest
read, ReadFrames does not allocate and may be called from the render
callback.
*/
package decode

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoChannels        = errors.New("source reports zero channels")
	ErrInvalidSampleRate = errors.New("source reports an invalid sample rate")
)

// Source is a decoded, seekable stream of interleaved frames.
type Source interface {
	Channels() int
	SampleRate() int
	// Frames returns the total length in frames, or 0 when unknown.
	Frames() int64
	// ReadFrames fills dst with up to len(dst)/Channels() frames and
	// returns the number of frames written. A short count means the end of
	// the stream was reached and is reported together with io.EOF or the
	// decode error that cut the read short.
	ReadFrames(dst []float32) (int, error)
	// Rewind moves the read position back to the first frame.
	Rewind() error
	Close() error
}

// Reserver is implemented by sources that can size their scratch buffers
// before the first read.
type Reserver interface {
	// Reserve prepares for reads of up to frames frames.
	Reserve(frames int)
}

// Opener opens a file as a Source.
type Opener interface {
	Open(path string) (Source, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Source, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Source, error) {
	return f(path)
}

// Registry maps lowercase file extensions, without the dot, to openers.
type Registry struct {
	mu      sync.Mutex
	openers map[string]Opener
}

func NewRegistry() *Registry {
	return &Registry{openers: make(map[string]Opener)}
}

// DefaultRegistry knows every format this package can decode.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("wav", OpenerFunc(OpenWAV))
	r.Register("wave", OpenerFunc(OpenWAV))
	r.Register("mp3", OpenerFunc(OpenMP3))
	r.Register("ogg", OpenerFunc(OpenVorbis))
	r.Register("oga", OpenerFunc(OpenVorbis))
	return r
}

// Register adds or replaces the opener for ext.
func (r *Registry) Register(ext string, o Opener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openers[normalizeExt(ext)] = o
}

// Get returns the opener registered for ext.
func (r *Registry) Get(ext string) (Opener, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.openers[normalizeExt(ext)]
	return o, ok
}

// Formats returns the registered extensions in sorted order.
func (r *Registry) Formats() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.openers))
	for ext := range r.openers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Open picks an opener by the file extension of path.
func (r *Registry) Open(path string) (Source, error) {
	ext := normalizeExt(filepath.Ext(path))
	o, ok := r.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return o.Open(path)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// validate rejects stream parameters the engine cannot play.
func validate(channels, sampleRate int) error {
	if channels <= 0 {
		return ErrNoChannels
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	return nil
}

// growBytes returns buf resliced to n, reallocating only when it is too
// small.
func growBytes(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}
