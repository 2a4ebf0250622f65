// SPDX-License-Identifier: MIT
package decode

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type stubSource struct{ Source }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	opener := OpenerFunc(func(string) (Source, error) { return stubSource{}, nil })
	r.Register(".FLAC", opener)

	tests := []struct {
		ext    string
		wantOK bool
	}{
		{"flac", true},
		{".flac", true},
		{"FLAC", true},
		{"wav", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if _, ok := r.Get(tt.ext); ok != tt.wantOK {
				t.Errorf("Get(%q) ok = %v, want %v", tt.ext, ok, tt.wantOK)
			}
		})
	}
}

func TestRegistryOpenDispatchesByExtension(t *testing.T) {
	r := NewRegistry()
	var opened string
	r.Register("raw", OpenerFunc(func(path string) (Source, error) {
		opened = path
		return stubSource{}, nil
	}))

	if _, err := r.Open("/music/Track.RAW"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if opened != "/music/Track.RAW" {
		t.Errorf("opener got %q", opened)
	}

	_, err := r.Open("/music/track.flac")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Open(.flac) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := r.Open("/music/noext"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Open(no extension) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDefaultRegistryFormats(t *testing.T) {
	want := []string{"mp3", "oga", "ogg", "wav", "wave"}
	if got := DefaultRegistry().Formats(); !reflect.DeepEqual(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.wav")
	if _, err := DefaultRegistry().Open(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open() error = %v, want os.ErrNotExist", err)
	}
}

func TestOpenGarbage(t *testing.T) {
	dir := t.TempDir()
	garbage := []byte("this is not audio data at all, just some bytes to confuse decoders")

	for _, name := range []string{"bad.mp3", "bad.ogg", "bad.wav"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, garbage, 0o644); err != nil {
				t.Fatal(err)
			}
			src, err := DefaultRegistry().Open(path)
			if err == nil {
				src.Close()
				t.Fatal("Open() succeeded on garbage input")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		rate     int
		want     error
	}{
		{"Stereo", 2, 44100, nil},
		{"Mono", 1, 8000, nil},
		{"No channels", 0, 44100, ErrNoChannels},
		{"Negative channels", -1, 44100, ErrNoChannels},
		{"Zero rate", 2, 0, ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.channels, tt.rate)
			if tt.want == nil && err != nil {
				t.Errorf("validate() error = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}
