// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
)

var (
	ErrNotLoaded    = errors.New("no source loaded")
	ErrInvalidState = errors.New("operation not valid in current state")
)

// DecodeError reports a source that could not be opened or stopped
// decoding mid-stream.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DeviceError reports a failure to open, start or stop the output stream.
// Device errors are not retried; the engine closes.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
