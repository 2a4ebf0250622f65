// SPDX-License-Identifier: MIT
/*
Package bus carries everything that crosses between the presentation loop,
the engine control loop and the real-time render callback:

  - Commands: presentation -> control loop, bounded lock-free SPSC queue.
  - Telemetry: render callback -> presentation, a single atomic position.
  - Tap: render callback -> spectrum monitor, latest captured buffer.

Thread Safety:
  - No locks on either side of any channel
  - Every channel has exactly one producer and one consumer goroutine
  - Nothing here allocates after construction
*/
package bus

// Command is a user request posted by the presentation loop and consumed
// exactly once by the engine control loop.
type Command uint8

const (
	PlayPause Command = iota
	Stop
	Quit
	GainUp
	GainDown
)

// String returns the command name used in logs.
func (c Command) String() string {
	switch c {
	case PlayPause:
		return "PLAY_PAUSE"
	case Stop:
		return "STOP"
	case Quit:
		return "QUIT"
	case GainUp:
		return "GAIN_UP"
	case GainDown:
		return "GAIN_DOWN"
	default:
		return "UNKNOWN"
	}
}

// DefaultCapacity is large enough that a burst of key repeats never fills
// the command queue.
const DefaultCapacity = 1024

// Bus bundles the command queue and the position telemetry shared between
// the presentation loop and the engine.
type Bus struct {
	Commands  *Queue[Command]
	Telemetry Telemetry
}

// New creates a bus whose command queue holds at least capacity entries.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{Commands: NewQueue[Command](capacity)}
}
