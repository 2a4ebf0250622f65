// SPDX-License-Identifier: MIT
package bus

import "sync/atomic"

// Telemetry is the playback position shared with the presentation loop.
// Only the latest value matters: each Publish overwrites the previous one
// and readers may miss intermediate positions.
//
// Writer: whoever currently holds the render turn, i.e. the render callback
// while the stream runs, or the control loop once the stream is stopped.
type Telemetry struct {
	position atomic.Int64
	session  atomic.Uint64
}

// Publish stores the frame index reached in the given playback session.
func (t *Telemetry) Publish(session uint64, frame int64) {
	t.session.Store(session)
	t.position.Store(frame)
}

// Position returns the last published frame index.
func (t *Telemetry) Position() int64 {
	return t.position.Load()
}

// Session returns the last published session number.
func (t *Telemetry) Session() uint64 {
	return t.session.Load()
}

// Snapshot returns session and position. The pair is not read atomically;
// a reader racing a session change may see the new session with the old
// position for one poll.
func (t *Telemetry) Snapshot() (session uint64, frame int64) {
	return t.session.Load(), t.position.Load()
}
