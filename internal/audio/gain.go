// SPDX-License-Identifier: MIT
package audio

import "math"

// Gain returns the current linear output gain.
func (e *Engine) Gain() float64 {
	return math.Float64frombits(e.gain.Load())
}

// SetGain sets the output gain, clamped to [0, MaxGain].
func (e *Engine) SetGain(gain float64) {
	e.gain.Store(math.Float64bits(clampGain(gain, e.config.Audio.MaxGain)))
}

// stepGain moves the gain by delta. At either bound it does nothing.
func (e *Engine) stepGain(delta float64) {
	old := e.Gain()
	// Rounded to the step grid so repeated steps do not drift.
	next := clampGain(math.Round((old+delta)*1e6)/1e6, e.config.Audio.MaxGain)
	if next == old {
		e.log.Debugf("Gain already at %.2f", old)
		return
	}
	e.SetGain(next)
	e.log.Infof("Gain %.2f -> %.2f", old, next)
}

func clampGain(gain, max float64) float64 {
	if gain < 0.0 || math.IsNaN(gain) {
		gain = 0.0
	}
	if gain > max {
		gain = max
	}
	return gain
}
