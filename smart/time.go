// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import "github.com/emer/emergent/v2/etime"

// Time contains the timing state for running a circuit: simulated time
// (not real time), tick counting, and the integration step size.
type Time struct {

	// accumulated simulation time in seconds
	Time float32

	// tick counter: number of Process calls since last reset
	Tick int

	// amount of simulated time per tick
	TimePerTick float32 `def:"0.001"`

	// current evaluation mode, e.g. Train when learning is enabled
	Mode etime.Modes
}

// NewTime returns a new Time struct with default parameters.
func NewTime() *Time {
	tm := &Time{}
	tm.Defaults()
	return tm
}

// Defaults sets default values
func (tm *Time) Defaults() {
	tm.TimePerTick = 0.001
	tm.Mode = etime.Test
}

// Reset resets the counters all back to zero
func (tm *Time) Reset() {
	tm.Time = 0
	tm.Tick = 0
	if tm.TimePerTick == 0 {
		tm.TimePerTick = 0.001
	}
}

// TickInc increments the tick counter and advances simulated time.
func (tm *Time) TickInc() {
	tm.Tick++
	tm.Time += tm.TimePerTick
}
