// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package xmit implements habituative transmitter gates: slowly-recovering
multiplicative modulators that deplete with use,

	dz_i/dt = Recovery*(Baseline - z_i) - (DepLin*s_i + DepQuad*s_i^2)*z_i

where s_i is the signal driving depletion.  Output gating is
multiplicative: y = z * x.  Sustained signal depletes the gate toward
zero (never reaching it -- a small floor is enforced), producing
habituation; signal offset lets the gate recover toward Baseline.

Transmitters evolve on a slower time scale than the activations they
gate.  The owning layer typically integrates its shunting state ten
times per transmitter update.
*/
package xmit

//go:generate core generate -add-types

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// Floor is the minimum gate level enforced after every update, keeping
// z strictly positive.
const Floor = 1.0e-4

// Params are the transmitter gate rate constants.
type Params struct {

	// recovery rate toward Baseline in absence of signal
	Recovery float32 `min:"0" def:"0.05"`

	// resting gate level that z recovers toward
	Baseline float32 `def:"1"`

	// linear depletion rate per unit signal
	DepLin float32 `min:"0" def:"0.1"`

	// quadratic depletion rate per unit signal squared --
	// accelerates habituation under strong sustained signals
	DepQuad float32 `min:"0" def:"0.05"`
}

func (xp *Params) Defaults() {
	xp.Recovery = 0.05
	xp.Baseline = 1
	xp.DepLin = 0.1
	xp.DepQuad = 0.05
	xp.Update()
}

// Update must be called after any changes to parameters
func (xp *Params) Update() {
}

// Validate returns a configuration error if parameters are out of range.
func (xp *Params) Validate() error {
	if xp.Baseline <= 0 {
		return fmt.Errorf("xmit.Params: Baseline (%g) must be > 0", xp.Baseline)
	}
	if xp.Recovery < 0 {
		return fmt.Errorf("xmit.Params: Recovery (%g) must be >= 0", xp.Recovery)
	}
	if xp.DepLin < 0 {
		return fmt.Errorf("xmit.Params: DepLin (%g) must be >= 0", xp.DepLin)
	}
	if xp.DepQuad < 0 {
		return fmt.Errorf("xmit.Params: DepQuad (%g) must be >= 0", xp.DepQuad)
	}
	return nil
}

// DZ returns the gate derivative for current level z and signal s.
func (xp *Params) DZ(z, s float32) float32 {
	return xp.Recovery*(xp.Baseline-z) - (xp.DepLin*s+xp.DepQuad*s*s)*z
}

// Gate is a vector of transmitter gate levels with their driving
// signals.  All mutable state is owned here.
type Gate struct {

	// gate rate constants
	Params Params

	// number of gated units
	N int `inactive:"+"`

	// current gate levels, strictly positive, at most Baseline
	Levels []float32

	// per-unit depletion signal, set by the owning layer
	Sig []float32
}

// NewGate returns a new Gate over n units at baseline, validating
// parameters.
func NewGate(n int, pr Params) (*Gate, error) {
	if n <= 0 {
		return nil, fmt.Errorf("xmit.NewGate: n (%d) must be > 0", n)
	}
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	gt := &Gate{Params: pr, N: n}
	gt.Levels = make([]float32, n)
	gt.Sig = make([]float32, n)
	gt.Reset()
	return gt, nil
}

// SetSignal sets the depletion signal vector.  The vector is copied.
func (gt *Gate) SetSignal(vec []float32) error {
	if len(vec) != gt.N {
		return fmt.Errorf("xmit.SetSignal: signal len %d != %d units", len(vec), gt.N)
	}
	copy(gt.Sig, vec)
	return nil
}

// SetSignalUnit sets the depletion signal for a single unit.
func (gt *Gate) SetSignalUnit(i int, v float32) error {
	if i < 0 || i >= gt.N {
		return fmt.Errorf("xmit.SetSignalUnit: index %d out of range [0, %d)", i, gt.N)
	}
	gt.Sig[i] = v
	return nil
}

// ClearSignal zeros the depletion signal, letting gates recover.
func (gt *Gate) ClearSignal() {
	for i := range gt.Sig {
		gt.Sig[i] = 0
	}
}

// Update integrates one forward-Euler step of size dt.  dt here is the
// transmitter-scale step, typically ~10x the shunting step.
func (gt *Gate) Update(dt float32) {
	for i := 0; i < gt.N; i++ {
		z := gt.Levels[i] + dt*gt.Params.DZ(gt.Levels[i], gt.Sig[i])
		z = math32.Clamp(z, Floor, gt.Params.Baseline)
		if math32.IsNaN(z) {
			z = Floor
		}
		gt.Levels[i] = z
	}
}

// Apply returns the multiplicatively gated version of acts: y = z * x.
// The input is not modified.
func (gt *Gate) Apply(acts []float32) []float32 {
	n := len(acts)
	if n > gt.N {
		n = gt.N
	}
	out := make([]float32, len(acts))
	copy(out, acts)
	for i := 0; i < n; i++ {
		out[i] = gt.Levels[i] * acts[i]
	}
	return out
}

// Level returns the gate level of unit i (0 if out of range).
func (gt *Gate) Level(i int) float32 {
	if i < 0 || i >= gt.N {
		return 0
	}
	return gt.Levels[i]
}

// AvgLevel returns the mean gate level, used for should-reset
// decisions (working memory resets when this falls below ~0.3).
func (gt *Gate) AvgLevel() float32 {
	if gt.N == 0 {
		return 0
	}
	var sum float32
	for _, z := range gt.Levels {
		sum += z
	}
	return sum / float32(gt.N)
}

// ShouldReset returns true if the mean gate level has depleted below
// the given threshold.
func (gt *Gate) ShouldReset(thr float32) bool {
	return gt.AvgLevel() < thr
}

// Reset restores all gates to baseline and clears signals.  Idempotent.
func (gt *Gate) Reset() {
	for i := range gt.Levels {
		gt.Levels[i] = gt.Params.Baseline
		gt.Sig[i] = 0
	}
}

// LevelsCopy returns a copy of the gate level vector.
func (gt *Gate) LevelsCopy() []float32 {
	lv := make([]float32, gt.N)
	copy(lv, gt.Levels)
	return lv
}
