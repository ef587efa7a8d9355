// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package shunt implements Grossberg shunting dynamics: the bounded
activation ODE with multiplicative excitatory and inhibitory gating,

	dx_i/dt = -A*x_i + (B - x_i)*E+_i - (x_i + C)*E-_i

where A is the passive decay rate, B the activity ceiling, -C the floor,
E+ the total excitatory drive and E- the total inhibitory drive.
Activations are hard-bounded in [-C, B] regardless of drive, which is
what makes the shunting form robust for on-line competitive circuits.

Drive is the sum of caller-supplied external input and a lateral kernel
contribution computed from the current activations: Gaussian-weighted
excitation from near neighbors and (typically broader) inhibition from
farther ones -- a Mexican-hat profile when the inhibitory range exceeds
the excitatory one.

Integration is explicit forward Euler, one step per Update call.  The
caller picks dt such that dt*(A + E+ + E-) < 1 for every unit; under
that constraint values remain bounded.  An optional damping factor
blends new and old activations to suppress step-to-step oscillation.
*/
package shunt

//go:generate core generate -add-types

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// Params are the per-unit shunting equation parameters.
type Params struct {

	// passive decay rate A -- pulls activation back toward zero.
	// 1/Decay is the effective time constant in units of dt.
	Decay float32 `min:"0" def:"1"`

	// activity ceiling B -- upper bound on activation
	Ceiling float32 `def:"1"`

	// activity floor -- lower bound on activation (typically -C <= 0).
	// Hyperpolarization below zero requires a negative floor.
	Floor float32 `max:"0" def:"0"`

	// self-excitation gain s -- each unit adds s*x_i to its own
	// excitatory drive, sustaining activity after input offset
	SelfExc float32 `min:"0" def:"0"`

	// damping factor on the Euler step: x <- x + Damp*(x' - x).
	// 1 = undamped. Values in the 0.7-0.95 range suppress the
	// step-to-step oscillation that strong lateral kernels produce.
	Damp float32 `min:"0" max:"1" def:"0.9"`
}

func (sp *Params) Defaults() {
	sp.Decay = 1
	sp.Ceiling = 1
	sp.Floor = 0
	sp.SelfExc = 0
	sp.Damp = 0.9
	sp.Update()
}

// Update must be called after any changes to parameters
func (sp *Params) Update() {
}

// Validate returns a configuration error if parameters are out of range.
// Called at construction: Update never fails under validated params.
func (sp *Params) Validate() error {
	if sp.Ceiling <= sp.Floor {
		return fmt.Errorf("shunt.Params: Ceiling (%g) must be > Floor (%g)", sp.Ceiling, sp.Floor)
	}
	if sp.Floor > 0 {
		return fmt.Errorf("shunt.Params: Floor (%g) must be <= 0", sp.Floor)
	}
	if sp.Ceiling < 0 {
		return fmt.Errorf("shunt.Params: Ceiling (%g) must be >= 0", sp.Ceiling)
	}
	if sp.Decay < 0 {
		return fmt.Errorf("shunt.Params: Decay (%g) must be >= 0", sp.Decay)
	}
	if sp.SelfExc < 0 {
		return fmt.Errorf("shunt.Params: SelfExc (%g) must be >= 0", sp.SelfExc)
	}
	if sp.Damp <= 0 || sp.Damp > 1 {
		return fmt.Errorf("shunt.Params: Damp (%g) must be in (0, 1]", sp.Damp)
	}
	return nil
}

// DX returns the shunting derivative for one unit given its current
// activation and total excitatory / inhibitory drives.
func (sp *Params) DX(x, exc, inh float32) float32 {
	return -sp.Decay*x + (sp.Ceiling-x)*exc - (x-sp.Floor)*inh
}

// StableDt returns true if the given dt satisfies the explicit-Euler
// stability inequality dt*(A + exc + inh) < 1 for the given drives.
func (sp *Params) StableDt(dt, exc, inh float32) bool {
	return dt*(sp.Decay+exc+inh) < 1
}

// Dynamics is a set of units evolving under the shunting equation with
// a shared lateral kernel.  All mutable state is owned here and only
// mutated by Update / Reset.
type Dynamics struct {

	// shunting equation parameters
	Params Params

	// lateral interaction kernel parameters
	Kernel KernelParams

	// number of units
	N int `inactive:"+"`

	// current per-unit activations, always within [Floor, Ceiling]
	Acts []float32

	// caller-supplied external excitatory drive, set via SetExc
	Exc []float32

	// caller-supplied external inhibitory drive, set via SetInh
	Inh []float32

	// count of units recovered from non-finite values -- each
	// recovery resets the unit to zero and increments this
	Degraded int `inactive:"+"`

	excBuf []float32
	inhBuf []float32
}

// New returns a new Dynamics over n units, validating all parameters.
// A configuration error leaves no side effects.
func New(n int, pr Params, kr KernelParams) (*Dynamics, error) {
	if n <= 0 {
		return nil, fmt.Errorf("shunt.New: n (%d) must be > 0", n)
	}
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	if err := kr.Validate(); err != nil {
		return nil, err
	}
	sd := &Dynamics{Params: pr, Kernel: kr, N: n}
	sd.Acts = make([]float32, n)
	sd.Exc = make([]float32, n)
	sd.Inh = make([]float32, n)
	sd.excBuf = make([]float32, n)
	sd.inhBuf = make([]float32, n)
	return sd, nil
}

// SetExc sets the external excitatory drive.  The vector is copied.
func (sd *Dynamics) SetExc(vec []float32) error {
	if len(vec) != sd.N {
		return fmt.Errorf("shunt.SetExc: drive len %d != %d units", len(vec), sd.N)
	}
	copy(sd.Exc, vec)
	return nil
}

// SetInh sets the external inhibitory drive.  The vector is copied.
func (sd *Dynamics) SetInh(vec []float32) error {
	if len(vec) != sd.N {
		return fmt.Errorf("shunt.SetInh: drive len %d != %d units", len(vec), sd.N)
	}
	copy(sd.Inh, vec)
	return nil
}

// SetExcUnit sets the external excitatory drive for a single unit,
// leaving all others untouched.
func (sd *Dynamics) SetExcUnit(i int, v float32) error {
	if i < 0 || i >= sd.N {
		return fmt.Errorf("shunt.SetExcUnit: index %d out of range [0, %d)", i, sd.N)
	}
	sd.Exc[i] = v
	return nil
}

// ClearDrive zeros both external drive vectors.
func (sd *Dynamics) ClearDrive() {
	for i := range sd.Exc {
		sd.Exc[i] = 0
		sd.Inh[i] = 0
	}
}

// LateralFromActs computes the lateral kernel contribution from the
// current activations into the exc / inh scratch buffers, on top of the
// external drive.  Only positive activations propagate laterally.
func (sd *Dynamics) LateralFromActs() {
	kr := &sd.Kernel
	for i := 0; i < sd.N; i++ {
		exc := sd.Exc[i]
		inh := sd.Inh[i]
		for j := 0; j < sd.N; j++ {
			if j == i {
				continue
			}
			src := sd.Acts[j]
			if src <= 0 {
				continue
			}
			d := i - j
			if d < 0 {
				d = -d
			}
			exc += kr.ExcWt(d) * src
			inh += kr.InhWt(d) * src
		}
		if x := sd.Acts[i]; x > 0 {
			exc += sd.Params.SelfExc * x
		}
		sd.excBuf[i] = exc
		sd.inhBuf[i] = inh
	}
}

// Update integrates one forward-Euler step of size dt and returns the
// (copied) new activation vector.  Never fails under validated state:
// non-finite results are recovered by resetting the unit to zero and
// counting it in Degraded.
func (sd *Dynamics) Update(dt float32) []float32 {
	sd.LateralFromActs()
	for i := 0; i < sd.N; i++ {
		x := sd.Acts[i]
		dx := sd.Params.DX(x, sd.excBuf[i], sd.inhBuf[i])
		nx := x + sd.Params.Damp*dt*dx
		nx = math32.Clamp(nx, sd.Params.Floor, sd.Params.Ceiling)
		if math32.IsNaN(nx) || math32.IsInf(nx, 0) {
			nx = 0
			sd.Degraded++
		}
		sd.Acts[i] = nx
	}
	return sd.Activations()
}

// Reset zeros all activations and drives.  Idempotent.
func (sd *Dynamics) Reset() {
	for i := range sd.Acts {
		sd.Acts[i] = 0
		sd.Exc[i] = 0
		sd.Inh[i] = 0
		sd.excBuf[i] = 0
		sd.inhBuf[i] = 0
	}
}

// Activations returns a copy of the current activation vector,
// independent of internal buffers.
func (sd *Dynamics) Activations() []float32 {
	av := make([]float32, sd.N)
	copy(av, sd.Acts)
	return av
}

// Act returns the activation of unit i (0 if out of range).
func (sd *Dynamics) Act(i int) float32 {
	if i < 0 || i >= sd.N {
		return 0
	}
	return sd.Acts[i]
}

// AvgAct returns the mean activation across units.
func (sd *Dynamics) AvgAct() float32 {
	if sd.N == 0 {
		return 0
	}
	var sum float32
	for _, a := range sd.Acts {
		sum += a
	}
	return sum / float32(sd.N)
}

// MaxAct returns the maximum activation across units.
func (sd *Dynamics) MaxAct() float32 {
	mx := float32(math32.Inf(-1))
	for _, a := range sd.Acts {
		mx = math32.Max(mx, a)
	}
	return mx
}
