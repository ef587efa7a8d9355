// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"fmt"

	"cogentcore.org/core/math32"
	"github.com/cortical/smart/osc"
	"github.com/cortical/smart/shunt"
	"github.com/cortical/smart/xmit"
	"github.com/emer/emergent/v2/erand"
	"github.com/emer/etable/v2/etensor"
)

// gatePerSteps is the transmitter update cadence: gates integrate once
// per this many shunting steps, with a correspondingly larger step.
const gatePerSteps = 10

// Layer is one laminar cortical layer: a shunting field with optional
// transmitter gating, an afferent weight matrix, and per-type
// processing policies selected by Typ.  All mutable state is owned by
// the layer and mutated only through its process / reset methods.
type Layer struct {

	// layer name, e.g. "L4"
	Nm string

	// laminar type selecting the processing policy
	Typ LayerTypes

	// number of units
	N int `inactive:"+"`

	// state flags
	Flags LayerFlags

	// integration time constant in ms (copied from the type params)
	Tau float32

	// shunting dynamics (owned)
	Shunt *shunt.Dynamics

	// transmitter gates (owned; nil for L1 and L6, which are purely
	// modulatory and do not habituate)
	Gate *xmit.Gate

	// afferent weight matrix, rows = this layer's units (owned)
	Wts *WtMatrix

	// initial weight distribution
	WtInit WtInitParams

	// optional activation noise added to drive
	Noise ActNoiseParams

	// oscillation analyzer, non-nil while tracking is enabled
	Osc *osc.Analyzer

	// per-type parameter blocks; only the one matching Typ is non-nil
	L1Par  *Layer1Params
	L23Par *Layer23Params
	L4Par  *Layer4Params
	L5Par  *Layer5Params
	L6Par  *Layer6Params

	// output activations from the latest process call
	Act []float32

	// top-down expectation pattern (L6 only)
	TopDownExp []float32

	// count of degraded (non-finite recovered) steps since creation
	Degraded int `inactive:"+"`

	// accumulated layer-local simulation time
	Time float32

	// retained weighted bottom-up drive for L2/3 pathway composition
	lastBU []float32

	// retained weighted top-down drive for L2/3 pathway composition
	lastTD []float32

	// raw input of the latest bottom-up call (pre-synaptic pattern
	// for learning)
	lastIn []float32

	gateCtr      int
	lastDegraded int
	rnd          erand.Rand
}

// newLayer builds the common layer core.  Per-type constructors
// validate their parameter block first and fill in policy fields.
func newLayer(nm string, typ LayerTypes, n int, tau float32, sp shunt.Params, kr shunt.KernelParams, gated bool) (*Layer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: layer %s: size (%d) must be > 0", ErrConfig, nm, n)
	}
	sd, err := shunt.New(n, sp, kr)
	if err != nil {
		return nil, fmt.Errorf("%w: layer %s: %v", ErrConfig, nm, err)
	}
	var bounds WtBounds
	bounds.Defaults()
	wts, err := NewWtMatrix(n, n, bounds)
	if err != nil {
		return nil, err
	}
	ly := &Layer{Nm: nm, Typ: typ, N: n, Tau: tau, Shunt: sd, Wts: wts}
	ly.WtInit.Defaults()
	ly.Noise.Defaults()
	if gated {
		var xp xmit.Params
		xp.Defaults()
		gt, err := xmit.NewGate(n, xp)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %s: %v", ErrConfig, nm, err)
		}
		ly.Gate = gt
	}
	ly.Act = make([]float32, n)
	return ly, nil
}

// NewLayer1 returns an L1 priming / context layer.
func NewLayer1(n int, pr Layer1Params) (*Layer, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	var sp shunt.Params
	sp.Defaults()
	sp.SelfExc = 0.1
	var kr shunt.KernelParams
	ly, err := newLayer("L1", L1, n, pr.TimeConstant, sp, kr, false)
	if err != nil {
		return nil, err
	}
	p := pr
	ly.L1Par = &p
	return ly, nil
}

// NewLayer23 returns an L2/3 integration layer with lateral
// competition.
func NewLayer23(n int, pr Layer23Params) (*Layer, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	var sp shunt.Params
	sp.Defaults()
	sp.SelfExc = 0.2
	kr := shunt.MexicanHat(1, 2, 0.4)
	ly, err := newLayer("L2/3", L23, n, pr.TimeConstant, sp, kr, true)
	if err != nil {
		return nil, err
	}
	p := pr
	ly.L23Par = &p
	return ly, nil
}

// NewLayer4 returns an L4 driving input layer: fast, strongly
// self-excitatory, no lateral inhibition so input rhythmicity passes
// through.
func NewLayer4(n int, pr Layer4Params) (*Layer, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	var sp shunt.Params
	sp.Defaults()
	sp.SelfExc = 0.5
	var kr shunt.KernelParams
	ly, err := newLayer("L4", L4, n, pr.TimeConstant, sp, kr, true)
	if err != nil {
		return nil, err
	}
	p := pr
	ly.L4Par = &p
	return ly, nil
}

// NewLayer5 returns an L5 output / category layer.
func NewLayer5(n int, pr Layer5Params) (*Layer, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	var sp shunt.Params
	sp.Defaults()
	sp.SelfExc = 0.2
	kr := shunt.MexicanHat(1, 2, 0.3)
	ly, err := newLayer("L5", L5, n, pr.TimeConstant, sp, kr, true)
	if err != nil {
		return nil, err
	}
	p := pr
	ly.L5Par = &p
	return ly, nil
}

// NewLayer6 returns an L6 modulatory feedback layer.
func NewLayer6(n int, pr Layer6Params) (*Layer, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	var sp shunt.Params
	sp.Defaults()
	sp.Ceiling = pr.Ceiling
	var kr shunt.KernelParams
	ly, err := newLayer("L6", L6, n, pr.TimeConstant, sp, kr, false)
	if err != nil {
		return nil, err
	}
	p := pr
	ly.L6Par = &p
	return ly, nil
}

// InitWeights initializes the afferent weights from the layer's init
// distribution using the given random source.
func (ly *Layer) InitWeights(rnd erand.Rand) {
	ly.rnd = rnd
	ly.Wts.Init(&ly.WtInit, rnd)
}

// DtEff returns the dimensionless integration step for a wall-clock
// step of dt seconds relative to this layer's time constant.
func (ly *Layer) DtEff(dt float32) float32 {
	return 1000 * dt / ly.Tau
}

// step integrates one shunting step under the given excitatory drive,
// updates the transmitter gate at its slower cadence, recovers
// degraded units, and returns the (gated) output activations.
func (ly *Layer) step(drive []float32, dt float32) []float32 {
	if ly.Noise.On {
		for i := range drive {
			drive[i] += float32(ly.Noise.Gen(-1, ly.rnd))
		}
	}
	dte := ly.DtEff(dt)
	ly.Shunt.SetExc(drive)
	acts := ly.Shunt.Update(dte)
	if ly.Gate != nil {
		// habituation is driven by the bounded activation, not raw
		// drive, so depletion saturates with firing rate
		ly.Gate.SetSignal(acts)
		ly.gateCtr++
		if ly.gateCtr >= gatePerSteps {
			ly.Gate.Update(float32(gatePerSteps) * dte)
			ly.gateCtr = 0
		}
		acts = ly.Gate.Apply(acts)
	}
	if ly.Shunt.Degraded > ly.lastDegraded {
		// non-finite recovery: reset dynamic state, keep weights
		ly.Degraded += ly.Shunt.Degraded - ly.lastDegraded
		ly.Shunt.Reset()
		if ly.Gate != nil {
			ly.Gate.Reset()
		}
		ly.Flags.SetFlag(LayDegraded)
		ly.lastDegraded = ly.Shunt.Degraded
		acts = make([]float32, ly.N)
	}
	ly.Flags.SetFlag(LayDriven)
	ly.Time += dt
	copy(ly.Act, acts)
	return acts
}

// oscSample appends the mean output activation to the oscillation
// buffer, when tracking is enabled.
func (ly *Layer) oscSample() {
	if ly.Osc == nil {
		return
	}
	var sum float32
	for _, a := range ly.Act {
		sum += a
	}
	ly.Osc.Add(sum/float32(ly.N), ly.Time)
}

// checkInput verifies exact input dimension; the circuit is
// responsible for pad / truncate policy.
func (ly *Layer) checkInput(op string, input []float32) error {
	if len(input) != ly.N {
		return fmt.Errorf("%w: %s %s: input len %d != layer size %d", ErrPrecondition, ly.Nm, op, len(input), ly.N)
	}
	return nil
}

// setLastIn snapshots the raw input as the pre-synaptic pattern for
// learning.
func (ly *Layer) setLastIn(input []float32) {
	if ly.lastIn == nil {
		ly.lastIn = make([]float32, ly.N)
	}
	copy(ly.lastIn, input)
}

// LastInput returns the retained pre-synaptic pattern of the latest
// bottom-up call (copy).
func (ly *Layer) LastInput() []float32 {
	out := make([]float32, ly.N)
	copy(out, ly.lastIn)
	return out
}

// Activations returns a copy of the latest output activations.
func (ly *Layer) Activations() []float32 {
	out := make([]float32, ly.N)
	copy(out, ly.Act)
	return out
}

// EnableOscTracking starts oscillation tracking with the given
// sampling rate (Hz) and history size.
func (ly *Layer) EnableOscTracking(sampleRate float32, histSize int) error {
	an, err := osc.NewAnalyzer(sampleRate, histSize)
	if err != nil {
		return fmt.Errorf("%w: layer %s: %v", ErrConfig, ly.Nm, err)
	}
	ly.Osc = an
	return nil
}

// DisableOscTracking stops oscillation tracking and drops the buffer.
func (ly *Layer) DisableOscTracking() {
	ly.Osc = nil
}

// OscMetrics returns the current oscillation metrics, or zero metrics
// if tracking is disabled.
func (ly *Layer) OscMetrics() osc.Metrics {
	if ly.Osc == nil {
		return osc.Metrics{}
	}
	return ly.Osc.CurMetrics()
}

// UnitVarNames returns the per-unit variable names retrievable by
// UnitVal / UnitVals.
func UnitVarNames() []string {
	return unitVarNames
}

var unitVarNames = []string{"Act", "Ge", "Gi", "Xmit"}

// UnitVal returns the named per-unit variable for unit i, or NaN if
// the name or index is invalid.
func (ly *Layer) UnitVal(varNm string, i int) float32 {
	if i < 0 || i >= ly.N {
		return math32.NaN()
	}
	switch varNm {
	case "Act":
		return ly.Act[i]
	case "Ge":
		return ly.Shunt.Exc[i]
	case "Gi":
		return ly.Shunt.Inh[i]
	case "Xmit":
		if ly.Gate == nil {
			return math32.NaN()
		}
		return ly.Gate.Level(i)
	}
	return math32.NaN()
}

// UnitVals returns a copy of the named per-unit variable across units.
func (ly *Layer) UnitVals(varNm string) []float32 {
	out := make([]float32, ly.N)
	for i := range out {
		out[i] = ly.UnitVal(varNm, i)
	}
	return out
}

// UnitValsTensor returns the named per-unit variable as a freshly
// allocated 1D tensor.
func (ly *Layer) UnitValsTensor(varNm string) *etensor.Float32 {
	tsr := etensor.NewFloat32([]int{ly.N}, nil, []string{"Unit"})
	copy(tsr.Values, ly.UnitVals(varNm))
	return tsr
}

// WeightsTensor returns a defensive snapshot of the afferent weights.
func (ly *Layer) WeightsTensor() *etensor.Float32 {
	return ly.Wts.Tensor()
}

// Reset restores all dynamic state (activations, gates, pathway
// snapshots, oscillation buffer) to initial values.  Weights are
// preserved.  Idempotent.
func (ly *Layer) Reset() {
	ly.Shunt.Reset()
	if ly.Gate != nil {
		ly.Gate.Reset()
	}
	if ly.Osc != nil {
		ly.Osc.Reset()
	}
	for i := range ly.Act {
		ly.Act[i] = 0
	}
	ly.lastBU = nil
	ly.lastTD = nil
	ly.lastIn = nil
	ly.TopDownExp = nil
	ly.gateCtr = 0
	ly.Time = 0
	ly.Flags = 0
}
