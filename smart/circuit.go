// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"fmt"
	"log/slog"

	"github.com/cortical/smart/mask"
	"github.com/cortical/smart/temporal"
	"github.com/cortical/smart/wm"
	"github.com/emer/emergent/v2/erand"
	"github.com/emer/emergent/v2/etime"
)

// maxDtEff bounds the per-layer dimensionless integration step; the
// circuit rejects TimePerTick / time-constant combinations beyond it so
// the explicit-Euler stability inequality holds under bounded drive.
const maxDtEff = 0.5

// CircuitParams configures a cortical circuit.
type CircuitParams struct {

	// number of units per layer (circuit size)
	Size int `min:"1"`

	// L1 priming / context layer parameters
	L1 Layer1Params

	// L2/3 integration layer parameters
	L23 Layer23Params

	// L4 driving input layer parameters
	L4 Layer4Params

	// L5 output / category layer parameters
	L5 Layer5Params

	// L6 modulatory feedback layer parameters
	L6 Layer6Params

	// simulated seconds per Process tick
	TimePerTick float32 `min:"0" def:"0.001"`

	// random seed for weight initialization; identical seeds and
	// parameters yield identical circuits
	Seed int64 `def:"1"`
}

// Defaults sets default values for all parameter blocks.
func (cp *CircuitParams) Defaults() {
	cp.L1.Defaults()
	cp.L23.Defaults()
	cp.L4.Defaults()
	cp.L5.Defaults()
	cp.L6.Defaults()
	cp.TimePerTick = 0.001
	cp.Seed = 1
}

// Validate returns a configuration error if any parameter block or
// the tick / time-constant combination is invalid.
func (cp *CircuitParams) Validate() error {
	if cp.Size <= 0 {
		return fmt.Errorf("%w: CircuitParams.Size (%d) must be > 0", ErrConfig, cp.Size)
	}
	if err := cp.L1.Validate(); err != nil {
		return err
	}
	if err := cp.L23.Validate(); err != nil {
		return err
	}
	if err := cp.L4.Validate(); err != nil {
		return err
	}
	if err := cp.L5.Validate(); err != nil {
		return err
	}
	if err := cp.L6.Validate(); err != nil {
		return err
	}
	if cp.TimePerTick <= 0 {
		return fmt.Errorf("%w: CircuitParams.TimePerTick (%g) must be > 0", ErrConfig, cp.TimePerTick)
	}
	for _, tau := range []float32{cp.L1.TimeConstant, cp.L23.TimeConstant, cp.L4.TimeConstant, cp.L5.TimeConstant, cp.L6.TimeConstant} {
		if 1000*cp.TimePerTick/tau > maxDtEff {
			return fmt.Errorf("%w: TimePerTick (%g s) too large for time constant %g ms", ErrConfig, cp.TimePerTick, tau)
		}
	}
	return nil
}

// DetailedResult is the full per-tick pathway record.
type DetailedResult struct {

	// combined temporal pattern that drove L4
	TemporalPattern []float32

	// bottom-up pathway outputs
	L4Out  []float32
	L23Out []float32
	L1Out  []float32

	// top-down pathway outputs
	L6Out      []float32
	L23TopDown []float32
	L4TopDown  []float32

	// L2/3 after priming, and the final L5 output
	L23WithL1 []float32
	L5Out     []float32

	// temporal processing result (working memory + masking field)
	Temporal *temporal.Result

	// resonance state, nil when detection is disabled
	Resonance *ResonanceState

	// true if any layer recovered a non-finite value this tick
	Degraded bool
}

// CircuitStats aggregates per-circuit counters.
type CircuitStats struct {

	// number of Process ticks since construction
	Ticks int

	// ticks on which at least one layer recovered a non-finite value
	DegradedTicks int
}

// CorticalCircuit composes the five laminar layers with a temporal
// processor, resonance detection, and the learning controller, and
// schedules the fixed per-tick pathway order.
type CorticalCircuit struct {

	// construction parameters
	Params CircuitParams

	// the five layers (owned)
	Lay1  *Layer
	Lay23 *Layer
	Lay4  *Layer
	Lay5  *Layer
	Lay6  *Layer

	// temporal chunking pipeline (owned)
	Temporal *temporal.Processor

	// learning controller (owned)
	Learn *Controller

	// resonance detector, nil until enabled
	Resonance *ResonanceDetector

	// exogenous attention strength in [0, 1], folded into each
	// tick's learning context
	Attention float32

	// timing state
	Time *Time

	// circuit counters
	Stats CircuitStats

	// injected logger for recovered events; nil logs nothing
	Log *slog.Logger

	// per-tick summary log, nil unless enabled
	Ticks *TickLog

	rnd    erand.Rand
	closed bool
}

// NewCorticalCircuit returns a circuit over the given parameters.  A
// nil temporal processor gets a default working-memory + masking-field
// pipeline matched to the circuit size.  Configuration errors leave no
// side effects.
func NewCorticalCircuit(cp CircuitParams, tp *temporal.Processor) (*CorticalCircuit, error) {
	if cp.TimePerTick == 0 {
		cp.TimePerTick = 0.001
	}
	if cp.Seed == 0 {
		cp.Seed = 1
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	if tp == nil {
		var wmp wm.Params
		wmp.Defaults()
		wmp.ItemDim = cp.Size
		var mfp mask.Params
		mfp.Defaults()
		var err error
		tp, err = temporal.New(wmp, mfp, 0.1)
		if err != nil {
			return nil, err
		}
	} else if tp.Memory.Params.ItemDim != cp.Size {
		return nil, fmt.Errorf("%w: temporal processor item dimension %d != circuit size %d", ErrConfig, tp.Memory.Params.ItemDim, cp.Size)
	}

	l1, err := NewLayer1(cp.Size, cp.L1)
	if err != nil {
		return nil, err
	}
	l23, err := NewLayer23(cp.Size, cp.L23)
	if err != nil {
		return nil, err
	}
	l4, err := NewLayer4(cp.Size, cp.L4)
	if err != nil {
		return nil, err
	}
	l5, err := NewLayer5(cp.Size, cp.L5)
	if err != nil {
		return nil, err
	}
	l6, err := NewLayer6(cp.Size, cp.L6)
	if err != nil {
		return nil, err
	}

	cc := &CorticalCircuit{
		Params:    cp,
		Lay1:      l1,
		Lay23:     l23,
		Lay4:      l4,
		Lay5:      l5,
		Lay6:      l6,
		Temporal:  tp,
		Learn:     NewController(),
		Attention: 1,
		Time:      NewTime(),
	}
	cc.Time.TimePerTick = cp.TimePerTick
	cc.rnd = erand.NewSysRand(cp.Seed)
	cc.InitWeights()
	return cc, nil
}

// InitWeights (re)initializes all layer weights from the circuit seed.
func (cc *CorticalCircuit) InitWeights() {
	cc.rnd = erand.NewSysRand(cc.Params.Seed)
	for _, ly := range cc.Layers() {
		ly.InitWeights(cc.rnd)
	}
}

// Layers returns the five layers in laminar order L1, L2/3, L4, L5,
// L6.
func (cc *CorticalCircuit) Layers() []*Layer {
	return []*Layer{cc.Lay1, cc.Lay23, cc.Lay4, cc.Lay5, cc.Lay6}
}

// LayerByType returns the layer of the given type, nil if unknown.
func (cc *CorticalCircuit) LayerByType(lt LayerTypes) *Layer {
	switch lt {
	case L1:
		return cc.Lay1
	case L23:
		return cc.Lay23
	case L4:
		return cc.Lay4
	case L5:
		return cc.Lay5
	case L6:
		return cc.Lay6
	}
	return nil
}

// TemporalProcessor returns the owned temporal processor.
func (cc *CorticalCircuit) TemporalProcessor() *temporal.Processor {
	return cc.Temporal
}

// SetLogger installs an injected logger for recovered events.
func (cc *CorticalCircuit) SetLogger(lg *slog.Logger) {
	cc.Log = lg
}

// adaptInput right-pads shorter inputs with zero and truncates longer
// ones to the circuit size; always returns a fresh copy.
func (cc *CorticalCircuit) adaptInput(input []float32) []float32 {
	out := make([]float32, cc.Params.Size)
	copy(out, input)
	return out
}

// Process runs one full pathway tick and returns the L5 output.
func (cc *CorticalCircuit) Process(input []float32) ([]float32, error) {
	res, err := cc.ProcessDetailed(input)
	if err != nil {
		return nil, err
	}
	return res.L5Out, nil
}

// ProcessDetailed runs one full pathway tick, recording every
// intermediate pathway output.  The pathway order within a tick is
// fixed: temporal -> bottom-up (L4, L2/3, L1) -> top-down (L6, L2/3,
// L4) -> priming -> output (L5) -> resonance.
func (cc *CorticalCircuit) ProcessDetailed(input []float32) (*DetailedResult, error) {
	if cc.closed {
		return nil, fmt.Errorf("%w: circuit is closed", ErrPrecondition)
	}
	in := cc.adaptInput(input)
	dt := cc.Time.TimePerTick

	// temporal
	tres, err := cc.Temporal.Process(in)
	if err != nil {
		return nil, err
	}
	tpat := cc.adaptInput(tres.Combined)

	// bottom-up
	l4out, err := cc.Lay4.ProcessBottomUp(tpat, dt)
	if err != nil {
		return nil, err
	}
	l23out, err := cc.Lay23.ProcessBottomUp(l4out, dt)
	if err != nil {
		return nil, err
	}
	l1out, err := cc.Lay1.ProcessTopDown(l23out, dt)
	if err != nil {
		return nil, err
	}

	// top-down
	l6out, err := cc.Lay6.ProcessBottomUp(l23out, dt)
	if err != nil {
		return nil, err
	}
	l23td, err := cc.Lay23.ProcessTopDown(l6out, dt)
	if err != nil {
		return nil, err
	}
	l4fb, err := cc.Lay6.GenerateFeedbackToL4(l6out)
	if err != nil {
		return nil, err
	}
	l4td, err := cc.Lay4.ProcessTopDown(l4fb, dt)
	if err != nil {
		return nil, err
	}

	// priming
	l23l1, err := cc.Lay23.ApplyPriming(l1out, dt)
	if err != nil {
		return nil, err
	}

	// output
	l5out, err := cc.Lay5.ProcessBottomUp(l23l1, dt)
	if err != nil {
		return nil, err
	}

	res := &DetailedResult{
		TemporalPattern: tpat,
		L4Out:           l4out,
		L23Out:          l23out,
		L1Out:           l1out,
		L6Out:           l6out,
		L23TopDown:      l23td,
		L4TopDown:       l4td,
		L23WithL1:       l23l1,
		L5Out:           l5out,
		Temporal:        tres,
	}

	// resonance
	if cc.Resonance != nil {
		res.Resonance = cc.Resonance.Update(l4out, cc.Lay6.TopDownExp, l5out, cc.Time.Time)
	}

	cc.Time.TickInc()
	cc.Stats.Ticks++
	for _, ly := range cc.Layers() {
		if ly.Flags.HasFlag(LayDegraded) {
			res.Degraded = true
			ly.Flags.ClearFlag(LayDegraded)
		}
	}
	if res.Degraded {
		cc.Stats.DegradedTicks++
		if cc.Log != nil {
			cc.Log.Warn("degraded tick: non-finite activation recovered",
				"tick", cc.Time.Tick)
		}
	}
	if cc.Ticks != nil {
		cc.Ticks.LogTick(cc.Time.Tick, cc.Time.Time, res)
	}
	return res, nil
}

// EnableTickLog starts per-tick summary logging into an etable.Table.
func (cc *CorticalCircuit) EnableTickLog() *TickLog {
	if cc.Ticks == nil {
		cc.Ticks = NewTickLog()
	}
	return cc.Ticks
}

// DisableTickLog stops per-tick summary logging.
func (cc *CorticalCircuit) DisableTickLog() {
	cc.Ticks = nil
}

// ProcessAndLearn runs one tick and then applies the gated learning
// update to every layer from the tick's pathway record.
func (cc *CorticalCircuit) ProcessAndLearn(input []float32) (*DetailedResult, error) {
	res, err := cc.ProcessDetailed(input)
	if err != nil {
		return nil, err
	}
	cc.learnFromResult(res)
	return res, nil
}

// learnFromResult builds the per-layer learning contexts from a tick's
// pathway record and steps the controller.  Contexts are created per
// tick and never stored.
func (cc *CorticalCircuit) learnFromResult(res *DetailedResult) {
	if !cc.Learn.Enabled {
		return
	}
	t := cc.Time.Time
	ctxs := []struct {
		ly       *Layer
		pre, post []float32
	}{
		{cc.Lay4, res.TemporalPattern, res.L4Out},
		{cc.Lay23, res.L4Out, res.L23WithL1},
		{cc.Lay1, res.L23Out, res.L1Out},
		{cc.Lay6, res.L23Out, res.L6Out},
		{cc.Lay5, res.L23WithL1, res.L5Out},
	}
	for _, c := range ctxs {
		cx := &Context{
			Pre:       c.pre,
			Post:      c.post,
			Res:       res.Resonance,
			Attention: cc.Attention,
			Time:      t,
		}
		cc.Learn.Step(c.ly, cx)
	}
}

// ProcessSequence processes each pattern in order, returning per-step
// L5 outputs.
func (cc *CorticalCircuit) ProcessSequence(patterns [][]float32) ([][]float32, error) {
	out := make([][]float32, 0, len(patterns))
	for i, p := range patterns {
		o, err := cc.Process(p)
		if err != nil {
			return out, fmt.Errorf("ProcessSequence: step %d: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// EnableResonanceDetection activates resonance detection with the
// given vigilance threshold, oscillation sampling rate, and history
// size; tracking is enabled on L4, L2/3, and L5.
func (cc *CorticalCircuit) EnableResonanceDetection(threshold, sampleRate float32, histSize int) error {
	rd, err := NewResonanceDetector(threshold, sampleRate, histSize, cc.Lay4, cc.Lay23, cc.Lay5)
	if err != nil {
		return err
	}
	cc.Resonance = rd
	return nil
}

// EnableLearning activates the given built-in rule with optional
// per-layer base rates and switches the circuit into training mode.
func (cc *CorticalCircuit) EnableLearning(rt LearnRules, rates map[LayerTypes]float32) error {
	rule, err := NewRule(rt)
	if err != nil {
		return err
	}
	return cc.EnableLearningRule(rule, rates)
}

// EnableLearningRule activates a caller-supplied rule (e.g. a
// ResonanceGatedRule wrapper) with optional per-layer base rates.
func (cc *CorticalCircuit) EnableLearningRule(rule Rule, rates map[LayerTypes]float32) error {
	if err := cc.Learn.Enable(rule, rates); err != nil {
		return err
	}
	cc.Time.Mode = etime.Train
	return nil
}

// DisableLearning deactivates learning; weight matrices are untouched
// by Process thereafter.
func (cc *CorticalCircuit) DisableLearning() {
	cc.Learn.Disable()
	cc.Time.Mode = etime.Test
}

// SetResonanceLearningThreshold sets the consciousness threshold below
// which no learning applies.
func (cc *CorticalCircuit) SetResonanceLearningThreshold(x float32) error {
	return cc.Learn.SetResonanceThreshold(x)
}

// SetAttentionLearningThreshold sets the attention threshold below
// which no learning applies.
func (cc *CorticalCircuit) SetAttentionLearningThreshold(x float32) error {
	return cc.Learn.SetAttentionThreshold(x)
}

// SetAttention sets the exogenous attention strength in [0, 1].
func (cc *CorticalCircuit) SetAttention(x float32) error {
	if x < 0 || x > 1 {
		return fmt.Errorf("%w: attention (%g) must be in [0, 1]", ErrPrecondition, x)
	}
	cc.Attention = x
	return nil
}

// LearningStatistics returns a copy of the per-layer learning stats.
func (cc *CorticalCircuit) LearningStatistics() map[LayerTypes]LayerLearnStats {
	out := map[LayerTypes]LayerLearnStats{}
	for lt, st := range cc.Learn.Stats {
		out[lt] = *st
	}
	return out
}

// CircuitLearningStatistics returns the circuit-level aggregate of the
// learning counters.
func (cc *CorticalCircuit) CircuitLearningStatistics() LayerLearnStats {
	return cc.Learn.Aggregate()
}

// Reset restores all dynamic state -- layers, temporal pipeline,
// timing -- to post-construction values.  Weights and statistics are
// preserved.  Idempotent.
func (cc *CorticalCircuit) Reset() {
	for _, ly := range cc.Layers() {
		ly.Reset()
	}
	cc.Temporal.Reset()
	cc.Time.Reset()
}

// Close tears down the circuit.  Idempotent; further Process calls
// are rejected.
func (cc *CorticalCircuit) Close() error {
	cc.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (cc *CorticalCircuit) Closed() bool {
	return cc.closed
}
