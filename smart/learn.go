// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"fmt"

	"github.com/goki/ki/kit"
)

///////////////////////////////////////////////////////////////////////
//  learn.go contains the plasticity rules and the learning controller
//  that gates per-layer weight updates by resonance (consciousness
//  likelihood) and attention.

// LearnRules enumerates the built-in plasticity rules.
type LearnRules int32

//go:generate stringer -type=LearnRules

var KiT_LearnRules = kit.Enums.AddEnum(LearnRulesN, kit.NotBitFlag, nil)

const (
	// Hebbian is bounded Hebbian: dW = rate*post*pre - decay*W
	Hebbian LearnRules = iota

	// Instar moves each active row toward the input pattern:
	// dW_ij = rate*post_i*(pre_j - W_ij)
	Instar

	// Outstar moves each active column toward the output pattern:
	// dW_ij = rate*pre_j*(post_i - W_ij)
	Outstar

	// Bidirectional applies instar then outstar
	Bidirectional

	LearnRulesN
)

// Rule is the capability set of a plasticity rule: a stateless update
// of the weight matrix from pre / post activation patterns at a given
// effective rate.  Weights remain within the matrix bounds after any
// update.
type Rule interface {

	// Name returns the rule name for statistics and logging
	Name() string

	// Update applies the weight change in place
	Update(pre, post []float32, wt *WtMatrix, rate float32)
}

// NewRule returns the standard rule implementation for the given type.
func NewRule(rt LearnRules) (Rule, error) {
	switch rt {
	case Hebbian:
		return &HebbRule{Decay: 0.001}, nil
	case Instar:
		return &InstarRule{}, nil
	case Outstar:
		return &OutstarRule{}, nil
	case Bidirectional:
		return &BidirRule{}, nil
	}
	return nil, fmt.Errorf("%w: unknown learning rule %d", ErrConfig, rt)
}

// HebbRule is bounded Hebbian learning with passive decay.
type HebbRule struct {

	// passive weight decay rate
	Decay float32 `min:"0" def:"0.001"`
}

func (hr *HebbRule) Name() string { return "Hebbian" }

func (hr *HebbRule) Update(pre, post []float32, wt *WtMatrix, rate float32) {
	for r := 0; r < wt.Rows && r < len(post); r++ {
		po := post[r]
		for c := 0; c < wt.Cols && c < len(pre); c++ {
			w := wt.At(r, c)
			wt.Set(r, c, w+rate*po*pre[c]-hr.Decay*w)
		}
	}
}

// InstarRule converges the weight rows of active post units toward the
// pre pattern, the classic competitive-learning prototype update.
type InstarRule struct{}

func (ir *InstarRule) Name() string { return "Instar" }

func (ir *InstarRule) Update(pre, post []float32, wt *WtMatrix, rate float32) {
	for r := 0; r < wt.Rows && r < len(post); r++ {
		po := post[r]
		if po == 0 {
			continue
		}
		for c := 0; c < wt.Cols && c < len(pre); c++ {
			w := wt.At(r, c)
			wt.Set(r, c, w+rate*po*(pre[c]-w))
		}
	}
}

// OutstarRule converges the weight columns of active pre units toward
// the post pattern, supporting pattern recall from category units.
type OutstarRule struct{}

func (or *OutstarRule) Name() string { return "Outstar" }

func (or *OutstarRule) Update(pre, post []float32, wt *WtMatrix, rate float32) {
	for c := 0; c < wt.Cols && c < len(pre); c++ {
		pe := pre[c]
		if pe == 0 {
			continue
		}
		for r := 0; r < wt.Rows && r < len(post); r++ {
			w := wt.At(r, c)
			wt.Set(r, c, w+rate*pe*(post[r]-w))
		}
	}
}

// BidirRule applies instar then outstar.
type BidirRule struct {
	In  InstarRule
	Out OutstarRule
}

func (br *BidirRule) Name() string { return "Bidirectional" }

func (br *BidirRule) Update(pre, post []float32, wt *WtMatrix, rate float32) {
	br.In.Update(pre, post, wt, rate)
	br.Out.Update(pre, post, wt, rate)
}

// ResonanceGatedRule wraps any rule so that Update is a no-op while
// the consciousness likelihood is below Thr.  The likelihood is set
// per tick by the controller (or by the caller when used standalone).
type ResonanceGatedRule struct {

	// wrapped rule
	Inner Rule

	// consciousness likelihood threshold
	Thr float32 `min:"0" max:"1" def:"0.5"`

	// current consciousness likelihood
	Likelihood float32
}

func (rg *ResonanceGatedRule) Name() string { return "ResonanceGated(" + rg.Inner.Name() + ")" }

// SetLikelihood installs the current consciousness likelihood.
func (rg *ResonanceGatedRule) SetLikelihood(l float32) {
	rg.Likelihood = l
}

func (rg *ResonanceGatedRule) Update(pre, post []float32, wt *WtMatrix, rate float32) {
	if rg.Likelihood < rg.Thr {
		return
	}
	rg.Inner.Update(pre, post, wt, rate)
}

///////////////////////////////////////////////////////////////////////
//  Learning context

// Context carries the per-tick learning evidence for one layer.  It is
// created per tick and never stored.
type Context struct {

	// pre-synaptic activation pattern
	Pre []float32

	// post-synaptic activation pattern
	Post []float32

	// resonance state, nil when detection is disabled
	Res *ResonanceState

	// exogenous attention strength in [0, 1]
	Attention float32

	// simulation time of the tick
	Time float32
}

// ShouldLearn returns true if attention meets the attention threshold
// and, when a resonance detector is present, consciousness meets the
// resonance threshold.
func (cx *Context) ShouldLearn(resThr, attThr float32) bool {
	if cx.Attention < attThr {
		return false
	}
	if cx.Res != nil && cx.Res.Consciousness < resThr {
		return false
	}
	return true
}

// EffectiveRate returns base * consciousness * attention, with missing
// factors defaulting to 1.
func (cx *Context) EffectiveRate(base float32) float32 {
	rate := base
	if cx.Res != nil {
		rate *= cx.Res.Consciousness
	}
	rate *= cx.Attention
	return rate
}

///////////////////////////////////////////////////////////////////////
//  Controller

// LayerLearnStats counts per-layer learning events.
type LayerLearnStats struct {

	// update attempts (ticks with learning enabled)
	Attempted int

	// updates actually applied
	Applied int

	// updates gated off by the resonance threshold
	ResonanceGated int

	// updates gated off by the attention threshold
	AttentionGated int
}

// Add accumulates other into the stats.
func (ls *LayerLearnStats) Add(ot *LayerLearnStats) {
	ls.Attempted += ot.Attempted
	ls.Applied += ot.Applied
	ls.ResonanceGated += ot.ResonanceGated
	ls.AttentionGated += ot.AttentionGated
}

// Controller gates and applies plasticity across the circuit's layers.
type Controller struct {

	// whether learning is enabled
	Enabled bool

	// active plasticity rule
	Rule Rule

	// per-layer base learning rates
	Rates map[LayerTypes]float32

	// consciousness likelihood threshold for learning
	ResThr float32 `min:"0" max:"1" def:"0.5"`

	// attention threshold for learning
	AttThr float32 `min:"0" max:"1" def:"0.1"`

	// per-layer statistics
	Stats map[LayerTypes]*LayerLearnStats
}

// NewController returns a disabled controller with default thresholds.
func NewController() *Controller {
	lc := &Controller{
		ResThr: 0.5,
		AttThr: 0.1,
		Rates:  map[LayerTypes]float32{},
		Stats:  map[LayerTypes]*LayerLearnStats{},
	}
	for _, lt := range []LayerTypes{L1, L23, L4, L5, L6} {
		lc.Rates[lt] = 0.001
		lc.Stats[lt] = &LayerLearnStats{}
	}
	return lc
}

// Enable activates learning with the given rule and optional per-layer
// base rates (each in [0, 1]; omitted layers keep their current rate).
func (lc *Controller) Enable(rule Rule, rates map[LayerTypes]float32) error {
	if rule == nil {
		return fmt.Errorf("%w: Controller.Enable: rule must not be nil", ErrPrecondition)
	}
	for lt, r := range rates {
		if r < 0 || r > 1 {
			return fmt.Errorf("%w: Controller.Enable: rate %g for layer type %d outside [0, 1]", ErrPrecondition, r, lt)
		}
	}
	for lt, r := range rates {
		lc.Rates[lt] = r
	}
	lc.Rule = rule
	lc.Enabled = true
	return nil
}

// Disable deactivates learning; weights are untouched thereafter.
func (lc *Controller) Disable() {
	lc.Enabled = false
}

// SetResonanceThreshold sets the consciousness likelihood threshold.
func (lc *Controller) SetResonanceThreshold(x float32) error {
	if x < 0 || x > 1 {
		return fmt.Errorf("%w: resonance threshold (%g) outside [0, 1]", ErrPrecondition, x)
	}
	lc.ResThr = x
	return nil
}

// SetAttentionThreshold sets the attention threshold.
func (lc *Controller) SetAttentionThreshold(x float32) error {
	if x < 0 || x > 1 {
		return fmt.Errorf("%w: attention threshold (%g) outside [0, 1]", ErrPrecondition, x)
	}
	lc.AttThr = x
	return nil
}

// Step applies one gated learning update to the given layer from the
// tick's context.  Returns true if the update was applied.
func (lc *Controller) Step(ly *Layer, cx *Context) bool {
	if !lc.Enabled || lc.Rule == nil {
		return false
	}
	st := lc.Stats[ly.Typ]
	st.Attempted++
	if cx.Attention < lc.AttThr {
		st.AttentionGated++
		return false
	}
	if cx.Res != nil && cx.Res.Consciousness < lc.ResThr {
		st.ResonanceGated++
		return false
	}
	rate := cx.EffectiveRate(lc.Rates[ly.Typ])
	if rate == 0 {
		return false
	}
	if rg, ok := lc.Rule.(*ResonanceGatedRule); ok && cx.Res != nil {
		rg.SetLikelihood(cx.Res.Consciousness)
	}
	lc.Rule.Update(cx.Pre, cx.Post, ly.Wts, rate)
	st.Applied++
	return true
}

// Aggregate returns the circuit-level aggregate of per-layer stats.
func (lc *Controller) Aggregate() LayerLearnStats {
	var agg LayerLearnStats
	for _, st := range lc.Stats {
		agg.Add(st)
	}
	return agg
}

// ResetStats zeros all counters.
func (lc *Controller) ResetStats() {
	for _, st := range lc.Stats {
		*st = LayerLearnStats{}
	}
}
