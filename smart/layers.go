// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"fmt"

	"cogentcore.org/core/math32"
)

///////////////////////////////////////////////////////////////////////
//  layers.go contains the per-type processing policies for the five
//  laminar layer variants.

// ProcessBottomUp drives the layer with a bottom-up input pattern for
// one integration step of dt seconds and returns the output
// activations (copy).  The input must match the layer size exactly.
func (ly *Layer) ProcessBottomUp(input []float32, dt float32) ([]float32, error) {
	if err := ly.checkInput("ProcessBottomUp", input); err != nil {
		return nil, err
	}
	ly.setLastIn(input)
	var out []float32
	switch ly.Typ {
	case L4:
		out = ly.bottomUpL4(input, dt)
	case L23:
		out = ly.bottomUpL23(input, dt)
	case L5:
		out = ly.bottomUpL5(input, dt)
	case L6:
		out = ly.bottomUpL6(input, dt)
	default:
		return nil, fmt.Errorf("%w: %s: ProcessBottomUp not meaningful for this layer", ErrPrecondition, ly.Nm)
	}
	ly.oscSample()
	return out, nil
}

// ProcessTopDown applies a top-down pattern for one integration step:
// context processing for L1, expectation integration for L2/3, and
// feedback modulation for L4.  Returns the output activations (copy).
func (ly *Layer) ProcessTopDown(input []float32, dt float32) ([]float32, error) {
	if err := ly.checkInput("ProcessTopDown", input); err != nil {
		return nil, err
	}
	var out []float32
	switch ly.Typ {
	case L1:
		ly.setLastIn(input)
		out = ly.topDownL1(input, dt)
		ly.oscSample()
	case L23:
		out = ly.topDownL23(input, dt)
	case L4:
		out = ly.topDownL4(input, dt)
	default:
		return nil, fmt.Errorf("%w: %s: ProcessTopDown not meaningful for this layer", ErrPrecondition, ly.Nm)
	}
	return out, nil
}

// ApplyPriming folds L1 priming into the L2/3 integration (L2/3 only).
func (ly *Layer) ApplyPriming(priming []float32, dt float32) ([]float32, error) {
	if ly.Typ != L23 {
		return nil, fmt.Errorf("%w: %s: ApplyPriming is an L2/3 operation", ErrPrecondition, ly.Nm)
	}
	if err := ly.checkInput("ApplyPriming", priming); err != nil {
		return nil, err
	}
	drive := ly.composeL23(nil, nil)
	for i := range drive {
		drive[i] += priming[i]
	}
	return ly.step(drive, dt), nil
}

///////////////////////////////////////////////////////////////////////
//  L4: driving input

// bottomUpL4 applies the driving gain through the afferent weights and
// integrates with strong self-excitation, preserving input rhythm.
func (ly *Layer) bottomUpL4(input []float32, dt float32) []float32 {
	drive := ly.Wts.MulVec(input)
	g := ly.L4Par.DrivingStrength
	for i := range drive {
		drive[i] *= g
	}
	return ly.step(drive, dt)
}

// topDownL4 applies modulatory feedback from L6: a weak additive drive
// on top of the retained bottom-up drive, so feedback biases but never
// replaces the input.
func (ly *Layer) topDownL4(fb []float32, dt float32) []float32 {
	drive := make([]float32, ly.N)
	copy(drive, ly.Shunt.Exc)
	for i := range drive {
		drive[i] += fb[i]
	}
	return ly.step(drive, dt)
}

///////////////////////////////////////////////////////////////////////
//  L2/3: integration

// composeL23 rebuilds the integrated drive from the retained
// bottom-up and top-down contributions, overriding either when a new
// value is given.
func (ly *Layer) composeL23(bu, td []float32) []float32 {
	if bu == nil {
		bu = ly.lastBU
	}
	if td == nil {
		td = ly.lastTD
	}
	drive := make([]float32, ly.N)
	if bu != nil {
		w := ly.L23Par.BottomUpWt
		for i := range drive {
			drive[i] += w * bu[i]
		}
	}
	if td != nil {
		w := ly.L23Par.TopDownWt
		for i := range drive {
			drive[i] += w * td[i]
		}
	}
	return drive
}

// bottomUpL23 integrates the weighted bottom-up drive from L4 under
// lateral competition, retaining it for later pathway composition.
func (ly *Layer) bottomUpL23(input []float32, dt float32) []float32 {
	bu := ly.Wts.MulVec(input)
	ly.lastBU = bu
	ly.lastTD = nil
	return ly.step(ly.composeL23(bu, nil), dt)
}

// topDownL23 folds the L6 expectation into the integrated drive,
// retaining it for the priming pass.
func (ly *Layer) topDownL23(td []float32, dt float32) []float32 {
	tdc := make([]float32, ly.N)
	copy(tdc, td)
	ly.lastTD = tdc
	return ly.step(ly.composeL23(nil, tdc), dt)
}

///////////////////////////////////////////////////////////////////////
//  L1: priming / context

// topDownL1 integrates top-down context on the slow L1 time constant;
// the output is the modulatory priming vector scaled by
// PrimingStrength.
func (ly *Layer) topDownL1(input []float32, dt float32) []float32 {
	drive := ly.Wts.MulVec(input)
	acts := ly.step(drive, dt)
	g := ly.L1Par.PrimingStrength
	out := make([]float32, ly.N)
	for i := range out {
		out[i] = g * acts[i]
	}
	copy(ly.Act, out)
	return out
}

///////////////////////////////////////////////////////////////////////
//  L5: output / category

// bottomUpL5 amplifies the integrated input, applies per-unit burst
// amplification above BurstThreshold, integrates, and passes the
// output through gain and the optional X/(X+1) soft normalizer.
// Declares a category formed when any output unit exceeds
// CategoryThreshold.
func (ly *Layer) bottomUpL5(input []float32, dt float32) []float32 {
	pr := ly.L5Par
	drive := ly.Wts.MulVec(input)
	for i := range drive {
		d := drive[i] * pr.AmplificationGain
		if d > pr.BurstThreshold {
			d *= pr.BurstAmplification
		}
		drive[i] = d
	}
	acts := ly.step(drive, dt)
	out := make([]float32, ly.N)
	formed := false
	for i, a := range acts {
		o := pr.OutputGain * a
		if pr.OutputNormalization {
			o = SoftNorm(o, pr.NormGain)
		}
		if o > pr.CategoryThreshold {
			formed = true
		}
		out[i] = o
	}
	if formed {
		ly.Flags.SetFlag(LayCategoryFormed)
	} else {
		ly.Flags.ClearFlag(LayCategoryFormed)
	}
	copy(ly.Act, out)
	return out
}

// CategoryFormed reports whether any L5 output unit exceeded the
// category threshold on the latest step.
func (ly *Layer) CategoryFormed() bool {
	return ly.Flags.HasFlag(LayCategoryFormed)
}

// SoftNorm is the X/(X+1) rate-code saturation used as the L5 output
// normalizer: monotone, zero-preserving, bounded below 1.
func SoftNorm(x, gain float32) float32 {
	if x <= 0 {
		return 0
	}
	gx := gain * x
	return gx / (gx + 1)
}

///////////////////////////////////////////////////////////////////////
//  L6: modulatory feedback

// SetTopDownExpectation installs the expectation pattern that L6
// matches bottom-up activity against (L6 only).  The pattern is
// copied; shorter patterns are zero-padded, longer truncated.
func (ly *Layer) SetTopDownExpectation(pattern []float32) error {
	if ly.Typ != L6 {
		return fmt.Errorf("%w: %s: SetTopDownExpectation is an L6 operation", ErrPrecondition, ly.Nm)
	}
	exp := make([]float32, ly.N)
	copy(exp, pattern)
	ly.TopDownExp = exp
	return nil
}

// bottomUpL6 integrates bottom-up support from L2/3 and applies the
// ART matching rule: a unit with zero bottom-up support outputs
// exactly zero regardless of expectation.  Where support and
// expectation are co-localized, the on-center enhancement applies,
// with off-surround suppression of the enhanced units' neighbors.
func (ly *Layer) bottomUpL6(input []float32, dt float32) []float32 {
	pr := ly.L6Par
	drive := ly.Wts.MulVec(input)
	acts := ly.step(drive, dt)
	out := make([]float32, ly.N)
	enhanced := make([]bool, ly.N)
	for i, a := range acts {
		if input[i] <= 0 { // matching rule: no support, no output
			continue
		}
		if ly.TopDownExp != nil && ly.TopDownExp[i] > pr.ModulationThreshold {
			a *= 1 + pr.OnCenterWt*pr.AttentionalGain*ly.TopDownExp[i]
			enhanced[i] = true
		}
		out[i] = a
	}
	// off-surround: enhanced units suppress their immediate neighbors
	if pr.OffSurroundStrength > 0 {
		sup := make([]float32, ly.N)
		for i := range out {
			if !enhanced[i] {
				continue
			}
			if i > 0 {
				sup[i-1] += pr.OffSurroundStrength * out[i]
			}
			if i < ly.N-1 {
				sup[i+1] += pr.OffSurroundStrength * out[i]
			}
		}
		for i := range out {
			if enhanced[i] {
				continue
			}
			out[i] -= sup[i]
		}
	}
	for i := range out {
		out[i] = math32.Clamp(out[i], 0, pr.Ceiling)
		if input[i] <= 0 {
			out[i] = 0
		}
	}
	copy(ly.Act, out)
	return out
}

// GenerateFeedbackToL4 derives the modulatory feedback vector for L4
// from the L6 output: attentional gain on-center with off-surround
// subtraction of neighboring activity, rectified (L6 only).
func (ly *Layer) GenerateFeedbackToL4(output []float32) ([]float32, error) {
	if ly.Typ != L6 {
		return nil, fmt.Errorf("%w: %s: GenerateFeedbackToL4 is an L6 operation", ErrPrecondition, ly.Nm)
	}
	if err := ly.checkInput("GenerateFeedbackToL4", output); err != nil {
		return nil, err
	}
	pr := ly.L6Par
	fb := make([]float32, ly.N)
	for i := range fb {
		var surround float32
		var ns int
		if i > 0 {
			surround += output[i-1]
			ns++
		}
		if i < ly.N-1 {
			surround += output[i+1]
			ns++
		}
		if ns > 0 {
			surround /= float32(ns)
		}
		f := pr.AttentionalGain*output[i] - pr.OffSurroundStrength*surround
		fb[i] = math32.Max(f, 0)
	}
	return fb, nil
}
