// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// resEps stabilizes the match normalization for zero-norm signals.
const resEps = 1.0e-6

// ResonanceState is the per-tick consciousness summary: the scalar
// likelihood in [0, 1] and the ART resonance flag asserted when the
// expectation match meets the vigilance threshold.
type ResonanceState struct {

	// consciousness likelihood in [0, 1]
	Consciousness float32

	// true when the L6/L4 match component >= vigilance
	ARTResonance bool

	// simulation time of the measurement
	Time float32
}

// Combination weights of the consciousness likelihood.  Match carries
// the largest share so the likelihood is visibly monotone in the
// expectation match.
const (
	resWtCoherence = 0.25
	resWtMatch     = 0.5
	resWtAmplitude = 0.25
)

// ResonanceDetector derives the consciousness likelihood from phase
// coherence across tracked layers, the match between top-down
// expectation and bottom-up drive, and output amplitude.
type ResonanceDetector struct {

	// vigilance threshold on the match component for the ART flag
	Vigilance float32 `min:"0" max:"1" def:"0.7"`

	// sampling rate handed to the per-layer oscillation analyzers
	SampleRate float32 `min:"0" def:"1000"`

	// history size handed to the per-layer oscillation analyzers
	HistSize int `min:"8" def:"128"`

	// layers whose phases enter the coherence component
	Tracked []*Layer

	// most recent resonance state
	Last ResonanceState
}

// NewResonanceDetector returns a detector and enables oscillation
// tracking on the given layers.
func NewResonanceDetector(vigilance, sampleRate float32, histSize int, tracked ...*Layer) (*ResonanceDetector, error) {
	if vigilance < 0 || vigilance > 1 {
		return nil, fmt.Errorf("%w: ResonanceDetector: vigilance (%g) must be in [0, 1]", ErrConfig, vigilance)
	}
	rd := &ResonanceDetector{
		Vigilance:  vigilance,
		SampleRate: sampleRate,
		HistSize:   histSize,
		Tracked:    tracked,
	}
	for _, ly := range tracked {
		if ly.Osc == nil {
			if err := ly.EnableOscTracking(sampleRate, histSize); err != nil {
				return nil, err
			}
		}
	}
	return rd, nil
}

// Match returns the ART match component between bottom-up drive and
// top-down expectation: fuzzy overlap |min(bu, exp)|_1 / (|exp|_1 + eps).
// Zero when no expectation is present.
func Match(bottomUp, expectation []float32) float32 {
	var inter, norm float32
	for i, e := range expectation {
		e = math32.Abs(e)
		norm += e
		if i < len(bottomUp) {
			inter += math32.Min(math32.Abs(bottomUp[i]), e)
		}
	}
	if norm <= resEps {
		return 0
	}
	return inter / (norm + resEps)
}

// Coherence returns the mean pairwise phase alignment across tracked
// layers, mapped to [0, 1].  Zero with fewer than two usable phases.
func (rd *ResonanceDetector) Coherence() float32 {
	var phases []float32
	for _, ly := range rd.Tracked {
		mt := ly.OscMetrics()
		if mt.Amplitude > 0 {
			phases = append(phases, mt.Phase)
		}
	}
	if len(phases) < 2 {
		return 0
	}
	var sum float32
	var n int
	for i := 0; i < len(phases); i++ {
		for j := i + 1; j < len(phases); j++ {
			sum += (1 + math32.Cos(phases[i]-phases[j])) / 2
			n++
		}
	}
	return sum / float32(n)
}

// Update computes the resonance state for the tick from the L4 drive,
// the L6 expectation, and the L5 output amplitude.  The likelihood is
// monotone non-decreasing in the match component.
func (rd *ResonanceDetector) Update(l4Drive, l6Exp, l5Out []float32, t float32) *ResonanceState {
	match := Match(l4Drive, l6Exp)
	coh := rd.Coherence()
	var amp float32
	if len(l5Out) > 0 {
		var sum float32
		for _, v := range l5Out {
			sum += v
		}
		amp = math32.Clamp(sum/float32(len(l5Out)), 0, 1)
	}
	likelihood := resWtCoherence*coh + resWtMatch*match + resWtAmplitude*amp
	rd.Last = ResonanceState{
		Consciousness: math32.Clamp(likelihood, 0, 1),
		ARTResonance:  match >= rd.Vigilance,
		Time:          t,
	}
	st := rd.Last
	return &st
}
