// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"math"
	"testing"

	"github.com/emer/emergent/v2/erand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDt = 0.001

func newTestLayer(t *testing.T, typ LayerTypes, n int) *Layer {
	var ly *Layer
	var err error
	switch typ {
	case L1:
		var pr Layer1Params
		pr.Defaults()
		ly, err = NewLayer1(n, pr)
	case L23:
		var pr Layer23Params
		pr.Defaults()
		ly, err = NewLayer23(n, pr)
	case L4:
		var pr Layer4Params
		pr.Defaults()
		ly, err = NewLayer4(n, pr)
	case L5:
		var pr Layer5Params
		pr.Defaults()
		ly, err = NewLayer5(n, pr)
	case L6:
		var pr Layer6Params
		pr.Defaults()
		ly, err = NewLayer6(n, pr)
	}
	require.NoError(t, err)
	ly.InitWeights(erand.NewSysRand(1))
	return ly
}

func zeros(n int) []float32 { return make([]float32, n) }

func ones(n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

func TestInputDimPrecondition(t *testing.T) {
	ly := newTestLayer(t, L4, 10)
	_, err := ly.ProcessBottomUp(zeros(5), testDt)
	assert.Error(t, err)
	// state unchanged after precondition error
	for _, a := range ly.Activations() {
		assert.Zero(t, a)
	}
}

func TestOpsMeaningfulness(t *testing.T) {
	l1 := newTestLayer(t, L1, 4)
	_, err := l1.ProcessBottomUp(zeros(4), testDt)
	assert.Error(t, err)

	l5 := newTestLayer(t, L5, 4)
	_, err = l5.ProcessTopDown(zeros(4), testDt)
	assert.Error(t, err)

	l4 := newTestLayer(t, L4, 4)
	_, err = l4.ApplyPriming(zeros(4), testDt)
	assert.Error(t, err)
	err = l4.SetTopDownExpectation(ones(4))
	assert.Error(t, err)
	_, err = l4.GenerateFeedbackToL4(zeros(4))
	assert.Error(t, err)
}

func TestL4DrivesAndDecays(t *testing.T) {
	ly := newTestLayer(t, L4, 10)
	in := ones(10)
	var out []float32
	var err error
	for i := 0; i < 100; i++ {
		out, err = ly.ProcessBottomUp(in, testDt)
		require.NoError(t, err)
	}
	for i, o := range out {
		assert.Greater(t, o, float32(0), "unit %d should be driven", i)
		assert.LessOrEqual(t, o, ly.Shunt.Params.Ceiling)
	}
	// offset: decays back down
	peak := out[0]
	for i := 0; i < 2000; i++ {
		out, _ = ly.ProcessBottomUp(zeros(10), testDt)
	}
	assert.Less(t, out[0], peak/2)
}

func TestL4GammaPassThrough(t *testing.T) {
	ly := newTestLayer(t, L4, 10)
	require.NoError(t, ly.EnableOscTracking(1000, 256))

	in := make([]float32, 10)
	for s := 0; s < 256; s++ {
		v := float32(math.Sin(2 * math.Pi * 40 * float64(s) / 1000))
		for i := range in {
			in[i] = v
		}
		_, err := ly.ProcessBottomUp(in, testDt)
		require.NoError(t, err)
	}
	mt := ly.OscMetrics()
	assert.GreaterOrEqual(t, mt.DominantFreq, float32(35), "dominant %g Hz", mt.DominantFreq)
	assert.LessOrEqual(t, mt.DominantFreq, float32(45), "dominant %g Hz", mt.DominantFreq)
	assert.True(t, mt.IsGamma)

	ly.DisableOscTracking()
	assert.Zero(t, ly.OscMetrics().DominantFreq)
}

func TestL23Integration(t *testing.T) {
	ly := newTestLayer(t, L23, 10)
	bu := ones(10)
	var buOnly []float32
	for i := 0; i < 50; i++ {
		buOnly, _ = ly.ProcessBottomUp(bu, testDt)
	}

	// adding top-down raises the integrated activity
	ly2 := newTestLayer(t, L23, 10)
	var withTD []float32
	for i := 0; i < 50; i++ {
		ly2.ProcessBottomUp(bu, testDt)
		withTD, _ = ly2.ProcessTopDown(ones(10), testDt)
	}
	assert.Greater(t, withTD[0], buOnly[0])

	// priming raises it further
	primed, err := ly2.ApplyPriming(ones(10), testDt)
	require.NoError(t, err)
	assert.Greater(t, primed[0], withTD[0])
}

func TestL1Priming(t *testing.T) {
	ly := newTestLayer(t, L1, 10)
	var out []float32
	for i := 0; i < 200; i++ {
		out, _ = ly.ProcessTopDown(ones(10), testDt)
	}
	g := ly.L1Par.PrimingStrength
	for i, o := range out {
		assert.LessOrEqual(t, o, g*ly.Shunt.Params.Ceiling, "unit %d priming exceeds bound", i)
		assert.Greater(t, o, float32(0))
	}
	// L1 is slow: early output is small relative to its ceiling
	ly.Reset()
	first, _ := ly.ProcessTopDown(ones(10), testDt)
	assert.Less(t, first[0], g*0.1)
}

func TestL5BurstAndCategory(t *testing.T) {
	var pr Layer5Params
	pr.Defaults()
	pr.OutputNormalization = false
	pr.CategoryThreshold = 0.3
	ly, err := NewLayer5(10, pr)
	require.NoError(t, err)
	ly.InitWeights(erand.NewSysRand(1))

	assert.False(t, ly.CategoryFormed())
	var out []float32
	for i := 0; i < 300; i++ {
		out, _ = ly.ProcessBottomUp(ones(10), testDt)
	}
	assert.True(t, ly.CategoryFormed())
	assert.Greater(t, out[0], pr.CategoryThreshold)

	// zero input: no category
	ly.Reset()
	out, _ = ly.ProcessBottomUp(zeros(10), testDt)
	for _, o := range out {
		assert.Zero(t, o)
	}
	assert.False(t, ly.CategoryFormed())
}

func TestSoftNorm(t *testing.T) {
	assert.Zero(t, SoftNorm(0, 4))
	assert.Zero(t, SoftNorm(-1, 4))
	prev := float32(0)
	for _, x := range []float32{0.1, 0.5, 1, 2, 10} {
		y := SoftNorm(x, 4)
		assert.Greater(t, y, prev)
		assert.Less(t, y, float32(1))
		prev = y
	}
}

func TestL6MatchingRule(t *testing.T) {
	ly := newTestLayer(t, L6, 10)
	exp := []float32{1, 1, 1, 0, 0, 0, 0, 0, 0, 0}
	require.NoError(t, ly.SetTopDownExpectation(exp))

	// expectation alone, zero bottom-up: output identically zero,
	// over many repeated calls
	for i := 0; i < 100; i++ {
		out, err := ly.ProcessBottomUp(zeros(10), testDt)
		require.NoError(t, err)
		for u, o := range out {
			if o != 0 {
				t.Fatalf("call %d: L6 unit %d fired (%g) without bottom-up support", i, u, o)
			}
		}
	}
}

func TestL6OnCenterEnhancement(t *testing.T) {
	ly := newTestLayer(t, L6, 10)
	bu := make([]float32, 10)
	for i := range bu {
		bu[i] = 0.5
	}

	// baseline: no expectation
	var plain []float32
	for i := 0; i < 100; i++ {
		plain, _ = ly.ProcessBottomUp(bu, testDt)
	}

	ly2 := newTestLayer(t, L6, 10)
	ly2.SetTopDownExpectation([]float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	var mod []float32
	for i := 0; i < 100; i++ {
		mod, _ = ly2.ProcessBottomUp(bu, testDt)
	}
	// on-center unit enhanced relative to baseline; off-surround
	// neighbor suppressed relative to on-center
	assert.Greater(t, mod[0], plain[0])
	assert.Greater(t, mod[0], mod[1])
}

func TestL6Feedback(t *testing.T) {
	ly := newTestLayer(t, L6, 10)
	out := []float32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	fb, err := ly.GenerateFeedbackToL4(out)
	require.NoError(t, err)
	assert.Greater(t, fb[0], float32(0))
	for _, f := range fb {
		assert.GreaterOrEqual(t, f, float32(0))
	}
	// zero output yields zero feedback
	fb, _ = ly.GenerateFeedbackToL4(zeros(10))
	for _, f := range fb {
		assert.Zero(t, f)
	}
}

func TestLayerResetIdempotent(t *testing.T) {
	ly := newTestLayer(t, L4, 6)
	ly.ProcessBottomUp(ones(6), testDt)
	assert.True(t, ly.Flags.HasFlag(LayDriven))

	wts := ly.Wts.Clone()
	ly.Reset()
	a1 := ly.Activations()
	ly.Reset()
	a2 := ly.Activations()
	assert.Equal(t, a1, a2)
	assert.False(t, ly.Flags.HasFlag(LayDriven))
	// weights preserved across reset
	assert.True(t, ly.Wts.Equal(wts))
}

func TestUnitVals(t *testing.T) {
	ly := newTestLayer(t, L4, 4)
	ly.ProcessBottomUp(ones(4), testDt)
	acts := ly.UnitVals("Act")
	require.Len(t, acts, 4)
	assert.Equal(t, ly.Act[0], acts[0])

	tsr := ly.UnitValsTensor("Act")
	tsr.Values[0] = 42
	assert.NotEqual(t, float32(42), ly.Act[0])

	xm := ly.UnitVals("Xmit")
	assert.Equal(t, ly.Gate.Level(0), xm[0])
}
