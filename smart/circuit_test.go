// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CmprFloats compares two float sequences to within tolerance.
func CmprFloats(out, cor []float32, tol float64, msg string, t *testing.T) {
	t.Helper()
	if len(out) != len(cor) {
		t.Errorf("%v: length mismatch %d != %d", msg, len(out), len(cor))
		return
	}
	for i := range out {
		dif := math.Abs(float64(out[i] - cor[i]))
		if dif > tol {
			t.Errorf("%v, index: %v, out: %v, cor: %v", msg, i, out[i], cor[i])
		}
	}
}

func testCircuit(t *testing.T, size int) *CorticalCircuit {
	var cp CircuitParams
	cp.Defaults()
	cp.Size = size
	cc, err := NewCorticalCircuit(cp, nil)
	require.NoError(t, err)
	return cc
}

func TestCircuitConstructionErrs(t *testing.T) {
	var cp CircuitParams
	cp.Defaults()
	cp.Size = 0
	_, err := NewCorticalCircuit(cp, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	cp.Size = 10
	cp.L4.TimeConstant = 5
	_, err = NewCorticalCircuit(cp, nil)
	assert.Error(t, err)
}

func TestZeroInputDeterminism(t *testing.T) {
	cc := testCircuit(t, 10)
	res, err := cc.ProcessDetailed(zeros(10))
	require.NoError(t, err)
	CmprFloats(res.L5Out, zeros(10), 0, "zero input L5", t)
	CmprFloats(res.L6Out, zeros(10), 0, "zero input L6", t)
	CmprFloats(res.L4Out, zeros(10), 0, "zero input L4", t)

	// still exactly zero after many ticks
	for i := 0; i < 50; i++ {
		out, err := cc.Process(zeros(10))
		require.NoError(t, err)
		CmprFloats(out, zeros(10), 0, "zero input run", t)
	}
}

func TestAllOnesBounded(t *testing.T) {
	cc := testCircuit(t, 10)
	var out []float32
	var err error
	for i := 0; i < 200; i++ {
		out, err = cc.Process(ones(10))
		require.NoError(t, err)
	}
	ceil := cc.Lay5.Shunt.Params.Ceiling
	for i, o := range out {
		assert.LessOrEqual(t, o, ceil, "unit %d", i)
		assert.GreaterOrEqual(t, o, float32(0))
	}
}

func TestCircuitDeterminismAcrossInstances(t *testing.T) {
	cc1 := testCircuit(t, 10)
	cc2 := testCircuit(t, 10)
	in := make([]float32, 10)
	in[2] = 0.8
	in[3] = 0.5

	for i := 0; i < 20; i++ {
		o1, err := cc1.Process(in)
		require.NoError(t, err)
		o2, err := cc2.Process(in)
		require.NoError(t, err)
		CmprFloats(o1, o2, 0, "identical instances", t)
	}
}

func TestResetRepeatability(t *testing.T) {
	cc := testCircuit(t, 10)
	in := make([]float32, 10)
	in[0] = 0.9

	first, err := cc.Process(in)
	require.NoError(t, err)
	cc.Reset()
	second, err := cc.Process(in)
	require.NoError(t, err)
	CmprFloats(first, second, 0, "reset + identical input", t)

	// reset idempotent
	cc.Reset()
	cc.Reset()
	third, _ := cc.Process(in)
	CmprFloats(first, third, 0, "double reset", t)
}

func TestInputPadTruncate(t *testing.T) {
	cc := testCircuit(t, 10)
	out, err := cc.Process([]float32{0.5})
	require.NoError(t, err)
	assert.Len(t, out, 10)

	cc2 := testCircuit(t, 10)
	long := make([]float32, 20)
	long[0] = 0.5
	long[15] = 0.9 // truncated away
	out2, err := cc2.Process(long)
	require.NoError(t, err)
	assert.Len(t, out2, 10)
	CmprFloats(out, out2, 0, "pad vs truncate equivalence", t)
}

func TestProcessDetailedRecord(t *testing.T) {
	cc := testCircuit(t, 10)
	in := make([]float32, 10)
	in[4] = 0.8
	var res *DetailedResult
	var err error
	for i := 0; i < 30; i++ {
		res, err = cc.ProcessDetailed(in)
		require.NoError(t, err)
	}
	assert.Len(t, res.TemporalPattern, 10)
	assert.Len(t, res.L23WithL1, 10)
	assert.NotNil(t, res.Temporal)
	assert.Nil(t, res.Resonance, "resonance disabled by default")

	// input drives the pathway through to L4
	assert.Greater(t, res.L4Out[4], float32(0))
	assert.Equal(t, 30, cc.Stats.Ticks)
}

func TestL6ModulatoryInvariantInCircuit(t *testing.T) {
	cc := testCircuit(t, 10)
	require.NoError(t, cc.Lay6.SetTopDownExpectation([]float32{1, 1, 1, 0, 0, 0, 0, 0, 0, 0}))
	for i := 0; i < 20; i++ {
		res, err := cc.ProcessDetailed(zeros(10))
		require.NoError(t, err)
		CmprFloats(res.L6Out, zeros(10), 0, "L6 expectation without support", t)
		CmprFloats(res.L5Out, zeros(10), 0, "L5 from pure expectation", t)
	}
}

func TestLearningDisabledLeavesWeights(t *testing.T) {
	cc := testCircuit(t, 10)
	before := make([]*WtMatrix, 0, 5)
	for _, ly := range cc.Layers() {
		before = append(before, ly.Wts.Clone())
	}
	in := make([]float32, 10)
	in[1] = 0.7
	for i := 0; i < 20; i++ {
		_, err := cc.Process(in)
		require.NoError(t, err)
	}
	for i, ly := range cc.Layers() {
		assert.True(t, ly.Wts.Equal(before[i]), "layer %s weights changed without learning", ly.Nm)
	}
}

func TestLearningAppliesWhenOpen(t *testing.T) {
	cc := testCircuit(t, 10)
	require.NoError(t, cc.EnableLearning(Hebbian, map[LayerTypes]float32{L4: 0.01}))
	before := cc.Lay4.Wts.Clone()
	in := make([]float32, 10)
	in[0] = 0.9
	for i := 0; i < 30; i++ {
		_, err := cc.ProcessAndLearn(in)
		require.NoError(t, err)
	}
	assert.False(t, cc.Lay4.Wts.Equal(before), "weights should change with open gates")
	agg := cc.CircuitLearningStatistics()
	assert.Equal(t, 150, agg.Attempted) // 5 layers x 30 ticks
	assert.Greater(t, agg.Applied, 0)
}

func TestLearningGatingScenario(t *testing.T) {
	// enable Hebbian at rate 0.001, resonance threshold 0.9,
	// attention 0: 20 ticks leave weights unchanged and count as
	// attention-gated
	cc := testCircuit(t, 10)
	require.NoError(t, cc.EnableLearning(Hebbian, map[LayerTypes]float32{
		L1: 0.001, L23: 0.001, L4: 0.001, L5: 0.001, L6: 0.001,
	}))
	require.NoError(t, cc.SetResonanceLearningThreshold(0.9))
	require.NoError(t, cc.SetAttention(0))

	before := make([]*WtMatrix, 0, 5)
	for _, ly := range cc.Layers() {
		before = append(before, ly.Wts.Clone())
	}
	in := make([]float32, 10)
	in[0] = 0.9
	for i := 0; i < 20; i++ {
		_, err := cc.ProcessAndLearn(in)
		require.NoError(t, err)
	}
	for i, ly := range cc.Layers() {
		assert.True(t, ly.Wts.Equal(before[i]), "layer %s weights must be unchanged", ly.Nm)
	}
	for _, lt := range []LayerTypes{L1, L23, L4, L5, L6} {
		st := cc.LearningStatistics()[lt]
		assert.Equal(t, 20, st.AttentionGated, "layer type %d", lt)
		assert.Equal(t, 0, st.Applied, "layer type %d", lt)
	}
}

func TestResonanceDetectionInCircuit(t *testing.T) {
	cc := testCircuit(t, 10)
	require.NoError(t, cc.EnableResonanceDetection(0.7, 1000, 64))
	in := make([]float32, 10)
	in[0] = 0.8
	var res *DetailedResult
	var err error
	for i := 0; i < 30; i++ {
		res, err = cc.ProcessDetailed(in)
		require.NoError(t, err)
	}
	require.NotNil(t, res.Resonance)
	assert.GreaterOrEqual(t, res.Resonance.Consciousness, float32(0))
	assert.LessOrEqual(t, res.Resonance.Consciousness, float32(1))
}

func TestProcessSequence(t *testing.T) {
	cc := testCircuit(t, 10)
	pats := make([][]float32, 5)
	for i := range pats {
		pats[i] = make([]float32, 10)
		pats[i][i] = 0.8
	}
	outs, err := cc.ProcessSequence(pats)
	require.NoError(t, err)
	assert.Len(t, outs, 5)
	for _, o := range outs {
		assert.Len(t, o, 10)
	}
}

func TestCloseRejectsProcess(t *testing.T) {
	cc := testCircuit(t, 10)
	require.NoError(t, cc.Close())
	require.NoError(t, cc.Close(), "close is idempotent")
	assert.True(t, cc.Closed())
	_, err := cc.Process(zeros(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestSetAttentionValidation(t *testing.T) {
	cc := testCircuit(t, 10)
	assert.Error(t, cc.SetAttention(-0.5))
	assert.Error(t, cc.SetAttention(1.5))
	assert.NoError(t, cc.SetAttention(0.5))
	assert.Equal(t, float32(0.5), cc.Attention)
}

func TestIntrospection(t *testing.T) {
	cc := testCircuit(t, 10)
	assert.Equal(t, cc.Lay4, cc.LayerByType(L4))
	assert.Nil(t, cc.LayerByType(LayerTypesN))
	assert.NotNil(t, cc.TemporalProcessor())
	assert.Len(t, cc.Layers(), 5)

	wts := cc.Lay4.WeightsTensor()
	wts.Values[0] = 99
	assert.NotEqual(t, float32(99), cc.Lay4.Wts.At(0, 0))
}
