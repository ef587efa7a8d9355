// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptimized(t *testing.T, size, workers int) *CorticalCircuitOptimized {
	var cp CircuitParams
	cp.Defaults()
	cp.Size = size
	oc, err := NewCorticalCircuitOptimized(cp, nil, workers)
	require.NoError(t, err)
	return oc
}

func TestOptimizedConstruction(t *testing.T) {
	oc := testOptimized(t, 10, 0)
	assert.Greater(t, oc.NWorkers, 0, "default worker count from available parallelism")
	require.NoError(t, oc.Close())

	var cp CircuitParams
	cp.Defaults()
	cp.Size = 0
	_, err := NewCorticalCircuitOptimized(cp, nil, 2)
	assert.Error(t, err)
}

func TestOptimizedMatchesSequential(t *testing.T) {
	cc := testCircuit(t, 10)
	oc := testOptimized(t, 10, 3)
	defer oc.Close()

	in := make([]float32, 10)
	in[2] = 0.8
	in[7] = 0.4
	for i := 0; i < 30; i++ {
		so, err := cc.Process(in)
		require.NoError(t, err)
		po, err := oc.Process(in)
		require.NoError(t, err)
		CmprFloats(so, po, 1e-5, "sequential vs optimized", t)
	}

	// and after identical resets
	cc.Reset()
	oc.Reset()
	so, _ := cc.Process(in)
	po, _ := oc.Process(in)
	CmprFloats(so, po, 1e-5, "after reset", t)
}

func TestOptimizedDetailedMatches(t *testing.T) {
	cc := testCircuit(t, 10)
	oc := testOptimized(t, 10, 2)
	defer oc.Close()

	in := make([]float32, 10)
	in[0] = 0.9
	for i := 0; i < 10; i++ {
		sr, err := cc.ProcessDetailed(in)
		require.NoError(t, err)
		pr, err := oc.ProcessDetailed(in)
		require.NoError(t, err)
		CmprFloats(sr.L23Out, pr.L23Out, 1e-5, "L23 detailed", t)
		CmprFloats(sr.L1Out, pr.L1Out, 1e-5, "L1 detailed", t)
		CmprFloats(sr.L6Out, pr.L6Out, 1e-5, "L6 detailed", t)
		CmprFloats(sr.L4TopDown, pr.L4TopDown, 1e-5, "L4 top-down detailed", t)
	}
}

func TestOptimizedLearning(t *testing.T) {
	oc := testOptimized(t, 10, 2)
	defer oc.Close()
	require.NoError(t, oc.EnableLearning(Instar, nil))
	in := make([]float32, 10)
	in[3] = 0.8
	for i := 0; i < 10; i++ {
		_, err := oc.ProcessAndLearn(in)
		require.NoError(t, err)
	}
	assert.Greater(t, oc.CircuitLearningStatistics().Applied, 0)
}

func TestOptimizedSequenceAndClose(t *testing.T) {
	oc := testOptimized(t, 10, 2)
	pats := [][]float32{ones(10), ones(10)}
	outs, err := oc.ProcessSequence(pats)
	require.NoError(t, err)
	assert.Len(t, outs, 2)

	require.NoError(t, oc.Close())
	require.NoError(t, oc.Close(), "close is idempotent")
	_, err = oc.Process(ones(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrecondition))
}

func TestOptimizedSingleWorker(t *testing.T) {
	// a single worker serializes the arms but results are unchanged
	cc := testCircuit(t, 8)
	oc := testOptimized(t, 8, 1)
	defer oc.Close()
	in := make([]float32, 8)
	in[1] = 0.7
	for i := 0; i < 20; i++ {
		so, _ := cc.Process(in)
		po, err := oc.Process(in)
		require.NoError(t, err)
		CmprFloats(so, po, 1e-5, "single worker", t)
	}
}
