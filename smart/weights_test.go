// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"testing"

	"github.com/emer/emergent/v2/erand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWtMatrixShapeErrs(t *testing.T) {
	var wb WtBounds
	wb.Defaults()
	_, err := NewWtMatrix(0, 5, wb)
	assert.Error(t, err)
	wb.Max = wb.Min
	_, err = NewWtMatrix(5, 5, wb)
	assert.Error(t, err)
}

func TestWtBoundsClip(t *testing.T) {
	var wb WtBounds
	wb.Defaults()
	wt, err := NewWtMatrix(3, 3, wb)
	require.NoError(t, err)
	wt.Set(0, 0, 5)
	assert.Equal(t, wb.Max, wt.At(0, 0))
	wt.Set(0, 0, -5)
	assert.Equal(t, wb.Min, wt.At(0, 0))
}

func TestWtInitSeeded(t *testing.T) {
	var wb WtBounds
	wb.Defaults()
	var ip WtInitParams
	ip.Defaults()

	w1, _ := NewWtMatrix(8, 8, wb)
	w2, _ := NewWtMatrix(8, 8, wb)
	w1.Init(&ip, erand.NewSysRand(42))
	w2.Init(&ip, erand.NewSysRand(42))
	assert.True(t, w1.Equal(w2), "same seed must give identical weights")

	w3, _ := NewWtMatrix(8, 8, wb)
	w3.Init(&ip, erand.NewSysRand(43))
	assert.False(t, w1.Equal(w3), "different seeds must differ")

	// diagonal dominance from DiagGain
	for i := 0; i < 8; i++ {
		assert.Greater(t, w1.At(i, i), w1.At(i, (i+1)%8))
	}
}

func TestMulVec(t *testing.T) {
	var wb WtBounds
	wb.Defaults()
	wt, _ := NewWtMatrix(2, 3, wb)
	wt.Set(0, 0, 1)
	wt.Set(0, 1, 0.5)
	wt.Set(1, 2, 1)
	out := wt.MulVec([]float32{1, 1, 1})
	assert.Equal(t, []float32{1.5, 1}, out)

	// short input reads as zero-padded
	out = wt.MulVec([]float32{1})
	assert.Equal(t, []float32{1, 0}, out)
}

func TestCloneAndTensorIndependent(t *testing.T) {
	var wb WtBounds
	wb.Defaults()
	wt, _ := NewWtMatrix(2, 2, wb)
	wt.Set(0, 0, 0.5)

	cp := wt.Clone()
	cp.Set(0, 0, 0.9)
	assert.Equal(t, float32(0.5), wt.At(0, 0))

	tsr := wt.Tensor()
	tsr.Values[0] = 0.9
	assert.Equal(t, float32(0.5), wt.At(0, 0))
}
