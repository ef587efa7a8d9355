// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shunt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsValidate(t *testing.T) {
	var pr Params
	pr.Defaults()
	require.NoError(t, pr.Validate())

	bad := pr
	bad.Ceiling = -1
	assert.Error(t, bad.Validate())

	bad = pr
	bad.Floor = 0.5
	assert.Error(t, bad.Validate())

	bad = pr
	bad.Damp = 0
	assert.Error(t, bad.Validate())

	var kr KernelParams
	kr.Defaults()
	require.NoError(t, kr.Validate())
	kr.InhRange = -1
	assert.Error(t, kr.Validate())
}

func TestNewErrs(t *testing.T) {
	var pr Params
	pr.Defaults()
	var kr KernelParams
	kr.Defaults()
	_, err := New(0, pr, kr)
	assert.Error(t, err)
	pr.Ceiling = pr.Floor
	_, err = New(10, pr, kr)
	assert.Error(t, err)
}

func TestBounds(t *testing.T) {
	var pr Params
	pr.Defaults()
	var kr KernelParams
	kr.Defaults()
	sd, err := New(10, pr, kr)
	require.NoError(t, err)

	// hammer with strong drive: must stay within [Floor, Ceiling]
	exc := make([]float32, 10)
	inh := make([]float32, 10)
	for i := range exc {
		exc[i] = 5
	}
	require.NoError(t, sd.SetExc(exc))
	require.NoError(t, sd.SetInh(inh))
	for cyc := 0; cyc < 200; cyc++ {
		acts := sd.Update(0.1)
		for i, a := range acts {
			if a < pr.Floor || a > pr.Ceiling {
				t.Errorf("cycle %d unit %d: act %g outside [%g, %g]", cyc, i, a, pr.Floor, pr.Ceiling)
			}
		}
	}
}

func TestZeroInputStaysZero(t *testing.T) {
	var pr Params
	pr.Defaults()
	pr.SelfExc = 1
	var kr KernelParams
	kr.Defaults()
	sd, err := New(8, pr, kr)
	require.NoError(t, err)
	for cyc := 0; cyc < 50; cyc++ {
		acts := sd.Update(0.1)
		for i, a := range acts {
			assert.Zero(t, a, "unit %d nonzero with zero drive", i)
		}
	}
}

func TestDecayToZero(t *testing.T) {
	var pr Params
	pr.Defaults()
	var kr KernelParams // no lateral interactions
	sd, err := New(4, pr, kr)
	require.NoError(t, err)

	exc := []float32{1, 0, 0, 0}
	require.NoError(t, sd.SetExc(exc))
	for cyc := 0; cyc < 50; cyc++ {
		sd.Update(0.1)
	}
	require.Greater(t, sd.Act(0), float32(0.2))

	// input offset: decays back toward zero
	sd.ClearDrive()
	for cyc := 0; cyc < 500; cyc++ {
		sd.Update(0.1)
	}
	assert.Less(t, sd.Act(0), float32(0.01))
}

func TestLateralCompetition(t *testing.T) {
	var pr Params
	pr.Defaults()
	kr := MexicanHat(1, 3, 0.8)
	sd, err := New(9, pr, kr)
	require.NoError(t, err)

	// stronger center input should suppress the weaker flank
	exc := make([]float32, 9)
	exc[4] = 1.0
	exc[6] = 0.4
	require.NoError(t, sd.SetExc(exc))
	for cyc := 0; cyc < 100; cyc++ {
		sd.Update(0.1)
	}
	assert.Greater(t, sd.Act(4), sd.Act(6))
	assert.Greater(t, sd.Act(4), float32(0.1))
}

func TestResetIdempotent(t *testing.T) {
	var pr Params
	pr.Defaults()
	var kr KernelParams
	kr.Defaults()
	sd, _ := New(5, pr, kr)
	sd.SetExc([]float32{1, 1, 1, 1, 1})
	sd.Update(0.1)
	sd.Reset()
	st1 := sd.Activations()
	sd.Reset()
	st2 := sd.Activations()
	assert.Equal(t, st1, st2)
	for _, a := range st2 {
		assert.Zero(t, a)
	}
}

func TestDefensiveCopy(t *testing.T) {
	var pr Params
	pr.Defaults()
	var kr KernelParams
	sd, _ := New(3, pr, kr)
	sd.SetExc([]float32{1, 1, 1})
	acts := sd.Update(0.1)
	acts[0] = 42
	assert.NotEqual(t, float32(42), sd.Act(0))

	ext := []float32{0.5, 0.5, 0.5}
	sd.SetExc(ext)
	ext[0] = 99
	assert.Equal(t, float32(0.5), sd.Exc[0])
}
