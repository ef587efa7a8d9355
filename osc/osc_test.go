// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrs(t *testing.T) {
	_, err := NewAnalyzer(0, 64)
	assert.Error(t, err)
	_, err = NewAnalyzer(1000, 4)
	assert.Error(t, err)
}

func TestEmptyMetrics(t *testing.T) {
	an, err := NewAnalyzer(1000, 64)
	require.NoError(t, err)
	mt := an.CurMetrics()
	assert.Zero(t, mt.DominantFreq)
	assert.False(t, mt.IsGamma)
}

func addSine(an *Analyzer, freq float64, n int) {
	sr := float64(an.SampleRate)
	for i := 0; i < n; i++ {
		tm := float64(i) / sr
		an.Add(float32(math.Sin(2*math.Pi*freq*tm)), float32(tm))
	}
}

func TestGammaDetection(t *testing.T) {
	an, _ := NewAnalyzer(1000, 256)
	addSine(an, 40, 256)
	mt := an.CurMetrics()
	assert.InDelta(t, 40, float64(mt.DominantFreq), 5)
	assert.True(t, mt.IsGamma)
	assert.Greater(t, mt.Amplitude, float32(0.5))
	assert.GreaterOrEqual(t, mt.Phase, float32(-math.Pi))
	assert.LessOrEqual(t, mt.Phase, float32(math.Pi))
}

func TestNonGamma(t *testing.T) {
	an, _ := NewAnalyzer(1000, 256)
	addSine(an, 10, 256)
	mt := an.CurMetrics()
	assert.InDelta(t, 10, float64(mt.DominantFreq), 4)
	assert.False(t, mt.IsGamma)
}

func TestRollingWindow(t *testing.T) {
	an, _ := NewAnalyzer(1000, 128)
	// fill with 10 Hz, then roll the whole window over to 40 Hz
	addSine(an, 10, 128)
	addSine(an, 40, 128)
	mt := an.CurMetrics()
	assert.InDelta(t, 40, float64(mt.DominantFreq), 5)
	assert.Equal(t, 128, an.Cnt)
}

func TestSamplesOrder(t *testing.T) {
	an, _ := NewAnalyzer(100, 8)
	for i := 0; i < 12; i++ {
		an.Add(float32(i), float32(i))
	}
	ss := an.Samples()
	require.Len(t, ss, 8)
	assert.Equal(t, float32(4), ss[0])
	assert.Equal(t, float32(11), ss[7])
}

func TestResetIdempotent(t *testing.T) {
	an, _ := NewAnalyzer(100, 16)
	addSine(an, 10, 20)
	an.Reset()
	assert.Zero(t, an.Cnt)
	mt := an.CurMetrics()
	assert.Zero(t, mt.DominantFreq)
	an.Reset()
	assert.Zero(t, an.Cnt)
}
