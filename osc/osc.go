// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package osc implements rolling-buffer oscillation analysis for layer
activity: a fixed-length ring of scalar activity summaries (typically
mean activation per update) with discrete spectral estimation over the
buffered window.  Metrics expose the dominant frequency, its phase and
amplitude, and whether it falls in the gamma band (30-80 Hz) that
signals resonant processing.
*/
package osc

//go:generate core generate -add-types

import (
	"fmt"

	"cogentcore.org/core/math32"
	"github.com/emer/emergent/v2/ringidx"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Gamma band bounds in Hz.
const (
	GammaLo = 30
	GammaHi = 80
)

// MinSamples is the minimum buffered window for spectral estimation;
// metrics are zero below this.
const MinSamples = 8

// Metrics are the spectral measures over the buffered window.
type Metrics struct {

	// dominant frequency in Hz (0 if the window is too short or flat)
	DominantFreq float32

	// phase of the dominant component, in [-pi, pi]
	Phase float32

	// amplitude of the dominant component
	Amplitude float32

	// simulation time of the most recent sample
	Timestamp float32

	// true if the dominant frequency falls in the 30-80 Hz gamma band
	IsGamma bool
}

// Analyzer maintains the rolling sample buffer and computes metrics on
// demand.  All mutable state is owned by the instance.
type Analyzer struct {

	// sampling rate in Hz of the added samples
	SampleRate float32 `min:"0"`

	// ring index over the sample buffer
	Ring ringidx.FIx

	// physical sample buffer, length = history size
	Buf []float32

	// number of valid samples, up to len(Buf)
	Cnt int `inactive:"+"`

	// simulation time of the most recent sample
	LastTime float32

	fft    *fourier.FFT
	fftBuf []float64
	coefs  []complex128
}

// NewAnalyzer returns an Analyzer with the given sampling rate and
// history size.
func NewAnalyzer(sampleRate float32, histSize int) (*Analyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("osc.NewAnalyzer: sampleRate (%g) must be > 0", sampleRate)
	}
	if histSize < MinSamples {
		return nil, fmt.Errorf("osc.NewAnalyzer: histSize (%d) must be >= %d", histSize, MinSamples)
	}
	an := &Analyzer{SampleRate: sampleRate}
	an.Ring.Len = histSize
	an.Buf = make([]float32, histSize)
	an.fftBuf = make([]float64, histSize)
	return an, nil
}

// Add appends one sample at the given simulation time, displacing the
// oldest once the buffer is full.
func (an *Analyzer) Add(sample, t float32) {
	if an.Cnt < an.Ring.Len {
		an.Buf[an.Ring.Idx(an.Cnt)] = sample
		an.Cnt++
	} else {
		an.Buf[an.Ring.Zi] = sample
		an.Ring.Shift(1)
	}
	an.LastTime = t
}

// Samples returns the buffered samples oldest-first.
func (an *Analyzer) Samples() []float32 {
	out := make([]float32, an.Cnt)
	for i := 0; i < an.Cnt; i++ {
		out[i] = an.Buf[an.Ring.Idx(i)]
	}
	return out
}

// CurMetrics computes spectral metrics over the buffered window.
// The DC component is excluded; the mean is removed before the
// transform.
func (an *Analyzer) CurMetrics() Metrics {
	mt := Metrics{Timestamp: an.LastTime}
	n := an.Cnt
	if n < MinSamples {
		return mt
	}
	var mean float64
	for i := 0; i < n; i++ {
		an.fftBuf[i] = float64(an.Buf[an.Ring.Idx(i)])
		mean += an.fftBuf[i]
	}
	mean /= float64(n)
	for i := 0; i < n; i++ {
		an.fftBuf[i] -= mean
	}
	if an.fft == nil || an.fft.Len() != n {
		an.fft = fourier.NewFFT(n)
		an.coefs = nil
	}
	an.coefs = an.fft.Coefficients(an.coefs, an.fftBuf[:n])

	best := 0
	bestMag := 0.0
	for i := 1; i < len(an.coefs); i++ {
		c := an.coefs[i]
		mag := real(c)*real(c) + imag(c)*imag(c)
		if mag > bestMag {
			bestMag = mag
			best = i
		}
	}
	if best == 0 || bestMag == 0 {
		return mt
	}
	c := an.coefs[best]
	mt.DominantFreq = float32(best) * an.SampleRate / float32(n)
	mt.Phase = math32.Atan2(float32(imag(c)), float32(real(c)))
	mt.Amplitude = 2 * math32.Sqrt(float32(bestMag)) / float32(n)
	mt.IsGamma = mt.DominantFreq >= GammaLo && mt.DominantFreq <= GammaHi
	return mt
}

// Reset clears the buffer.  Idempotent.
func (an *Analyzer) Reset() {
	an.Ring.Zi = 0
	an.Cnt = 0
	an.LastTime = 0
	for i := range an.Buf {
		an.Buf[i] = 0
	}
}
