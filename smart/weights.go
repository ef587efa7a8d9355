// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"fmt"

	"cogentcore.org/core/math32"
	"github.com/emer/emergent/v2/erand"
	"github.com/emer/etable/v2/etensor"
)

// WtBounds are the hard bounds on weight values, enforced after every
// learning update.
type WtBounds struct {

	// minimum weight value
	Min float32 `def:"0"`

	// maximum weight value
	Max float32 `def:"1"`
}

func (wb *WtBounds) Defaults() {
	wb.Min = 0
	wb.Max = 1
}

func (wb *WtBounds) Validate() error {
	if wb.Max <= wb.Min {
		return fmt.Errorf("%w: WtBounds: Max (%g) must be > Min (%g)", ErrConfig, wb.Max, wb.Min)
	}
	return nil
}

// Clip returns w clipped into the bounds.
func (wb *WtBounds) Clip(w float32) float32 {
	return math32.Clamp(w, wb.Min, wb.Max)
}

// WtInitParams are the initial random weight distribution parameters.
// The distribution applies to off-diagonal entries; the diagonal gets
// an additional fixed gain so that pathways start as noisy pass-through
// mappings.
type WtInitParams struct {
	erand.RndParams

	// extra weight added on the diagonal (identity component)
	DiagGain float32 `min:"0" def:"1"`
}

func (wi *WtInitParams) Defaults() {
	wi.Dist = erand.Uniform
	wi.Mean = 0.05
	wi.Var = 0.05
	wi.DiagGain = 1
}

// WtMatrix is a dense weight matrix with rows = post-synaptic units
// and cols = pre-synaptic units.  Shape is immutable after
// construction; entries always remain within Bounds after any update.
type WtMatrix struct {

	// number of post-synaptic (output) units
	Rows int `inactive:"+"`

	// number of pre-synaptic (input) units
	Cols int `inactive:"+"`

	// hard weight bounds
	Bounds WtBounds

	// weight values, row-major
	Vals []float32
}

// NewWtMatrix returns a zeroed matrix with the given shape and bounds.
func NewWtMatrix(rows, cols int, bounds WtBounds) (*WtMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: WtMatrix: shape %d x %d must be positive", ErrConfig, rows, cols)
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &WtMatrix{Rows: rows, Cols: cols, Bounds: bounds, Vals: make([]float32, rows*cols)}, nil
}

// Init sets the weights from the given init distribution using the
// given random source, clipped into bounds.
func (wt *WtMatrix) Init(ip *WtInitParams, rnd erand.Rand) {
	for r := 0; r < wt.Rows; r++ {
		for c := 0; c < wt.Cols; c++ {
			w := float32(ip.Gen(-1, rnd))
			if r == c {
				w += ip.DiagGain
			}
			wt.Vals[r*wt.Cols+c] = wt.Bounds.Clip(w)
		}
	}
}

// At returns the weight from pre-synaptic unit c to post-synaptic
// unit r.
func (wt *WtMatrix) At(r, c int) float32 {
	return wt.Vals[r*wt.Cols+c]
}

// Set sets the weight from pre-synaptic unit c to post-synaptic unit
// r, clipped into bounds.
func (wt *WtMatrix) Set(r, c int, w float32) {
	wt.Vals[r*wt.Cols+c] = wt.Bounds.Clip(w)
}

// MulVec returns the matrix-vector product W * in, with the input
// treated as pre-synaptic activations.  Input shorter than Cols reads
// as zero-padded.
func (wt *WtMatrix) MulVec(in []float32) []float32 {
	out := make([]float32, wt.Rows)
	n := wt.Cols
	if len(in) < n {
		n = len(in)
	}
	for r := 0; r < wt.Rows; r++ {
		row := wt.Vals[r*wt.Cols:]
		var sum float32
		for c := 0; c < n; c++ {
			sum += row[c] * in[c]
		}
		out[r] = sum
	}
	return out
}

// Clone returns a deep copy of the matrix.
func (wt *WtMatrix) Clone() *WtMatrix {
	cp := *wt
	cp.Vals = make([]float32, len(wt.Vals))
	copy(cp.Vals, wt.Vals)
	return &cp
}

// Equal reports whether two matrices have identical shape and bitwise
// identical values.
func (wt *WtMatrix) Equal(ot *WtMatrix) bool {
	if wt.Rows != ot.Rows || wt.Cols != ot.Cols {
		return false
	}
	for i, v := range wt.Vals {
		if v != ot.Vals[i] {
			return false
		}
	}
	return true
}

// Tensor returns the weights as a freshly-allocated 2D tensor
// (rows = post, cols = pre), independent of internal storage.
func (wt *WtMatrix) Tensor() *etensor.Float32 {
	tsr := etensor.NewFloat32([]int{wt.Rows, wt.Cols}, nil, []string{"Post", "Pre"})
	copy(tsr.Values, wt.Vals)
	return tsr
}
