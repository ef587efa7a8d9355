// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"fmt"

	"github.com/emer/emergent/v2/erand"
)

///////////////////////////////////////////////////////////////////////
//  params.go contains the per-layer parameter blocks and validation.
//  All range violations surface as configuration errors at parameter
//  construction (Validate), never at processing time.

// Layer1Params configures the L1 priming / context layer.
type Layer1Params struct {

	// integration time constant in ms, within [300, 700] -- L1 is the
	// slowest layer, carrying context over long spans
	TimeConstant float32 `min:"300" max:"700" def:"500"`

	// strength of the modulatory priming passed to L2/3, in [0, 1]
	PrimingStrength float32 `min:"0" max:"1" def:"0.3"`
}

func (lp *Layer1Params) Defaults() {
	lp.TimeConstant = 500
	lp.PrimingStrength = 0.3
	lp.Update()
}

func (lp *Layer1Params) Update() {
}

func (lp *Layer1Params) Validate() error {
	if lp.TimeConstant < 300 || lp.TimeConstant > 700 {
		return fmt.Errorf("%w: Layer1Params.TimeConstant (%g) must be in [300, 700]", ErrConfig, lp.TimeConstant)
	}
	if lp.PrimingStrength < 0 || lp.PrimingStrength > 1 {
		return fmt.Errorf("%w: Layer1Params.PrimingStrength (%g) must be in [0, 1]", ErrConfig, lp.PrimingStrength)
	}
	return nil
}

// Layer23Params configures the L2/3 integration layer.
type Layer23Params struct {

	// integration time constant in ms, within [50, 100]
	TimeConstant float32 `min:"50" max:"100" def:"75"`

	// weight on the top-down contribution from L6
	TopDownWt float32 `min:"0" def:"0.5"`

	// weight on the bottom-up contribution from L4
	BottomUpWt float32 `min:"0" def:"1"`
}

func (lp *Layer23Params) Defaults() {
	lp.TimeConstant = 75
	lp.TopDownWt = 0.5
	lp.BottomUpWt = 1
	lp.Update()
}

func (lp *Layer23Params) Update() {
}

func (lp *Layer23Params) Validate() error {
	if lp.TimeConstant < 50 || lp.TimeConstant > 100 {
		return fmt.Errorf("%w: Layer23Params.TimeConstant (%g) must be in [50, 100]", ErrConfig, lp.TimeConstant)
	}
	if lp.TopDownWt < 0 {
		return fmt.Errorf("%w: Layer23Params.TopDownWt (%g) must be >= 0", ErrConfig, lp.TopDownWt)
	}
	if lp.BottomUpWt < 0 {
		return fmt.Errorf("%w: Layer23Params.BottomUpWt (%g) must be >= 0", ErrConfig, lp.BottomUpWt)
	}
	return nil
}

// Layer4Params configures the L4 driving input layer.
type Layer4Params struct {

	// integration time constant in ms, within [10, 50] -- L4 is the
	// fastest layer, tracking input rhythmicity
	TimeConstant float32 `min:"10" max:"50" def:"25"`

	// gain applied to driving input
	DrivingStrength float32 `min:"0" def:"1.5"`
}

func (lp *Layer4Params) Defaults() {
	lp.TimeConstant = 25
	lp.DrivingStrength = 1.5
	lp.Update()
}

func (lp *Layer4Params) Update() {
}

func (lp *Layer4Params) Validate() error {
	if lp.TimeConstant < 10 || lp.TimeConstant > 50 {
		return fmt.Errorf("%w: Layer4Params.TimeConstant (%g) must be in [10, 50]", ErrConfig, lp.TimeConstant)
	}
	if lp.DrivingStrength < 0 {
		return fmt.Errorf("%w: Layer4Params.DrivingStrength (%g) must be >= 0", ErrConfig, lp.DrivingStrength)
	}
	return nil
}

// Layer5Params configures the L5 output / category layer.
type Layer5Params struct {

	// integration time constant in ms, within [50, 200]
	TimeConstant float32 `min:"50" max:"200" def:"100"`

	// amplification gain on the integrated input
	AmplificationGain float32 `min:"0" def:"1.5"`

	// input level above which a unit bursts
	BurstThreshold float32 `min:"0" def:"0.7"`

	// multiplier applied to bursting units
	BurstAmplification float32 `min:"1" def:"2"`

	// gain on the layer output
	OutputGain float32 `min:"0" def:"1"`

	// output level above which a category is declared formed
	CategoryThreshold float32 `min:"0" def:"0.8"`

	// if true, output passes through the X/(X+1) soft normalizer
	OutputNormalization bool `def:"true"`

	// gain inside the soft normalizer: out = g*x / (g*x + 1)
	NormGain float32 `min:"0" def:"4"`
}

func (lp *Layer5Params) Defaults() {
	lp.TimeConstant = 100
	lp.AmplificationGain = 1.5
	lp.BurstThreshold = 0.7
	lp.BurstAmplification = 2
	lp.OutputGain = 1
	lp.CategoryThreshold = 0.8
	lp.OutputNormalization = true
	lp.NormGain = 4
	lp.Update()
}

func (lp *Layer5Params) Update() {
}

func (lp *Layer5Params) Validate() error {
	if lp.TimeConstant < 50 || lp.TimeConstant > 200 {
		return fmt.Errorf("%w: Layer5Params.TimeConstant (%g) must be in [50, 200]", ErrConfig, lp.TimeConstant)
	}
	if lp.AmplificationGain < 0 {
		return fmt.Errorf("%w: Layer5Params.AmplificationGain (%g) must be >= 0", ErrConfig, lp.AmplificationGain)
	}
	if lp.BurstAmplification < 1 {
		return fmt.Errorf("%w: Layer5Params.BurstAmplification (%g) must be >= 1", ErrConfig, lp.BurstAmplification)
	}
	if lp.OutputGain < 0 {
		return fmt.Errorf("%w: Layer5Params.OutputGain (%g) must be >= 0", ErrConfig, lp.OutputGain)
	}
	if lp.NormGain <= 0 {
		return fmt.Errorf("%w: Layer5Params.NormGain (%g) must be > 0", ErrConfig, lp.NormGain)
	}
	return nil
}

// Layer6Params configures the L6 modulatory feedback layer.
type Layer6Params struct {

	// integration time constant in ms, within [100, 500]
	TimeConstant float32 `min:"100" max:"500" def:"250"`

	// on-center enhancement weight for units where bottom-up support
	// and top-down expectation are co-localized
	OnCenterWt float32 `min:"0" def:"1"`

	// off-surround suppression applied to neighbors of enhanced units
	OffSurroundStrength float32 `min:"0" def:"0.5"`

	// attentional gain multiplying the expectation contribution
	AttentionalGain float32 `min:"0" def:"1.5"`

	// expectation level below which no on-center enhancement applies
	ModulationThreshold float32 `min:"0" def:"0.1"`

	// output ceiling
	Ceiling float32 `min:"0" def:"1"`
}

func (lp *Layer6Params) Defaults() {
	lp.TimeConstant = 250
	lp.OnCenterWt = 1
	lp.OffSurroundStrength = 0.5
	lp.AttentionalGain = 1.5
	lp.ModulationThreshold = 0.1
	lp.Ceiling = 1
	lp.Update()
}

func (lp *Layer6Params) Update() {
}

func (lp *Layer6Params) Validate() error {
	if lp.TimeConstant < 100 || lp.TimeConstant > 500 {
		return fmt.Errorf("%w: Layer6Params.TimeConstant (%g) must be in [100, 500]", ErrConfig, lp.TimeConstant)
	}
	if lp.OnCenterWt < 0 {
		return fmt.Errorf("%w: Layer6Params.OnCenterWt (%g) must be >= 0", ErrConfig, lp.OnCenterWt)
	}
	if lp.OffSurroundStrength < 0 {
		return fmt.Errorf("%w: Layer6Params.OffSurroundStrength (%g) must be >= 0", ErrConfig, lp.OffSurroundStrength)
	}
	if lp.Ceiling <= 0 {
		return fmt.Errorf("%w: Layer6Params.Ceiling (%g) must be > 0", ErrConfig, lp.Ceiling)
	}
	return nil
}

// ActNoiseParams configures optional seedable activation noise added
// to a layer's drive, off by default.
type ActNoiseParams struct {
	erand.RndParams

	// whether to add noise to the drive
	On bool `def:"false"`
}

func (an *ActNoiseParams) Defaults() {
	an.On = false
	an.Dist = erand.Gaussian
	an.Mean = 0
	an.Var = 0.01
}
