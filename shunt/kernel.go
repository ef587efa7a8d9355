// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shunt

import (
	"fmt"

	"cogentcore.org/core/math32"
)

// KernelParams parameterizes the lateral interaction kernel over a 1D
// arrangement of units: Gaussian-weighted excitation within ExcRange
// and flat inhibition within InhRange.  An InhRange broader than
// ExcRange yields the classic Mexican-hat (on-center, off-surround)
// profile that supports winner-take-all competition.
type KernelParams struct {

	// radius (in unit indices) of lateral excitation; 0 disables
	ExcRange int `min:"0"`

	// strength scale of lateral excitation: the weight at distance d
	// is ExcStrength * exp(-d^2 / (2*ExcRange^2))
	ExcStrength float32 `min:"0"`

	// radius (in unit indices) of lateral inhibition; 0 disables
	InhRange int `min:"0"`

	// strength of lateral inhibition within InhRange
	InhStrength float32 `min:"0"`
}

func (kp *KernelParams) Defaults() {
	kp.ExcRange = 1
	kp.ExcStrength = 0.2
	kp.InhRange = 3
	kp.InhStrength = 0.5
	kp.Update()
}

func (kp *KernelParams) Update() {
}

// Validate returns a configuration error if parameters are out of range.
func (kp *KernelParams) Validate() error {
	if kp.ExcRange < 0 {
		return fmt.Errorf("shunt.KernelParams: ExcRange (%d) must be >= 0", kp.ExcRange)
	}
	if kp.InhRange < 0 {
		return fmt.Errorf("shunt.KernelParams: InhRange (%d) must be >= 0", kp.InhRange)
	}
	if kp.ExcStrength < 0 {
		return fmt.Errorf("shunt.KernelParams: ExcStrength (%g) must be >= 0", kp.ExcStrength)
	}
	if kp.InhStrength < 0 {
		return fmt.Errorf("shunt.KernelParams: InhStrength (%g) must be >= 0", kp.InhStrength)
	}
	return nil
}

// ExcWt returns the excitatory kernel weight at index distance d > 0:
// Gaussian falloff with sigma = ExcRange, zero beyond the range.
func (kp *KernelParams) ExcWt(d int) float32 {
	if kp.ExcRange <= 0 || d > kp.ExcRange {
		return 0
	}
	sig := float32(kp.ExcRange)
	return kp.ExcStrength * math32.FastExp(-float32(d*d)/(2*sig*sig))
}

// InhWt returns the inhibitory kernel weight at index distance d > 0:
// flat within InhRange, zero beyond.
func (kp *KernelParams) InhWt(d int) float32 {
	if kp.InhRange <= 0 || d > kp.InhRange {
		return 0
	}
	return kp.InhStrength
}

// MexicanHat returns kernel params with a standard on-center
// off-surround profile from the given competition strength: narrow
// excitation, broader and stronger inhibition.
func MexicanHat(excRange, inhRange int, strength float32) KernelParams {
	return KernelParams{
		ExcRange:    excRange,
		ExcStrength: 0.25 * strength,
		InhRange:    inhRange,
		InhStrength: strength,
	}
}
