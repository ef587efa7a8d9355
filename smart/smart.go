// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package smart implements the core SMART laminar cortical circuit: five
interacting cortical layers (L1, L2/3, L4, L5, L6) built on shunting and
transmitter dynamics, a temporal chunking pipeline feeding the circuit,
oscillation-based resonance detection, and an online learning controller
whose plasticity is gated by resonance (consciousness likelihood) and
attention.

The central organizing principle is the ART matching rule: top-down
expectation (L6) is modulatory only -- it can enhance bottom-up driven
activity but can never create activity on its own.  Resonance --
sustained agreement between bottom-up drive and top-down expectation --
is what admits learning.

Within one Process call the pathway schedule is a fixed DAG:
temporal -> L4 -> L2/3 -> {L1 priming, L6 feedback} -> L5 output,
with the apparent L6 -> L2/3 -> L4 loop closed only across ticks.
*/
package smart

//go:generate core generate -add-types

import (
	"errors"

	"github.com/goki/ki/bitflag"
	"github.com/goki/ki/kit"
)

// Error categories, matchable with errors.Is.  Configuration errors
// fail at construction and never at processing time; precondition
// errors fail on the offending call leaving state unchanged.
var (
	ErrConfig       = errors.New("smart: configuration error")
	ErrPrecondition = errors.New("smart: precondition error")
)

// LayerTypes enumerates the five laminar layer variants.
type LayerTypes int32

//go:generate stringer -type=LayerTypes

var KiT_LayerTypes = kit.Enums.AddEnum(LayerTypesN, kit.NotBitFlag, nil)

const (
	// L1 is the priming / context layer: slow dynamics, processes
	// top-down context, output is modulatory priming to L2/3
	L1 LayerTypes = iota

	// L23 is the integration layer: combines bottom-up drive from L4,
	// top-down from L6, and priming from L1 under lateral competition
	L23

	// L4 is the driving input layer: fast dynamics with strong
	// self-excitation, preserves input rhythmicity
	L4

	// L5 is the output / category layer: amplification, burst
	// detection, soft normalization, category formation
	L5

	// L6 is the feedback layer: modulatory only, obeying the ART
	// matching rule -- it never fires without bottom-up support
	L6

	LayerTypesN
)

// LayerFlags are bit flags for layer state.
type LayerFlags int32

//go:generate stringer -type=LayerFlags

var KiT_LayerFlags = kit.Enums.AddEnum(LayerFlagsN, kit.BitFlag, nil)

const (
	// LayDriven means the layer has processed input since last reset
	LayDriven LayerFlags = iota

	// LayCategoryFormed means an L5 unit exceeded the category
	// threshold on the latest step (derived flag, not a state)
	LayCategoryFormed

	// LayDegraded means a non-finite activation was recovered on the
	// latest step
	LayDegraded

	LayerFlagsN
)

// HasFlag returns true if the given flag is set.
func (lf *LayerFlags) HasFlag(f LayerFlags) bool {
	return bitflag.Has32(int32(*lf), int(f))
}

// SetFlag sets the given flag.
func (lf *LayerFlags) SetFlag(f LayerFlags) {
	bitflag.Set32((*int32)(lf), int(f))
}

// ClearFlag clears the given flag.
func (lf *LayerFlags) ClearFlag(f LayerFlags) {
	bitflag.Clear32((*int32)(lf), int(f))
}
