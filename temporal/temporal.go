// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package temporal coordinates the multi-scale temporal chunking
pipeline: each input pattern is stored into primacy-gradient working
memory, the combined (gated, primacy-weighted) pattern is derived from
the memory state, and that combined pattern drives the masking field,
which commits list chunks over coherent winner sequences.
*/
package temporal

//go:generate core generate -add-types

import (
	"fmt"

	"github.com/cortical/smart/mask"
	"github.com/cortical/smart/wm"
)

// Result is the joint outcome of one temporal processing step.  All
// state snapshots are defensive copies; chunks are shared immutable
// references.
type Result struct {

	// working-memory state after the store
	WM *wm.State

	// masking-field state after the update
	MF *mask.State

	// combined pattern that drove the masking field
	Combined []float32

	// currently active chunks
	Chunks []*mask.ListChunk

	// whether the item was stored (false when dropped on overflow)
	Stored bool
}

// Processor pipes working-memory output into the masking field and
// exposes the chunk stream.
type Processor struct {

	// primacy-gradient working memory (owned)
	Memory *wm.WorkingMemory

	// masking field (owned)
	Field *mask.Field

	// per-item storage duration in seconds
	ItemDur float32 `min:"0" def:"0.1"`
}

// New returns a Processor over the given working-memory and
// masking-field parameters.
func New(wmp wm.Params, mfp mask.Params, itemDur float32) (*Processor, error) {
	if itemDur <= 0 {
		return nil, fmt.Errorf("temporal.New: itemDur (%g) must be > 0", itemDur)
	}
	mem, err := wm.New(wmp)
	if err != nil {
		return nil, err
	}
	fld, err := mask.New(mfp)
	if err != nil {
		return nil, err
	}
	return &Processor{Memory: mem, Field: fld, ItemDur: itemDur}, nil
}

// Process stores one input pattern and advances the chunking field,
// returning the joint result.
func (tp *Processor) Process(input []float32) (*Result, error) {
	stored, err := tp.Memory.StoreItem(input, tp.ItemDur)
	if err != nil {
		return nil, err
	}
	comb := tp.Memory.CombinedPattern()
	mfSt, err := tp.Field.Update(comb, tp.Field.Params.TimeStep)
	if err != nil {
		return nil, err
	}
	return &Result{
		WM:       tp.Memory.CurState(),
		MF:       mfSt,
		Combined: comb,
		Chunks:   tp.Field.ActiveChunks(),
		Stored:   stored,
	}, nil
}

// ProcessSequence processes each pattern in order and returns the
// per-step results.  Stops at the first error.
func (tp *Processor) ProcessSequence(patterns [][]float32) ([]*Result, error) {
	out := make([]*Result, 0, len(patterns))
	for i, p := range patterns {
		res, err := tp.Process(p)
		if err != nil {
			return out, fmt.Errorf("temporal.ProcessSequence: step %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

// ActiveChunks returns the masking field's currently active chunks.
func (tp *Processor) ActiveChunks() []*mask.ListChunk {
	return tp.Field.ActiveChunks()
}

// Reset clears both the working memory and the masking field.
// Idempotent.
func (tp *Processor) Reset() {
	tp.Memory.Reset()
	tp.Field.Reset()
}
