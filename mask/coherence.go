// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mask

// CoherencePolicy decides whether a set of winner positions forms a
// coherent sequence eligible for chunking.  Positions are item-node
// insertion indices (see ItemNode.Position).
type CoherencePolicy interface {

	// Coherent returns true if the given winner positions (ascending)
	// form a chunkable sequence
	Coherent(positions []int) bool
}

// PositionalGapCoherence is the default policy: winners are coherent
// when every pairwise gap between consecutive positions is at most
// MaxGap.  Because positions are insertion indices, this is coherence
// of insertion order; callers that need true temporal adjacency must
// not reuse indices after pruning.
type PositionalGapCoherence struct {

	// maximum allowed gap between consecutive winner positions
	MaxGap int `min:"1" def:"2"`
}

func (pc PositionalGapCoherence) Coherent(positions []int) bool {
	for i := 1; i < len(positions); i++ {
		if positions[i]-positions[i-1] > pc.MaxGap {
			return false
		}
	}
	return true
}

// AlwaysCoherent accepts any winner set; chunking is then governed by
// size and interval constraints alone.
type AlwaysCoherent struct{}

func (AlwaysCoherent) Coherent(positions []int) bool {
	return true
}
