// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mask

// ItemNode is one competitive node of the masking field: a learned
// prototype pattern with its accumulated strength and insertion
// position.  Nodes are owned by the field; snapshots are copies.
type ItemNode struct {

	// learned prototype pattern
	Proto []float32

	// accumulated match strength -- pruning removes the weakest
	Strength float32

	// insertion position index.  Positions are assigned by insertion
	// order, not by any external temporal label: after pruning,
	// remaining nodes shift down and their indices are reused for new
	// nodes, so coherence over positions is an insertion-order
	// notion (see CoherencePolicy).
	Position int

	// simulation time of creation
	CreatedAt float32
}

// Clone returns a deep copy of the node.
func (in *ItemNode) Clone() ItemNode {
	cp := *in
	cp.Proto = make([]float32, len(in.Proto))
	copy(cp.Proto, in.Proto)
	return cp
}

// ListChunk is an immutable grouping of winner item nodes committed at
// a point in time.  The member list never mutates after creation; only
// the chunk's activation (held by the field) decays or reactivates.
type ListChunk struct {

	// member item nodes at formation, in winner order (copies)
	Nodes []ItemNode

	// simulation time of formation
	FormedAt float32

	// sequential chunk id, unique within the field
	ID int
}

// Size returns the number of member nodes.
func (lc *ListChunk) Size() int {
	return len(lc.Nodes)
}

// Positions returns the member node positions at formation time.
func (lc *ListChunk) Positions() []int {
	ps := make([]int, len(lc.Nodes))
	for i, nd := range lc.Nodes {
		ps[i] = nd.Position
	}
	return ps
}

// newChunk deep-copies the winner nodes into an immutable chunk.
func newChunk(id int, nodes []ItemNode, at float32) *ListChunk {
	lc := &ListChunk{ID: id, FormedAt: at}
	lc.Nodes = make([]ItemNode, len(nodes))
	for i := range nodes {
		lc.Nodes[i] = nodes[i].Clone()
	}
	return lc
}
