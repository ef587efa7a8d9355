// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package mask implements a masking field: a competitive layer of item
nodes that matches incoming patterns against learned prototypes,
resolves spatial competition through Mexican-hat shunting dynamics, and
commits coherent winner sequences into immutable list chunks.

Per update the field (1) matches the input against existing item nodes
under a fuzzy subsethood criterion, boosting the matched node or
recruiting a new one, (2) runs one step of on-center off-surround
competition over the item activations, (3) identifies winners above
threshold, (4) forms a list chunk when the winner sequence is large
enough, positionally coherent, and the inter-chunk interval has
elapsed, and (5) decays existing chunk activations, boosting the
currently active chunk.

Winner events accumulate across updates, so a single item node driven
repeatedly can commit a chunk once enough coherent winner events have
been observed -- the field chunks sequences in time as well as in space.
*/
package mask

//go:generate core generate -add-types

import (
	"fmt"
	"sort"

	"cogentcore.org/core/math32"
	"github.com/cortical/smart/shunt"
)

// matchEps stabilizes the fuzzy match ratio for zero-norm inputs.
const matchEps = 1.0e-6

// Params configures a masking field.
type Params struct {

	// maximum number of item nodes; the weakest is pruned at capacity
	MaxItems int `min:"1" def:"10"`

	// maximum number of retained chunks
	MaxChunks int `min:"1" def:"20"`

	// minimum winner-sequence length to commit a chunk
	MinChunkSize int `min:"1" def:"2"`

	// maximum chunk membership; stronger winners are kept when exceeded
	MaxChunkSize int `min:"1" def:"5"`

	// fuzzy match threshold in [0,1] for prototype matching
	MatchThr float32 `min:"0" max:"1" def:"0.8"`

	// strength increment per successful match
	LRate float32 `min:"0" def:"0.1"`

	// activation boost applied to a matched node
	ActBoost float32 `min:"0" def:"0.3"`

	// activation assigned to a newly recruited node
	InitAct float32 `min:"0" def:"0.5"`

	// activation threshold for winner identification
	WinnerThr float32 `min:"0" def:"0.3"`

	// minimum simulation time between chunk formations
	MinChunkInterval float32 `min:"0" def:"0.05"`

	// maximum positional gap between consecutive winners for the
	// default coherence policy
	MaxTemporalGap int `min:"1" def:"2"`

	// exponential decay rate of chunk activations
	ChunkDecay float32 `min:"0" def:"0.1"`

	// activation boost per unit time for the active chunk
	ActiveChunkBoost float32 `min:"0" def:"0.05"`

	// item activations multiply by this after a chunk commits
	ResetDecay float32 `min:"0" max:"1" def:"0.2"`

	// if true, item activations decay and winners clear after a chunk
	ResetAfterChunk bool `def:"true"`

	// if true, item activations normalize by their maximum each update
	Normalize bool `def:"true"`

	// overall strength of the competitive kernel
	Competition float32 `min:"0" def:"0.8"`

	// lateral excitation radius of the competition kernel
	ExcRange int `min:"0" def:"1"`

	// lateral inhibition radius of the competition kernel
	InhRange int `min:"0" def:"3"`

	// self-excitation sustaining item activations
	SelfExc float32 `min:"0" def:"0.2"`

	// passive decay rate of item activations
	ItemDecay float32 `min:"0" def:"0.5"`

	// competition integration time step
	TimeStep float32 `min:"0" def:"0.01"`
}

func (mp *Params) Defaults() {
	mp.MaxItems = 10
	mp.MaxChunks = 20
	mp.MinChunkSize = 2
	mp.MaxChunkSize = 5
	mp.MatchThr = 0.8
	mp.LRate = 0.1
	mp.ActBoost = 0.3
	mp.InitAct = 0.5
	mp.WinnerThr = 0.3
	mp.MinChunkInterval = 0.05
	mp.MaxTemporalGap = 2
	mp.ChunkDecay = 0.1
	mp.ActiveChunkBoost = 0.05
	mp.ResetDecay = 0.2
	mp.ResetAfterChunk = true
	mp.Normalize = true
	mp.Competition = 0.8
	mp.ExcRange = 1
	mp.InhRange = 3
	mp.SelfExc = 0.2
	mp.ItemDecay = 0.5
	mp.TimeStep = 0.01
	mp.Update()
}

// Update must be called after any changes to parameters
func (mp *Params) Update() {
}

// Validate returns a configuration error if parameters are out of range.
func (mp *Params) Validate() error {
	if mp.MaxItems <= 0 {
		return fmt.Errorf("mask.Params: MaxItems (%d) must be > 0", mp.MaxItems)
	}
	if mp.MaxChunks <= 0 {
		return fmt.Errorf("mask.Params: MaxChunks (%d) must be > 0", mp.MaxChunks)
	}
	if mp.MinChunkSize <= 0 {
		return fmt.Errorf("mask.Params: MinChunkSize (%d) must be > 0", mp.MinChunkSize)
	}
	if mp.MaxChunkSize < mp.MinChunkSize {
		return fmt.Errorf("mask.Params: MaxChunkSize (%d) must be >= MinChunkSize (%d)", mp.MaxChunkSize, mp.MinChunkSize)
	}
	if mp.MatchThr < 0 || mp.MatchThr > 1 {
		return fmt.Errorf("mask.Params: MatchThr (%g) must be in [0, 1]", mp.MatchThr)
	}
	if mp.ResetDecay < 0 || mp.ResetDecay > 1 {
		return fmt.Errorf("mask.Params: ResetDecay (%g) must be in [0, 1]", mp.ResetDecay)
	}
	if mp.TimeStep <= 0 {
		return fmt.Errorf("mask.Params: TimeStep (%g) must be > 0", mp.TimeStep)
	}
	if mp.MaxTemporalGap <= 0 {
		return fmt.Errorf("mask.Params: MaxTemporalGap (%d) must be > 0", mp.MaxTemporalGap)
	}
	return nil
}

// State is a defensive snapshot of the field.
type State struct {
	ItemActs    []float32
	ChunkActs   []float32
	Winners     []int
	ActiveItems int
	Time        float32
}

// Stats counts masking-field events.
type Stats struct {
	Updates      int
	Matches      int
	ItemsCreated int
	ItemsPruned  int
	ChunksFormed int
	Degraded     int
}

// Field is the masking field.  All mutable state is owned by the
// instance; chunks are shared by reference to readers but never mutate.
type Field struct {

	// configuration parameters
	Params Params

	// coherence policy for chunk formation; defaults to
	// PositionalGapCoherence{Params.MaxTemporalGap}
	Coherence CoherencePolicy

	// live item nodes, position-ordered
	Items []ItemNode

	// competitive shunting dynamics; its activations are the
	// item-activation vector (length MaxItems)
	Comp *shunt.Dynamics

	// retained chunks in formation order
	Chunks []*ListChunk

	// per-chunk activations, parallel to Chunks, padded to MaxChunks
	ChunkActs []float32

	// winner indices from the latest update
	Winners []int

	// accumulated winner events since the last chunk / reset
	winnerHist []int

	// index into Chunks of the active (latest) chunk, -1 if none
	ActiveChunk int

	// simulation time of the latest chunk formation
	lastChunkAt float32

	// accumulated simulation time
	Time float32

	// event counters
	Stats Stats

	nextChunkID int
}

// New returns a new Field, validating all parameters.
func New(pr Params) (*Field, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	var sp shunt.Params
	sp.Defaults()
	sp.Decay = pr.ItemDecay
	sp.SelfExc = pr.SelfExc
	kr := shunt.MexicanHat(pr.ExcRange, pr.InhRange, pr.Competition)
	comp, err := shunt.New(pr.MaxItems, sp, kr)
	if err != nil {
		return nil, err
	}
	fld := &Field{
		Params:      pr,
		Coherence:   PositionalGapCoherence{MaxGap: pr.MaxTemporalGap},
		Comp:        comp,
		ChunkActs:   make([]float32, pr.MaxChunks),
		ActiveChunk: -1,
		lastChunkAt: -pr.MinChunkInterval, // first chunk is never interval-blocked
	}
	return fld, nil
}

// MatchRatio returns the fuzzy subsethood match between input and
// prototype: |min(input, proto)|_1 / (|input|_1 + eps).
func MatchRatio(input, proto []float32) float32 {
	var inter, norm float32
	for i, v := range input {
		norm += math32.Abs(v)
		if i < len(proto) {
			inter += math32.Min(math32.Abs(v), math32.Abs(proto[i]))
		}
	}
	return inter / (norm + matchEps)
}

// Update runs one full masking-field step on the given input pattern
// and returns a defensive state snapshot.
func (fld *Field) Update(input []float32, dt float32) (*State, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("mask.Update: dt (%g) must be > 0", dt)
	}
	fld.Stats.Updates++

	var norm float32
	for _, v := range input {
		norm += math32.Abs(v)
	}
	hasInput := norm > matchEps

	fld.matchOrRecruit(input)
	fld.compete(dt)
	fld.findWinners(hasInput)
	if hasInput {
		fld.formChunk()
	}
	fld.decayChunks(dt)

	fld.Time += dt
	return fld.CurState(), nil
}

// matchOrRecruit finds the first item node whose prototype matches the
// input above MatchThr, boosting it; otherwise recruits a new node,
// pruning the weakest if at capacity.  Zero inputs neither match nor
// recruit.
func (fld *Field) matchOrRecruit(input []float32) {
	var norm float32
	for _, v := range input {
		norm += math32.Abs(v)
	}
	if norm <= matchEps {
		return
	}
	for i := range fld.Items {
		nd := &fld.Items[i]
		if MatchRatio(input, nd.Proto) >= fld.Params.MatchThr {
			nd.Strength += fld.Params.LRate
			fld.boostAct(nd.Position, fld.Params.ActBoost)
			fld.Stats.Matches++
			return
		}
	}
	if len(fld.Items) >= fld.Params.MaxItems {
		fld.pruneWeakest()
	}
	pos := len(fld.Items)
	proto := make([]float32, len(input))
	copy(proto, input)
	fld.Items = append(fld.Items, ItemNode{
		Proto:     proto,
		Strength:  1,
		Position:  pos,
		CreatedAt: fld.Time,
	})
	fld.Comp.Acts[pos] = math32.Clamp(fld.Params.InitAct, fld.Comp.Params.Floor, fld.Comp.Params.Ceiling)
	fld.Stats.ItemsCreated++
}

// boostAct adds to an item activation, clamped to the shunting range.
func (fld *Field) boostAct(pos int, boost float32) {
	a := fld.Comp.Acts[pos] + boost
	fld.Comp.Acts[pos] = math32.Clamp(a, fld.Comp.Params.Floor, fld.Comp.Params.Ceiling)
}

// compete feeds the item activations back as excitatory drive and runs
// one step of Mexican-hat shunting competition, optionally followed by
// max-normalization.
func (fld *Field) compete(dt float32) {
	fld.Comp.SetExc(fld.Comp.Activations())
	fld.Comp.Update(dt)
	if fld.Params.Normalize {
		mx := fld.Comp.MaxAct()
		if mx > 0 {
			div := mx + 0.1
			for i := range fld.Comp.Acts {
				fld.Comp.Acts[i] /= div
			}
		}
	}
	fld.Stats.Degraded = fld.Comp.Degraded
}

// findWinners collects live item indices whose activation exceeds
// WinnerThr.  Winner events accumulate into the history only on
// input-driven updates, so self-sustained activity alone never commits
// chunks.
func (fld *Field) findWinners(hasInput bool) {
	fld.Winners = fld.Winners[:0]
	for i := range fld.Items {
		if fld.Comp.Acts[fld.Items[i].Position] > fld.Params.WinnerThr {
			fld.Winners = append(fld.Winners, fld.Items[i].Position)
		}
	}
	if hasInput {
		fld.winnerHist = append(fld.winnerHist, fld.Winners...)
	}
}

// formChunk commits a list chunk when the winner evidence satisfies the
// size, coherence, and interval conditions.  The current-tick winner
// set takes precedence; otherwise the accumulated winner-event sequence
// is considered, with its unique nodes as members.
func (fld *Field) formChunk() {
	if fld.Time-fld.lastChunkAt < fld.Params.MinChunkInterval {
		return
	}
	var members []int
	switch {
	case len(fld.Winners) >= fld.Params.MinChunkSize:
		members = append(members, fld.Winners...)
	case len(fld.winnerHist) >= fld.Params.MinChunkSize:
		members = uniqueInts(fld.winnerHist)
	default:
		return
	}
	sort.Ints(members)
	if !fld.Coherence.Coherent(members) {
		return
	}
	if len(members) > fld.Params.MaxChunkSize {
		members = fld.strongest(members, fld.Params.MaxChunkSize)
		sort.Ints(members)
	}
	nodes := make([]ItemNode, 0, len(members))
	for _, pos := range members {
		if pos < len(fld.Items) {
			nodes = append(nodes, fld.Items[pos])
		}
	}
	if len(nodes) == 0 {
		return
	}

	if len(fld.Chunks) >= fld.Params.MaxChunks {
		fld.dropWeakestChunk()
	}
	lc := newChunk(fld.nextChunkID, nodes, fld.Time)
	fld.nextChunkID++
	fld.Chunks = append(fld.Chunks, lc)
	ci := len(fld.Chunks) - 1
	fld.ChunkActs[ci] = fld.Comp.Params.Ceiling
	fld.ActiveChunk = ci
	fld.lastChunkAt = fld.Time
	fld.Stats.ChunksFormed++

	fld.winnerHist = fld.winnerHist[:0]
	if fld.Params.ResetAfterChunk {
		for i := range fld.Comp.Acts {
			fld.Comp.Acts[i] *= fld.Params.ResetDecay
		}
		fld.Winners = fld.Winners[:0]
	}
}

// strongest returns the n positions with highest node strength.
func (fld *Field) strongest(positions []int, n int) []int {
	ps := make([]int, len(positions))
	copy(ps, positions)
	sort.SliceStable(ps, func(i, j int) bool {
		return fld.strengthAt(ps[i]) > fld.strengthAt(ps[j])
	})
	return ps[:n]
}

func (fld *Field) strengthAt(pos int) float32 {
	if pos < len(fld.Items) {
		return fld.Items[pos].Strength
	}
	return 0
}

// decayChunks applies exponential decay to all chunk activations and
// the active-chunk boost, clamped to [0, ceiling].
func (fld *Field) decayChunks(dt float32) {
	dec := math32.Exp(-fld.Params.ChunkDecay * dt)
	for i := range fld.Chunks {
		a := fld.ChunkActs[i] * dec
		if i == fld.ActiveChunk {
			a += fld.Params.ActiveChunkBoost * dt
		}
		fld.ChunkActs[i] = math32.Clamp(a, 0, fld.Comp.Params.Ceiling)
	}
}

// pruneWeakest removes the lowest-strength item node, shifting the
// remaining nodes (and their activations) down one position.
func (fld *Field) pruneWeakest() {
	if len(fld.Items) == 0 {
		return
	}
	wk := 0
	for i := 1; i < len(fld.Items); i++ {
		if fld.Items[i].Strength < fld.Items[wk].Strength {
			wk = i
		}
	}
	copy(fld.Items[wk:], fld.Items[wk+1:])
	fld.Items = fld.Items[:len(fld.Items)-1]
	for i := wk; i < len(fld.Items); i++ {
		fld.Items[i].Position = i
		fld.Comp.Acts[i] = fld.Comp.Acts[i+1]
	}
	fld.Comp.Acts[len(fld.Items)] = 0
	fld.Stats.ItemsPruned++
}

// dropWeakestChunk removes the chunk with the lowest activation to make
// room for a new one.
func (fld *Field) dropWeakestChunk() {
	if len(fld.Chunks) == 0 {
		return
	}
	wk := 0
	for i := 1; i < len(fld.Chunks); i++ {
		if fld.ChunkActs[i] < fld.ChunkActs[wk] {
			wk = i
		}
	}
	copy(fld.Chunks[wk:], fld.Chunks[wk+1:])
	fld.Chunks = fld.Chunks[:len(fld.Chunks)-1]
	copy(fld.ChunkActs[wk:], fld.ChunkActs[wk+1:])
	fld.ChunkActs[len(fld.Chunks)] = 0
	if fld.ActiveChunk == wk {
		fld.ActiveChunk = -1
	} else if fld.ActiveChunk > wk {
		fld.ActiveChunk--
	}
}

// ActiveChunks returns the chunks whose activation is still positive,
// in formation order.  Chunks are shared by reference and immutable.
func (fld *Field) ActiveChunks() []*ListChunk {
	var out []*ListChunk
	for i, lc := range fld.Chunks {
		if fld.ChunkActs[i] > 0 {
			out = append(out, lc)
		}
	}
	return out
}

// ChunkAct returns the activation of chunk index i.
func (fld *Field) ChunkAct(i int) float32 {
	if i < 0 || i >= len(fld.Chunks) {
		return 0
	}
	return fld.ChunkActs[i]
}

// CurState returns a defensive snapshot of the field state.
func (fld *Field) CurState() *State {
	st := &State{
		ItemActs:    fld.Comp.Activations(),
		ChunkActs:   make([]float32, len(fld.ChunkActs)),
		Winners:     make([]int, len(fld.Winners)),
		ActiveItems: len(fld.Items),
		Time:        fld.Time,
	}
	copy(st.ChunkActs, fld.ChunkActs)
	copy(st.Winners, fld.Winners)
	return st
}

// Reset clears items, chunks, winners, and competitive state.
// Idempotent.
func (fld *Field) Reset() {
	fld.Comp.Reset()
	fld.Items = nil
	fld.Chunks = nil
	for i := range fld.ChunkActs {
		fld.ChunkActs[i] = 0
	}
	fld.Winners = nil
	fld.winnerHist = nil
	fld.ActiveChunk = -1
	fld.lastChunkAt = -fld.Params.MinChunkInterval
	fld.Time = 0
}

// uniqueInts returns the distinct values of xs preserving first-seen
// order.
func uniqueInts(xs []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}
