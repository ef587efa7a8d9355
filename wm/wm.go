// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package wm implements a STORE-2 style primacy-gradient working memory:
an ordered, fixed-capacity store of input patterns in which earlier
items are encoded more strongly than later ones.

Each stored item occupies one position of a shunting field with
self-excitation (sustaining activity after input offset) and lateral
inhibition (normalizing total activity), paired with a habituative
transmitter gate evolving on a slower time scale.  The position's
initial activation follows the primacy gradient

	a_init(p) = max(RetrievalThr, MaxAct * exp(-lambda(p) * p))
	lambda(p) = PrimacyDecay * (1 + 0.1*p)

which is monotonically non-increasing over positions, with the extra
position-dependent steepening giving position 0 an additional boost.

The temporal readout weights each stored pattern by its gated
activation a_i * z_i, so early items dominate the combined pattern that
downstream chunking layers see.
*/
package wm

//go:generate core generate -add-types

import (
	"fmt"

	"cogentcore.org/core/math32"
	"github.com/cortical/smart/shunt"
	"github.com/cortical/smart/xmit"
)

// gradEps stabilizes the primacy-gradient normalization when all
// activations are near zero.
const gradEps = 1.0e-6

// Params configures a working memory instance.
type Params struct {

	// maximum number of stored items
	Capacity int `min:"1" def:"7"`

	// dimension of each stored pattern
	ItemDim int `min:"1"`

	// passive decay rate of position activations
	DecayRate float32 `min:"0" def:"0.1"`

	// maximum initial activation (position 0 encodes at this level)
	MaxAct float32 `def:"1"`

	// base primacy gradient decay rate lambda
	PrimacyDecay float32 `min:"0" def:"0.2"`

	// self-excitation sustaining stored activations
	SelfExc float32 `min:"0" def:"0.3"`

	// lateral inhibition between positions, normalizing the store
	LateralInh float32 `min:"0" def:"0.1"`

	// shunting integration time step
	TimeStep float32 `min:"0" def:"0.01"`

	// transmitter gate recovery rate
	XmitRecovery float32 `min:"0" def:"0.05"`

	// transmitter linear depletion rate
	XmitDepLin float32 `min:"0" def:"0.1"`

	// transmitter quadratic depletion rate
	XmitDepQuad float32 `min:"0" def:"0.05"`

	// floor on initial activations: items never encode below this
	RetrievalThr float32 `min:"0" def:"0.05"`

	// if true, storing into a full memory resets it first;
	// otherwise the store is dropped and state is unchanged
	OverflowReset bool `def:"true"`

	// recency gradient blend in [0,1]: 0 = pure primacy weighting of
	// the temporal readout, higher values mix in a recency bonus
	Recency float32 `min:"0" max:"1" def:"0"`
}

func (wp *Params) Defaults() {
	wp.Capacity = 7
	wp.DecayRate = 0.1
	wp.MaxAct = 1
	wp.PrimacyDecay = 0.2
	wp.SelfExc = 0.3
	wp.LateralInh = 0.1
	wp.TimeStep = 0.01
	wp.XmitRecovery = 0.05
	wp.XmitDepLin = 0.1
	wp.XmitDepQuad = 0.05
	wp.RetrievalThr = 0.05
	wp.OverflowReset = true
	wp.Recency = 0
	wp.Update()
}

// Update must be called after any changes to parameters
func (wp *Params) Update() {
}

// Validate returns a configuration error if parameters are out of range.
func (wp *Params) Validate() error {
	if wp.Capacity <= 0 {
		return fmt.Errorf("wm.Params: Capacity (%d) must be > 0", wp.Capacity)
	}
	if wp.ItemDim <= 0 {
		return fmt.Errorf("wm.Params: ItemDim (%d) must be > 0", wp.ItemDim)
	}
	if wp.MaxAct <= 0 {
		return fmt.Errorf("wm.Params: MaxAct (%g) must be > 0", wp.MaxAct)
	}
	if wp.TimeStep <= 0 {
		return fmt.Errorf("wm.Params: TimeStep (%g) must be > 0", wp.TimeStep)
	}
	if wp.PrimacyDecay < 0 {
		return fmt.Errorf("wm.Params: PrimacyDecay (%g) must be >= 0", wp.PrimacyDecay)
	}
	if wp.RetrievalThr < 0 || wp.RetrievalThr > wp.MaxAct {
		return fmt.Errorf("wm.Params: RetrievalThr (%g) must be in [0, MaxAct]", wp.RetrievalThr)
	}
	if wp.Recency < 0 || wp.Recency > 1 {
		return fmt.Errorf("wm.Params: Recency (%g) must be in [0, 1]", wp.Recency)
	}
	return nil
}

// Item is one stored pattern with its encoding metadata.  Items are
// owned by the memory and never shared: Pattern is a private snapshot.
type Item struct {

	// snapshot of the stored pattern
	Pattern []float32

	// insertion position, strictly increasing, < Capacity
	Position int

	// activation this position was encoded at
	InitAct float32

	// simulation time of storage
	StoredAt float32
}

// State is a snapshot of the memory, safe to retain: all slices are
// copies.
type State struct {
	Items    []Item
	Acts     []float32
	Gates    []float32
	Primacy  []float32
	Recency  []float32
	Position int
}

// Stats counts working-memory events.
type Stats struct {
	Stored    int
	Dropped   int
	Overflows int
	Resets    int
}

// WorkingMemory is the STORE-2 primacy-gradient store.  All mutable
// state is owned by the instance and mutated only by its methods.
type WorkingMemory struct {

	// configuration parameters
	Params Params

	// shunting field over positions
	Field *shunt.Dynamics

	// habituative transmitter gates over positions
	Gate *xmit.Gate

	// stored items in insertion order
	Items []Item

	// next insertion position
	Position int

	// event counters
	Stats Stats

	// accumulated simulation time
	Time float32
}

// New returns a new WorkingMemory, validating all parameters.
func New(pr Params) (*WorkingMemory, error) {
	if err := pr.Validate(); err != nil {
		return nil, err
	}
	var sp shunt.Params
	sp.Defaults()
	sp.Decay = pr.DecayRate
	sp.Ceiling = pr.MaxAct
	sp.SelfExc = pr.SelfExc
	kr := shunt.KernelParams{InhRange: pr.Capacity, InhStrength: pr.LateralInh}
	fld, err := shunt.New(pr.Capacity, sp, kr)
	if err != nil {
		return nil, err
	}
	var xp xmit.Params
	xp.Defaults()
	xp.Recovery = pr.XmitRecovery
	xp.DepLin = pr.XmitDepLin
	xp.DepQuad = pr.XmitDepQuad
	gt, err := xmit.NewGate(pr.Capacity, xp)
	if err != nil {
		return nil, err
	}
	return &WorkingMemory{Params: pr, Field: fld, Gate: gt}, nil
}

// InitAct returns the primacy-gradient initial activation for position p.
func (wmem *WorkingMemory) InitAct(p int) float32 {
	lambda := wmem.Params.PrimacyDecay * (1 + 0.1*float32(p))
	a := wmem.Params.MaxAct * math32.Exp(-lambda*float32(p))
	return math32.Max(wmem.Params.RetrievalThr, a)
}

// StoreItem encodes one pattern at the current position, evolving the
// field for the given duration (seconds).  Returns true if the item was
// stored; a full memory either resets first (OverflowReset) or drops
// the item, leaving state unchanged.  Pattern length must equal ItemDim.
func (wmem *WorkingMemory) StoreItem(pattern []float32, duration float32) (bool, error) {
	if len(pattern) != wmem.Params.ItemDim {
		return false, fmt.Errorf("wm.StoreItem: pattern len %d != ItemDim %d", len(pattern), wmem.Params.ItemDim)
	}
	if duration <= 0 {
		return false, fmt.Errorf("wm.StoreItem: duration (%g) must be > 0", duration)
	}
	if wmem.Position >= wmem.Params.Capacity {
		wmem.Stats.Overflows++
		if !wmem.Params.OverflowReset {
			wmem.Stats.Dropped++
			return false, nil
		}
		wmem.Reset()
		wmem.Stats.Resets++
	}
	// depleted gates also force a reset before storing anew
	if wmem.Gate.ShouldReset(0.3) {
		wmem.Reset()
		wmem.Stats.Resets++
	}

	pos := wmem.Position
	ainit := wmem.InitAct(pos)

	wmem.Field.SetExcUnit(pos, ainit)
	wmem.Gate.SetSignalUnit(pos, ainit)

	dt := wmem.Params.TimeStep
	steps := int(duration / dt)
	if steps < 1 {
		steps = 1
	}
	for s := 0; s < steps; s++ {
		wmem.Field.Update(dt)
		if (s+1)%10 == 0 {
			wmem.Gate.Update(10 * dt)
		}
	}
	// apply the gate once: gated activations re-injected as drive for
	// one final settling step, then the depletion signal is cleared
	gated := wmem.Gate.Apply(wmem.Field.Acts)
	wmem.Field.SetExc(gated)
	wmem.Field.Update(dt)
	wmem.Gate.SetSignalUnit(pos, 0)

	pat := make([]float32, len(pattern))
	copy(pat, pattern)
	wmem.Items = append(wmem.Items, Item{
		Pattern:  pat,
		Position: pos,
		InitAct:  ainit,
		StoredAt: wmem.Time,
	})
	wmem.Position++
	wmem.Time += duration
	wmem.Stats.Stored++
	return true, nil
}

// StoreSequence stores each pattern in order with the same per-item
// duration.  Stops at the first precondition error.
func (wmem *WorkingMemory) StoreSequence(patterns [][]float32, itemDur float32) error {
	for i, p := range patterns {
		if _, err := wmem.StoreItem(p, itemDur); err != nil {
			return fmt.Errorf("wm.StoreSequence: item %d: %w", i, err)
		}
	}
	return nil
}

// GatedActs returns the per-position gated activations a_i * z_i.
func (wmem *WorkingMemory) GatedActs() []float32 {
	return wmem.Gate.Apply(wmem.Field.Acts)
}

// TemporalPattern returns the stored patterns each weighted by its
// gated activation (and the recency blend, when enabled).  Slices are
// freshly allocated.
func (wmem *WorkingMemory) TemporalPattern() [][]float32 {
	gated := wmem.GatedActs()
	n := len(wmem.Items)
	out := make([][]float32, n)
	for i, it := range wmem.Items {
		w := wmem.itemWeight(it.Position, n, gated)
		wp := make([]float32, len(it.Pattern))
		for j, v := range it.Pattern {
			wp[j] = w * v
		}
		out[i] = wp
	}
	return out
}

// CombinedPattern returns the sum of the weighted stored patterns,
// normalized by the maximum component when it exceeds the activation
// ceiling.  This is the single pattern downstream chunking layers see.
func (wmem *WorkingMemory) CombinedPattern() []float32 {
	comb := make([]float32, wmem.Params.ItemDim)
	gated := wmem.GatedActs()
	n := len(wmem.Items)
	for _, it := range wmem.Items {
		w := wmem.itemWeight(it.Position, n, gated)
		for j, v := range it.Pattern {
			comb[j] += w * v
		}
	}
	mx := float32(0)
	for _, v := range comb {
		mx = math32.Max(mx, v)
	}
	if mx > wmem.Params.MaxAct {
		scale := wmem.Params.MaxAct / mx
		for j := range comb {
			comb[j] *= scale
		}
	}
	return comb
}

// itemWeight blends the gated activation with the recency gradient.
func (wmem *WorkingMemory) itemWeight(pos, n int, gated []float32) float32 {
	w := gated[pos]
	if wmem.Params.Recency > 0 && n > 0 {
		rec := wmem.Params.MaxAct * math32.Exp(-wmem.Params.PrimacyDecay*float32(n-1-pos))
		w = (1-wmem.Params.Recency)*w + wmem.Params.Recency*rec
	}
	return w
}

// PrimacyGradientStrength returns the normalized difference between
// first-half and second-half gated activations of the stored positions:
// positive when earlier items are more active.
func (wmem *WorkingMemory) PrimacyGradientStrength() float32 {
	n := len(wmem.Items)
	if n < 2 {
		return 0
	}
	gated := wmem.GatedActs()
	half := n / 2
	var early, late float32
	for i := 0; i < half; i++ {
		early += gated[wmem.Items[i].Position]
	}
	for i := n - half; i < n; i++ {
		late += gated[wmem.Items[i].Position]
	}
	early /= float32(half)
	late /= float32(half)
	return (early - late) / (early + late + gradEps)
}

// PrimacyWeights returns the analytic primacy-weight vector over
// positions, a non-increasing function of position.
func (wmem *WorkingMemory) PrimacyWeights() []float32 {
	ws := make([]float32, wmem.Params.Capacity)
	for p := range ws {
		ws[p] = wmem.InitAct(p)
	}
	return ws
}

// RecencyWeights returns the recency-weight vector over positions
// relative to the current fill level.
func (wmem *WorkingMemory) RecencyWeights() []float32 {
	n := len(wmem.Items)
	ws := make([]float32, wmem.Params.Capacity)
	for p := range ws {
		if p < n {
			ws[p] = wmem.Params.MaxAct * math32.Exp(-wmem.Params.PrimacyDecay*float32(n-1-p))
		}
	}
	return ws
}

// CurState returns a defensive snapshot of the memory state.
func (wmem *WorkingMemory) CurState() *State {
	st := &State{
		Acts:     wmem.Field.Activations(),
		Gates:    wmem.Gate.LevelsCopy(),
		Primacy:  wmem.PrimacyWeights(),
		Recency:  wmem.RecencyWeights(),
		Position: wmem.Position,
	}
	st.Items = make([]Item, len(wmem.Items))
	for i, it := range wmem.Items {
		pat := make([]float32, len(it.Pattern))
		copy(pat, it.Pattern)
		st.Items[i] = Item{Pattern: pat, Position: it.Position, InitAct: it.InitAct, StoredAt: it.StoredAt}
	}
	return st
}

// Reset clears all stored items and restores field and gates to their
// initial state.  Idempotent.
func (wmem *WorkingMemory) Reset() {
	wmem.Field.Reset()
	wmem.Gate.Reset()
	wmem.Items = nil
	wmem.Position = 0
}
