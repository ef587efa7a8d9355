// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cortical/smart/temporal"
)

// poolTask is one unit of work for the circuit worker pool.  The wait
// group is released on every exit path, including panics in the task
// function.
type poolTask struct {
	fn func()
	wg *sync.WaitGroup
}

// CorticalCircuitOptimized has the same contract as CorticalCircuit
// but executes the independent arms of each tick -- temporal
// processing, L1 priming, and the L6 feedback chain -- on a bounded
// worker pool, joining before any shared layer state is written.
// After identical Reset sequences its outputs match the sequential
// circuit to within 1e-5 per component (the per-layer operation order
// is preserved, so in practice they match exactly; the tolerance
// covers floating-point reassociation on future vectorized paths).
//
// If the pool is unavailable (saturated or shut down), the tick falls
// back to running the arms inline and is counted in FallbackTicks.
type CorticalCircuitOptimized struct {
	CorticalCircuit

	// number of pool workers
	NWorkers int `inactive:"+"`

	// ticks on which at least one arm ran inline because the pool
	// was unavailable
	FallbackTicks int `inactive:"+"`

	// panics recovered in pool tasks
	PanicsRecovered int `inactive:"+"`

	jobs     chan poolTask
	stopOnce sync.Once
}

// NewCorticalCircuitOptimized returns an optimized circuit with a
// worker pool of the given size; workers <= 0 selects the available
// parallelism.  A nil temporal processor gets the same default
// pipeline as the sequential circuit.
func NewCorticalCircuitOptimized(cp CircuitParams, tp *temporal.Processor, workers int) (*CorticalCircuitOptimized, error) {
	cc, err := NewCorticalCircuit(cp, tp)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	oc := &CorticalCircuitOptimized{
		CorticalCircuit: *cc,
		NWorkers:        workers,
		jobs:            make(chan poolTask, workers),
	}
	for i := 0; i < workers; i++ {
		go oc.worker()
	}
	return oc, nil
}

// worker is the pool goroutine: runs tasks until the job channel is
// closed.
func (oc *CorticalCircuitOptimized) worker() {
	for tk := range oc.jobs {
		oc.runTask(tk)
	}
}

// runTask executes one task with guaranteed wait-group release.
func (oc *CorticalCircuitOptimized) runTask(tk poolTask) {
	defer tk.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			oc.PanicsRecovered++
			if oc.Log != nil {
				oc.Log.Error("worker pool task panic recovered", "panic", r)
			}
		}
	}()
	tk.fn()
}

// dispatch submits fn to the pool under the given wait group,
// returning false (without dispatching) when the pool cannot take it;
// the caller then runs fn inline.
func (oc *CorticalCircuitOptimized) dispatch(wg *sync.WaitGroup, fn func()) bool {
	if oc.closed {
		return false
	}
	wg.Add(1)
	select {
	case oc.jobs <- poolTask{fn: fn, wg: wg}:
		return true
	default:
		wg.Done()
		return false
	}
}

// runArms executes the given independent arms, on the pool where
// possible and inline otherwise, and joins before returning.
func (oc *CorticalCircuitOptimized) runArms(arms ...func()) {
	var wg sync.WaitGroup
	inline := false
	for _, arm := range arms {
		if !oc.dispatch(&wg, arm) {
			inline = true
			arm()
		}
	}
	wg.Wait()
	if inline {
		oc.FallbackTicks++
	}
}

// Process runs one parallel-pathway tick and returns the L5 output.
func (oc *CorticalCircuitOptimized) Process(input []float32) ([]float32, error) {
	res, err := oc.ProcessDetailed(input)
	if err != nil {
		return nil, err
	}
	return res.L5Out, nil
}

// ProcessDetailed runs one tick with the temporal arm, the L1 priming
// arm, and the L6 feedback arm executed on the worker pool.  All joins
// happen before shared L2/3 state is written, preserving the
// sequential pathway semantics.
func (oc *CorticalCircuitOptimized) ProcessDetailed(input []float32) (*DetailedResult, error) {
	cc := &oc.CorticalCircuit
	if cc.closed {
		return nil, fmt.Errorf("%w: circuit is closed", ErrPrecondition)
	}
	in := cc.adaptInput(input)
	dt := cc.Time.TimePerTick

	// temporal arm
	var tres *temporal.Result
	var terr error
	oc.runArms(func() {
		tres, terr = cc.Temporal.Process(in)
	})
	if terr != nil {
		return nil, terr
	}
	tpat := cc.adaptInput(tres.Combined)

	// bottom-up spine through L4 and L2/3
	l4out, err := cc.Lay4.ProcessBottomUp(tpat, dt)
	if err != nil {
		return nil, err
	}
	l23out, err := cc.Lay23.ProcessBottomUp(l4out, dt)
	if err != nil {
		return nil, err
	}

	// priming arm (L1) and feedback arm (L6 chain + L4 modulation)
	// both read l23out and write disjoint layers
	var l1out, l6out, l4fb, l4td []float32
	var e1, e6, ef, e4 error
	oc.runArms(
		func() {
			l1out, e1 = cc.Lay1.ProcessTopDown(l23out, dt)
		},
		func() {
			l6out, e6 = cc.Lay6.ProcessBottomUp(l23out, dt)
			if e6 != nil {
				return
			}
			l4fb, ef = cc.Lay6.GenerateFeedbackToL4(l6out)
			if ef != nil {
				return
			}
			l4td, e4 = cc.Lay4.ProcessTopDown(l4fb, dt)
		},
	)
	for _, err := range []error{e1, e6, ef, e4} {
		if err != nil {
			return nil, err
		}
	}

	// joined: L2/3 integration, priming, output
	l23td, err := cc.Lay23.ProcessTopDown(l6out, dt)
	if err != nil {
		return nil, err
	}
	l23l1, err := cc.Lay23.ApplyPriming(l1out, dt)
	if err != nil {
		return nil, err
	}
	l5out, err := cc.Lay5.ProcessBottomUp(l23l1, dt)
	if err != nil {
		return nil, err
	}

	res := &DetailedResult{
		TemporalPattern: tpat,
		L4Out:           l4out,
		L23Out:          l23out,
		L1Out:           l1out,
		L6Out:           l6out,
		L23TopDown:      l23td,
		L4TopDown:       l4td,
		L23WithL1:       l23l1,
		L5Out:           l5out,
		Temporal:        tres,
	}
	if cc.Resonance != nil {
		res.Resonance = cc.Resonance.Update(l4out, cc.Lay6.TopDownExp, l5out, cc.Time.Time)
	}

	cc.Time.TickInc()
	cc.Stats.Ticks++
	for _, ly := range cc.Layers() {
		if ly.Flags.HasFlag(LayDegraded) {
			res.Degraded = true
			ly.Flags.ClearFlag(LayDegraded)
		}
	}
	if res.Degraded {
		cc.Stats.DegradedTicks++
		if cc.Log != nil {
			cc.Log.Warn("degraded tick: non-finite activation recovered",
				"tick", cc.Time.Tick)
		}
	}
	if cc.Ticks != nil {
		cc.Ticks.LogTick(cc.Time.Tick, cc.Time.Time, res)
	}
	return res, nil
}

// ProcessAndLearn runs one parallel tick and applies the gated
// learning update.
func (oc *CorticalCircuitOptimized) ProcessAndLearn(input []float32) (*DetailedResult, error) {
	res, err := oc.ProcessDetailed(input)
	if err != nil {
		return nil, err
	}
	oc.learnFromResult(res)
	return res, nil
}

// ProcessSequence processes each pattern in order, returning per-step
// L5 outputs.
func (oc *CorticalCircuitOptimized) ProcessSequence(patterns [][]float32) ([][]float32, error) {
	out := make([][]float32, 0, len(patterns))
	for i, p := range patterns {
		o, err := oc.Process(p)
		if err != nil {
			return out, fmt.Errorf("ProcessSequence: step %d: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// Close shuts down the worker pool and tears down the circuit.
// Idempotent; subsequent Process calls are rejected and any late
// arms fall back to inline execution.
func (oc *CorticalCircuitOptimized) Close() error {
	oc.closed = true
	oc.stopOnce.Do(func() {
		close(oc.jobs)
	})
	return nil
}
