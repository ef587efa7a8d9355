// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"strconv"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"
)

// LogPrec is precision for saving float values in logs
const LogPrec = 4

// TickLog records per-tick circuit summaries into an etable.Table for
// offline analysis: mean activations per layer, consciousness
// likelihood, ART flag, degraded status, and chunk count.
type TickLog struct {

	// the log table; one row per recorded tick
	Table *etable.Table
}

// NewTickLog returns a configured, empty tick log.
func NewTickLog() *TickLog {
	tl := &TickLog{Table: &etable.Table{}}
	tl.Config()
	return tl
}

// Config sets the table schema.
func (tl *TickLog) Config() {
	dt := tl.Table
	dt.SetMetaData("name", "TickLog")
	dt.SetMetaData("desc", "per-tick circuit summaries")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))

	sch := etable.Schema{
		{"Tick", etensor.INT64, nil, nil},
		{"Time", etensor.FLOAT64, nil, nil},
		{"L4Avg", etensor.FLOAT64, nil, nil},
		{"L23Avg", etensor.FLOAT64, nil, nil},
		{"L1Avg", etensor.FLOAT64, nil, nil},
		{"L6Avg", etensor.FLOAT64, nil, nil},
		{"L5Avg", etensor.FLOAT64, nil, nil},
		{"Consciousness", etensor.FLOAT64, nil, nil},
		{"ARTResonance", etensor.FLOAT64, nil, nil},
		{"Degraded", etensor.FLOAT64, nil, nil},
		{"Chunks", etensor.FLOAT64, nil, nil},
	}
	dt.SetFromSchema(sch, 0)
}

// avg32 returns the mean of a float32 slice as float64.
func avg32(vs []float32) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += float64(v)
	}
	return sum / float64(len(vs))
}

// LogTick appends one row from a tick's pathway record.
func (tl *TickLog) LogTick(tick int, t float32, res *DetailedResult) {
	dt := tl.Table
	row := dt.Rows
	dt.AddRows(1)

	dt.SetCellFloat("Tick", row, float64(tick))
	dt.SetCellFloat("Time", row, float64(t))
	dt.SetCellFloat("L4Avg", row, avg32(res.L4Out))
	dt.SetCellFloat("L23Avg", row, avg32(res.L23WithL1))
	dt.SetCellFloat("L1Avg", row, avg32(res.L1Out))
	dt.SetCellFloat("L6Avg", row, avg32(res.L6Out))
	dt.SetCellFloat("L5Avg", row, avg32(res.L5Out))
	if res.Resonance != nil {
		dt.SetCellFloat("Consciousness", row, float64(res.Resonance.Consciousness))
		if res.Resonance.ARTResonance {
			dt.SetCellFloat("ARTResonance", row, 1)
		}
	}
	if res.Degraded {
		dt.SetCellFloat("Degraded", row, 1)
	}
	if res.Temporal != nil {
		dt.SetCellFloat("Chunks", row, float64(len(res.Temporal.Chunks)))
	}
}

// Reset clears all recorded rows, keeping the schema.
func (tl *TickLog) Reset() {
	tl.Table.SetNumRows(0)
}
