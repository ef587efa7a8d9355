// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickLog(t *testing.T) {
	cc := testCircuit(t, 10)
	tl := cc.EnableTickLog()
	require.NotNil(t, tl)
	// enabling twice returns the same log
	assert.Equal(t, tl, cc.EnableTickLog())

	in := make([]float32, 10)
	in[0] = 0.8
	for i := 0; i < 5; i++ {
		_, err := cc.ProcessDetailed(in)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, tl.Table.Rows)
	assert.Equal(t, float64(1), tl.Table.CellFloat("Tick", 0))
	assert.GreaterOrEqual(t, tl.Table.CellFloat("L4Avg", 4), 0.0)

	tl.Reset()
	assert.Zero(t, tl.Table.Rows)

	cc.DisableTickLog()
	cc.ProcessDetailed(in)
	assert.Nil(t, cc.Ticks)
}
