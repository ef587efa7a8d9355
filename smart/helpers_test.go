// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllParams(t *testing.T) {
	cc := testCircuit(t, 8)
	str := cc.AllParams()
	for _, nm := range []string{"L1", "L2/3", "L4", "L5", "L6"} {
		assert.True(t, strings.Contains(str, "Layer: "+nm), "missing %s listing", nm)
	}
	assert.True(t, strings.Contains(str, "TimeConstant"))
	assert.True(t, strings.Contains(str, "Shunt"))
}
