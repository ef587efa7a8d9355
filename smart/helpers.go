// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"encoding/json"
	"strings"
)

// JsonToParams reformats json output to suit params display output
func JsonToParams(b []byte) string {
	br := strings.Replace(string(b), `"`, ``, -1)
	br = strings.Replace(br, ",\n", "", -1)
	br = strings.Replace(br, "{\n", "{", -1)
	br = strings.Replace(br, "} ", "}\n  ", -1)
	br = strings.Replace(br, "\n }", " }", -1)
	br = strings.Replace(br, "\n  }\n", " }", -1)
	return br[1:] + "\n"
}

// AllParams returns a listing of all parameters in the Layer
func (ly *Layer) AllParams() string {
	str := "///////////////////////////////////////////////////\nLayer: " + ly.Nm + "\n"
	var par any
	switch ly.Typ {
	case L1:
		par = ly.L1Par
	case L23:
		par = ly.L23Par
	case L4:
		par = ly.L4Par
	case L5:
		par = ly.L5Par
	case L6:
		par = ly.L6Par
	}
	if par != nil {
		b, _ := json.MarshalIndent(par, "", " ")
		str += "Params: {\n " + JsonToParams(b)
	}
	b, _ := json.MarshalIndent(&ly.Shunt.Params, "", " ")
	str += "Shunt: {\n " + JsonToParams(b)
	b, _ = json.MarshalIndent(&ly.Shunt.Kernel, "", " ")
	str += "Kernel: {\n " + JsonToParams(b)
	if ly.Gate != nil {
		b, _ = json.MarshalIndent(&ly.Gate.Params, "", " ")
		str += "Xmit: {\n " + JsonToParams(b)
	}
	b, _ = json.MarshalIndent(&ly.WtInit, "", " ")
	str += "WtInit: {\n " + JsonToParams(b)
	return str
}

// AllParams returns a listing of all parameters in the Circuit
func (cc *CorticalCircuit) AllParams() string {
	str := "///////////////////////////////////////////////////\nCircuit\n"
	for _, ly := range cc.Layers() {
		str += ly.AllParams()
	}
	return str
}
