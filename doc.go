// Copyright (c) 2024, The SMART Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package smart is the overall repository for the SMART laminar cortical
simulation engine implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* smart: the core laminar circuit -- the five cortical layers (L1, L2/3,
L4, L5, L6), the cortical circuit that schedules the bottom-up, top-down
and priming pathways across them, resonance detection, and the gated
online learning controller with its Hebbian / instar / outstar rules.

* shunt: Grossberg shunting dynamics -- the bounded activation ODE with
multiplicative excitation / inhibition and lateral kernels (Gaussian
excitation, broader inhibition, Mexican-hat profiles).

* xmit: habituative transmitter gates -- the slowly-recovering
multiplicative modulators that deplete with use and gate layer outputs.

* wm: STORE-2 style primacy-gradient working memory over ordered item
sequences.

* mask: the masking field -- competitive item nodes and the list chunks
they commit to.

* temporal: the thin coordinator that pipes working-memory output into
the masking field and exposes the chunk stream.

* osc: rolling-buffer oscillation analysis (dominant frequency, phase,
amplitude, gamma-band detection) used for resonance metrics.
*/
package smart
