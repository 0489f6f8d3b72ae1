// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import "encoding/binary"

// PulseCount is the number of read slots needed for the whole scratchpad.
const PulseCount = ScratchpadLen * 8

const edgeCount = 2

// view selects how the acquisition buffer is currently interpreted.
type view uint8

const (
	viewNone view = iota
	viewEdges
	viewPulses
	viewScratchpad
)

// acquisition is the per-bus context. A single buffer is reused by the three
// phases that need memory and each accessor only answers while its view is
// the current one:
//
//   - edges: two half-word capture timestamps, reset and presence;
//   - pulses: one byte per read slot, the low time seen by the capture;
//   - scratchpad: the decoded and CRC checked register file.
//
// It is overwritten in place each cycle and never reallocated.
type acquisition struct {
	buf    [PulseCount]byte
	view   view
	state  State
	family Family
	xfer   Transfer
}

// reset fills the buffer with ones so a capture that never happened reads
// as an impossible value rather than as zero.
func (a *acquisition) reset() {
	for i := range a.buf {
		a.buf[i] = 0xff
	}
	a.view = viewNone
	a.family = 0
}

func (a *acquisition) edgeTransfer() *Transfer {
	a.view = viewEdges
	a.xfer = Transfer{Dir: PeriphToMem, Buf: a.clear(edgeCount * 2), Width: HalfWord, Count: edgeCount}
	return &a.xfer
}

func (a *acquisition) pulseTransfer() *Transfer {
	a.view = viewPulses
	a.xfer = Transfer{Dir: PeriphToMem, Buf: a.clear(PulseCount), Width: Byte, Count: PulseCount}
	return &a.xfer
}

// clear drops what a previous phase left in the first n bytes, so edges
// from the reset before the convert command can't pass for a presence
// pulse after the wait.
func (a *acquisition) clear(n int) []byte {
	b := a.buf[:n]
	for i := range b {
		b[i] = 0xff
	}
	return b
}

func (a *acquisition) commandTransfer(c *Command) *Transfer {
	a.xfer = Transfer{Dir: MemToPeriph, Buf: c[1:], Width: Byte, Count: CommandBits}
	return &a.xfer
}

func (a *acquisition) edges() (rise, presence uint16, ok bool) {
	if a.view != viewEdges {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint16(a.buf[0:]), binary.LittleEndian.Uint16(a.buf[2:]), true
}

func (a *acquisition) pulses() (*[PulseCount]byte, bool) {
	if a.view != viewPulses {
		return nil, false
	}
	return &a.buf, true
}

func (a *acquisition) store(s *Scratchpad, f Family) {
	copy(a.buf[:], s[:])
	for i := ScratchpadLen; i < len(a.buf); i++ {
		a.buf[i] = 0xff
	}
	a.view = viewScratchpad
	a.family = f
}

func (a *acquisition) scratchpad() (Scratchpad, bool) {
	var s Scratchpad
	if a.view != viewScratchpad {
		return s, false
	}
	copy(s[:], a.buf[:ScratchpadLen])
	return s, true
}

// presenceOK reports whether both captured edges fall in the windows of a
// sensor answering a reset. Bounds are inclusive.
func presenceOK(rise, presence uint16) bool {
	return rise >= resetPulseMin && rise <= resetPulseMax &&
		presence >= presencePulseMin && presence <= presencePulseMax
}
