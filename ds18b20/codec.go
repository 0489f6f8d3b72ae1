// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

// ROM and function commands, datasheet p.10-12.
const (
	SkipROM        = 0xcc
	ConvertT       = 0x44
	ReadScratchpad = 0xbe
)

// CommandBits is the number of time slots used to send a command.
const CommandBits = 16

// Command is a ROM command and a function command expanded to one low-time
// width per bit, LSB first, followed by a zero width that leaves the bus
// released once the last slot ends.
type Command [CommandBits + 1]byte

// NewCommand expands rom and fn into a Command.
func NewCommand(rom, fn byte) Command {
	var c Command
	for i, b := range [2]byte{rom, fn} {
		for bit := uint(0); bit < 8; bit++ {
			c[i*8+int(bit)] = PulseWidth(b, bit)
		}
	}
	return c
}

// Bytes decodes the command back from its widths.
func (c *Command) Bytes() [2]byte {
	var out [2]byte
	for i := 0; i < CommandBits; i++ {
		if DecodeBit(c[i]) {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// PulseWidth returns the low time that writes bit of b.
func PulseWidth(b byte, bit uint) byte {
	if b&(1<<bit) != 0 {
		return OnePulse
	}
	return ZeroPulse
}

// DecodeBit returns the logic level of a read slot in which the bus stayed
// low for width ticks.
func DecodeBit(width byte) bool {
	return width <= ShortPulseMax
}

// DecodePulses converts the 72 captured read slots into scratchpad bytes,
// LSB first.
func DecodePulses(p *[PulseCount]byte) Scratchpad {
	var s Scratchpad
	for i, w := range p {
		if DecodeBit(w) {
			s[i/8] |= 1 << uint(i%8)
		}
	}
	return s
}

var (
	convertCmd = NewCommand(SkipROM, ConvertT)
	readCmd    = NewCommand(SkipROM, ReadScratchpad)
)
