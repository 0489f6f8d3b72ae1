// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"fmt"
	"time"
)

// Tick is the timer resolution Hardware.Setup must configure.
const Tick = time.Microsecond

// Bus timing in Tick units, datasheet p.15-16.
const (
	resetPulseMin    = 480
	resetPulseMax    = 540
	positiveWidthMin = 15
	positiveWidthMax = 60
	negativeWidthMin = 60
	negativeWidthMax = 240
	presencePulseMin = resetPulseMin + positiveWidthMin + negativeWidthMin
	presencePulseMax = resetPulseMax + positiveWidthMax + negativeWidthMax
	// resetSlot leaves a full reset pulse width for the presence response.
	resetSlot = 2 * resetPulseMin

	// OnePulse is how long the bus is held low to write a 1, and to request
	// a bit during a read slot.
	OnePulse = 1
	// ZeroPulse is how long the bus is held low to write a 0.
	ZeroPulse = 60
	// ShortPulseMax is the longest low time observed in a read slot that
	// still decodes as a 1.
	ShortPulseMax = 10
	// bitSlot is the auto-reload value of one write or read time slot.
	bitSlot = OnePulse + ZeroPulse + 1

	// delayPeriod is the auto-reload value used for long delays, 62.5ms.
	delayPeriod = 62500
	// maxSlots is the reach of the 8 bit repetition counter.
	maxSlots = 256
)

// Timing is the program of the timer channel pair for one protocol phase.
//
// The timer runs once (one-pulse mode) through Slots identical slots without
// CPU involvement and raises its update flag when the last one ends. Each
// slot lasts Period+1 ticks.
type Timing struct {
	Period  uint16 // auto-reload value
	Slots   int    // 1..256, loaded into the repetition counter as Slots-1
	Low     uint16 // ticks the output channel holds the bus low in the first slot
	Drive   bool   // output-compare channel drives the bus
	Capture bool   // input-capture channel timestamps rising edges
	// Trigger is the tick within a slot at which the next streamed width is
	// fetched by DMA. Zero means DMA requests follow the capture channel.
	Trigger uint16
}

// Duration returns how long the timer runs.
func (t Timing) Duration() time.Duration {
	return time.Duration(int(t.Period)+1) * time.Duration(t.Slots) * Tick
}

// Delay returns a Timing that drives nothing and completes after at least d.
func Delay(d time.Duration) (Timing, error) {
	slot := time.Duration(delayPeriod+1) * Tick
	n := int((d + slot - 1) / slot)
	if n < 1 || n > maxSlots {
		return Timing{}, fmt.Errorf("ds18b20: delay %s out of range %s..%s", d, slot, maxSlots*slot)
	}
	return Timing{Period: delayPeriod, Slots: n}, nil
}

// Direction of a DMA transfer.
type Direction uint8

const (
	// PeriphToMem streams captured timer values into memory.
	PeriphToMem Direction = iota
	// MemToPeriph streams memory into the output-compare register.
	MemToPeriph
)

func (d Direction) String() string {
	if d == MemToPeriph {
		return "mem->periph"
	}
	return "periph->mem"
}

// Width is the memory-side element size of a DMA transfer in bytes.
type Width uint8

const (
	Byte     Width = 1
	HalfWord Width = 2
)

// Transfer describes one one-shot DMA transfer paired with a Timing.
//
// Half-word elements are stored little endian, as the DMA controller of a
// Cortex-M writes them.
type Transfer struct {
	Dir   Direction
	Buf   []byte
	Width Width
	Count int // number of elements
}

// Hardware is the register-level surface the engine drives: one timer with
// an output-compare and an input-capture channel on the bus pin, and the two
// DMA channels serving them.
//
// The engine owns it exclusively; nothing else may touch these peripherals.
type Hardware interface {
	// Setup puts the bus pin in open-drain alternate-function mode, enables
	// the timer and DMA clocks and sets the timer prescaler to count Tick.
	Setup() error
	// Arm programs and starts one timer run with its DMA transfer. x is nil
	// for a pure delay. Arm returns as soon as the hardware is started.
	Arm(t Timing, x *Transfer)
	// Done reports whether the timer update flag is set and clears it.
	Done() bool
}

var (
	// startTiming completes after one tick so the first Poll starts a cycle.
	startTiming = Timing{Period: 1, Slots: 1}
	// resetTiming holds the bus low for a reset pulse then listens for the
	// presence pulse, capturing two rising edges.
	resetTiming = Timing{Period: resetSlot, Slots: 1, Low: resetPulseMin, Drive: true, Capture: true}
	// readTiming generates one read time slot per scratchpad bit and
	// captures when the sensor releases the bus in each.
	readTiming = Timing{Period: bitSlot, Slots: PulseCount, Low: OnePulse, Drive: true, Capture: true}
)

// writeTiming sends c, the first width preloaded and the rest streamed.
func writeTiming(c *Command) Timing {
	return Timing{
		Period:  bitSlot,
		Slots:   CommandBits,
		Low:     uint16(c[0]),
		Drive:   true,
		Trigger: OnePulse + ZeroPulse,
	}
}
