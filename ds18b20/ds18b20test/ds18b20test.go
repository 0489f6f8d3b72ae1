// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ds18b20test implements a simulated sensor and bus behind
// ds18b20.Hardware, to test the driver and its users without hardware.
package ds18b20test

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/GermanBionicSystems/thermo/common"
	"github.com/GermanBionicSystems/thermo/ds18b20"
)

// Phase is the kind of timer run the driver armed.
type Phase int

const (
	Delay Phase = iota
	Reset
	Write
	Read
)

func (p Phase) String() string {
	switch p {
	case Delay:
		return "Delay"
	case Reset:
		return "Reset"
	case Write:
		return "Write"
	case Read:
		return "Read"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Default edge timestamps and read low times of a healthy sensor, in ticks.
const (
	DefaultRise     = 481
	DefaultPresence = 640
	DefaultOne      = 4
	DefaultZero     = 32
)

// Sim is one sensor on a bus, as seen through the timer and DMA.
//
// A reset with the sensor present captures Rise then Presence; without it
// only the end of the driver's own pulse is captured. Each read slot
// captures One or Zero for the scratchpad bit; without a sensor the bus is
// released right after the request pulse. Write runs are decoded back to
// bytes and appended to Commands.
//
// The zero value is a present sensor returning an all zero scratchpad.
type Sim struct {
	sync.Mutex
	Absent     bool
	Rise       uint16
	Presence   uint16
	One        byte
	Zero       byte
	Scratchpad ds18b20.Scratchpad
	// SetupErr is returned by Setup.
	SetupErr error
	// RealTime makes Done wait for the run to last as long as on a bus.
	RealTime bool
	// Stall keeps the current run from completing.
	Stall bool

	// Recorded activity.
	Setups   int
	Phases   []Phase
	Commands [][2]byte

	pending  bool
	deadline time.Time
	elapsed  time.Duration
}

// Setup implements ds18b20.Hardware.
func (s *Sim) Setup() error {
	s.Lock()
	defer s.Unlock()
	s.Setups++
	return s.SetupErr
}

// Arm implements ds18b20.Hardware.
func (s *Sim) Arm(t ds18b20.Timing, x *ds18b20.Transfer) {
	s.Lock()
	defer s.Unlock()
	if x != nil && x.Count*int(x.Width) > len(x.Buf) {
		panic(fmt.Sprintf("ds18b20test: transfer of %d x %d bytes into %d", x.Count, x.Width, len(x.Buf)))
	}
	switch {
	case x == nil:
		s.Phases = append(s.Phases, Delay)
	case x.Dir == ds18b20.MemToPeriph:
		s.Phases = append(s.Phases, Write)
		s.write(t, x)
	case x.Width == ds18b20.HalfWord:
		s.Phases = append(s.Phases, Reset)
		s.reset(t, x)
	default:
		s.Phases = append(s.Phases, Read)
		s.read(t, x)
	}
	d := t.Duration()
	s.elapsed += d
	s.deadline = time.Now().Add(d)
	s.pending = true
}

// Done implements ds18b20.Hardware.
func (s *Sim) Done() bool {
	s.Lock()
	defer s.Unlock()
	if !s.pending || s.Stall || (s.RealTime && time.Now().Before(s.deadline)) {
		return false
	}
	s.pending = false
	return true
}

// Elapsed returns the bus time of all runs armed so far.
func (s *Sim) Elapsed() time.Duration {
	s.Lock()
	defer s.Unlock()
	return s.elapsed
}

func (s *Sim) reset(t ds18b20.Timing, x *ds18b20.Transfer) {
	if s.Absent {
		binary.LittleEndian.PutUint16(x.Buf[0:], t.Low)
		return
	}
	rise, presence := s.Rise, s.Presence
	if rise == 0 {
		rise = DefaultRise
	}
	if presence == 0 {
		presence = DefaultPresence
	}
	binary.LittleEndian.PutUint16(x.Buf[0:], rise)
	binary.LittleEndian.PutUint16(x.Buf[2:], presence)
}

func (s *Sim) read(t ds18b20.Timing, x *ds18b20.Transfer) {
	one, zero := s.One, s.Zero
	if one == 0 {
		one = DefaultOne
	}
	if zero == 0 {
		zero = DefaultZero
	}
	for i := 0; i < x.Count; i++ {
		switch {
		case s.Absent:
			x.Buf[i] = byte(t.Low)
		case i/8 < len(s.Scratchpad) && s.Scratchpad[i/8]&(1<<uint(i%8)) != 0:
			x.Buf[i] = one
		default:
			x.Buf[i] = zero
		}
	}
}

func (s *Sim) write(t ds18b20.Timing, x *ds18b20.Transfer) {
	var c ds18b20.Command
	c[0] = byte(t.Low)
	copy(c[1:], x.Buf[:x.Count])
	if !s.Absent {
		s.Commands = append(s.Commands, c.Bytes())
	}
}

// Modern returns the scratchpad of a DS18B20 holding raw, in 1/16°C, with a
// valid CRC.
func Modern(raw int16) ds18b20.Scratchpad {
	s := ds18b20.Scratchpad{byte(raw), byte(raw >> 8), 0x4b, 0x46, 0x7f, 0xff, 0x0c, 0x10}
	s[8] = common.CRC8Maxim(s[:8])
	return s
}

// Legacy returns the scratchpad of a DS18S20 holding raw, in 1/2°C, and
// remain in its COUNT REMAIN register, with a valid CRC.
func Legacy(raw int16, remain byte) ds18b20.Scratchpad {
	s := ds18b20.Scratchpad{byte(raw), byte(raw >> 8), 0x4b, 0x46, 0xff, 0xff, remain, 0x10}
	s[8] = common.CRC8Maxim(s[:8])
	return s
}

// ModernCelsius returns the DS18B20 scratchpad closest to c.
func ModernCelsius(c float64) ds18b20.Scratchpad {
	return Modern(int16(math.Round(c * 16)))
}

// LegacyCelsius returns the DS18S20 scratchpad closest to c.
func LegacyCelsius(c float64) ds18b20.Scratchpad {
	whole := math.Floor(c)
	remain := 16 - math.Round((c-whole+0.25)*16)
	if remain < 0 {
		remain = 0
	}
	return Legacy(int16(whole*2), byte(remain))
}
