// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
)

// Opts contains options to pass to the constructor.
type Opts struct {
	// ConversionWait is armed between the convert and read commands. 750ms
	// covers a 12 bit conversion.
	ConversionWait time.Duration
	// Pause is armed after every outcome before the next cycle starts.
	Pause time.Duration
	// Busy, if set, is told when a cycle starts and ends.
	Busy BusyFunc
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	ConversionWait: 750 * time.Millisecond,
	Pause:          500 * time.Millisecond,
}

// New returns a Dev that acquires temperatures from the single sensor on
// the bus driven by hw, reporting every outcome to ready.
//
// Call Init once, then Poll from the main loop.
func New(hw Hardware, ready ReadyFunc, opts *Opts) (*Dev, error) {
	if hw == nil {
		return nil, errors.New("ds18b20: nil hardware")
	}
	if ready == nil {
		return nil, errors.New("ds18b20: nil ready callback")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	wait, err := Delay(opts.ConversionWait)
	if err != nil {
		return nil, fmt.Errorf("ds18b20: conversion wait: %w", err)
	}
	pause, err := Delay(opts.Pause)
	if err != nil {
		return nil, fmt.Errorf("ds18b20: pause: %w", err)
	}
	d := &Dev{hw: hw, ready: ready, busy: opts.Busy, wait: wait, pause: pause}
	if d.busy == nil {
		d.busy = func(bool) {}
	}
	return d, nil
}

// Dev is a non-blocking DS18B20/DS18S20 driver. Every bus transition is
// generated or captured by the timer and DMA behind Hardware; Poll only
// checks for completion and arms the next phase.
//
// Dev is not safe for concurrent use. Sensor wraps it for goroutine use.
type Dev struct {
	hw     Hardware
	ready  ReadyFunc
	busy   BusyFunc
	wait   Timing
	pause  Timing
	acq    acquisition
	inited bool
}

// Init sets up the hardware and arms the first cycle.
func (d *Dev) Init() error {
	if d.inited {
		return errors.New("ds18b20: already initialized")
	}
	if err := d.hw.Setup(); err != nil {
		return fmt.Errorf("ds18b20: setup: %w", err)
	}
	d.inited = true
	d.acq.state = Idle
	d.hw.Arm(startTiming, nil)
	return nil
}

// State returns the state the next completed phase will be handled in.
func (d *Dev) State() State {
	return d.acq.state
}

// Family returns the family detected by the last successful decode, 0 when
// none is available.
func (d *Dev) Family() Family {
	return d.acq.family
}

// Scratchpad returns the last CRC checked scratchpad. It is available from
// the decode until the next cycle starts.
func (d *Dev) Scratchpad() (Scratchpad, bool) {
	return d.acq.scratchpad()
}

func (d *Dev) String() string {
	return fmt.Sprintf("DS18x20{%s}", d.acq.state)
}

// Halt implements conn.Resource.
//
// The phase in flight completes in hardware; nothing is armed after it
// unless Poll is called again.
func (d *Dev) Halt() error {
	return nil
}

var _ conn.Resource = &Dev{}
