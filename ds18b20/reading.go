// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Reading is the outcome of one acquisition cycle: a temperature in tenths
// of a degree Celsius, or one of the Status values which all lie below the
// sensor range.
type Reading int16

const (
	// StatusGeneric means the state machine found no transition to take.
	StatusGeneric Reading = math.MinInt16 + iota
	// StatusNoSensor means no presence pulse followed a bus reset.
	StatusNoSensor
	// StatusCRC means the scratchpad failed its CRC and was discarded.
	StatusCRC
)

// Sensor range in tenths of a degree.
const (
	MinTenths Reading = -550
	MaxTenths Reading = 1250
)

var (
	ErrGeneric  error = busError("ds18b20: no transition from current state")
	ErrNoSensor error = busError("ds18b20: no device present")
	ErrCRC      error = busError("ds18b20: incorrect scratchpad CRC")
)

// Err returns the error matching a Status value, nil for a temperature.
func (r Reading) Err() error {
	switch r {
	case StatusGeneric:
		return ErrGeneric
	case StatusNoSensor:
		return ErrNoSensor
	case StatusCRC:
		return ErrCRC
	}
	return nil
}

// Temperature converts a temperature Reading.
func (r Reading) Temperature() physic.Temperature {
	return physic.ZeroCelsius + (physic.Celsius/10)*physic.Temperature(r)
}

func (r Reading) String() string {
	if err := r.Err(); err != nil {
		return err.Error()
	}
	sign := ""
	v := int(r)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%d°C", sign, v/10, v%10)
}

// ReadyFunc receives the outcome of every acquisition cycle. It is called
// from within Poll and must return quickly.
type ReadyFunc func(r Reading)

// BusyFunc is told when an acquisition starts and ends. It has no protocol
// meaning.
type BusyFunc func(active bool)

// BusyPin returns a BusyFunc that lights an indicator on p. Errors driving
// the pin are ignored.
func BusyPin(p gpio.PinOut, activeLow bool) BusyFunc {
	return func(active bool) {
		_ = p.Out(gpio.Level(active != activeLow))
	}
}

// busError implements error and onewire.BusError.
type busError string

func (e busError) Error() string  { return string(e) }
func (e busError) BusError() bool { return true }
