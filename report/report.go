// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package report writes acquisition outcomes out: as text lines in the
// wording of the sensor board's UART, or as CBOR frames for a serial link or
// a WebSocket.
package report

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/thermo/ds18b20"
)

// Record is one acquisition outcome.
type Record struct {
	Time    time.Time
	Reading ds18b20.Reading
	// Family is the detected sensor family, 0 when the cycle failed.
	Family ds18b20.Family
	// Elapsed is the cycle duration from bus reset to result, 0 if unknown.
	Elapsed time.Duration
}

// Sink receives records.
type Sink interface {
	Write(r *Record) error
	Close() error
}

// Line formats r without line terminator:
//
//	Temperature: 25.1 C
//	Temperature: -0.5 C (1258032 us)
//	DS18B20 error: no sensor detected.
func Line(r *Record) string {
	switch r.Reading {
	case ds18b20.StatusNoSensor:
		return "DS18B20 error: no sensor detected."
	case ds18b20.StatusCRC:
		return "DS18B20 error: CRC check failed."
	case ds18b20.StatusGeneric:
		return "DS18B20 error: generic failure."
	}
	v := int(r.Reading)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := fmt.Sprintf("Temperature: %s%d.%d C", sign, v/10, v%10)
	if r.Elapsed > 0 {
		s += fmt.Sprintf(" (%d us)", r.Elapsed.Microseconds())
	}
	return s
}
