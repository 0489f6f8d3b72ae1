// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/physic"
)

func TestReading_String(t *testing.T) {
	data := []struct {
		r    Reading
		want string
	}{
		{850, "85.0°C"},
		{251, "25.1°C"},
		{0, "0.0°C"},
		{-5, "-0.5°C"},
		{-102, "-10.2°C"},
		{MinTenths, "-55.0°C"},
		{StatusNoSensor, ErrNoSensor.Error()},
		{StatusCRC, ErrCRC.Error()},
		{StatusGeneric, ErrGeneric.Error()},
	}
	for _, line := range data {
		if s := line.r.String(); s != line.want {
			t.Fatalf("%d: String() = %q, want %q", int16(line.r), s, line.want)
		}
	}
}

func TestReading_Err(t *testing.T) {
	if err := Reading(850).Err(); err != nil {
		t.Fatal(err)
	}
	for _, r := range []Reading{StatusGeneric, StatusNoSensor, StatusCRC} {
		err := r.Err()
		if err == nil {
			t.Fatal("expected error")
		}
		if r >= MinTenths {
			t.Fatalf("status %d overlaps the sensor range", r)
		}
		if !onewire.IsBusError(err) {
			t.Fatalf("%v should be a bus error", err)
		}
	}
	if !errors.Is(StatusCRC.Err(), ErrCRC) {
		t.Fatal("expected ErrCRC")
	}
}

func TestReading_Temperature(t *testing.T) {
	if got := Reading(850).Temperature(); got != physic.ZeroCelsius+85*physic.Celsius {
		t.Fatal(got)
	}
	if got := Reading(-5).Temperature(); got != physic.ZeroCelsius-physic.Celsius/2 {
		t.Fatal(got)
	}
}

func TestBusyPin(t *testing.T) {
	p := &gpiotest.Pin{N: "LED"}
	b := BusyPin(p, true)
	b(true)
	if l := p.Read(); l != gpio.Low {
		t.Fatal("active low indicator should be driven low")
	}
	b(false)
	if l := p.Read(); l != gpio.High {
		t.Fatal("inactive indicator should be driven high")
	}
	b = BusyPin(p, false)
	b(true)
	if l := p.Read(); l != gpio.High {
		t.Fatal("active high indicator should be driven high")
	}
}
