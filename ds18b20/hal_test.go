// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"testing"
	"time"
)

func TestDelay(t *testing.T) {
	slot := time.Duration(delayPeriod+1) * Tick
	data := []struct {
		d     time.Duration
		slots int
	}{
		{time.Microsecond, 1},
		{slot, 1},
		{slot + time.Microsecond, 2},
		{500 * time.Millisecond, 8},
		{750 * time.Millisecond, 12},
		{maxSlots * slot, maxSlots},
	}
	for _, line := range data {
		tm, err := Delay(line.d)
		if err != nil {
			t.Fatalf("Delay(%s): %v", line.d, err)
		}
		if tm.Slots != line.slots || tm.Period != delayPeriod || tm.Drive || tm.Capture {
			t.Fatalf("Delay(%s) = %+v", line.d, tm)
		}
		if tm.Duration() < line.d {
			t.Fatalf("Delay(%s) lasts only %s", line.d, tm.Duration())
		}
	}
}

func TestDelay_fail(t *testing.T) {
	slot := time.Duration(delayPeriod+1) * Tick
	for _, d := range []time.Duration{0, -time.Second, maxSlots*slot + time.Microsecond, time.Minute} {
		if _, err := Delay(d); err == nil {
			t.Fatalf("Delay(%s) should fail", d)
		}
	}
}

func TestTiming_Duration(t *testing.T) {
	if d := resetTiming.Duration(); d != 961*time.Microsecond {
		t.Fatal(d)
	}
	if d := readTiming.Duration(); d != PulseCount*63*time.Microsecond {
		t.Fatal(d)
	}
	if d := startTiming.Duration(); d != 2*time.Microsecond {
		t.Fatal(d)
	}
}

func TestDirection_String(t *testing.T) {
	if s := MemToPeriph.String(); s != "mem->periph" {
		t.Fatal(s)
	}
	if s := PeriphToMem.String(); s != "periph->mem" {
		t.Fatal(s)
	}
}
