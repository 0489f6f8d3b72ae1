// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/GermanBionicSystems/thermo/ds18b20"
	"github.com/GermanBionicSystems/thermo/ds18b20/ds18b20test"
)

// recorder collects callbacks.
type recorder struct {
	readings []ds18b20.Reading
	busy     []bool
}

func (r *recorder) ready(v ds18b20.Reading) { r.readings = append(r.readings, v) }
func (r *recorder) setBusy(b bool)         { r.busy = append(r.busy, b) }

func newDev(t *testing.T, s *ds18b20test.Sim) (*ds18b20.Dev, *recorder) {
	r := &recorder{}
	opts := ds18b20.DefaultOpts
	opts.Busy = r.setBusy
	d, err := ds18b20.New(s, r.ready, &opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	return d, r
}

// cycle polls until one more reading is reported.
func cycle(t *testing.T, d *ds18b20.Dev, r *recorder) ds18b20.Reading {
	n := len(r.readings)
	for i := 0; i < 20; i++ {
		d.Poll()
		if len(r.readings) > n {
			return r.readings[n]
		}
	}
	t.Fatalf("no reading, stuck in %s", d.State())
	return 0
}

func TestDev_cycle(t *testing.T) {
	s := &ds18b20test.Sim{Scratchpad: ds18b20test.Modern(0x0550)}
	d, r := newDev(t, s)
	if s.Setups != 1 {
		t.Fatalf("Setup called %d times", s.Setups)
	}
	if got := cycle(t, d, r); got != 850 {
		t.Fatalf("reading %s", got)
	}
	want := []ds18b20test.Phase{
		ds18b20test.Delay, // start
		ds18b20test.Reset,
		ds18b20test.Write,
		ds18b20test.Delay, // conversion
		ds18b20test.Reset,
		ds18b20test.Write,
		ds18b20test.Read,
		ds18b20test.Delay, // pause
	}
	if !reflect.DeepEqual(s.Phases, want) {
		t.Fatalf("phases %v, want %v", s.Phases, want)
	}
	wantCmds := [][2]byte{{ds18b20.SkipROM, ds18b20.ConvertT}, {ds18b20.SkipROM, ds18b20.ReadScratchpad}}
	if !reflect.DeepEqual(s.Commands, wantCmds) {
		t.Fatalf("commands %#v", s.Commands)
	}
	if !reflect.DeepEqual(r.busy, []bool{true, false}) {
		t.Fatalf("busy %v", r.busy)
	}
	if f := d.Family(); f != ds18b20.DS18B20 {
		t.Fatal(f)
	}
	sp, ok := d.Scratchpad()
	if !ok || sp != s.Scratchpad {
		t.Fatalf("Scratchpad() = %#v, %t", sp, ok)
	}
	if st := d.State(); st != ds18b20.Idle {
		t.Fatal(st)
	}
	// 750ms conversion and 500ms pause, rounded up to whole delay slots.
	if e := s.Elapsed(); e < 1250*time.Millisecond || e > 1300*time.Millisecond {
		t.Fatalf("cycle lasted %s", e)
	}
}

func TestDev_legacy(t *testing.T) {
	s := &ds18b20test.Sim{Scratchpad: ds18b20test.Legacy(0xaa, 0x0c)}
	d, r := newDev(t, s)
	if got := cycle(t, d, r); got != 850 {
		t.Fatalf("reading %s", got)
	}
	if f := d.Family(); f != ds18b20.DS18S20 {
		t.Fatal(f)
	}
	s.Scratchpad = ds18b20test.LegacyCelsius(25.1)
	if got := cycle(t, d, r); got != 251 {
		t.Fatalf("reading %s", got)
	}
}

func TestDev_noSensor(t *testing.T) {
	s := &ds18b20test.Sim{Absent: true}
	d, r := newDev(t, s)
	if got := cycle(t, d, r); got != ds18b20.StatusNoSensor {
		t.Fatalf("reading %s", got)
	}
	if !errors.Is(r.readings[0].Err(), ds18b20.ErrNoSensor) {
		t.Fatal(r.readings[0].Err())
	}
	want := []ds18b20test.Phase{ds18b20test.Delay, ds18b20test.Reset, ds18b20test.Delay}
	if !reflect.DeepEqual(s.Phases, want) {
		t.Fatalf("phases %v", s.Phases)
	}
	if len(s.Commands) != 0 {
		t.Fatalf("commands sent to nobody: %v", s.Commands)
	}
	if !reflect.DeepEqual(r.busy, []bool{true, false}) {
		t.Fatalf("busy %v", r.busy)
	}
	if _, ok := d.Scratchpad(); ok {
		t.Fatal("no scratchpad expected")
	}
	if d.Family() != 0 {
		t.Fatal(d.Family())
	}
}

func TestDev_lostAfterConvert(t *testing.T) {
	s := &ds18b20test.Sim{Scratchpad: ds18b20test.Modern(0x0191)}
	d, r := newDev(t, s)
	for d.State() != ds18b20.Continue {
		d.Poll()
	}
	s.Absent = true
	if got := cycle(t, d, r); got != ds18b20.StatusNoSensor {
		t.Fatalf("reading %s", got)
	}
	s.Absent = false
	if got := cycle(t, d, r); got != 250 {
		t.Fatalf("reading %s", got)
	}
}

func TestDev_presenceWindow(t *testing.T) {
	data := []struct {
		rise, presence uint16
		want           ds18b20.Reading
	}{
		{480, 555, 850},
		{540, 840, 850},
		{479, 630, ds18b20.StatusNoSensor},
		{541, 630, ds18b20.StatusNoSensor},
		{500, 554, ds18b20.StatusNoSensor},
		{500, 841, ds18b20.StatusNoSensor},
	}
	for _, line := range data {
		s := &ds18b20test.Sim{Rise: line.rise, Presence: line.presence, Scratchpad: ds18b20test.Modern(0x0550)}
		d, r := newDev(t, s)
		if got := cycle(t, d, r); got != line.want {
			t.Fatalf("%d/%d: reading %s, want %s", line.rise, line.presence, got, line.want)
		}
	}
}

func TestDev_crc(t *testing.T) {
	sp := ds18b20test.Modern(0x0550)
	sp[8] ^= 0x01
	s := &ds18b20test.Sim{Scratchpad: sp}
	d, r := newDev(t, s)
	if got := cycle(t, d, r); got != ds18b20.StatusCRC {
		t.Fatalf("reading %s", got)
	}
	if _, ok := d.Scratchpad(); ok {
		t.Fatal("scratchpad must be discarded")
	}
	if d.Family() != 0 {
		t.Fatal(d.Family())
	}
	s.Scratchpad = ds18b20test.Modern(0x0550)
	if got := cycle(t, d, r); got != 850 {
		t.Fatalf("reading %s", got)
	}
}

func TestDev_slowRelease(t *testing.T) {
	// A 1 stretched to 11 ticks reads as a 0.
	s := &ds18b20test.Sim{One: ds18b20.ShortPulseMax + 1, Scratchpad: ds18b20test.Modern(0x0550)}
	d, r := newDev(t, s)
	if got := cycle(t, d, r); got != 0 {
		// All zeros passes the CRC.
		t.Fatalf("reading %s", got)
	}
	s.One = ds18b20.ShortPulseMax
	if got := cycle(t, d, r); got != 850 {
		t.Fatalf("reading %s", got)
	}
}

func TestDev_generic(t *testing.T) {
	s := &ds18b20test.Sim{Scratchpad: ds18b20test.Modern(0x0550)}
	d, r := newDev(t, s)
	d.SetState(ds18b20.State(99))
	d.Poll()
	if !reflect.DeepEqual(r.readings, []ds18b20.Reading{ds18b20.StatusGeneric}) {
		t.Fatalf("readings %v", r.readings)
	}
	if st := d.State(); st != ds18b20.Idle {
		t.Fatal(st)
	}
	if got := cycle(t, d, r); got != 850 {
		t.Fatalf("reading %s", got)
	}
}

func TestDev_cycles(t *testing.T) {
	s := &ds18b20test.Sim{}
	d, r := newDev(t, s)
	temps := []float64{21.5, -3.25, 85, 0, 124.9375, -55}
	want := []ds18b20.Reading{215, -33, 850, 0, 1249, -550}
	for i, c := range temps {
		s.Scratchpad = ds18b20test.ModernCelsius(c)
		if got := cycle(t, d, r); got != want[i] {
			t.Fatalf("%g: reading %s, want %s", c, got, want[i])
		}
	}
	if len(r.busy) != 2*len(temps) {
		t.Fatalf("busy %v", r.busy)
	}
	for i, b := range r.busy {
		if b != (i%2 == 0) {
			t.Fatalf("busy %v", r.busy)
		}
	}
	if len(s.Commands) != 2*len(temps) {
		t.Fatalf("%d commands", len(s.Commands))
	}
}

func TestDev_notDone(t *testing.T) {
	s := &ds18b20test.Sim{}
	d, r := newDev(t, s)
	d.Poll()
	if d.State() != ds18b20.Convert {
		t.Fatal(d.State())
	}
	s.Stall = true
	for i := 0; i < 10; i++ {
		d.Poll()
	}
	if d.State() != ds18b20.Convert || len(r.readings) != 0 || len(s.Phases) != 2 {
		t.Fatal("Poll must not advance while the hardware runs")
	}
	s.Stall = false
	d.Poll()
	if d.State() != ds18b20.Wait {
		t.Fatal(d.State())
	}
}

func TestDev_realTime(t *testing.T) {
	s := &ds18b20test.Sim{RealTime: true, Scratchpad: ds18b20test.Modern(0x0550)}
	r := &recorder{}
	d, err := ds18b20.New(s, r.ready, &ds18b20.Opts{ConversionWait: time.Millisecond, Pause: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	for len(r.readings) == 0 && time.Since(start) < 5*time.Second {
		d.Poll()
		time.Sleep(10 * time.Microsecond)
	}
	if len(r.readings) != 1 || r.readings[0] != 850 {
		t.Fatalf("readings %v", r.readings)
	}
	if e := time.Since(start); e < 62*time.Millisecond {
		t.Fatalf("conversion wait not honoured, cycle took %s", e)
	}
}

func TestDev_pollBeforeInit(t *testing.T) {
	s := &ds18b20test.Sim{}
	d, err := ds18b20.New(s, func(ds18b20.Reading) {}, nil)
	if err != nil {
		t.Fatal(err)
	}
	d.Poll()
	if len(s.Phases) != 0 {
		t.Fatalf("phases %v", s.Phases)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); err == nil {
		t.Fatal("second Init should fail")
	}
	if s := d.String(); s != "DS18x20{Idle}" {
		t.Fatal(s)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestNew_fail(t *testing.T) {
	ready := func(ds18b20.Reading) {}
	if _, err := ds18b20.New(nil, ready, nil); err == nil {
		t.Fatal("nil hardware")
	}
	if _, err := ds18b20.New(&ds18b20test.Sim{}, nil, nil); err == nil {
		t.Fatal("nil ready")
	}
	if _, err := ds18b20.New(&ds18b20test.Sim{}, ready, &ds18b20.Opts{Pause: time.Second}); err == nil {
		t.Fatal("zero conversion wait")
	}
	if _, err := ds18b20.New(&ds18b20test.Sim{}, ready, &ds18b20.Opts{ConversionWait: time.Second, Pause: time.Hour}); err == nil {
		t.Fatal("pause out of range")
	}
}

func TestInit_fail(t *testing.T) {
	s := &ds18b20test.Sim{SetupErr: errors.New("no clock")}
	d, err := ds18b20.New(s, func(ds18b20.Reading) {}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Init(); !errors.Is(err, s.SetupErr) {
		t.Fatalf("Init() = %v", err)
	}
	d.Poll()
	if len(s.Phases) != 0 {
		t.Fatal("nothing must be armed after a failed Init")
	}
}

func TestDev_repeatedFailures(t *testing.T) {
	bad := ds18b20test.Modern(0x0550)
	bad[8] ^= 0x80
	data := []struct {
		name string
		fail func(s *ds18b20test.Sim)
		want ds18b20.Reading
	}{
		{"absent", func(s *ds18b20test.Sim) { s.Absent = true }, ds18b20.StatusNoSensor},
		{"crc", func(s *ds18b20test.Sim) { s.Scratchpad = bad }, ds18b20.StatusCRC},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			s := &ds18b20test.Sim{Scratchpad: ds18b20test.Modern(0x0550)}
			d, r := newDev(t, s)
			if got := cycle(t, d, r); got != 850 {
				t.Fatalf("reading %s", got)
			}
			line.fail(s)
			var prevPhases []ds18b20test.Phase
			var prevCmds [][2]byte
			for i := 0; i < 5; i++ {
				p, c := len(s.Phases), len(s.Commands)
				r.readings, r.busy = nil, nil
				if got := cycle(t, d, r); got != line.want {
					t.Fatalf("#%d: reading %s", i, got)
				}
				if len(r.readings) != 1 || !reflect.DeepEqual(r.busy, []bool{true, false}) {
					t.Fatalf("#%d: readings %v busy %v", i, r.readings, r.busy)
				}
				if _, ok := d.Scratchpad(); ok {
					t.Fatalf("#%d: scratchpad leaked", i)
				}
				if f := d.Family(); f != 0 {
					t.Fatalf("#%d: family %s leaked", i, f)
				}
				if st := d.State(); st != ds18b20.Idle {
					t.Fatalf("#%d: state %s", i, st)
				}
				phases, cmds := s.Phases[p:], s.Commands[c:]
				if i > 0 && (!reflect.DeepEqual(phases, prevPhases) || !reflect.DeepEqual(cmds, prevCmds)) {
					t.Fatalf("#%d: phases %v commands %v, previous cycle %v %v", i, phases, cmds, prevPhases, prevCmds)
				}
				prevPhases, prevCmds = phases, cmds
			}
			s.Absent = false
			s.Scratchpad = ds18b20test.Modern(0x0550)
			if got := cycle(t, d, r); got != 850 {
				t.Fatalf("recovery reading %s", got)
			}
		})
	}
}
