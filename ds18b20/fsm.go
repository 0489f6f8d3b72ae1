// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

// State of the acquisition cycle. States run in declaration order and wrap
// back to Idle.
type State uint8

const (
	Idle State = iota
	Start
	Convert
	Wait
	Continue
	Request
	Read
	Decode
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Start:
		return "Start"
	case Convert:
		return "Convert"
	case Wait:
		return "Wait"
	case Continue:
		return "Continue"
	case Request:
		return "Request"
	case Read:
		return "Read"
	case Decode:
		return "Decode"
	default:
		return "State(?)"
	}
}

// transition is one row of the state table. A nil guard always passes.
// chain dispatches again in the same Poll, for actions that arm no hardware.
type transition struct {
	state  State
	guard  func(d *Dev) bool
	action func(d *Dev)
	next   State
	chain  bool
}

// transitions is scanned in order, the first matching row wins.
var transitions = [...]transition{
	{state: Idle, action: (*Dev).idle, next: Start, chain: true},
	{state: Start, action: (*Dev).start, next: Convert},
	{state: Convert, guard: (*Dev).present, action: (*Dev).convert, next: Wait},
	{state: Convert, guard: (*Dev).absent, action: (*Dev).noSensor, next: Idle},
	{state: Wait, action: (*Dev).waitConversion, next: Continue},
	{state: Continue, action: (*Dev).resetBus, next: Request},
	{state: Request, guard: (*Dev).present, action: (*Dev).request, next: Read},
	{state: Request, guard: (*Dev).absent, action: (*Dev).noSensor, next: Idle},
	{state: Read, action: (*Dev).read, next: Decode},
	{state: Decode, action: (*Dev).decode, next: Idle},
}

// Poll advances the cycle by one phase if the hardware finished the
// previous one, and returns immediately otherwise.
//
// It must be called more often than the shortest phase lasts. Calling it
// late only delays the cycle.
func (d *Dev) Poll() {
	if !d.inited || !d.hw.Done() {
		return
	}
	for {
		t := d.match()
		if t == nil {
			d.finish(StatusGeneric)
			d.acq.state = Idle
			return
		}
		t.action(d)
		d.acq.state = t.next
		if !t.chain {
			return
		}
	}
}

func (d *Dev) match() *transition {
	for i := range transitions {
		t := &transitions[i]
		if t.state == d.acq.state && (t.guard == nil || t.guard(d)) {
			return t
		}
	}
	return nil
}

// Guards.

func (d *Dev) present() bool {
	rise, presence, ok := d.acq.edges()
	return ok && presenceOK(rise, presence)
}

func (d *Dev) absent() bool {
	return !d.present()
}

// Actions.

func (d *Dev) idle() {
	d.acq.reset()
}

func (d *Dev) start() {
	d.busy(true)
	d.resetBus()
}

func (d *Dev) resetBus() {
	d.hw.Arm(resetTiming, d.acq.edgeTransfer())
}

func (d *Dev) convert() {
	d.send(&convertCmd)
}

func (d *Dev) request() {
	d.send(&readCmd)
}

func (d *Dev) send(c *Command) {
	d.hw.Arm(writeTiming(c), d.acq.commandTransfer(c))
}

func (d *Dev) waitConversion() {
	d.hw.Arm(d.wait, nil)
}

func (d *Dev) read() {
	d.hw.Arm(readTiming, d.acq.pulseTransfer())
}

func (d *Dev) noSensor() {
	d.finish(StatusNoSensor)
}

func (d *Dev) decode() {
	p, ok := d.acq.pulses()
	if !ok {
		d.finish(StatusGeneric)
		return
	}
	s := DecodePulses(p)
	if !s.Valid() {
		d.acq.reset()
		d.finish(StatusCRC)
		return
	}
	f := s.Family()
	d.acq.store(&s, f)
	d.finish(Reading(s.Tenths(f)))
}

// finish reports the outcome of the cycle and arms the pause before the
// next one.
func (d *Dev) finish(r Reading) {
	d.busy(false)
	d.ready(r)
	d.hw.Arm(d.pause, nil)
}
