// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package event is the bounded queue between the acquisition engine's
// result callback and the application loop.
package event

import (
	"fmt"

	"github.com/GermanBionicSystems/thermo/ds18b20"
)

// Type is the kind of an Event.
type Type uint8

const (
	None Type = iota
	// TemperatureReady carries a temperature in tenths of a degree.
	TemperatureReady
	// SensorFault carries the failed ds18b20.Reading.
	SensorFault
)

func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case TemperatureReady:
		return "TemperatureReady"
	case SensorFault:
		return "SensorFault"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Event is one application event.
type Event struct {
	Type  Type
	Value ds18b20.Reading
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Type, e.Value)
}

// Capacity is the number of events a Queue holds.
const Capacity = 16

// Queue is a fixed size FIFO. It never allocates and drops new events when
// full.
//
// Queue is not safe for concurrent use; it is fed and drained from the same
// loop that polls the engine.
type Queue struct {
	buf        [Capacity]Event
	head, size int
	dropped    int
}

// Push appends e and reports whether there was room for it.
func (q *Queue) Push(e Event) bool {
	if q.size == Capacity {
		q.dropped++
		return false
	}
	q.buf[(q.head+q.size)%Capacity] = e
	q.size++
	return true
}

// Pop removes and returns the oldest event.
func (q *Queue) Pop() (Event, bool) {
	if q.size == 0 {
		return Event{}, false
	}
	e := q.buf[q.head]
	q.buf[q.head] = Event{}
	q.head = (q.head + 1) % Capacity
	q.size--
	return e, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return q.size
}

// Dropped returns the number of events Push refused.
func (q *Queue) Dropped() int {
	return q.dropped
}

// Ready is a ds18b20.ReadyFunc turning every outcome into an event.
func (q *Queue) Ready(r ds18b20.Reading) {
	t := TemperatureReady
	if r.Err() != nil {
		t = SensorFault
	}
	q.Push(Event{Type: t, Value: r})
}

var _ ds18b20.ReadyFunc = (&Queue{}).Ready
