// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/thermo/ds18b20"
	"github.com/GermanBionicSystems/thermo/event"
	"github.com/GermanBionicSystems/thermo/report"
)

// monitor is the application super-loop: it polls the engine, drains the
// event queue the result callback feeds and hands records to the sinks.
type monitor struct {
	dev    *ds18b20.Dev
	queue  event.Queue
	sinks  []report.Sink
	logger *log.Logger
	now    func() time.Time
	led    ds18b20.BusyFunc

	started time.Time
	elapsed time.Duration
	cycles  int
	faults  int
}

func newMonitor(hw ds18b20.Hardware, opts ds18b20.Opts, led ds18b20.BusyFunc, sinks []report.Sink, logger *log.Logger) (*monitor, error) {
	m := &monitor{sinks: sinks, logger: logger, now: time.Now, led: led}
	opts.Busy = m.busy
	d, err := ds18b20.New(hw, m.queue.Ready, &opts)
	if err != nil {
		return nil, err
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	m.dev = d
	return m, nil
}

func (m *monitor) busy(active bool) {
	if active {
		m.started = m.now()
	} else if !m.started.IsZero() {
		m.elapsed = m.now().Sub(m.started)
		m.started = time.Time{}
	}
	if m.led != nil {
		m.led(active)
	}
}

// step polls once and dispatches what the poll produced.
func (m *monitor) step() error {
	m.dev.Poll()
	for {
		e, ok := m.queue.Pop()
		if !ok {
			return nil
		}
		m.cycles++
		r := report.Record{Time: m.now(), Reading: e.Value, Family: m.dev.Family(), Elapsed: m.elapsed}
		m.elapsed = 0
		if e.Type == event.SensorFault {
			m.faults++
			m.logger.Printf("cycle %d: %v", m.cycles, e.Value.Err())
		}
		for _, s := range m.sinks {
			if err := s.Write(&r); err != nil {
				return fmt.Errorf("%s: %w", s, err)
			}
		}
	}
}

// run steps every interval until ctx is done or, when cycles is positive,
// that many cycles completed.
func (m *monitor) run(ctx context.Context, interval time.Duration, cycles int) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for cycles <= 0 || m.cycles < cycles {
		if err := m.step(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
	return nil
}

// close halts the engine, turns the indicator off and closes the sinks.
func (m *monitor) close() error {
	var first error
	if err := m.dev.Halt(); err != nil {
		first = err
	}
	if m.led != nil {
		m.led(false)
	}
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
