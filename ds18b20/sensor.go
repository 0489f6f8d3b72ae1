// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds18b20

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Sensor adapts a Dev to physic.SenseEnv. It owns the Dev and polls it from
// its own goroutine every interval.
type Sensor struct {
	dev      *Dev
	interval time.Duration
	cycle    time.Duration
	readings chan Reading
	halt     chan struct{}
	done     chan struct{}
	once     sync.Once
	// devMu serializes Poll with String.
	devMu sync.Mutex

	mu         sync.Mutex
	continuous bool
}

// NewSensor returns a started Sensor. interval is the poll period; it must
// be shorter than a bit slot for full speed, anything longer only slows the
// cycle down.
func NewSensor(hw Hardware, interval time.Duration, opts *Opts) (*Sensor, error) {
	if interval <= 0 {
		return nil, errors.New("ds18b20: invalid poll interval")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	s := &Sensor{
		interval: interval,
		cycle:    opts.ConversionWait + opts.Pause,
		readings: make(chan Reading, 1),
		halt:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	d, err := New(hw, s.push, opts)
	if err != nil {
		return nil, err
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	s.dev = d
	go s.loop()
	return s, nil
}

func (s *Sensor) String() string {
	s.devMu.Lock()
	defer s.devMu.Unlock()
	return s.dev.String()
}

// Halt implements conn.Resource. It stops polling.
func (s *Sensor) Halt() error {
	s.once.Do(func() { close(s.halt) })
	<-s.done
	return s.dev.Halt()
}

// Sense implements physic.SenseEnv. It returns the next reading, or its
// error when the cycle failed.
func (s *Sensor) Sense(e *physic.Env) error {
	s.mu.Lock()
	c := s.continuous
	s.mu.Unlock()
	if c {
		return errors.New("ds18b20: SenseContinuous() running already")
	}
	select {
	case <-s.done:
		return errors.New("ds18b20: halted")
	default:
	}
	select {
	case r := <-s.readings:
		if err := r.Err(); err != nil {
			return err
		}
		e.Temperature = r.Temperature()
		return nil
	case <-s.done:
		return errors.New("ds18b20: halted")
	}
}

// SenseContinuous implements physic.SenseEnv. Readings arrive once per
// cycle, so interval can't be shorter than the conversion wait plus the
// pause. Failed cycles are skipped.
func (s *Sensor) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < s.cycle {
		return nil, fmt.Errorf("ds18b20: interval %s shorter than cycle %s", interval, s.cycle)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.continuous {
		return nil, errors.New("ds18b20: SenseContinuous() running already")
	}
	s.continuous = true
	ch := make(chan physic.Env, 16)
	go func() {
		defer close(ch)
		defer func() {
			s.mu.Lock()
			s.continuous = false
			s.mu.Unlock()
		}()
		var last time.Time
		for {
			select {
			case <-s.done:
				return
			case r := <-s.readings:
				if r.Err() != nil {
					continue
				}
				now := time.Now()
				if !last.IsZero() && now.Sub(last) < interval-s.interval {
					continue
				}
				last = now
				select {
				case ch <- physic.Env{Temperature: r.Temperature()}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

// Precision implements physic.SenseEnv.
func (s *Sensor) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 10
}

// push keeps only the latest reading.
func (s *Sensor) push(r Reading) {
	select {
	case s.readings <- r:
		return
	default:
	}
	select {
	case <-s.readings:
	default:
	}
	select {
	case s.readings <- r:
	default:
	}
}

func (s *Sensor) loop() {
	defer close(s.done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-s.halt:
			return
		case <-t.C:
			s.devMu.Lock()
			s.dev.Poll()
			s.devMu.Unlock()
		}
	}
}

var _ physic.SenseEnv = &Sensor{}
