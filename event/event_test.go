// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GermanBionicSystems/thermo/ds18b20"
	"github.com/GermanBionicSystems/thermo/ds18b20/ds18b20test"
)

func TestQueue_fifo(t *testing.T) {
	var q Queue
	_, ok := q.Pop()
	assert.False(t, ok)
	for i := 0; i < Capacity; i++ {
		require.True(t, q.Push(Event{Type: TemperatureReady, Value: ds18b20.Reading(i)}))
	}
	assert.False(t, q.Push(Event{Type: TemperatureReady, Value: 999}), "17th event must be dropped")
	assert.Equal(t, Capacity, q.Len())
	assert.Equal(t, 1, q.Dropped())
	for i := 0; i < Capacity; i++ {
		e, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, ds18b20.Reading(i), e.Value)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_wrap(t *testing.T) {
	var q Queue
	next := 0
	for round := 0; round < 5; round++ {
		for i := 0; i < 11; i++ {
			require.True(t, q.Push(Event{Value: ds18b20.Reading(round*11 + i)}))
		}
		for i := 0; i < 11; i++ {
			e, ok := q.Pop()
			require.True(t, ok)
			assert.Equal(t, ds18b20.Reading(next), e.Value)
			next++
		}
	}
	assert.Equal(t, 0, q.Dropped())
}

func TestQueue_Ready(t *testing.T) {
	var q Queue
	q.Ready(215)
	q.Ready(ds18b20.StatusNoSensor)
	q.Ready(ds18b20.StatusCRC)
	e, _ := q.Pop()
	assert.Equal(t, Event{Type: TemperatureReady, Value: 215}, e)
	assert.Equal(t, "TemperatureReady(21.5°C)", e.String())
	e, _ = q.Pop()
	assert.Equal(t, SensorFault, e.Type)
	assert.Equal(t, ds18b20.StatusNoSensor, e.Value)
	e, _ = q.Pop()
	assert.Equal(t, SensorFault, e.Type)
	assert.Equal(t, "Type(9)", Type(9).String())
}

func TestQueue_engine(t *testing.T) {
	var q Queue
	s := &ds18b20test.Sim{Scratchpad: ds18b20test.ModernCelsius(-3.5)}
	d, err := ds18b20.New(s, q.Ready, nil)
	require.NoError(t, err)
	require.NoError(t, d.Init())
	for i := 0; i < 200; i++ {
		d.Poll()
	}
	// Nobody drains the queue: it fills up then drops.
	assert.Equal(t, Capacity, q.Len())
	assert.NotZero(t, q.Dropped())
	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Event{Type: TemperatureReady, Value: -35}, e)
}
