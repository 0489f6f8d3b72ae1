// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ds18b20 drives a single Maxim DS18B20 or DS18S20 temperature
// sensor on a dedicated 1-wire bus without ever waiting on the bus.
//
// All bus timing is generated by a timer: an output-compare channel pulls
// the bus low for programmed durations and an input-capture channel on the
// same pin timestamps the rising edges. DMA streams command bits into the
// compare register and captured timestamps into memory, and the timer's
// repetition counter lets a single start produce all time slots of a
// phase. The CPU only arms phases.
//
// A cycle is reset, convert, wait 750ms, reset, read scratchpad, decode,
// pause; it restarts after every outcome, successful or not. Outcomes are
// delivered as Reading values to the callback given to New.
//
// Dev is host testable: the timer and DMA are reached through Hardware.
// Package stm32 binds it to real registers and package ds18b20test
// simulates a sensor.
//
// Datasheets
//
// https://datasheets.maximintegrated.com/en/ds/DS18B20.pdf
//
// https://datasheets.maximintegrated.com/en/ds/DS18S20.pdf
package ds18b20
