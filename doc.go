// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermo is a container for the DS18B20 acquisition engine and the
// packages around it.
//
// ds18b20 holds the engine, stm32 the timer and DMA hardware it drives,
// event and report carry its results to the outside and cmd/thermomon ties
// them together.
package thermo
