// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package stm32 binds the ds18b20 acquisition engine to the TIM1, DMA1,
// RCC and GPIOA register blocks of an STM32F0.
//
// The register blocks are either mapped from physical memory with Map, or
// supplied by the caller. Captured data goes through a DMA reachable buffer
// and is copied into the engine's buffer when the run completes.
//
// Datasheet
//
// https://www.st.com/resource/en/reference_manual/rm0091-stm32f0x1stm32f0x2stm32f0x8-advanced-armbased-32bit-mcus-stmicroelectronics.pdf
package stm32
