// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stm32

import "sync/atomic"

// Register32 is one memory mapped register. Every access reaches memory.
type Register32 struct {
	v atomic.Uint32
}

// Get reads the register.
func (r *Register32) Get() uint32 { return r.v.Load() }

// Set writes the register.
func (r *Register32) Set(v uint32) { r.v.Store(v) }

// SetBits sets the bits of mask with a read-modify-write.
func (r *Register32) SetBits(mask uint32) { r.Set(r.Get() | mask) }

// ClearBits clears the bits of mask with a read-modify-write.
func (r *Register32) ClearBits(mask uint32) { r.Set(r.Get() &^ mask) }

// HasBits reports whether any bit of mask is set.
func (r *Register32) HasBits(mask uint32) bool { return r.Get()&mask != 0 }

// ReplaceBits replaces the n bit wide field at shift with v.
func (r *Register32) ReplaceBits(v, mask uint32, shift uint) {
	r.Set(r.Get()&^(mask<<shift) | (v&mask)<<shift)
}

// TIM is an advanced-control timer register block, RM0091 §13.4.
type TIM struct {
	CR1   Register32 // 0x00
	CR2   Register32 // 0x04
	SMCR  Register32 // 0x08
	DIER  Register32 // 0x0C
	SR    Register32 // 0x10
	EGR   Register32 // 0x14
	CCMR1 Register32 // 0x18
	CCMR2 Register32 // 0x1C
	CCER  Register32 // 0x20
	CNT   Register32 // 0x24
	PSC   Register32 // 0x28
	ARR   Register32 // 0x2C
	RCR   Register32 // 0x30
	CCR1  Register32 // 0x34
	CCR2  Register32 // 0x38
	CCR3  Register32 // 0x3C
	CCR4  Register32 // 0x40
	BDTR  Register32 // 0x44
	DCR   Register32 // 0x48
	DMAR  Register32 // 0x4C
}

// Offsets the DMA controller is pointed at.
const (
	offCCR1 = 0x34
	offCCR2 = 0x38
)

const (
	timCR1CEN    = 1 << 0
	timCR1OPM    = 1 << 3
	timDIERCC2DE = 1 << 10
	timDIERCC4DE = 1 << 12
	timSRUIF     = 1 << 0
	timEGRUG     = 1 << 0
	// PWM mode 2: the output is low while the counter is below CCR1.
	timCCMR1OC1M    = 7 << 4
	timCCMR1OC1PE   = 1 << 3
	timCCMR1CC2STI1 = 2 << 8
	// 8 samples at fDTS/4.
	timCCMR1IC2F = 7 << 12
	timCCERCC1E  = 1 << 0
	timCCERCC2E  = 1 << 4
	timBDTRMOE   = 1 << 15
)

// DMAChannel is one channel of a DMA controller.
type DMAChannel struct {
	CCR   Register32
	CNDTR Register32
	CPAR  Register32
	CMAR  Register32
	_     Register32
}

// DMA is a DMA controller register block, RM0091 §10.6.
type DMA struct {
	ISR  Register32
	IFCR Register32
	Ch   [7]DMAChannel // channel 1 is Ch[0]
}

const (
	dmaCCREN      = 1 << 0
	dmaCCRDIR     = 1 << 4
	dmaCCRMINC    = 1 << 7
	dmaCCRPSIZE16 = 1 << 8
	dmaCCRMSIZE16 = 1 << 10
)

// RCC is the reset and clock control register block, up to APB1ENR.
type RCC struct {
	CR       Register32 // 0x00
	CFGR     Register32 // 0x04
	CIR      Register32 // 0x08
	APB2RSTR Register32 // 0x0C
	APB1RSTR Register32 // 0x10
	AHBENR   Register32 // 0x14
	APB2ENR  Register32 // 0x18
	APB1ENR  Register32 // 0x1C
}

const (
	rccAHBENRDMAEN   = 1 << 0
	rccAHBENRGPIOAEN = 1 << 17
	rccAPB2ENRTIM1EN = 1 << 11
)

// GPIO is a general purpose I/O port register block.
type GPIO struct {
	MODER   Register32    // 0x00
	OTYPER  Register32    // 0x04
	OSPEEDR Register32    // 0x08
	PUPDR   Register32    // 0x0C
	IDR     Register32    // 0x10
	ODR     Register32    // 0x14
	BSRR    Register32    // 0x18
	LCKR    Register32    // 0x1C
	AFR     [2]Register32 // 0x20
	BRR     Register32    // 0x28
}

// Pin modes, two bits per pin in MODER.
const (
	modeOutput    = 1
	modeAlternate = 2
	speedHigh     = 3
)
