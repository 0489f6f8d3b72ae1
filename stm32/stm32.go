// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stm32

import (
	"errors"
	"fmt"

	"periph.io/x/host/v3/pmem"

	"github.com/GermanBionicSystems/thermo/ds18b20"
)

// Opts contains options to pass to Map and New.
type Opts struct {
	// Physical base addresses of the register blocks.
	TIM  uint64
	DMA  uint64
	RCC  uint64
	GPIO uint64
	// Pin is the bus pin number on the GPIO port, routed to CH1 of the timer
	// through alternate function AF.
	Pin int
	AF  uint32
	// Capture and Stream are the DMA channel numbers, 1 based, serving the
	// timer CH2 capture and CH4 compare requests.
	Capture int
	Stream  int
	// Prescaler divides the timer clock down to one count per ds18b20.Tick.
	Prescaler uint32
	// Alloc returns physically contiguous memory the DMA controller can
	// reach. Defaults to pmem.Alloc.
	Alloc func(size int) (Buffer, error)
}

// DefaultOpts is TIM1, DMA1 and PA8 of an STM32F0 clocked at 48MHz.
var DefaultOpts = Opts{
	TIM:       0x40012C00,
	DMA:       0x40020000,
	RCC:       0x40021000,
	GPIO:      0x48000000,
	Pin:       8,
	AF:        2,
	Capture:   3,
	Stream:    4,
	Prescaler: 47,
}

// Buffer is DMA reachable memory.
type Buffer interface {
	Bytes() []byte
	PhysAddr() uint64
	Close() error
}

// Regs are the register blocks the binding drives.
type Regs struct {
	TIM  *TIM
	DMA  *DMA
	RCC  *RCC
	GPIO *GPIO
}

// Map maps the register blocks at the addresses in opts.
func Map(opts *Opts) (*Regs, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	r := &Regs{}
	if err := pmem.MapAsPOD(opts.TIM, &r.TIM); err != nil {
		return nil, fmt.Errorf("stm32: map TIM: %w", err)
	}
	if err := pmem.MapAsPOD(opts.DMA, &r.DMA); err != nil {
		return nil, fmt.Errorf("stm32: map DMA: %w", err)
	}
	if err := pmem.MapAsPOD(opts.RCC, &r.RCC); err != nil {
		return nil, fmt.Errorf("stm32: map RCC: %w", err)
	}
	if err := pmem.MapAsPOD(opts.GPIO, &r.GPIO); err != nil {
		return nil, fmt.Errorf("stm32: map GPIO: %w", err)
	}
	return r, nil
}

// Layout of the DMA buffer.
const (
	bufSize      = 4096
	captureOff   = 0
	streamOff    = 128
	maxTransfer  = streamOff
	forceUpdates = 1000
)

// New returns a ds18b20.Hardware driving the register blocks in r.
func New(r *Regs, opts *Opts) (*Dev, error) {
	if r == nil || r.TIM == nil || r.DMA == nil || r.RCC == nil || r.GPIO == nil {
		return nil, errors.New("stm32: missing register block")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Pin < 0 || opts.Pin > 15 {
		return nil, fmt.Errorf("stm32: invalid pin %d", opts.Pin)
	}
	if opts.AF > 15 {
		return nil, fmt.Errorf("stm32: invalid alternate function %d", opts.AF)
	}
	for _, c := range []int{opts.Capture, opts.Stream} {
		if c < 1 || c > len(r.DMA.Ch) {
			return nil, fmt.Errorf("stm32: invalid DMA channel %d", c)
		}
	}
	if opts.Capture == opts.Stream {
		return nil, errors.New("stm32: capture and stream need distinct DMA channels")
	}
	alloc := opts.Alloc
	if alloc == nil {
		alloc = func(size int) (Buffer, error) {
			m, err := pmem.Alloc(size)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	return &Dev{r: *r, opts: *opts, alloc: alloc}, nil
}

// Dev implements ds18b20.Hardware on one timer, two DMA channels and a GPIO
// port.
type Dev struct {
	r     Regs
	opts  Opts
	alloc func(size int) (Buffer, error)
	buf   Buffer
	// capture is copied out of buf when the run completes.
	capture *ds18b20.Transfer
}

func (d *Dev) String() string {
	return fmt.Sprintf("stm32{TIM@%#x, DMA@%#x, P%d}", d.opts.TIM, d.opts.DMA, d.opts.Pin)
}

// Setup implements ds18b20.Hardware.
//
// The bus pin becomes an open-drain alternate function output without pull,
// the clocks of the port, timer and DMA controller are enabled and the
// timer counts ds18b20.Tick.
func (d *Dev) Setup() error {
	if d.buf == nil {
		b, err := d.alloc(bufSize)
		if err != nil {
			return fmt.Errorf("stm32: DMA buffer: %w", err)
		}
		if len(b.Bytes()) < streamOff+maxTransfer {
			_ = b.Close()
			return errors.New("stm32: DMA buffer too small")
		}
		d.buf = b
	}
	rcc, g, tim := d.r.RCC, d.r.GPIO, d.r.TIM
	rcc.AHBENR.SetBits(rccAHBENRGPIOAEN | rccAHBENRDMAEN)
	rcc.APB2ENR.SetBits(rccAPB2ENRTIM1EN)

	p := uint(d.opts.Pin)
	g.MODER.ReplaceBits(modeAlternate, 3, 2*p)
	g.OTYPER.SetBits(1 << p)
	g.OSPEEDR.ReplaceBits(speedHigh, 3, 2*p)
	g.PUPDR.ReplaceBits(0, 3, 2*p)
	g.AFR[p/8].ReplaceBits(d.opts.AF, 0xf, 4*(p%8))

	tim.CR1.Set(0)
	tim.PSC.Set(d.opts.Prescaler)
	tim.EGR.Set(timEGRUG)
	tim.BDTR.SetBits(timBDTRMOE)
	tim.SR.Set(0)
	return nil
}

// Arm implements ds18b20.Hardware.
//
// The output channel runs in PWM mode 2 so the bus is released once the
// counter reaches CCR1. Capture phases preload CCR1 then zero it after the
// forced update, releasing the bus for good when the run ends. Streamed
// phases let DMA rewrite CCR1 at Trigger for the following slot.
func (d *Dev) Arm(t ds18b20.Timing, x *ds18b20.Transfer) {
	tim := d.r.TIM
	tim.CR1.Set(0)
	tim.DIER.Set(0)
	d.disable(d.opts.Capture)
	d.disable(d.opts.Stream)
	d.capture = nil

	ccmr := uint32(timCCMR1OC1M)
	ccer := uint32(timCCERCC1E)
	dier := uint32(0)
	if t.Capture {
		ccmr |= timCCMR1OC1PE | timCCMR1CC2STI1 | timCCMR1IC2F
		ccer |= timCCERCC2E
		dier |= timDIERCC2DE
	}
	if t.Trigger != 0 {
		tim.CCR4.Set(uint32(t.Trigger))
		dier |= timDIERCC4DE
	}
	tim.ARR.Set(uint32(t.Period))
	tim.RCR.Set(uint32(t.Slots - 1))
	tim.CCR1.Set(uint32(t.Low))
	tim.CCMR1.Set(ccmr)
	tim.CCER.Set(ccer)
	d.forceUpdate()
	if t.Capture {
		tim.CCR1.Set(0)
	}
	if x != nil {
		d.program(x)
	}
	tim.DIER.Set(dier)
	tim.CR1.Set(timCR1OPM | timCR1CEN)
}

// Done implements ds18b20.Hardware.
func (d *Dev) Done() bool {
	if !d.r.TIM.SR.HasBits(timSRUIF) {
		return false
	}
	d.r.TIM.SR.Set(0)
	if x := d.capture; x != nil {
		n := x.Count * int(x.Width)
		copy(x.Buf[:n], d.buf.Bytes()[captureOff:captureOff+n])
		d.capture = nil
	}
	return true
}

// Halt stops the timer and both DMA channels and releases the buffer.
func (d *Dev) Halt() error {
	d.r.TIM.CR1.Set(0)
	d.r.TIM.DIER.Set(0)
	d.disable(d.opts.Capture)
	d.disable(d.opts.Stream)
	d.capture = nil
	if d.buf == nil {
		return nil
	}
	err := d.buf.Close()
	d.buf = nil
	return err
}

// BusyLED returns a ds18b20.BusyFunc driving an active-low indicator on pin
// of the same port as the bus, through BSRR so other pins are not touched.
func (d *Dev) BusyLED(pin int) (ds18b20.BusyFunc, error) {
	if pin < 0 || pin > 15 || pin == d.opts.Pin {
		return nil, fmt.Errorf("stm32: invalid LED pin %d", pin)
	}
	g := d.r.GPIO
	p := uint(pin)
	d.r.RCC.AHBENR.SetBits(rccAHBENRGPIOAEN)
	g.BSRR.Set(1 << p)
	g.OTYPER.ClearBits(1 << p)
	g.MODER.ReplaceBits(modeOutput, 3, 2*p)
	return func(active bool) {
		if active {
			g.BSRR.Set(1 << (p + 16))
		} else {
			g.BSRR.Set(1 << p)
		}
	}, nil
}

// program sets up the DMA channel for x. Captures land in the buffer and are
// copied out by Done, streams are copied in before the channel starts.
func (d *Dev) program(x *ds18b20.Transfer) {
	n := x.Count * int(x.Width)
	if n > maxTransfer || n > len(x.Buf) {
		panic(fmt.Sprintf("stm32: transfer of %d bytes", n))
	}
	mem := d.buf.Bytes()
	base := uint32(d.buf.PhysAddr())
	if x.Dir == ds18b20.MemToPeriph {
		copy(mem[streamOff:], x.Buf[:n])
		ch := &d.r.DMA.Ch[d.opts.Stream-1]
		ch.CPAR.Set(uint32(d.opts.TIM) + offCCR1)
		ch.CMAR.Set(base + streamOff)
		ch.CNDTR.Set(uint32(x.Count))
		ch.CCR.Set(dmaCCRDIR | dmaCCRMINC | dmaCCRPSIZE16 | dmaCCREN)
		return
	}
	// Elements the DMA never writes must not keep an older phase's values.
	capt := mem[captureOff : captureOff+n]
	for i := range capt {
		capt[i] = 0xff
	}
	ccr := uint32(dmaCCRMINC | dmaCCRPSIZE16 | dmaCCREN)
	if x.Width == ds18b20.HalfWord {
		ccr |= dmaCCRMSIZE16
	}
	ch := &d.r.DMA.Ch[d.opts.Capture-1]
	ch.CPAR.Set(uint32(d.opts.TIM) + offCCR2)
	ch.CMAR.Set(base + captureOff)
	ch.CNDTR.Set(uint32(x.Count))
	ch.CCR.Set(ccr)
	d.capture = x
}

func (d *Dev) disable(ch int) {
	d.r.DMA.Ch[ch-1].CCR.Set(0)
}

// forceUpdate loads ARR, RCR and the preloaded CCR1 and clears the update
// flag it raises.
func (d *Dev) forceUpdate() {
	tim := d.r.TIM
	tim.EGR.Set(timEGRUG)
	for i := 0; i < forceUpdates && !tim.SR.HasBits(timSRUIF); i++ {
	}
	tim.SR.ClearBits(timSRUIF)
}

var _ ds18b20.Hardware = &Dev{}
