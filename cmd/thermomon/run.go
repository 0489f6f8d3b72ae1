// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/thermo/ds18b20"
	"github.com/GermanBionicSystems/thermo/stm32"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Acquire from the sensor on the STM32 timer and DMA",
	Long: `Map the timer, DMA, RCC and GPIO register blocks configured under stm32.*
and run the acquisition engine on them. Requires access to physical memory.

The busy indicator is either a host GPIO (led.name, a periph pin name) or a
pin of the bus GPIO port driven active low (led.pin).`,
	Args: cobra.NoArgs,
	RunE: runHW,
}

func init() {
	runCmd.Flags().IntVarP(&cycles, "cycles", "n", 0, "Stop after this many cycles, 0 runs until interrupted")
	rootCmd.AddCommand(runCmd)
}

// openHardware maps the registers and picks the busy indicator.
func openHardware(s *settings) (*stm32.Dev, ds18b20.BusyFunc, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host: %w", err)
	}
	regs, err := stm32.Map(&s.hw)
	if err != nil {
		return nil, nil, err
	}
	hw, err := stm32.New(regs, &s.hw)
	if err != nil {
		return nil, nil, err
	}
	led, err := busyIndicator(s, hw)
	if err != nil {
		return nil, nil, err
	}
	return hw, led, nil
}

func busyIndicator(s *settings, hw *stm32.Dev) (ds18b20.BusyFunc, error) {
	if s.led != "" {
		p := gpioreg.ByName(s.led)
		if p == nil {
			return nil, fmt.Errorf("unknown LED pin %q", s.led)
		}
		return ds18b20.BusyPin(p, true), nil
	}
	if s.ledPin >= 0 {
		return hw.BusyLED(s.ledPin)
	}
	return nil, nil
}

func runHW(cmd *cobra.Command, args []string) error {
	s := newSettings(loadConfig(configFile))
	hw, led, err := openHardware(s)
	if err != nil {
		return err
	}
	defer hw.Halt()
	sinks, err := openSinks(cmd.Context(), format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	m, err := newMonitor(hw, s.engine, led, sinks, newLogger())
	if err != nil {
		closeSinks(sinks)
		return err
	}
	err = m.run(cmd.Context(), s.poll, cycles)
	if err2 := m.close(); err == nil {
		err = err2
	}
	return err
}
