// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/thermo/ds18b20"
	"github.com/GermanBionicSystems/thermo/ds18b20/ds18b20test"
)

var (
	simTemp     float64
	simLegacy   bool
	simAbsent   bool
	simCorrupt  bool
	simRealTime bool
	cycles      int
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run the engine against a simulated sensor",
	Long: `Run the acquisition engine against a host-side simulation of one sensor
on the bus. The simulated sensor answers resets, decodes the commands it is
sent and returns a scratchpad holding --temp.`,
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	addSimFlags(simCmd)
	simCmd.Flags().IntVarP(&cycles, "cycles", "n", 0, "Stop after this many cycles, 0 runs until interrupted")
	rootCmd.AddCommand(simCmd)
}

func addSimFlags(c *cobra.Command) {
	c.Flags().Float64VarP(&simTemp, "temp", "t", 25, "Simulated temperature in °C")
	c.Flags().BoolVar(&simLegacy, "legacy", false, "Simulate a DS18S20")
	c.Flags().BoolVar(&simAbsent, "absent", false, "No sensor on the bus")
	c.Flags().BoolVar(&simCorrupt, "corrupt", false, "Corrupt the scratchpad CRC")
	c.Flags().BoolVar(&simRealTime, "realtime", true, "Phases last as long as on a real bus")
}

// newSim returns the simulated sensor the sim flags describe.
func newSim() *ds18b20test.Sim {
	var sp ds18b20.Scratchpad
	if simLegacy {
		sp = ds18b20test.LegacyCelsius(simTemp)
	} else {
		sp = ds18b20test.ModernCelsius(simTemp)
	}
	if simCorrupt {
		sp[ds18b20.ScratchpadLen-1] ^= 0xff
	}
	return &ds18b20test.Sim{Absent: simAbsent, Scratchpad: sp, RealTime: simRealTime}
}

func runSim(cmd *cobra.Command, args []string) error {
	s := newSettings(loadConfig(configFile))
	sinks, err := openSinks(cmd.Context(), format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	m, err := newMonitor(newSim(), s.engine, nil, sinks, newLogger())
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
