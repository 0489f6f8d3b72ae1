// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"

	"github.com/GermanBionicSystems/thermo/ds18b20"
	"github.com/GermanBionicSystems/thermo/stm32"
)

const envPrefix = "THERMOMON_"

func defaultConfig() map[string]interface{} {
	o := stm32.DefaultOpts
	return map[string]interface{}{
		"wait":  ds18b20.DefaultOpts.ConversionWait.String(),
		"pause": ds18b20.DefaultOpts.Pause.String(),
		"poll":  "50us",
		"stm32": map[string]interface{}{
			"tim":       int(o.TIM),
			"dma":       int(o.DMA),
			"rcc":       int(o.RCC),
			"gpio":      int(o.GPIO),
			"pin":       o.Pin,
			"af":        int(o.AF),
			"capture":   o.Capture,
			"stream":    o.Stream,
			"prescaler": int(o.Prescaler),
		},
		"led": map[string]interface{}{
			// name is a periph GPIO pin name on the host.
			"name": "",
			// pin is a pin of the bus GPIO port, -1 for none.
			"pin": -1,
		},
	}
}

// loadConfig layers the environment and, if file is set, a JSON file over
// the defaults. THERMOMON_CONFIG_FILE overrides file.
func loadConfig(file string) *config.Config {
	def := dict.New(dict.WithMap(defaultConfig()))
	cfg := config.New(env.New(env.WithEnvPrefix(envPrefix)), config.WithDefault(def))
	if file != "" {
		cfg.Append(blob.NewConfigFile(cfg, "config.file", file, json.NewDecoder()))
	}
	return cfg.GetConfig("", config.WithMust())
}

// settings is the resolved configuration.
type settings struct {
	engine ds18b20.Opts
	poll   time.Duration
	hw     stm32.Opts
	led    string
	ledPin int
}

func newSettings(cfg *config.Config) *settings {
	return &settings{
		engine: ds18b20.Opts{
			ConversionWait: cfg.MustGet("wait").Duration(),
			Pause:          cfg.MustGet("pause").Duration(),
		},
		poll: cfg.MustGet("poll").Duration(),
		hw: stm32.Opts{
			TIM:       uint64(cfg.MustGet("stm32.tim").Int()),
			DMA:       uint64(cfg.MustGet("stm32.dma").Int()),
			RCC:       uint64(cfg.MustGet("stm32.rcc").Int()),
			GPIO:      uint64(cfg.MustGet("stm32.gpio").Int()),
			Pin:       cfg.MustGet("stm32.pin").Int(),
			AF:        uint32(cfg.MustGet("stm32.af").Int()),
			Capture:   cfg.MustGet("stm32.capture").Int(),
			Stream:    cfg.MustGet("stm32.stream").Int(),
			Prescaler: uint32(cfg.MustGet("stm32.prescaler").Int()),
		},
		led:    cfg.MustGet("led.name").String(),
		ledPin: cfg.MustGet("led.pin").Int(),
	}
}
