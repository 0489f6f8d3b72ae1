// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermomon acquires temperatures from a DS18B20 or DS18S20 sensor and
// reports them as text or CBOR frames.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/thermo/report"
)

var (
	configFile string
	format     string
	color      bool
	timestamp  bool

	// Serial output
	portName string
	baudRate int

	// WebSocket output
	wsURL string

	chartPath string
)

var rootCmd = &cobra.Command{
	Use:   "thermomon",
	Short: "DS18B20 temperature monitor",
	Long: `thermomon runs the non-blocking DS18B20/DS18S20 acquisition engine and
reports every cycle outcome.

Hardware and timing settings come from an optional JSON file (--config)
over the defaults, and THERMOMON_* environment variables override both,
e.g. THERMOMON_PAUSE=2s or THERMOMON_STM32_PIN=9.

Outputs:
  stdout:    --format text|cbor
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path
  Chart:     --chart history.png, written on exit`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "JSON configuration file")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "text", "stdout format: text, cbor or none")
	rootCmd.PersistentFlags().BoolVar(&color, "color", true, "Heat swatch before temperatures (terminals only)")
	rootCmd.PersistentFlags().BoolVar(&timestamp, "timestamp", false, "Prefix text lines with the time")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Also send CBOR frames to this serial port")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "Also send CBOR frames to this WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&chartPath, "chart", "", "Plot the latest readings to this PNG file on exit")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "thermomon: ", log.LstdFlags)
}

// stdoutWriter keeps os.Stdout open when a sink is closed.
type stdoutWriter struct {
	io.Writer
}

func (stdoutWriter) Close() error { return nil }

// openSinks builds the sinks the output flags ask for, writing records in
// format to stdout.
func openSinks(ctx context.Context, format string, stdout io.Writer) ([]report.Sink, error) {
	var sinks []report.Sink
	switch format {
	case "text":
		if f, ok := stdout.(*os.File); ok && f == os.Stdout {
			sinks = append(sinks, report.NewStdout(&report.TextOpts{Color: color, Timestamp: timestamp}))
		} else {
			sinks = append(sinks, report.NewText(stdout, &report.TextOpts{Timestamp: timestamp}))
		}
	case "cbor":
		sinks = append(sinks, report.NewFrames(stdoutWriter{stdout}))
	case "none":
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if portName != "" {
		p, err := report.OpenSerial(portName, baudRate)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, report.NewFrames(p))
	}
	if wsURL != "" {
		ws, err := report.DialWebSocket(ctx, wsURL)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, report.NewFrames(ws))
	}
	if chartPath != "" {
		c, err := report.NewChart(chartPath, nil)
		if err != nil {
			closeSinks(sinks)
			return nil, err
		}
		sinks = append(sinks, c)
	}
	return sinks, nil
}

func closeSinks(sinks []report.Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}
