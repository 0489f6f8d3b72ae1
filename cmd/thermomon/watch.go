// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/GermanBionicSystems/thermo/ds18b20"
	"github.com/GermanBionicSystems/thermo/report"
)

var watchSim bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Interactive view of the acquisition cycle",
	Long: `Show the acquisition cycle live: whether a conversion is in progress,
the latest reading and a history of outcomes. Uses the STM32 registers, or
the simulated sensor with --sim.

Serial and WebSocket outputs still receive frames; stdout is the display.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSim, "sim", false, "Use the simulated sensor")
	addSimFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

const historyLen = 10

// Messages
type recordMsg report.Record
type busyMsg bool
type doneMsg struct{ err error }

type watchModel struct {
	source   string
	spinner  spinner.Model
	busy     bool
	last     *report.Record
	history  []string
	ok       int
	faults   int
	err      error
	quitting bool
}

func newWatchModel(source string) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	return watchModel{source: source, spinner: s}
}

func (m watchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case busyMsg:
		m.busy = bool(msg)

	case recordMsg:
		r := report.Record(msg)
		m.last = &r
		if r.Reading.Err() != nil {
			m.faults++
		} else {
			m.ok++
		}
		line := report.Line(&r)
		if !r.Time.IsZero() {
			line = r.Time.Format("15:04:05 ") + line
		}
		m.history = append(m.history, line)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}

	case doneMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m watchModel) View() string {
	if m.quitting {
		if m.err != nil {
			return fmt.Sprintf("Stopped: %v\n", m.err)
		}
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("THERMOMON"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Source: %s | Press 'q' to quit", m.source)))
	s.WriteString("\n\n")

	if m.busy {
		s.WriteString(m.spinner.View() + " acquiring")
	} else {
		s.WriteString("  idle")
	}
	s.WriteString("\n\n")

	var cur strings.Builder
	switch {
	case m.last == nil:
		cur.WriteString(headerStyle.Render("Waiting for the first cycle..."))
	case m.last.Reading.Err() != nil:
		cur.WriteString(errorStyle.Render(report.Line(m.last)))
	default:
		c := report.Heat(m.last.Reading)
		tempStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)))
		cur.WriteString(tempStyle.Render(m.last.Reading.String()))
		if m.last.Family != 0 {
			cur.WriteString(headerStyle.Render("  " + m.last.Family.String()))
		}
		if m.last.Elapsed > 0 {
			cur.WriteString(headerStyle.Render(fmt.Sprintf("  cycle %s", m.last.Elapsed.Round(time.Millisecond))))
		}
	}
	cur.WriteString("\n")
	cur.WriteString(fmt.Sprintf("%s %d   %s %d",
		labelStyle.Render("Readings:"), m.ok,
		labelStyle.Render("Faults:"), m.faults))
	s.WriteString(boxStyle.Render(cur.String()))
	s.WriteString("\n\n")

	for _, l := range m.history {
		s.WriteString(headerStyle.Render(l))
		s.WriteString("\n")
	}
	return s.String()
}

// programSink forwards records to the TUI.
type programSink struct {
	send func(tea.Msg)
}

func (p *programSink) String() string { return "TUI" }

func (p *programSink) Write(r *report.Record) error {
	p.send(recordMsg(*r))
	return nil
}

func (p *programSink) Close() error { return nil }

func runWatch(cmd *cobra.Command, args []string) error {
	s := newSettings(loadConfig(configFile))
	var (
		hw     ds18b20.Hardware
		led    ds18b20.BusyFunc
		source string
	)
	if watchSim {
		hw = newSim()
		source = "simulation"
	} else {
		d, l, err := openHardware(s)
		if err != nil {
			return err
		}
		defer d.Halt()
		hw, led, source = d, l, d.String()
	}

	p := tea.NewProgram(newWatchModel(source), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	sinks, err := openSinks(cmd.Context(), "none", nil)
	if err != nil {
		return err
	}
	sinks = append(sinks, &programSink{send: p.Send})
	busy := func(active bool) {
		p.Send(busyMsg(active))
		if led != nil {
			led(active)
		}
	}
	// Faults are on screen; stderr would tear the display.
	m, err := newMonitor(hw, s.engine, busy, sinks, log.New(io.Discard, "", 0))
	if err != nil {
		closeSinks(sinks)
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	done := make(chan error, 1)
	go func() {
		err := m.run(ctx, s.poll, 0)
		p.Send(doneMsg{err})
		done <- err
	}()
	_, err = p.Run()
	cancel()
	if err2 := <-done; err == nil {
		err = err2
	}
	if err2 := m.close(); err == nil {
		err = err2
	}
	return err
}
