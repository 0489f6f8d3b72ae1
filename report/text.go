// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package report

import (
	"bytes"
	"image/color"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"golang.org/x/term"

	"github.com/GermanBionicSystems/thermo/ds18b20"
)

// TextOpts represents the options of a Text sink.
type TextOpts struct {
	// Color prefixes each temperature with a block colored from blue to red
	// over the sensor range.
	Color   bool
	Palette *ansi256.Palette
	// Timestamp prefixes each line with the record time.
	Timestamp bool

	_ struct{}
}

// Text writes one line per record, terminated with CR LF like the board's
// UART.
type Text struct {
	w         io.Writer
	color     bool
	timestamp bool
	palette   ansi256.Palette

	buf bytes.Buffer
}

// NewText returns a Text writing to w.
func NewText(w io.Writer, opts *TextOpts) *Text {
	if opts == nil {
		opts = &TextOpts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	return &Text{w: w, color: opts.Color, timestamp: opts.Timestamp, palette: *p}
}

// NewStdout returns a Text on the console. Color is only kept when stdout
// is a terminal.
func NewStdout(opts *TextOpts) *Text {
	o := TextOpts{}
	if opts != nil {
		o = *opts
	}
	o.Color = o.Color && term.IsTerminal(int(os.Stdout.Fd()))
	return NewText(colorable.NewColorableStdout(), &o)
}

func (t *Text) String() string {
	return "Text"
}

// Write implements Sink.
func (t *Text) Write(r *Record) error {
	// Reuse one buffer so a line costs no allocation beyond formatting.
	t.buf.Reset()
	if t.timestamp && !r.Time.IsZero() {
		_, _ = t.buf.WriteString(r.Time.Format("15:04:05.000 "))
	}
	if t.color && r.Reading.Err() == nil {
		_, _ = t.buf.WriteString("\033[0m")
		_, _ = io.WriteString(&t.buf, t.palette.Block(Heat(r.Reading)))
		_, _ = t.buf.WriteString("\033[0m ")
	}
	_, _ = t.buf.WriteString(Line(r))
	_, _ = t.buf.WriteString("\r\n")
	_, err := t.buf.WriteTo(t.w)
	return err
}

// Close implements Sink. It resets the terminal attributes when colors are
// used.
func (t *Text) Close() error {
	if !t.color {
		return nil
	}
	_, err := t.w.Write([]byte("\033[0m"))
	return err
}

// Heat maps a temperature onto a blue to red gradient over the sensor range.
func Heat(r ds18b20.Reading) color.NRGBA {
	if r < ds18b20.MinTenths {
		r = ds18b20.MinTenths
	}
	if r > ds18b20.MaxTenths {
		r = ds18b20.MaxTenths
	}
	span := int(ds18b20.MaxTenths - ds18b20.MinTenths)
	v := byte(int(r-ds18b20.MinTenths) * 255 / span)
	return color.NRGBA{R: v, G: 0, B: 255 - v, A: 255}
}

var _ Sink = &Text{}
