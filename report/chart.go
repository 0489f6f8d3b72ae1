// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package report

import (
	"errors"
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/thermo/ds18b20"
)

// ChartOpts represents the options of a Chart sink.
type ChartOpts struct {
	W, H int
	// Points is how many of the latest records are plotted.
	Points int
	// FontSize is in points.
	FontSize float64
}

// DefaultChartOpts is the recommended default options.
var DefaultChartOpts = ChartOpts{
	W:        640,
	H:        320,
	Points:   120,
	FontSize: 12,
}

// Chart plots the latest records and saves the plot as a PNG when closed.
// Temperatures are drawn as a line colored like Heat, faults as red ticks
// along the bottom.
type Chart struct {
	path string
	opts ChartOpts
	face font.Face
	recs []Record
}

// NewChart returns a Chart saving to path.
func NewChart(path string, opts *ChartOpts) (*Chart, error) {
	if opts == nil {
		opts = &DefaultChartOpts
	}
	if opts.W < 64 || opts.H < 64 {
		return nil, fmt.Errorf("report: chart %dx%d too small", opts.W, opts.H)
	}
	if opts.Points < 2 {
		return nil, errors.New("report: chart needs at least 2 points")
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return &Chart{
		path: path,
		opts: *opts,
		face: truetype.NewFace(f, &truetype.Options{Size: opts.FontSize}),
	}, nil
}

func (c *Chart) String() string {
	return "chart " + c.path
}

// Write implements Sink.
func (c *Chart) Write(r *Record) error {
	c.recs = append(c.recs, *r)
	if len(c.recs) > c.opts.Points {
		c.recs = c.recs[len(c.recs)-c.opts.Points:]
	}
	return nil
}

// Close implements Sink. It writes the PNG.
func (c *Chart) Close() error {
	if c.path == "" {
		return nil
	}
	return c.draw().SavePNG(c.path)
}

// Render returns the current plot.
func (c *Chart) Render() image.Image {
	return c.draw().Image()
}

func (c *Chart) draw() *gg.Context {
	w, h := float64(c.opts.W), float64(c.opts.H)
	dc := gg.NewContext(c.opts.W, c.opts.H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(c.face)

	_, th := dc.MeasureString("0")
	pad := th + 8
	left, right, top, bottom := 5*th, w-pad, pad+th, h-pad

	lo, hi, ok := c.span()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(left, top, left, bottom)
	dc.DrawLine(left, bottom, right, bottom)
	dc.Stroke()
	if last := c.last(); last != nil {
		dc.DrawStringAnchored(Line(last), left, pad/2, 0, 0.5)
	}
	if !ok {
		return dc
	}
	dc.DrawStringAnchored(lo.String(), left-4, bottom, 1, 0.5)
	dc.DrawStringAnchored(hi.String(), left-4, top, 1, 0.5)

	step := (right - left) / float64(c.opts.Points-1)
	y := func(r ds18b20.Reading) float64 {
		return bottom - float64(r-lo)*(bottom-top)/float64(hi-lo)
	}
	dc.SetLineWidth(2)
	for i := 1; i < len(c.recs); i++ {
		a, b := c.recs[i-1].Reading, c.recs[i].Reading
		if a.Err() != nil || b.Err() != nil {
			continue
		}
		dc.SetColor(Heat(b))
		dc.DrawLine(left+float64(i-1)*step, y(a), left+float64(i)*step, y(b))
		dc.Stroke()
	}
	for i, r := range c.recs {
		x := left + float64(i)*step
		if r.Reading.Err() != nil {
			dc.SetRGB(1, 0, 0)
			dc.DrawLine(x, bottom, x, bottom-th)
			dc.Stroke()
			continue
		}
		dc.SetColor(Heat(r.Reading))
		dc.DrawCircle(x, y(r.Reading), 2.5)
		dc.Fill()
	}
	return dc
}

// span returns the plotted range, whole degrees around the valid readings.
func (c *Chart) span() (lo, hi ds18b20.Reading, ok bool) {
	for _, r := range c.recs {
		if r.Reading.Err() != nil {
			continue
		}
		if !ok || r.Reading < lo {
			lo = r.Reading
		}
		if !ok || r.Reading > hi {
			hi = r.Reading
		}
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	lo = floorDegree(lo)
	hi = floorDegree(hi) + 10
	return lo, hi, true
}

func (c *Chart) last() *Record {
	if len(c.recs) == 0 {
		return nil
	}
	return &c.recs[len(c.recs)-1]
}

func floorDegree(r ds18b20.Reading) ds18b20.Reading {
	m := r % 10
	if m < 0 {
		m += 10
	}
	return r - m
}

var _ Sink = &Chart{}
