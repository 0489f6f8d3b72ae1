// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package report

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GermanBionicSystems/thermo/ds18b20"
)

// countPixels returns how many pixels of img match f.
func countPixels(img image.Image, f func(r, g, b uint32) bool) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if f(r>>8, g>>8, bl>>8) {
				n++
			}
		}
	}
	return n
}

func blue(r, g, b uint32) bool { return b > 200 && r < 60 && g < 30 }
func red(r, g, b uint32) bool  { return r > 200 && g < 30 && b < 30 }

func TestChart_empty(t *testing.T) {
	c, err := NewChart("", nil)
	require.NoError(t, err)
	img := c.Render()
	assert.Equal(t, image.Rect(0, 0, 640, 320), img.Bounds())
	r, g, b, _ := img.At(639, 0).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})
	assert.Equal(t, 0, countPixels(img, blue))
	assert.NoError(t, c.Close())
}

func TestChart_plot(t *testing.T) {
	c, err := NewChart("", &ChartOpts{W: 200, H: 100, Points: 4, FontSize: 8})
	require.NoError(t, err)
	for _, r := range []ds18b20.Reading{-400, -395, -402} {
		require.NoError(t, c.Write(&Record{Reading: r}))
	}
	img := c.Render()
	assert.NotZero(t, countPixels(img, blue))
	assert.Equal(t, 0, countPixels(img, red))

	require.NoError(t, c.Write(&Record{Reading: ds18b20.StatusNoSensor}))
	assert.NotZero(t, countPixels(c.Render(), red))

	require.NoError(t, c.Write(&Record{Reading: -390}))
	assert.Len(t, c.recs, 4)
	assert.Equal(t, ds18b20.Reading(-395), c.recs[0].Reading)
}

func TestChart_close(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	c, err := NewChart(path, &ChartOpts{W: 120, H: 80, Points: 10, FontSize: 10})
	require.NoError(t, err)
	assert.Equal(t, "chart "+path, c.String())
	require.NoError(t, c.Write(&Record{Reading: 215}))
	require.NoError(t, c.Write(&Record{Reading: 220}))
	require.NoError(t, c.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 120, 80), img.Bounds())
}

func TestNewChart_fail(t *testing.T) {
	_, err := NewChart("x.png", &ChartOpts{W: 10, H: 10, Points: 10})
	assert.Error(t, err)
	_, err = NewChart("x.png", &ChartOpts{W: 100, H: 100, Points: 1})
	assert.Error(t, err)
}

func TestFloorDegree(t *testing.T) {
	data := []struct{ in, want ds18b20.Reading }{
		{215, 210}, {210, 210}, {0, 0}, {-5, -10}, {-10, -10}, {-402, -410},
	}
	for _, line := range data {
		assert.Equal(t, line.want, floorDegree(line.in), "%d", line.in)
	}
}
