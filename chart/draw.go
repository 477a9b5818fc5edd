/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package chart

import (
	"bytes"
	"image"
	"image/png"
	"io"

	"github.com/umbralcalc/logsplorer/color"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const loneDotWidth = 3

var (
	backgroundColor = drawing.Color{R: 18, G: 18, B: 18, A: 255}
	// anchorColor is transparent, but not zero, so go-chart keeps it.
	anchorColor = drawing.Color{R: 18, G: 18, B: 18, A: 0}
)

func drawingColor(c color.Color) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: 255}
}

func themeDrawingColor(name string) drawing.Color {
	if name == themeColor {
		return drawing.ColorWhite
	}
	if c, err := color.ParseHex(name); err == nil {
		return drawingColor(c)
	}
	return drawing.ColorWhite
}

// clipSegment clips the segment a-b to r using the Liang-Barsky algorithm.
// It returns the clipped endpoints, the parameters along a-b they lie at, and
// false if no part of the segment lies within r.
func clipSegment(a, b DataPoint, r Rect) (ca, cb DataPoint, t0, t1 float64, ok bool) {
	t0, t1 = 0, 1
	dx, dy := b.X-a.X, b.Y-a.Y
	for _, edge := range []struct{ p, q float64 }{
		{-dx, a.X - r.XMin},
		{dx, r.XMax - a.X},
		{-dy, a.Y - r.YMin},
		{dy, r.YMax - a.Y},
	} {
		if edge.p == 0 {
			if edge.q < 0 {
				return ca, cb, 0, 0, false
			}
			continue
		}
		t := edge.q / edge.p
		if edge.p < 0 {
			if t > t1 {
				return ca, cb, 0, 0, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return ca, cb, 0, 0, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	ca = DataPoint{X: a.X + t0*dx, Y: a.Y + t0*dy}
	cb = DataPoint{X: a.X + t1*dx, Y: a.Y + t1*dy}
	return ca, cb, t0, t1, true
}

func inside(p DataPoint, r Rect) bool {
	return p.X >= r.XMin && p.X <= r.XMax && p.Y >= r.YMin && p.Y <= r.YMax
}

// clip splits points into the polylines visible within r, and returns those
// alongside any isolated visible points.  Non-finite points break lines.
func clip(points []DataPoint, r Rect) (lines [][]DataPoint, lone []DataPoint) {
	open := false
	for idx, pt := range points {
		if !pt.Finite() {
			open = false
			continue
		}
		prevFinite := idx > 0 && points[idx-1].Finite()
		nextFinite := idx+1 < len(points) && points[idx+1].Finite()
		if !prevFinite && !nextFinite && inside(pt, r) {
			lone = append(lone, pt)
		}
		if !prevFinite {
			continue
		}
		ca, cb, t0, t1, ok := clipSegment(points[idx-1], pt, r)
		if !ok {
			open = false
			continue
		}
		if !open || t0 > 0 {
			lines = append(lines, []DataPoint{ca})
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], cb)
		open = t1 == 1
	}
	return lines, lone
}

func continuousSeries(name string, points []DataPoint, style gochart.Style) gochart.ContinuousSeries {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for idx, pt := range points {
		xs[idx], ys[idx] = pt.X, pt.Y
	}
	return gochart.ContinuousSeries{
		Name:    name,
		Style:   style,
		YAxis:   gochart.YAxisSecondary,
		XValues: xs,
		YValues: ys,
	}
}

// goChart returns the go-chart rendition of the receiver at the provided size
// and under its current viewport.
func (ch *Chart) goChart(width, height int) gochart.Chart {
	opts := ch.config.Options
	bounds := ch.viewport.Current()
	// The anchor keeps go-chart rendering axes when nothing is visible.
	plotted := []gochart.Series{
		gochart.ContinuousSeries{
			Style:   gochart.Style{StrokeColor: anchorColor, StrokeWidth: 1},
			YAxis:   gochart.YAxisSecondary,
			XValues: []float64{bounds.XMin, bounds.XMax},
			YValues: []float64{bounds.YMin, bounds.YMax},
		},
	}
	var legendEntries []gochart.Series
	for _, ds := range ch.config.Data.Datasets {
		lineStyle := gochart.Style{
			StrokeColor: drawingColor(ds.BorderColor),
			StrokeWidth: float64(ds.BorderWidth),
		}
		if ds.Fill {
			lineStyle.FillColor = drawingColor(ds.BorderColor).WithAlpha(64)
		}
		legendEntries = append(legendEntries, gochart.ContinuousSeries{
			Name:  ds.Label,
			Style: lineStyle,
		})
		lines, lone := clip(ds.Data, bounds)
		for _, line := range lines {
			plotted = append(plotted, continuousSeries(ds.Label, line, lineStyle))
		}
		if len(lone) > 0 {
			plotted = append(plotted, continuousSeries(ds.Label, lone, gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotColor:    drawingColor(ds.BorderColor),
				DotWidth:    loneDotWidth,
			}))
		}
	}
	axisStyle := func(scale Scale) gochart.Style {
		c := themeDrawingColor(scale.Ticks.Color)
		return gochart.Style{
			Hidden:      !scale.Display,
			StrokeColor: c,
			FontColor:   c,
			StrokeWidth: float64(opts.Elements.Line.BorderWidth),
		}
	}
	gridStyle := func(scale Scale) gochart.Style {
		if !scale.Grid.Display {
			return gochart.Hidden()
		}
		return gochart.Style{StrokeColor: themeDrawingColor(scale.Ticks.Color).WithAlpha(48), StrokeWidth: 1}
	}
	yRange := &gochart.ContinuousRange{Min: bounds.YMin, Max: bounds.YMax}
	ret := gochart.Chart{
		Width:  width,
		Height: height,
		Background: gochart.Style{
			FillColor: backgroundColor,
			Padding:   chartPadding,
		},
		Canvas: gochart.Style{FillColor: backgroundColor},
		XAxis: gochart.XAxis{
			Style:          axisStyle(opts.Scales.X),
			Range:          &gochart.ContinuousRange{Min: bounds.XMin, Max: bounds.XMax},
			GridMajorStyle: gridStyle(opts.Scales.X),
			GridMinorStyle: gochart.Hidden(),
		},
		// Series plot against the secondary (left-hand) y axis; the primary
		// axis is hidden but still needs a range.
		YAxis: gochart.YAxis{
			Style: gochart.Hidden(),
			Range: yRange,
		},
		YAxisSecondary: gochart.YAxis{
			Style:          axisStyle(opts.Scales.Y),
			Range:          yRange,
			GridMajorStyle: gridStyle(opts.Scales.Y),
			GridMinorStyle: gochart.Hidden(),
		},
		Series: plotted,
	}
	if opts.Plugins.Legend.Display && len(legendEntries) > 0 {
		legendColor := themeDrawingColor(opts.Plugins.Legend.Labels.Color)
		legendSource := &gochart.Chart{Series: legendEntries}
		ret.Elements = []gochart.Renderable{
			gochart.Legend(legendSource, gochart.Style{
				FillColor:   backgroundColor,
				FontColor:   legendColor,
				StrokeColor: legendColor,
			}),
		}
	}
	return ret
}

func writeBlank(w io.Writer, width, height int) error {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, backgroundColor)
		}
	}
	return png.Encode(w, img)
}

// Draw writes the bound chart, at the receiver's current size and under the
// chart's current viewport, to w as a PNG, and records where it plotted the
// data.  With no chart bound, or if the chart cannot be drawn, a blank
// surface is written instead.
func (c *Canvas) Draw(w io.Writer) error {
	width, height := c.Size()
	if c.bound == nil {
		return writeBlank(w, width, height)
	}
	gc := c.bound.goChart(width, height)
	// Elements are handed the plot area go-chart laid the axes out around.
	var area gochart.Box
	gc.Elements = append(gc.Elements, func(_ gochart.Renderer, canvasBox gochart.Box, _ gochart.Style) {
		area = canvasBox
	})
	var buf bytes.Buffer
	if err := gc.Render(gochart.PNG, &buf); err != nil {
		c.log.WithError(err).Warn("Failed to draw chart; drawing a blank surface")
		return writeBlank(w, width, height)
	}
	c.drawnArea, c.drawnWidth = area, width
	_, err := buf.WriteTo(w)
	return err
}
