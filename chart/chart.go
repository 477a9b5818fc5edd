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

// Package chart provides line chart instances bound to a drawing surface, and
// the renderer that owns them.
//
// A Canvas is a drawing surface with a fixed height and a responsive width.
// At most one Chart is bound to a Canvas at a time:
//
//	canvas := chart.NewCanvas(log)
//	canvas.Attach()
//	ch, err := chart.New(canvas, chart.NewConfig(set, chart.DefaultOptions()))
//	...
//	ch.Destroy()
//
// A Chart holds its configuration, which is never mutated after construction,
// and a Viewport.  Updating the plotted data means destroying the chart and
// building a new one; the Renderer does exactly that on every Render.
//
// Canvases, Charts and Renderers are not safe for concurrent use.  They are
// owned by a single event loop.
package chart

import (
	"errors"
)

var (
	// ErrSurfaceInUse is returned when binding a chart to a surface that
	// already has a live chart.
	ErrSurfaceInUse = errors.New("drawing surface already has a live chart")
	// ErrChartDestroyed is returned by viewport operations on a destroyed
	// chart.
	ErrChartDestroyed = errors.New("chart has been destroyed")
)

// Chart is a chart instance bound to a Canvas.
type Chart struct {
	canvas    *Canvas
	config    Config
	viewport  *Viewport
	destroyed bool
}

// New builds a new Chart from cfg and binds it to canvas.  It returns
// ErrSurfaceInUse if canvas already has a live chart.
func New(canvas *Canvas, cfg Config) (*Chart, error) {
	if canvas.bound != nil {
		return nil, ErrSurfaceInUse
	}
	ch := &Chart{
		canvas:   canvas,
		config:   cfg,
		viewport: NewViewport(cfg.HomeBounds()),
	}
	canvas.bound = ch
	return ch, nil
}

// Config returns the configuration the receiver was built from.
func (ch *Chart) Config() Config {
	return ch.config
}

// Destroyed returns true if the receiver has been destroyed.
func (ch *Chart) Destroyed() bool {
	return ch.destroyed
}

// Destroy releases the receiver's canvas.  Destroying a chart more than once
// does nothing.
func (ch *Chart) Destroy() {
	if ch.destroyed {
		return
	}
	ch.destroyed = true
	if ch.canvas.bound == ch {
		ch.canvas.bound = nil
	}
}

// Bounds returns the data rectangle currently visible.
func (ch *Chart) Bounds() Rect {
	return ch.viewport.Current()
}

// HomeBounds returns the data rectangle visible by default.
func (ch *Chart) HomeBounds() Rect {
	return ch.viewport.Home()
}

// IsZoomedOrPanned returns true if the receiver is not showing its default
// viewport.
func (ch *Chart) IsZoomedOrPanned() bool {
	return !ch.viewport.IsHome()
}

// Pan shifts the visible bounds by (dx, dy) data units, along the axes the
// receiver's pan mode selects.  Panning a chart with panning disabled does
// nothing.
func (ch *Chart) Pan(dx, dy float64) error {
	if ch.destroyed {
		return ErrChartDestroyed
	}
	pan := ch.config.Options.Plugins.Zoom.Pan
	if pan.Enabled {
		ch.viewport.Pan(dx, dy, pan.Mode)
	}
	return nil
}

// Zoom scales the visible bounds by 1/factor about the data point (fx, fy),
// along the axes the receiver's zoom mode selects.
func (ch *Chart) Zoom(factor, fx, fy float64) error {
	if ch.destroyed {
		return ErrChartDestroyed
	}
	ch.viewport.Zoom(factor, fx, fy, ch.config.Options.Plugins.Zoom.Zoom.Mode)
	return nil
}

// ZoomTo shows the data rectangle r, along the axes the receiver's zoom mode
// selects.
func (ch *Chart) ZoomTo(r Rect) error {
	if ch.destroyed {
		return ErrChartDestroyed
	}
	ch.viewport.ZoomTo(r, ch.config.Options.Plugins.Zoom.Zoom.Mode)
	return nil
}

// ResetZoom restores the default viewport.  The plotted data is unchanged.
func (ch *Chart) ResetZoom() error {
	if ch.destroyed {
		return ErrChartDestroyed
	}
	ch.viewport.Reset()
	return nil
}

// PixelToData maps a surface pixel position to data coordinates under the
// current viewport.  Pixel y grows downward; data y grows upward.
func (ch *Chart) PixelToData(px, py float64) (x, y float64) {
	area := ch.canvas.PlotArea()
	cur := ch.viewport.Current()
	x = cur.XMin + (px-float64(area.Left))/float64(area.Width())*cur.Width()
	y = cur.YMax - (py-float64(area.Top))/float64(area.Height())*cur.Height()
	return x, y
}

// PixelDeltaToData maps a pixel displacement to a data displacement under the
// current viewport.
func (ch *Chart) PixelDeltaToData(dpx, dpy float64) (dx, dy float64) {
	area := ch.canvas.PlotArea()
	cur := ch.viewport.Current()
	return dpx / float64(area.Width()) * cur.Width(), -dpy / float64(area.Height()) * cur.Height()
}
