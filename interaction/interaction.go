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

// Package interaction binds viewport controls to the live chart: panning and
// zooming gestures on the chart surface, and a page-level reset key.
package interaction

import (
	"github.com/sirupsen/logrus"
	"github.com/umbralcalc/logsplorer/chart"
	"github.com/umbralcalc/logsplorer/events"
)

const (
	// ResetKey restores the default viewport when pressed anywhere on the
	// page.
	ResetKey = "r"

	// wheelSpeed is the zoom change per wheel notch.
	wheelSpeed = .1
)

// ChartSource provides the live chart, or nil if there is none.  A
// *chart.Renderer is a ChartSource.
type ChartSource interface {
	Chart() *chart.Chart
}

// Controller applies viewport gestures to the live chart of a ChartSource.
// It never holds on to a chart between calls.
type Controller struct {
	log      logrus.FieldLogger
	source   ChartSource
	resetSub *events.Subscription
}

// New returns a new, unmounted Controller acting on source's live chart.  A
// nil log uses the standard logger.
func New(log logrus.FieldLogger, source ChartSource) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		log:    log,
		source: source,
	}
}

// Mount installs the reset key listener on window.  Mounting an already
// mounted Controller does nothing.
func (c *Controller) Mount(window *events.Target) {
	if c.resetSub.Active() {
		return
	}
	c.resetSub = window.Listen(events.KeyPress, func(ev events.Event) {
		if ke, ok := ev.(events.KeyEvent); ok && ke.Key == ResetKey {
			c.Reset()
		}
	})
}

// Unmount removes the reset key listener.  Unmounting an unmounted
// Controller does nothing.
func (c *Controller) Unmount() {
	c.resetSub.Cancel()
	c.resetSub = nil
}

// Mounted returns true if the reset key listener is installed.
func (c *Controller) Mounted() bool {
	return c.resetSub.Active()
}

// Reset restores the live chart's default viewport.  With no live chart,
// Reset does nothing.
func (c *Controller) Reset() {
	ch := c.source.Chart()
	if ch == nil {
		return
	}
	if err := ch.ResetZoom(); err != nil {
		c.log.WithError(err).Warn("Failed to reset chart viewport")
	}
}

// Handle applies a gesture made on the chart surface, returning true if it
// was applied.  Key presses are not surface gestures and are ignored.
func (c *Controller) Handle(ev events.Event) bool {
	ch := c.source.Chart()
	if ch == nil {
		return false
	}
	var err error
	applied := false
	switch ev := ev.(type) {
	case events.DragEvent:
		applied, err = drag(ch, ev)
	case events.WheelEvent:
		applied, err = wheel(ch, ev)
	case events.PinchEvent:
		applied, err = pinch(ch, ev)
	}
	if err != nil {
		c.log.WithError(err).WithField("event", ev.Type()).Warn("Failed to apply gesture")
		return false
	}
	return applied
}

// drag pans while the pan modifier is held, or zooms to the dragged-out
// rectangle while the drag-zoom modifier is held.
func drag(ch *chart.Chart, ev events.DragEvent) (bool, error) {
	opts := ch.Config().Options.Plugins.Zoom
	switch {
	case opts.Pan.Enabled && ev.Held(opts.Pan.ModifierKey):
		dx, dy := ch.PixelDeltaToData(ev.EndX-ev.StartX, ev.EndY-ev.StartY)
		// The content follows the pointer, so the viewport moves against it.
		return true, ch.Pan(-dx, -dy)
	case opts.Zoom.Drag.Enabled && ev.Held(opts.Zoom.Drag.ModifierKey):
		x0, y0 := ch.PixelToData(ev.StartX, ev.StartY)
		x1, y1 := ch.PixelToData(ev.EndX, ev.EndY)
		return true, ch.ZoomTo(chart.Rect{XMin: x0, XMax: x1, YMin: y1, YMax: y0})
	default:
		return false, nil
	}
}

// wheel zooms in by one step for an upward scroll and out for a downward one,
// about the pointer.
func wheel(ch *chart.Chart, ev events.WheelEvent) (bool, error) {
	if !ch.Config().Options.Plugins.Zoom.Zoom.Wheel.Enabled || ev.DeltaY == 0 {
		return false, nil
	}
	factor := 1 + wheelSpeed
	if ev.DeltaY > 0 {
		factor = 1 - wheelSpeed
	}
	fx, fy := ch.PixelToData(ev.X, ev.Y)
	return true, ch.Zoom(factor, fx, fy)
}

// pinch zooms by the pinch scale about the pinch center.
func pinch(ch *chart.Chart, ev events.PinchEvent) (bool, error) {
	if !ch.Config().Options.Plugins.Zoom.Zoom.Pinch.Enabled || ev.Scale <= 0 {
		return false, nil
	}
	fx, fy := ch.PixelToData(ev.X, ev.Y)
	return true, ch.Zoom(ev.Scale, fx, fy)
}
