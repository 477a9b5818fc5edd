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
	"github.com/sirupsen/logrus"
	gochart "github.com/wcharczuk/go-chart/v2"
)

const (
	// Height is the fixed logical height of every Canvas.
	Height = 300
	// DefaultWidth is the width of a Canvas before its container reports one.
	DefaultWidth = 400

	minWidth = 100
	maxWidth = 4096

	// Estimated space for tick labels, used until the receiver is drawn.
	yTickAllowance = 48
	xTickAllowance = 24
)

// chartPadding surrounds the plot area and its tick labels.
var chartPadding = gochart.Box{Top: 24, Left: 16, Right: 24, Bottom: 16}

// Canvas is a drawing surface.  It must be attached before a Renderer will
// draw charts on it.
type Canvas struct {
	log      logrus.FieldLogger
	attached bool
	width    int
	bound    *Chart
	// The plot area of the last draw, and the width it was drawn at.
	drawnArea  gochart.Box
	drawnWidth int
}

// NewCanvas returns a new, detached Canvas of the default size.  A nil log
// uses the standard logger.
func NewCanvas(log logrus.FieldLogger) *Canvas {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Canvas{
		log:   log,
		width: DefaultWidth,
	}
}

// Attach makes the receiver available for drawing.
func (c *Canvas) Attach() {
	c.attached = true
}

// Detach makes the receiver unavailable for drawing.  Any bound chart stays
// bound until it is destroyed.
func (c *Canvas) Detach() {
	c.attached = false
}

// Attached returns true if the receiver is available for drawing.
func (c *Canvas) Attached() bool {
	return c.attached
}

// Resize sets the receiver's width to that of its container, clamped to a
// sane range, and returns the width applied.  The height never changes.  A
// bound chart adopts the new size on its next draw.
func (c *Canvas) Resize(width int) int {
	if width < minWidth {
		width = minWidth
	}
	if width > maxWidth {
		width = maxWidth
	}
	c.width = width
	return width
}

// Size returns the receiver's width and height in pixels.
func (c *Canvas) Size() (width, height int) {
	return c.width, Height
}

// Bound returns the live chart bound to the receiver, or nil.
func (c *Canvas) Bound() *Chart {
	return c.bound
}

// PlotArea returns the region of the receiver, in pixels, that data is
// plotted into.  This is where the last draw at the current width placed it;
// before such a draw, it is estimated from the padding.
func (c *Canvas) PlotArea() gochart.Box {
	if c.drawnWidth == c.width {
		return c.drawnArea
	}
	return gochart.Box{
		Top:    chartPadding.Top,
		Left:   chartPadding.Left + yTickAllowance,
		Right:  c.width - chartPadding.Right,
		Bottom: Height - chartPadding.Bottom - xTickAllowance,
	}
}
