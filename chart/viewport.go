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

import "math"

const (
	// maxZoom bounds how far a viewport may zoom in, or out, relative to its
	// home bounds along either axis.
	maxZoom = 50
)

// Rect is a rectangle in data coordinates.
type Rect struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Width returns the receiver's x span.
func (r Rect) Width() float64 {
	return r.XMax - r.XMin
}

// Height returns the receiver's y span.
func (r Rect) Height() float64 {
	return r.YMax - r.YMin
}

// normalized returns the receiver with each axis' min and max in order.
func (r Rect) normalized() Rect {
	if r.XMin > r.XMax {
		r.XMin, r.XMax = r.XMax, r.XMin
	}
	if r.YMin > r.YMax {
		r.YMin, r.YMax = r.YMax, r.YMin
	}
	return r
}

// Viewport is the pan/zoom transform of a chart: the data rectangle currently
// visible, and the home rectangle it resets to.
type Viewport struct {
	home, cur Rect
}

// NewViewport returns a new Viewport showing its home bounds.
func NewViewport(home Rect) *Viewport {
	return &Viewport{
		home: home,
		cur:  home,
	}
}

// Home returns the receiver's default bounds.
func (v *Viewport) Home() Rect {
	return v.home
}

// Current returns the receiver's visible bounds.
func (v *Viewport) Current() Rect {
	return v.cur
}

// IsHome returns true if the receiver shows its default bounds.
func (v *Viewport) IsHome() bool {
	return v.cur == v.home
}

// Reset restores the default bounds.
func (v *Viewport) Reset() {
	v.cur = v.home
}

// Pan shifts the visible bounds by (dx, dy) data units along the axes
// selected by mode.
func (v *Viewport) Pan(dx, dy float64, mode Mode) {
	if mode.X() && finite(dx) {
		v.cur.XMin += dx
		v.cur.XMax += dx
	}
	if mode.Y() && finite(dy) {
		v.cur.YMin += dy
		v.cur.YMax += dy
	}
}

// clampSpan returns span limited to within maxZoom of homeSpan.
func clampSpan(span, homeSpan float64) float64 {
	return math.Max(homeSpan/maxZoom, math.Min(homeSpan*maxZoom, span))
}

// zoomAxis scales [min, max] about focus by 1/factor, keeping focus at the
// same relative position.
func zoomAxis(min, max, focus, factor, homeSpan float64) (float64, float64) {
	span := max - min
	newSpan := clampSpan(span/factor, homeSpan)
	rel := .5
	if span > 0 {
		rel = (focus - min) / span
	}
	newMin := focus - rel*newSpan
	return newMin, newMin + newSpan
}

// Zoom scales the visible bounds by 1/factor about the data point
// (fx, fy) along the axes selected by mode: factors above 1 zoom in.  Spans
// are limited to within a factor of 50 of the home spans.  Zoom returns false
// and does nothing for a non-positive or non-finite factor.
func (v *Viewport) Zoom(factor, fx, fy float64, mode Mode) bool {
	if !finite(factor) || factor <= 0 || !finite(fx) || !finite(fy) {
		return false
	}
	if mode.X() {
		v.cur.XMin, v.cur.XMax = zoomAxis(v.cur.XMin, v.cur.XMax, fx, factor, v.home.Width())
	}
	if mode.Y() {
		v.cur.YMin, v.cur.YMax = zoomAxis(v.cur.YMin, v.cur.YMax, fy, factor, v.home.Height())
	}
	return true
}

// ZoomTo shows r along the axes selected by mode, as when a rectangle is
// dragged out on the chart.  A rectangle with no extent along a selected axis
// is ignored, returning false.
func (v *Viewport) ZoomTo(r Rect, mode Mode) bool {
	r = r.normalized()
	if (mode.X() && !(r.Width() > 0)) || (mode.Y() && !(r.Height() > 0)) {
		return false
	}
	fit := func(min, max, homeSpan float64) (float64, float64) {
		span := clampSpan(max-min, homeSpan)
		if span == max-min {
			return min, max
		}
		mid := min + (max-min)/2
		return mid - span/2, mid + span/2
	}
	if mode.X() {
		v.cur.XMin, v.cur.XMax = fit(r.XMin, r.XMax, v.home.Width())
	}
	if mode.Y() {
		v.cur.YMin, v.cur.YMax = fit(r.YMin, r.YMax, v.home.Height())
	}
	return true
}
