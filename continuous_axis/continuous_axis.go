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

// Package continuousaxis provides helpers for defining continuous chart axes.
// An axis tracks the minimum and maximum finite points along its domain, and
// yields a drawable range covering them.  The type and position constants
// name how a chart lays its axes out.
package continuousaxis

import (
	"math"
)

const (
	// LinearAxisType is the type of axes mapping values linearly to pixels.
	LinearAxisType = "linear"

	// BottomPosition places an axis below the plot area.
	BottomPosition = "bottom"
	// LeftPosition places an axis left of the plot area.
	LeftPosition = "left"

	// Bounds of an axis with no extents.
	emptyMin, emptyMax = 0, 1
	// Fraction of a lone extent's magnitude used to pad it into a range.
	loneExtentPadding = .05
)

// Axis is a linear axis over float64 values.
type Axis struct {
	min, max float64
	empty    bool
}

// NewLinearAxis returns a new linear Axis.  If the optional extents are
// provided, the axis' minimum and maximum extents will be initialized to the
// lowest and highest of those extents.  Non-finite extents are ignored.
func NewLinearAxis(extents ...float64) *Axis {
	a := &Axis{
		min:   math.MaxFloat64,
		max:   -math.MaxFloat64,
		empty: true,
	}
	return a.Extend(extents...)
}

// Extend widens the receiver to include the provided extents, ignoring
// non-finite ones, and returns the receiver.
func (a *Axis) Extend(extents ...float64) *Axis {
	for _, extent := range extents {
		if math.IsNaN(extent) || math.IsInf(extent, 0) {
			continue
		}
		if a.min > extent {
			a.min = extent
		}
		if a.max < extent {
			a.max = extent
		}
		a.empty = false
	}
	return a
}

// Bounds returns a drawable range covering the receiver's extents.  The
// returned max is always strictly greater than min: an empty axis spans
// [0, 1], and a single distinct extent v is padded by 5% of |v| (or by 1 if v
// is 0) on either side.
func (a *Axis) Bounds() (min, max float64) {
	if a.empty {
		return emptyMin, emptyMax
	}
	if a.min < a.max {
		return a.min, a.max
	}
	offset := math.Abs(a.max * loneExtentPadding)
	if offset == 0 {
		offset = 1
	}
	return a.min - offset, a.max + offset
}
