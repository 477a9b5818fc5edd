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
	"encoding/json"
	"math"
	"strconv"

	"github.com/umbralcalc/logsplorer/color"
	continuousaxis "github.com/umbralcalc/logsplorer/continuous_axis"
	"github.com/umbralcalc/logsplorer/events"
	"github.com/umbralcalc/logsplorer/series"
)

const (
	// LineChartType is the only supported chart type.
	LineChartType = "line"

	// DatasetBorderWidth is the line width of every dataset.
	DatasetBorderWidth = 2

	themeColor         = "white"
	elementBorderWidth = 1
)

// Mode selects the axes a viewport operation applies to.
type Mode string

// Supported modes.
const (
	XMode  Mode = "x"
	YMode  Mode = "y"
	XYMode Mode = "xy"
)

// X returns true if the receiver includes the x axis.
func (m Mode) X() bool {
	return m == XMode || m == XYMode
}

// Y returns true if the receiver includes the y axis.
func (m Mode) Y() bool {
	return m == YMode || m == XYMode
}

// DataPoint is a single plotted point.  Non-finite Y values encode as null.
type DataPoint struct {
	X float64
	Y float64
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Finite returns true if both coordinates of the receiver are finite.
func (dp DataPoint) Finite() bool {
	return finite(dp.X) && finite(dp.Y)
}

func encodeCoord(v float64) []byte {
	if !finite(v) {
		return []byte("null")
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64)
}

// MarshalJSON encodes the receiver as {"x":..,"y":..}.
func (dp DataPoint) MarshalJSON() ([]byte, error) {
	ret := []byte(`{"x":`)
	ret = append(ret, encodeCoord(dp.X)...)
	ret = append(ret, `,"y":`...)
	ret = append(ret, encodeCoord(dp.Y)...)
	return append(ret, '}'), nil
}

// UnmarshalJSON decodes {"x":..,"y":..}, mapping null to NaN.
func (dp *DataPoint) UnmarshalJSON(data []byte) error {
	var wire struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	dp.X, dp.Y = math.NaN(), math.NaN()
	if wire.X != nil {
		dp.X = *wire.X
	}
	if wire.Y != nil {
		dp.Y = *wire.Y
	}
	return nil
}

// Dataset is one plotted line.
type Dataset struct {
	Label       string      `json:"label"`
	Data        []DataPoint `json:"data"`
	BorderColor color.Color `json:"borderColor"`
	BorderWidth int         `json:"borderWidth"`
	Fill        bool        `json:"fill"`
}

// Data holds a chart's datasets.
type Data struct {
	Datasets []Dataset `json:"datasets"`
}

// Grid configures an axis' grid lines.
type Grid struct {
	Display bool `json:"display"`
}

// Ticks configures an axis' tick labels.
type Ticks struct {
	Color string `json:"color"`
}

// Scale configures one axis.
type Scale struct {
	Type     string `json:"type,omitempty"`
	Position string `json:"position,omitempty"`
	Display  bool   `json:"display"`
	Grid     Grid   `json:"grid"`
	Ticks    Ticks  `json:"ticks"`
}

// Scales configures both axes.
type Scales struct {
	X Scale `json:"x"`
	Y Scale `json:"y"`
}

// Animation configures transitions between chart states.
type Animation struct {
	Duration int `json:"duration"`
}

// LegendLabels configures legend entry labels.
type LegendLabels struct {
	Color string `json:"color"`
}

// Legend configures the legend.
type Legend struct {
	Display bool         `json:"display"`
	Labels  LegendLabels `json:"labels"`
}

// Title configures the chart title.
type Title struct {
	Display bool `json:"display"`
}

// PanOptions configures panning.
type PanOptions struct {
	Enabled     bool            `json:"enabled"`
	Mode        Mode            `json:"mode"`
	ModifierKey events.Modifier `json:"modifierKey,omitempty"`
}

// DragZoomOptions configures drag-to-zoom.
type DragZoomOptions struct {
	Enabled     bool            `json:"enabled"`
	ModifierKey events.Modifier `json:"modifierKey,omitempty"`
}

// GestureOptions enables or disables a zoom gesture.
type GestureOptions struct {
	Enabled bool `json:"enabled"`
}

// ZoomGestures configures the zoom gestures.
type ZoomGestures struct {
	Drag  DragZoomOptions `json:"drag"`
	Wheel GestureOptions  `json:"wheel"`
	Pinch GestureOptions  `json:"pinch"`
	Mode  Mode            `json:"mode"`
}

// ZoomPlugin configures viewport interaction.
type ZoomPlugin struct {
	Pan  PanOptions   `json:"pan"`
	Zoom ZoomGestures `json:"zoom"`
}

// Plugins holds plugin configuration.
type Plugins struct {
	Legend Legend     `json:"legend"`
	Title  Title      `json:"title"`
	Zoom   ZoomPlugin `json:"zoom"`
}

// ElementStyle styles a kind of chart element.
type ElementStyle struct {
	BorderColor string `json:"borderColor"`
	BorderWidth int    `json:"borderWidth"`
}

// Elements styles points and lines.
type Elements struct {
	Point ElementStyle `json:"point"`
	Line  ElementStyle `json:"line"`
}

// Options holds chart-wide options.
type Options struct {
	Responsive          bool      `json:"responsive"`
	MaintainAspectRatio bool      `json:"maintainAspectRatio"`
	Animation           Animation `json:"animation"`
	Scales              Scales    `json:"scales"`
	Plugins             Plugins   `json:"plugins"`
	Elements            Elements  `json:"elements"`
}

// Config is a complete chart configuration.
type Config struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

// DefaultOptions returns the options of a dark-themed line chart: white ticks,
// legend labels and element borders, no grid lines, no animation, and panning
// (ctrl-drag) and zooming (shift-drag, wheel, or pinch) on both axes.
func DefaultOptions() Options {
	themedScale := func(scaleType, position string) Scale {
		return Scale{
			Type:     scaleType,
			Position: position,
			Display:  true,
			Grid:     Grid{Display: false},
			Ticks:    Ticks{Color: themeColor},
		}
	}
	return Options{
		Responsive:          true,
		MaintainAspectRatio: false,
		Animation:           Animation{Duration: 0},
		Scales: Scales{
			X: themedScale(continuousaxis.LinearAxisType, continuousaxis.BottomPosition),
			Y: themedScale(continuousaxis.LinearAxisType, continuousaxis.LeftPosition),
		},
		Plugins: Plugins{
			Legend: Legend{
				Display: true,
				Labels:  LegendLabels{Color: themeColor},
			},
			Title: Title{Display: false},
			Zoom: ZoomPlugin{
				Pan: PanOptions{
					Enabled:     true,
					Mode:        XYMode,
					ModifierKey: events.Ctrl,
				},
				Zoom: ZoomGestures{
					Drag: DragZoomOptions{
						Enabled:     true,
						ModifierKey: events.Shift,
					},
					Wheel: GestureOptions{Enabled: true},
					Pinch: GestureOptions{Enabled: true},
					Mode:  XYMode,
				},
			},
		},
		Elements: Elements{
			Point: ElementStyle{BorderColor: themeColor, BorderWidth: elementBorderWidth},
			Line:  ElementStyle{BorderColor: themeColor, BorderWidth: elementBorderWidth},
		},
	}
}

// NewConfig returns a line chart configuration with one dataset per series in
// set, ordered by series key, and the provided options.
func NewConfig(set series.Set, opts Options) Config {
	datasets := make([]Dataset, 0, len(set))
	for _, s := range set.Ordered() {
		data := make([]DataPoint, len(s.Points))
		for idx, pt := range s.Points {
			data[idx] = DataPoint{X: float64(pt.X), Y: pt.Y}
		}
		datasets = append(datasets, Dataset{
			Label:       s.Label,
			Data:        data,
			BorderColor: s.Color,
			BorderWidth: DatasetBorderWidth,
			Fill:        false,
		})
	}
	return Config{
		Type:    LineChartType,
		Data:    Data{Datasets: datasets},
		Options: opts,
	}
}

// axes returns the x and y axes spanning the receiver's finite data.
func (c Config) axes() (x, y *continuousaxis.Axis) {
	x = continuousaxis.NewLinearAxis()
	y = continuousaxis.NewLinearAxis()
	for _, ds := range c.Data.Datasets {
		for _, dp := range ds.Data {
			if dp.Finite() {
				x.Extend(dp.X)
				y.Extend(dp.Y)
			}
		}
	}
	return x, y
}

// HomeBounds returns the default viewport of the receiver: the bounds of its
// finite data, padded where degenerate.
func (c Config) HomeBounds() Rect {
	x, y := c.axes()
	var r Rect
	r.XMin, r.XMax = x.Bounds()
	r.YMin, r.YMax = y.Bounds()
	return r
}
