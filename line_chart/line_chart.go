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

// Package linechart provides the interactive multi-series line chart
// component.  A Component groups result entries into series, colors each
// series stably for its lifetime, rebuilds its chart whenever new entries
// arrive, and keeps viewport controls bound to whichever chart is live.
//
// A Component is not safe for concurrent use.  All of its methods must be
// called from the single event loop that owns it.
package linechart

import (
	"github.com/sirupsen/logrus"
	"github.com/umbralcalc/logsplorer/chart"
	"github.com/umbralcalc/logsplorer/color"
	"github.com/umbralcalc/logsplorer/events"
	"github.com/umbralcalc/logsplorer/interaction"
	"github.com/umbralcalc/logsplorer/series"
)

// Component is a line chart component.
type Component struct {
	log        logrus.FieldLogger
	window     *events.Target
	colors     *color.Table
	canvas     *chart.Canvas
	renderer   *chart.Renderer
	controller *interaction.Controller
	set        series.Set
	mounted    bool
}

type settings struct {
	log       logrus.FieldLogger
	colorSrc  color.Source
	options   chart.Options
	hasOption bool
}

// Option configures a Component.
type Option func(*settings)

// WithLogger sets the Component's logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *settings) {
		s.log = log
	}
}

// WithColorSource sets the random source series colors are drawn from.
func WithColorSource(src color.Source) Option {
	return func(s *settings) {
		s.colorSrc = src
	}
}

// WithChartOptions overrides the default chart options.
func WithChartOptions(options chart.Options) Option {
	return func(s *settings) {
		s.options = options
		s.hasOption = true
	}
}

// New returns a new, unmounted Component whose reset key binding will be
// installed on window.
func New(window *events.Target, opts ...Option) *Component {
	s := &settings{
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.hasOption {
		s.options = chart.DefaultOptions()
	}
	canvas := chart.NewCanvas(s.log)
	renderer := chart.NewRenderer(s.log, canvas, s.options)
	return &Component{
		log:        s.log,
		window:     window,
		colors:     color.NewTable(s.colorSrc),
		canvas:     canvas,
		renderer:   renderer,
		controller: interaction.New(s.log, renderer),
		set:        series.Set{},
	}
}

// Mount attaches the component's surface, installs its reset key binding,
// and draws the most recent data.  Mounting a mounted Component does nothing.
func (c *Component) Mount() {
	if c.mounted {
		return
	}
	c.mounted = true
	c.canvas.Attach()
	c.controller.Mount(c.window)
	c.renderer.Render(c.set)
}

// Unmount removes the reset key binding, destroys the live chart and detaches
// the surface.  Series colors are kept.
func (c *Component) Unmount() {
	if !c.mounted {
		return
	}
	c.mounted = false
	c.controller.Unmount()
	c.renderer.Destroy()
	c.canvas.Detach()
}

// Mounted returns true if the receiver is mounted.
func (c *Component) Mounted() bool {
	return c.mounted
}

// SetData performs one aggregation pass over entries and rebuilds the chart
// from the result.  Nil or empty entries plot an empty chart.  If the
// component is not mounted the chart is rebuilt on the next Mount.
func (c *Component) SetData(entries []series.Entry) series.Set {
	c.set = series.Aggregate(entries, c.colors)
	if !c.renderer.Render(c.set) {
		c.log.WithField("series", len(c.set)).Debug("Surface not attached; deferring render")
	}
	return c.set
}

// Series returns the series plotted by the latest aggregation pass.
func (c *Component) Series() series.Set {
	return c.set
}

// Colors returns the receiver's color table.
func (c *Component) Colors() *color.Table {
	return c.colors
}

// Canvas returns the receiver's drawing surface.
func (c *Component) Canvas() *chart.Canvas {
	return c.canvas
}

// Chart returns the live chart, or nil.
func (c *Component) Chart() *chart.Chart {
	return c.renderer.Chart()
}

// Builds returns the number of charts the receiver has built.
func (c *Component) Builds() int {
	return c.renderer.Builds()
}

// HandleGesture applies a pan or zoom gesture made on the surface.
func (c *Component) HandleGesture(ev events.Event) bool {
	return c.controller.Handle(ev)
}

// ResetZoom restores the live chart's default viewport, if there is a live
// chart.
func (c *Component) ResetZoom() {
	c.controller.Reset()
}
