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
	"github.com/umbralcalc/logsplorer/series"
)

// Renderer owns the chart bound to a Canvas, rebuilding it from scratch on
// every Render.
type Renderer struct {
	log     logrus.FieldLogger
	canvas  *Canvas
	options Options
	current *Chart
	builds  int
}

// NewRenderer returns a new Renderer drawing on canvas with the provided
// chart options.  A nil log uses the standard logger.
func NewRenderer(log logrus.FieldLogger, canvas *Canvas, options Options) *Renderer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Renderer{
		log:     log,
		canvas:  canvas,
		options: options,
	}
}

// Render destroys the current chart, if any, and builds a new one plotting
// set.  If the canvas is not attached, Render does nothing and returns false;
// the next Render after attachment draws.
func (r *Renderer) Render(set series.Set) bool {
	if !r.canvas.Attached() {
		return false
	}
	r.Destroy()
	ch, err := New(r.canvas, NewConfig(set, r.options))
	if err != nil {
		// Only reachable if something other than this Renderer bound a chart.
		r.log.WithError(err).Error("Failed to build chart")
		return false
	}
	r.current = ch
	r.builds++
	r.log.WithFields(logrus.Fields{
		"series": len(set),
		"points": set.Len(),
		"build":  r.builds,
	}).Debug("Built chart")
	return true
}

// Chart returns the live chart, or nil if there is none.
func (r *Renderer) Chart() *Chart {
	return r.current
}

// Builds returns the number of charts the receiver has built.
func (r *Renderer) Builds() int {
	return r.builds
}

// Destroy destroys the live chart, if any.
func (r *Renderer) Destroy() {
	if r.current != nil {
		r.current.Destroy()
		r.current = nil
	}
}
