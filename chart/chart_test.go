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
	"encoding/json"
	"errors"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/umbralcalc/logsplorer/color"
	"github.com/umbralcalc/logsplorer/events"
	"github.com/umbralcalc/logsplorer/series"
)

var (
	red   = color.Color{R: 255, G: 120, B: 120}
	green = color.Color{R: 120, G: 255, B: 120}
)

func testSet() series.Set {
	return series.Set{
		"b 0": {Key: "b 0", Label: "b 0", Color: green, Points: []series.Point{{X: 1, Y: 9}}},
		"a 0": {Key: "a 0", Label: "a 0", Color: red, Points: []series.Point{{X: 1, Y: 5}, {X: 2, Y: 3}}},
	}
}

func attachedCanvas() *Canvas {
	c := NewCanvas(nil)
	c.Attach()
	return c
}

func TestNewConfig(t *testing.T) {
	got := NewConfig(testSet(), DefaultOptions())
	want := Config{
		Type: LineChartType,
		Data: Data{
			Datasets: []Dataset{{
				Label:       "a 0",
				Data:        []DataPoint{{1, 5}, {2, 3}},
				BorderColor: red,
				BorderWidth: 2,
			}, {
				Label:       "b 0",
				Data:        []DataPoint{{1, 9}},
				BorderColor: green,
				BorderWidth: 2,
			}},
		},
		Options: DefaultOptions(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewConfig() diff (-want +got) %s", diff)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	for _, test := range []struct {
		description string
		got, want   any
	}{
		{"animation disabled", opts.Animation.Duration, 0},
		{"x axis linear", opts.Scales.X.Type, "linear"},
		{"x axis at bottom", opts.Scales.X.Position, "bottom"},
		{"y axis linear", opts.Scales.Y.Type, "linear"},
		{"x grid hidden", opts.Scales.X.Grid.Display, false},
		{"y grid hidden", opts.Scales.Y.Grid.Display, false},
		{"x ticks white", opts.Scales.X.Ticks.Color, "white"},
		{"y ticks white", opts.Scales.Y.Ticks.Color, "white"},
		{"legend labels white", opts.Plugins.Legend.Labels.Color, "white"},
		{"point borders white", opts.Elements.Point.BorderColor, "white"},
		{"line borders white", opts.Elements.Line.BorderColor, "white"},
		{"pan needs ctrl", opts.Plugins.Zoom.Pan.ModifierKey, events.Ctrl},
		{"pan on both axes", opts.Plugins.Zoom.Pan.Mode, XYMode},
		{"drag zoom needs shift", opts.Plugins.Zoom.Zoom.Drag.ModifierKey, events.Shift},
		{"wheel zoom enabled", opts.Plugins.Zoom.Zoom.Wheel.Enabled, true},
		{"pinch zoom enabled", opts.Plugins.Zoom.Zoom.Pinch.Enabled, true},
		{"zoom on both axes", opts.Plugins.Zoom.Zoom.Mode, XYMode},
		{"responsive", opts.Responsive, true},
	} {
		t.Run(test.description, func(t *testing.T) {
			if diff := cmp.Diff(test.want, test.got); diff != "" {
				t.Errorf("option diff (-want +got) %s", diff)
			}
		})
	}
}

func TestConfigJSON(t *testing.T) {
	set := series.Set{
		"a 0": {Key: "a 0", Label: "a 0", Color: red, Points: []series.Point{{X: 1, Y: math.NaN()}, {X: 2, Y: 3.5}}},
	}
	data, err := json.Marshal(NewConfig(set, DefaultOptions()))
	if err != nil {
		t.Fatalf("json.Marshal() yielded unexpected error %s", err)
	}
	for _, want := range []string{
		`"data":[{"x":1,"y":null},{"x":2,"y":3.5}]`,
		`"borderColor":"#ff7878"`,
		`"borderWidth":2,"fill":false`,
		`"animation":{"duration":0}`,
		`"pan":{"enabled":true,"mode":"xy","modifierKey":"ctrl"}`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("encoded config %s does not contain %s", data, want)
		}
	}
	var decoded Config
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() yielded unexpected error %s", err)
	}
	if diff := cmp.Diff(NewConfig(set, DefaultOptions()), decoded, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("decoded config diff (-want +got) %s", diff)
	}
}

func TestHomeBounds(t *testing.T) {
	for _, test := range []struct {
		description string
		set         series.Set
		want        Rect
	}{{
		description: "empty set",
		set:         series.Set{},
		want:        Rect{XMin: 0, XMax: 1, YMin: 0, YMax: 1},
	}, {
		description: "data extents",
		set:         testSet(),
		want:        Rect{XMin: 1, XMax: 2, YMin: 3, YMax: 9},
	}, {
		description: "lone point is padded",
		set: series.Set{
			"a 0": {Key: "a 0", Points: []series.Point{{X: 0, Y: 20}}},
		},
		want: Rect{XMin: -1, XMax: 1, YMin: 19, YMax: 21},
	}, {
		description: "non-finite values skipped",
		set: series.Set{
			"a 0": {Key: "a 0", Points: []series.Point{{X: 1, Y: math.Inf(1)}, {X: 2, Y: 4}, {X: 3, Y: 6}}},
		},
		want: Rect{XMin: 2, XMax: 3, YMin: 4, YMax: 6},
	}} {
		t.Run(test.description, func(t *testing.T) {
			got := NewConfig(test.set, DefaultOptions()).HomeBounds()
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("HomeBounds() diff (-want +got) %s", diff)
			}
		})
	}
}

func TestChartLifecycle(t *testing.T) {
	canvas := attachedCanvas()
	first, err := New(canvas, NewConfig(testSet(), DefaultOptions()))
	if err != nil {
		t.Fatalf("New() yielded unexpected error %s", err)
	}
	if canvas.Bound() != first {
		t.Fatalf("New() did not bind the chart to its canvas")
	}
	if _, err := New(canvas, NewConfig(series.Set{}, DefaultOptions())); !errors.Is(err, ErrSurfaceInUse) {
		t.Fatalf("New() on a bound canvas = %v, want %v", err, ErrSurfaceInUse)
	}
	first.Destroy()
	first.Destroy()
	if canvas.Bound() != nil {
		t.Fatalf("Destroy() left the chart bound")
	}
	for _, op := range []struct {
		name string
		fn   func() error
	}{
		{"Pan", func() error { return first.Pan(1, 1) }},
		{"Zoom", func() error { return first.Zoom(2, 0, 0) }},
		{"ZoomTo", func() error { return first.ZoomTo(Rect{0, 1, 0, 1}) }},
		{"ResetZoom", first.ResetZoom},
	} {
		if err := op.fn(); !errors.Is(err, ErrChartDestroyed) {
			t.Errorf("%s() on a destroyed chart = %v, want %v", op.name, err, ErrChartDestroyed)
		}
	}
	second, err := New(canvas, NewConfig(series.Set{}, DefaultOptions()))
	if err != nil {
		t.Fatalf("New() after Destroy() yielded unexpected error %s", err)
	}
	first.Destroy()
	if canvas.Bound() != second {
		t.Errorf("destroying a stale chart unbound the live one")
	}
}

func TestViewport(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-9)
	cfg := NewConfig(testSet(), DefaultOptions())
	home := Rect{XMin: 1, XMax: 2, YMin: 3, YMax: 9}
	for _, test := range []struct {
		description string
		ops         func(ch *Chart)
		want        Rect
	}{{
		description: "pan",
		ops:         func(ch *Chart) { ch.Pan(.5, 1) },
		want:        Rect{XMin: 1.5, XMax: 2.5, YMin: 4, YMax: 10},
	}, {
		description: "pan then zoom in about a point",
		ops: func(ch *Chart) {
			ch.Pan(.5, 1)
			ch.Zoom(2, 2, 6)
		},
		want: Rect{XMin: 1.75, XMax: 2.25, YMin: 5, YMax: 8},
	}, {
		description: "zoom out",
		ops:         func(ch *Chart) { ch.Zoom(.5, 1.5, 6) },
		want:        Rect{XMin: .5, XMax: 2.5, YMin: 0, YMax: 12},
	}, {
		description: "zoom in is limited",
		ops:         func(ch *Chart) { ch.Zoom(1000, 1.5, 6) },
		want:        Rect{XMin: 1.49, XMax: 1.51, YMin: 5.94, YMax: 6.06},
	}, {
		description: "invalid zoom ignored",
		ops: func(ch *Chart) {
			ch.Zoom(0, 1, 1)
			ch.Zoom(math.NaN(), 1, 1)
		},
		want: home,
	}, {
		description: "zoom to rectangle",
		ops:         func(ch *Chart) { ch.ZoomTo(Rect{XMin: 1.8, XMax: 1.2, YMin: 4, YMax: 6}) },
		want:        Rect{XMin: 1.2, XMax: 1.8, YMin: 4, YMax: 6},
	}, {
		description: "zoom to flat rectangle ignored",
		ops:         func(ch *Chart) { ch.ZoomTo(Rect{XMin: 1.2, XMax: 1.8, YMin: 4, YMax: 4}) },
		want:        home,
	}} {
		t.Run(test.description, func(t *testing.T) {
			canvas := attachedCanvas()
			ch, err := New(canvas, cfg)
			if err != nil {
				t.Fatalf("New() yielded unexpected error %s", err)
			}
			test.ops(ch)
			if diff := cmp.Diff(test.want, ch.Bounds(), approx); diff != "" {
				t.Errorf("Bounds() diff (-want +got) %s", diff)
			}
			if err := ch.ResetZoom(); err != nil {
				t.Fatalf("ResetZoom() yielded unexpected error %s", err)
			}
			if diff := cmp.Diff(home, ch.Bounds()); diff != "" {
				t.Errorf("Bounds() after ResetZoom() diff (-want +got) %s", diff)
			}
			if ch.IsZoomedOrPanned() {
				t.Errorf("IsZoomedOrPanned() after ResetZoom() = true")
			}
			if diff := cmp.Diff(cfg, ch.Config()); diff != "" {
				t.Errorf("viewport operations changed the chart data (-want +got) %s", diff)
			}
		})
	}
}

func TestPanRespectsMode(t *testing.T) {
	opts := DefaultOptions()
	opts.Plugins.Zoom.Pan.Mode = XMode
	ch, err := New(attachedCanvas(), NewConfig(testSet(), opts))
	if err != nil {
		t.Fatalf("New() yielded unexpected error %s", err)
	}
	ch.Pan(1, 1)
	want := Rect{XMin: 2, XMax: 3, YMin: 3, YMax: 9}
	if diff := cmp.Diff(want, ch.Bounds()); diff != "" {
		t.Errorf("Bounds() diff (-want +got) %s", diff)
	}
}

func TestPixelMapping(t *testing.T) {
	canvas := attachedCanvas()
	ch, err := New(canvas, NewConfig(testSet(), DefaultOptions()))
	if err != nil {
		t.Fatalf("New() yielded unexpected error %s", err)
	}
	area := canvas.PlotArea()
	x, y := ch.PixelToData(float64(area.Left), float64(area.Top))
	if diff := cmp.Diff([]float64{1, 9}, []float64{x, y}, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("PixelToData(top left) diff (-want +got) %s", diff)
	}
	x, y = ch.PixelToData(float64(area.Right), float64(area.Bottom))
	if diff := cmp.Diff([]float64{2, 3}, []float64{x, y}, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("PixelToData(bottom right) diff (-want +got) %s", diff)
	}
	dx, dy := ch.PixelDeltaToData(float64(area.Width()), float64(area.Height()))
	if diff := cmp.Diff([]float64{1, -6}, []float64{dx, dy}, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("PixelDeltaToData() diff (-want +got) %s", diff)
	}
}

func TestPlotAreaFollowsDrawnLayout(t *testing.T) {
	drawnArea := func(set series.Set) (*Canvas, *Chart) {
		t.Helper()
		canvas := attachedCanvas()
		r := NewRenderer(nil, canvas, DefaultOptions())
		if !r.Render(set) {
			t.Fatalf("Render() did not build a chart")
		}
		if err := canvas.Draw(&bytes.Buffer{}); err != nil {
			t.Fatalf("Draw() yielded unexpected error %s", err)
		}
		return canvas, r.Chart()
	}
	narrow, narrowChart := drawnArea(testSet())
	wide, _ := drawnArea(series.Set{
		"a 0": {Key: "a 0", Label: "a 0", Color: red, Points: []series.Point{{X: 1, Y: 1e9}, {X: 2, Y: 3e9}}},
	})
	narrowArea, wideArea := narrow.PlotArea(), wide.PlotArea()
	if narrowArea.Left <= chartPadding.Left {
		t.Errorf("drawn plot area left edge %d leaves no room for tick labels", narrowArea.Left)
	}
	if wideArea.Left <= narrowArea.Left {
		t.Errorf("wide tick labels left edge %d, want beyond narrow labels' %d", wideArea.Left, narrowArea.Left)
	}
	if narrowArea.Right > DefaultWidth-chartPadding.Right || narrowArea.Bottom >= Height-chartPadding.Bottom {
		t.Errorf("drawn plot area %v overlaps the padding", narrowArea)
	}
	// Pixel mapping follows the drawn layout.
	x, y := narrowChart.PixelToData(float64(narrowArea.Left), float64(narrowArea.Top))
	if diff := cmp.Diff([]float64{1, 9}, []float64{x, y}, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("PixelToData(drawn top left) diff (-want +got) %s", diff)
	}
	// A resize falls back to the estimate until the next draw.
	narrow.Resize(600)
	if got, want := narrow.PlotArea().Right, 600-chartPadding.Right; got != want {
		t.Errorf("PlotArea().Right after Resize() = %d, want %d", got, want)
	}
}

func TestClip(t *testing.T) {
	r := Rect{XMin: 0, XMax: 10, YMin: 0, YMax: 10}
	nan := math.NaN()
	for _, test := range []struct {
		description string
		points      []DataPoint
		wantLines   [][]DataPoint
		wantLone    []DataPoint
	}{{
		description: "inside",
		points:      []DataPoint{{1, 1}, {2, 2}, {3, 1}},
		wantLines:   [][]DataPoint{{{1, 1}, {2, 2}, {3, 1}}},
	}, {
		description: "leaves and reenters",
		points:      []DataPoint{{1, 5}, {20, 5}, {5, 5}},
		wantLines:   [][]DataPoint{{{1, 5}, {10, 5}}, {{10, 5}, {5, 5}}},
	}, {
		description: "crosses without a vertex inside",
		points:      []DataPoint{{-5, 5}, {15, 5}},
		wantLines:   [][]DataPoint{{{0, 5}, {10, 5}}},
	}, {
		description: "entirely outside",
		points:      []DataPoint{{-5, 20}, {15, 20}},
	}, {
		description: "non-finite breaks the line",
		points:      []DataPoint{{1, 1}, {2, 2}, {3, nan}, {4, 4}, {5, 5}},
		wantLines:   [][]DataPoint{{{1, 1}, {2, 2}}, {{4, 4}, {5, 5}}},
	}, {
		description: "isolated point",
		points:      []DataPoint{{1, nan}, {2, 2}, {3, nan}},
		wantLone:    []DataPoint{{2, 2}},
	}, {
		description: "single point",
		points:      []DataPoint{{2, 2}},
		wantLone:    []DataPoint{{2, 2}},
	}} {
		t.Run(test.description, func(t *testing.T) {
			gotLines, gotLone := clip(test.points, r)
			if diff := cmp.Diff(test.wantLines, gotLines, cmpopts.EquateEmpty(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("clip() lines diff (-want +got) %s", diff)
			}
			if diff := cmp.Diff(test.wantLone, gotLone, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("clip() lone points diff (-want +got) %s", diff)
			}
		})
	}
}

func TestRenderer(t *testing.T) {
	canvas := NewCanvas(nil)
	r := NewRenderer(nil, canvas, DefaultOptions())
	if r.Render(testSet()) {
		t.Fatalf("Render() on a detached canvas = true, want false")
	}
	if r.Chart() != nil || canvas.Bound() != nil {
		t.Fatalf("Render() on a detached canvas built a chart")
	}
	canvas.Attach()
	if !r.Render(series.Set{}) {
		t.Fatalf("Render(empty) = false, want true")
	}
	empty := r.Chart()
	if empty == nil || len(empty.Config().Data.Datasets) != 0 {
		t.Fatalf("Render(empty) built %v, want a chart with no datasets", empty)
	}
	empty.Zoom(2, .5, .5)
	if !r.Render(testSet()) {
		t.Fatalf("Render() = false, want true")
	}
	populated := r.Chart()
	if !empty.Destroyed() {
		t.Errorf("Render() left the previous chart live")
	}
	if canvas.Bound() != populated {
		t.Errorf("canvas bound to %p, want the latest chart %p", canvas.Bound(), populated)
	}
	if got := len(populated.Config().Data.Datasets); got != 2 {
		t.Errorf("latest chart has %d datasets, want 2", got)
	}
	if populated.IsZoomedOrPanned() {
		t.Errorf("rebuilt chart kept the previous chart's viewport")
	}
	if r.Builds() != 2 {
		t.Errorf("Builds() = %d, want 2", r.Builds())
	}
	r.Destroy()
	if canvas.Bound() != nil || r.Chart() != nil || !populated.Destroyed() {
		t.Errorf("Destroy() left a live chart")
	}
}

func TestDraw(t *testing.T) {
	for _, test := range []struct {
		description string
		setup       func(c *Canvas)
		width       int
	}{{
		description: "nothing bound",
		setup:       func(c *Canvas) {},
		width:       DefaultWidth,
	}, {
		description: "empty chart",
		setup: func(c *Canvas) {
			NewRenderer(nil, c, DefaultOptions()).Render(series.Set{})
		},
		width: DefaultWidth,
	}, {
		description: "populated chart, resized",
		setup: func(c *Canvas) {
			c.Resize(640)
			NewRenderer(nil, c, DefaultOptions()).Render(testSet())
		},
		width: 640,
	}, {
		description: "zoomed chart with non-finite values",
		setup: func(c *Canvas) {
			r := NewRenderer(nil, c, DefaultOptions())
			r.Render(series.Set{
				"a 0": {Key: "a 0", Label: "a 0", Color: red, Points: []series.Point{
					{X: 1, Y: 1}, {X: 2, Y: math.NaN()}, {X: 3, Y: 2}, {X: 4, Y: 8}, {X: 5, Y: 3},
				}},
			})
			r.Chart().Zoom(4, 3, 2)
		},
		width: DefaultWidth,
	}, {
		description: "narrow container clamped",
		setup: func(c *Canvas) {
			c.Resize(10)
		},
		width: minWidth,
	}} {
		t.Run(test.description, func(t *testing.T) {
			canvas := attachedCanvas()
			test.setup(canvas)
			var buf bytes.Buffer
			if err := canvas.Draw(&buf); err != nil {
				t.Fatalf("Draw() yielded unexpected error %s", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("Draw() did not write a PNG: %s", err)
			}
			if got, want := img.Bounds().Dx(), test.width; got != want {
				t.Errorf("drawn width = %d, want %d", got, want)
			}
			if got := img.Bounds().Dy(); got != Height {
				t.Errorf("drawn height = %d, want %d", got, Height)
			}
		})
	}
}
