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

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umbralcalc/logsplorer/chart"
	eventloop "github.com/umbralcalc/logsplorer/event_loop"
	"github.com/umbralcalc/logsplorer/events"
	linechart "github.com/umbralcalc/logsplorer/line_chart"
	"github.com/umbralcalc/logsplorer/query"
)

// ErrFetch wraps failures retrieving query results.
var ErrFetch = errors.New("failed to retrieve query results")

// Status summarizes a session.
type Status struct {
	ID             string      `json:"id"`
	Query          string      `json:"query"`
	Series         int         `json:"series"`
	Points         int         `json:"points"`
	Builds         int         `json:"builds"`
	ZoomedOrPanned bool        `json:"zoomed_or_panned"`
	Bounds         *chart.Rect `json:"bounds,omitempty"`
	LastError      string      `json:"last_error,omitempty"`
	// Stale is true if the latest query failed, so the chart still shows
	// the results of an earlier one.
	Stale bool `json:"stale"`
}

// Session is one browser page's chart component, running on its own event
// loop.  The component and the session's bookkeeping are only touched from
// that loop; Session's exported methods are safe for concurrent use.
type Session struct {
	id        string
	log       logrus.FieldLogger
	fetcher   query.Fetcher
	loop      *eventloop.Loop
	window    *events.Target
	component *linechart.Component

	// Loop-owned.
	query     string
	requested int
	applied   int
	lastError string
	stale     bool
}

func newSession(id string, fetcher query.Fetcher, log logrus.FieldLogger, opts ...linechart.Option) *Session {
	log = log.WithField("session", id)
	window := events.NewTarget()
	s := &Session{
		id:        id,
		log:       log,
		fetcher:   fetcher,
		loop:      eventloop.New(log),
		window:    window,
		component: linechart.New(window, append([]linechart.Option{linechart.WithLogger(log)}, opts...)...),
	}
	s.loop.Post(s.component.Mount)
	return s
}

// ID returns the receiver's identifier.
func (s *Session) ID() string {
	return s.id
}

// close unmounts the receiver's component and stops its loop.
func (s *Session) close() {
	s.loop.Post(s.component.Unmount)
	s.loop.Close()
}

// Done returns a channel closed once the receiver has been closed and its
// component unmounted.
func (s *Session) Done() <-chan struct{} {
	return s.loop.Done()
}

func (s *Session) status() Status {
	ret := Status{
		ID:        s.id,
		Query:     s.query,
		Series:    len(s.component.Series()),
		Points:    s.component.Series().Len(),
		Builds:    s.component.Builds(),
		LastError: s.lastError,
		Stale:     s.stale,
	}
	if ch := s.component.Chart(); ch != nil {
		bounds := ch.Bounds()
		ret.Bounds = &bounds
		ret.ZoomedOrPanned = ch.IsZoomedOrPanned()
	}
	return ret
}

// Query fetches the results of rawQuery and plots them.  Results are
// retrieved off the loop; if a later Query has already been applied, these
// results are dropped.  On failure the chart keeps its data, the session is
// marked stale, and the returned error wraps ErrFetch.
func (s *Session) Query(ctx context.Context, rawQuery string) (Status, error) {
	var seq int
	if err := s.loop.Do(ctx, func() {
		s.requested++
		seq = s.requested
	}); err != nil {
		return Status{}, err
	}
	start := time.Now()
	results, fetchErr := s.fetcher.Fetch(ctx, rawQuery)
	var ret Status
	if err := s.loop.Do(ctx, func() {
		defer func() { ret = s.status() }()
		if seq < s.applied {
			return
		}
		// A failure supersedes earlier queries just as a success does.
		s.applied = seq
		if fetchErr != nil {
			s.lastError = fetchErr.Error()
			s.stale = true
			return
		}
		s.query = rawQuery
		s.lastError = ""
		s.stale = false
		set := s.component.SetData(query.SeriesEntries(results))
		s.log.WithFields(logrus.Fields{
			"query":  rawQuery,
			"series": len(set),
			"points": set.Len(),
			"colors": s.component.Colors().Len(),
		}).Infof("Plotted query in %s", time.Since(start))
	}); err != nil {
		return Status{}, err
	}
	if fetchErr != nil {
		s.log.WithError(fetchErr).WithField("query", rawQuery).Warn("Query failed; keeping the last chart")
		return ret, fmt.Errorf("%w: %w", ErrFetch, fetchErr)
	}
	return ret, nil
}

// Status returns the receiver's status.
func (s *Session) Status(ctx context.Context) (Status, error) {
	var ret Status
	err := s.loop.Do(ctx, func() {
		ret = s.status()
	})
	return ret, err
}

// Draw resizes the receiver's surface to width, if width is positive, and
// returns its PNG rendering.
func (s *Session) Draw(ctx context.Context, width int) ([]byte, error) {
	var buf bytes.Buffer
	var drawErr error
	if err := s.loop.Do(ctx, func() {
		if width > 0 {
			s.component.Canvas().Resize(width)
		}
		drawErr = s.component.Canvas().Draw(&buf)
	}); err != nil {
		return nil, err
	}
	if drawErr != nil {
		return nil, drawErr
	}
	return buf.Bytes(), nil
}

// ChartConfig returns the configuration of the live chart, or nil if there
// is none.
func (s *Session) ChartConfig(ctx context.Context) (*chart.Config, error) {
	var ret *chart.Config
	err := s.loop.Do(ctx, func() {
		if ch := s.component.Chart(); ch != nil {
			cfg := ch.Config()
			ret = &cfg
		}
	})
	return ret, err
}

// Dispatch delivers a page event.  Key presses go to the page window, where
// global key bindings listen; gestures go to the chart surface.  It returns
// true if the event was handled.
func (s *Session) Dispatch(ctx context.Context, ev events.Event) (bool, error) {
	var handled bool
	err := s.loop.Do(ctx, func() {
		if ev.Type() == events.KeyPress {
			handled = s.window.Dispatch(ev) > 0
			return
		}
		handled = s.component.HandleGesture(ev)
	})
	return handled, err
}
