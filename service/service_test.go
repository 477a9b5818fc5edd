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
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/umbralcalc/logsplorer/chart"
	"github.com/umbralcalc/logsplorer/config"
	linechart "github.com/umbralcalc/logsplorer/line_chart"
	logreader "github.com/umbralcalc/logsplorer/log_reader"
	"github.com/umbralcalc/logsplorer/query"
)

// fakeFetcher serves canned results by raw query.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string][]query.ResultEntry
}

func (ff *fakeFetcher) Fetch(ctx context.Context, rawQuery string) ([]query.ResultEntry, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	results, ok := ff.results[rawQuery]
	if !ok {
		return nil, errors.New("upstream unavailable")
	}
	return results, nil
}

// gatedFetcher serves canned results by raw query, holding gated queries
// until their gate is closed.  Each Fetch reports its query on entered.
type gatedFetcher struct {
	entered chan string
	gates   map[string]chan struct{}
	results map[string][]query.ResultEntry
}

func (gf *gatedFetcher) Fetch(ctx context.Context, rawQuery string) ([]query.ResultEntry, error) {
	gf.entered <- rawQuery
	if gate, ok := gf.gates[rawQuery]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	results, ok := gf.results[rawQuery]
	if !ok {
		return nil, errors.New("upstream unavailable")
	}
	return results, nil
}

func result(log string, partition, iteration int, objective float64) query.ResultEntry {
	return query.ResultEntry{
		LogFilename:         log,
		PartitionIterations: iteration,
		Entry:               logreader.Entry{PartitionIndex: partition, Objective: objective},
	}
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

const twoSeries = "filenames=a.log,b.log"

func newTestServer(t *testing.T, sessionCapacity int) (*Service, *httptest.Server) {
	t.Helper()
	ff := &fakeFetcher{results: map[string][]query.ResultEntry{
		twoSeries: {
			result("a.log", 0, 1, 5), result("a.log", 0, 2, 3),
			result("b.log", 0, 1, 9), result("b.log", 0, 2, 4),
		},
	}}
	cfg := config.Default()
	cfg.SessionCapacity = sessionCapacity
	svc, err := NewWithFetcher(ff, cfg, quietLogger(), linechart.WithColorSource(rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, err)
	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Close()
	})
	return svc, srv
}

var sessionPattern = regexp.MustCompile(`data-session="([0-9a-f]+)"`)

func openPage(t *testing.T, srv *httptest.Server, path string) (string, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	m := sessionPattern.FindStringSubmatch(string(body))
	require.Len(t, m, 2, "page has no session ID")
	return m[1], string(body)
}

func postQuery(t *testing.T, srv *httptest.Server, id, q string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.PostForm(srv.URL+"/api/session/"+id+"/query", url.Values{"q": {q}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func postEvent(t *testing.T, srv *httptest.Server, id, ev string) (int, bool) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/session/"+id+"/events", "application/json", strings.NewReader(ev))
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, false
	}
	var got map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return resp.StatusCode, got["handled"]
}

func getStatus(t *testing.T, srv *httptest.Server, id string) (int, Status) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/session/" + id + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status Status
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	}
	return resp.StatusCode, status
}

func TestPage(t *testing.T) {
	svc, srv := newTestServer(t, 4)
	id, body := openPage(t, srv, "/?q="+url.QueryEscape(twoSeries))
	require.Equal(t, 1, svc.SessionCount())
	_, err := svc.Session(id)
	require.NoError(t, err)
	for _, help := range helpText {
		require.Contains(t, body, help)
	}
	require.Contains(t, body, `data-query="filenames=a.log,b.log"`)
	// Gestures, touch pinches included, are forwarded from the chart.
	for _, listener := range []string{"'wheel'", "'touchstart'", "'touchmove'", "type: 'pinch'"} {
		require.Contains(t, body, listener)
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, srv := newTestServer(t, 4)
	id, _ := openPage(t, srv, "/")

	resp, body := postQuery(t, srv, id, twoSeries)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var status Status
	require.NoError(t, json.Unmarshal(body, &status))
	require.Equal(t, 2, status.Series)
	require.Equal(t, 4, status.Points)
	// Mounting built an empty chart; the query rebuilt it.
	require.Equal(t, 2, status.Builds)
	require.False(t, status.Stale)
	require.NotNil(t, status.Bounds)

	// The chart draws at the requested width.
	pngResp, err := http.Get(srv.URL + "/api/session/" + id + "/chart.png?width=500")
	require.NoError(t, err)
	defer pngResp.Body.Close()
	require.Equal(t, http.StatusOK, pngResp.StatusCode)
	require.Equal(t, "image/png", pngResp.Header.Get("Content-Type"))
	img, err := png.DecodeConfig(pngResp.Body)
	require.NoError(t, err)
	require.Equal(t, 500, img.Width)
	require.Equal(t, chart.Height, img.Height)

	// The live chart's configuration carries one dataset per series.
	cfgResp, err := http.Get(srv.URL + "/api/session/" + id + "/chart.json")
	require.NoError(t, err)
	defer cfgResp.Body.Close()
	var cfg chart.Config
	require.NoError(t, json.NewDecoder(cfgResp.Body).Decode(&cfg))
	require.Len(t, cfg.Data.Datasets, 2)
	require.Equal(t, "a.log 0", cfg.Data.Datasets[0].Label)

	// Wheel zooms; the reset key restores the default viewport.
	code, handled := postEvent(t, srv, id, `{"type":"wheel","x":200,"y":100,"delta_y":-1}`)
	require.Equal(t, http.StatusOK, code)
	require.True(t, handled)
	_, status = getStatus(t, srv, id)
	require.True(t, status.ZoomedOrPanned)

	code, handled = postEvent(t, srv, id, `{"type":"keypress","key":"r"}`)
	require.Equal(t, http.StatusOK, code)
	require.True(t, handled)
	_, status = getStatus(t, srv, id)
	require.False(t, status.ZoomedOrPanned)

	// Two-finger pinches arrive as pinch events about their center.
	code, handled = postEvent(t, srv, id, `{"type":"pinch","x":200,"y":100,"scale":1.5}`)
	require.Equal(t, http.StatusOK, code)
	require.True(t, handled)
	_, status = getStatus(t, srv, id)
	require.True(t, status.ZoomedOrPanned)
	code, _ = postEvent(t, srv, id, `{"type":"pinch","x":200,"y":100,"scale":0}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, handled = postEvent(t, srv, id, `{"type":"keypress","key":"r"}`)
	require.Equal(t, http.StatusOK, code)
	require.True(t, handled)
	_, status = getStatus(t, srv, id)
	require.False(t, status.ZoomedOrPanned)

	code, _ = postEvent(t, srv, id, `{"type":"teleport"}`)
	require.Equal(t, http.StatusBadRequest, code)

	// A failed retrieval is reported, and the chart keeps its data.
	resp, body = postQuery(t, srv, id, "filenames=missing.log")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode, string(body))
	_, status = getStatus(t, srv, id)
	require.True(t, status.Stale)
	require.Contains(t, status.LastError, "upstream unavailable")
	require.Equal(t, 2, status.Series)
	require.Equal(t, twoSeries, status.Query)

	// A later success clears the error.
	resp, _ = postQuery(t, srv, id, twoSeries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, status = getStatus(t, srv, id)
	require.False(t, status.Stale)
	require.Empty(t, status.LastError)
	require.Equal(t, 3, status.Builds)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/session/"+id, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)

	code, _ = getStatus(t, srv, id)
	require.Equal(t, http.StatusNotFound, code)
}

func TestSupersededQueriesAreDropped(t *testing.T) {
	const (
		slow    = "filenames=a.log"
		fast    = "filenames=b.log"
		missing = "filenames=missing.log"
	)
	for _, test := range []struct {
		description string
		newer       string
		wantQuery   string
		wantSeries  int
		wantBuilds  int
		wantStale   bool
	}{{
		description: "newer failure",
		newer:       missing,
		wantQuery:   "",
		wantSeries:  0,
		wantBuilds:  1,
		wantStale:   true,
	}, {
		description: "newer success",
		newer:       fast,
		wantQuery:   fast,
		wantSeries:  1,
		wantBuilds:  2,
		wantStale:   false,
	}} {
		t.Run(test.description, func(t *testing.T) {
			gate := make(chan struct{})
			gf := &gatedFetcher{
				entered: make(chan string, 4),
				gates:   map[string]chan struct{}{slow: gate},
				results: map[string][]query.ResultEntry{
					slow: {result("a.log", 0, 1, 5), result("a.log", 1, 1, 6)},
					fast: {result("b.log", 0, 1, 9)},
				},
			}
			svc, err := NewWithFetcher(gf, config.Default(), quietLogger())
			require.NoError(t, err)
			defer svc.Close()
			sess, err := svc.NewSession()
			require.NoError(t, err)
			ctx := context.Background()

			slowDone := make(chan error, 1)
			go func() {
				_, err := sess.Query(ctx, slow)
				slowDone <- err
			}()
			// The slow query holds the earlier sequence number once it fetches.
			require.Equal(t, slow, <-gf.entered)
			_, err = sess.Query(ctx, test.newer)
			require.Equal(t, test.newer, <-gf.entered)
			if test.wantStale {
				require.ErrorIs(t, err, ErrFetch)
			} else {
				require.NoError(t, err)
			}
			close(gate)
			require.NoError(t, <-slowDone)

			status, err := sess.Status(ctx)
			require.NoError(t, err)
			require.NotEqual(t, slow, status.Query)
			require.Equal(t, test.wantQuery, status.Query)
			require.Equal(t, test.wantSeries, status.Series)
			require.Equal(t, test.wantBuilds, status.Builds)
			require.Equal(t, test.wantStale, status.Stale)
			if test.wantStale {
				require.Contains(t, status.LastError, "upstream unavailable")
			} else {
				require.Empty(t, status.LastError)
			}
		})
	}
}

func TestUnknownSession(t *testing.T) {
	_, srv := newTestServer(t, 4)
	code, _ := getStatus(t, srv, "nope")
	require.Equal(t, http.StatusNotFound, code)
	resp, _ := postQuery(t, srv, "nope", twoSeries)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChartJSONWithoutData(t *testing.T) {
	_, srv := newTestServer(t, 4)
	id, _ := openPage(t, srv, "/")
	// An empty set still builds a chart.
	resp, err := http.Get(srv.URL + "/api/session/" + id + "/chart.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEvictionClosesSessions(t *testing.T) {
	svc, srv := newTestServer(t, 1)
	first, _ := openPage(t, srv, "/")
	sess, err := svc.Session(first)
	require.NoError(t, err)
	second, _ := openPage(t, srv, "/")
	require.NotEqual(t, first, second)
	require.Equal(t, 1, svc.SessionCount())

	<-sess.Done()
	_, err = svc.Session(first)
	require.ErrorIs(t, err, ErrNoSession)
	code, _ := getStatus(t, srv, first)
	require.Equal(t, http.StatusNotFound, code)
	code, _ = getStatus(t, srv, second)
	require.Equal(t, http.StatusOK, code)
}

func TestQueryAPI(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	w := logreader.NewWriter(&buf)
	for i, objective := range []float64{3, 2, 1} {
		require.NoError(t, w.Write(logreader.Entry{PartitionIndex: i % 2, Objective: objective}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.log"), buf.Bytes(), 0o644))

	cfg := config.Default()
	cfg.LogRoot = dir
	svc, err := New(cfg, quietLogger())
	require.NoError(t, err)
	defer svc.Close()
	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + cfg.Handle + "?filenames=run.log&partition_index=0")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []query.ResultEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, []query.ResultEntry{
		result("run.log", 0, 1, 3),
		result("run.log", 0, 2, 1),
	}, got)

	badResp, err := http.Get(srv.URL + cfg.Handle + "?filenames=run.log&temperature%3C1")
	require.NoError(t, err)
	badResp.Body.Close()
	require.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}
