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
	"io"
	"net/http"
	"strconv"

	eventloop "github.com/umbralcalc/logsplorer/event_loop"
	"github.com/umbralcalc/logsplorer/events"
	"github.com/umbralcalc/logsplorer/handlers"
)

// maxEventBytes bounds the size of a posted event.
const maxEventBytes = 4 << 10

// sessionStatus maps session errors to HTTP statuses.
func sessionStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoSession), errors.Is(err, eventloop.ErrClosed):
		return http.StatusNotFound
	case errors.Is(err, ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sessionHandler adapts a handler of a live session to an HTTP handler.
func (s *Service) sessionHandler(h func(*Session, http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		sess, err := s.Session(req.PathValue("id"))
		if err != nil {
			http.Error(w, err.Error(), sessionStatus(err))
			return
		}
		h(sess, w, req)
	}
}

// RegisterHandlers registers the receiver's handlers on mux.
func (s *Service) RegisterHandlers(mux *http.ServeMux) {
	for path, handler := range s.queryHandler.HandlersByPath() {
		mux.HandleFunc(path, handler)
	}
	mux.HandleFunc("GET /{$}", s.pageHandler)
	mux.HandleFunc("POST /api/session/{id}/query", s.sessionHandler(s.queryHandlerFunc))
	mux.HandleFunc("GET /api/session/{id}/chart.png", s.sessionHandler(s.chartPNGHandler))
	mux.HandleFunc("GET /api/session/{id}/chart.json", s.sessionHandler(s.chartJSONHandler))
	mux.HandleFunc("POST /api/session/{id}/events", s.sessionHandler(s.eventsHandler))
	mux.HandleFunc("GET /api/session/{id}/status", s.sessionHandler(s.statusHandler))
	mux.HandleFunc("DELETE /api/session/{id}", s.deleteSessionHandler)
}

// pageHandler starts a session and serves its page.  A "q" parameter is
// plotted as soon as the page loads.
func (s *Service) pageHandler(w http.ResponseWriter, req *http.Request) {
	sess, err := s.NewSession()
	if err != nil {
		http.Error(w, "Failed to start session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := page.Execute(&buf, pageData{
		SessionID: sess.ID(),
		Query:     req.URL.Query().Get("q"),
		Help:      helpText,
	}); err != nil {
		s.CloseSession(sess.ID())
		http.Error(w, "Failed to render page: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Service) queryHandlerFunc(sess *Session, w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}
	status, err := sess.Query(req.Context(), req.Form.Get("q"))
	if err != nil {
		http.Error(w, err.Error(), sessionStatus(err))
		return
	}
	handlers.SendJSON(w, status)
}

func (s *Service) chartPNGHandler(sess *Session, w http.ResponseWriter, req *http.Request) {
	width := 0
	if ws := req.URL.Query().Get("width"); ws != "" {
		var err error
		if width, err = strconv.Atoi(ws); err != nil {
			http.Error(w, "Invalid width '"+ws+"'", http.StatusBadRequest)
			return
		}
	}
	png, err := sess.Draw(req.Context(), width)
	if err != nil {
		http.Error(w, "Failed to draw chart: "+err.Error(), sessionStatus(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

func (s *Service) chartJSONHandler(sess *Session, w http.ResponseWriter, req *http.Request) {
	cfg, err := sess.ChartConfig(req.Context())
	if err != nil {
		http.Error(w, err.Error(), sessionStatus(err))
		return
	}
	if cfg == nil {
		http.Error(w, "Session has no live chart", http.StatusNotFound)
		return
	}
	handlers.SendJSON(w, cfg)
}

func (s *Service) eventsHandler(sess *Session, w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxEventBytes))
	if err != nil {
		http.Error(w, "Failed to read event: "+err.Error(), http.StatusBadRequest)
		return
	}
	ev, err := events.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	handled, err := sess.Dispatch(req.Context(), ev)
	if err != nil {
		http.Error(w, err.Error(), sessionStatus(err))
		return
	}
	handlers.SendJSON(w, map[string]bool{"handled": handled})
}

func (s *Service) statusHandler(sess *Session, w http.ResponseWriter, req *http.Request) {
	status, err := sess.Status(req.Context())
	if err != nil {
		http.Error(w, err.Error(), sessionStatus(err))
		return
	}
	handlers.SendJSON(w, status)
}

func (s *Service) deleteSessionHandler(w http.ResponseWriter, req *http.Request) {
	if !s.CloseSession(req.PathValue("id")) {
		http.Error(w, ErrNoSession.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
