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

// Package handlers provides the HTTP handlers serving logsplorer queries.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/umbralcalc/logsplorer/query"
)

// HandlerFunc is a HTTP handler function.
type HandlerFunc func(http.ResponseWriter, *http.Request)

// WrapFunc is a function that rewrites a HandlerFunc.
type WrapFunc func(HandlerFunc) HandlerFunc

// Handler describes a logsplorer HTTP handler.
type Handler interface {
	HandlersByPath() map[string]func(http.ResponseWriter, *http.Request)
}

// QueryHandler is a Handler for log queries.  It supports a Wrap method that
// wraps all handlers, e.g. adding CORS headers.
type QueryHandler interface {
	Handler
	Wrap(...WrapFunc) Handler
}

// SendJSON serializes v and sends it along the provided
// http.ResponseWriter.  Any failures during serialization yield an HTTP
// internal status error.
func SendJSON(w http.ResponseWriter, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to marshal response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, string(resp))
}

// StatusOf returns the HTTP status reporting a failed query.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, query.ErrInvalidQuery),
		errors.Is(err, query.ErrUnknownParam),
		errors.Is(err, query.ErrOutsideRoot):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// queryHandler is an http.Handler serving logsplorer queries.
type queryHandler struct {
	handle   string
	fetcher  query.Fetcher
	log      logrus.FieldLogger
	wrappers []WrapFunc
}

// NewQueryHandler returns a new Handler serving queries at the provided
// handle using the provided Fetcher.
func NewQueryHandler(handle string, fetcher query.Fetcher, log logrus.FieldLogger) QueryHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &queryHandler{
		handle:  handle,
		fetcher: fetcher,
		log:     log,
	}
}

type contextKey string

var (
	httpReqKey contextKey = "logsplorer_http_req"
)

// RequestOf returns the http Request attached to the provided Context, or nil
// if no Request is attached.  Returns an error if something other than a
// Request is stored in the Context.
func RequestOf(ctx context.Context) (*http.Request, error) {
	reqIf := ctx.Value(httpReqKey)
	if reqIf == nil {
		return nil, nil
	}
	req, ok := reqIf.(*http.Request)
	if !ok {
		return nil, fmt.Errorf("expected *http.Request to be stored in context, but got something else")
	}
	return req, nil
}

func (qh *queryHandler) Wrap(wrappers ...WrapFunc) Handler {
	qh.wrappers = append(qh.wrappers, wrappers...)
	return qh
}

// HandlersByPath returns a mapping of HTTP request path to HTTP handler for
// this Handler.
func (qh *queryHandler) HandlersByPath() map[string]func(http.ResponseWriter, *http.Request) {
	var qf HandlerFunc = qh.serveQuery
	for _, wrapper := range qh.wrappers {
		qf = wrapper(qf)
	}
	return map[string]func(http.ResponseWriter, *http.Request){
		qh.handle: qf,
	}
}

func (qh *queryHandler) serveQuery(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Queries must be GETs", http.StatusMethodNotAllowed)
		return
	}
	ctx := context.WithValue(req.Context(), httpReqKey, req)
	results, err := qh.fetcher.Fetch(ctx, req.URL.RawQuery)
	if err != nil {
		qh.log.WithError(err).WithField("query", req.URL.RawQuery).Warn("Query failed")
		http.Error(w, "Query failed: "+err.Error(), StatusOf(err))
		return
	}
	SendJSON(w, results)
}
