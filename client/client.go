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

// Package client fetches query results from a remote logsplorer API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/umbralcalc/logsplorer/handlers"
	"github.com/umbralcalc/logsplorer/query"
)

const (
	defaultTimeout = 30 * time.Second
	// maxErrorBody bounds how much of a failed response is quoted in errors.
	maxErrorBody = 512

	forwardedForHeader = "X-Forwarded-For"
)

// Client is a query.Fetcher issuing queries to a logsplorer API.
type Client struct {
	apiURL *url.URL
	http   *http.Client
	log    logrus.FieldLogger
}

var _ query.Fetcher = &Client{}

// New returns a new Client against the provided API URL, e.g.
// "http://localhost:8080/api/logsplorer".  A nil httpClient uses a client
// with a 30s timeout; a nil log uses the standard logger.
func New(apiURL string, httpClient *http.Client, log logrus.FieldLogger) (*Client, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL '%s': %w", apiURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL '%s': scheme must be http or https", apiURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		apiURL: u,
		http:   httpClient,
		log:    log,
	}, nil
}

// Fetch issues the raw query and decodes its results.  Non-2xx responses are
// errors.  If ctx carries the API request being served, its caller's address
// is forwarded.
func (c *Client) Fetch(ctx context.Context, rawQuery string) ([]query.ResultEntry, error) {
	u := *c.apiURL
	u.RawQuery = strings.TrimPrefix(rawQuery, "?")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build query request: %w", err)
	}
	// Queries proxied on behalf of an API caller name that caller upstream.
	if origin, err := handlers.RequestOf(ctx); err == nil && origin != nil {
		if host, _, err := net.SplitHostPort(origin.RemoteAddr); err == nil {
			req.Header.Set(forwardedForHeader, host)
		}
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("query request failed with status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var results []query.ResultEntry
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"query":   rawQuery,
		"results": len(results),
	}).Debugf("Fetched query in %s", time.Since(start))
	return results, nil
}
