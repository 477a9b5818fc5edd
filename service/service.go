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

// Package service serves logsplorer: the query API, and interactive chart
// pages whose chart components live server side, one per page session.
package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/sirupsen/logrus"
	"github.com/umbralcalc/logsplorer/client"
	"github.com/umbralcalc/logsplorer/config"
	"github.com/umbralcalc/logsplorer/handlers"
	linechart "github.com/umbralcalc/logsplorer/line_chart"
	"github.com/umbralcalc/logsplorer/query"
)

// ErrNoSession is returned for unknown, closed, or evicted sessions.
var ErrNoSession = errors.New("no such session")

// sessionStore is an LRU of live sessions.  Sessions leaving the store, by
// eviction or removal, are closed.
type sessionStore struct {
	mu  sync.Mutex
	lru *simplelru.LRU
}

func newSessionStore(capacity int) (*sessionStore, error) {
	lru, err := simplelru.NewLRU(capacity, func(_, sessIf interface{}) {
		if sess, ok := sessIf.(*Session); ok {
			sess.close()
		}
	})
	if err != nil {
		return nil, err
	}
	return &sessionStore{lru: lru}, nil
}

func (ss *sessionStore) add(sess *Session) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.lru.Add(sess.id, sess)
}

func (ss *sessionStore) get(id string) (*Session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	sessIf, ok := ss.lru.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrNoSession, id)
	}
	sess, ok := sessIf.(*Session)
	if !ok {
		return nil, fmt.Errorf("stored session '%s' wasn't a Session", id)
	}
	return sess, nil
}

func (ss *sessionStore) remove(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.lru.Remove(id)
}

func (ss *sessionStore) len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.lru.Len()
}

func (ss *sessionStore) purge() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.lru.Purge()
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Service serves the query API at its configured handle, and chart page
// sessions.
type Service struct {
	log          logrus.FieldLogger
	fetcher      query.Fetcher
	queryHandler handlers.QueryHandler
	sessions     *sessionStore
	chartOptions []linechart.Option
}

// Fetcher returns the fetcher configured by cfg: a client of cfg's remote
// API if one is set, otherwise an engine over cfg's log root.
func Fetcher(cfg *config.Config, log logrus.FieldLogger) (query.Fetcher, error) {
	if cfg.APIURL != "" {
		return client.New(cfg.APIURL, nil, log)
	}
	return query.NewEngine(cfg.LogRoot, cfg.CacheCapacity, log)
}

// New returns a new Service configured by cfg.  A nil log uses the standard
// logger.
func New(cfg *config.Config, log logrus.FieldLogger, opts ...linechart.Option) (*Service, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	fetcher, err := Fetcher(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewWithFetcher(fetcher, cfg, log, opts...)
}

// NewWithFetcher returns a new Service retrieving query results from
// fetcher.  cfg's session capacity, handle and allowed origins apply.
func NewWithFetcher(fetcher query.Fetcher, cfg *config.Config, log logrus.FieldLogger, opts ...linechart.Option) (*Service, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	sessions, err := newSessionStore(cfg.SessionCapacity)
	if err != nil {
		return nil, err
	}
	qh := handlers.NewQueryHandler(cfg.Handle, fetcher, log)
	if len(cfg.AllowedRequestOrigins) > 0 {
		qh.Wrap(handlers.CORS(cfg.AllowedRequestOrigins))
	}
	return &Service{
		log:          log,
		fetcher:      fetcher,
		queryHandler: qh,
		sessions:     sessions,
		chartOptions: opts,
	}, nil
}

// NewSession starts a new chart session.  If the session store is full, the
// least recently used session is closed.
func (s *Service) NewSession() (*Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	sess := newSession(id, s.fetcher, s.log, s.chartOptions...)
	s.sessions.add(sess)
	s.log.WithField("session", id).Debug("Started session")
	return sess, nil
}

// Session returns the live session with the provided ID.
func (s *Service) Session(id string) (*Session, error) {
	return s.sessions.get(id)
}

// CloseSession closes the session with the provided ID, returning false if
// there was none.
func (s *Service) CloseSession(id string) bool {
	return s.sessions.remove(id)
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	return s.sessions.len()
}

// Close closes every session.
func (s *Service) Close() {
	s.sessions.purge()
}
