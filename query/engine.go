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

package query

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/sirupsen/logrus"
	logreader "github.com/umbralcalc/logsplorer/log_reader"
	"golang.org/x/sync/errgroup"
)

// ErrOutsideRoot is returned for log filenames resolving outside the log
// root.
var ErrOutsideRoot = errors.New("log is outside the log root")

// Fetcher retrieves the results of a raw query string.
type Fetcher interface {
	Fetch(ctx context.Context, rawQuery string) ([]ResultEntry, error)
}

// cacheKey identifies one version of a log file.
type cacheKey struct {
	path    string
	size    int64
	modTime time.Time
}

// Engine runs queries against the logs under a root directory.  Parsed logs
// are cached, keyed by path, size and modification time, so a log that is
// still being written is reread.  Engines support concurrent use.
type Engine struct {
	root string
	log  logrus.FieldLogger

	mu  sync.Mutex
	lru *simplelru.LRU
}

var _ Fetcher = &Engine{}

// NewEngine returns a new Engine reading logs under root and caching up to
// cacheCapacity parsed logs.  A nil log uses the standard logger.
func NewEngine(root string, cacheCapacity int, log logrus.FieldLogger) (*Engine, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	lru, err := simplelru.NewLRU(cacheCapacity, nil /* no onEvict policy */)
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log root '%s': %w", root, err)
	}
	return &Engine{
		root: absRoot,
		log:  log,
		lru:  lru,
	}, nil
}

// resolve returns the path of the named log, which must lie within the
// receiver's root.
func (e *Engine) resolve(logFilename string) (string, error) {
	path := logFilename
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.root, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(e.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: '%s'", ErrOutsideRoot, logFilename)
	}
	return path, nil
}

func (e *Engine) cached(key cacheKey) ([]logreader.Entry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entriesIf, ok := e.lru.Get(key)
	if !ok {
		return nil, false
	}
	entries, ok := entriesIf.([]logreader.Entry)
	return entries, ok
}

// load returns the entries of the named log.
func (e *Engine) load(logFilename string) ([]logreader.Entry, error) {
	path, err := e.resolve(logFilename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log '%s': %w", logFilename, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat log '%s': %w", logFilename, err)
	}
	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime()}
	if entries, ok := e.cached(key); ok {
		file.Close()
		return entries, nil
	}
	// The Reader takes ownership of the file.
	entries, err := logreader.New(
		logFilename,
		logreader.ReaderCloser{
			Reader: bufio.NewReader(file),
			Closer: file,
		},
		&logreader.JSONLinesParser{},
		e.log,
	).ReadAll()
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.lru.Add(key, entries)
	e.mu.Unlock()
	return entries, nil
}

// Run runs q, returning matching entries in filename order, then log order.
// Logs are read concurrently.
func (e *Engine) Run(ctx context.Context, q *Query) ([]ResultEntry, error) {
	start := time.Now()
	perLog := make([][]ResultEntry, len(q.Filenames))
	errg, ctx := errgroup.WithContext(ctx)
	for idx, logFilename := range q.Filenames {
		idx, logFilename := idx, logFilename
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries, err := e.load(logFilename)
			if err != nil {
				return err
			}
			results, err := Apply(logFilename, entries, q.Filters)
			if err != nil {
				return err
			}
			perLog[idx] = results
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	ret := []ResultEntry{}
	for _, results := range perLog {
		ret = append(ret, results...)
	}
	e.log.WithFields(logrus.Fields{
		"logs":    len(q.Filenames),
		"filters": q.Params(),
		"results": len(ret),
	}).Infof("Handled query in %s", time.Since(start))
	return ret, nil
}

// Fetch parses and runs a raw query string.
func (e *Engine) Fetch(ctx context.Context, rawQuery string) ([]ResultEntry, error) {
	q, err := Parse(rawQuery)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, q)
}
