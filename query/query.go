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

// Package query implements the logsplorer query language over objective logs.
//
// A query is a URL query string.  The "filenames" parameter lists the logs to
// read, comma-separated; every other parameter filters entries:
//
//	filenames=a.log,b.log&partition_index=0,1&objective<3&partition_iterations>10
//
// A filter is a comma-separated list of allowed values, an exclusive lower
// limit (param>v) or an exclusive upper limit (param<v); a parameter may carry
// several.  Filterable parameters are partition_iterations (the 1-based count
// of entries of the entry's partition read so far from its log, counted before
// filtering), partition_index, objective, and any key of an entry's float or
// int parameters; an entry is excluded if any of a parameter's values fail.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Reserved parameter names.
const (
	FilenamesParam           = "filenames"
	PartitionIterationsParam = "partition_iterations"
	PartitionIndexParam      = "partition_index"
	ObjectiveParam           = "objective"
)

var (
	// ErrUnknownParam is returned when a query filters on a parameter an
	// entry does not have.
	ErrUnknownParam = errors.New("unknown query parameter")
	// ErrInvalidQuery is returned for queries that cannot be parsed.
	ErrInvalidQuery = errors.New("invalid query")
)

// ValueLimit is an exclusive limit on the range of a value.
type ValueLimit struct {
	Upper bool
	Limit float64
}

// Filter holds the filtering logic for a single parameter.
type Filter struct {
	AllowedValues []float64
	ValueLimits   []ValueLimit
}

// Ignore returns true if value should be filtered out.
func (f *Filter) Ignore(value float64) bool {
	if f.AllowedValues != nil {
		allowed := false
		for _, av := range f.AllowedValues {
			if value == av {
				allowed = true
				break
			}
		}
		if !allowed {
			return true
		}
	}
	for _, limit := range f.ValueLimits {
		if limit.Upper && value >= limit.Limit ||
			!limit.Upper && value <= limit.Limit {
			return true
		}
	}
	return false
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s' is not a number", ErrInvalidQuery, s)
	}
	return v, nil
}

// SetValue adds a single query value to the receiver: "param>v" or ">v" adds
// a lower limit, "param<v" or "<v" an upper limit, and anything else a
// comma-separated allowed value list replacing any earlier one.
func (f *Filter) SetValue(value string) error {
	for _, limit := range []struct {
		symbol string
		upper  bool
	}{{">", false}, {"<", true}} {
		if idx := strings.Index(value, limit.symbol); idx >= 0 {
			v, err := parseFloat(value[idx+1:])
			if err != nil {
				return err
			}
			f.ValueLimits = append(f.ValueLimits, ValueLimit{Upper: limit.upper, Limit: v})
			return nil
		}
	}
	f.AllowedValues = []float64{}
	for _, allowed := range strings.Split(value, ",") {
		v, err := parseFloat(allowed)
		if err != nil {
			return err
		}
		f.AllowedValues = append(f.AllowedValues, v)
	}
	return nil
}

// Query is a parsed query.
type Query struct {
	Filenames []string
	// Filters maps parameter names to their filters.
	Filters map[string]*Filter
	raw     string
}

// String returns the query string the receiver was parsed from.
func (q *Query) String() string {
	return q.raw
}

// Params returns the names of the receiver's filtered parameters, sorted.
func (q *Query) Params() []string {
	ret := make([]string, 0, len(q.Filters))
	for param := range q.Filters {
		ret = append(ret, param)
	}
	sort.Strings(ret)
	return ret
}

// reorderKeyValueSymbols moves a limit written into a key, as in
// "objective<3", into the values.
func reorderKeyValueSymbols(key string, values []string) (string, []string) {
	for _, symbol := range []string{">", "<"} {
		if idx := strings.Index(key, symbol); idx >= 0 {
			return key[:idx], []string{key}
		}
	}
	return key, values
}

// Parse parses a query string.
func Parse(raw string) (*Query, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "?")
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err)
	}
	q, err := FromValues(values)
	if err != nil {
		return nil, err
	}
	q.raw = raw
	return q, nil
}

// FromValues builds a query from parsed URL values.
func FromValues(values url.Values) (*Query, error) {
	q := &Query{
		Filters: map[string]*Filter{},
		raw:     values.Encode(),
	}
	for _, filename := range strings.Split(values.Get(FilenamesParam), ",") {
		if filename = strings.TrimSpace(filename); filename != "" {
			q.Filenames = append(q.Filenames, filename)
		}
	}
	if len(q.Filenames) == 0 {
		return nil, fmt.Errorf("%w: no %s given", ErrInvalidQuery, FilenamesParam)
	}
	for key, vals := range values {
		if key == FilenamesParam {
			continue
		}
		key, vals = reorderKeyValueSymbols(key, vals)
		if key == "" {
			return nil, fmt.Errorf("%w: filter has no parameter name", ErrInvalidQuery)
		}
		filter, ok := q.Filters[key]
		if !ok {
			filter = &Filter{}
			q.Filters[key] = filter
		}
		for _, val := range vals {
			if err := filter.SetValue(val); err != nil {
				return nil, fmt.Errorf("filter on '%s': %w", key, err)
			}
		}
	}
	return q, nil
}
