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
	"fmt"
	"sort"

	logreader "github.com/umbralcalc/logsplorer/log_reader"
	"github.com/umbralcalc/logsplorer/series"
)

// ResultEntry is a single query result entry.
type ResultEntry struct {
	LogFilename         string          `json:"log_filename"`
	PartitionIterations int             `json:"partition_iterations"`
	Entry               logreader.Entry `json:"entry"`
}

// SeriesEntry returns the receiver as a chart series entry: the log is the
// source, and the partition iteration count is the iteration index.
func (re ResultEntry) SeriesEntry() series.Entry {
	return series.Entry{
		SourceID:       re.LogFilename,
		PartitionIndex: re.Entry.PartitionIndex,
		IterationIndex: re.PartitionIterations,
		Objective:      re.Entry.Objective,
		FloatParams:    re.Entry.FloatParams,
		IntParams:      re.Entry.IntParams,
	}
}

// SeriesEntries converts results to chart series entries, preserving order.
// Nil results convert to nil.
func SeriesEntries(results []ResultEntry) []series.Entry {
	if results == nil {
		return nil
	}
	ret := make([]series.Entry, len(results))
	for idx, re := range results {
		ret[idx] = re.SeriesEntry()
	}
	return ret
}

// paramValues returns the values entry holds for param.
func paramValues(entry *logreader.Entry, partitionIterations int, param string) ([]float64, error) {
	switch param {
	case PartitionIterationsParam:
		return []float64{float64(partitionIterations)}, nil
	case PartitionIndexParam:
		return []float64{float64(entry.PartitionIndex)}, nil
	case ObjectiveParam:
		return []float64{entry.Objective}, nil
	}
	if values, ok := entry.FloatParams[param]; ok {
		return values, nil
	}
	values, ok := entry.IntParams[param]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownParam, param)
	}
	ret := make([]float64, len(values))
	for idx, v := range values {
		ret[idx] = float64(v)
	}
	return ret, nil
}

// include returns true if entry passes every filter.  params holds the
// filtered parameters in order; each must be present on entry, even when
// another filter would exclude it.
func include(entry *logreader.Entry, partitionIterations int, params []string, filters map[string]*Filter) (bool, error) {
	values := make([][]float64, len(params))
	for idx, param := range params {
		vals, err := paramValues(entry, partitionIterations, param)
		if err != nil {
			return false, err
		}
		values[idx] = vals
	}
	for idx, param := range params {
		for _, v := range values[idx] {
			if filters[param].Ignore(v) {
				return false, nil
			}
		}
	}
	return true, nil
}

// Apply filters the entries of a single log, in order.  Partition iteration
// counts are taken over all of entries, before filtering.
func Apply(logFilename string, entries []logreader.Entry, filters map[string]*Filter) ([]ResultEntry, error) {
	params := make([]string, 0, len(filters))
	for param := range filters {
		params = append(params, param)
	}
	sort.Strings(params)
	partitionIterations := map[int]int{}
	ret := []ResultEntry{}
	for idx := range entries {
		entry := &entries[idx]
		partitionIterations[entry.PartitionIndex]++
		iterations := partitionIterations[entry.PartitionIndex]
		ok, err := include(entry, iterations, params, filters)
		if err != nil {
			return nil, fmt.Errorf("log '%s': %w", logFilename, err)
		}
		if !ok {
			continue
		}
		ret = append(ret, ResultEntry{
			LogFilename:         logFilename,
			PartitionIterations: iterations,
			Entry:               *entry,
		})
	}
	return ret, nil
}
