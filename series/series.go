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

// Package series groups query result entries into named, colored series.
// A series is identified by the source and partition of its entries; its
// points are (iteration, objective) pairs in the order the entries were
// received.
//
// A single aggregation pass is performed with
//
//	set := series.Aggregate(entries, colors)
//
// where colors is a ColorAssigner (typically a *color.Table owned by the
// chart component).  Each Set is built fresh; nothing in it is shared with
// earlier passes except the colors handed out by the assigner.
package series

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/umbralcalc/logsplorer/color"
)

// keySeparator joins a source ID and partition index into a Key.  Partition
// indices are formatted as base-10 integers, which never contain it, so the
// final separator in a Key always splits it unambiguously.
const keySeparator = " "

// Entry is a single query result entry.
type Entry struct {
	SourceID       string
	PartitionIndex int
	IterationIndex int
	Objective      float64
	// Auxiliary parameters; carried but not plotted.
	FloatParams map[string][]float64
	IntParams   map[string][]int64
}

// Key identifies a series.
type Key string

// NewKey returns the Key for the provided source and partition.
func NewKey(sourceID string, partitionIndex int) Key {
	return Key(sourceID + keySeparator + strconv.Itoa(partitionIndex))
}

// KeyOf returns the Key of the series the provided Entry belongs to.
func KeyOf(e *Entry) Key {
	return NewKey(e.SourceID, e.PartitionIndex)
}

// Split returns the source ID and partition index the receiver was built
// from.
func (k Key) Split() (string, int, error) {
	idx := strings.LastIndex(string(k), keySeparator)
	if idx < 0 {
		return "", 0, fmt.Errorf("series key '%s' has no partition", k)
	}
	partition, err := strconv.Atoi(string(k)[idx+len(keySeparator):])
	if err != nil {
		return "", 0, fmt.Errorf("series key '%s' has a malformed partition: %w", k, err)
	}
	return string(k)[:idx], partition, nil
}

// Label returns the human-readable form of the receiver.
func (k Key) Label() string {
	return string(k)
}

// Point is a single plotted point.
type Point struct {
	X int
	Y float64
}

// Series is a single plotted line.
type Series struct {
	Key    Key
	Label  string
	Color  color.Color
	Points []Point
}

// Set maps series keys to series.  Iteration order of a Set carries no
// meaning; use Keys for a stable order.
type Set map[Key]*Series

// Keys returns the receiver's keys in increasing order.
func (s Set) Keys() []Key {
	ret := make([]Key, 0, len(s))
	for k := range s {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(a, b int) bool {
		return ret[a] < ret[b]
	})
	return ret
}

// Ordered returns the receiver's series, ordered by key.
func (s Set) Ordered() []*Series {
	ret := make([]*Series, 0, len(s))
	for _, k := range s.Keys() {
		ret = append(ret, s[k])
	}
	return ret
}

// Len returns the total number of points across the receiver's series.
func (s Set) Len() int {
	n := 0
	for _, ser := range s {
		n += len(ser.Points)
	}
	return n
}

// ColorAssigner is implemented by types that hand out a stable color per key.
type ColorAssigner interface {
	ColorFor(key string) color.Color
}

// Aggregate performs one aggregation pass over entries, returning a new Set.
// A nil or empty entries yields an empty, non-nil Set.  Colors for keys not
// yet seen by colors are generated and recorded before their series is built.
// No validation is done on entry values.
func Aggregate(entries []Entry, colors ColorAssigner) Set {
	ret := Set{}
	for idx := range entries {
		entry := &entries[idx]
		key := KeyOf(entry)
		s, ok := ret[key]
		if !ok {
			s = &Series{
				Key:   key,
				Label: key.Label(),
				Color: colors.ColorFor(string(key)),
			}
			ret[key] = s
		}
		s.Points = append(s.Points, Point{
			X: entry.IterationIndex,
			Y: entry.Objective,
		})
	}
	return ret
}
