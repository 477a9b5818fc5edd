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

package color

// Table associates keys with colors for the lifetime of the Table.  It is not
// safe for concurrent use; it is owned by a single chart component and
// accessed from that component's event loop.
type Table struct {
	src    Source
	colors map[string]Color
}

// NewTable returns a new, empty Table drawing fresh colors from the provided
// Source.  A nil Source uses the global random source.
func NewTable(src Source) *Table {
	if src == nil {
		src = globalSource{}
	}
	return &Table{
		src:    src,
		colors: map[string]Color{},
	}
}

// ColorFor returns the color recorded for key, generating and recording a new
// one if key has none yet.
func (t *Table) ColorFor(key string) Color {
	if c, ok := t.colors[key]; ok {
		return c
	}
	c := Generate(t.src)
	t.colors[key] = c
	return c
}

// Len returns the number of keys with recorded colors.
func (t *Table) Len() int {
	return len(t.colors)
}
