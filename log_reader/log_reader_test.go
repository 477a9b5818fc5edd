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

package logreader

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

func readerOf(r io.Reader) *Reader {
	return New("test.log", ReaderCloser{Reader: bufio.NewReader(r)}, &JSONLinesParser{}, logrus.New())
}

func TestReader(t *testing.T) {
	var wrapped bytes.Buffer
	w := NewWriter(&wrapped)
	for _, e := range []Entry{
		{PartitionIndex: 1, Objective: -2.5, FloatParams: map[string][]float64{"lr": {0.1}}},
		{PartitionIndex: 0, Objective: 7, IntParams: map[string][]int64{"depth": {3, 4}}},
	} {
		if err := w.Write(e); err != nil {
			t.Fatalf("Write() yielded unexpected error %s", err)
		}
	}
	nonEntry := logrus.New()
	nonEntry.Out = &wrapped
	nonEntry.SetFormatter(&logrus.JSONFormatter{})
	nonEntry.Info("optimiser started")

	for _, test := range []struct {
		description string
		log         string
		wantEntries []Entry
		wantLines   []int
	}{{
		description: "plain entries",
		log: `{"partition_index":0,"objective":5,"float_params":{"x":[1,2]},"int_params":{}}
{"partition_index":2,"objective":3.25}`,
		wantEntries: []Entry{
			{PartitionIndex: 0, Objective: 5, FloatParams: map[string][]float64{"x": {1, 2}}, IntParams: map[string][]int64{}},
			{PartitionIndex: 2, Objective: 3.25},
		},
		wantLines: []int{1, 2},
	}, {
		description: "logrus records",
		log:         wrapped.String(),
		wantEntries: []Entry{
			{PartitionIndex: 1, Objective: -2.5, FloatParams: map[string][]float64{"lr": {0.1}}},
			{PartitionIndex: 0, Objective: 7, IntParams: map[string][]int64{"depth": {3, 4}}},
		},
		wantLines: []int{1, 2},
	}, {
		description: "undecodable and blank lines skipped",
		log: `not json

{"partition_index":0,"objective":1}
{"level":"info","msg":"hello","time":"2023-01-01T00:00:00Z"}
{"partition_index":0}
{"partition_index":1,"objective":2}`,
		wantEntries: []Entry{
			{PartitionIndex: 0, Objective: 1},
			{PartitionIndex: 1, Objective: 2},
		},
		wantLines: []int{3, 6},
	}, {
		description: "empty log",
		log:         "",
	}} {
		t.Run(test.description, func(t *testing.T) {
			var gotEntries []Entry
			var gotLines []int
			for item := range readerOf(strings.NewReader(test.log)).Entries() {
				if item.Err != nil {
					t.Fatalf("Unexpected read error %s", item.Err)
				}
				gotEntries = append(gotEntries, *item.Entry)
				gotLines = append(gotLines, item.Line)
			}
			if diff := cmp.Diff(test.wantEntries, gotEntries); diff != "" {
				t.Errorf("Entries() diff (-want +got) %s", diff)
			}
			if diff := cmp.Diff(test.wantLines, gotLines); diff != "" {
				t.Errorf("Entries() lines diff (-want +got) %s", diff)
			}
		})
	}
}

func TestReaderSurfacesReadErrors(t *testing.T) {
	boom := errors.New("boom")
	r := readerOf(io.MultiReader(
		strings.NewReader(`{"partition_index":0,"objective":1}`+"\n"),
		iotest.ErrReader(boom),
	))
	entries, err := r.ReadAll()
	if !errors.Is(err, boom) {
		t.Fatalf("ReadAll() = %v, %v, want error %v", entries, err, boom)
	}
}

func TestDecodeLine(t *testing.T) {
	for _, test := range []struct {
		description string
		line        string
		want        Entry
		wantErr     bool
	}{{
		description: "plain",
		line:        `{"partition_index":3,"objective":0.5}`,
		want:        Entry{PartitionIndex: 3, Objective: 0.5},
	}, {
		description: "bare packet",
		line:        `{"PartitionIndex":3,"Objective":0.5,"FloatParams":null,"IntParams":null}`,
		want:        Entry{PartitionIndex: 3, Objective: 0.5},
	}, {
		description: "record",
		line:        `{"level":"info","msg":"{\"PartitionIndex\":4,\"Objective\":1}","time":"t"}`,
		want:        Entry{PartitionIndex: 4, Objective: 1},
	}, {
		description: "record with non-string message",
		line:        `{"level":"info","msg":3}`,
		wantErr:     true,
	}, {
		description: "not an object",
		line:        `[1,2]`,
		wantErr:     true,
	}} {
		t.Run(test.description, func(t *testing.T) {
			got, err := DecodeLine([]byte(test.line))
			if (err != nil) != test.wantErr {
				t.Fatalf("DecodeLine() yielded unexpected error %v", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("DecodeLine() diff (-want +got) %s", diff)
			}
		})
	}
}
