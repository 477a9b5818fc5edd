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

// Package logreader reads the JSON-lines objective logs written by optimisers.
//
// Each line holds one entry, either as a bare JSON object
//
//	{"partition_index":0,"objective":1.5,"float_params":{...},"int_params":{...}}
//
// or wrapped in a logrus JSON record whose "msg" field holds the entry, as
// written by Writer.  Lines that hold no entry are skipped.
package logreader

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

const maxLineBytes = 16 << 20

// Entry is a single objective log entry.
type Entry struct {
	PartitionIndex int                  `json:"partition_index"`
	Objective      float64              `json:"objective"`
	FloatParams    map[string][]float64 `json:"float_params"`
	IntParams      map[string][]int64   `json:"int_params"`
}

// packet is an Entry as optimisers marshal it inside logrus records.
type packet struct {
	PartitionIndex int
	Objective      float64
	FloatParams    map[string][]float64
	IntParams      map[string][]int64
}

// Item is a single item produced by a Reader: an Entry, or the error that
// ended the stream.
type Item struct {
	Entry *Entry
	// Line is the 1-based line the Entry was read from.
	Line int
	Err  error
}

// DecodeError reports a line that holds no entry.
type DecodeError struct {
	Line int
	Err  error
}

func (de *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %s", de.Line, de.Err)
}

func (de *DecodeError) Unwrap() error {
	return de.Err
}

var errNoEntry = errors.New("no objective entry")

// ReaderCloser is a buffered reader with an optional Closer.
type ReaderCloser struct {
	*bufio.Reader
	io.Closer
}

// Close closes the receiver's Closer, if it has one.
func (r *ReaderCloser) Close() {
	if r.Closer != nil {
		r.Closer.Close()
	}
}

// LogParser parses entries from a line-oriented log.
type LogParser interface {
	Init(reader *bufio.Reader)
	// ReadLogEntry returns the next entry.  A *DecodeError reports a line
	// that could not be parsed; parsing may continue past it.  io.EOF
	// reports the end of the log.
	ReadLogEntry() (Entry, int, error)
}

// JSONLinesParser is a LogParser for JSON-lines objective logs.
type JSONLinesParser struct {
	scanner *bufio.Scanner
	line    int
}

var _ LogParser = &JSONLinesParser{}

// Init is part of the LogParser interface.
func (p *JSONLinesParser) Init(reader *bufio.Reader) {
	p.scanner = bufio.NewScanner(reader)
	p.scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	p.line = 0
}

// ReadLogEntry is part of the LogParser interface.
func (p *JSONLinesParser) ReadLogEntry() (Entry, int, error) {
	for p.scanner.Scan() {
		p.line++
		line := p.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		entry, err := DecodeLine(line)
		if err != nil {
			return Entry{}, p.line, &DecodeError{Line: p.line, Err: err}
		}
		return entry, p.line, nil
	}
	if err := p.scanner.Err(); err != nil {
		return Entry{}, p.line, err
	}
	return Entry{}, p.line, io.EOF
}

// DecodeLine decodes a single log line into an Entry.
func DecodeLine(line []byte) (Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Entry{}, err
	}
	if _, ok := fields["objective"]; ok {
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return Entry{}, err
		}
		return entry, nil
	}
	if _, ok := fields["Objective"]; ok {
		var p packet
		if err := json.Unmarshal(line, &p); err != nil {
			return Entry{}, err
		}
		return Entry(p), nil
	}
	if rawMsg, ok := fields[logrus.FieldKeyMsg]; ok {
		var msg string
		if err := json.Unmarshal(rawMsg, &msg); err != nil {
			return Entry{}, fmt.Errorf("record message is not a string: %w", err)
		}
		return DecodeLine([]byte(msg))
	}
	return Entry{}, errNoEntry
}

// Reader converts a JSON-lines log into a stream of Entries.
type Reader struct {
	logFilename string
	reader      ReaderCloser
	parser      LogParser
	log         logrus.FieldLogger
}

// New returns a new Reader drawing from the provided reader and using the
// provided LogParser.  Undecodable lines are reported to log and skipped; a
// nil log uses the standard logger.
func New(filename string, reader ReaderCloser, parser LogParser, log logrus.FieldLogger) *Reader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reader{
		logFilename: filename,
		reader:      reader,
		parser:      parser,
		log:         log,
	}
}

// Entries returns a readable channel producing Items from consuming the
// input reader.  This channel is closed after the receiver's reader is
// exhausted, or when a read error is encountered -- in the latter case, the
// last Item sent on the channel will contain that error.  The reader is
// closed when the channel is.
//
// The caller should consume the channel fully, otherwise a goroutine is leaked.
// Since the reader is consumed, Entries may only be called once.
func (r *Reader) Entries() <-chan *Item {
	items := make(chan *Item)
	go func() {
		defer close(items)
		defer r.reader.Close()
		r.parser.Init(r.reader.Reader)
		for {
			entry, line, err := r.parser.ReadLogEntry()
			var de *DecodeError
			switch {
			case err == io.EOF:
				return
			case errors.As(err, &de):
				r.log.WithFields(logrus.Fields{
					"log":  r.logFilename,
					"line": de.Line,
				}).WithError(de.Err).Warn("Skipping undecodable log line")
				continue
			case err != nil:
				items <- &Item{
					Line: line,
					Err:  fmt.Errorf("failed to read log '%s': %w", r.logFilename, err),
				}
				return
			}
			items <- &Item{
				Entry: &entry,
				Line:  line,
			}
		}
	}()
	return items
}

// ReadAll reads every entry from the receiver.
func (r *Reader) ReadAll() ([]Entry, error) {
	var ret []Entry
	for item := range r.Entries() {
		if item.Err != nil {
			return nil, item.Err
		}
		ret = append(ret, *item.Entry)
	}
	return ret, nil
}
