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
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Writer writes entries as logrus JSON records, one per line.
type Writer struct {
	logger *logrus.Logger
}

// NewWriter returns a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	logger := logrus.New()
	logger.Out = w
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return &Writer{logger: logger}
}

// Write writes a single entry.
func (w *Writer) Write(e Entry) error {
	data, err := json.Marshal(packet(e))
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	w.logger.Info(string(data))
	return nil
}
