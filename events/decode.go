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

package events

import (
	"encoding/json"
	"fmt"
)

// wireEvent is the JSON form of every Event.
type wireEvent struct {
	Type   Type    `json:"type"`
	Key    string  `json:"key,omitempty"`
	StartX float64 `json:"start_x,omitempty"`
	StartY float64 `json:"start_y,omitempty"`
	EndX   float64 `json:"end_x,omitempty"`
	EndY   float64 `json:"end_y,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	DeltaY float64 `json:"delta_y,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
	Modifiers
}

// Decode decodes a JSON-encoded event, as posted by the chart page.
func Decode(data []byte) (Event, error) {
	var we wireEvent
	if err := json.Unmarshal(data, &we); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	switch we.Type {
	case KeyPress:
		if we.Key == "" {
			return nil, fmt.Errorf("keypress event has no key")
		}
		return KeyEvent{Key: we.Key, Modifiers: we.Modifiers}, nil
	case Drag:
		return DragEvent{
			StartX: we.StartX, StartY: we.StartY,
			EndX: we.EndX, EndY: we.EndY,
			Modifiers: we.Modifiers,
		}, nil
	case Wheel:
		return WheelEvent{X: we.X, Y: we.Y, DeltaY: we.DeltaY, Modifiers: we.Modifiers}, nil
	case Pinch:
		if we.Scale <= 0 {
			return nil, fmt.Errorf("pinch event has non-positive scale %v", we.Scale)
		}
		return PinchEvent{X: we.X, Y: we.Y, Scale: we.Scale}, nil
	default:
		return nil, fmt.Errorf("unsupported event type '%s'", we.Type)
	}
}
