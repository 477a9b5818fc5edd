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

// Package events provides the page-level event target the chart component's
// interaction bindings subscribe to, and the input events delivered on it.
//
// Subscriptions are capabilities: Listen returns a *Subscription, and only
// its holder can remove the listener again:
//
//	sub := window.Listen(events.KeyPress, onKey)
//	defer sub.Cancel()
//
// A Target is not safe for concurrent use; it is owned by a single event loop.
package events

// Type identifies a kind of Event.
type Type string

// Supported event types.
const (
	KeyPress Type = "keypress"
	Drag     Type = "drag"
	Wheel    Type = "wheel"
	Pinch    Type = "pinch"
)

// Modifier names a modifier key.
type Modifier string

// Supported modifier keys.  NoModifier requires that no modifier is held.
const (
	NoModifier Modifier = ""
	Ctrl       Modifier = "ctrl"
	Shift      Modifier = "shift"
	Alt        Modifier = "alt"
	Meta       Modifier = "meta"
)

// Modifiers describes the modifier keys held during an event.
type Modifiers struct {
	Ctrl  bool `json:"ctrl,omitempty"`
	Shift bool `json:"shift,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// Any returns true if any modifier is held.
func (m Modifiers) Any() bool {
	return m.Ctrl || m.Shift || m.Alt || m.Meta
}

// Held returns true if mod is held.  For NoModifier, Held returns true if no
// modifier at all is held.
func (m Modifiers) Held(mod Modifier) bool {
	switch mod {
	case NoModifier:
		return !m.Any()
	case Ctrl:
		return m.Ctrl
	case Shift:
		return m.Shift
	case Alt:
		return m.Alt
	case Meta:
		return m.Meta
	default:
		return false
	}
}

// Event is implemented by all input events.
type Event interface {
	Type() Type
}

// KeyEvent is a key press.
type KeyEvent struct {
	Key string
	Modifiers
}

// Type is part of the Event interface.
func (KeyEvent) Type() Type { return KeyPress }

// DragEvent is a completed pointer drag, in surface pixels.
type DragEvent struct {
	StartX, StartY float64
	EndX, EndY     float64
	Modifiers
}

// Type is part of the Event interface.
func (DragEvent) Type() Type { return Drag }

// WheelEvent is a scroll-wheel turn at (X, Y), in surface pixels.  A negative
// DeltaY scrolls up.
type WheelEvent struct {
	X, Y   float64
	DeltaY float64
	Modifiers
}

// Type is part of the Event interface.
func (WheelEvent) Type() Type { return Wheel }

// PinchEvent is a pinch gesture centered at (X, Y), in surface pixels.  Scale
// is the ratio of the final to the initial finger distance.
type PinchEvent struct {
	X, Y  float64
	Scale float64
}

// Type is part of the Event interface.
func (PinchEvent) Type() Type { return Pinch }
