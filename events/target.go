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

// Listener handles a dispatched Event.
type Listener func(Event)

type registration struct {
	id       uint64
	listener Listener
}

// Target is an event target, such as the page window, to which listeners are
// attached.
type Target struct {
	nextID    uint64
	listeners map[Type][]registration
}

// NewTarget returns a new Target with no listeners.
func NewTarget() *Target {
	return &Target{
		listeners: map[Type][]registration{},
	}
}

// Subscription represents one attached listener.
type Subscription struct {
	target *Target
	t      Type
	id     uint64
}

// Listen attaches listener to events of type t, returning the Subscription
// that removes it.  Listeners are invoked in the order they were attached.
func (tgt *Target) Listen(t Type, listener Listener) *Subscription {
	tgt.nextID++
	tgt.listeners[t] = append(tgt.listeners[t], registration{
		id:       tgt.nextID,
		listener: listener,
	})
	return &Subscription{
		target: tgt,
		t:      t,
		id:     tgt.nextID,
	}
}

// Cancel removes the receiver's listener from its Target.  Cancelling a
// Subscription more than once, or a nil Subscription, does nothing.
func (s *Subscription) Cancel() {
	if s == nil || s.target == nil {
		return
	}
	regs := s.target.listeners[s.t]
	for idx, reg := range regs {
		if reg.id == s.id {
			s.target.listeners[s.t] = append(regs[:idx:idx], regs[idx+1:]...)
			break
		}
	}
	if len(s.target.listeners[s.t]) == 0 {
		delete(s.target.listeners, s.t)
	}
	s.target = nil
}

// Active returns true if the receiver has not been cancelled.
func (s *Subscription) Active() bool {
	return s != nil && s.target != nil
}

// Dispatch delivers ev to every listener attached for its type, returning the
// number of listeners invoked.
func (tgt *Target) Dispatch(ev Event) int {
	// Listeners may cancel subscriptions while being dispatched to.
	regs := append([]registration(nil), tgt.listeners[ev.Type()]...)
	for _, reg := range regs {
		reg.listener(ev)
	}
	return len(regs)
}

// ListenerCount returns the number of listeners attached for type t.
func (tgt *Target) ListenerCount(t Type) int {
	return len(tgt.listeners[t])
}
