/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package notify carries user-facing notifications (toasts). Each toast expires on its own after
// the configured lifetime; subscribers receive additions and dismissals as events.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a toast stays visible unless dismissed earlier.
const DefaultTTL = 5 * time.Second

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

type Toast struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type EventType string

const (
	Added     EventType = "added"
	Dismissed EventType = "dismissed"
)

type Event struct {
	Type  EventType `json:"event"`
	Toast Toast     `json:"toast"`
}

// Center holds the visible toasts. It is safe for concurrent use.
type Center struct {
	ttl time.Duration

	mu     sync.Mutex
	toasts []Toast
	timers map[string]*time.Timer
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, timers: make(map[string]*time.Timer), subs: make(map[int]chan Event)}
}

// Publish shows a new toast and schedules its expiry.
func (c *Center) Publish(kind Kind, title, message string) Toast {
	t := Toast{ID: "toast-" + uuid.NewString(), Kind: kind, Title: title, Message: message, CreatedAt: time.Now()}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return t
	}
	c.toasts = append(c.toasts, t)
	c.timers[t.ID] = time.AfterFunc(c.ttl, func() { c.Dismiss(t.ID) })
	c.broadcastLocked(Event{Type: Added, Toast: t})
	return t
}

func (c *Center) Success(title, message string) Toast { return c.Publish(Success, title, message) }
func (c *Center) Error(title, message string) Toast   { return c.Publish(Error, title, message) }
func (c *Center) Info(title, message string) Toast    { return c.Publish(Info, title, message) }

// Dismiss removes a toast. It reports false for unknown or already expired ids.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.toasts, func(t Toast) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	t := c.toasts[i]
	c.toasts = slices.Delete(slices.Clone(c.toasts), i, i+1)
	if tm := c.timers[id]; tm != nil {
		tm.Stop()
		delete(c.timers, id)
	}
	c.broadcastLocked(Event{Type: Dismissed, Toast: t})
	return true
}

// Active returns the visible toasts, oldest first.
func (c *Center) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.toasts)
}

// Subscribe returns a channel of events and a cancel func. Slow subscribers lose events
// once buf is full rather than blocking publishers.
func (c *Center) Subscribe(buf int) (<-chan Event, func()) {
	if buf <= 0 {
		buf = 16
	}
	ch := make(chan Event, buf)
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Close stops all expiry timers and closes subscriber channels.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, tm := range c.timers {
		tm.Stop()
		delete(c.timers, id)
	}
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

func (c *Center) broadcastLocked(ev Event) {
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
