/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"
)

// Entry is one reversible state kept by a History.
type Entry[T any] struct {
	Label string
	State T
	TS    time.Time
}

// Config controls depth and coalescing.
type Config struct {
	// MaxDepth limits the number of undo entries kept (0 means 100).
	MaxDepth int
	// MinInterval coalesces records with the same label captured within the interval:
	// the earlier entry is kept so one undo reverts the whole burst.
	MinInterval time.Duration
}

// History is an in-memory undo/redo stack of whole states.
// States are stored by value; callers must not mutate a recorded state afterwards.
// It is safe for concurrent use.
type History[T any] struct {
	cfg  Config
	mu   sync.Mutex
	undo []Entry[T]
	redo []Entry[T]
	now  func() time.Time
}

func New[T any](cfg Config) *History[T] {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 100
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &History[T]{cfg: cfg, now: time.Now}
}

// Record stores prev, the state before a change labelled label. Any new change clears redo.
func (h *History[T]) Record(label string, prev T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ts := h.now()
	h.redo = nil
	if n := len(h.undo); n > 0 {
		last := &h.undo[n-1]
		if last.Label == label && ts.Sub(last.TS) < h.cfg.MinInterval {
			last.TS = ts
			return
		}
	}
	h.undo = append(h.undo, Entry[T]{Label: label, State: prev, TS: ts})
	if over := len(h.undo) - h.cfg.MaxDepth; over > 0 {
		h.undo = append([]Entry[T]{}, h.undo[over:]...)
	}
}

// Undo returns the state to restore and remembers current for Redo.
func (h *History[T]) Undo(current T) (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var zero T
	n := len(h.undo)
	if n == 0 {
		return zero, false
	}
	e := h.undo[n-1]
	h.undo = h.undo[:n-1]
	h.redo = append(h.redo, Entry[T]{Label: e.Label, State: current, TS: h.now()})
	return e.State, true
}

// Redo reverses the last Undo.
func (h *History[T]) Redo(current T) (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var zero T
	n := len(h.redo)
	if n == 0 {
		return zero, false
	}
	e := h.redo[n-1]
	h.redo = h.redo[:n-1]
	// a zero timestamp keeps the restored entry from coalescing with the next edit
	h.undo = append(h.undo, Entry[T]{Label: e.Label, State: current})
	return e.State, true
}

// Clear drops both stacks, used when the whole document is replaced.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo, h.redo = nil, nil
}

// Stats returns the current stack depths for diagnostics.
func (h *History[T]) Stats() (undoDepth, redoDepth int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo), len(h.redo)
}
