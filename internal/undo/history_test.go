/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestHistory(cfg Config) (*History[string], *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	h := New[string](cfg)
	h.now = c.now
	return h, c
}

func TestUndoRedoBasic(t *testing.T) {
	h, c := newTestHistory(Config{MinInterval: 10 * time.Millisecond})
	h.Record("edit", "a")
	c.t = c.t.Add(20 * time.Millisecond)
	h.Record("edit", "b")
	if u, r := h.Stats(); u != 2 || r != 0 {
		t.Fatalf("expected 2 undo entries, got undo=%d redo=%d", u, r)
	}
	s, ok := h.Undo("c")
	if !ok || s != "b" {
		t.Fatalf("undo expected 'b', got ok=%v state=%q", ok, s)
	}
	s, ok = h.Redo("b")
	if !ok || s != "c" {
		t.Fatalf("redo expected 'c', got ok=%v state=%q", ok, s)
	}
	if _, ok := h.Redo("c"); ok {
		t.Fatalf("redo stack should be empty")
	}
}

func TestCoalesceSameLabel(t *testing.T) {
	h, c := newTestHistory(Config{MinInterval: 50 * time.Millisecond})
	h.Record("slide.content", "1")
	c.t = c.t.Add(10 * time.Millisecond)
	h.Record("slide.content", "2")
	if u, _ := h.Stats(); u != 1 {
		t.Fatalf("expected coalesced to 1 entry, got %d", u)
	}
	s, ok := h.Undo("3")
	if !ok || s != "1" {
		t.Fatalf("expected undo to the state before the burst, got ok=%v state=%q", ok, s)
	}
}

func TestDifferentLabelsDoNotCoalesce(t *testing.T) {
	h, _ := newTestHistory(Config{MinInterval: time.Hour})
	h.Record("slide.add", "1")
	h.Record("slide.remove", "2")
	if u, _ := h.Stats(); u != 2 {
		t.Fatalf("expected 2 entries, got %d", u)
	}
}

func TestNewRecordClearsRedo(t *testing.T) {
	h, c := newTestHistory(Config{MinInterval: time.Millisecond})
	h.Record("x", "1")
	h.Undo("2")
	c.t = c.t.Add(time.Second)
	h.Record("y", "1")
	if _, r := h.Stats(); r != 0 {
		t.Fatalf("redo should be cleared, got %d", r)
	}
}

func TestMaxDepth(t *testing.T) {
	h, c := newTestHistory(Config{MaxDepth: 2, MinInterval: time.Millisecond})
	for _, s := range []string{"a", "b", "c", "d"} {
		c.t = c.t.Add(time.Second)
		h.Record("edit", s)
	}
	if u, _ := h.Stats(); u != 2 {
		t.Fatalf("expected depth cap 2, got %d", u)
	}
	if s, _ := h.Undo("e"); s != "d" {
		t.Fatalf("expected newest entry kept, got %q", s)
	}
	if s, _ := h.Undo("d"); s != "c" {
		t.Fatalf("expected second newest entry kept, got %q", s)
	}
}

func TestClear(t *testing.T) {
	h, _ := newTestHistory(Config{})
	h.Record("x", "1")
	h.Clear()
	if _, ok := h.Undo("2"); ok {
		t.Fatalf("expected empty history after Clear")
	}
}
