/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package project holds the live project document and every edit applied to it.
//
// The model is single-writer: edits are applied synchronously by the caller. A mutex guards the
// state only so the autosave timer and HTTP readers can take snapshots from other goroutines.
// Updates are copy-on-write: a touched collection is replaced by a new slice, never written in
// place, so previously returned values and undo states stay valid.
package project

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"cinepitch/internal/domain"
	applog "cinepitch/internal/log"
	"cinepitch/internal/undo"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate id")
	ErrOutOfRange  = errors.New("index out of range")
	ErrInvalid     = errors.New("invalid value")
)

// State is the document plus the active slide cursor.
type State struct {
	Doc           domain.Document
	ActiveSlideID string
}

type ChangeKind string

const (
	ChangeInfo       ChangeKind = "info"
	ChangeCollection ChangeKind = "collection"
	ChangeActive     ChangeKind = "active"
	ChangeReplace    ChangeKind = "replace"
	ChangeReset      ChangeKind = "reset"
	ChangeHistory    ChangeKind = "history"
)

// Change describes one successful mutation.
type Change struct {
	Kind       ChangeKind
	Collection string
	ID         string
}

// Listener is called synchronously after each successful mutation, outside the model lock.
type Listener func(Change)

// Options tune a Model.
type Options struct {
	UndoDepth    int
	UndoInterval time.Duration
}

type Model struct {
	mu      sync.RWMutex
	doc     domain.Document
	active  string
	history *undo.History[State]

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New returns a model holding the default empty document.
func New(opts Options) *Model {
	return &Model{
		doc:       domain.NewDocument(),
		history:   undo.New[State](undo.Config{MaxDepth: opts.UndoDepth, MinInterval: opts.UndoInterval}),
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers fn for change events and returns a function that removes it.
func (m *Model) Subscribe(fn Listener) func() {
	m.lmu.Lock()
	defer m.lmu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.lmu.Lock()
		defer m.lmu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Model) notify(ch Change) {
	m.lmu.Lock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.listeners[id])
	}
	m.lmu.Unlock()
	for _, fn := range fns {
		fn(ch)
	}
}

// Snapshot returns a deep copy of the current state.
func (m *Model) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{Doc: m.doc.Clone(), ActiveSlideID: m.active}
}

// Info returns a copy of the project metadata and collections.
func (m *Model) Info() domain.ProjectInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Info.Clone()
}

// SlideCount is cheap enough to call on every change.
func (m *Model) SlideCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.doc.Slides)
}

func (m *Model) ActiveSlideID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// ActiveSlide resolves the cursor; a cursor naming a missing slide resolves to none.
func (m *Model) ActiveSlide() (domain.Slide, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := Slides.index(&m.doc, m.active); i >= 0 {
		return m.doc.Slides[i], true
	}
	return domain.Slide{}, false
}

// ResolveCharacter looks up a character by id. Empty or dangling ids resolve to none.
func (m *Model) ResolveCharacter(id string) (domain.Character, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Info.CharacterByID(id)
}

// mutate applies fn to a working copy that shares slices with the current document.
// fn must replace any collection it changes. Nothing is committed when fn fails.
func (m *Model) mutate(label string, ch Change, fn func(d *domain.Document, active *string) error) error {
	m.mu.Lock()
	work, active := m.doc, m.active
	if err := fn(&work, &active); err != nil {
		m.mu.Unlock()
		return err
	}
	prev := State{Doc: m.doc, ActiveSlideID: m.active}
	m.doc, m.active = work, active
	// replace clears the history under the same lock
	m.history.Record(label, prev)
	m.mu.Unlock()

	m.notify(ch)
	return nil
}

// PatchInfo edits project metadata. fn receives a detached copy; the edit is committed only if fn
// succeeds and the resulting document is still valid.
func (m *Model) PatchInfo(fn func(*domain.ProjectInfo) error) error {
	return m.mutate("info", Change{Kind: ChangeInfo}, func(d *domain.Document, _ *string) error {
		info := d.Info.Clone()
		if err := fn(&info); err != nil {
			return err
		}
		info.FillDefaults()
		next := domain.Document{Info: info, Slides: d.Slides}
		if err := next.Validate(); err != nil {
			return fmt.Errorf("patch project: %w: %w", ErrInvalid, err)
		}
		if err := checkEntities(&next); err != nil {
			return fmt.Errorf("patch project: %w", err)
		}
		d.Info = info
		return nil
	})
}

// AppendToScript appends text to the full script as a new paragraph.
func (m *Model) AppendToScript(text string) error {
	return m.PatchInfo(func(p *domain.ProjectInfo) error {
		if p.FullScript == "" {
			p.FullScript = text
		} else {
			p.FullScript += "\n\n" + text
		}
		return nil
	})
}

// AddSlide appends a slide and makes it active when no slide is active yet.
func (m *Model) AddSlide(s domain.Slide) (domain.Slide, error) {
	var added domain.Slide
	err := m.mutate("slides.add", Change{Kind: ChangeCollection, Collection: Slides.Name}, func(d *domain.Document, active *string) error {
		var err error
		if added, err = appendItem(d, Slides, s); err != nil {
			return err
		}
		if Slides.index(d, *active) < 0 {
			*active = added.ID
		}
		return nil
	})
	return added, err
}

func (m *Model) UpdateSlide(id string, fn func(*domain.Slide) error) error {
	return Update(m, Slides, id, fn)
}

// RemoveSlide deletes a slide. When it was active the cursor moves to its neighbour.
func (m *Model) RemoveSlide(id string) error {
	return m.mutate("slides.remove", Change{Kind: ChangeCollection, Collection: Slides.Name, ID: id}, func(d *domain.Document, active *string) error {
		i := Slides.index(d, id)
		if i < 0 {
			return fmt.Errorf("slide %s: %w", id, ErrNotFound)
		}
		d.Slides = slices.Delete(slices.Clone(d.Slides), i, i+1)
		if *active == id {
			switch {
			case len(d.Slides) == 0:
				*active = ""
			case i < len(d.Slides):
				*active = d.Slides[i].ID
			default:
				*active = d.Slides[len(d.Slides)-1].ID
			}
		}
		return nil
	})
}

// MoveSlide moves the slide at index from to index to. Order is the only ranking of slides.
func (m *Model) MoveSlide(from, to int) error {
	return m.mutate("slides.move", Change{Kind: ChangeCollection, Collection: Slides.Name}, func(d *domain.Document, _ *string) error {
		n := len(d.Slides)
		if from < 0 || from >= n || to < 0 || to >= n {
			return fmt.Errorf("move slide %d to %d of %d: %w", from, to, n, ErrOutOfRange)
		}
		next := slices.Clone(d.Slides)
		s := next[from]
		next = slices.Delete(next, from, from+1)
		d.Slides = slices.Insert(next, to, s)
		return nil
	})
}

// SetActiveSlide moves the cursor. An empty id clears it.
func (m *Model) SetActiveSlide(id string) error {
	return m.mutate("slides.active", Change{Kind: ChangeActive, ID: id}, func(d *domain.Document, active *string) error {
		if id != "" && Slides.index(d, id) < 0 {
			return fmt.Errorf("slide %s: %w", id, ErrNotFound)
		}
		*active = id
		return nil
	})
}

// SeedSlides replaces the slides with the deck template of the current project type and
// activates the first one.
func (m *Model) SeedSlides() error {
	return m.mutate("slides.seed", Change{Kind: ChangeCollection, Collection: Slides.Name}, func(d *domain.Document, active *string) error {
		d.Slides = domain.SlidesFromTemplates(d.Info.ProjectType)
		*active = ""
		if len(d.Slides) > 0 {
			*active = d.Slides[0].ID
		}
		return nil
	})
}

// AddSceneVariant records a newly generated image for a shot: it becomes the shot image and is
// prepended to the variant list, which keeps the newest MaxSceneVariants entries.
func (m *Model) AddSceneVariant(sceneID, imageURL string) error {
	return Update(m, Scenes, sceneID, func(s *domain.ShowcaseScene) error {
		next := append([]string{imageURL}, s.GeneratedVariants...)
		if len(next) > MaxSceneVariants {
			next = next[:MaxSceneVariants]
		}
		s.GeneratedVariants = next
		s.ImageURL = imageURL
		return nil
	})
}

// ApplyBudgetEstimate replaces the budget lines, scale and currency in one edit.
// Every line receives a fresh id.
func (m *Model) ApplyBudgetEstimate(items []domain.BudgetLineItem, scale domain.BudgetScale, currency domain.Currency) error {
	return m.mutate("budget.estimate", Change{Kind: ChangeCollection, Collection: Budget.Name}, func(d *domain.Document, _ *string) error {
		if !scale.Valid() {
			return fmt.Errorf("budget scale %q: %w", scale, ErrInvalid)
		}
		if !currency.Valid() {
			return fmt.Errorf("budget currency %q: %w", currency, ErrInvalid)
		}
		next := make([]domain.BudgetLineItem, len(items))
		for i, it := range items {
			it.ID = domain.NewID(domain.PrefixBudget)
			if err := Budget.check(it); err != nil {
				return err
			}
			next[i] = it
		}
		d.Info.BudgetItems = next
		d.Info.BudgetScale = scale
		d.Info.BudgetCurrency = currency
		return nil
	})
}

// Replace swaps in a whole document and cursor. The document is taken as a whole, never merged;
// absent collections become empty. Undo history is dropped.
func (m *Model) Replace(doc domain.Document, activeSlideID string) error {
	return m.replace(doc, activeSlideID, ChangeReplace)
}

// Reset restores the default empty project.
func (m *Model) Reset() error {
	return m.replace(domain.NewDocument(), "", ChangeReset)
}

func (m *Model) replace(doc domain.Document, active string, kind ChangeKind) error {
	next := doc.Clone()
	next.Info.FillDefaults()
	if next.Slides == nil {
		next.Slides = []domain.Slide{}
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("replace document: %w: %w", ErrInvalid, err)
	}
	if err := checkEntities(&next); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	m.mu.Lock()
	m.doc, m.active = next, active
	m.history.Clear()
	m.mu.Unlock()
	applog.WithComponent("project").Debug("document replaced", "kind", string(kind), "slides", len(next.Slides))
	m.notify(Change{Kind: kind})
	return nil
}

// Undo reverts the last edit. It reports false when there is nothing to undo.
func (m *Model) Undo() bool { return m.step(m.history.Undo) }

// Redo re-applies the last undone edit.
func (m *Model) Redo() bool { return m.step(m.history.Redo) }

func (m *Model) step(move func(State) (State, bool)) bool {
	m.mu.Lock()
	s, ok := move(State{Doc: m.doc, ActiveSlideID: m.active})
	if ok {
		m.doc, m.active = s.Doc, s.ActiveSlideID
	}
	m.mu.Unlock()
	if ok {
		m.notify(Change{Kind: ChangeHistory})
	}
	return ok
}
