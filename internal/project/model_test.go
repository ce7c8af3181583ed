/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package project

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"cinepitch/internal/domain"
)

func newModel() *Model { return New(Options{UndoInterval: time.Nanosecond}) }

func TestAppendAssignsIDAndRejectsDuplicate(t *testing.T) {
	m := newModel()
	c, err := Append(m, Characters, domain.Character{Name: "Mira"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if c.ID == "" || c.ID[:5] != "char-" {
		t.Fatalf("expected generated char- id, got %q", c.ID)
	}
	if _, err := Append(m, Characters, domain.Character{ID: c.ID, Name: "Other"}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if got := List(m, Characters); len(got) != 1 || got[0].Name != "Mira" {
		t.Fatalf("unexpected characters: %+v", got)
	}
}

func TestUpdateIsCopyOnWrite(t *testing.T) {
	m := newModel()
	s, _ := Append(m, Scenes, domain.ShowcaseScene{Heading: "INT. DINER - NIGHT", GeneratedVariants: []string{"a"}})
	before := List(m, Scenes)
	if err := Update(m, Scenes, s.ID, func(sc *domain.ShowcaseScene) error {
		sc.Heading = "EXT. ROOF - DAWN"
		sc.GeneratedVariants[0] = "b"
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if before[0].Heading != "INT. DINER - NIGHT" || before[0].GeneratedVariants[0] != "a" {
		t.Fatalf("earlier list was modified: %+v", before[0])
	}
	got, ok := Find(m, Scenes, s.ID)
	if !ok || got.Heading != "EXT. ROOF - DAWN" || got.GeneratedVariants[0] != "b" {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestUpdateKeepsID(t *testing.T) {
	m := newModel()
	p, _ := Append(m, Posters, domain.Poster{Title: "One Sheet"})
	_ = Update(m, Posters, p.ID, func(x *domain.Poster) error { x.ID = "poster-hijack"; return nil })
	if _, ok := Find(m, Posters, p.ID); !ok {
		t.Fatalf("poster id must not change on update")
	}
}

func TestUpdateValidationRollsBack(t *testing.T) {
	m := newModel()
	s, _ := Append(m, Scenes, domain.ShowcaseScene{Heading: "A", Cinematography: domain.DefaultCinematography()})
	err := Update(m, Scenes, s.ID, func(sc *domain.ShowcaseScene) error {
		sc.Heading = "B"
		sc.LensType = "9000mm"
		return nil
	})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	got, _ := Find(m, Scenes, s.ID)
	if got.Heading != "A" || got.LensType != "35mm" {
		t.Fatalf("failed update leaked: %+v", got)
	}
	if err := Update(m, Scenes, "scene-missing", func(*domain.ShowcaseScene) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPatchInfoAllOrNothing(t *testing.T) {
	m := newModel()
	if err := m.PatchInfo(func(p *domain.ProjectInfo) error { p.Title = "Monsoon"; return nil }); err != nil {
		t.Fatalf("patch: %v", err)
	}
	boom := fmt.Errorf("boom")
	err := m.PatchInfo(func(p *domain.ProjectInfo) error {
		p.Title = "Changed"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	err = m.PatchInfo(func(p *domain.ProjectInfo) error {
		p.Title = "Changed"
		p.Language = "fr"
		return nil
	})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if got := m.Info(); got.Title != "Monsoon" || got.Language != domain.LanguageEnglish {
		t.Fatalf("failed patches leaked: title=%q lang=%q", got.Title, got.Language)
	}
}

func TestAppendToScript(t *testing.T) {
	m := newModel()
	_ = m.AppendToScript("FADE IN:")
	_ = m.AppendToScript("The twist lands.")
	if got := m.Info().FullScript; got != "FADE IN:\n\nThe twist lands." {
		t.Fatalf("unexpected script %q", got)
	}
}

func TestDanglingCharacterReference(t *testing.T) {
	m := newModel()
	c, _ := Append(m, Characters, domain.Character{Name: "Ravi"})
	s, _ := Append(m, Scenes, domain.ShowcaseScene{Heading: "Chase", CharacterRef1ID: c.ID})
	if err := Remove(m, Characters, c.ID); err != nil {
		t.Fatalf("remove character: %v", err)
	}
	got, ok := Find(m, Scenes, s.ID)
	if !ok {
		t.Fatalf("scene disappeared")
	}
	if got.CharacterRef1ID != c.ID {
		t.Fatalf("reference should be left in place, got %q", got.CharacterRef1ID)
	}
	if _, ok := m.ResolveCharacter(got.CharacterRef1ID); ok {
		t.Fatalf("dangling reference should resolve to none")
	}
	info := m.Info()
	if chars := info.SceneCharacters(got); len(chars) != 0 {
		t.Fatalf("expected no resolved characters, got %+v", chars)
	}
}

func TestSlidesOrderAndCursor(t *testing.T) {
	m := newModel()
	var ids []string
	for _, title := range []string{"One", "Two", "Three"} {
		s, err := m.AddSlide(domain.Slide{Title: title, IsCustom: true})
		if err != nil {
			t.Fatalf("add slide: %v", err)
		}
		ids = append(ids, s.ID)
	}
	if m.ActiveSlideID() != ids[0] {
		t.Fatalf("first slide should become active, got %q", m.ActiveSlideID())
	}
	if err := m.MoveSlide(0, 2); err != nil {
		t.Fatalf("move: %v", err)
	}
	order := titles(List(m, Slides))
	if !reflect.DeepEqual(order, []string{"Two", "Three", "One"}) {
		t.Fatalf("unexpected order %v", order)
	}
	if err := m.MoveSlide(0, 3); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := m.SetActiveSlide(ids[2]); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if err := m.SetActiveSlide("slide-nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// removing the active slide moves the cursor to the slide that takes its place
	if err := m.RemoveSlide(ids[2]); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.ActiveSlideID() != ids[0] {
		t.Fatalf("cursor should move to neighbour %q, got %q", ids[0], m.ActiveSlideID())
	}
	_ = Remove(m, Slides, ids[0])
	_ = Remove(m, Slides, ids[1])
	if m.ActiveSlideID() != "" || m.SlideCount() != 0 {
		t.Fatalf("expected empty deck and cursor, got %q/%d", m.ActiveSlideID(), m.SlideCount())
	}
}

func titles(s []domain.Slide) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Title
	}
	return out
}

func TestSeedSlides(t *testing.T) {
	m := newModel()
	_ = m.PatchInfo(func(p *domain.ProjectInfo) error { p.ProjectType = domain.ShortFilm; return nil })
	if err := m.SeedSlides(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tpl := domain.SlideTemplates(domain.ShortFilm)
	slides := List(m, Slides)
	if len(slides) != len(tpl) || len(slides) == 0 {
		t.Fatalf("expected %d slides, got %d", len(tpl), len(slides))
	}
	for i, s := range slides {
		if s.Title != tpl[i].Title || s.IsCustom || s.Content != "" {
			t.Fatalf("slide %d does not match template: %+v", i, s)
		}
	}
	if m.ActiveSlideID() != slides[0].ID {
		t.Fatalf("first slide should be active")
	}
}

func TestAddSceneVariantCapsAtTen(t *testing.T) {
	m := newModel()
	s, _ := Append(m, Scenes, domain.ShowcaseScene{Heading: "Rain"})
	for i := 0; i < 12; i++ {
		if err := m.AddSceneVariant(s.ID, fmt.Sprintf("img-%d", i)); err != nil {
			t.Fatalf("add variant: %v", err)
		}
	}
	got, _ := Find(m, Scenes, s.ID)
	if len(got.GeneratedVariants) != MaxSceneVariants {
		t.Fatalf("expected %d variants, got %d", MaxSceneVariants, len(got.GeneratedVariants))
	}
	if got.GeneratedVariants[0] != "img-11" || got.ImageURL != "img-11" || got.GeneratedVariants[9] != "img-2" {
		t.Fatalf("expected newest first, got %v", got.GeneratedVariants)
	}
}

func TestApplyBudgetEstimate(t *testing.T) {
	m := newModel()
	items := []domain.BudgetLineItem{
		{ID: "budget-old", Category: "Crew", Item: "DoP", Cost: 150000},
		{Category: "Gear", Item: "Camera package", Cost: 80000},
	}
	if err := m.ApplyBudgetEstimate(items, domain.ScaleIndie, domain.CurrencyUSD); err != nil {
		t.Fatalf("apply: %v", err)
	}
	info := m.Info()
	if info.BudgetScale != domain.ScaleIndie || info.BudgetCurrency != domain.CurrencyUSD || len(info.BudgetItems) != 2 {
		t.Fatalf("estimate not applied: %+v", info)
	}
	if info.BudgetItems[0].ID == "budget-old" || info.BudgetItems[0].ID == info.BudgetItems[1].ID {
		t.Fatalf("expected fresh ids, got %q %q", info.BudgetItems[0].ID, info.BudgetItems[1].ID)
	}
	bad := []domain.BudgetLineItem{{Item: "Negative", Cost: -1}}
	if err := m.ApplyBudgetEstimate(bad, domain.ScaleBlockbuster, domain.CurrencyINR); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if got := m.Info(); got.BudgetScale != domain.ScaleIndie || len(got.BudgetItems) != 2 {
		t.Fatalf("rejected estimate leaked: %+v", got)
	}
}

func TestReplaceIsWholeAndValidated(t *testing.T) {
	m := newModel()
	_, _ = m.AddSlide(domain.Slide{Title: "Old"})
	_, _ = Append(m, Characters, domain.Character{Name: "Old"})

	in := domain.Document{
		Info:   domain.ProjectInfo{Title: "Imported"},
		Slides: []domain.Slide{{ID: "slide-a", Title: "A"}},
	}
	if err := m.Replace(in, "slide-a"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	st := m.Snapshot()
	if st.Doc.Info.Title != "Imported" || len(st.Doc.Info.Characters) != 0 || st.Doc.Info.Characters == nil {
		t.Fatalf("expected whole replacement with empty collections, got %+v", st.Doc.Info)
	}
	if st.Doc.Info.ProjectType != domain.FeatureFilm || st.ActiveSlideID != "slide-a" {
		t.Fatalf("defaults or cursor missing: %+v", st)
	}

	dup := domain.Document{Slides: []domain.Slide{{ID: "slide-x"}, {ID: "slide-x"}}}
	if err := m.Replace(dup, ""); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if after := m.Snapshot(); !reflect.DeepEqual(after, st) {
		t.Fatalf("rejected replace changed the document")
	}
}

func TestReset(t *testing.T) {
	m := newModel()
	_, _ = m.AddSlide(domain.Slide{Title: "A"})
	_ = m.PatchInfo(func(p *domain.ProjectInfo) error { p.Title = "X"; p.BudgetCurrency = domain.CurrencyUSD; return nil })
	if err := m.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	st := m.Snapshot()
	if !reflect.DeepEqual(st.Doc, domain.NewDocument()) || st.ActiveSlideID != "" {
		t.Fatalf("reset did not restore defaults: %+v", st)
	}
	if m.Undo() {
		t.Fatalf("reset should drop undo history")
	}
}

func TestUndoRedo(t *testing.T) {
	m := newModel()
	_ = m.PatchInfo(func(p *domain.ProjectInfo) error { p.Title = "First"; return nil })
	time.Sleep(time.Millisecond)
	_ = m.PatchInfo(func(p *domain.ProjectInfo) error { p.Title = "Second"; return nil })
	if !m.Undo() || m.Info().Title != "First" {
		t.Fatalf("undo should restore First, got %q", m.Info().Title)
	}
	if !m.Redo() || m.Info().Title != "Second" {
		t.Fatalf("redo should restore Second, got %q", m.Info().Title)
	}
}

func TestListeners(t *testing.T) {
	m := newModel()
	var got []Change
	cancel := m.Subscribe(func(c Change) { got = append(got, c) })
	_, _ = m.AddSlide(domain.Slide{Title: "A"})
	_ = m.PatchInfo(func(p *domain.ProjectInfo) error { return errors.New("no") })
	_ = m.Reset()
	cancel()
	_ = m.Reset()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %+v", got)
	}
	if got[0].Kind != ChangeCollection || got[0].Collection != "slides" || got[1].Kind != ChangeReset {
		t.Fatalf("unexpected events %+v", got)
	}
}

func TestPatchInfoRunsEntityRules(t *testing.T) {
	m := newModel()
	variants := make([]string, MaxSceneVariants+2)
	for i := range variants {
		variants[i] = fmt.Sprintf("img-%d", i)
	}
	cases := map[string]func(p *domain.ProjectInfo){
		"too many variants": func(p *domain.ProjectInfo) {
			p.ShowcaseScenes = []domain.ShowcaseScene{{ID: "s1", Cinematography: domain.DefaultCinematography(), GeneratedVariants: variants}}
		},
		"unknown role type": func(p *domain.ProjectInfo) {
			p.Characters = []domain.Character{{ID: "c1", Name: "Mira", RoleType: "Sidekick"}}
		},
		"negative cost": func(p *domain.ProjectInfo) {
			p.BudgetItems = []domain.BudgetLineItem{{ID: "b1", Item: "Camera", Cost: -1}}
		},
		"bad poster aspect": func(p *domain.ProjectInfo) {
			p.Posters = []domain.Poster{{ID: "p1", AspectRatio: "5:4"}}
		},
	}
	for name, edit := range cases {
		err := m.PatchInfo(func(p *domain.ProjectInfo) error { edit(p); return nil })
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
	info := m.Info()
	if len(info.ShowcaseScenes)+len(info.Characters)+len(info.BudgetItems)+len(info.Posters) != 0 {
		t.Fatalf("rejected patches leaked: %+v", info)
	}
}

func TestPatchInfoNormalisesNilCollections(t *testing.T) {
	m := newModel()
	if err := m.PatchInfo(func(p *domain.ProjectInfo) error { p.Characters = nil; p.ScriptRoadmap = nil; return nil }); err != nil {
		t.Fatalf("patch: %v", err)
	}
	if info := m.Info(); info.Characters == nil || info.ScriptRoadmap == nil {
		t.Fatalf("collections should stay non-nil: %+v", info)
	}
}

// Edits racing a Replace must never leave a pre-replace document on the undo stack.
func TestUndoNeverCrossesReplace(t *testing.T) {
	m := newModel()
	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 25; i++ {
					_ = m.PatchInfo(func(p *domain.ProjectInfo) error { p.Title = fmt.Sprintf("edit %d-%d", w, i); return nil })
				}
			}(w)
		}
		doc := domain.NewDocument()
		doc.Info.Director = fmt.Sprintf("session-%d", round)
		if err := m.Replace(doc, ""); err != nil {
			t.Fatalf("replace: %v", err)
		}
		wg.Wait()

		session := m.Info().Director
		if session != doc.Info.Director {
			t.Fatalf("edits should not touch the director, got %q", session)
		}
		for m.Undo() {
			if got := m.Info().Director; got != session {
				t.Fatalf("round %d: undo restored %q from another session", round, got)
			}
		}
	}
}
