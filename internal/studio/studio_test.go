/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package studio

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"cinepitch/internal/domain"
	"cinepitch/internal/notify"
	"cinepitch/internal/project"
	"cinepitch/internal/projectio"
	"cinepitch/internal/storage"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Put(_ context.Context, key string, v []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), v...)
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

type memKeys struct{ key string }

func (k *memKeys) SetAPIKey(v string) error { k.key = v; return nil }
func (k *memKeys) ClearAPIKey() error        { k.key = ""; return nil }

func openStudio(t *testing.T, store Store, opts Options) *Studio {
	t.Helper()
	opts.Store = store
	if opts.Debounce == 0 {
		opts.Debounce = 20 * time.Millisecond
	}
	if opts.Keys == nil {
		opts.Keys = &memKeys{}
	}
	s, err := Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("open studio: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close(context.Background())
		s.Notifications().Close()
	})
	return s
}

func toastsOf(c *notify.Center, kind notify.Kind) []notify.Toast {
	var out []notify.Toast
	for _, t := range c.Active() {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestResumeCorruptSnapshotLeavesDocumentUntouched(t *testing.T) {
	store := newMemStore()
	_ = store.Put(context.Background(), "cinepitch_autosave", []byte(`{"project": {"title": 42}`))
	s := openStudio(t, store, Options{})
	if !s.HasSavedProject() {
		t.Fatalf("saved project not detected")
	}
	if err := s.Model().PatchInfo(func(p *domain.ProjectInfo) error { p.Title = "Before"; return nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Model().AddSlide(domain.Slide{Title: "Hook"}); err != nil {
		t.Fatal(err)
	}
	if _, err := project.Append(s.Model(), project.Characters, domain.Character{Name: "Mira"}); err != nil {
		t.Fatal(err)
	}
	before := s.Model().Snapshot()

	err := s.Resume(context.Background())
	if !errors.Is(err, ErrCorruptSnapshot) {
		t.Fatalf("want ErrCorruptSnapshot, got %v", err)
	}
	errs := toastsOf(s.Notifications(), notify.Error)
	if len(errs) != 1 || errs[0].Title != "Failed to resume project" {
		t.Fatalf("want exactly one error toast, got %+v", s.Notifications().Active())
	}
	if after := s.Model().Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("document changed on failed resume:\nbefore %+v\nafter  %+v", before, after)
	}
	if in, _ := s.InStudio(); in {
		t.Fatalf("failed resume must not enter the studio")
	}
}

func TestResumeWithoutSnapshot(t *testing.T) {
	s := openStudio(t, newMemStore(), Options{})
	if s.HasSavedProject() {
		t.Fatalf("empty store reported a saved project")
	}
	if err := s.Resume(context.Background()); !errors.Is(err, ErrNoSavedProject) {
		t.Fatalf("want ErrNoSavedProject, got %v", err)
	}
	if n := len(s.Notifications().Active()); n != 0 {
		t.Fatalf("no toast expected, got %d", n)
	}
}

// TestTemplateEditAutosaveResume starts from the template deck, edits, lets the autosave land in a
// real profile store and resumes it in a second session.
func TestTemplateEditAutosaveResume(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := storage.Open(ctx, dir, storage.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	s, err := Open(ctx, Options{Store: store, Debounce: 20 * time.Millisecond, Keys: &memKeys{}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Model().PatchInfo(func(p *domain.ProjectInfo) error {
		p.ProjectType = domain.ShortFilm
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.StartProject(TabStoryboard); err != nil {
		t.Fatalf("start: %v", err)
	}
	if in, tab := s.InStudio(); !in || tab != TabStoryboard {
		t.Fatalf("studio mode = %v %v", in, tab)
	}
	want := domain.SlideTemplates(domain.ShortFilm)
	if s.Model().SlideCount() != len(want) || s.Model().ActiveSlideID() != s.Model().Snapshot().Doc.Slides[0].ID {
		t.Fatalf("template deck not applied")
	}
	if err := s.Model().PatchInfo(func(p *domain.ProjectInfo) error { p.Title = "Night Bus"; return nil }); err != nil {
		t.Fatal(err)
	}
	second := s.Model().Snapshot().Doc.Slides[1].ID
	if err := s.Model().SetActiveSlide(second); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "autosave", func() bool {
		b, err := store.Get(ctx, "cinepitch_autosave")
		return err == nil && bytes.Contains(b, []byte("Night Bus")) && bytes.Contains(b, []byte(second))
	})
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store2, err := storage.Open(ctx, dir, storage.Options{})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store2.Close()
	s2 := openStudio(t, store2, Options{})
	if !s2.HasSavedProject() {
		t.Fatalf("saved project not detected after restart")
	}
	if s2.Model().SlideCount() != 0 {
		t.Fatalf("Open must not load the snapshot")
	}
	if err := s2.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	got := s2.Model().Snapshot()
	if got.Doc.Info.Title != "Night Bus" || len(got.Doc.Slides) != len(want) || got.ActiveSlideID != second {
		t.Fatalf("resumed state mismatch: %q %d %q", got.Doc.Info.Title, len(got.Doc.Slides), got.ActiveSlideID)
	}
	if in, _ := s2.InStudio(); !in {
		t.Fatalf("resume should enter the studio")
	}
}

func TestExportImportKeepsPosterCharacterLink(t *testing.T) {
	src := openStudio(t, newMemStore(), Options{})
	m := src.Model()
	ch, err := project.Append(m, project.Characters, domain.Character{Name: "Meera", RoleType: domain.Protagonist})
	if err != nil {
		t.Fatal(err)
	}
	p, err := project.Append(m, project.Posters, domain.Poster{Title: "Teaser", AspectRatio: domain.AspectPortrait, CharacterRefID: ch.ID})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.PatchInfo(func(i *domain.ProjectInfo) error { i.Title = "Monsoon Diaries"; return nil }); err != nil {
		t.Fatal(err)
	}
	if err := src.StartProject(TabPosters); err != nil {
		t.Fatal(err)
	}

	data, name, err := src.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "Monsoon_Diaries.cinepitch.json" {
		t.Fatalf("file name = %q", name)
	}

	dst := openStudio(t, newMemStore(), Options{})
	if err := dst.Import(bytes.NewReader(data)); err != nil {
		t.Fatalf("import: %v", err)
	}
	ok := toastsOf(dst.Notifications(), notify.Success)
	if len(ok) != 1 || ok[0].Title != "Project Loaded Successfully" {
		t.Fatalf("success toast missing: %+v", dst.Notifications().Active())
	}
	info := dst.Model().Info()
	gotPoster, found := project.Find(dst.Model(), project.Posters, p.ID)
	if !found {
		t.Fatalf("poster lost")
	}
	c, found := info.PosterCharacter(gotPoster)
	if !found || c.Name != "Meera" {
		t.Fatalf("poster no longer resolves its character")
	}
	if dst.Model().SlideCount() != src.Model().SlideCount() {
		t.Fatalf("slides lost")
	}
}

func TestImportInvalidFile(t *testing.T) {
	s := openStudio(t, newMemStore(), Options{})
	if err := s.Model().PatchInfo(func(p *domain.ProjectInfo) error { p.Title = "Keep me"; return nil }); err != nil {
		t.Fatal(err)
	}
	err := s.Import(strings.NewReader(`{"project": {"title": "x"}, "slides": [{"title": "no id"}]}`))
	if !errors.Is(err, projectio.ErrInvalidFormat) {
		t.Fatalf("want ErrInvalidFormat, got %v", err)
	}
	errs := toastsOf(s.Notifications(), notify.Error)
	if len(errs) != 1 || errs[0].Title != "Failed to load project" || errs[0].Message != "Invalid file format" {
		t.Fatalf("unexpected toasts %+v", s.Notifications().Active())
	}
	if s.Model().Info().Title != "Keep me" {
		t.Fatalf("document changed by failed import")
	}
}

func TestSaveAndRemoveAPIKey(t *testing.T) {
	keys := &memKeys{}
	s := openStudio(t, newMemStore(), Options{Keys: keys})
	if s.HasAPIKey() {
		t.Fatalf("no key expected")
	}
	if err := s.SaveAPIKey("abc"); err != nil {
		t.Fatal(err)
	}
	if !s.HasAPIKey() || keys.key != "abc" {
		t.Fatalf("key not stored")
	}
	if err := s.SaveAPIKey(""); err != nil {
		t.Fatal(err)
	}
	if s.HasAPIKey() || keys.key != "" {
		t.Fatalf("key not removed")
	}
	active := s.Notifications().Active()
	if len(active) != 2 ||
		active[0].Kind != notify.Success || active[0].Title != "API Key Saved" || active[0].Message != "You can now generate AI content." ||
		active[1].Kind != notify.Info || active[1].Title != "API Key Removed" {
		t.Fatalf("unexpected toasts %+v", active)
	}
}

func TestStartProjectRejectsUnknownTab(t *testing.T) {
	s := openStudio(t, newMemStore(), Options{})
	if err := s.StartProject("NOPE"); !errors.Is(err, project.ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
	if s.Model().SlideCount() != 0 {
		t.Fatalf("slides seeded despite error")
	}
}

func TestApplyTwistAndBudgetCSV(t *testing.T) {
	s := openStudio(t, newMemStore(), Options{})
	if err := s.ApplyTwist(Twist{Title: "The mentor lied", Description: "He caused the flood."}); err != nil {
		t.Fatal(err)
	}
	if got := s.Model().Info().FullScript; got != "The mentor lied: He caused the flood." {
		t.Fatalf("script = %q", got)
	}
	var buf bytes.Buffer
	if _, err := s.WriteBudgetCSV(&buf); !errors.Is(err, projectio.ErrEmptyBudget) {
		t.Fatalf("want ErrEmptyBudget, got %v", err)
	}
}

func TestAddVaultFile(t *testing.T) {
	s := openStudio(t, newMemStore(), Options{})
	it, err := s.AddVaultFile("notes/treatment.txt", "", []byte("INT. DINER - NIGHT"), "", "first draft")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if it.Type != domain.VaultText || it.Title != "treatment" || it.FileName != "treatment.txt" {
		t.Fatalf("item = %+v", it)
	}
	if !strings.HasPrefix(it.URL, "data:text/plain;base64,") || it.FileSize != "0.0 KB" {
		t.Fatalf("url/size = %q %q", it.URL[:24], it.FileSize)
	}
	if _, err := s.AddVaultFile("empty.bin", "", nil, "", ""); !errors.Is(err, project.ErrInvalid) {
		t.Fatalf("empty file: %v", err)
	}
	if n := len(s.Model().Info().VaultItems); n != 1 {
		t.Fatalf("vault items = %d", n)
	}
}
