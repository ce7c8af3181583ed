/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package studio runs one editing session: the project model, its autosave, resume and
// import/export, user notifications and the AI generation operations.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"cinepitch/internal/autosave"
	"cinepitch/internal/config"
	"cinepitch/internal/credits"
	"cinepitch/internal/domain"
	"cinepitch/internal/gateway"
	applog "cinepitch/internal/log"
	"cinepitch/internal/notify"
	"cinepitch/internal/project"
	"cinepitch/internal/projectio"
	"cinepitch/internal/storage"
	"cinepitch/internal/telemetry"
)

var (
	ErrCorruptSnapshot = errors.New("saved project could not be restored")
	ErrNoSavedProject  = errors.New("no saved project")
)

// maxImportSize bounds project files read by Import.
const maxImportSize = 256 << 20

// Tab names the editing surface a session opens on.
type Tab string

const (
	TabDeck       Tab = "DECK"
	TabStoryboard Tab = "STORYBOARD"
	TabCharacters Tab = "CHARACTERS"
	TabPosters    Tab = "POSTERS"
	TabAudio      Tab = "AUDIO"
	TabBudget     Tab = "BUDGET"
	TabCastCrew   Tab = "CAST_CREW"
	TabVault      Tab = "VAULT"
	TabScript     Tab = "SCRIPT"
	TabLocation   Tab = "LOCATION"
	TabTrailer    Tab = "TRAILER"
)

var Tabs = []Tab{TabDeck, TabStoryboard, TabCharacters, TabPosters, TabAudio, TabBudget, TabCastCrew, TabVault, TabScript, TabLocation, TabTrailer}

func (t Tab) Valid() bool {
	for _, v := range Tabs {
		if v == t {
			return true
		}
	}
	return false
}

// Store is the profile key-value store; *storage.Store implements it.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Has(ctx context.Context, key string) (bool, error)
}

// KeyStore persists the gateway API key.
type KeyStore interface {
	SetAPIKey(key string) error
	ClearAPIKey() error
}

type keyring struct{}

func (keyring) SetAPIKey(key string) error { return config.SetAPIKey(key) }
func (keyring) ClearAPIKey() error         { return config.ClearAPIKey() }

type Options struct {
	Store       Store
	AutosaveKey string
	Debounce    time.Duration
	UndoDepth   int
	Gateway     gateway.Gateway
	Credentials gateway.Credentials
	Keys        KeyStore
	Ledger      credits.Ledger // nil disables credit accounting
	UserID      string
	Telemetry   *telemetry.Client
	Notify      *notify.Center
}

// Studio is safe for concurrent use.
type Studio struct {
	model    *project.Model
	autosave *autosave.Controller
	detach   func()
	store    Store
	key      string
	notes    *notify.Center
	tel      *telemetry.Client
	gw       gateway.Gateway
	keys     KeyStore
	ledger   credits.Ledger
	userID   string
	log      *slog.Logger

	mu       sync.Mutex
	creds    gateway.Credentials
	inStudio bool
	tab      Tab
	hasSaved bool
}

// Open prepares a session on an empty default project. The store is checked once for a
// saved project; nothing is loaded until Resume.
func Open(ctx context.Context, opts Options) (*Studio, error) {
	if opts.Store == nil {
		return nil, errors.New("studio: store is required")
	}
	if opts.AutosaveKey == "" {
		opts.AutosaveKey = autosave.DefaultKey
	}
	if opts.Notify == nil {
		opts.Notify = notify.NewCenter(notify.DefaultTTL)
	}
	if opts.Keys == nil {
		opts.Keys = keyring{}
	}
	s := &Studio{
		model:  project.New(project.Options{UndoDepth: opts.UndoDepth}),
		store:  opts.Store,
		key:    opts.AutosaveKey,
		notes:  opts.Notify,
		tel:    opts.Telemetry,
		gw:     opts.Gateway,
		keys:   opts.Keys,
		ledger: opts.Ledger,
		userID: opts.UserID,
		creds:  opts.Credentials,
		tab:    TabDeck,
		log:    applog.WithComponent("studio"),
	}
	s.autosave = autosave.New(s.model, opts.Store, autosave.Options{Key: opts.AutosaveKey, Debounce: opts.Debounce})
	s.detach = s.autosave.Attach(s.model)

	has, err := opts.Store.Has(ctx, opts.AutosaveKey)
	if err != nil {
		s.log.Warn("checking for saved project failed", slog.Any("err", err))
	}
	s.hasSaved = has
	return s, nil
}

func (s *Studio) Model() *project.Model { return s.model }

func (s *Studio) Notifications() *notify.Center { return s.notes }

// Autosave exposes the controller, e.g. for crash handling.
func (s *Studio) Autosave() *autosave.Controller { return s.autosave }

// HasSavedProject reports whether a saved project existed when the session was opened.
func (s *Studio) HasSavedProject() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasSaved
}

// InStudio reports whether an editing session is running and on which tab.
func (s *Studio) InStudio() (bool, Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inStudio, s.tab
}

func (s *Studio) enter(tab Tab) {
	s.mu.Lock()
	s.inStudio = true
	if tab != "" {
		s.tab = tab
	}
	s.mu.Unlock()
	s.autosave.SetActive(true)
}

// Leave ends the editing session; a pending autosave is dropped.
func (s *Studio) Leave() {
	s.mu.Lock()
	s.inStudio = false
	s.mu.Unlock()
	s.autosave.SetActive(false)
}

// StartProject builds the deck from the template of the current project type, activates its
// first slide and enters the studio on tab.
func (s *Studio) StartProject(tab Tab) error {
	if tab == "" {
		tab = TabDeck
	}
	if !tab.Valid() {
		return fmt.Errorf("unknown tab %q: %w", tab, project.ErrInvalid)
	}
	if err := s.model.SeedSlides(); err != nil {
		return err
	}
	s.enter(tab)
	s.tel.Event(telemetry.ProjectStarted, map[string]any{"projectType": string(s.model.Info().ProjectType)})
	return nil
}

// Resume restores the autosaved project. A missing or undecodable snapshot leaves the document
// untouched and publishes one error notification.
func (s *Studio) Resume(ctx context.Context) error {
	l := applog.WithOperation(s.log, "resume")
	b, err := s.store.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNoSavedProject
	}
	if err == nil {
		var snap projectio.Snapshot
		if snap, err = projectio.Decode(b); err == nil {
			err = s.model.Replace(snap.Document(), snap.ActiveSlideID)
		}
	}
	if err != nil {
		l.Warn("resume failed", slog.Any("err", err))
		s.notes.Error("Failed to resume project", "")
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	s.enter("")
	s.tel.Event(telemetry.ProjectResumed, map[string]any{"slides": s.model.SlideCount()})
	l.Info("project resumed", slog.Int("slides", s.model.SlideCount()))
	return nil
}

// Import loads a project file. Invalid input leaves the document untouched.
func (s *Studio) Import(r io.Reader) error {
	b, err := io.ReadAll(io.LimitReader(r, maxImportSize))
	if err == nil {
		var snap projectio.Snapshot
		if snap, err = projectio.Decode(b); err == nil {
			err = s.model.Replace(snap.Document(), snap.ActiveSlideID)
		}
	}
	if err != nil {
		s.log.Warn("import failed", slog.Any("err", err))
		s.notes.Error("Failed to load project", "Invalid file format")
		return err
	}
	s.enter("")
	s.notes.Success("Project Loaded Successfully", "")
	s.tel.Event(telemetry.ProjectImported, map[string]any{"slides": s.model.SlideCount()})
	return nil
}

// ImportFile imports the project file at path.
func (s *Studio) ImportFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		s.notes.Error("Failed to load project", "Invalid file format")
		return err
	}
	defer f.Close()
	return s.Import(f)
}

// Export encodes the whole document and proposes a file name derived from the title.
func (s *Studio) Export() ([]byte, string, error) {
	st := s.model.Snapshot()
	b, err := projectio.Encode(projectio.New(st.Doc, st.ActiveSlideID))
	if err != nil {
		return nil, "", err
	}
	s.tel.Event(telemetry.ProjectExported, map[string]any{"slides": len(st.Doc.Slides)})
	return b, projectio.FileName(st.Doc.Info.Title), nil
}

// ExportFile writes the project to path; an empty path uses the proposed name in the working directory.
func (s *Studio) ExportFile(path string) (string, error) {
	st := s.model.Snapshot()
	if path == "" {
		path = projectio.FileName(st.Doc.Info.Title)
	}
	if err := projectio.WriteFile(path, projectio.New(st.Doc, st.ActiveSlideID)); err != nil {
		return path, err
	}
	s.tel.Event(telemetry.ProjectExported, map[string]any{"slides": len(st.Doc.Slides)})
	return path, nil
}

// WriteBudgetCSV writes the budget sheet of the current project.
func (s *Studio) WriteBudgetCSV(w io.Writer) (string, error) {
	info := s.model.Info()
	return projectio.BudgetFileName(info.Title), projectio.WriteBudgetCSV(w, info)
}

// Reset restores the default empty project.
func (s *Studio) Reset() error { return s.model.Reset() }

// ApplyTwist appends a chosen plot twist to the script.
func (s *Studio) ApplyTwist(t Twist) error {
	text := t.Title
	if t.Description != "" {
		text += ": " + t.Description
	}
	return s.model.AppendToScript(text)
}

// HasAPIKey reports whether generation operations can be attempted.
func (s *Studio) HasAPIKey() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Valid()
}

// SaveAPIKey stores key for later sessions and uses it immediately. An empty key removes it.
func (s *Studio) SaveAPIKey(key string) error {
	if key == "" {
		if err := s.keys.ClearAPIKey(); err != nil {
			return err
		}
		s.setCreds(gateway.Credentials{})
		s.notes.Info("API Key Removed", "")
		return nil
	}
	if err := s.keys.SetAPIKey(key); err != nil {
		return err
	}
	s.setCreds(gateway.Credentials{APIKey: key})
	s.notes.Success("API Key Saved", "You can now generate AI content.")
	return nil
}

func (s *Studio) setCreds(c gateway.Credentials) {
	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()
}

func (s *Studio) credentials() gateway.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Close flushes the autosave and detaches it from the model.
func (s *Studio) Close(ctx context.Context) error {
	err := s.autosave.Flush(ctx)
	s.autosave.Stop()
	s.detach()
	return err
}

// CurrentDocument is a convenience for read-only callers.
func (s *Studio) CurrentDocument() domain.Document { return s.model.Snapshot().Doc }
