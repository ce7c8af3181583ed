/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cinepitch/internal/domain"
	"cinepitch/internal/notify"
	"cinepitch/internal/project"
	"cinepitch/internal/projectio"
	"cinepitch/internal/storage"
	"cinepitch/internal/studio"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

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

type noKeys struct{}

func (noKeys) SetAPIKey(string) error { return nil }
func (noKeys) ClearAPIKey() error     { return nil }

func newTestServer(t *testing.T) (*Server, *studio.Studio) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, err := studio.Open(context.Background(), studio.Options{
		Store:    &memStore{data: map[string][]byte{}},
		Debounce: 20 * time.Millisecond,
		Keys:     noKeys{},
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = st.Close(context.Background())
		st.Notifications().Close()
	})
	return New(st), st
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
}

func TestProjectPatchAndGet(t *testing.T) {
	s, st := newTestServer(t)
	w := do(t, s, http.MethodPatch, "/api/project", `{"title":"Night Shift","genre":"Thriller"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", w.Code, w.Body.String())
	}
	if got := st.Model().Info().Title; got != "Night Shift" {
		t.Fatalf("title = %q", got)
	}

	w = do(t, s, http.MethodPatch, "/api/project", `{"title":`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("malformed patch: %d", w.Code)
	}

	w = do(t, s, http.MethodGet, "/api/project", "")
	var snap projectio.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if snap.Project.Title != "Night Shift" || snap.Project.Genre != "Thriller" {
		t.Fatalf("unexpected project: %+v", snap.Project)
	}
}

func TestProjectPatchReplacesWholeCollections(t *testing.T) {
	s, st := newTestServer(t)
	if _, err := project.Append(st.Model(), project.Characters, domain.Character{ID: "c1", Name: "Alice", Role: "Hero"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	w := do(t, s, http.MethodPatch, "/api/project", `{"characters":[{"id":"c2","name":"Bob"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", w.Code, w.Body.String())
	}
	chars := st.Model().Info().Characters
	if len(chars) != 1 || chars[0].ID != "c2" || chars[0].Role != "" {
		t.Fatalf("c2 should not inherit fields of c1: %+v", chars)
	}
	if st.Model().Info().Language != domain.LanguageEnglish {
		t.Fatalf("untouched fields should survive")
	}
}

func TestProjectPatchKeepsExportImportable(t *testing.T) {
	s, st := newTestServer(t)
	variants := make([]string, 12)
	for i := range variants {
		variants[i] = fmt.Sprintf("%q", fmt.Sprintf("img-%d", i))
	}
	body := `{"showcaseScenes":[{"id":"s1","generatedVariants":[` + strings.Join(variants, ",") + `]}]}`
	if w := do(t, s, http.MethodPatch, "/api/project", body); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("oversized variants: %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodPatch, "/api/project", `{"characters":[{"id":"c1","name":"Mira","roleType":"Sidekick"}]}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown role type: %d", w.Code)
	}
	if w := do(t, s, http.MethodPatch, "/api/project", `{"budgetItems":[{"id":"b1","item":"Camera","cost":-5}]}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative cost: %d", w.Code)
	}
	if w := do(t, s, http.MethodPatch, "/api/project", `{"scriptRoadmap":[],"characters":null}`); w.Code != http.StatusOK {
		t.Fatalf("empty collections: %d %s", w.Code, w.Body.String())
	}

	data, _, err := st.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := st.Import(bytes.NewReader(data)); err != nil {
		t.Fatalf("exported document should import: %v", err)
	}
}

func TestSlidesLifecycle(t *testing.T) {
	s, st := newTestServer(t)
	if w := do(t, s, http.MethodPost, "/api/start", `{"tab":"DECK"}`); w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	n := st.Model().SlideCount()
	if n == 0 {
		t.Fatalf("template produced no slides")
	}

	w := do(t, s, http.MethodPost, "/api/slides", `{"title":"Team","content":"Who we are"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", w.Code, w.Body.String())
	}
	var added domain.Slide
	_ = json.Unmarshal(w.Body.Bytes(), &added)
	if added.ID == "" {
		t.Fatalf("added slide has no id")
	}

	w = do(t, s, http.MethodPatch, "/api/slides/"+added.ID, `{"content":"Our crew"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", w.Code, w.Body.String())
	}
	var patched domain.Slide
	_ = json.Unmarshal(w.Body.Bytes(), &patched)
	if patched.Content != "Our crew" || patched.Title != "Team" || patched.ID != added.ID {
		t.Fatalf("patch result: %+v", patched)
	}

	if w := do(t, s, http.MethodPost, "/api/slides/move", fmtMove(n, 0)); w.Code != http.StatusOK {
		t.Fatalf("move: %d %s", w.Code, w.Body.String())
	}
	if first := st.Model().Snapshot().Doc.Slides[0].ID; first != added.ID {
		t.Fatalf("first slide = %s, want %s", first, added.ID)
	}
	if w := do(t, s, http.MethodPost, "/api/slides/move", fmtMove(0, 99)); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("out of range move: %d", w.Code)
	}

	if w := do(t, s, http.MethodPut, "/api/slides/active", `{"id":"`+added.ID+`"}`); w.Code != http.StatusOK {
		t.Fatalf("active: %d", w.Code)
	}
	if w := do(t, s, http.MethodDelete, "/api/slides/"+added.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w := do(t, s, http.MethodDelete, "/api/slides/"+added.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}
	if st.Model().SlideCount() != n {
		t.Fatalf("slide count = %d, want %d", st.Model().SlideCount(), n)
	}
}

func fmtMove(from, to int) string {
	b, _ := json.Marshal(map[string]int{"from": from, "to": to})
	return string(b)
}

func TestCollectionRoutes(t *testing.T) {
	s, st := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/characters", `{"name":"Maya","roleType":"Protagonist"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add character: %d %s", w.Code, w.Body.String())
	}
	var ch domain.Character
	_ = json.Unmarshal(w.Body.Bytes(), &ch)

	if w := do(t, s, http.MethodPost, "/api/characters", `{"name":"X","roleType":"Villain"}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid role: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/api/characters", `{"id":"`+ch.ID+`","name":"Dup"}`); w.Code != http.StatusConflict {
		t.Fatalf("duplicate id: %d", w.Code)
	}
	if w := do(t, s, http.MethodPatch, "/api/characters/"+ch.ID, `{"age":"34"}`); w.Code != http.StatusOK {
		t.Fatalf("patch character: %d", w.Code)
	}
	if got, _ := st.Model().ResolveCharacter(ch.ID); got.Age != "34" || got.Name != "Maya" {
		t.Fatalf("character = %+v", got)
	}

	if w := do(t, s, http.MethodPost, "/api/budget", `{"category":"Crew","item":"DOP","cost":1200}`); w.Code != http.StatusCreated {
		t.Fatalf("add budget: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/api/budget", `{"category":"Crew","item":"Gaffer","cost":-5}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("negative cost: %d", w.Code)
	}
	w = do(t, s, http.MethodGet, "/api/budget.csv", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "DOP") {
		t.Fatalf("budget csv: %d %q", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Fatalf("content disposition %q", cd)
	}

	if w := do(t, s, http.MethodDelete, "/api/characters/"+ch.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete character: %d", w.Code)
	}
	w = do(t, s, http.MethodGet, "/api/characters", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("characters after delete: %s", w.Body.String())
	}
}

func TestExportImport(t *testing.T) {
	s, st := newTestServer(t)
	do(t, s, http.MethodPatch, "/api/project", `{"title":"Round Trip"}`)
	w := do(t, s, http.MethodGet, "/api/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d", w.Code)
	}
	exported := w.Body.String()

	if w := do(t, s, http.MethodPost, "/api/reset", ""); w.Code != http.StatusOK {
		t.Fatalf("reset: %d", w.Code)
	}
	if st.Model().Info().Title == "Round Trip" {
		t.Fatalf("reset kept title")
	}

	w = do(t, s, http.MethodPost, "/api/import", `{"nope":true}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid import: %d %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodPost, "/api/import", exported); w.Code != http.StatusOK {
		t.Fatalf("import: %d %s", w.Code, w.Body.String())
	}
	if st.Model().Info().Title != "Round Trip" {
		t.Fatalf("import lost title")
	}

	w = do(t, s, http.MethodGet, "/api/deck.pdf", "")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Fatalf("deck pdf: %d", w.Code)
	}
}

func TestResumeWithoutSnapshot(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/resume", "")
	if !strings.Contains(w.Body.String(), `"hasSavedProject":false`) {
		t.Fatalf("resume status: %s", w.Body.String())
	}
	if w := do(t, s, http.MethodPost, "/api/resume", ""); w.Code != http.StatusNotFound {
		t.Fatalf("resume: %d", w.Code)
	}
}

func TestGenerateWithoutGateway(t *testing.T) {
	s, st := newTestServer(t)
	do(t, s, http.MethodPost, "/api/start", "")
	id := st.Model().Snapshot().Doc.Slides[0].ID
	w := do(t, s, http.MethodPost, "/api/generate/slides/"+id+"/image", "")
	if w.Code < 400 {
		t.Fatalf("generation without gateway succeeded: %d", w.Code)
	}
	if len(st.Notifications().Active()) == 0 {
		t.Fatalf("expected an error toast")
	}
	if w := do(t, s, http.MethodPost, "/api/generate/locations", `{"requirements":"","region":"Goa"}`); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty location requirements: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/api/generate/locations", `{"requirements":"beach shack at dusk"}`); w.Code < 400 {
		t.Fatalf("location scouting without gateway succeeded: %d", w.Code)
	}
}

func TestNotificationsOverWebSocket(t *testing.T) {
	s, st := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	// The subscription is registered after the upgrade completes.
	deadline := time.Now().Add(2 * time.Second)
	var ev notify.Event
	for {
		st.Notifications().Info("Hello", "from the studio")
		_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		if err := conn.ReadJSON(&ev); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no event received")
		}
		_ = conn.Close()
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("redial: %v", err)
		}
	}
	if ev.Type != notify.Added || ev.Toast.Title != "Hello" {
		t.Fatalf("event = %+v", ev)
	}

	w := do(t, s, http.MethodGet, "/api/notifications", "")
	if !strings.Contains(w.Body.String(), "Hello") {
		t.Fatalf("notifications: %s", w.Body.String())
	}
	if w := do(t, s, http.MethodDelete, "/api/notifications/"+ev.Toast.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("dismiss: %d", w.Code)
	}
}

func TestVaultUploadAndFilter(t *testing.T) {
	s, _ := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "treatment.pdf")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("%PDF-1.4 fake"))
	_ = mw.WriteField("title", "Treatment")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/vault/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	var it domain.VaultItem
	_ = json.Unmarshal(w.Body.Bytes(), &it)
	if it.Type != domain.VaultPDF || it.Title != "Treatment" {
		t.Fatalf("item = %+v", it)
	}

	w = do(t, s, http.MethodGet, "/api/vault/filter/DOCS", "")
	if !strings.Contains(w.Body.String(), it.ID) {
		t.Fatalf("docs filter: %s", w.Body.String())
	}
	w = do(t, s, http.MethodGet, "/api/vault/filter/IMAGE", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("image filter: %s", w.Body.String())
	}
}
