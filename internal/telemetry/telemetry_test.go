/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type sink struct {
	mu      sync.Mutex
	events  [][]byte
	crashes [][]byte
}

func (s *sink) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.events = append(s.events, b)
		s.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.crashes = append(s.crashes, b)
		s.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEventAndCrashUpload(t *testing.T) {
	s := &sink{}
	srv := s.server(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()

	c.Event(ProjectExported, map[string]any{"slides": 7})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)

	s.mu.Lock()
	if len(s.events) != 1 {
		s.mu.Unlock()
		t.Fatalf("expected one event, got %d", len(s.events))
	}
	var m map[string]any
	if err := json.Unmarshal(s.events[0], &m); err != nil {
		s.mu.Unlock()
		t.Fatalf("bad event json: %v", err)
	}
	s.mu.Unlock()
	if m["name"] != ProjectExported || m["slides"] != float64(7) {
		t.Fatalf("unexpected payload %v", m)
	}
	if _, ok := m["ts"].(string); !ok {
		t.Fatalf("missing ts")
	}

	c.UploadCrash([]byte("STACKTRACE"))
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.crashes) != 1 || string(s.crashes[0]) != "STACKTRACE" {
		t.Fatalf("crash upload missing: %q", s.crashes)
	}
}

func TestDisabledClientsSendNothing(t *testing.T) {
	s := &sink{}
	srv := s.server(t)
	off := New(Config{OptIn: false, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash"})
	defer off.Close()
	noURL := New(Config{OptIn: true})
	defer noURL.Close()
	var nilClient *Client

	for _, c := range []*Client{off, noURL, nilClient} {
		if c.Enabled() {
			t.Fatalf("client should be disabled: %+v", c)
		}
		c.Event(ProjectResumed, nil)
		c.UploadCrash([]byte("x"))
		c.Flush(context.Background())
	}
	nilClient.Close()
	time.Sleep(20 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events)+len(s.crashes) != 0 {
		t.Fatalf("disabled clients sent data")
	}
}

func TestUnreachableEndpointDoesNotBlock(t *testing.T) {
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:1/events", Timeout: 100 * time.Millisecond})
	defer c.Close()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			c.Event(ProjectStarted, nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Event blocked")
	}
}
