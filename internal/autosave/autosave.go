/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package autosave persists the live project to the profile store after a quiet period.
//
// The controller owns a single timer handle. Each change cancels the pending write and schedules a
// new one, so a burst of edits produces one write holding the state after the last edit.
// Writes are best effort: failures are logged and the next change naturally retries.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	applog "cinepitch/internal/log"
	"cinepitch/internal/project"
	"cinepitch/internal/projectio"
)

const (
	DefaultKey      = "cinepitch_autosave"
	DefaultDebounce = 2000 * time.Millisecond
)

// Store is the durable key-value sink; *storage.Store implements it.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
}

// Source provides the state to persist; *project.Model implements it.
type Source interface {
	Snapshot() project.State
	SlideCount() int
}

type Options struct {
	Key      string
	Debounce time.Duration
	Logger   *slog.Logger
}

type Controller struct {
	src      Source
	store    Store
	key      string
	debounce time.Duration
	log      *slog.Logger

	mu     sync.Mutex
	active bool
	timer  *time.Timer
	gen    uint64

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func New(src Source, store Store, opts Options) *Controller {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = applog.WithComponent("autosave")
	}
	return &Controller{src: src, store: store, key: opts.Key, debounce: opts.Debounce, log: opts.Logger}
}

// Key returns the store key snapshots are written under.
func (c *Controller) Key() string { return c.key }

// Attach makes every model change reschedule the write. The returned func detaches.
func (c *Controller) Attach(m *project.Model) func() {
	return m.Subscribe(func(project.Change) { c.Changed() })
}

// SetActive marks whether an editing session is running. Leaving the session cancels a pending write.
func (c *Controller) SetActive(active bool) {
	c.mu.Lock()
	c.active = active
	c.mu.Unlock()
	if active {
		c.Changed()
	} else {
		c.cancel()
	}
}

// Changed reports a document or cursor change. When the session is inactive or the deck is
// empty, any pending write is cancelled and nothing is scheduled.
func (c *Controller) Changed() {
	slides := c.src.SlideCount()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	if !c.active || slides == 0 {
		return
	}
	gen := c.gen
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(gen) })
}

// Pending reports whether a write is scheduled.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		// superseded between the timer firing and taking the lock
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.gen++
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	if err := c.write(context.Background()); err != nil {
		c.log.Warn("autosave write failed", slog.String("key", c.key), slog.Any("err", err))
	}
}

// Flush cancels the pending timer and, if the session qualifies, writes immediately.
// Unlike timer writes the error is returned, for shutdown and crash paths.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.stopTimerLocked()
	active := c.active
	c.mu.Unlock()
	if !active {
		return nil
	}
	return c.write(ctx)
}

// Stop cancels any pending write and waits for an in-flight one to finish.
func (c *Controller) Stop() {
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) write(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	st := c.src.Snapshot()
	if len(st.Doc.Slides) == 0 {
		return nil
	}
	b, err := projectio.EncodeCompact(projectio.New(st.Doc, st.ActiveSlideID))
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, c.key, b); err != nil {
		return err
	}
	c.log.Debug("snapshot written", slog.String("key", c.key), slog.Int("bytes", len(b)), slog.Int("slides", len(st.Doc.Slides)))
	return nil
}
