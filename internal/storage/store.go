/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage is the per-profile durable store: a small SQLite key-value database guarded by
// an OS file lock, plus the transactional file writes used for exported projects.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	applog "cinepitch/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DBFileName   = "state.sqlite"
	LockFileName = "state.lock"
)

var (
	// ErrProfileBusy is returned when another process holds the profile lock.
	ErrProfileBusy = errors.New("profile is in use by another process")
	ErrNotFound    = errors.New("key not found")
	ErrReadOnly    = errors.New("store opened read-only")
)

// Options control how a profile store is opened.
type Options struct {
	// ReadOnly skips the writer lock and opens an existing database without writing to it.
	// Put and Delete then fail with ErrReadOnly.
	ReadOnly bool
}

// Entry describes a stored value without loading it.
type Entry struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}

// Store is a key-value store at <profile>/state.sqlite. At most one writable Store per profile
// exists across processes.
type Store struct {
	db       *sql.DB
	lock     *flock.Flock
	path     string
	readOnly bool
}

// Open initialises or opens the profile store in dir.
func Open(ctx context.Context, dir string, opts Options) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("profile dir is required")
	}
	path := filepath.Join(dir, DBFileName)
	if opts.ReadOnly {
		return openReadOnly(ctx, path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	if !ok {
		l.Warn("profile locked by another process")
		return nil, ErrProfileBusy
	}
	unlock := func() { _ = lock.Unlock() }

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		unlock()
		l.Error("init schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("profile store ready", slog.String("path", path))
	return &Store{db: db, lock: lock, path: path}, nil
}

// openReadOnly opens an existing database without the lock. The schema is used as found:
// no WAL switch, version stamp or migration is written.
func openReadOnly(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("profile database %s: %w", path, ErrNotFound)
		}
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite read-only: %w", err)
	}
	applog.WithComponent("storage").Debug("profile store ready", slog.String("path", path), slog.Bool("read_only", true))
	return &Store{db: db, path: path, readOnly: true}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database and releases the profile lock.
func (s *Store) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		if uerr := s.lock.Unlock(); err == nil {
			err = uerr
		}
	}
	return err
}

// language=SQL
const upsertSQL = `INSERT INTO kv(key, value, size, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, size=excluded.size, updated_at=excluded.updated_at`

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, upsertSQL, key, value, len(value), now); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

// Stat reports size and modification time of key or ErrNotFound.
func (s *Store) Stat(ctx context.Context, key string) (Entry, error) {
	var (
		size int64
		ts   string
	)
	err := s.db.QueryRowContext(ctx, `SELECT size, updated_at FROM kv WHERE key = ?`, key).Scan(&size, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", key, err)
	}
	e := Entry{Key: key, Size: size}
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	return e, nil
}

// Has reports whether key exists.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the stored entries ordered by key.
func (s *Store) Keys(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, size, updated_at FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.Key, &e.Size, &ts); err != nil {
			return nil, err
		}
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}
