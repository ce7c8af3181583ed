/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// TestMigrationUpgradesV1Profile opens a profile written by a schema 1 build and checks the
// size column is added and backfilled.
func TestMigrationUpgradesV1Profile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(filepath.Join(dir, DBFileName)))
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, q := range []string{
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB NOT NULL, updated_at TEXT NOT NULL);`,
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed ddl: %v", err)
		}
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO version VALUES(1, 1, 'old', ?, ?)`, now, now); err != nil {
		t.Fatalf("seed version: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at) VALUES('cinepitch_autosave', ?, ?)`, []byte("12345"), now); err != nil {
		t.Fatalf("seed kv: %v", err)
	}
	_ = db.Close()

	s, err := Open(ctx, dir, Options{})
	if err != nil {
		t.Fatalf("open migrated store: %v", err)
	}
	defer s.Close()
	if v, err := s.SchemaVersion(ctx); err != nil || v != schemaVersion {
		t.Fatalf("schema version = %d, %v", v, err)
	}
	e, err := s.Stat(ctx, "cinepitch_autosave")
	if err != nil || e.Size != 5 {
		t.Fatalf("stat after migration = %+v, %v", e, err)
	}
	if got, err := s.Get(ctx, "cinepitch_autosave"); err != nil || string(got) != "12345" {
		t.Fatalf("value after migration = %q, %v", got, err)
	}
}

func TestReadOnlyOpenWritesNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if _, err := Open(ctx, dir, Options{ReadOnly: true}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("read-only open of a missing profile: expected ErrNotFound, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, DBFileName)); !os.IsNotExist(err) {
		t.Fatalf("read-only open must not create the database: %v", err)
	}

	s, err := Open(ctx, dir, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = s.Close()

	raw, err := sql.Open("sqlite", "file:"+filepath.ToSlash(filepath.Join(dir, DBFileName)))
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer raw.Close()
	if _, err := raw.ExecContext(ctx, `UPDATE version SET app='stale' WHERE id=1`); err != nil {
		t.Fatalf("stamp: %v", err)
	}

	ro, err := Open(ctx, dir, Options{ReadOnly: true})
	if err != nil {
		t.Fatalf("read-only open: %v", err)
	}
	if v, err := ro.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Fatalf("read-only get: %q %v", v, err)
	}
	_ = ro.Close()

	var app string
	if err := raw.QueryRowContext(ctx, `SELECT app FROM version WHERE id=1`).Scan(&app); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if app != "stale" {
		t.Fatalf("read-only open rewrote the version stamp: %q", app)
	}
}
