/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package credits

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	applog "cinepitch/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres is a Ledger backed by the profiles and credit_transactions tables. Balance changes go
// through the deduct_credit and add_credits functions so they stay atomic server-side.
type Postgres struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenPostgres connects with the pgx stdlib driver, pings and applies embedded migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("credits: empty postgres dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	p := &Postgres{db: db, log: applog.WithComponent("credits")}
	if err := p.migrate(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// EnsureProfile inserts a profile with a starting balance if none exists.
func (p *Postgres) EnsureProfile(ctx context.Context, userID, email string, starting int) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO profiles(id, email, credits) VALUES($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		userID, email, starting)
	if err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

func (p *Postgres) Profile(ctx context.Context, userID string) (Profile, error) {
	var pr Profile
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, credits, created_at, updated_at FROM profiles WHERE id = $1`, userID).
		Scan(&pr.ID, &pr.Email, &pr.Credits, &pr.CreatedAt, &pr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrNoProfile, userID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("select profile: %w", err)
	}
	return pr, nil
}

func (p *Postgres) DeductCredit(ctx context.Context, userID, description string) (bool, error) {
	var ok bool
	if err := p.db.QueryRowContext(ctx, `SELECT deduct_credit($1, $2)`, userID, description).Scan(&ok); err != nil {
		return false, fmt.Errorf("deduct_credit: %w", err)
	}
	return ok, nil
}

func (p *Postgres) AddCredits(ctx context.Context, userID string, amount int, paymentID, orderID string) (bool, error) {
	var ok bool
	err := p.db.QueryRowContext(ctx, `SELECT add_credits($1, $2, $3, $4)`, userID, amount, paymentID, orderID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("add_credits: %w", err)
	}
	return ok, nil
}

func (p *Postgres) Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, user_id, amount, type, description,
		COALESCE(razorpay_payment_id, ''), COALESCE(razorpay_order_id, ''), created_at
		FROM credit_transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			p.log.Warn("rows close", slog.Any("err", err))
		}
	}()
	var out []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Description, &tx.PaymentID, &tx.OrderID, &tx.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// migrate applies embedded SQL migrations in filename order, once each.
func (p *Postgres) migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	applied := map[int64]bool{}
	rows, err := p.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		p.log.Info("applying migration", slog.String("file", fname))
		if _, err := p.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := p.db.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, version, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

// parseVersion reads the numeric prefix of "0001_name.sql".
func parseVersion(name string) (int64, error) {
	prefix, _, ok := strings.Cut(path.Base(name), "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid migration version in %s: %w", name, err)
	}
	return v, nil
}
