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
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// exerciseLedger runs the same contract against any Ledger with userID seeded at 2 credits.
func exerciseLedger(t *testing.T, l Ledger, userID string) {
	t.Helper()
	ctx := context.Background()

	p, err := l.Profile(ctx, userID)
	if err != nil || p.Credits != 2 {
		t.Fatalf("profile = %+v, %v", p, err)
	}
	for i := 0; i < 2; i++ {
		ok, err := l.DeductCredit(ctx, userID, "Scene image")
		if err != nil || !ok {
			t.Fatalf("deduct %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := l.DeductCredit(ctx, userID, "Scene image")
	if err != nil || ok {
		t.Fatalf("deduct on empty balance: ok=%v err=%v", ok, err)
	}
	if ok, err := l.AddCredits(ctx, userID, 0, "", ""); err != nil || ok {
		t.Fatalf("zero top-up accepted: ok=%v err=%v", ok, err)
	}
	if ok, err := l.AddCredits(ctx, userID, 50, "pay_1", "order_1"); err != nil || !ok {
		t.Fatalf("top-up: ok=%v err=%v", ok, err)
	}
	if p, _ := l.Profile(ctx, userID); p.Credits != 50 {
		t.Fatalf("balance = %d, want 50", p.Credits)
	}

	txs, err := l.Transactions(ctx, userID, 0)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("want 3 transactions, got %d", len(txs))
	}
	if txs[0].Type != TxPurchase || txs[0].Amount != 50 || txs[0].PaymentID != "pay_1" {
		t.Fatalf("newest transaction should be the purchase: %+v", txs[0])
	}
	if txs[2].Type != TxUsage || txs[2].Amount != -1 || txs[2].Description != "Scene image" {
		t.Fatalf("oldest transaction should be usage: %+v", txs[2])
	}
	if got, _ := l.Transactions(ctx, userID, 1); len(got) != 1 {
		t.Fatalf("limit ignored: %d", len(got))
	}

	if _, err := l.Profile(ctx, "missing-"+userID); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("want ErrNoProfile, got %v", err)
	}
	if ok, err := l.DeductCredit(ctx, "missing-"+userID, "x"); err != nil || ok {
		t.Fatalf("deduct for unknown user: ok=%v err=%v", ok, err)
	}
}

func TestMemoryLedger(t *testing.T) {
	m := NewMemory()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	m.Seed("user-1", "a@example.com", 2)
	exerciseLedger(t, m, "user-1")
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-1: MaxTransactions, 0: MaxTransactions, 10: 10, 500: MaxTransactions}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := parseVersion("migrations/0001_credits.sql"); err != nil || v != 1 {
		t.Fatalf("parseVersion = %d, %v", v, err)
	}
	for _, bad := range []string{"credits.sql", "x_credits.sql"} {
		if _, err := parseVersion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

// TestPostgresLedger needs a reachable database in CINEPITCH_PG_DSN.
func TestPostgresLedger(t *testing.T) {
	dsn := os.Getenv("CINEPITCH_PG_DSN")
	if dsn == "" {
		t.Skip("CINEPITCH_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer func() { _ = p.Close() }()

	userID := "test-" + uuid.NewString()
	if err := p.EnsureProfile(ctx, userID, "pg@example.com", 2); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if err := p.EnsureProfile(ctx, userID, "pg@example.com", 99); err != nil {
		t.Fatalf("ensure profile twice: %v", err)
	}
	exerciseLedger(t, p, userID)
}
