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
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Ledger used offline and in tests.
type Memory struct {
	mu       sync.Mutex
	profiles map[string]*Profile
	txs      []Transaction
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{profiles: map[string]*Profile{}, now: time.Now}
}

// Seed creates or overwrites a profile with the given balance.
func (m *Memory) Seed(userID, email string, balance int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.now().UTC()
	m.profiles[userID] = &Profile{ID: userID, Email: email, Credits: balance, CreatedAt: t, UpdatedAt: t}
}

func (m *Memory) Profile(_ context.Context, userID string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %s", ErrNoProfile, userID)
	}
	return *p, nil
}

func (m *Memory) DeductCredit(_ context.Context, userID, description string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok || p.Credits < 1 {
		return false, nil
	}
	p.Credits--
	m.record(p, -1, TxUsage, description, "", "")
	return true, nil
}

func (m *Memory) AddCredits(_ context.Context, userID string, amount int, paymentID, orderID string) (bool, error) {
	if amount <= 0 {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return false, nil
	}
	p.Credits += amount
	m.record(p, amount, TxPurchase, fmt.Sprintf("Purchase %d Credits", amount), paymentID, orderID)
	return true, nil
}

func (m *Memory) Transactions(_ context.Context, userID string, limit int) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transaction
	for _, tx := range slices.Backward(m.txs) {
		if tx.UserID != userID {
			continue
		}
		out = append(out, tx)
		if len(out) == clampLimit(limit) {
			break
		}
	}
	return out, nil
}

func (m *Memory) record(p *Profile, amount int, typ TxType, desc, paymentID, orderID string) {
	t := m.now().UTC()
	p.UpdatedAt = t
	m.txs = append(m.txs, Transaction{
		ID:          uuid.NewString(),
		UserID:      p.ID,
		Amount:      amount,
		Type:        typ,
		Description: desc,
		PaymentID:   paymentID,
		OrderID:     orderID,
		CreatedAt:   t,
	})
}
