/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package credits tracks the per-user credit balance that pays for AI generations.
package credits

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoProfile           = errors.New("credits: profile not found")
	ErrInsufficientCredits = errors.New("credits: insufficient credits")
)

// TxType classifies a ledger movement.
type TxType string

const (
	TxPurchase TxType = "PURCHASE"
	TxUsage    TxType = "USAGE"
	TxBonus    TxType = "BONUS"
	TxRefund   TxType = "REFUND"
)

// MaxTransactions caps Transactions results.
const MaxTransactions = 50

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      int       `json:"amount"`
	Type        TxType    `json:"type"`
	Description string    `json:"description"`
	PaymentID   string    `json:"payment_id,omitempty"`
	OrderID     string    `json:"order_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Package is a purchasable credit bundle. Prices are in paise.
type Package struct {
	Credits    int
	PricePaise int
}

var Packages = []Package{
	{Credits: 50, PricePaise: 29900},
	{Credits: 150, PricePaise: 79900},
	{Credits: 500, PricePaise: 249900},
}

// Ledger is the credits backend. DeductCredit reports false without error when the balance is
// exhausted; errors are reserved for backend failures.
type Ledger interface {
	Profile(ctx context.Context, userID string) (Profile, error)
	DeductCredit(ctx context.Context, userID, description string) (bool, error)
	AddCredits(ctx context.Context, userID string, amount int, paymentID, orderID string) (bool, error)
	Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxTransactions {
		return MaxTransactions
	}
	return limit
}
