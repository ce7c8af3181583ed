/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"strconv"
	"strings"
)

// BudgetTotal sums the cost of all line items.
func BudgetTotal(items []BudgetLineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Cost
	}
	return total
}

// FormatMoney renders an amount with the currency symbol and grouping used by that currency:
// USD groups by thousands, INR uses lakh/crore grouping (12,34,567).
func FormatMoney(c Currency, amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	whole := strconv.FormatFloat(amount, 'f', 0, 64)
	var grouped string
	if c == CurrencyUSD {
		grouped = groupDigits(whole, 3, 3)
	} else {
		grouped = groupDigits(whole, 3, 2)
	}
	sym := "₹"
	if c == CurrencyUSD {
		sym = "$"
	}
	if neg {
		return "-" + sym + grouped
	}
	return sym + grouped
}

// groupDigits inserts commas: the last `first` digits form one group, the rest groups of `rest`.
func groupDigits(s string, first, rest int) string {
	if len(s) <= first {
		return s
	}
	head, tail := s[:len(s)-first], s[len(s)-first:]
	var parts []string
	for len(head) > rest {
		parts = append([]string{head[len(head)-rest:]}, parts...)
		head = head[:len(head)-rest]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}
