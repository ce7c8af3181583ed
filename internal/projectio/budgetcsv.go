/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package projectio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"cinepitch/internal/domain"
)

// ErrEmptyBudget is returned when there are no budget lines to export.
var ErrEmptyBudget = errors.New("budget has no line items")

var whitespaceRun = regexp.MustCompile(`\s+`)

// BudgetFileName derives the CSV file name from the project title.
func BudgetFileName(title string) string {
	return whitespaceRun.ReplaceAllString(title, "_") + "_Budget.csv"
}

// WriteBudgetCSV writes the budget lines followed by a TOTAL row. Costs are plain numbers in the
// project currency, named in the cost header.
func WriteBudgetCSV(w io.Writer, info domain.ProjectInfo) error {
	if len(info.BudgetItems) == 0 {
		return ErrEmptyBudget
	}
	cw := csv.NewWriter(w)
	rows := [][]string{{"Category", "Line Item", "Notes", fmt.Sprintf("Cost (%s)", info.BudgetCurrency)}}
	for _, it := range info.BudgetItems {
		rows = append(rows, []string{it.Category, it.Item, it.Notes, formatCost(it.Cost)})
	}
	rows = append(rows, []string{"TOTAL", "", "", formatCost(domain.BudgetTotal(info.BudgetItems))})
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write budget csv: %w", err)
	}
	return nil
}

func formatCost(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
