/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cinepitch/internal/config"
	"cinepitch/internal/credits"
	"cinepitch/internal/version"
)

func newAPIKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "apikey",
		Short:       "Manage the generative AI API key in the OS keyring",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key>",
		Short: "Store the API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return fmt.Errorf("key must not be empty; use `cinepitch apikey clear` to remove it")
			}
			if err := config.SetAPIKey(key); err != nil {
				return fmt.Errorf("store api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key saved. You can now generate AI content.")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearAPIKey(); err != nil {
				return fmt.Errorf("remove api key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
			return nil
		},
	})
	return cmd
}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Print the configuration file path",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if p := strings.TrimSpace(deref(ctx.configFlag)); p != "" {
				fmt.Fprintln(cmd.OutOrStdout(), p)
				return nil
			}
			p, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, secrets, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, string(b))
			fmt.Fprintf(out, "# api key: %s\n# credits database: %s\n", setOrUnset(secrets.APIKey), setOrUnset(secrets.CreditsDSN))
			return nil
		},
	})
	return cmd
}

func setOrUnset(v string) string {
	if v == "" {
		return "unset"
	}
	return "set"
}

func newCreditsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Inspect and top up the generation credit balance",
	}

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List recent credit transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(cmd, func(l *credits.Postgres, userID string) error {
				txs, err := l.Transactions(cmd.Context(), userID, limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), transactionsTable(txs))
				return nil
			})
		},
	}
	history.Flags().IntVar(&limit, "limit", credits.MaxTransactions, "Number of transactions to show")

	var paymentID, orderID string
	add := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a confirmed purchase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[0])
			if err != nil || amount <= 0 {
				return fmt.Errorf("amount must be a positive number, got %q", args[0])
			}
			return ctx.withLedger(cmd, func(l *credits.Postgres, userID string) error {
				ok, err := l.AddCredits(cmd.Context(), userID, amount, paymentID, orderID)
				if err != nil {
					return err
				}
				if !ok {
					return credits.ErrNoProfile
				}
				p, err := l.Profile(cmd.Context(), userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d credits, balance %d\n", amount, p.Credits)
				return nil
			})
		},
	}
	add.Flags().StringVar(&paymentID, "payment-id", "", "Payment reference")
	add.Flags().StringVar(&orderID, "order-id", "", "Order reference")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "balance",
			Short: "Print the current balance",
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withLedger(cmd, func(l *credits.Postgres, userID string) error {
					p, err := l.Profile(cmd.Context(), userID)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d credits\n", p.ID, p.Credits)
					return nil
				})
			},
		},
		history,
		add,
		&cobra.Command{
			Use:         "packages",
			Short:       "List the purchasable credit packages",
			Annotations: map[string]string{"skipConfigLoad": "true"},
			RunE: func(cmd *cobra.Command, args []string) error {
				rows := make([][]string, 0, len(credits.Packages))
				for _, p := range credits.Packages {
					rows = append(rows, []string{strconv.Itoa(p.Credits), fmt.Sprintf("Rs. %d", p.PricePaise/100)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Credits", "Price"}, rows, []columnAlignment{alignRight, alignRight}))
				return nil
			},
		},
	)
	return cmd
}

// withLedger opens the credits database without opening the studio profile.
func (c *commandContext) withLedger(cmd *cobra.Command, fn func(*credits.Postgres, string) error) error {
	cfg, secrets, err := c.ensureConfig()
	if err != nil {
		return err
	}
	l, err := openLedger(cmd.Context(), cfg.Credits, secrets)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(l, cfg.Credits.UserID)
}

func transactionsTable(txs []credits.Transaction) string {
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{t.CreatedAt.Local().Format(time.DateTime), string(t.Type), strconv.Itoa(t.Amount), t.Description})
	}
	return renderTable([]string{"When", "Type", "Amount", "Description"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "CinePitch", version.String())
			return nil
		},
	}
}
