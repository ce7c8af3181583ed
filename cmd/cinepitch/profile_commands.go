/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cinepitch/internal/storage"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect the profile database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// read-only so it works next to a running server
			store, err := storage.Open(cmd.Context(), cfg.General.ProfileDir, storage.Options{ReadOnly: true})
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No profile database in", cfg.General.ProfileDir)
				return nil
			}
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.Keys(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Key, strconv.FormatInt(e.Size, 10), e.UpdatedAt.Local().Format(time.DateTime)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Profile:", store.Path())
			fmt.Fprintln(out, renderTable([]string{"Key", "Bytes", "Updated"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Discard the autosaved project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := storage.Open(cmd.Context(), cfg.General.ProfileDir, storage.Options{})
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(cmd.Context(), cfg.Autosave.Key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Autosaved project discarded.")
			return nil
		},
	})
	return cmd
}

func newVaultCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Manage project attachments",
	}
	var title, description string
	add := &cobra.Command{
		Use:   "add <file>",
		Short: "Attach a file to the saved project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withSession(cmd.Context(), func(c context.Context, ss *session) error {
				if err := ss.resumeOrFail(c); err != nil {
					return err
				}
				it, err := ss.studio.AddVaultFile(args[0], mime.TypeByExtension(filepath.Ext(args[0])), data, title, description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s, %s)\n", it.FileName, it.Type, it.FileSize)
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "Title shown in the vault")
	add.Flags().StringVar(&description, "description", "", "Description")
	cmd.AddCommand(add)
	return cmd
}
