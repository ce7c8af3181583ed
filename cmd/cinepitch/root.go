/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag, profileFlag string
	ctx := newCommandContext(&configFlag, &profileFlag)

	root := &cobra.Command{
		Use:           "cinepitch",
		Short:         "CinePitch creative studio",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, _, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	root.PersistentFlags().StringVar(&profileFlag, "profile", "", "Profile directory holding the autosave database")

	root.AddCommand(
		newNewCommand(ctx),
		newShowCommand(ctx),
		newResumeCommand(ctx),
		newImportCommand(ctx),
		newExportCommand(ctx),
		newPDFCommand(ctx),
		newBudgetCSVCommand(ctx),
		newServeCommand(ctx),
		newAPIKeyCommand(),
		newConfigCommand(ctx),
		newCreditsCommand(ctx),
		newProfileCommand(ctx),
		newVaultCommand(ctx),
		newVersionCommand(),
	)
	return root
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
