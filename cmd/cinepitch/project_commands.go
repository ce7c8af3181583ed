/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"cinepitch/internal/domain"
	"cinepitch/internal/export"
	"cinepitch/internal/notify"
	"cinepitch/internal/storage"
	"cinepitch/internal/studio"
)

func newNewCommand(ctx *commandContext) *cobra.Command {
	var (
		info  domain.ProjectInfo
		tab   string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a project from the template of its type",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(c context.Context, ss *session) error {
				if ss.studio.HasSavedProject() && !force {
					return fmt.Errorf("a saved project exists; use --force to replace it")
				}
				if err := ss.studio.Model().PatchInfo(func(p *domain.ProjectInfo) error {
					return applyInfoFlags(p, info)
				}); err != nil {
					return err
				}
				if err := ss.studio.StartProject(studio.Tab(strings.ToUpper(tab))); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Started %q with %d slides\n", ss.studio.Model().Info().Title, ss.studio.Model().SlideCount())
				fmt.Fprintln(out, slidesTable(ss.studio.CurrentDocument().Slides, ss.studio.Model().ActiveSlideID()))
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&info.Title, "title", "", "Project title")
	f.StringVar(&info.Genre, "genre", "", "Genre")
	f.StringVar(&info.Logline, "logline", "", "One-sentence logline")
	f.StringVar(&info.Director, "director", "", "Director")
	f.StringVar((*string)(&info.ProjectType), "type", "", "Project type (FEATURE_FILM, SHORT_FILM, DOCUMENTARY, ...)")
	f.StringVar((*string)(&info.ServiceType), "service", "", "Service (PITCH_DECK, STORYBOARD, SCRIPT_DOCTOR, FULL_SUITE)")
	f.StringVar((*string)(&info.Language), "language", "", "Language code (en, ml)")
	f.StringVar(&tab, "tab", string(studio.TabDeck), "Studio tab to open")
	f.BoolVar(&force, "force", false, "Replace an existing saved project")
	return cmd
}

// applyInfoFlags copies the non-empty flag values into p after validating the enumerations.
func applyInfoFlags(p *domain.ProjectInfo, in domain.ProjectInfo) error {
	if in.ProjectType != "" {
		if !in.ProjectType.Valid() {
			return fmt.Errorf("unknown project type %q", in.ProjectType)
		}
		p.ProjectType = in.ProjectType
	}
	if in.ServiceType != "" {
		if !in.ServiceType.Valid() {
			return fmt.Errorf("unknown service %q", in.ServiceType)
		}
		p.ServiceType = in.ServiceType
	}
	if in.Language != "" {
		if !in.Language.Valid() {
			return fmt.Errorf("unknown language %q", in.Language)
		}
		p.Language = in.Language
	}
	for dst, src := range map[*string]string{&p.Title: in.Title, &p.Genre: in.Genre, &p.Logline: in.Logline, &p.Director: in.Director} {
		if src != "" {
			*dst = src
		}
	}
	return nil
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(c context.Context, ss *session) error {
				if err := ss.resumeOrFail(c); err != nil {
					return err
				}
				doc := ss.studio.CurrentDocument()
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, infoTable(doc.Info))
				fmt.Fprintln(out, slidesTable(doc.Slides, ss.studio.Model().ActiveSlideID()))
				fmt.Fprintln(out, assetsTable(doc.Info))
				return nil
			})
		},
	}
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Restore the autosaved project and report its state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(c context.Context, ss *session) error {
				err := ss.resumeOrFail(c)
				printToasts(cmd.ErrOrStderr(), ss.studio.Notifications())
				if err != nil {
					return err
				}
				_, tab := ss.studio.InStudio()
				info := ss.studio.Model().Info()
				fmt.Fprintf(cmd.OutOrStdout(), "Resumed %q (%d slides) on %s\n", info.Title, ss.studio.Model().SlideCount(), tab)
				return nil
			})
		},
	}
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var fromBackup bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a project file and make it the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if fromBackup {
				bak, err := storage.LatestBackup(path)
				if err != nil {
					return fmt.Errorf("no backup of %s: %w", path, err)
				}
				path = bak
			}
			return ctx.withSession(cmd.Context(), func(c context.Context, ss *session) error {
				err := ss.studio.ImportFile(path)
				printToasts(cmd.ErrOrStderr(), ss.studio.Notifications())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %q (%d slides)\n", ss.studio.Model().Info().Title, ss.studio.Model().SlideCount())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fromBackup, "backup", false, "Load the newest backup written next to <file> instead")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the saved project to a portable project file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(c context.Context, ss *session) error {
				if err := ss.resumeOrFail(c); err != nil {
					return err
				}
				path, err := ss.studio.ExportFile(firstArg(args))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Exported project to", path)
				return nil
			})
		},
	}
}

func newPDFCommand(ctx *commandContext) *cobra.Command {
	opts := export.DefaultDeckOptions()
	var noCover, noBudget bool
	cmd := &cobra.Command{
		Use:   "pdf [file]",
		Short: "Render the pitch deck as PDF",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(c context.Context, ss *session) error {
				if err := ss.resumeOrFail(c); err != nil {
					return err
				}
				doc := ss.studio.CurrentDocument()
				path := firstArg(args)
				if path == "" {
					path = export.DeckFileName(doc.Info.Title)
				}
				opts.IncludeCover, opts.IncludeBudget = !noCover, !noBudget
				opts.Author = doc.Info.Director
				pages, err := export.ExportDeckPDF(path, doc, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pages to %s\n", pages, path)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noCover, "no-cover", false, "Omit the cover page")
	cmd.Flags().BoolVar(&noBudget, "no-budget", false, "Omit the budget page")
	return cmd
}

func newBudgetCSVCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "budget-csv [file]",
		Short: "Export the budget sheet as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(c context.Context, ss *session) error {
				if err := ss.resumeOrFail(c); err != nil {
					return err
				}
				var buf bytes.Buffer
				name, err := ss.studio.WriteBudgetCSV(&buf)
				if err != nil {
					return err
				}
				path := firstArg(args)
				if path == "" {
					path = name
				}
				if err := storage.WriteFileAtomic(path, buf.Bytes(), false); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote budget to", path)
				return nil
			})
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}

func infoTable(info domain.ProjectInfo) string {
	rows := [][]string{
		{"Title", info.Title},
		{"Genre", info.Genre},
		{"Type", string(info.ProjectType)},
		{"Service", string(info.ServiceType)},
		{"Language", string(info.Language)},
		{"Director", info.Director},
		{"Logline", info.Logline},
	}
	if len(info.BudgetItems) > 0 {
		rows = append(rows, []string{"Budget", fmt.Sprintf("%s %s", info.BudgetCurrency, strconv.FormatFloat(domain.BudgetTotal(info.BudgetItems), 'f', -1, 64))})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}

func slidesTable(slides []domain.Slide, active string) string {
	rows := make([][]string, 0, len(slides))
	for i, s := range slides {
		marker := ""
		if s.ID == active {
			marker = "*"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), marker, s.Title, shorten(s.Content, 50), yesNo(s.ImageURL != "")})
	}
	return renderTable([]string{"#", "", "Slide", "Content", "Image"}, rows, []columnAlignment{alignRight})
}

func assetsTable(info domain.ProjectInfo) string {
	rows := [][]string{
		{"Characters", strconv.Itoa(len(info.Characters))},
		{"Scenes", strconv.Itoa(len(info.ShowcaseScenes))},
		{"Posters", strconv.Itoa(len(info.Posters))},
		{"Audio", strconv.Itoa(len(info.AudioAssets))},
		{"Videos", strconv.Itoa(len(info.Videos))},
		{"Locations", strconv.Itoa(len(info.Locations))},
		{"Cast", strconv.Itoa(len(info.CastList))},
		{"Crew", strconv.Itoa(len(info.CrewList))},
		{"Vault", strconv.Itoa(len(info.VaultItems))},
		{"Budget lines", strconv.Itoa(len(info.BudgetItems))},
		{"Roadmap beats", strconv.Itoa(len(info.ScriptRoadmap))},
	}
	return renderTable([]string{"Assets", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// printToasts mirrors the visible notifications on the terminal.
func printToasts(w io.Writer, c *notify.Center) {
	for _, t := range c.Active() {
		colors := text.Colors{text.FgCyan}
		switch t.Kind {
		case notify.Success:
			colors = text.Colors{text.FgGreen}
		case notify.Error:
			colors = text.Colors{text.FgRed}
		}
		line := t.Title
		if t.Message != "" {
			line += ": " + t.Message
		}
		fmt.Fprintln(w, colorize(w, line, colors))
	}
}
