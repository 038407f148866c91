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
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tailormark/internal/config"
	"tailormark/internal/domain"
	"tailormark/internal/export"
	"tailormark/internal/imageload"
	applog "tailormark/internal/log"
	"tailormark/internal/overlay"
	"tailormark/internal/storage"
	"tailormark/internal/telemetry"
	"tailormark/internal/ui"
	"tailormark/internal/units"
	"tailormark/internal/version"
)

func openWorkspace(dir string) (*storage.Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	return storage.OpenWorkspace(abs)
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			applog.WithComponent("cli").Info("init workspace", slog.String("root", abs))
			if _, err := storage.InitWorkspace(abs); err != nil {
				return fmt.Errorf("init workspace: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Created workspace at", abs)
			return nil
		},
	}
}

func newNewCmd() *cobra.Command {
	var title, diagram string
	cmd := &cobra.Command{
		Use:   "new <dir> <sheet-id>",
		Short: "Create a sheet, optionally from a catalog diagram",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(args[0])
			if err != nil {
				return err
			}
			cfg, _, err := config.Load()
			if err != nil {
				applog.WithComponent("cli").Warn("config not loaded, using defaults", slog.Any("err", err))
			}
			s, err := cfg.NewSheet(args[1], diagram, title)
			if err != nil {
				return err
			}
			if err := ws.CreateSheet(cmd.Context(), &s); err != nil {
				return fmt.Errorf("create sheet: %w", err)
			}
			telemetry.Event(telemetry.EventSheetCreated, telemetry.SheetStats(s))
			fmt.Fprintf(cmd.OutOrStdout(), "Created sheet %s (%s)\n", s.ID, ws.SheetPath(s.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "sheet title")
	cmd.Flags().StringVar(&diagram, "diagram", "", "catalog diagram (see config diagrams)")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dir>",
		Short: "List the sheets of a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(args[0])
			if err != nil {
				return err
			}
			ids, err := ws.ListSheets()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tDIAGRAM\tPOINTS\tANNOTATIONS")
			for _, id := range ids {
				s, err := ws.LoadSheet(id)
				if err != nil {
					fmt.Fprintf(tw, "%s\t(unreadable: %v)\t\t\t\n", id, err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.ID, s.Title, s.Diagram, len(s.Points), s.Annotations.Total())
			}
			return tw.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "show <dir> <sheet-id>",
		Short: "Print landmark values, lengths and angles of a sheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(args[0])
			if err != nil {
				return err
			}
			s, err := ws.LoadSheet(args[1])
			if err != nil {
				return err
			}
			w, h := export.CanvasSize(s, export.Options{Width: width})
			sc := export.SceneFor(s, w, h, overlay.PresetAll)
			printScene(cmd, s, sc)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", export.DefaultWidth, "layout width used for pixel lengths")
	return cmd
}

func printScene(cmd *cobra.Command, s domain.Sheet, sc overlay.Scene) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sheet: %s", s.ID)
	if s.Title != "" {
		fmt.Fprintf(out, " (%s)", s.Title)
	}
	fmt.Fprintf(out, "\nUnit: %s\n", s.Unit)
	if len(sc.Landmarks) > 0 {
		fmt.Fprintln(out, "Landmarks:")
		for _, l := range sc.Landmarks {
			fmt.Fprintf(out, "  %-12s %s\n", l.Label, l.Value)
		}
	}
	if len(sc.Points) > 0 {
		fmt.Fprintln(out, "Points:")
		for _, p := range sc.Points {
			fmt.Fprintf(out, "  %-12s %s%s\n", p.Label, p.Value, p.Unit)
		}
	}
	if len(sc.Dims) > 0 {
		fmt.Fprintln(out, "Dimensions:")
		for _, d := range sc.Dims {
			fmt.Fprintf(out, "  %s  %s\n", d.ID, d.Label)
		}
	}
	if len(sc.Angles) > 0 {
		fmt.Fprintln(out, "Angles:")
		for _, a := range sc.Angles {
			fmt.Fprintf(out, "  %s  %d°\n", a.ID, a.Degrees)
		}
	}
	for _, n := range sc.Notes {
		fmt.Fprintf(out, "Note %s: %s\n", n.ID, n.Text)
	}
}

func newExportCmd() *cobra.Command {
	var (
		format, preset, out string
		width, height       int
		noImage             bool
	)
	cmd := &cobra.Command{
		Use:   "export <dir> <sheet-id>",
		Short: "Render a sheet to SVG, PNG or PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(args[0])
			if err != nil {
				return err
			}
			s, err := ws.LoadSheet(args[1])
			if err != nil {
				return err
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			opt := export.Options{Format: f, Width: width, Height: height, Preset: overlay.ParsePreset(preset)}
			if !noImage {
				opt.Background = loadBackground(cmd.Context(), ws, s)
			}
			if out == "" {
				out = ws.ExportPath(s.ID, string(f))
			}
			if err := export.ToFile(out, s, opt); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			props := telemetry.SheetStats(s)
			props["format"] = string(f)
			props["image"] = opt.Background != nil
			telemetry.Event(telemetry.EventSheetExported, props)
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "svg|png|pdf")
	cmd.Flags().StringVar(&preset, "preset", "all", "layer preset: all|labels|measures")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <workspace>/exports/<sheet>.<format>)")
	cmd.Flags().IntVar(&width, "width", 0, "canvas width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "canvas height in pixels")
	cmd.Flags().BoolVar(&noImage, "no-image", false, "skip the diagram image")
	return cmd
}

// loadBackground resolves the sheet image; a missing image exports the
// annotations on a blank page.
func loadBackground(ctx context.Context, ws *storage.Workspace, s domain.Sheet) image.Image {
	l := applog.WithComponent("cli")
	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", err))
	}
	loader := imageload.New(cfg.Assets, token).WithDir(ws.Root)
	ctx, cancel := context.WithTimeout(ctx, loader.Timeout())
	defer cancel()
	candidates := append([]string{s.ImageURL}, s.FallbackURLs...)
	im, info, err := loader.Load(ctx, candidates)
	if err != nil {
		l.Warn("diagram image not found, exporting without it", slog.Any("err", err))
		return nil
	}
	l.Debug("diagram image loaded", slog.String("source", info.Source))
	return im
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <sheet.json>...",
		Short: "Check sheet files against the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, p := range args {
				data, err := os.ReadFile(p)
				if err == nil {
					err = storage.ValidateSheetJSON(data)
				}
				if err != nil {
					bad++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", p, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", p)
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d files invalid", bad, len(args))
			}
			return nil
		},
	}
}

func newConvertCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "convert <value>",
		Short: "Convert a measurement between cm and in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, t := units.Normalize(from), units.Normalize(to)
			if f == "" || t == "" {
				return fmt.Errorf("unknown unit: use cm or in")
			}
			fmt.Fprintln(cmd.OutOrStdout(), units.Convert(args[0], f, t)+t)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", units.CM, "source unit")
	cmd.Flags().StringVar(&to, "to", units.IN, "target unit")
	return cmd
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <dir> <query>",
		Short: "Find sheets by label, value or note text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(args[0])
			if err != nil {
				return err
			}
			ids, err := storage.Search(cmd.Context(), ws.Root, strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex <dir>",
		Short: "Rebuild the search index from the sheet files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(args[0])
			if err != nil {
				return err
			}
			n, err := storage.RebuildIndex(cmd.Context(), ws)
			if err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d sheets\n", n)
			return nil
		},
	}
}

func newUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui [dir] [sheet-id]",
		Short: "Launch the desktop editor (build with -tags fyne)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, sheet := ".", ""
			if len(args) > 0 {
				dir = args[0]
			}
			if len(args) > 1 {
				sheet = args[1]
			}
			return ui.Run(dir, sheet)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
