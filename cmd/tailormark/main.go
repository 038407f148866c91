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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tailormark/internal/crash"
	applog "tailormark/internal/log"
	"tailormark/internal/telemetry"
	"tailormark/internal/version"
)

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	defer crash.Recover(nil)

	l := applog.WithComponent("cli")
	l.Debug("start", slog.Int("args", len(os.Args)))
	err := newRootCmd().Execute()
	telemetry.Flush(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:   "tailormark",
		Short: "Measurement overlays for garment diagrams",
		Long: `Tailormark annotates garment diagrams with dimensions, circles,
arrows, angles and notes, and keeps labeled measurement values per sheet.

Examples:
  tailormark init ./work                          # Create a workspace
  tailormark new ./work ada-shirt --diagram shirt # Start a sheet from the catalog
  tailormark show ./work ada-shirt                # Print derived lengths and angles
  tailormark export ./work ada-shirt --format pdf # Render the sheet
  tailormark ui ./work ada-shirt                  # Open the editor (fyne builds)`,
		Version:      version.String(),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				applog.SetLevel(logLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override TMK_LOG_LEVEL (debug|info|warn|error)")

	root.AddCommand(
		newInitCmd(),
		newNewCmd(),
		newListCmd(),
		newShowCmd(),
		newExportCmd(),
		newValidateCmd(),
		newConvertCmd(),
		newSearchCmd(),
		newReindexCmd(),
		newUICmd(),
		newVersionCmd(),
	)
	return root
}
