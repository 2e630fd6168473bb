// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/madera-ai/hints/lib/cli"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run analysis tools against a document",
	Long: `Run the document-analysis tools against a local PDF or image file
and print the results as JSON.

Examples:
  # Run every tool
  hints analyze scan.pdf

  # Run a single tool
  hints analyze --tool detect_blank_pages scan.pdf

  # Override the render resolution
  hints analyze --dpi 300 scan.pdf

  # Skip OCR (faster, zone tools find no text)
  hints analyze --disable-ocr scan.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("tool", "", "Run a single tool by id (see 'hints tools')")
	analyzeCmd.Flags().Int("dpi", 0, "Render resolution override")
	analyzeCmd.Flags().Bool("disable-ocr", false, "Run without an OCR engine")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tool, _ := cmd.Flags().GetString("tool")
	dpi, _ := cmd.Flags().GetInt("dpi")
	disableOCR, _ := cmd.Flags().GetBool("disable-ocr")

	logger := newLogger()
	defer func() {
		_ = logger.Sync()
	}()

	return cli.Analyze(ctx, logger, args[0], cli.AnalyzeOptions{
		Tool:       tool,
		Dpi:        dpi,
		DisableOCR: disableOCR,
	}, os.Stdout)
}
