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
	"os/signal"
	"syscall"

	"github.com/madera-ai/hints"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the hints server",
	Long:  `Start the hints server for document analysis (blank pages, ID cards, tax forms, boundaries, quality).`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Run command flags
	runCmd.Flags().Int("max-concurrent-requests", 0, "max simultaneous tool executions (0 = number of CPUs)")
	mustBindPFlag("max_concurrent_requests", runCmd.Flags().Lookup("max-concurrent-requests"))

	runCmd.Flags().Int("max-queue-size", 0, "max queued requests (0 = 4x max concurrent)")
	mustBindPFlag("max_queue_size", runCmd.Flags().Lookup("max-queue-size"))

	runCmd.Flags().String("request-timeout", "", "max wait for an execution slot (e.g. 30s, empty disables)")
	mustBindPFlag("request_timeout", runCmd.Flags().Lookup("request-timeout"))

	runCmd.Flags().Bool("disable-ocr", false, "run without an OCR engine")
	mustBindPFlag("disable_ocr", runCmd.Flags().Lookup("disable-ocr"))
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Running as hints")

	// Build hints config from viper/env
	cfg := hints.Config{
		ApiUrl:                viper.GetString("api_url"),
		TesseractLanguages:    viper.GetStringSlice("tesseract_languages"),
		DisableOCR:            viper.GetBool("disable_ocr"),
		MaxConcurrentRequests: viper.GetInt("max_concurrent_requests"),
		MaxQueueSize:          viper.GetInt("max_queue_size"),
		RequestTimeout:        viper.GetString("request_timeout"),
	}

	readyC := make(chan struct{})
	go func() {
		<-readyC
		logger.Info("Hints is ready")
	}()

	hints.RunAsHints(ctx, logger, cfg, readyC)
	return nil
}
