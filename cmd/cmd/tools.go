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
	"os"

	"github.com/madera-ai/hints"
	"github.com/madera-ai/hints/lib/cli"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available analysis tools",
	Long: `List the document-analysis tools this binary supports.

Examples:
  # List all tools
  hints tools

  # Filter by tool class
  hints tools --class all_around`,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)

	toolsCmd.Flags().String("class", "", "Filter by tool class (all_around, hypothecaire)")
}

func runTools(cmd *cobra.Command, args []string) error {
	classFilter, _ := cmd.Flags().GetString("class")

	return cli.ListTools(os.Stdout, hints.ToolCatalog, cli.ListOptions{
		ClassFilter: classFilter,
	})
}
