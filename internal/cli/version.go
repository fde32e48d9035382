package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the heapdiff version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", analyzer.ToolName, analyzer.ToolVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
