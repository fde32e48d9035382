package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/internal/tui"
)

var (
	compareOutput string
	compareTop    int
	compareExport string
	compareTUI    bool
)

var validOutputs = []string{"cli", "text", "markdown", "json", "toon"}

var compareCmd = &cobra.Command{
	Use:   "compare [baseline] [current]",
	Short: "Compare a baseline snapshot with a current snapshot",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	output := compareOutput
	if output == "" {
		output = cfg.OutputFormat
	}
	if !slices.Contains(validOutputs, output) {
		return fmt.Errorf("invalid output format: %s. Valid options: %v", output, validOutputs)
	}

	an := newAnalyzer(cfg)
	analysis, err := an.CompareSnapshots(args[0], args[1])
	if err != nil {
		return err
	}

	if compareExport != "" {
		if err := an.ExportAnalysis(analysis, compareExport); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Analysis exported to %s\n", compareExport)
	}

	if compareTUI {
		return tui.Run(analysis)
	}

	out := cmd.OutOrStdout()
	switch output {
	case "cli":
		fmt.Fprint(out, tui.RenderReport(analysis, compareTop))
	case "toon":
		encoded, err := encodeToon(analysis)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, encoded)
	default:
		report, err := analyzer.FormatAnalysis(analysis, output, compareTop)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, report)
	}
	return nil
}

func encodeToon(v interface{}) (string, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &generic); err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	output, err := gotoon.Encode(generic)
	if err != nil {
		return "", fmt.Errorf("failed to encode Toon: %w", err)
	}
	return output, nil
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVarP(&compareOutput, "output", "o", "", "Output format (cli, text, markdown, json, toon)")
	compareCmd.Flags().IntVar(&compareTop, "top", 20, "Maximum number of candidates to list (0 for all)")
	compareCmd.Flags().StringVar(&compareExport, "export", "", "Write the analysis to this file (.json, .yaml or .toon)")
	compareCmd.Flags().BoolVar(&compareTUI, "tui", false, "Browse candidates interactively")

	compareCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return validOutputs, cobra.ShellCompDirectiveNoFileComp
	})
}
