package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "heapdiff",
	Short: "Compare heap snapshots and find leak candidates",
	Long: `heapdiff compares a baseline and a current heap snapshot
(V8 .heapsnapshot JSON or Go pprof heap profiles) and reports:
  - total and per-type growth
  - ranked leak candidates and detached references
  - approximate retention paths
  - recommendations`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
}

// loadConfig resolves the --config flag into a Config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", cfg.File)
	}
	return cfg, nil
}

func newAnalyzer(cfg *config.Config) *analyzer.Analyzer {
	return analyzer.NewAnalyzer(cfg.AnalyzerOptions()...)
}
