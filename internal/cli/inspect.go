package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

var inspectTop int

var inspectCmd = &cobra.Command{
	Use:   "inspect [snapshot]",
	Short: "Show object counts and sizes by type for one snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	snap, err := analyzer.NewLoader(nil, nil).Load(args[0])
	if err != nil {
		return err
	}
	if reason := snap.Malformed(); reason != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", reason)
	}

	objs := analyzer.ExtractObjects(snap)
	stats := analyzer.Breakdown(objs)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Snapshot: %s\n", snap.Source)
	fmt.Fprintf(out, "Objects:  %d\n", analyzer.ObjectCount(objs))
	fmt.Fprintf(out, "Size:     %s\n\n", analyzer.FormatBytes(analyzer.TotalSize(objs)))

	if inspectTop > 0 && inspectTop < len(stats) {
		stats = stats[:inspectTop]
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE:NAME\tCOUNT\tSIZE")
	for _, st := range stats {
		fmt.Fprintf(w, "%s\t%d\t%s\n", st.Key, st.Count, analyzer.FormatBytes(st.Size))
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().IntVar(&inspectTop, "top", 20, "Maximum number of types to list (0 for all)")
}
