package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

// RenderReport renders a coloured terminal report for a, listing at most
// topN candidates (all when topN <= 0).
func RenderReport(a *analyzer.Analysis, topN int) string {
	candidates := a.Candidates
	if topN > 0 && topN < len(candidates) {
		candidates = candidates[:topN]
	}

	header := TitleStyle.Render("🔍 Heap Snapshot Comparison")
	overview := BoxStyle.Render(strings.Join([]string{
		fmt.Sprintf("Baseline  %s  %s", a.BaselineSource, MutedStyle.Render(fmt.Sprintf("%d objects, %s", a.BaselineObjects, analyzer.FormatBytes(a.BaselineSize)))),
		fmt.Sprintf("Current   %s  %s", a.CurrentSource, MutedStyle.Render(fmt.Sprintf("%d objects, %s", a.CurrentObjects, analyzer.FormatBytes(a.CurrentSize)))),
		fmt.Sprintf("Growth    %s", GrowthStyle(a.GrowthBytes).Render(fmt.Sprintf("%s (%.2f%%)", analyzer.FormatBytes(a.GrowthBytes), a.GrowthPercentage))),
	}, "\n"))

	var rows []string
	if len(a.Candidates) == 0 {
		rows = append(rows, GoodStyle.Render("✅ No leak candidates detected"))
	} else {
		rows = append(rows, HeaderStyle.Render(fmt.Sprintf("Leak candidates (%d of %d)", len(candidates), len(a.Candidates))))
		for _, c := range candidates {
			rows = append(rows, fmt.Sprintf("%s %-30s %10s  %s",
				SeverityStyle(c.Severity).Render(fmt.Sprintf("%-8s", c.Severity)),
				c.ClassName,
				analyzer.FormatBytes(c.Size),
				MutedStyle.Render(c.Description)))
		}
	}

	recs := []string{HeaderStyle.Render("Recommendations")}
	for _, r := range a.Summary.Recommendations {
		recs = append(recs, "💡 "+TextStyle.Render(r))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		overview,
		"",
		strings.Join(rows, "\n"),
		"",
		strings.Join(recs, "\n"),
	) + "\n"
}
