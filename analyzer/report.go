package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatAnalysis renders a as "text", "markdown" or "json". topN limits the
// number of candidates listed; zero or less lists all of them.
func FormatAnalysis(a *Analysis, format string, topN int) (string, error) {
	if a == nil {
		return "", fmt.Errorf("analysis is nil")
	}
	candidates := a.Candidates
	if topN > 0 && topN < len(candidates) {
		candidates = candidates[:topN]
	}

	switch format {
	case "json":
		limited := *a
		limited.Candidates = candidates
		jsonBytes, err := json.MarshalIndent(limited, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal analysis to JSON: %w", err)
		}
		return string(jsonBytes), nil
	case "markdown":
		return formatMarkdown(a, candidates), nil
	case "text", "":
		return formatText(a, candidates), nil
	default:
		return "", fmt.Errorf("unsupported output format: '%s'", format)
	}
}

func formatText(a *Analysis, candidates []LeakCandidate) string {
	var b strings.Builder
	b.WriteString("Heap Snapshot Comparison Report\n")
	b.WriteString("===============================\n\n")
	b.WriteString(fmt.Sprintf("Baseline: %s (%d objects, %s)\n", a.BaselineSource, a.BaselineObjects, FormatBytes(a.BaselineSize)))
	b.WriteString(fmt.Sprintf("Current:  %s (%d objects, %s)\n", a.CurrentSource, a.CurrentObjects, FormatBytes(a.CurrentSize)))
	b.WriteString(fmt.Sprintf("Growth:   %s (%.2f%%)\n\n", FormatBytes(a.GrowthBytes), a.GrowthPercentage))

	if len(a.Candidates) == 0 {
		b.WriteString("No leak candidates detected.\n")
	} else {
		b.WriteString(fmt.Sprintf("Leak Candidates (showing %d of %d):\n", len(candidates), len(a.Candidates)))
		b.WriteString("--------------------------------------------------\n")
		b.WriteString(fmt.Sprintf("%-9s %-19s %-30s %-12s %-12s %s\n",
			"Severity", "Type", "Class", "Size", "Retained", "Increase"))
		b.WriteString("--------------------------------------------------\n")
		for _, c := range candidates {
			b.WriteString(fmt.Sprintf("%-9s %-19s %-30s %-12s %-12s %s\n",
				c.Severity, c.Category, Truncate(c.ClassName, 30),
				FormatBytes(c.Size), FormatBytes(c.RetainedSize), formatIncrease(c)))
		}
	}

	if len(a.Traces) > 0 {
		b.WriteString("\nRetention Traces:\n")
		for _, t := range a.Traces {
			b.WriteString(fmt.Sprintf("  [%s p=%.1f] %s\n", t.Severity, t.LeakProbability, formatPath(t.Path)))
		}
	}

	b.WriteString("\nSummary:\n")
	b.WriteString(fmt.Sprintf("  Objects: %d, Size: %s\n", a.Summary.TotalObjects, FormatBytes(a.Summary.TotalSize)))
	b.WriteString(fmt.Sprintf("  Critical: %d, High: %d, Medium: %d, Low: %d, Detached: %d\n",
		a.Summary.CriticalCount, a.Summary.HighCount, a.Summary.MediumCount, a.Summary.LowCount, a.Summary.DetachedCount))

	b.WriteString("\nRecommendations:\n")
	for i, r := range a.Summary.Recommendations {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, r))
	}
	return b.String()
}

func formatMarkdown(a *Analysis, candidates []LeakCandidate) string {
	var b strings.Builder
	b.WriteString("# Heap Snapshot Comparison Report\n\n")
	b.WriteString("| | Source | Objects | Size |\n|---|---|---|---|\n")
	b.WriteString(fmt.Sprintf("| Baseline | `%s` | %d | %s |\n", a.BaselineSource, a.BaselineObjects, FormatBytes(a.BaselineSize)))
	b.WriteString(fmt.Sprintf("| Current | `%s` | %d | %s |\n\n", a.CurrentSource, a.CurrentObjects, FormatBytes(a.CurrentSize)))
	b.WriteString(fmt.Sprintf("**Growth:** %s (%.2f%%)\n\n", FormatBytes(a.GrowthBytes), a.GrowthPercentage))

	b.WriteString("## Leak Candidates\n\n")
	if len(a.Candidates) == 0 {
		b.WriteString("No leak candidates detected.\n")
	} else {
		b.WriteString("| Severity | Type | Class | Size | Retained | Increase |\n|---|---|---|---|---|---|\n")
		for _, c := range candidates {
			b.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s | %s | %s |\n",
				c.Severity, c.Category, c.ClassName, FormatBytes(c.Size), FormatBytes(c.RetainedSize), formatIncrease(c)))
		}
	}

	if len(a.Traces) > 0 {
		b.WriteString("\n## Retention Traces\n\n")
		for _, t := range a.Traces {
			b.WriteString(fmt.Sprintf("- **%s** (p=%.1f): %s\n", t.ClassName, t.LeakProbability, formatPath(t.Path)))
		}
	}

	b.WriteString("\n## Recommendations\n\n")
	for _, r := range a.Summary.Recommendations {
		b.WriteString(fmt.Sprintf("- %s\n", r))
	}
	return b.String()
}

func formatIncrease(c LeakCandidate) string {
	if c.Category == CategoryDetachedReference {
		return fmt.Sprintf("detached x%d", c.DetachedCount)
	}
	return fmt.Sprintf("+%d (%.1f%%)", c.Increase, c.IncreasePercent)
}

func formatPath(path []TraceHop) string {
	names := make([]string, len(path))
	for i, hop := range path {
		names[i] = hop.Name
	}
	return strings.Join(names, " → ")
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}
