package analyzer

import (
	"fmt"
	"strings"
)

// Summarize totals the current objects and derives recommendations from the
// candidate list. Identical inputs always produce identical output.
func Summarize(current []ExtractedObject, candidates []LeakCandidate, th Thresholds) Summary {
	s := Summary{
		TotalObjects:   int(ObjectCount(current)),
		TotalSize:      TotalSize(current),
		CandidateCount: len(candidates),
	}
	for _, c := range candidates {
		switch c.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityHigh:
			s.HighCount++
		case SeverityMedium:
			s.MediumCount++
		default:
			s.LowCount++
		}
		if c.Category == CategoryDetachedReference {
			s.DetachedCount++
		}
	}
	s.HighSeverityCount = s.CriticalCount + s.HighCount
	s.Recommendations = recommendations(s, candidates, th)
	return s
}

func recommendations(s Summary, candidates []LeakCandidate, th Thresholds) []string {
	recs := make([]string, 0)

	if s.CriticalCount > 0 {
		var classes []string
		seen := make(map[string]bool)
		for _, c := range candidates {
			if c.Severity == SeverityCritical && !seen[c.ClassName] {
				seen[c.ClassName] = true
				classes = append(classes, c.ClassName)
			}
		}
		recs = append(recs, fmt.Sprintf("URGENT: critical memory growth detected in %s. Investigate these allocations before release.",
			strings.Join(classes, ", ")))
	}

	if s.DetachedCount > 0 {
		recs = append(recs, fmt.Sprintf("Found %d detached DOM references. Remove event listeners and drop references to DOM nodes when they are removed from the document.",
			s.DetachedCount))
	}

	if s.TotalSize > 0 {
		limit := float64(s.TotalSize) * th.LargeObjectRatio
		for _, c := range candidates {
			if float64(c.Size) > limit {
				recs = append(recs, fmt.Sprintf("Review large allocations: at least one candidate (%s) exceeds %.0f%% of the heap.",
					c.ClassName, th.LargeObjectRatio*100))
				break
			}
		}
	}

	if len(candidates) > th.ManyCandidates {
		recs = append(recs, "Many leak candidates found. Consider WeakMap/WeakRef for caches, audit event listener registration and removal, and profile with heap allocation timelines.")
	}

	if len(candidates) == 0 {
		recs = append(recs, "No significant memory leaks detected. Memory usage looks healthy.")
	}

	return recs
}
