package analyzer_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

func hasRecommendation(recs []string, substr string) bool {
	for _, r := range recs {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func TestSummarizeAllClear(t *testing.T) {
	objs := analyzer.ExtractObjects(buildSnapshot("cur", repeatNode(10, "object", "Row", 8)))
	s := analyzer.Summarize(objs, nil, analyzer.DefaultThresholds())

	if s.TotalObjects != 10 || s.TotalSize != 80 {
		t.Errorf("Expected 10 objects / 80 bytes, got %d / %d", s.TotalObjects, s.TotalSize)
	}
	if len(s.Recommendations) != 1 || !strings.Contains(s.Recommendations[0], "No significant memory leaks") {
		t.Errorf("Expected only the all-clear message, got %v", s.Recommendations)
	}
}

func TestSummarizeRecommendations(t *testing.T) {
	objs := analyzer.ExtractObjects(buildSnapshot("cur", repeatNode(100, "object", "Row", 10)))
	candidates := []analyzer.LeakCandidate{
		{Category: analyzer.CategoryCountGrowth, ClassName: "object:Cache", Severity: analyzer.SeverityCritical, Size: 500},
		{Category: analyzer.CategoryCountGrowth, ClassName: "object:Cache", Severity: analyzer.SeverityCritical, Size: 10},
		{Category: analyzer.CategoryCountGrowth, ClassName: "closure:Listener", Severity: analyzer.SeverityCritical, Size: 5},
		{Category: analyzer.CategoryDetachedReference, ClassName: "Detached <div>", Severity: analyzer.SeverityHigh, Size: 4},
		{Category: analyzer.CategoryCountGrowth, ClassName: "array:Rows", Severity: analyzer.SeverityMedium, Size: 3},
		{Category: analyzer.CategoryCountGrowth, ClassName: "array:Cols", Severity: analyzer.SeverityLow, Size: 2},
	}
	s := analyzer.Summarize(objs, candidates, analyzer.DefaultThresholds())

	if s.CriticalCount != 3 || s.HighCount != 1 || s.MediumCount != 1 || s.LowCount != 1 {
		t.Errorf("unexpected severity counts: %+v", s)
	}
	if s.HighSeverityCount != 4 {
		t.Errorf("Expected 4 high/critical candidates, got %d", s.HighSeverityCount)
	}
	if s.DetachedCount != 1 {
		t.Errorf("Expected 1 detached candidate, got %d", s.DetachedCount)
	}

	if !hasRecommendation(s.Recommendations, "URGENT") || !hasRecommendation(s.Recommendations, "object:Cache, closure:Listener") {
		t.Errorf("Expected an urgent recommendation naming the critical classes once each, got %v", s.Recommendations)
	}
	if !hasRecommendation(s.Recommendations, "detached DOM references") {
		t.Errorf("Expected DOM cleanup advice, got %v", s.Recommendations)
	}
	// 500 bytes is more than 10% of the 1000-byte heap
	if !hasRecommendation(s.Recommendations, "Review large allocations") {
		t.Errorf("Expected large-object advice, got %v", s.Recommendations)
	}
	if !hasRecommendation(s.Recommendations, "WeakMap") {
		t.Errorf("Expected hardening advice for more than 5 candidates, got %v", s.Recommendations)
	}
	if hasRecommendation(s.Recommendations, "No significant memory leaks") {
		t.Error("Did not expect the all-clear message")
	}

	again := analyzer.Summarize(objs, candidates, analyzer.DefaultThresholds())
	if !reflect.DeepEqual(s, again) {
		t.Error("Expected Summarize to be deterministic")
	}
}

func TestSummarizeSmallCandidateSet(t *testing.T) {
	objs := analyzer.ExtractObjects(buildSnapshot("cur", repeatNode(100, "object", "Row", 10)))
	candidates := []analyzer.LeakCandidate{
		{Category: analyzer.CategoryCountGrowth, ClassName: "array:Rows", Severity: analyzer.SeverityMedium, Size: 50},
	}
	s := analyzer.Summarize(objs, candidates, analyzer.DefaultThresholds())
	if len(s.Recommendations) != 0 {
		t.Errorf("Expected no recommendations for one small medium candidate, got %v", s.Recommendations)
	}
}
