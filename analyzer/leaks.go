package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Thresholds tunes candidate detection, tracing and recommendations.
type Thresholds struct {
	MinIncrease        int64    // 数量增长超过该值即满足增长条件
	MinIncreasePercent float64  // 或增长百分比超过该值
	MinCount           int64    // 当前数量超过该值即满足规模条件
	SuspiciousTerms    []string // 或键中包含其中之一
	DetachedMarkers    []string // 名称包含其中之一的对象视为分离引用
	MaxTraces          int
	LargeObjectRatio   float64 // 候选大小占总大小的比例阈值
	ManyCandidates     int
}

// DefaultThresholds returns the stock detection settings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinIncrease:        100,
		MinIncreasePercent: 50,
		MinCount:           1000,
		SuspiciousTerms:    []string{"closure", "function", "object", "array"},
		DetachedMarkers:    []string{"Detached", "HTMLElement", "Node"},
		MaxTraces:          10,
		LargeObjectRatio:   0.1,
		ManyCandidates:     5,
	}
}

// Severity tiers. A candidate lands in the first tier whose increase or
// percentage bound it exceeds.
var severityTiers = []struct {
	severity   Severity
	increase   int64
	percentage float64
}{
	{SeverityCritical, 10000, 500},
	{SeverityHigh, 1000, 200},
	{SeverityMedium, 100, 50},
}

// ClassifySeverity maps a count increase and its percentage to a severity.
func ClassifySeverity(increase int64, increasePercent float64) Severity {
	for _, tier := range severityTiers {
		if increase > tier.increase || increasePercent > tier.percentage {
			return tier.severity
		}
	}
	return SeverityLow
}

type keyStat struct {
	count int64
	size  int64
}

func frequencyMap(objs []ExtractedObject) map[string]*keyStat {
	m := make(map[string]*keyStat)
	for _, o := range objs {
		key := o.Key()
		st, ok := m[key]
		if !ok {
			st = &keyStat{}
			m[key] = st
		}
		st.count += o.Weight()
		st.size += o.Size
	}
	return m
}

// DetectLeakCandidates compares per-key object counts and scans the current
// objects for detached references. The result is sorted by severity, then by
// estimated size, both descending.
func DetectLeakCandidates(baseline, current []ExtractedObject, th Thresholds) []LeakCandidate {
	baseFreq := frequencyMap(baseline)
	curFreq := frequencyMap(current)

	keys := make([]string, 0, len(curFreq))
	for key := range curFreq {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	candidates := make([]LeakCandidate, 0)
	for _, key := range keys {
		cur := curFreq[key]
		var baseCount int64
		if base, ok := baseFreq[key]; ok {
			baseCount = base.count
		}

		increase := cur.count - baseCount
		increasePercent := 0.0
		if baseCount > 0 {
			increasePercent = float64(increase) / float64(baseCount) * 100
		} else if increase > 0 {
			increasePercent = 100.0 // 新出现的类型按 100% 增长处理
		}

		if !qualifies(key, cur.count, increase, increasePercent, th) {
			continue
		}

		avgSize := float64(cur.size) / float64(cur.count)
		size := int64(math.Round(float64(increase) * avgSize))
		candidates = append(candidates, LeakCandidate{
			Category:        CategoryCountGrowth,
			ClassName:       key,
			Size:            size,
			RetainedSize:    size * 2,
			Count:           cur.count,
			Increase:        increase,
			IncreasePercent: increasePercent,
			Severity:        ClassifySeverity(increase, increasePercent),
			Description: fmt.Sprintf("%s grew by %d objects (%.1f%%): %d → %d",
				key, increase, increasePercent, baseCount, cur.count),
		})
	}

	candidates = append(candidates, detachedCandidates(current, th)...)
	SortCandidates(candidates)
	return candidates
}

func qualifies(key string, count, increase int64, increasePercent float64, th Thresholds) bool {
	grew := increase > th.MinIncrease || increasePercent > th.MinIncreasePercent
	if !grew {
		return false
	}
	return count > th.MinCount || containsAny(strings.ToLower(key), th.SuspiciousTerms)
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(s, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func detachedCandidates(current []ExtractedObject, th Thresholds) []LeakCandidate {
	var out []LeakCandidate
	for _, o := range current {
		if !nameHasMarker(o.Name, th.DetachedMarkers) {
			continue
		}
		ordinal := o.ID
		out = append(out, LeakCandidate{
			Category:      CategoryDetachedReference,
			ClassName:     o.Name,
			Size:          o.Size,
			RetainedSize:  o.Size * 3,
			Count:         1,
			DetachedCount: 1,
			Severity:      SeverityHigh,
			Description:   fmt.Sprintf("Detached DOM reference %s (node #%d) is still retained", o.Name, o.ID),
			ObjectID:      &ordinal,
		})
	}
	return out
}

func nameHasMarker(name string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// SortCandidates orders candidates by severity, then by size, both descending.
// Equal candidates keep their relative order.
func SortCandidates(candidates []LeakCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := candidates[i].Severity.Rank(), candidates[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return candidates[i].Size > candidates[j].Size
	})
}
