package analyzer

import "sort"

// TypeStat aggregates the objects sharing one "type:name" key.
type TypeStat struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
	Size  int64  `json:"size"`
}

// Breakdown groups objs by key, largest total size first. Ties are broken
// by count and then key so the order is stable.
func Breakdown(objs []ExtractedObject) []TypeStat {
	freq := frequencyMap(objs)
	stats := make([]TypeStat, 0, len(freq))
	for key, st := range freq {
		stats = append(stats, TypeStat{Key: key, Count: st.count, Size: st.size})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Size != stats[j].Size {
			return stats[i].Size > stats[j].Size
		}
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Key < stats[j].Key
	})
	return stats
}
