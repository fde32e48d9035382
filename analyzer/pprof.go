package analyzer

import (
	"fmt"
	"io"
	"log"

	"github.com/google/pprof/profile"
)

// pprofNodeFields is the node layout used for snapshots built from pprof heap
// profiles. One node stands for all objects of a sample: self_size holds the
// sample's bytes and count the number of objects.
var pprofNodeFields = []string{fieldType, fieldName, fieldID, fieldSelfSize, fieldCount}

const pprofObjectType = "object"

func parsePprofSnapshot(source string, r io.Reader) (*Snapshot, error) {
	prof, err := profile.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse '%s' as a heap snapshot or pprof profile: %w", source, err)
	}
	return SnapshotFromProfile(source, prof)
}

// SnapshotFromProfile converts a Go heap profile into a Snapshot. Every sample
// becomes one node named after its type label (or, failing that, the
// allocating function) weighted by the sample's object count, so the node
// array grows with the profile size and not with the reported counts.
func SnapshotFromProfile(source string, p *profile.Profile) (*Snapshot, error) {
	// 常见的索引：0:alloc_objects, 1:alloc_space, 2:inuse_objects, 3:inuse_space
	spaceIndex := sampleTypeIndex(p, "inuse_space", "bytes")
	objectsIndex := sampleTypeIndex(p, "inuse_objects", "count")
	if spaceIndex == -1 {
		spaceIndex = sampleTypeIndex(p, "alloc_space", "bytes")
		if spaceIndex >= 0 {
			log.Printf("Warning: 'inuse_space' not found in '%s', falling back to 'alloc_space'", source)
		}
	}
	if objectsIndex == -1 {
		objectsIndex = sampleTypeIndex(p, "alloc_objects", "count")
		if objectsIndex >= 0 {
			log.Printf("Warning: 'inuse_objects' not found in '%s', falling back to 'alloc_objects'", source)
		}
	}
	if spaceIndex == -1 {
		return nil, fmt.Errorf("profile '%s' has no inuse_space or alloc_space sample type", source)
	}

	snap := &Snapshot{
		Source: source,
		Schema: SnapshotSchema{
			NodeFields: pprofNodeFields,
			NodeTypes:  [][]string{{pprofObjectType}, nil, nil, nil, nil},
		},
	}
	stringIndex := make(map[string]int64)
	intern := func(s string) int64 {
		if idx, ok := stringIndex[s]; ok {
			return idx
		}
		idx := int64(len(snap.Strings))
		snap.Strings = append(snap.Strings, s)
		stringIndex[s] = idx
		return idx
	}

	var nextID int64 = 1
	for _, s := range p.Sample {
		if len(s.Value) <= spaceIndex {
			continue
		}
		bytes := s.Value[spaceIndex]
		if bytes <= 0 {
			continue
		}
		count := int64(1)
		if objectsIndex >= 0 && len(s.Value) > objectsIndex && s.Value[objectsIndex] > 0 {
			count = s.Value[objectsIndex]
		}

		snap.Nodes = append(snap.Nodes, 0, intern(sampleObjectName(s)), nextID, bytes, count)
		nextID++
	}

	log.Printf("Converted pprof profile '%s' into %d snapshot nodes", source, snap.NodeCount())
	return snap, nil
}

func sampleTypeIndex(p *profile.Profile, typ, unit string) int {
	for i, st := range p.SampleType {
		if st.Type == typ && st.Unit == unit {
			return i
		}
	}
	return -1
}

// sampleObjectName prefers the type/object labels and falls back to the
// topmost function of the allocation stack.
func sampleObjectName(s *profile.Sample) string {
	if typeLabels, ok := s.Label["type"]; ok && len(typeLabels) > 0 {
		return typeLabels[0]
	}
	if objLabels, ok := s.Label["object"]; ok && len(objLabels) > 0 {
		return objLabels[0]
	}
	if len(s.Location) > 0 {
		for _, line := range s.Location[0].Line {
			if line.Function != nil {
				return line.Function.Name
			}
		}
	}
	return "unknown"
}
