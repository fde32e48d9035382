package analyzer_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

// testNode describes one object in a synthetic snapshot.
type testNode struct {
	typ   string
	name  string
	size  int64
	edges []int // ordinals of referenced nodes
}

func repeatNode(n int, typ, name string, size int64) []testNode {
	out := make([]testNode, n)
	for i := range out {
		out[i] = testNode{typ: typ, name: name, size: size}
	}
	return out
}

var testNodeFields = []string{"type", "name", "id", "self_size", "edge_count"}
var testEdgeFields = []string{"type", "name_or_index", "to_node"}

// buildSnapshot lays nodes out in V8 order. Edge data is only emitted when
// at least one node has edges.
func buildSnapshot(source string, nodes []testNode) *analyzer.Snapshot {
	snap := &analyzer.Snapshot{
		Source: source,
		Schema: analyzer.SnapshotSchema{
			NodeFields: testNodeFields,
			NodeTypes:  [][]string{{}, nil, nil, nil, nil},
		},
		Nodes:   []int64{},
		Strings: []string{},
	}
	typeIndex := map[string]int64{}
	stringIndex := map[string]int64{}
	intern := func(s string) int64 {
		if idx, ok := stringIndex[s]; ok {
			return idx
		}
		idx := int64(len(snap.Strings))
		snap.Strings = append(snap.Strings, s)
		stringIndex[s] = idx
		return idx
	}

	hasEdges := false
	for i, n := range nodes {
		ti, ok := typeIndex[n.typ]
		if !ok {
			ti = int64(len(snap.Schema.NodeTypes[0]))
			snap.Schema.NodeTypes[0] = append(snap.Schema.NodeTypes[0], n.typ)
			typeIndex[n.typ] = ti
		}
		snap.Nodes = append(snap.Nodes, ti, intern(n.name), int64(i*2+1), n.size, int64(len(n.edges)))
		for _, to := range n.edges {
			hasEdges = true
			snap.Edges = append(snap.Edges, 0, intern("ref"), int64(to*len(testNodeFields)))
		}
	}
	if hasEdges {
		snap.Schema.EdgeFields = testEdgeFields
		snap.Schema.EdgeTypes = [][]string{{"property"}, nil, nil}
	}
	return snap
}

// writeHeapSnapshot serializes snap in the V8 .heapsnapshot layout.
func writeHeapSnapshot(t *testing.T, dir, name string, snap *analyzer.Snapshot) string {
	t.Helper()

	tables := func(in [][]string) []interface{} {
		out := make([]interface{}, len(in))
		for i, table := range in {
			if table == nil {
				out[i] = "number"
			} else {
				out[i] = table
			}
		}
		return out
	}
	edges := snap.Edges
	if edges == nil {
		edges = []int64{}
	}
	doc := map[string]interface{}{
		"snapshot": map[string]interface{}{
			"meta": map[string]interface{}{
				"node_fields": snap.Schema.NodeFields,
				"node_types":  tables(snap.Schema.NodeTypes),
				"edge_fields": snap.Schema.EdgeFields,
				"edge_types":  tables(snap.Schema.EdgeTypes),
			},
		},
		"nodes":   snap.Nodes,
		"edges":   edges,
		"strings": snap.Strings,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to marshal snapshot: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}
	return path
}

// taskRowScenario returns the baseline/current pair of the TaskRow growth scenario.
func taskRowScenario() (baseline, current []testNode) {
	return repeatNode(100, "Object", "TaskRow", 10), repeatNode(1500, "Object", "TaskRow", 10)
}
