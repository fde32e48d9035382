package analyzer

// Global-scope marker used as the first hop of synthetic traces.
var globalRootHop = TraceHop{
	Name:      "(global)",
	Type:      "synthetic",
	ClassName: "GlobalScope",
	ID:        0,
}

// noObjectID marks a synthetic hop that does not name a snapshot node id.
// Graph paths carry node ids, which LeakCandidate.ObjectID (an ordinal) is not.
const noObjectID int64 = -1

func leakProbability(s Severity) float64 {
	switch s {
	case SeverityCritical:
		return 0.9
	case SeverityHigh:
		return 0.7
	}
	return 0
}

// GenerateRetentionTraces builds a trace for each of the first limit
// high or critical candidates, in the order given. When snap carries edge
// data, detached-reference candidates get the shortest path from the
// snapshot root; every other candidate gets a two-hop synthetic trace.
func GenerateRetentionTraces(snap *Snapshot, candidates []LeakCandidate, limit int) []RetentionTrace {
	traces := make([]RetentionTrace, 0)
	if limit <= 0 {
		return traces
	}

	var g *edgeGraph
	for _, c := range candidates {
		if len(traces) >= limit {
			break
		}
		if c.Severity != SeverityHigh && c.Severity != SeverityCritical {
			continue
		}

		trace := RetentionTrace{
			ClassName:       c.ClassName,
			Severity:        c.Severity,
			LeakProbability: leakProbability(c.Severity),
		}

		if c.Category == CategoryDetachedReference && c.ObjectID != nil && snap != nil && len(snap.Edges) > 0 {
			if g == nil {
				g = buildEdgeGraph(snap)
			}
			if path := g.shortestPath(*c.ObjectID); path != nil {
				trace.Path = path
				traces = append(traces, trace)
				continue
			}
		}

		trace.Approximate = true
		trace.Path = []TraceHop{
			globalRootHop,
			{
				Name:      c.ClassName,
				Type:      string(c.Category),
				ClassName: c.ClassName,
				ID:        noObjectID,
			},
		}
		traces = append(traces, trace)
	}
	return traces
}

// edgeGraph is an adjacency view over a snapshot's flat edge array.
type edgeGraph struct {
	snap    *Snapshot
	objects []ExtractedObject
	// children[i] lists the node ordinals referenced by node i.
	children [][]int
}

func buildEdgeGraph(snap *Snapshot) *edgeGraph {
	g := &edgeGraph{snap: snap, objects: ExtractObjects(snap)}
	stride := snap.NodeStride()
	edgeStride := len(snap.Schema.EdgeFields)
	edgeCountOffset := snap.nodeFieldOffset(fieldEdgeCount)
	toNodeOffset := snap.edgeFieldOffset(fieldToNode)
	if stride == 0 || edgeStride == 0 || edgeCountOffset < 0 || toNodeOffset < 0 {
		return g
	}

	count := snap.NodeCount()
	g.children = make([][]int, count)
	edge := 0
	for i := 0; i < count; i++ {
		n := int(snap.Nodes[i*stride+edgeCountOffset])
		for e := 0; e < n; e++ {
			slot := edge*edgeStride + toNodeOffset
			edge++
			if slot >= len(snap.Edges) {
				return g
			}
			// to_node 是节点数组中的偏移量，而不是序号。
			to := int(snap.Edges[slot]) / stride
			if to >= 0 && to < count {
				g.children[i] = append(g.children[i], to)
			}
		}
	}
	return g
}

// shortestPath runs a breadth-first search from the root node (ordinal 0)
// to target and returns the hops, or nil when target is unreachable.
func (g *edgeGraph) shortestPath(target int) []TraceHop {
	if len(g.children) == 0 || target < 0 || target >= len(g.children) {
		return nil
	}

	parent := make([]int, len(g.children))
	for i := range parent {
		parent[i] = -1
	}
	parent[0] = 0
	queue := []int{0}
	for len(queue) > 0 && parent[target] == -1 {
		node := queue[0]
		queue = queue[1:]
		for _, child := range g.children[node] {
			if parent[child] != -1 {
				continue
			}
			parent[child] = node
			queue = append(queue, child)
		}
	}
	if parent[target] == -1 {
		return nil
	}

	var ordinals []int
	for n := target; ; n = parent[n] {
		ordinals = append(ordinals, n)
		if n == 0 {
			break
		}
	}

	path := make([]TraceHop, 0, len(ordinals))
	for i := len(ordinals) - 1; i >= 0; i-- {
		obj := g.objects[ordinals[i]]
		id := obj.NodeID
		if id == 0 {
			id = int64(obj.ID)
		}
		path = append(path, TraceHop{
			Name:      obj.Name,
			Type:      obj.Type,
			ClassName: obj.Name,
			ID:        id,
		})
	}
	return path
}
