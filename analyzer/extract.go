package analyzer

const unknownType = "unknown"

// ExtractObjects decodes every complete node record of snap. A snapshot
// without schema or node data yields an empty slice.
func ExtractObjects(snap *Snapshot) []ExtractedObject {
	if snap == nil {
		return nil
	}
	stride := snap.NodeStride()
	if stride == 0 || len(snap.Nodes) == 0 {
		return []ExtractedObject{}
	}

	typeOffset := snap.nodeFieldOffset(fieldType)
	nameOffset := snap.nodeFieldOffset(fieldName)
	sizeOffset := snap.nodeFieldOffset(fieldSelfSize)
	idOffset := snap.nodeFieldOffset(fieldID)
	countOffset := snap.nodeFieldOffset(fieldCount)

	var typeTable []string
	if typeOffset >= 0 && typeOffset < len(snap.Schema.NodeTypes) {
		typeTable = snap.Schema.NodeTypes[typeOffset]
	}

	count := len(snap.Nodes) / stride
	objects := make([]ExtractedObject, 0, count)
	for i := 0; i < count; i++ {
		base := i * stride
		obj := ExtractedObject{Type: unknownType, ID: i}

		if typeOffset >= 0 {
			if idx := snap.Nodes[base+typeOffset]; idx >= 0 && idx < int64(len(typeTable)) {
				obj.Type = typeTable[idx]
			}
		}
		if nameOffset >= 0 {
			if idx := snap.Nodes[base+nameOffset]; idx >= 0 && idx < int64(len(snap.Strings)) {
				obj.Name = snap.Strings[idx]
			}
		}
		if sizeOffset >= 0 {
			obj.Size = snap.Nodes[base+sizeOffset]
		}
		if idOffset >= 0 {
			obj.NodeID = snap.Nodes[base+idOffset]
		}
		if countOffset >= 0 {
			obj.Count = snap.Nodes[base+countOffset]
		}
		objects = append(objects, obj)
	}
	return objects
}

// ObjectCount sums the weight of objs: one per node unless the snapshot
// carries a count field.
func ObjectCount(objs []ExtractedObject) int64 {
	var n int64
	for _, o := range objs {
		n += o.Weight()
	}
	return n
}

// TotalSize sums the self size of objs. A weighted record's size already
// covers all the objects it stands for.
func TotalSize(objs []ExtractedObject) int64 {
	var total int64
	for _, o := range objs {
		total += o.Size
	}
	return total
}

// Growth is the current-minus-baseline size difference.
type Growth struct {
	BaselineBytes int64   `json:"baselineBytes"`
	CurrentBytes  int64   `json:"currentBytes"`
	Bytes         int64   `json:"growthBytes"`
	Percentage    float64 `json:"growthPercentage"`
}

// ComputeGrowth compares total self sizes. The percentage is 0 when the
// baseline is empty.
func ComputeGrowth(baseline, current []ExtractedObject) Growth {
	g := Growth{
		BaselineBytes: TotalSize(baseline),
		CurrentBytes:  TotalSize(current),
	}
	g.Bytes = g.CurrentBytes - g.BaselineBytes
	if g.BaselineBytes != 0 {
		g.Percentage = float64(g.Bytes) / float64(g.BaselineBytes) * 100
	}
	return g
}
