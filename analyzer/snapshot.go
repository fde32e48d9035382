package analyzer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Field names looked up in a snapshot schema.
const (
	fieldType      = "type"
	fieldName      = "name"
	fieldID        = "id"
	fieldSelfSize  = "self_size"
	fieldEdgeCount = "edge_count"
	fieldToNode    = "to_node"
	fieldCount     = "count"
)

// SnapshotSchema describes the layout of the flat node (and edge) arrays.
// NodeTypes[i] is the lookup table for NodeFields[i]; fields that are plain
// numbers or string indices have a nil table.
type SnapshotSchema struct {
	NodeFields []string   `json:"nodeFieldNames"`
	NodeTypes  [][]string `json:"typeNameTables"`
	EdgeFields []string   `json:"edgeFieldNames,omitempty"`
	EdgeTypes  [][]string `json:"edgeTypeNameTables,omitempty"`
}

// Snapshot is one captured heap graph. It is never modified after load.
type Snapshot struct {
	Source  string         `json:"source"`
	Schema  SnapshotSchema `json:"schema"`
	Nodes   []int64        `json:"nodes"`
	Edges   []int64        `json:"edges,omitempty"`
	Strings []string       `json:"strings"`
}

// NodeStride is the number of slots one node occupies in Nodes.
func (s *Snapshot) NodeStride() int {
	return len(s.Schema.NodeFields)
}

// NodeCount returns the number of complete node records.
func (s *Snapshot) NodeCount() int {
	stride := s.NodeStride()
	if stride == 0 {
		return 0
	}
	return len(s.Nodes) / stride
}

// Malformed describes what is wrong with the node data, or returns "" when
// every node record is usable. A snapshot without schema or nodes extracts
// to an empty object set; a trailing partial record is skipped.
func (s *Snapshot) Malformed() string {
	switch {
	case s == nil:
		return "snapshot is nil"
	case len(s.Schema.NodeFields) == 0:
		return "snapshot has no node schema"
	case len(s.Nodes) == 0:
		return "snapshot has no node data"
	case len(s.Nodes)%len(s.Schema.NodeFields) != 0:
		return fmt.Sprintf("node array length %d is not a multiple of stride %d", len(s.Nodes), len(s.Schema.NodeFields))
	}
	return ""
}

func (s *Snapshot) nodeFieldOffset(name string) int {
	return indexOf(s.Schema.NodeFields, name)
}

func (s *Snapshot) edgeFieldOffset(name string) int {
	return indexOf(s.Schema.EdgeFields, name)
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}

// --- JSON 解码边界 ---

// rawSnapshot 同时接受 V8 .heapsnapshot 结构 (snapshot.meta) 与简化结构 (schema)。
type rawSnapshot struct {
	Snapshot *struct {
		Meta rawMeta `json:"meta"`
	} `json:"snapshot"`
	Schema  *rawSchema `json:"schema"`
	Nodes   []int64    `json:"nodes"`
	Edges   []int64    `json:"edges"`
	Strings []string   `json:"strings"`
}

type rawMeta struct {
	NodeFields []string          `json:"node_fields"`
	NodeTypes  []json.RawMessage `json:"node_types"`
	EdgeFields []string          `json:"edge_fields"`
	EdgeTypes  []json.RawMessage `json:"edge_types"`
}

type rawSchema struct {
	NodeFieldNames     []string          `json:"nodeFieldNames"`
	TypeNameTables     []json.RawMessage `json:"typeNameTables"`
	EdgeFieldNames     []string          `json:"edgeFieldNames"`
	EdgeTypeNameTables []json.RawMessage `json:"edgeTypeNameTables"`
}

// ParseSnapshot decodes a serialized snapshot read from r. JSON heap graphs
// are recognised by a leading '{'; anything else is handed to the pprof
// heap profile converter.
func ParseSnapshot(source string, r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("snapshot source '%s' is empty", source)
		}
		return nil, fmt.Errorf("failed to read snapshot source '%s': %w", source, err)
	}
	if first != '{' {
		return parsePprofSnapshot(source, br)
	}
	return parseJSONSnapshot(source, br)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return b, br.UnreadByte()
	}
}

func parseJSONSnapshot(source string, r io.Reader) (*Snapshot, error) {
	var raw rawSnapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid heap snapshot JSON in '%s': %w", source, err)
	}

	snap := &Snapshot{
		Source:  source,
		Nodes:   raw.Nodes,
		Edges:   raw.Edges,
		Strings: raw.Strings,
	}

	var err error
	switch {
	case raw.Snapshot != nil && len(raw.Snapshot.Meta.NodeFields) > 0:
		meta := raw.Snapshot.Meta
		snap.Schema.NodeFields = meta.NodeFields
		snap.Schema.EdgeFields = meta.EdgeFields
		if snap.Schema.NodeTypes, err = decodeTypeTables(meta.NodeTypes); err != nil {
			return nil, fmt.Errorf("invalid node_types in '%s': %w", source, err)
		}
		if snap.Schema.EdgeTypes, err = decodeTypeTables(meta.EdgeTypes); err != nil {
			return nil, fmt.Errorf("invalid edge_types in '%s': %w", source, err)
		}
	case raw.Schema != nil:
		snap.Schema.NodeFields = raw.Schema.NodeFieldNames
		snap.Schema.EdgeFields = raw.Schema.EdgeFieldNames
		if snap.Schema.NodeTypes, err = decodeTypeTables(raw.Schema.TypeNameTables); err != nil {
			return nil, fmt.Errorf("invalid typeNameTables in '%s': %w", source, err)
		}
		if snap.Schema.EdgeTypes, err = decodeTypeTables(raw.Schema.EdgeTypeNameTables); err != nil {
			return nil, fmt.Errorf("invalid edgeTypeNameTables in '%s': %w", source, err)
		}
	}

	return snap, nil
}

// decodeTypeTables accepts entries that are either a string array (an enum
// table) or a bare string such as "number" (no table).
func decodeTypeTables(raw []json.RawMessage) ([][]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	tables := make([][]string, len(raw))
	for i, entry := range raw {
		trimmed := bytes.TrimSpace(entry)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			var scalar string
			if err := json.Unmarshal(trimmed, &scalar); err != nil {
				return nil, fmt.Errorf("entry %d is neither a string nor a string array", i)
			}
			continue
		}
		if err := json.Unmarshal(trimmed, &tables[i]); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return tables, nil
}
