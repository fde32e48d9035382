package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	ToolName      = "heapsnap-analyzer"
	ToolVersion   = "0.1.0"
	ExportFormat  = "heapsnapshot-comparison"
	timestampForm = time.RFC3339
)

// NewExportDocument wraps a with a fresh id, the given timestamp and the
// tool metadata.
func NewExportDocument(a *Analysis, at time.Time) ExportDocument {
	return ExportDocument{
		ID:        uuid.NewString(),
		Timestamp: at.UTC().Format(timestampForm),
		Analysis:  a,
		Metadata: ExportMetadata{
			Version: ToolVersion,
			Tool:    ToolName,
			Format:  ExportFormat,
		},
	}
}

// EncodeExport serializes doc according to the extension of path:
// .yaml/.yml as YAML, .toon as TOON, anything else as indented JSON.
func EncodeExport(doc ExportDocument, path string) ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		generic, err := toGeneric(jsonBytes)
		if err != nil {
			return nil, err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return out, nil
	case ".toon":
		generic, err := toGeneric(jsonBytes)
		if err != nil {
			return nil, err
		}
		out, err := gotoon.Encode(generic)
		if err != nil {
			return nil, fmt.Errorf("failed to encode Toon: %w", err)
		}
		return []byte(out), nil
	default:
		return append(jsonBytes, '\n'), nil
	}
}

// toGeneric re-decodes JSON so the YAML and TOON encoders see the same keys
// as the JSON export.
func toGeneric(jsonBytes []byte) (map[string]interface{}, error) {
	var generic map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &generic); err != nil {
		return nil, fmt.Errorf("failed to re-decode analysis: %w", err)
	}
	return generic, nil
}

// WriteExport writes a to path. Any failure is returned as *ExportError.
func WriteExport(a *Analysis, path string, at time.Time) error {
	if a == nil {
		return &ExportError{Path: path, Err: fmt.Errorf("analysis is nil")}
	}
	data, err := EncodeExport(NewExportDocument(a, at), path)
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}
