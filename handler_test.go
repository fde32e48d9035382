package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

func newRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("Expected one content item, got %+v", res)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected TextContent, got %T", res.Content[0])
	}
	return text.Text
}

// writeSnapshotFile writes a minimal schema-layout snapshot with count
// objects of 10 bytes each.
func writeSnapshotFile(t *testing.T, dir, name string, count int) string {
	t.Helper()
	nodes := make([]int64, 0, count*3)
	for i := 0; i < count; i++ {
		nodes = append(nodes, 0, 0, 10)
	}
	doc := map[string]interface{}{
		"schema": map[string]interface{}{
			"nodeFieldNames": []string{"type", "name", "self_size"},
			"typeNameTables": []interface{}{[]string{"object"}, "string", "number"},
		},
		"nodes":   nodes,
		"strings": []string{"TaskRow"},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestHandlers() *toolHandlers {
	return newToolHandlers(analyzer.NewAnalyzer(), newPprofSessions(nil))
}

func TestHandleCompareSnapshots(t *testing.T) {
	dir := t.TempDir()
	base := writeSnapshotFile(t, dir, "base.json", 100)
	cur := writeSnapshotFile(t, dir, "cur.json", 1500)
	h := newTestHandlers()

	res, err := h.handleCompareSnapshots(context.Background(), newRequest("compare_snapshots", map[string]interface{}{
		"baseline_uri":  base,
		"current_uri":   cur,
		"output_format": "json",
		"top_n":         5.0,
	}))
	if err != nil {
		t.Fatalf("handleCompareSnapshots error = %v", err)
	}

	var a analyzer.Analysis
	if err := json.Unmarshal([]byte(resultText(t, res)), &a); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if a.GrowthBytes != 14000 || len(a.Candidates) != 1 {
		t.Errorf("unexpected analysis: growth %d, %d candidates", a.GrowthBytes, len(a.Candidates))
	}

	// default output is the text report
	res, err = h.handleCompareSnapshots(context.Background(), newRequest("compare_snapshots", map[string]interface{}{
		"baseline_uri": base,
		"current_uri":  cur,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resultText(t, res), "Heap Snapshot Comparison Report") {
		t.Errorf("Expected text report, got:\n%s", resultText(t, res))
	}
}

func TestHandleCompareSnapshotsErrors(t *testing.T) {
	dir := t.TempDir()
	base := writeSnapshotFile(t, dir, "base.json", 1)
	h := newTestHandlers()

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{"missing baseline", map[string]interface{}{"current_uri": base}, "baseline_uri"},
		{"missing current", map[string]interface{}{"baseline_uri": base}, "current_uri"},
		{"bad format", map[string]interface{}{"baseline_uri": base, "current_uri": base, "output_format": "xml"}, "unsupported output format"},
		{"missing file", map[string]interface{}{"baseline_uri": base, "current_uri": filepath.Join(dir, "nope.json")}, "nope.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.handleCompareSnapshots(context.Background(), newRequest("compare_snapshots", tt.args))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestHandleHistoryTools(t *testing.T) {
	dir := t.TempDir()
	base := writeSnapshotFile(t, dir, "base.json", 100)
	cur := writeSnapshotFile(t, dir, "cur.json", 1500)
	h := newTestHandlers()
	ctx := context.Background()

	res, err := h.handleListAnalyses(ctx, newRequest("list_analyses", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resultText(t, res) != "No analyses recorded yet." {
		t.Errorf("unexpected empty listing: %q", resultText(t, res))
	}
	if _, err := h.handleExportAnalysis(ctx, newRequest("export_analysis", map[string]interface{}{
		"output_path": filepath.Join(dir, "early.json"),
	})); err == nil || !strings.Contains(err.Error(), "no analyses recorded yet") {
		t.Errorf("Expected export to fail before any comparison, got %v", err)
	}

	for _, pair := range [][2]string{{base, cur}, {cur, cur}} {
		if _, err := h.handleCompareSnapshots(ctx, newRequest("compare_snapshots", map[string]interface{}{
			"baseline_uri": pair[0],
			"current_uri":  pair[1],
		})); err != nil {
			t.Fatal(err)
		}
	}

	res, err = h.handleListAnalyses(ctx, newRequest("list_analyses", nil))
	if err != nil {
		t.Fatal(err)
	}
	listing := resultText(t, res)
	if !strings.HasPrefix(listing, "2 analyses recorded:") || !strings.Contains(listing, "#1") {
		t.Errorf("unexpected listing:\n%s", listing)
	}

	out := filepath.Join(dir, "first.json")
	res, err = h.handleExportAnalysis(ctx, newRequest("export_analysis", map[string]interface{}{
		"output_path":   out,
		"history_index": 0.0,
	}))
	if err != nil {
		t.Fatalf("handleExportAnalysis error = %v", err)
	}
	if !strings.Contains(resultText(t, res), "Analysis #0 exported") {
		t.Errorf("unexpected export result: %s", resultText(t, res))
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc analyzer.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Analysis == nil || doc.Analysis.GrowthBytes != 14000 {
		t.Errorf("Expected the first analysis to be exported, got %+v", doc.Analysis)
	}

	if _, err := h.handleExportAnalysis(ctx, newRequest("export_analysis", map[string]interface{}{
		"output_path":   out,
		"history_index": 5.0,
	})); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("Expected out of range error, got %v", err)
	}

	res, err = h.handleClearCache(ctx, newRequest("clear_snapshot_cache", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resultText(t, res) != "Snapshot cache cleared." {
		t.Errorf("unexpected clear result: %q", resultText(t, res))
	}
}

func TestHandleOpenPprofDiffRejectsJSONSnapshots(t *testing.T) {
	dir := t.TempDir()
	base := writeSnapshotFile(t, dir, "base.json", 1)

	started := false
	h := newToolHandlers(analyzer.NewAnalyzer(), newPprofSessions(func(args []string) (*os.Process, error) {
		started = true
		return nil, nil
	}))

	_, err := h.handleOpenPprofDiff(context.Background(), newRequest("open_pprof_diff", map[string]interface{}{
		"baseline_uri": base,
		"current_uri":  base,
	}))
	if err == nil || !strings.Contains(err.Error(), "JSON heap snapshot") {
		t.Errorf("Expected JSON snapshots to be rejected, got %v", err)
	}
	if started {
		t.Error("pprof must not be started for JSON snapshots")
	}

	if _, err := h.handleOpenPprofDiff(context.Background(), newRequest("open_pprof_diff", map[string]interface{}{
		"baseline_uri": filepath.Join(dir, "missing.pb.gz"),
		"current_uri":  base,
	})); err == nil {
		t.Error("Expected an error for a missing baseline profile")
	}
}

func TestPprofDiffSessionLifecycle(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}

	dir := t.TempDir()
	base := filepath.Join(dir, "base.pb.gz")
	cur := filepath.Join(dir, "cur.pb.gz")
	for _, p := range []string{base, cur} {
		// gzip magic; contents are never parsed here
		if err := os.WriteFile(p, []byte{0x1f, 0x8b, 0x08, 0x00}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var gotArgs []string
	sessions := newPprofSessions(func(args []string) (*os.Process, error) {
		gotArgs = args
		cmd := exec.Command(sleep, "30")
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return cmd.Process, nil
	})
	h := newToolHandlers(analyzer.NewAnalyzer(), sessions)
	ctx := context.Background()

	res, err := h.handleOpenPprofDiff(ctx, newRequest("open_pprof_diff", map[string]interface{}{
		"baseline_uri": base,
		"current_uri":  cur,
		"http_address": "localhost:0",
	}))
	if err != nil {
		t.Fatalf("handleOpenPprofDiff error = %v", err)
	}
	want := []string{"tool", "pprof", "-http=localhost:0", "-diff_base=" + base, cur}
	if strings.Join(gotArgs, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v, want %v", gotArgs, want)
	}

	pids := sessions.pids()
	if len(pids) != 1 || !strings.Contains(resultText(t, res), "PID") {
		t.Fatalf("Expected one tracked session, got %v", pids)
	}

	if _, err := h.handleClosePprofDiff(ctx, newRequest("close_pprof_diff", map[string]interface{}{"pid": float64(pids[0])})); err != nil {
		t.Fatalf("handleClosePprofDiff error = %v", err)
	}
	if len(sessions.pids()) != 0 {
		t.Error("session still tracked after close")
	}
	if _, err := h.handleClosePprofDiff(ctx, newRequest("close_pprof_diff", map[string]interface{}{"pid": float64(pids[0])})); err == nil {
		t.Error("Expected an error closing an unknown PID")
	}
	if _, err := h.handleClosePprofDiff(ctx, newRequest("close_pprof_diff", map[string]interface{}{})); err == nil {
		t.Error("Expected an error without a pid")
	}
}
