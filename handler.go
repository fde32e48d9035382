package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

// toolHandlers 持有所有 MCP 工具共享的分析器实例。
type toolHandlers struct {
	analyzer *analyzer.Analyzer
	sessions *pprofSessions
}

func newToolHandlers(a *analyzer.Analyzer, sessions *pprofSessions) *toolHandlers {
	h := &toolHandlers{analyzer: a, sessions: sessions}
	a.Subscribe(func(ev analyzer.Event) {
		if ev.Err != nil {
			log.Printf("Event %s: %v", ev.Kind, ev.Err)
		}
	})
	return h
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// handleCompareSnapshots 处理 "compare_snapshots" 工具调用。
func (h *toolHandlers) handleCompareSnapshots(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	// --- 1. 获取并验证参数 ---
	baselineURI, ok := args["baseline_uri"].(string)
	if !ok || baselineURI == "" {
		return nil, fmt.Errorf("missing or invalid required argument: baseline_uri (string)")
	}
	currentURI, ok := args["current_uri"].(string)
	if !ok || currentURI == "" {
		return nil, fmt.Errorf("missing or invalid required argument: current_uri (string)")
	}
	outputFormat, ok := args["output_format"].(string)
	if !ok || outputFormat == "" {
		outputFormat = "text" // 默认输出格式
	}
	topNFloat, ok := args["top_n"].(float64)
	if !ok {
		topNFloat = 10.0
	}
	topN := int(topNFloat)
	if topN <= 0 {
		topN = 10
	}

	log.Printf("Handling compare_snapshots: baseline=%s, current=%s, TopN=%d, Format=%s", baselineURI, currentURI, topN, outputFormat)

	// --- 2. 比较快照 ---
	analysis, err := h.analyzer.CompareSnapshots(baselineURI, currentURI)
	if err != nil {
		return nil, err
	}

	// --- 3. 格式化结果 ---
	report, err := analyzer.FormatAnalysis(analysis, outputFormat, topN)
	if err != nil {
		return nil, err
	}
	log.Printf("Comparison successful. Result length: %d", len(report))
	return textResult(report), nil
}

// handleExportAnalysis 处理 "export_analysis" 工具调用。
func (h *toolHandlers) handleExportAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	outputPath, ok := args["output_path"].(string)
	if !ok || outputPath == "" {
		return nil, fmt.Errorf("missing or invalid required argument: output_path (string)")
	}
	indexFloat, ok := args["history_index"].(float64)
	if !ok {
		indexFloat = -1
	}

	// 相对路径视为相对于服务器的工作目录
	if !filepath.IsAbs(outputPath) {
		if cwd, err := os.Getwd(); err == nil {
			outputPath = filepath.Join(cwd, outputPath)
		}
	}

	history := h.analyzer.History()
	if len(history) == 0 {
		return nil, fmt.Errorf("no analyses recorded yet; run compare_snapshots first")
	}
	index := int(indexFloat)
	if index < 0 {
		index += len(history)
	}
	if index < 0 || index >= len(history) {
		return nil, fmt.Errorf("history_index %d out of range (have %d analyses)", int(indexFloat), len(history))
	}

	log.Printf("Handling export_analysis: index=%d, path=%s", index, outputPath)
	if err := h.analyzer.ExportAnalysis(&history[index], outputPath); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Analysis #%d exported to: %s", index, outputPath)), nil
}

// handleListAnalyses 处理 "list_analyses" 工具调用。
func (h *toolHandlers) handleListAnalyses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	history := h.analyzer.History()
	if len(history) == 0 {
		return textResult("No analyses recorded yet."), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d analyses recorded:\n", len(history)))
	for i, a := range history {
		b.WriteString(fmt.Sprintf("#%d  %s → %s  growth %s (%.2f%%)  candidates %d (critical %d, high %d)\n",
			i, a.BaselineSource, a.CurrentSource,
			analyzer.FormatBytes(a.GrowthBytes), a.GrowthPercentage,
			a.Summary.CandidateCount, a.Summary.CriticalCount, a.Summary.HighCount))
	}
	return textResult(b.String()), nil
}

// handleClearCache 处理 "clear_snapshot_cache" 工具调用。
func (h *toolHandlers) handleClearCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.analyzer.ClearCache()
	return textResult("Snapshot cache cleared."), nil
}
