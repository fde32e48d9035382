package main

import (
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/internal/config"
)

func main() {
	// stdout 是 MCP 协议通道，日志只能写到 stderr
	log.SetOutput(os.Stderr)

	// 1. 加载配置 (HEAPDIFF_CONFIG 指定配置文件，HEAPDIFF_* 环境变量覆盖)
	cfg, err := config.Load(os.Getenv("HEAPDIFF_CONFIG"))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.File != "" {
		log.Printf("Using config file: %s", cfg.File)
	}

	sessions := newPprofSessions(nil)
	setupSignalHandler(sessions)
	h := newToolHandlers(analyzer.NewAnalyzer(cfg.AnalyzerOptions()...), sessions)

	// 2. 初始化 MCP 服务器
	mcpServer := server.NewMCPServer(
		"HeapSnapshotAnalyzer",
		analyzer.ToolVersion,
		server.WithLogging(),
		server.WithRecovery(),
	)

	// 3. 定义 compare_snapshots 工具及其参数
	compareTool := mcp.NewTool("compare_snapshots",
		mcp.WithDescription("Compare a baseline and a current heap snapshot (V8 .heapsnapshot JSON or Go pprof heap profile) and report growth, ranked leak candidates, retention traces and recommendations."),
		mcp.WithString("baseline_uri",
			mcp.Description("Baseline snapshot: local path, 'file://', 'http://' or 'https://' URI."),
			mcp.Required(),
		),
		mcp.WithString("current_uri",
			mcp.Description("Current snapshot: local path, 'file://', 'http://' or 'https://' URI."),
			mcp.Required(),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format of the report."),
			mcp.DefaultString("text"),
			mcp.Enum("text", "markdown", "json"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Maximum number of leak candidates to list."),
			mcp.DefaultNumber(10.0),
		),
	)

	// 4. 定义 export_analysis 工具
	exportTool := mcp.NewTool("export_analysis",
		mcp.WithDescription("Write a previous analysis, with timestamp and tool metadata, to a file (.json, .yaml/.yml or .toon)."),
		mcp.WithString("output_path",
			mcp.Description("Destination file path (absolute or relative to the server working directory)."),
			mcp.Required(),
		),
		mcp.WithNumber("history_index",
			mcp.Description("Index into the analysis history; negative values count from the end (-1 is the latest)."),
			mcp.DefaultNumber(-1.0),
		),
	)

	// 5. 定义 list_analyses 与 clear_snapshot_cache 工具
	listTool := mcp.NewTool("list_analyses",
		mcp.WithDescription("List the analyses recorded by this server, oldest first."),
	)
	clearTool := mcp.NewTool("clear_snapshot_cache",
		mcp.WithDescription("Drop every cached snapshot so the next comparison re-reads its sources."),
	)

	// 6. 定义 pprof web UI 工具 (仅适用于 Go heap profile)
	openDiffTool := mcp.NewTool("open_pprof_diff",
		mcp.WithDescription("Start 'go tool pprof -http' in the background showing the current Go heap profile diffed against the baseline. Requires 'go' in PATH; JSON heap snapshots are rejected."),
		mcp.WithString("baseline_uri",
			mcp.Description("Baseline pprof heap profile: local path, 'file://', 'http://' or 'https://' URI."),
			mcp.Required(),
		),
		mcp.WithString("current_uri",
			mcp.Description("Current pprof heap profile: local path, 'file://', 'http://' or 'https://' URI."),
			mcp.Required(),
		),
		mcp.WithString("http_address",
			mcp.Description("Listen address for the pprof web UI."),
			mcp.DefaultString(":8081"),
		),
	)
	closeDiffTool := mcp.NewTool("close_pprof_diff",
		mcp.WithDescription("Stop a pprof web UI process started by 'open_pprof_diff'."),
		mcp.WithNumber("pid",
			mcp.Description("PID returned by 'open_pprof_diff'."),
			mcp.Required(),
		),
	)

	// 7. 将所有工具及其处理器函数添加到服务器
	mcpServer.AddTool(compareTool, h.handleCompareSnapshots)
	mcpServer.AddTool(exportTool, h.handleExportAnalysis)
	mcpServer.AddTool(listTool, h.handleListAnalyses)
	mcpServer.AddTool(clearTool, h.handleClearCache)
	mcpServer.AddTool(openDiffTool, h.handleOpenPprofDiff)
	mcpServer.AddTool(closeDiffTool, h.handleClosePprofDiff)

	// 8. Start the server using stdio transport
	log.Println("Starting HeapSnapshotAnalyzer MCP server via stdio...")
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
