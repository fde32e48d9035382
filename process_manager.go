package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
)

// startFunc launches `go <args...>` in the background.
type startFunc func(args []string) (*os.Process, error)

func startGoTool(args []string) (*os.Process, error) {
	if _, err := exec.LookPath("go"); err != nil {
		return nil, fmt.Errorf("'go' command not found in PATH, cannot start pprof")
	}
	cmd := exec.Command("go", args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start 'go tool pprof': %w", err)
	}
	return cmd.Process, nil
}

type pprofSession struct {
	process *os.Process
	cleanup func()
}

// pprofSessions 跟踪由本服务器启动的 pprof web UI 进程。
type pprofSessions struct {
	start startFunc

	mu    sync.Mutex
	procs map[int]pprofSession
}

func newPprofSessions(start startFunc) *pprofSessions {
	if start == nil {
		start = startGoTool
	}
	return &pprofSessions{start: start, procs: make(map[int]pprofSession)}
}

func (s *pprofSessions) add(p *os.Process, cleanup func()) {
	s.mu.Lock()
	s.procs[p.Pid] = pprofSession{process: p, cleanup: cleanup}
	s.mu.Unlock()
}

func (s *pprofSessions) remove(pid int) (pprofSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.procs[pid]
	if ok {
		delete(s.procs, pid)
	}
	return sess, ok
}

func (s *pprofSessions) pids() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pids := make([]int, 0, len(s.procs))
	for pid := range s.procs {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

func terminate(pid int, sess pprofSession) error {
	defer sess.cleanup()
	if err := sess.process.Signal(os.Interrupt); err != nil {
		log.Printf("Failed to send Interrupt signal to PID %d: %v. Trying Kill signal.", pid, err)
		if err := sess.process.Kill(); err != nil {
			return fmt.Errorf("failed to terminate PID %d: %w", pid, err)
		}
	}
	if _, err := sess.process.Wait(); err != nil && !strings.Contains(err.Error(), "no child processes") {
		log.Printf("Warning: error waiting for PID %d after signaling: %v", pid, err)
	}
	return nil
}

// terminateAll stops every tracked process.
func (s *pprofSessions) terminateAll() {
	pids := s.pids()
	if len(pids) == 0 {
		log.Println("No running pprof processes to terminate.")
		return
	}
	log.Printf("Terminating %d pprof processes: %v", len(pids), pids)

	var wg sync.WaitGroup
	for _, pid := range pids {
		sess, ok := s.remove(pid)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(pid int, sess pprofSession) {
			defer wg.Done()
			if err := terminate(pid, sess); err != nil {
				log.Printf("Warning: %v", err)
			}
		}(pid, sess)
	}
	wg.Wait()
	log.Println("Cleanup finished.")
}

// setupSignalHandler 在服务器收到 SIGINT/SIGTERM 时清理 pprof 进程。
func setupSignalHandler(s *pprofSessions) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		log.Printf("Received signal: %s. Cleaning up running pprof processes...", sig)
		s.terminateAll()
		os.Exit(0)
	}()
}

// handleOpenPprofDiff 处理 "open_pprof_diff" 工具调用：
// 对两个 Go heap profile 启动 `go tool pprof -http -diff_base`。
func (h *toolHandlers) handleOpenPprofDiff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	baselineURI, ok := args["baseline_uri"].(string)
	if !ok || baselineURI == "" {
		return nil, fmt.Errorf("missing or invalid required argument: baseline_uri (string)")
	}
	currentURI, ok := args["current_uri"].(string)
	if !ok || currentURI == "" {
		return nil, fmt.Errorf("missing or invalid required argument: current_uri (string)")
	}
	httpAddress, ok := args["http_address"].(string)
	if !ok || httpAddress == "" {
		httpAddress = ":8081"
	}

	log.Printf("Handling open_pprof_diff: baseline=%s, current=%s, address=%s", baselineURI, currentURI, httpAddress)

	baselinePath, cleanupBaseline, err := sourceAsFile(baselineURI)
	if err != nil {
		return nil, fmt.Errorf("failed to get baseline file: %w", err)
	}
	currentPath, cleanupCurrent, err := sourceAsFile(currentURI)
	if err != nil {
		cleanupBaseline()
		return nil, fmt.Errorf("failed to get current file: %w", err)
	}
	cleanup := func() {
		cleanupBaseline()
		cleanupCurrent()
	}

	for _, p := range []string{baselinePath, currentPath} {
		isJSON, err := isJSONSnapshot(p)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to inspect '%s': %w", p, err)
		}
		if isJSON {
			cleanup()
			return nil, fmt.Errorf("'%s' is a JSON heap snapshot; only Go pprof heap profiles can be opened in the pprof web UI", p)
		}
	}

	cmdArgs := []string{"tool", "pprof", "-http=" + httpAddress, "-diff_base=" + baselinePath, currentPath}
	log.Printf("Starting in background: go %s", strings.Join(cmdArgs, " "))

	process, err := h.sessions.start(cmdArgs)
	if err != nil {
		cleanup()
		return nil, err
	}
	h.sessions.add(process, cleanup)
	log.Printf("Started 'go tool pprof' with PID %d", process.Pid)

	text := fmt.Sprintf("Started 'go tool pprof' (PID %d) diffing '%s' against baseline '%s', listening on %s.\n"+
		"Use 'close_pprof_diff' with this PID to stop it.", process.Pid, currentPath, baselinePath, httpAddress)
	return textResult(text), nil
}

// handleClosePprofDiff 处理 "close_pprof_diff" 工具调用。
func (h *toolHandlers) handleClosePprofDiff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pidFloat, ok := request.Params.Arguments["pid"].(float64)
	if !ok {
		return nil, fmt.Errorf("missing or invalid required argument: pid (number)")
	}
	pid := int(pidFloat)
	if pid <= 0 {
		return nil, fmt.Errorf("invalid PID: %d", pid)
	}

	sess, ok := h.sessions.remove(pid)
	if !ok {
		return nil, fmt.Errorf("no running pprof session with PID %d", pid)
	}
	if err := terminate(pid, sess); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Sent termination signal to PID %d.", pid)), nil
}
