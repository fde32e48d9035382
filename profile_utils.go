package main

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

// sourceAsFile 返回可交给外部工具的本地文件路径。
// - 本地路径与 file:// URI 直接使用。
// - http:// 或 https:// URI 先下载到临时文件，cleanup 负责删除。
func sourceAsFile(source string) (filePath string, cleanup func(), err error) {
	cleanup = func() {}

	if !strings.Contains(source, "://") {
		absPath, err := filepath.Abs(source)
		if err != nil {
			return "", nil, fmt.Errorf("failed to get absolute path for '%s': %w", source, err)
		}
		if _, err := os.Stat(absPath); err != nil {
			return "", nil, fmt.Errorf("local snapshot '%s' (resolved to '%s'): %w", source, absPath, err)
		}
		return absPath, cleanup, nil
	}

	parsedURI, err := url.Parse(source)
	if err != nil {
		return "", nil, fmt.Errorf("invalid snapshot URI '%s': %w", source, err)
	}
	if parsedURI.Scheme == "file" {
		if parsedURI.Path == "" {
			return "", nil, fmt.Errorf("invalid file path derived from URI '%s'", source)
		}
		return parsedURI.Path, cleanup, nil
	}

	rc, err := analyzer.OpenSource(source)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	tempFile, err := os.CreateTemp("", "heapsnap-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary file for download: %w", err)
	}
	filePath = tempFile.Name()
	cleanup = func() {
		log.Printf("Cleaning up temporary file: %s", filePath)
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: failed to remove temporary file '%s': %v", filePath, err)
		}
	}

	_, err = io.Copy(tempFile, rc)
	closeErr := tempFile.Close()
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to write downloaded content to temporary file '%s': %w", filePath, err)
	}
	if closeErr != nil {
		log.Printf("Warning: failed to close temporary file handle for '%s': %v", filePath, closeErr)
	}

	log.Printf("Downloaded '%s' to %s", source, filePath)
	return filePath, cleanup, nil
}

// isJSONSnapshot reports whether the file at path holds a JSON heap graph
// rather than a pprof profile.
func isJSONSnapshot(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false, err
	}
	trimmed := strings.TrimLeft(string(buf[:n]), " \t\r\n")
	return strings.HasPrefix(trimmed, "{"), nil
}
