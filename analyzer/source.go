package analyzer

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds a whole snapshot download, body included.
const DefaultHTTPTimeout = 60 * time.Second

var defaultHTTPClient = &http.Client{Timeout: DefaultHTTPTimeout}

// NewSourceOpener returns an OpenFunc that downloads http(s) sources with
// client. A nil client uses one limited to DefaultHTTPTimeout.
func NewSourceOpener(client *http.Client) OpenFunc {
	if client == nil {
		client = defaultHTTPClient
	}
	return func(source string) (io.ReadCloser, error) {
		return openSource(client, source)
	}
}

// OpenSource opens a snapshot source for reading.
// - 不包含 "://" 的输入视为本地文件路径（相对或绝对）。
// - file:// URI 直接使用其路径。
// - http:// 或 https:// URI 直接读取响应体。
func OpenSource(source string) (io.ReadCloser, error) {
	return openSource(defaultHTTPClient, source)
}

func openSource(client *http.Client, source string) (io.ReadCloser, error) {
	if !strings.Contains(source, "://") {
		absPath, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for '%s': %w", source, err)
		}
		log.Printf("Opening local snapshot file: %s", absPath)
		return os.Open(absPath)
	}

	parsedURI, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot URI '%s': %w", source, err)
	}

	switch parsedURI.Scheme {
	case "file":
		if parsedURI.Path == "" {
			return nil, fmt.Errorf("invalid file path derived from URI '%s'", source)
		}
		log.Printf("Opening local snapshot file: %s", parsedURI.Path)
		return os.Open(parsedURI.Path)

	case "http", "https":
		log.Printf("Downloading snapshot from URL: %s", source)
		resp, err := client.Get(source)
		if err != nil {
			return nil, fmt.Errorf("failed to download snapshot from '%s': %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to download snapshot from '%s': received status code %d", source, resp.StatusCode)
		}
		return resp.Body, nil

	default:
		return nil, fmt.Errorf("unsupported URI scheme '%s', only 'file://', 'http://', 'https://', or a plain local path are supported", parsedURI.Scheme)
	}
}
