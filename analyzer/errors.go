package analyzer

import "fmt"

// LoadError 表示快照源无法读取或解析。
// Source 总是包含出错的源标识符，便于调用方直接展示。
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load snapshot '%s': %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExportError 表示分析结果无法写入目标路径。
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("failed to export analysis to '%s': %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
