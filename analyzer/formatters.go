package analyzer

import "fmt"

// FormatBytes 将字节数转换为人类可读的字符串 (KB, MB, GB)。
// 负数 (例如内存减少) 保留符号。
func FormatBytes(b int64) string {
	if b < 0 {
		return "-" + FormatBytes(-b)
	}
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGTPE"[exp]) // Kilo, Mega, Giga, Tera, Peta, Exa
}
