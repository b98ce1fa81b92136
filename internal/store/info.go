package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FormatBytes renders a byte count in human-readable form, for the
// index_status command's report of VectorSizeBytes/TextSizeBytes.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatTime renders a timestamp for display, reporting the zero value as
// "unknown" rather than the Go zero-time string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// getDirSize walks dir and sums the size of every regular file beneath it.
// A missing or unreadable directory reports zero rather than an error,
// since it only feeds best-effort size reporting.
func getDirSize(dir string) int64 {
	var total int64
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}
