package logging

import (
	"os"
	"path/filepath"
)

// LogDirName is the directory under the user's home directory that holds
// rotated log files.
const LogDirName = ".semindex/logs"

// DefaultLogPath returns the default log file path: ~/.semindex/logs/semindex.log.
// Falls back to a relative path if the home directory cannot be determined.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".semindex", "logs", "semindex.log")
	}
	return filepath.Join(home, LogDirName, "semindex.log")
}

// EnsureLogDir creates the log directory if it does not already exist.
func EnsureLogDir() error {
	home, err := os.UserHomeDir()
	dir := filepath.Join(".semindex", "logs")
	if err == nil {
		dir = filepath.Join(home, LogDirName)
	}
	return os.MkdirAll(dir, 0o755)
}
