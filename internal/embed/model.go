// Package embed provides local and remote embedding providers for semindex.
package embed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DefaultLocalModelURL is the HuggingFace location of the bundled
	// sentence embedding model's ONNX export.
	DefaultLocalModelURL = "https://huggingface.co/BAAI/bge-small-en-v1.5/resolve/main/onnx/model.onnx"

	// DefaultLocalTokenizerURL is the matching tokenizer definition.
	DefaultLocalTokenizerURL = "https://huggingface.co/BAAI/bge-small-en-v1.5/resolve/main/tokenizer.json"

	// ModelDownloadTimeout is the maximum time to wait for either file.
	ModelDownloadTimeout = 30 * time.Minute
)

// ModelManager downloads and caches the local embedding model's ONNX
// weights and tokenizer definition.
type ModelManager struct {
	modelsDir string
	lock      *FileLock
	mu        sync.Mutex
}

// NewModelManager creates a model manager rooted at modelsDir, typically
// ~/.semindex/models/.
func NewModelManager(modelsDir string) *ModelManager {
	return &ModelManager{modelsDir: modelsDir}
}

// ModelDir returns the directory containing model.onnx and tokenizer.json.
func (m *ModelManager) ModelDir() string {
	return m.modelsDir
}

// EnsureModel ensures both model files are present, downloading if
// necessary, and returns the directory containing them.
func (m *ModelManager) EnsureModel(ctx context.Context, progressFn func(downloaded, total int64)) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.filesPresent() {
		return m.modelsDir, nil
	}

	if err := os.MkdirAll(m.modelsDir, 0o755); err != nil {
		return "", fmt.Errorf("create models directory: %w", err)
	}

	m.lock = NewFileLock(m.modelsDir)
	if err := m.lock.Lock(); err != nil {
		return "", fmt.Errorf("acquire download lock: %w", err)
	}
	defer func() { _ = m.lock.Unlock() }()

	if m.filesPresent() {
		return m.modelsDir, nil
	}

	onnxPath := filepath.Join(m.modelsDir, "model.onnx")
	tokenizerPath := filepath.Join(m.modelsDir, "tokenizer.json")

	if err := downloadFile(ctx, DefaultLocalModelURL, onnxPath, progressFn); err != nil {
		return "", fmt.Errorf("download onnx model: %w", err)
	}
	if err := downloadFile(ctx, DefaultLocalTokenizerURL, tokenizerPath, nil); err != nil {
		return "", fmt.Errorf("download tokenizer: %w", err)
	}

	return m.modelsDir, nil
}

func (m *ModelManager) filesPresent() bool {
	for _, name := range []string{"model.onnx", "tokenizer.json"} {
		info, err := os.Stat(filepath.Join(m.modelsDir, name))
		if err != nil || info.Size() == 0 {
			return false
		}
	}
	return true
}

// downloadFile streams url to destPath via a temp-file-then-rename, so a
// crash mid-download never leaves a corrupt file at destPath.
func downloadFile(ctx context.Context, url, destPath string, progressFn func(downloaded, total int64)) error {
	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "semindex/1.0")

	client := &http.Client{Timeout: ModelDownloadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer file.Close()

	totalSize := resp.ContentLength
	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("write: %w", writeErr)
			}
			downloaded += int64(n)
			if progressFn != nil {
				progressFn(downloaded, totalSize)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read: %w", readErr)
		}
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return os.Rename(tmpPath, destPath)
}

// ModelExists checks if both required model files exist.
func (m *ModelManager) ModelExists() bool {
	return m.filesPresent()
}

// DeleteModel removes the cached model files.
func (m *ModelManager) DeleteModel() error {
	if err := os.Remove(filepath.Join(m.modelsDir, "model.onnx")); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(filepath.Join(m.modelsDir, "tokenizer.json")); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DefaultModelsDir returns the default models directory path.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".semindex", "models")
}
