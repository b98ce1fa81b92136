package rerank

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
	// DefaultCrossEncoderModelURL is the HuggingFace location of the
	// bundled cross-encoder model's ONNX export.
	DefaultCrossEncoderModelURL = "https://huggingface.co/cross-encoder/ms-marco-MiniLM-L6-v2/resolve/main/onnx/model.onnx"

	// DefaultCrossEncoderTokenizerURL is the matching tokenizer definition.
	DefaultCrossEncoderTokenizerURL = "https://huggingface.co/cross-encoder/ms-marco-MiniLM-L6-v2/resolve/main/tokenizer.json"

	// ModelDownloadTimeout is the maximum time to wait for either file.
	ModelDownloadTimeout = 30 * time.Minute
)

// ModelManager downloads and caches the cross-encoder's ONNX weights and
// tokenizer definition, mirroring internal/embed's ModelManager.
type ModelManager struct {
	modelsDir string
	mu        sync.Mutex
}

// NewModelManager creates a model manager rooted at modelsDir, typically
// ~/.semindex/reranker/.
func NewModelManager(modelsDir string) *ModelManager {
	return &ModelManager{modelsDir: modelsDir}
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

	onnxPath := filepath.Join(m.modelsDir, "model.onnx")
	tokenizerPath := filepath.Join(m.modelsDir, "tokenizer.json")

	if err := downloadFile(ctx, DefaultCrossEncoderModelURL, onnxPath, progressFn); err != nil {
		return "", fmt.Errorf("download onnx model: %w", err)
	}
	if err := downloadFile(ctx, DefaultCrossEncoderTokenizerURL, tokenizerPath, nil); err != nil {
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

// ModelExists checks if both required model files exist.
func (m *ModelManager) ModelExists() bool { return m.filesPresent() }

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

// DefaultModelsDir returns the default reranker models directory path.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".semindex", "reranker")
}
