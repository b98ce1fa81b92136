package container

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/aman-cerp/semindex/internal/model"
)

const (
	// registryFileName is the metadata file listing every container under
	// a manager's storage path.
	registryFileName = "registry.json"

	// maxContainerNameLength is the maximum allowed container name length.
	maxContainerNameLength = 64
)

// validContainerNamePattern matches alphanumeric, hyphen, and underscore.
var validContainerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateContainerName validates a container name. Valid names contain
// only letters, numbers, hyphens, and underscores.
func ValidateContainerName(name string) error {
	if name == "" {
		return fmt.Errorf("container name cannot be empty")
	}
	if len(name) > maxContainerNameLength {
		return fmt.Errorf("container name too long (max %d chars)", maxContainerNameLength)
	}
	if !validContainerNamePattern.MatchString(name) {
		return fmt.Errorf("container name can only contain letters, numbers, hyphens, and underscores")
	}
	return nil
}

// registry is the on-disk list of every container a manager knows about.
type registry struct {
	Containers []model.Container `json:"containers"`
}

// loadRegistry reads the registry file, returning an empty registry if it
// doesn't exist yet.
func loadRegistry(storagePath string) (*registry, error) {
	path := filepath.Join(storagePath, registryFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &registry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry.json: %w", err)
	}

	var reg registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry.json: %w", err)
	}
	return &reg, nil
}

// saveRegistry persists the registry atomically (temp file + rename).
func saveRegistry(storagePath string, reg *registry) error {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return fmt.Errorf("failed to create container storage: %w", err)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	path := filepath.Join(storagePath, registryFileName)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save registry file: %w", err)
	}
	return nil
}

// containerDir returns the directory holding a named container's on-disk
// stores: fragment/annotation metadata, the vector index, and the BM25
// index.
func containerDir(storagePath, name string) string {
	return filepath.Join(storagePath, name)
}

// CalculateDirSize walks dir summing the size of every regular file
// beneath it. A missing directory reports zero rather than an error, for
// best-effort size reporting in list_containers/index_status.
func CalculateDirSize(dir string) (int64, error) {
	var size int64

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			size += info.Size()
		}
		return nil
	})

	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return size, nil
}
