package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aman-cerp/semindex/internal/embed"
	ierrors "github.com/aman-cerp/semindex/internal/errors"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/rerank"
	"github.com/aman-cerp/semindex/internal/store"
)

// DefaultMaxContainers is the default maximum number of containers a
// manager allows.
const DefaultMaxContainers = 20

// ManagerConfig configures the container manager.
type ManagerConfig struct {
	// StoragePath is the directory where the registry and every
	// container's on-disk stores live. Required: NewManager returns an
	// error when it is empty.
	StoragePath string

	// MaxContainers is the maximum number of containers allowed.
	// Defaults to DefaultMaxContainers (20).
	MaxContainers int

	// DefaultName names the always-present, undeletable container.
	// Defaults to model.DefaultContainerName ("Default").
	DefaultName string

	// DefaultProvider binds the Default container's provider identity the
	// first time the manager runs against a fresh storage path.
	DefaultProvider model.ProviderIdentity

	EmbedConfig   embed.Config
	RerankConfig  rerank.Config
	BM25Config    store.BM25Config
	BM25Backend   string
}

// Manager handles container lifecycle: create, delete, set_active, list,
// and lazy-opened access to each container's stores.
type Manager struct {
	storagePath   string
	maxContainers int
	defaultName   string

	embedCfg  embed.Config
	rerankCfg rerank.Config
	bm25Cfg   store.BM25Config
	bm25Back  string

	mu   sync.Mutex
	open map[string]*Container
}

// NewManager creates a container manager, creating the storage directory
// and registering the Default container if neither already exists.
func NewManager(ctx context.Context, cfg ManagerConfig) (*Manager, error) {
	if cfg.StoragePath == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(cfg.StoragePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create container storage: %w", err)
	}

	maxContainers := cfg.MaxContainers
	if maxContainers <= 0 {
		maxContainers = DefaultMaxContainers
	}
	defaultName := cfg.DefaultName
	if defaultName == "" {
		defaultName = model.DefaultContainerName
	}
	bm25Backend := cfg.BM25Backend
	if bm25Backend == "" {
		bm25Backend = string(store.BM25BackendSQLite)
	}

	m := &Manager{
		storagePath:   cfg.StoragePath,
		maxContainers: maxContainers,
		defaultName:   defaultName,
		embedCfg:      cfg.EmbedConfig,
		rerankCfg:     cfg.RerankConfig,
		bm25Cfg:       cfg.BM25Config,
		bm25Back:      bm25Backend,
		open:          make(map[string]*Container),
	}

	reg, err := loadRegistry(m.storagePath)
	if err != nil {
		return nil, err
	}
	if !hasContainer(reg, defaultName) {
		provider := cfg.DefaultProvider
		if provider.Dimension == 0 {
			provider = model.ProviderIdentity{
				Kind:      model.ProviderKindLocal,
				Model:     embed.DefaultLocalModelName,
				Dimension: embed.DefaultLocalDimensions,
			}
		}
		reg.Containers = append(reg.Containers, model.Container{
			Name:      defaultName,
			Roots:     []string{},
			Provider:  provider,
			CreatedAt: time.Now(),
			Active:    true,
		})
		if err := saveRegistry(m.storagePath, reg); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func hasContainer(reg *registry, name string) bool {
	for _, c := range reg.Containers {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Create registers a new container bound to provider and opens its
// stores. Roots may be extended later via the indexer, not here. The
// container is always recorded as inactive.
func (m *Manager) Create(ctx context.Context, name, description string, provider model.ProviderIdentity, roots []string) (*Container, error) {
	if err := ValidateContainerName(name); err != nil {
		return nil, ierrors.New(ierrors.ErrCodeBadInput, fmt.Sprintf("invalid container name: %s", err), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	reg, err := loadRegistry(m.storagePath)
	if err != nil {
		return nil, err
	}
	if hasContainer(reg, name) {
		return nil, ierrors.New(ierrors.ErrCodeBadInput, fmt.Sprintf("container %q already exists", name), nil)
	}
	if len(reg.Containers) >= m.maxContainers {
		return nil, ierrors.New(ierrors.ErrCodeBadInput,
			fmt.Sprintf("maximum %d containers reached; delete old containers first", m.maxContainers), nil)
	}

	record := model.Container{
		Name:        name,
		Description: description,
		Roots:       append([]string{}, roots...),
		Provider:    provider,
		CreatedAt:   time.Now(),
		Active:      false,
	}
	reg.Containers = append(reg.Containers, record)
	if err := saveRegistry(m.storagePath, reg); err != nil {
		return nil, err
	}

	c, err := m.openContainer(ctx, record)
	if err != nil {
		return nil, err
	}
	m.open[name] = c
	return c, nil
}

// Delete removes a container and all of its on-disk data. The Default
// container can never be deleted.
func (m *Manager) Delete(name string) error {
	if name == m.defaultName {
		return ierrors.New(ierrors.ErrCodeBadInput, fmt.Sprintf("container %q cannot be deleted", m.defaultName), nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	reg, err := loadRegistry(m.storagePath)
	if err != nil {
		return err
	}
	idx := -1
	for i, c := range reg.Containers {
		if c.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ierrors.New(ierrors.ErrCodeNotFoundContainer, fmt.Sprintf("container %q not found", name), nil)
	}

	if c, ok := m.open[name]; ok {
		_ = c.Close()
		delete(m.open, name)
	}

	reg.Containers = append(reg.Containers[:idx], reg.Containers[idx+1:]...)
	if err := saveRegistry(m.storagePath, reg); err != nil {
		return err
	}

	return os.RemoveAll(containerDir(m.storagePath, name))
}

// SetActive marks name as the sole active container, deactivating every
// other container in the registry.
func (m *Manager) SetActive(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, err := loadRegistry(m.storagePath)
	if err != nil {
		return err
	}

	found := false
	for i := range reg.Containers {
		if reg.Containers[i].Name == name {
			reg.Containers[i].Active = true
			found = true
		} else {
			reg.Containers[i].Active = false
		}
	}
	if !found {
		return ierrors.New(ierrors.ErrCodeNotFoundContainer, fmt.Sprintf("container %q not found", name), nil)
	}
	if err := saveRegistry(m.storagePath, reg); err != nil {
		return err
	}

	for n, c := range m.open {
		c.setActive(n == name)
	}
	return nil
}

// List returns every registered container's metadata.
func (m *Manager) List() ([]model.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, err := loadRegistry(m.storagePath)
	if err != nil {
		return nil, err
	}
	return reg.Containers, nil
}

// Exists reports whether a container by this name is registered.
func (m *Manager) Exists(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, err := loadRegistry(m.storagePath)
	if err != nil {
		return false
	}
	return hasContainer(reg, name)
}

// Active returns the currently active container's metadata, or an error
// if none is marked active (should not happen once the registry has been
// initialized by NewManager).
func (m *Manager) Active() (model.Container, error) {
	containers, err := m.List()
	if err != nil {
		return model.Container{}, err
	}
	for _, c := range containers {
		if c.Active {
			return c, nil
		}
	}
	return model.Container{}, ierrors.New(ierrors.ErrCodeNotFoundContainer, "no active container", nil)
}

// Get returns the named container, opening (and caching) its stores on
// first access.
func (m *Manager) Get(ctx context.Context, name string) (*Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.open[name]; ok {
		return c, nil
	}

	reg, err := loadRegistry(m.storagePath)
	if err != nil {
		return nil, err
	}
	var record *model.Container
	for i := range reg.Containers {
		if reg.Containers[i].Name == name {
			record = &reg.Containers[i]
			break
		}
	}
	if record == nil {
		return nil, ierrors.New(ierrors.ErrCodeNotFoundContainer, fmt.Sprintf("container %q not found", name), nil)
	}

	c, err := m.openContainer(ctx, *record)
	if err != nil {
		return nil, err
	}
	m.open[name] = c
	return c, nil
}

// SetRoots persists an updated root list for name (used by index_folder
// when a new root is added to an existing container).
func (m *Manager) SetRoots(name string, roots []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, err := loadRegistry(m.storagePath)
	if err != nil {
		return err
	}
	found := false
	for i := range reg.Containers {
		if reg.Containers[i].Name == name {
			reg.Containers[i].Roots = roots
			found = true
			break
		}
	}
	if !found {
		return ierrors.New(ierrors.ErrCodeNotFoundContainer, fmt.Sprintf("container %q not found", name), nil)
	}
	if err := saveRegistry(m.storagePath, reg); err != nil {
		return err
	}
	if c, ok := m.open[name]; ok {
		c.mu.Lock()
		c.record.Roots = roots
		c.mu.Unlock()
	}
	return nil
}

// Close closes every container this manager has opened.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for name, c := range m.open {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.open, name)
	}
	return firstErr
}

// openContainer wires a container's fragment store, vector store, BM25
// index, embedder, and reranker from its on-disk directory and record.
func (m *Manager) openContainer(ctx context.Context, record model.Container) (*Container, error) {
	dir := containerDir(m.storagePath, record.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create container directory: %w", err)
	}

	fragments, err := store.NewSQLiteFragmentStore(filepath.Join(dir, "metadata.db"))
	if err != nil {
		return nil, fmt.Errorf("open fragment store: %w", err)
	}

	vectorCfg := store.DefaultVectorStoreConfig(record.Provider.Dimension)
	vectors, err := store.NewHNSWStore(vectorCfg)
	if err != nil {
		_ = fragments.Close()
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	vectorPath := filepath.Join(dir, "vectors.hnsw")
	if _, statErr := os.Stat(vectorPath); statErr == nil {
		if err := vectors.Load(vectorPath); err != nil {
			_ = fragments.Close()
			return nil, fmt.Errorf("load vector store: %w", err)
		}
	}

	lexical, err := store.NewBM25IndexWithBackend(filepath.Join(dir, "bm25"), m.bm25Cfg, m.bm25Back)
	if err != nil {
		_ = fragments.Close()
		_ = vectors.Close()
		return nil, fmt.Errorf("open lexical index: %w", err)
	}

	embedder, err := embed.NewEmbedder(ctx, record.Provider, m.embedCfg)
	if err != nil {
		_ = fragments.Close()
		_ = vectors.Close()
		_ = lexical.Close()
		return nil, fmt.Errorf("open embedder: %w", err)
	}

	reranker, err := rerank.NewReranker(ctx, record.Provider.Kind, m.rerankCfg)
	if err != nil {
		_ = fragments.Close()
		_ = vectors.Close()
		_ = lexical.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("open reranker: %w", err)
	}

	return &Container{
		record:    record,
		dir:       dir,
		fragments: fragments,
		vectors:   vectors,
		lexical:   lexical,
		embedder:  embedder,
		reranker:  reranker,
	}, nil
}
