// Package container owns the container registry: named,
// isolated indices bound at creation to an immutable provider identity,
// backed by their own fragment store, vector index, and BM25 index.
package container

import (
	"fmt"
	"sync"
	"time"

	"github.com/aman-cerp/semindex/internal/embed"
	"github.com/aman-cerp/semindex/internal/indexer"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/rerank"
	"github.com/aman-cerp/semindex/internal/search"
	"github.com/aman-cerp/semindex/internal/store"
)

var (
	_ indexer.Container = (*Container)(nil)
	_ search.Container  = (*Container)(nil)
)

// Container is a single named index: its bound provider and roots plus
// the three stores, embedder, and reranker the indexing and retrieval
// pipelines need. It implements indexer.Container and search.Container
// directly so neither package needs to depend on this one.
type Container struct {
	mu     sync.RWMutex
	record model.Container

	dir       string
	fragments store.FragmentStore
	vectors   store.VectorStore
	lexical   store.BM25Index
	embedder  embed.Embedder
	reranker  rerank.Reranker
}

func (c *Container) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Name
}

func (c *Container) Description() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Description
}

func (c *Container) Roots() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	roots := make([]string, len(c.record.Roots))
	copy(roots, c.record.Roots)
	return roots
}

func (c *Container) Provider() model.ProviderIdentity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Provider
}

func (c *Container) CreatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.CreatedAt
}

func (c *Container) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Active
}

func (c *Container) setActive(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record.Active = active
}

// Record returns a snapshot of the container's persisted metadata, for
// list_containers and the registry file.
func (c *Container) Record() model.Container {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record
}

// Dir returns the on-disk directory holding this container's stores.
func (c *Container) Dir() string {
	return c.dir
}

func (c *Container) Fragments() store.FragmentStore { return c.fragments }
func (c *Container) Vectors() store.VectorStore     { return c.vectors }
func (c *Container) Lexical() store.BM25Index       { return c.lexical }
func (c *Container) Embedder() embed.Embedder       { return c.embedder }

// Reranker returns the cross-encoder bound to this container, or a
// rerank.NoOpReranker (never nil) when reranking is disabled.
func (c *Container) Reranker() rerank.Reranker { return c.reranker }

// Close releases every store and provider this container opened. Safe to
// call once per Container returned by Manager.Get/Create.
func (c *Container) Close() error {
	var errs []error
	if err := c.fragments.Close(); err != nil {
		errs = append(errs, fmt.Errorf("fragments: %w", err))
	}
	if err := c.vectors.Close(); err != nil {
		errs = append(errs, fmt.Errorf("vectors: %w", err))
	}
	if err := c.lexical.Close(); err != nil {
		errs = append(errs, fmt.Errorf("lexical: %w", err))
	}
	if err := c.embedder.Close(); err != nil {
		errs = append(errs, fmt.Errorf("embedder: %w", err))
	}
	if err := c.reranker.Close(); err != nil {
		errs = append(errs, fmt.Errorf("reranker: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close container %q: %v", c.record.Name, errs)
	}
	return nil
}
