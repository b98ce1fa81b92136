// Package mcpserver exposes the indexing and search command surface over
// the Model Context Protocol, the thin external binding AI assistants and
// editor integrations speak to this system the way the desktop shell
// speaks to it in-process.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/aman-cerp/semindex/internal/container"
	"github.com/aman-cerp/semindex/internal/indexer"
	"github.com/aman-cerp/semindex/internal/search"
)

// Deps bundles the already-constructed components a Server dispatches
// every tool call to. The server owns none of their lifecycles.
type Deps struct {
	Manager *container.Manager
	Indexer *indexer.Indexer
	Engine  *search.Engine
}

// resolveContainer returns the named container, or the currently active
// one when name is empty.
func (d Deps) resolveContainer(ctx context.Context, name string) (*container.Container, error) {
	if name != "" {
		return d.Manager.Get(ctx, name)
	}
	active, err := d.Manager.Active()
	if err != nil {
		return nil, fmt.Errorf("no active container: %w", err)
	}
	return d.Manager.Get(ctx, active.Name)
}
