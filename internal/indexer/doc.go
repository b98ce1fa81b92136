// Package indexer implements the indexing pipeline: walking a container's
// roots, extracting and chunking file content, embedding the resulting
// fragments, and committing them to a container's stores.
//
// The pipeline never imports the container package directly — it accepts
// anything satisfying Container, so the caller (container manager or
// watcher) owns container lifecycle and wiring.
package indexer
