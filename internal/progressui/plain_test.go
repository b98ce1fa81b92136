package progressui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aman-cerp/semindex/internal/indexer"
)

func TestPlainRenderer_UpdateProgressWritesStageAndCounts(t *testing.T) {
	// Given: a plain renderer writing to a buffer
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})

	// When: a progress event arrives
	r.UpdateProgress(indexer.ProgressEvent{Stage: indexer.StageEmbed, Current: 3, Total: 10, Path: "a.go"})

	// Then: it renders the stage icon, counts, and path
	out := buf.String()
	assert.Contains(t, out, "[EMBED]")
	assert.Contains(t, out, "3/10")
	assert.Contains(t, out, "a.go")
}

func TestPlainRenderer_UpdateProgressSkipsEmptyEvent(t *testing.T) {
	// Given: a plain renderer
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})

	// When: an event has neither a total nor a message/path
	r.UpdateProgress(indexer.ProgressEvent{Stage: indexer.StageScan})

	// Then: nothing is written
	assert.Empty(t, buf.String())
}

func TestPlainRenderer_CompleteSummarizesCounts(t *testing.T) {
	// Given: a plain renderer
	var buf bytes.Buffer
	r := NewPlainRenderer(Config{Output: &buf})

	// When: the job completes with one error
	r.Complete(CompletionStats{
		Added: 2, Modified: 1, Deleted: 0, Skipped: 1,
		Duration: 3 * time.Second,
		Errors:   []error{assertErr("disk full")},
	})

	// Then: the summary line and the error are both present
	out := buf.String()
	assert.True(t, strings.Contains(out, "2 added"))
	assert.True(t, strings.Contains(out, "1 errors"))
	assert.Contains(t, out, "disk full")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
