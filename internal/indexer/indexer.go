package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aman-cerp/semindex/internal/chunk"
	ierrors "github.com/aman-cerp/semindex/internal/errors"
	"github.com/aman-cerp/semindex/internal/extract"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/scanner"
	"github.com/aman-cerp/semindex/internal/store"
)

// Indexer runs the extract → chunk → embed → commit pipeline against a
// Container. One Indexer instance is shared across containers; it tracks
// per-container busy state so two jobs never race the same container's
// stores, while independent containers index concurrently.
type Indexer struct {
	cfg      Config
	chunkers *chunkerSet

	geo extract.GeoResolver
	git extract.GitEnricher

	mu   sync.Mutex
	busy map[string]bool

	gitRootMu    sync.Mutex
	gitRootCache map[string]string
}

// New constructs an Indexer. The returned value owns chunker resources and
// should be closed with Close when the caller shuts down.
func New(cfg Config) *Indexer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = scanner.DefaultMaxFileSize
	}
	return &Indexer{
		cfg:          cfg,
		chunkers:     newChunkerSet(),
		geo:          extract.NoOpGeoResolver{},
		busy:         make(map[string]bool),
		gitRootCache: make(map[string]string),
	}
}

// Close releases chunker resources (the tree-sitter parser pool).
func (ix *Indexer) Close() error {
	return ix.chunkers.Close()
}

// SetGitEnricher installs a GitEnricher used when Config.GitEnrichEnabled
// is set. Passing nil disables enrichment even if the flag is set.
func (ix *Indexer) SetGitEnricher(g extract.GitEnricher) {
	ix.git = g
}

// gitRootFor resolves the git worktree root containing dir, caching by
// directory so a reindex of a large tree shells out to git once per
// directory rather than once per file.
func (ix *Indexer) gitRootFor(ctx context.Context, dir string) string {
	ix.gitRootMu.Lock()
	if root, ok := ix.gitRootCache[dir]; ok {
		ix.gitRootMu.Unlock()
		return root
	}
	ix.gitRootMu.Unlock()

	root := extract.DetectGitRoot(ctx, dir)

	ix.gitRootMu.Lock()
	ix.gitRootCache[dir] = root
	ix.gitRootMu.Unlock()
	return root
}

func (ix *Indexer) tryAcquire(container string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.busy[container] {
		return false
	}
	ix.busy[container] = true
	return true
}

func (ix *Indexer) release(container string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.busy, container)
}

// IndexRoot walks root, extracts and chunks every discovered file, embeds
// the resulting fragments, and commits them to the container's stores.
// It is additive: existing fragments under paths no longer present in the
// scan are left untouched (reindex_all and reindex_delta own deletion).
func (ix *Indexer) IndexRoot(ctx context.Context, c Container, root string, progress ProgressFunc) (*JobResult, error) {
	if !ix.tryAcquire(c.Name()) {
		return nil, ierrors.Busy(c.Name())
	}
	defer ix.release(c.Name())

	start := time.Now()
	tasks, err := ix.scanRoot(ctx, c.Name(), root, progress)
	if err != nil {
		return nil, err
	}

	result := ix.processTasks(ctx, c, tasks, progress)
	result.Duration = time.Since(start)
	emit(progress, c.Name(), StageDone, len(tasks), len(tasks), "", fmt.Sprintf("indexed %d files", result.Added+result.Modified))
	return result, nil
}

// ReindexAll clears every row owned by the container's stores, then
// re-walks and re-indexes every bound root from scratch.
func (ix *Indexer) ReindexAll(ctx context.Context, c Container, progress ProgressFunc) (*JobResult, error) {
	if !ix.tryAcquire(c.Name()) {
		return nil, ierrors.Busy(c.Name())
	}
	defer ix.release(c.Name())

	start := time.Now()
	if err := clearContainerStores(ctx, c); err != nil {
		return nil, ierrors.StoreFailure("failed to clear container before full reindex", err)
	}

	var allTasks []fileTask
	for _, root := range c.Roots() {
		tasks, err := ix.scanRoot(ctx, c.Name(), root, progress)
		if err != nil {
			return nil, err
		}
		allTasks = append(allTasks, tasks...)
	}

	result := ix.processTasks(ctx, c, allTasks, progress)
	result.Duration = time.Since(start)
	emit(progress, c.Name(), StageDone, len(allTasks), len(allTasks), "", fmt.Sprintf("reindexed %d files", result.Added+result.Modified))
	return result, nil
}

// ReindexDelta rescans every bound root and reconciles the container's
// stores against the current filesystem state: new files are added,
// files whose mtime has advanced are re-chunked, and files that vanished
// are removed.
func (ix *Indexer) ReindexDelta(ctx context.Context, c Container, progress ProgressFunc) (*JobResult, error) {
	if !ix.tryAcquire(c.Name()) {
		return nil, ierrors.Busy(c.Name())
	}
	defer ix.release(c.Name())

	start := time.Now()

	existing, err := c.Fragments().ScanFileRecords(ctx)
	if err != nil {
		return nil, ierrors.StoreFailure("failed to list existing file records", err)
	}
	existingByPath := make(map[string]*model.FileRecord, len(existing))
	for _, rec := range existing {
		existingByPath[rec.Path] = rec
	}

	var scanned []fileTask
	for _, root := range c.Roots() {
		tasks, err := ix.scanRoot(ctx, c.Name(), root, progress)
		if err != nil {
			return nil, err
		}
		scanned = append(scanned, tasks...)
	}

	seen := make(map[string]bool, len(scanned))
	var toProcess []fileTask
	result := &JobResult{}
	for _, task := range scanned {
		seen[task.path] = true
		rec, ok := existingByPath[task.path]
		if !ok {
			result.Added++
			toProcess = append(toProcess, task)
			continue
		}
		if task.mtime.After(rec.MTime) {
			result.Modified++
			toProcess = append(toProcess, task)
		}
	}

	for path := range existingByPath {
		if seen[path] {
			continue
		}
		if err := ix.deleteFile(ctx, c, path); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("delete %s: %w", path, err))
			continue
		}
		result.Deleted++
	}

	processed := ix.processTasks(ctx, c, toProcess, progress)
	result.Skipped += processed.Skipped
	result.Errors = append(result.Errors, processed.Errors...)
	result.Duration = time.Since(start)

	emit(progress, c.Name(), StageDone, len(scanned), len(scanned), "",
		fmt.Sprintf("delta: +%d ~%d -%d", result.Added, result.Modified, result.Deleted))
	return result, nil
}

// IndexSingle (re)indexes exactly one file, used by the watcher on a
// create/modify event. It is a delete-then-insert for that path alone.
func (ix *Indexer) IndexSingle(ctx context.Context, c Container, path string) error {
	if !ix.tryAcquire(c.Name()) {
		return ierrors.Busy(c.Name())
	}
	defer ix.release(c.Name())

	abs := path
	if !filepath.IsAbs(abs) {
		for _, root := range c.Roots() {
			candidate := filepath.Join(root, path)
			if _, err := os.Stat(candidate); err == nil {
				abs = candidate
				break
			}
		}
	}
	info, err := os.Stat(abs)
	if err != nil {
		// File is gone: treat as a deletion.
		return ix.deleteFile(ctx, c, path)
	}

	task := fileTask{path: path, absPath: abs, mtime: info.ModTime(), size: info.Size()}
	result := ix.processTasks(ctx, c, []fileTask{task}, nil)
	if len(result.Errors) > 0 {
		return result.Errors[0]
	}
	return nil
}

// DeletePath removes a path from the container's stores entirely, used by
// the watcher on a remove event and by reindex_delta for vanished files.
func (ix *Indexer) DeletePath(ctx context.Context, c Container, path string) error {
	if !ix.tryAcquire(c.Name()) {
		return ierrors.Busy(c.Name())
	}
	defer ix.release(c.Name())
	return ix.deleteFile(ctx, c, path)
}

// scanRoot walks root with the scanner's gitignore-aware discovery and
// returns the resulting file list as pipeline tasks.
func (ix *Indexer) scanRoot(ctx context.Context, container, root string, progress ProgressFunc) ([]fileTask, error) {
	sc, err := scanner.New()
	if err != nil {
		return nil, ierrors.Wrap("SCAN_INIT", err)
	}

	resultCh, err := sc.Scan(ctx, &scanner.ScanOptions{
		RootDir:          root,
		RespectGitignore: true,
		Workers:          ix.cfg.Workers,
		MaxFileSize:      ix.cfg.MaxFileSize,
	})
	if err != nil {
		return nil, ierrors.Wrap("SCAN_START", err)
	}

	var tasks []fileTask
	for res := range resultCh {
		if res.Error != nil {
			continue
		}
		if res.File == nil {
			continue
		}
		tasks = append(tasks, fileTask{
			path:    res.File.Path,
			absPath: res.File.AbsPath,
			mtime:   res.File.ModTime,
			size:    res.File.Size,
		})
		emit(progress, container, StageScan, len(tasks), 0, res.File.Path, "")
	}
	return tasks, nil
}

// processTasks runs the extract/chunk stage over tasks with a bounded
// worker pool, embeds the resulting fragments in batches, and commits
// each file's fragments to the container's stores.
func (ix *Indexer) processTasks(ctx context.Context, c Container, tasks []fileTask, progress ProgressFunc) *JobResult {
	result := &JobResult{}
	if len(tasks) == 0 {
		return result
	}

	type fileOutcome struct {
		path     string
		record   *model.FileRecord
		frags    []*model.Fragment
		err      error
	}
	outcomes := make([]fileOutcome, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Workers)
	var processedCount int
	var countMu sync.Mutex

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			frags, rec, err := ix.processFile(gctx, c, task)
			outcomes[i] = fileOutcome{path: task.path, record: rec, frags: frags, err: err}

			countMu.Lock()
			processedCount++
			n := processedCount
			countMu.Unlock()
			emit(progress, c.Name(), StageExtract, n, len(tasks), task.path, "")
			return nil
		})
	}
	_ = g.Wait()

	var allFrags []*model.Fragment
	for _, o := range outcomes {
		if o.err != nil {
			if _, ok := o.err.(*extract.SkippedError); ok {
				result.Skipped++
			} else {
				result.Errors = append(result.Errors, o.err)
			}
			continue
		}
		allFrags = append(allFrags, o.frags...)
	}

	if err := ix.embedFragments(ctx, c, allFrags, progress); err != nil {
		result.Errors = append(result.Errors, err)
		return result
	}

	committed := 0
	for _, o := range outcomes {
		if o.err != nil || o.record == nil {
			continue
		}
		if err := ix.commitFile(ctx, c, o.path, o.frags, o.record); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("commit %s: %w", o.path, err))
			continue
		}
		committed++
		result.Added++
		emit(progress, c.Name(), StageCommit, committed, len(outcomes), o.path, "")
	}

	return result
}

// processFile reads, extracts, and chunks a single file, returning
// fragments without embedding vectors (assigned later, in batch).
func (ix *Indexer) processFile(ctx context.Context, c Container, task fileTask) ([]*model.Fragment, *model.FileRecord, error) {
	content, err := os.ReadFile(task.absPath)
	if err != nil {
		return nil, nil, extract.Skipped(task.path, "read: "+err.Error())
	}

	var repoRoot string
	if ix.cfg.GitEnrichEnabled && ix.git != nil {
		repoRoot = ix.gitRootFor(ctx, filepath.Dir(task.absPath))
	}

	opts := extract.Options{
		Geo:              ix.geo,
		Git:              ix.git,
		GitEnrichEnabled: ix.cfg.GitEnrichEnabled && ix.git != nil && repoRoot != "",
		RepoRoot:         repoRoot,
	}
	body, err := extract.Extract(ctx, task.path, content, opts)
	if err != nil {
		if skipped, ok := err.(*extract.SkippedError); ok {
			return nil, nil, skipped
		}
		return nil, nil, extract.Skipped(task.path, err.Error())
	}

	ext := filepath.Ext(task.path)
	chunker := ix.chunkers.pick(ext)
	kind := chunkKindFor(ext, ix.chunkers)

	chunks, err := chunker.Chunk(ctx, &chunk.FileInput{
		Path:     task.path,
		Content:  []byte(body.Text),
		Language: body.Language,
	})
	if err != nil {
		return nil, nil, extract.Skipped(task.path, "chunk: "+err.Error())
	}

	frags := make([]*model.Fragment, 0, len(chunks)+len(body.Blocks))
	for i, ck := range chunks {
		frags = append(frags, &model.Fragment{
			ID: fragmentID(c.Name(), task.path, i),
			Path:        task.path,
			Ordinal:     i,
			OffsetStart: ck.StartLine,
			OffsetEnd:   ck.EndLine,
			Text:        ck.Content,
			ChunkKind:   kind,
			Language:    body.Language,
			MTime:       task.mtime,
		})
	}
	for j, block := range body.Blocks {
		ordinal := len(chunks) + j
		frags = append(frags, &model.Fragment{
			ID:          fragmentID(c.Name(), task.path, ordinal),
			Path:        task.path,
			Ordinal:     ordinal,
			OffsetStart: 0,
			OffsetEnd:   0,
			Text:        block.Text,
			ChunkKind:   block.Kind,
			Language:    body.Language,
			MTime:       task.mtime,
		})
	}

	record := &model.FileRecord{
		Path:          task.path,
		MTime:         task.mtime,
		FreshnessHash: contentHash(content),
		Extractor:     body.Extractor,
		Language:      body.Language,
	}

	return frags, record, nil
}

// embedFragments assigns embedding vectors to frags in batches, calling
// the container's embedder sequentially (it is a single-writer resource
// for a local provider) with retry on transient failures.
func (ix *Indexer) embedFragments(ctx context.Context, c Container, frags []*model.Fragment, progress ProgressFunc) error {
	if len(frags) == 0 {
		return nil
	}
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].Path != frags[j].Path {
			return frags[i].Path < frags[j].Path
		}
		return frags[i].Ordinal < frags[j].Ordinal
	})

	embedder := c.Embedder()
	batchSize := ix.cfg.EmbedBatchSize
	retryCfg := ierrors.DefaultRetryConfig()

	for start := 0; start < len(frags); start += batchSize {
		end := start + batchSize
		if end > len(frags) {
			end = len(frags)
		}
		batch := frags[start:end]
		texts := make([]string, len(batch))
		for i, f := range batch {
			texts[i] = f.Text
		}

		vectors, err := ierrors.RetryWithResult(ctx, retryCfg, func() ([][]float32, error) {
			return embedder.EmbedBatch(ctx, texts)
		})
		if err != nil {
			return ierrors.Transport("embedding batch failed", err)
		}
		if len(vectors) != len(batch) {
			return ierrors.StoreFailure(fmt.Sprintf("embedder returned %d vectors for %d fragments", len(vectors), len(batch)), nil)
		}
		for i, v := range vectors {
			if len(v) != c.Provider().Dimension {
				return ierrors.ProviderMismatch(fmt.Sprintf("embedder produced dimension %d, container expects %d", len(v), c.Provider().Dimension), nil)
			}
			batch[i].Vector = v
		}
		emit(progress, c.Name(), StageEmbed, end, len(frags), "", "")
	}
	return nil
}

// commitFile performs the delete-then-insert atomic swap for a single
// file's fragments across all three of the container's stores.
func (ix *Indexer) commitFile(ctx context.Context, c Container, path string, frags []*model.Fragment, record *model.FileRecord) error {
	old, err := c.Fragments().GetFragmentsByPath(ctx, path)
	if err != nil {
		return ierrors.StoreFailure("failed to read existing fragments", err)
	}
	oldIDs := make([]string, len(old))
	for i, f := range old {
		oldIDs[i] = f.ID
	}
	if len(oldIDs) > 0 {
		if err := c.Vectors().Delete(ctx, oldIDs); err != nil {
			return ierrors.StoreFailure("failed to delete stale vectors", err)
		}
		if err := c.Lexical().Delete(ctx, oldIDs); err != nil {
			return ierrors.StoreFailure("failed to delete stale lexical docs", err)
		}
	}
	if err := c.Fragments().DeleteByPath(ctx, path); err != nil {
		return ierrors.StoreFailure("failed to delete stale fragment rows", err)
	}

	if len(frags) > 0 {
		ids := make([]string, len(frags))
		vectors := make([][]float32, len(frags))
		docs := make([]*store.Document, len(frags))
		for i, f := range frags {
			ids[i] = f.ID
			vectors[i] = f.Vector
			docs[i] = &store.Document{ID: f.ID, Content: f.Text}
		}
		if err := c.Fragments().UpsertFragments(ctx, frags); err != nil {
			return ierrors.StoreFailure("failed to upsert fragments", err)
		}
		if err := c.Vectors().Add(ctx, ids, vectors); err != nil {
			return ierrors.StoreFailure("failed to add vectors", err)
		}
		if err := c.Lexical().Index(ctx, docs); err != nil {
			return ierrors.StoreFailure("failed to index lexical docs", err)
		}
	}

	if err := c.Fragments().UpsertFileRecord(ctx, record); err != nil {
		return ierrors.StoreFailure("failed to upsert file record", err)
	}
	return nil
}

// deleteFile removes a path's fragments, vectors, lexical docs, and file
// record entirely.
func (ix *Indexer) deleteFile(ctx context.Context, c Container, path string) error {
	old, err := c.Fragments().GetFragmentsByPath(ctx, path)
	if err != nil {
		return ierrors.StoreFailure("failed to read fragments for deletion", err)
	}
	if len(old) > 0 {
		ids := make([]string, len(old))
		for i, f := range old {
			ids[i] = f.ID
		}
		if err := c.Vectors().Delete(ctx, ids); err != nil {
			return ierrors.StoreFailure("failed to delete vectors", err)
		}
		if err := c.Lexical().Delete(ctx, ids); err != nil {
			return ierrors.StoreFailure("failed to delete lexical docs", err)
		}
	}
	if err := c.Fragments().DeleteByPath(ctx, path); err != nil {
		return ierrors.StoreFailure("failed to delete fragment rows", err)
	}
	if err := c.Fragments().DeleteFileRecord(ctx, path); err != nil {
		return ierrors.StoreFailure("failed to delete file record", err)
	}
	return nil
}

// clearContainerStores empties all three of a container's stores, used by
// reindex_all and container deletion. FragmentStore has a direct Clear;
// VectorStore and BM25Index only expose per-ID deletion, so they are
// cleared by deleting every ID they currently hold.
func clearContainerStores(ctx context.Context, c Container) error {
	if err := c.Fragments().Clear(ctx); err != nil {
		return err
	}
	if ids := c.Vectors().AllIDs(); len(ids) > 0 {
		if err := c.Vectors().Delete(ctx, ids); err != nil {
			return err
		}
	}
	if ids, err := c.Lexical().AllIDs(); err == nil && len(ids) > 0 {
		if err := c.Lexical().Delete(ctx, ids); err != nil {
			return err
		}
	}
	return nil
}

// chunkKindFor maps the extension's chunker assignment to the fragment's
// provenance tag.
func chunkKindFor(ext string, cs *chunkerSet) model.ChunkKind {
	lower := strings.ToLower(ext)
	switch {
	case cs.byExtMD[lower]:
		return model.ChunkKindDoc
	case cs.byExtCfg[lower]:
		return model.ChunkKindConfig
	default:
		return model.ChunkKindCode
	}
}

// fragmentID derives a stable, content-address-free fragment ID from its
// container, path, and ordinal so re-indexing the same file reproduces the
// same IDs and the delete-then-insert swap lands on the same rows.
func fragmentID(container, path string, ordinal int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", container, path, ordinal)))
	return hex.EncodeToString(sum[:])[:16]
}

// contentHash is the freshness token stored on a FileRecord.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16]
}

func emit(progress ProgressFunc, container string, stage Stage, current, total int, path, message string) {
	if progress == nil {
		return
	}
	progress(ProgressEvent{
		Container: container,
		Stage:     stage,
		Current:   current,
		Total:     total,
		Path:      path,
		Message:   message,
	})
}
