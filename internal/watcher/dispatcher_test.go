package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/semindex/internal/embed"
	"github.com/aman-cerp/semindex/internal/indexer"
	"github.com/aman-cerp/semindex/internal/model"
	"github.com/aman-cerp/semindex/internal/store"
)

// fakeWatcher lets tests push event batches directly into a dispatcher
// without touching the filesystem or fsnotify.
type fakeWatcher struct {
	events chan []FileEvent
	errs   chan error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		events: make(chan []FileEvent, 10),
		errs:   make(chan error, 10),
	}
}

func (f *fakeWatcher) Start(ctx context.Context, path string) error { return nil }
func (f *fakeWatcher) Stop() error                                  { close(f.events); close(f.errs); return nil }
func (f *fakeWatcher) Events() <-chan []FileEvent                   { return f.events }
func (f *fakeWatcher) Errors() <-chan error                         { return f.errs }

var _ Watcher = (*fakeWatcher)(nil)

// fakeContainer is a minimal in-memory indexer.Container, just complete
// enough to exercise Dispatcher.apply's IndexSingle/DeletePath calls.
type fakeContainer struct {
	name  string
	root  string
	mu    sync.Mutex
	frags map[string][]*model.Fragment
	files map[string]*model.FileRecord
}

func newFakeContainer(name, root string) *fakeContainer {
	return &fakeContainer{
		name:  name,
		root:  root,
		frags: make(map[string][]*model.Fragment),
		files: make(map[string]*model.FileRecord),
	}
}

func (c *fakeContainer) Name() string { return c.name }
func (c *fakeContainer) Roots() []string { return []string{c.root} }
func (c *fakeContainer) Provider() model.ProviderIdentity {
	return model.ProviderIdentity{Kind: model.ProviderKindLocal, Model: "test", Dimension: 4}
}
func (c *fakeContainer) Fragments() store.FragmentStore { return &fakeFragmentStore{c: c} }
func (c *fakeContainer) Vectors() store.VectorStore     { return &fakeVectorStore{} }
func (c *fakeContainer) Lexical() store.BM25Index       { return &fakeLexicalIndex{} }
func (c *fakeContainer) Embedder() embed.Embedder       { return fakeEmbedder{dims: 4} }

var _ indexer.Container = (*fakeContainer)(nil)

// fakeFragmentStore, fakeVectorStore, fakeLexicalIndex and fakeEmbedder are
// bare-bones in-memory stand-ins for store.FragmentStore, store.VectorStore,
// store.BM25Index and embed.Embedder — just enough to let IndexSingle and
// DeletePath run end to end without any real persistence.

type fakeFragmentStore struct {
	c *fakeContainer
}

func (s *fakeFragmentStore) UpsertFragments(ctx context.Context, fragments []*model.Fragment) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	for _, f := range fragments {
		s.c.frags[f.Path] = append(s.c.frags[f.Path], f)
	}
	return nil
}

func (s *fakeFragmentStore) DeleteByPath(ctx context.Context, path string) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	delete(s.c.frags, path)
	return nil
}

func (s *fakeFragmentStore) GetFragmentsByPath(ctx context.Context, path string) ([]*model.Fragment, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.frags[path], nil
}

func (s *fakeFragmentStore) GetFragments(ctx context.Context, ids []string) ([]*model.Fragment, error) {
	return nil, nil
}

func (s *fakeFragmentStore) UpsertFileRecord(ctx context.Context, file *model.FileRecord) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.files[file.Path] = file
	return nil
}

func (s *fakeFragmentStore) GetFileRecord(ctx context.Context, path string) (*model.FileRecord, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.files[path], nil
}

func (s *fakeFragmentStore) DeleteFileRecord(ctx context.Context, path string) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	delete(s.c.files, path)
	return nil
}

func (s *fakeFragmentStore) ScanFileRecords(ctx context.Context) ([]*model.FileRecord, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	out := make([]*model.FileRecord, 0, len(s.c.files))
	for _, f := range s.c.files {
		out = append(out, f)
	}
	return out, nil
}

func (s *fakeFragmentStore) UpsertAnnotation(ctx context.Context, a *model.Annotation) error { return nil }
func (s *fakeFragmentStore) GetAnnotation(ctx context.Context, id string) (*model.Annotation, error) {
	return nil, nil
}
func (s *fakeFragmentStore) GetAnnotationsByPath(ctx context.Context, path string) ([]*model.Annotation, error) {
	return nil, nil
}
func (s *fakeFragmentStore) DeleteAnnotation(ctx context.Context, id string) error { return nil }
func (s *fakeFragmentStore) Clear(ctx context.Context) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.frags = make(map[string][]*model.Fragment)
	s.c.files = make(map[string]*model.FileRecord)
	return nil
}
func (s *fakeFragmentStore) Stats(ctx context.Context) (store.FragmentStoreStats, error) {
	return store.FragmentStoreStats{}, nil
}
func (s *fakeFragmentStore) Close() error { return nil }

var _ store.FragmentStore = (*fakeFragmentStore)(nil)

type fakeVectorStore struct {
	mu   sync.Mutex
	ids  map[string][]float32
}

func (v *fakeVectorStore) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ids == nil {
		v.ids = make(map[string][]float32)
	}
	for i, id := range ids {
		v.ids[id] = vectors[i]
	}
	return nil
}
func (v *fakeVectorStore) Search(ctx context.Context, query []float32, k int) ([]*store.VectorResult, error) {
	return nil, nil
}
func (v *fakeVectorStore) SearchSubset(ctx context.Context, query []float32, ids []string, k int) ([]*store.VectorResult, error) {
	return nil, nil
}
func (v *fakeVectorStore) Delete(ctx context.Context, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, id := range ids {
		delete(v.ids, id)
	}
	return nil
}
func (v *fakeVectorStore) AllIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]string, 0, len(v.ids))
	for id := range v.ids {
		out = append(out, id)
	}
	return out
}
func (v *fakeVectorStore) Contains(id string) bool { return false }
func (v *fakeVectorStore) Count() int              { return len(v.ids) }
func (v *fakeVectorStore) Save(path string) error  { return nil }
func (v *fakeVectorStore) Load(path string) error  { return nil }
func (v *fakeVectorStore) Close() error            { return nil }

var _ store.VectorStore = (*fakeVectorStore)(nil)

type fakeLexicalIndex struct{}

func (l *fakeLexicalIndex) Index(ctx context.Context, docs []*store.Document) error { return nil }
func (l *fakeLexicalIndex) Search(ctx context.Context, query string, limit int) ([]*store.BM25Result, error) {
	return nil, nil
}
func (l *fakeLexicalIndex) Delete(ctx context.Context, docIDs []string) error { return nil }
func (l *fakeLexicalIndex) AllIDs() ([]string, error)                        { return nil, nil }
func (l *fakeLexicalIndex) Stats() *store.IndexStats                        { return &store.IndexStats{} }
func (l *fakeLexicalIndex) Save(path string) error                          { return nil }
func (l *fakeLexicalIndex) Load(path string) error                          { return nil }
func (l *fakeLexicalIndex) Close() error                                    { return nil }

var _ store.BM25Index = (*fakeLexicalIndex)(nil)

type fakeEmbedder struct {
	dims int
}

func (e fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, e.dims), nil
}
func (e fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dims)
	}
	return out, nil
}
func (e fakeEmbedder) Dimensions() int               { return e.dims }
func (e fakeEmbedder) ModelName() string             { return "test" }
func (e fakeEmbedder) Available(ctx context.Context) bool { return true }
func (e fakeEmbedder) Close() error                  { return nil }
func (e fakeEmbedder) SetBatchIndex(idx int)         {}
func (e fakeEmbedder) SetFinalBatch(isFinal bool)    {}

var _ embed.Embedder = fakeEmbedder{}

func TestDispatcher_InScope_RejectsPathOutsideRoots(t *testing.T) {
	dir := t.TempDir()
	c := newFakeContainer("default", dir)
	d := NewDispatcher(newFakeWatcher(), indexer.New(indexer.DefaultConfig()), c, dir)

	assert.True(t, d.inScope("sub/file.go"))
	assert.False(t, d.inScope("../outside.go"))
}

func TestDispatcher_Dispatch_DropsDirEvents(t *testing.T) {
	dir := t.TempDir()
	c := newFakeContainer("default", dir)
	d := NewDispatcher(newFakeWatcher(), indexer.New(indexer.DefaultConfig()), c, dir)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Given: a directory event
	ev := FileEvent{Path: "sub", Operation: OpCreate, IsDir: true}

	// When/Then: dispatching does not block or panic; directories are
	// never passed to IndexSingle.
	d.dispatch(ctx, ev)
}

func TestDispatcher_Run_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	c := newFakeContainer("default", dir)
	fw := newFakeWatcher()
	d := NewDispatcher(fw, indexer.New(indexer.DefaultConfig()), c, dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestDispatcher_GitignoreAndConfigEvents_AreNoOps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".semindex.yaml"), []byte("version: 1\n"), 0o644))
	c := newFakeContainer("default", dir)
	d := NewDispatcher(newFakeWatcher(), indexer.New(indexer.DefaultConfig()), c, dir)

	ctx := context.Background()
	assert.NoError(t, d.apply(ctx, OpGitignoreChange, filepath.Join(dir, ".gitignore")))
	assert.NoError(t, d.apply(ctx, OpConfigChange, filepath.Join(dir, ".semindex.yaml")))
}
