package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/semindex/internal/model"
)

func newTestFragmentStore(t *testing.T) *SQLiteFragmentStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), ".semindex", "metadata.db")

	store, err := NewSQLiteFragmentStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func sampleFragment(id, path string, ordinal int) *model.Fragment {
	return &model.Fragment{
		ID:          id,
		Path:        path,
		Ordinal:     ordinal,
		OffsetStart: ordinal * 100,
		OffsetEnd:   ordinal*100 + 50,
		Text:        "fragment text " + id,
		Vector:      []float32{0.1, 0.2, 0.3},
		ChunkKind:   model.ChunkKindCode,
		Language:    "go",
		MTime:       time.Now().Truncate(time.Second).UTC(),
	}
}

func TestSQLiteFragmentStore_UpsertAndGetFragmentsByPath(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	fragments := []*model.Fragment{
		sampleFragment("f1", "/repo/main.go", 0),
		sampleFragment("f2", "/repo/main.go", 1),
	}
	require.NoError(t, store.UpsertFragments(ctx, fragments))

	got, err := store.GetFragmentsByPath(ctx, "/repo/main.go")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "f1", got[0].ID)
	assert.Equal(t, "f2", got[1].ID)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got[0].Vector)
	assert.Equal(t, model.ChunkKindCode, got[0].ChunkKind)
}

func TestSQLiteFragmentStore_UpsertFragments_IsIdempotent(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	frag := sampleFragment("f1", "/repo/main.go", 0)
	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{frag}))
	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{frag}))

	got, err := store.GetFragmentsByPath(ctx, "/repo/main.go")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteFragmentStore_UpsertFragments_ReplacesOnConflict(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	frag := sampleFragment("f1", "/repo/main.go", 0)
	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{frag}))

	frag.Text = "updated text"
	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{frag}))

	got, err := store.GetFragmentsByPath(ctx, "/repo/main.go")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "updated text", got[0].Text)
}

func TestSQLiteFragmentStore_DeleteByPath(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{
		sampleFragment("f1", "/repo/main.go", 0),
		sampleFragment("f2", "/repo/other.go", 0),
	}))

	require.NoError(t, store.DeleteByPath(ctx, "/repo/main.go"))

	got, err := store.GetFragmentsByPath(ctx, "/repo/main.go")
	require.NoError(t, err)
	assert.Empty(t, got)

	remaining, err := store.GetFragmentsByPath(ctx, "/repo/other.go")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestSQLiteFragmentStore_DeleteByPath_IsIdempotent(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	require.NoError(t, store.DeleteByPath(ctx, "/repo/never-existed.go"))
	require.NoError(t, store.DeleteByPath(ctx, "/repo/never-existed.go"))
}

func TestSQLiteFragmentStore_GetFragments_BatchByID(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{
		sampleFragment("f1", "/repo/a.go", 0),
		sampleFragment("f2", "/repo/b.go", 0),
		sampleFragment("f3", "/repo/c.go", 0),
	}))

	got, err := store.GetFragments(ctx, []string{"f1", "f3"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLiteFragmentStore_GetFragments_EmptyIDs(t *testing.T) {
	store := newTestFragmentStore(t)
	got, err := store.GetFragments(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteFragmentStore_FileRecordLifecycle(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	file := &model.FileRecord{
		Path:          "/repo/main.go",
		MTime:         time.Now().Truncate(time.Second).UTC(),
		FreshnessHash: "abc123",
		Extractor:     model.ExtractorText,
		Language:      "go",
	}
	require.NoError(t, store.UpsertFileRecord(ctx, file))

	got, err := store.GetFileRecord(ctx, "/repo/main.go")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc123", got.FreshnessHash)
	assert.Equal(t, model.ExtractorText, got.Extractor)

	file.FreshnessHash = "def456"
	require.NoError(t, store.UpsertFileRecord(ctx, file))

	updated, err := store.GetFileRecord(ctx, "/repo/main.go")
	require.NoError(t, err)
	assert.Equal(t, "def456", updated.FreshnessHash)

	require.NoError(t, store.DeleteFileRecord(ctx, "/repo/main.go"))
	gone, err := store.GetFileRecord(ctx, "/repo/main.go")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSQLiteFragmentStore_GetFileRecord_NotFound(t *testing.T) {
	store := newTestFragmentStore(t)
	got, err := store.GetFileRecord(context.Background(), "/nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteFragmentStore_DeleteFileRecord_CascadesFragments(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFileRecord(ctx, &model.FileRecord{
		Path: "/repo/main.go", MTime: time.Now().UTC(), FreshnessHash: "h1", Extractor: model.ExtractorText,
	}))
	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{
		sampleFragment("f1", "/repo/main.go", 0),
	}))

	require.NoError(t, store.DeleteFileRecord(ctx, "/repo/main.go"))

	frags, err := store.GetFragmentsByPath(ctx, "/repo/main.go")
	require.NoError(t, err)
	assert.Empty(t, frags)
}

func TestSQLiteFragmentStore_ScanFileRecords(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	for _, p := range []string{"/repo/a.go", "/repo/b.go"} {
		require.NoError(t, store.UpsertFileRecord(ctx, &model.FileRecord{
			Path: p, MTime: time.Now().UTC(), FreshnessHash: "h", Extractor: model.ExtractorText,
		}))
	}

	all, err := store.ScanFileRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteFragmentStore_AnnotationLifecycle(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	ann := &model.Annotation{
		ID:        "ann-1",
		Path:      "/repo/main.go",
		Source:    model.AnnotationSourceUser,
		Note:      "remember to refactor this",
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
	require.NoError(t, store.UpsertAnnotation(ctx, ann))

	got, err := store.GetAnnotation(ctx, "ann-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "remember to refactor this", got.Note)
	assert.Equal(t, model.AnnotationSourceUser, got.Source)

	byPath, err := store.GetAnnotationsByPath(ctx, "/repo/main.go")
	require.NoError(t, err)
	assert.Len(t, byPath, 1)

	require.NoError(t, store.DeleteAnnotation(ctx, "ann-1"))
	gone, err := store.GetAnnotation(ctx, "ann-1")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSQLiteFragmentStore_Annotation_SurvivesFileDeletion(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFileRecord(ctx, &model.FileRecord{
		Path: "/repo/main.go", MTime: time.Now().UTC(), FreshnessHash: "h", Extractor: model.ExtractorText,
	}))
	require.NoError(t, store.UpsertAnnotation(ctx, &model.Annotation{
		ID: "ann-1", Path: "/repo/main.go", Source: model.AnnotationSourceAgent,
		Note: "note", CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, store.DeleteFileRecord(ctx, "/repo/main.go"))

	got, err := store.GetAnnotation(ctx, "ann-1")
	require.NoError(t, err)
	assert.NotNil(t, got, "annotations must outlive the file record they were attached to")
}

func TestSQLiteFragmentStore_GetAnnotation_NotFound(t *testing.T) {
	store := newTestFragmentStore(t)
	got, err := store.GetAnnotation(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteFragmentStore_Clear(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFileRecord(ctx, &model.FileRecord{
		Path: "/repo/a.go", MTime: time.Now().UTC(), FreshnessHash: "h", Extractor: model.ExtractorText,
	}))
	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{sampleFragment("f1", "/repo/a.go", 0)}))
	require.NoError(t, store.UpsertAnnotation(ctx, &model.Annotation{
		ID: "ann-1", Path: "/repo/a.go", Source: model.AnnotationSourceUser, Note: "n", CreatedAt: time.Now().UTC(),
	}))

	require.NoError(t, store.Clear(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, FragmentStoreStats{}, stats)
}

func TestSQLiteFragmentStore_Stats(t *testing.T) {
	store := newTestFragmentStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertFileRecord(ctx, &model.FileRecord{
		Path: "/repo/a.go", MTime: time.Now().UTC(), FreshnessHash: "h", Extractor: model.ExtractorText,
	}))
	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{
		sampleFragment("f1", "/repo/a.go", 0),
		sampleFragment("f2", "/repo/a.go", 1),
	}))
	require.NoError(t, store.UpsertAnnotation(ctx, &model.Annotation{
		ID: "ann-1", Path: "/repo/a.go", Source: model.AnnotationSourceUser, Note: "n", CreatedAt: time.Now().UTC(),
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, 2, stats.TotalFragments)
	assert.Equal(t, 1, stats.TotalAnnotations)
}

func TestSQLiteFragmentStore_CloseThenOperationFails(t *testing.T) {
	store := newTestFragmentStore(t)
	require.NoError(t, store.Close())

	ctx := context.Background()
	_, err := store.GetFileRecord(ctx, "/repo/a.go")
	assert.Error(t, err)
}

func TestSQLiteFragmentStore_InMemory(t *testing.T) {
	store, err := NewSQLiteFragmentStore("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.UpsertFragments(ctx, []*model.Fragment{sampleFragment("f1", "/a.go", 0)}))

	got, err := store.GetFragmentsByPath(ctx, "/a.go")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
