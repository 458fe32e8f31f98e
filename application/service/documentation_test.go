package service

import (
	"context"
	"sync"
	"testing"

	"github.com/sourcelore/sourcelore/domain/documentation"
	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/domain/search"
	domainservice "github.com/sourcelore/sourcelore/domain/service"
	"github.com/sourcelore/sourcelore/infrastructure/analyzer"
	"github.com/sourcelore/sourcelore/infrastructure/chunking"
	"github.com/sourcelore/sourcelore/infrastructure/indexer"
	"github.com/sourcelore/sourcelore/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocumentationStore struct {
	mu   sync.Mutex
	docs map[int64]documentation.Documentation
	next int64
}

func newFakeDocumentationStore() *fakeDocumentationStore {
	return &fakeDocumentationStore{docs: map[int64]documentation.Documentation{}}
}

func (f *fakeDocumentationStore) Find(_ context.Context, _ ...repository.Option) ([]documentation.Documentation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]documentation.Documentation, 0, len(f.docs))
	for _, d := range f.docs {
		result = append(result, d)
	}
	return result, nil
}

func (f *fakeDocumentationStore) FindOne(_ context.Context, _ ...repository.Option) (documentation.Documentation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		return d, nil
	}
	return documentation.Documentation{}, database.ErrNotFound
}

func (f *fakeDocumentationStore) Save(_ context.Context, d documentation.Documentation) (documentation.Documentation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID() == 0 {
		f.next++
		d = d.WithID(f.next)
	}
	f.docs[d.ID()] = d
	return d, nil
}

type fakeEntityStore struct {
	entities []entity.CodeEntity
}

func (f *fakeEntityStore) Find(_ context.Context, _ ...repository.Option) ([]entity.CodeEntity, error) {
	return f.entities, nil
}

func (f *fakeEntityStore) FindOne(_ context.Context, _ ...repository.Option) (entity.CodeEntity, error) {
	if len(f.entities) > 0 {
		return f.entities[0], nil
	}
	return entity.CodeEntity{}, database.ErrNotFound
}

func (f *fakeEntityStore) Count(_ context.Context, _ ...repository.Option) (int64, error) {
	return int64(len(f.entities)), nil
}

func (f *fakeEntityStore) Save(_ context.Context, e entity.CodeEntity) (entity.CodeEntity, error) {
	f.entities = append(f.entities, e)
	return e, nil
}

func (f *fakeEntityStore) SaveAll(_ context.Context, entities []entity.CodeEntity) ([]entity.CodeEntity, error) {
	f.entities = append(f.entities, entities...)
	return entities, nil
}

func (f *fakeEntityStore) Delete(_ context.Context, _ entity.CodeEntity) error { return nil }

func (f *fakeEntityStore) DeleteByRepositoryID(_ context.Context, _ int64) error { return nil }

type fakeBM25IndexStore struct {
	mu      sync.Mutex
	indexed []search.Document
}

func (f *fakeBM25IndexStore) Index(_ context.Context, request search.IndexRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, request.Documents()...)
	return nil
}

func (f *fakeBM25IndexStore) Find(_ context.Context, _ ...repository.Option) ([]search.Result, error) {
	return nil, nil
}

func (f *fakeBM25IndexStore) DeleteBy(_ context.Context, _ ...repository.Option) error {
	return nil
}

type fakeEnricher struct {
	calls int
}

func (f *fakeEnricher) Enrich(_ context.Context, requests []domainservice.EnrichmentRequest, _ ...domainservice.EnrichOption) ([]domainservice.EnrichmentResponse, error) {
	f.calls++
	responses := make([]domainservice.EnrichmentResponse, len(requests))
	for i, r := range requests {
		responses[i] = domainservice.NewEnrichmentResponse(r.ID(), "enriched: "+r.Text())
	}
	return responses, nil
}

func newTestIndexer(t *testing.T) *indexer.Indexer {
	t.Helper()
	bm25, err := domainservice.NewBM25(&fakeBM25IndexStore{})
	require.NoError(t, err)
	return indexer.New(bm25, nil, nil, chunking.DefaultChunkParams())
}

func testStructure() analyzer.Structure {
	stats, err := repository.NewStatistics(2, 100, map[string]repository.LanguageStat{
		"go": repository.NewLanguageStat(2, 100, 100),
	})
	if err != nil {
		panic(err)
	}
	return analyzer.Structure{
		Statistics: stats,
		Manifests:  []analyzer.Manifest{{Path: "go.mod", Ecosystem: "go"}},
	}
}

func testEntities() []entity.CodeEntity {
	loc := entity.NewLocation(1, 10, 0, 0)
	e, err := entity.NewCodeEntity(1, "Run", "main.Run", entity.KindFunction, "main.go", "go", loc, "func Run() {}")
	if err != nil {
		panic(err)
	}
	return []entity.CodeEntity{e}
}

func TestDocumentation_Generate_SkipsEnrichmentWithoutEnricher(t *testing.T) {
	store := newFakeDocumentationStore()
	entityStore := &fakeEntityStore{entities: testEntities()}
	svc := NewDocumentation(store, entityStore, nil, newTestIndexer(t))

	doc, err := svc.FindOrCreate(context.Background(), 1)
	require.NoError(t, err)

	doc, err = svc.Generate(context.Background(), doc, testStructure())
	require.NoError(t, err)

	assert.Equal(t, documentation.StatusCompleted, doc.Status())
	assert.NotEmpty(t, doc.Sections())
	assert.Equal(t, "0.1.1", doc.Version())
}

func TestDocumentation_Generate_EnrichesWhenConfigured(t *testing.T) {
	store := newFakeDocumentationStore()
	entityStore := &fakeEntityStore{entities: testEntities()}
	enricher := &fakeEnricher{}
	svc := NewDocumentation(store, entityStore, enricher, newTestIndexer(t))

	doc, err := svc.FindOrCreate(context.Background(), 1)
	require.NoError(t, err)

	doc, err = svc.Generate(context.Background(), doc, testStructure())
	require.NoError(t, err)

	assert.Equal(t, documentation.StatusCompleted, doc.Status())
	assert.Equal(t, 1, enricher.calls)
	for _, s := range doc.Sections() {
		assert.Contains(t, s.Content(), "enriched:")
	}
}

func TestDocumentation_Generate_NoStructureOrEntitiesProducesNoSections(t *testing.T) {
	store := newFakeDocumentationStore()
	entityStore := &fakeEntityStore{}
	svc := NewDocumentation(store, entityStore, nil, newTestIndexer(t))

	doc, err := svc.FindOrCreate(context.Background(), 1)
	require.NoError(t, err)

	doc, err = svc.Generate(context.Background(), doc, analyzer.Structure{})
	require.NoError(t, err)

	assert.Equal(t, documentation.StatusCompleted, doc.Status())
	assert.Empty(t, doc.Sections())
}

func TestDocumentation_MarkUpdateRequired(t *testing.T) {
	store := newFakeDocumentationStore()
	entityStore := &fakeEntityStore{entities: testEntities()}
	svc := NewDocumentation(store, entityStore, nil, newTestIndexer(t))

	doc, err := svc.FindOrCreate(context.Background(), 1)
	require.NoError(t, err)
	doc, err = svc.Generate(context.Background(), doc, testStructure())
	require.NoError(t, err)
	require.Equal(t, documentation.StatusCompleted, doc.Status())

	doc, err = svc.MarkUpdateRequired(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, documentation.StatusUpdateRequired, doc.Status())
}

func TestOverviewSection(t *testing.T) {
	s, ok := overviewSection(testStructure(), testEntities())
	require.True(t, ok)
	assert.Equal(t, documentation.SectionOverview, s.Type())
	assert.Contains(t, s.Content(), "2 files")
	assert.Contains(t, s.Content(), "go:")
}

func TestOverviewSection_EmptyWhenNothingToReport(t *testing.T) {
	_, ok := overviewSection(analyzer.Structure{}, nil)
	assert.False(t, ok)
}

func TestInstallationSection(t *testing.T) {
	s, ok := installationSection(testStructure())
	require.True(t, ok)
	assert.Equal(t, documentation.SectionInstallation, s.Type())
	assert.Contains(t, s.Content(), "go.mod")
	require.Len(t, s.References(), 1)
	assert.Equal(t, "go.mod", s.References()[0].FilePath())
}

func TestInstallationSection_EmptyWithoutManifests(t *testing.T) {
	_, ok := installationSection(analyzer.Structure{})
	assert.False(t, ok)
}

func TestArchitectureSection(t *testing.T) {
	s, ok := architectureSection(testEntities())
	require.True(t, ok)
	assert.Equal(t, documentation.SectionArchitecture, s.Type())
	assert.Contains(t, s.Content(), "function: 1")
}

func TestAPIReferenceSection(t *testing.T) {
	s, ok := apiReferenceSection(testEntities())
	require.True(t, ok)
	assert.Equal(t, documentation.SectionAPIReference, s.Type())
	assert.Contains(t, s.Content(), "main.Run")
	require.Len(t, s.References(), 1)
	assert.Equal(t, "main.go", s.References()[0].FilePath())
}

func TestAPIReferenceSection_EmptyWithoutPublicEntities(t *testing.T) {
	loc := entity.NewLocation(1, 2, 0, 0)
	e, err := entity.NewCodeEntity(1, "x", "pkg.x", entity.KindField, "f.go", "go", loc, "var x = 1")
	require.NoError(t, err)
	_, ok := apiReferenceSection([]entity.CodeEntity{e})
	assert.False(t, ok)
}
