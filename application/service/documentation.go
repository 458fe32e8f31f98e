package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcelore/sourcelore/domain/documentation"
	"github.com/sourcelore/sourcelore/domain/entity"
	domainservice "github.com/sourcelore/sourcelore/domain/service"
	"github.com/sourcelore/sourcelore/infrastructure/analyzer"
	"github.com/sourcelore/sourcelore/infrastructure/indexer"
	"github.com/sourcelore/sourcelore/internal/database"
)

const documentationEnrichSystemPrompt = `
You are a professional technical writer. You will be given a draft
documentation section assembled mechanically from a repository's source
code and structure. Rewrite it in clear prose, preserving every fact,
file path, and code reference it contains. Do not invent APIs, files, or
behavior that isn't evidenced by the draft.
`

// Documentation drives the Documentation Generator (C6): it turns a
// repository's analyzed structure (C2) and extracted code entities (C3)
// into a versioned set of documentation sections, optionally polishing
// them with an LLM, indexes them for retrieval (C5), and scores the
// result.
type Documentation struct {
	documentation.Collection
	store       documentation.Store
	entityStore entity.EntityStore
	enricher    domainservice.Enricher // nil: SkipEnrichment is used instead
	indexer     *indexer.Indexer
}

// NewDocumentation creates a new Documentation service. enricher may be
// nil, in which case generation skips the Enriching phase entirely,
// matching task.PrescribedOperations' own enrichment gate.
func NewDocumentation(
	store documentation.Store,
	entityStore entity.EntityStore,
	enricher domainservice.Enricher,
	idx *indexer.Indexer,
) *Documentation {
	return &Documentation{
		Collection:  documentation.NewCollection(store),
		store:       store,
		entityStore: entityStore,
		enricher:    enricher,
		indexer:     idx,
	}
}

// FindOrCreate returns the existing Documentation for a repository, or a
// fresh NotStarted one if none exists yet.
func (d *Documentation) FindOrCreate(ctx context.Context, repositoryID int64) (documentation.Documentation, error) {
	doc, err := d.store.FindOne(ctx, documentation.WithRepositoryID(repositoryID))
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return documentation.Documentation{}, fmt.Errorf("find documentation: %w", err)
	}
	return documentation.NewDocumentation(repositoryID)
}

// MarkUpdateRequired transitions a Completed Documentation to
// UpdateRequired, e.g. when the Ingestion Orchestrator (C10) reports the
// underlying repository changed.
func (d *Documentation) MarkUpdateRequired(ctx context.Context, doc documentation.Documentation) (documentation.Documentation, error) {
	doc, err := doc.MarkUpdateRequired()
	if err != nil {
		return doc, err
	}
	return d.save(ctx, doc)
}

// Generate runs C6's full pipeline for a repository: Analyze -> draft
// sections from structure and code entities -> Generate -> optionally
// Enrich (or SkipEnrichment) -> index every section -> Index -> Complete.
// It always persists the aggregate, transitioning it to Error on any
// failure, and returns that failure alongside the persisted state.
func (d *Documentation) Generate(ctx context.Context, doc documentation.Documentation, structure analyzer.Structure) (documentation.Documentation, error) {
	doc, err := doc.Analyze()
	if err != nil {
		return d.fail(ctx, doc, err)
	}
	doc, err = d.save(ctx, doc)
	if err != nil {
		return doc, err
	}

	entities, err := d.entityStore.Find(ctx, entity.WithRepositoryID(doc.RepositoryID()))
	if err != nil {
		return d.fail(ctx, doc, fmt.Errorf("load code entities: %w", err))
	}

	requested := documentation.RenderOrder
	drafts := draftSections(structure, entities)

	doc, err = doc.Generate(drafts)
	if err != nil {
		return d.fail(ctx, doc, err)
	}
	doc, err = d.save(ctx, doc)
	if err != nil {
		return doc, err
	}

	selfConsistency := 1.0
	if d.enricher != nil {
		enriched, err := d.enrichSections(ctx, drafts)
		if err != nil {
			return d.fail(ctx, doc, fmt.Errorf("enrich sections: %w", err))
		}
		doc, err = doc.Enrich(enriched)
		if err != nil {
			return d.fail(ctx, doc, err)
		}
	} else {
		selfConsistency = 0
		doc, err = doc.SkipEnrichment()
		if err != nil {
			return d.fail(ctx, doc, err)
		}
	}
	doc, err = d.save(ctx, doc)
	if err != nil {
		return doc, err
	}

	if err := d.indexSections(ctx, doc.RepositoryID(), doc.Sections()); err != nil {
		return d.fail(ctx, doc, fmt.Errorf("index sections: %w", err))
	}
	doc, err = doc.Index()
	if err != nil {
		return d.fail(ctx, doc, err)
	}
	doc, err = d.save(ctx, doc)
	if err != nil {
		return doc, err
	}

	doc, err = doc.Complete(documentation.QualityInputs{
		RequestedSections: requested,
		SelfConsistency:   selfConsistency,
	})
	if err != nil {
		return d.fail(ctx, doc, err)
	}
	return d.save(ctx, doc)
}

func (d *Documentation) enrichSections(ctx context.Context, sections []documentation.Section) ([]documentation.Section, error) {
	requests := make([]domainservice.EnrichmentRequest, 0, len(sections))
	for i, s := range sections {
		requests = append(requests, domainservice.NewEnrichmentRequest(
			sectionRequestID(i), s.Content(), documentationEnrichSystemPrompt,
		))
	}

	responses, err := d.enricher.Enrich(ctx, requests)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]string, len(responses))
	for _, resp := range responses {
		byID[resp.ID()] = resp.Text()
	}

	enriched := make([]documentation.Section, len(sections))
	for i, s := range sections {
		content := s.Content()
		if text, ok := byID[sectionRequestID(i)]; ok && text != "" {
			content = text
		}
		enriched[i] = documentation.NewSection(s.Type(), s.Title(), content, s.References())
	}
	return enriched, nil
}

func (d *Documentation) indexSections(ctx context.Context, repositoryID int64, sections []documentation.Section) error {
	for _, s := range sections {
		sourceID := fmt.Sprintf("%d:%s", repositoryID, s.Type())
		if _, err := d.indexer.Upsert(ctx, indexer.KindDocumentationSection, sourceID, s.Content()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Documentation) fail(ctx context.Context, doc documentation.Documentation, cause error) (documentation.Documentation, error) {
	failed, failErr := doc.Fail(cause.Error())
	if failErr != nil {
		return doc, fmt.Errorf("%w (and failed to record failure: %v)", cause, failErr)
	}
	saved, saveErr := d.save(ctx, failed)
	if saveErr != nil {
		return failed, fmt.Errorf("%w (and failed to persist failure: %v)", cause, saveErr)
	}
	return saved, cause
}

func (d *Documentation) save(ctx context.Context, doc documentation.Documentation) (documentation.Documentation, error) {
	saved, err := d.store.Save(ctx, doc)
	if err != nil {
		return doc, fmt.Errorf("save documentation: %w", err)
	}
	return saved, nil
}

func sectionRequestID(i int) string {
	return fmt.Sprintf("section-%d", i)
}

// draftSections assembles an initial, mechanically-generated section set
// from a repository's analyzed structure and extracted code entities.
// Every section is backed entirely by evidence already on hand — no LLM
// call — so generation always produces something even when no enricher
// is configured, and enrichment (when it runs) only rewrites prose around
// facts that are already correct.
func draftSections(structure analyzer.Structure, entities []entity.CodeEntity) []documentation.Section {
	var sections []documentation.Section

	if s, ok := overviewSection(structure, entities); ok {
		sections = append(sections, s)
	}
	if s, ok := installationSection(structure); ok {
		sections = append(sections, s)
	}
	if s, ok := architectureSection(entities); ok {
		sections = append(sections, s)
	}
	if s, ok := apiReferenceSection(entities); ok {
		sections = append(sections, s)
	}
	return sections
}

func overviewSection(structure analyzer.Structure, entities []entity.CodeEntity) (documentation.Section, bool) {
	stats := structure.Statistics
	if stats.FileCount() == 0 && len(entities) == 0 {
		return documentation.Section{}, false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This repository contains %d files and %d lines of code.\n\n", stats.FileCount(), stats.LineCount())

	breakdown := stats.LanguageBreakdown()
	if len(breakdown) > 0 {
		langs := make([]string, 0, len(breakdown))
		for lang := range breakdown {
			langs = append(langs, lang)
		}
		sort.Slice(langs, func(i, j int) bool {
			return breakdown[langs[i]].FileCount() > breakdown[langs[j]].FileCount()
		})
		b.WriteString("Primary languages:\n")
		for _, lang := range langs {
			stat := breakdown[lang]
			fmt.Fprintf(&b, "- %s: %d files (%.1f%% of lines)\n", lang, stat.FileCount(), stat.Percentage())
		}
	}

	if len(entities) > 0 {
		fmt.Fprintf(&b, "\n%d code entities were extracted from the parseable source in this repository.\n", len(entities))
	}

	return documentation.NewSection(documentation.SectionOverview, "Overview", b.String(), nil), true
}

func installationSection(structure analyzer.Structure) (documentation.Section, bool) {
	if len(structure.Manifests) == 0 {
		return documentation.Section{}, false
	}

	var b strings.Builder
	b.WriteString("This repository declares dependencies through the following manifests:\n\n")
	refs := make([]documentation.CodeReference, 0, len(structure.Manifests))
	for _, m := range structure.Manifests {
		fmt.Fprintf(&b, "- `%s` (%s)\n", m.Path, m.Ecosystem)
		refs = append(refs, documentation.NewCodeReference(m.Path, 0, 0, ""))
	}

	return documentation.NewSection(documentation.SectionInstallation, "Installation", b.String(), refs), true
}

func architectureSection(entities []entity.CodeEntity) (documentation.Section, bool) {
	if len(entities) == 0 {
		return documentation.Section{}, false
	}

	byKind := make(map[entity.Kind]int)
	byLanguage := make(map[string]int)
	byFile := make(map[string]int)
	for _, e := range entities {
		byKind[e.Kind()]++
		byLanguage[e.Language()]++
		byFile[e.FilePath()]++
	}

	var b strings.Builder
	b.WriteString("Code entity breakdown by kind:\n\n")
	kinds := make([]entity.Kind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return byKind[kinds[i]] > byKind[kinds[j]] })
	for _, k := range kinds {
		fmt.Fprintf(&b, "- %s: %d\n", k, byKind[k])
	}

	fmt.Fprintf(&b, "\nSource is spread across %d files and %d languages.\n", len(byFile), len(byLanguage))

	return documentation.NewSection(documentation.SectionArchitecture, "Architecture", b.String(), nil), true
}

func apiReferenceSection(entities []entity.CodeEntity) (documentation.Section, bool) {
	var public []entity.CodeEntity
	for _, e := range entities {
		if e.Kind() == entity.KindFunction || e.Kind() == entity.KindMethod ||
			e.Kind() == entity.KindClass || e.Kind() == entity.KindInterface ||
			e.Kind() == entity.KindStruct {
			public = append(public, e)
		}
	}
	if len(public) == 0 {
		return documentation.Section{}, false
	}

	sort.Slice(public, func(i, j int) bool { return public[i].FullName() < public[j].FullName() })

	const maxListed = 200
	if len(public) > maxListed {
		public = public[:maxListed]
	}

	var b strings.Builder
	refs := make([]documentation.CodeReference, 0, len(public))
	for _, e := range public {
		fmt.Fprintf(&b, "- `%s` (%s) — %s:%d\n", e.FullName(), e.Kind(), e.FilePath(), e.Location().StartLine())
		refs = append(refs, documentation.NewCodeReference(e.FilePath(), e.Location().StartLine(), e.Location().EndLine(), e.EntityID()))
	}

	return documentation.NewSection(documentation.SectionAPIReference, "API Reference", b.String(), refs), true
}
