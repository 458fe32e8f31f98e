package service

import (
	"context"

	"github.com/sourcelore/sourcelore/domain/documentation"
	"github.com/sourcelore/sourcelore/infrastructure/eventbus"
)

// DocumentationCompleted is published on the event bus (C11) once the
// Documentation Generator (C6) reaches Completed, carrying the
// repository it documents and the quality score it settled on.
type DocumentationCompleted struct {
	RepositoryID int64
	QualityScore float64
}

// GenerateDocumentationHandler drives the Documentation Generator's (C6)
// full pipeline — Analyze, Generate, [Enrich], Index, Complete — for a
// repository. It is registered against OperationAnalyzeForDocumentation,
// the first operation in both task.PrescribedOperations.GenerateDocumentation
// and RegenerateDocumentation; Documentation.Generate runs every
// remaining phase of that sequence in one pass, so the later operations
// in the sequence are handled by documentationNoopHandler.
type GenerateDocumentationHandler struct {
	ing *Ingestion
	doc *Documentation
	bus *eventbus.Bus
}

// NewGenerateDocumentationHandler creates a handler for documentation
// generation. ing supplies the repository lookup and the cloned source
// tree to re-analyze; bus may be nil.
func NewGenerateDocumentationHandler(ing *Ingestion, doc *Documentation, bus *eventbus.Bus) *GenerateDocumentationHandler {
	return &GenerateDocumentationHandler{ing: ing, doc: doc, bus: bus}
}

func (h *GenerateDocumentationHandler) Execute(ctx context.Context, payload map[string]any) error {
	id, err := h.ing.repositoryID(payload)
	if err != nil {
		return err
	}

	repo, err := h.ing.loadRepository(ctx, id)
	if err != nil {
		return err
	}

	structure, err := h.ing.analyze(ctx, repo)
	if err != nil {
		return err
	}

	doc, err := h.doc.FindOrCreate(ctx, id)
	if err != nil {
		return err
	}

	doc, err = h.doc.Generate(ctx, doc, structure)
	if h.bus != nil && doc.Status() == documentation.StatusCompleted {
		h.bus.Publish(eventbus.TopicDocumentationCompleted, DocumentationCompleted{
			RepositoryID: doc.RepositoryID(),
			QualityScore: doc.QualityScore(),
		})
	}
	return err
}

// documentationNoopHandler satisfies a registered Operation that
// GenerateDocumentationHandler already fully handles as part of its
// single-pass pipeline. It exists so every operation named by
// task.PrescribedOperations.GenerateDocumentation/RegenerateDocumentation
// resolves to a registered Handler, as validateHandlers requires.
type documentationNoopHandler struct{}

// NewDocumentationNoopHandler returns a Handler that does nothing.
func NewDocumentationNoopHandler() *documentationNoopHandler {
	return &documentationNoopHandler{}
}

func (documentationNoopHandler) Execute(context.Context, map[string]any) error { return nil }

// RegenerateDocumentationHandler transitions a Completed or
// UpdateRequired Documentation back through the full pipeline, then
// delegates to the same Generate call GenerateDocumentationHandler uses.
type RegenerateDocumentationHandler struct {
	inner *GenerateDocumentationHandler
}

// NewRegenerateDocumentationHandler creates a handler for
// OperationRegenerateDocumentation.
func NewRegenerateDocumentationHandler(ing *Ingestion, doc *Documentation, bus *eventbus.Bus) *RegenerateDocumentationHandler {
	return &RegenerateDocumentationHandler{inner: NewGenerateDocumentationHandler(ing, doc, bus)}
}

func (h *RegenerateDocumentationHandler) Execute(ctx context.Context, payload map[string]any) error {
	return h.inner.Execute(ctx, payload)
}
