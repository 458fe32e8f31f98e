package task

import "strings"

// Operation represents the type of task operation.
type Operation string

// Operation values for the task queue system.
const (
	OperationRoot Operation = "sourcelore.root"

	OperationRepository        Operation = "sourcelore.repository"
	OperationConnectRepository Operation = "sourcelore.repository.connect"
	OperationDeleteRepository  Operation = "sourcelore.repository.delete"
	OperationSyncRepository    Operation = "sourcelore.repository.sync"

	OperationIngestion              Operation = "sourcelore.ingestion"
	OperationAnalyzeStructure       Operation = "sourcelore.ingestion.analyze_structure"
	OperationExtractCodeEntities    Operation = "sourcelore.ingestion.extract_code_entities"
	OperationEmbedCodeEntities      Operation = "sourcelore.ingestion.embed_code_entities"
	OperationBuildKnowledgeGraph    Operation = "sourcelore.ingestion.build_knowledge_graph"
	OperationIndexFileChunks        Operation = "sourcelore.ingestion.index_file_chunks"
	OperationRescanRepository       Operation = "sourcelore.ingestion.rescan"

	OperationDocumentation                  Operation = "sourcelore.documentation"
	OperationAnalyzeForDocumentation         Operation = "sourcelore.documentation.analyze"
	OperationGenerateDocumentationSections   Operation = "sourcelore.documentation.generate_sections"
	OperationEnrichDocumentationSections     Operation = "sourcelore.documentation.enrich_sections"
	OperationIndexDocumentationSections      Operation = "sourcelore.documentation.index_sections"
	OperationRegenerateDocumentation         Operation = "sourcelore.documentation.regenerate"

	OperationConversation         Operation = "sourcelore.conversation"
	OperationArchiveConversations Operation = "sourcelore.conversation.archive"
	OperationCleanupConversations Operation = "sourcelore.conversation.cleanup"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// IsRepositoryOperation returns true if this is a repository-level operation.
func (o Operation) IsRepositoryOperation() bool {
	return strings.HasPrefix(string(o), "sourcelore.repository.")
}

// IsIngestionOperation returns true if this is an ingestion-pipeline operation.
func (o Operation) IsIngestionOperation() bool {
	return strings.HasPrefix(string(o), "sourcelore.ingestion.")
}

// IsDocumentationOperation returns true if this is a documentation-generation operation.
func (o Operation) IsDocumentationOperation() bool {
	return strings.HasPrefix(string(o), "sourcelore.documentation.")
}

// PrescribedOperations provides predefined operation sequences for common workflows.
type PrescribedOperations struct {
	embeddings bool
	enrichment bool
}

// NewPrescribedOperations creates a PrescribedOperations with the given settings.
// embeddings gates embedding-dependent steps (only runs if an embedding provider
// is configured); enrichment gates the Documentation Generator's optional
// "Enriching" phase (only runs if an LLM provider is configured).
func NewPrescribedOperations(embeddings, enrichment bool) PrescribedOperations {
	return PrescribedOperations{embeddings: embeddings, enrichment: enrichment}
}

// All returns every operation that appears in any prescribed workflow.
// Used at startup to validate that all required handlers are registered.
func (p PrescribedOperations) All() []Operation {
	seen := make(map[Operation]struct{})
	var all []Operation

	for _, ops := range [][]Operation{
		p.IngestRepository(),
		p.RescanRepository(),
		p.GenerateDocumentation(),
		p.RegenerateDocumentation(),
	} {
		for _, op := range ops {
			if _, ok := seen[op]; !ok {
				seen[op] = struct{}{}
				all = append(all, op)
			}
		}
	}
	return all
}

// IngestRepository returns the operation sequence run by the Ingestion
// Orchestrator (C10) for a newly connected repository: C2 analysis, C3
// extraction (and embedding, if configured), C4 graph build, C5 indexing.
func (p PrescribedOperations) IngestRepository() []Operation {
	ops := []Operation{
		OperationConnectRepository,
		OperationAnalyzeStructure,
		OperationExtractCodeEntities,
	}
	if p.embeddings {
		ops = append(ops, OperationEmbedCodeEntities)
	}
	return append(ops, OperationBuildKnowledgeGraph, OperationIndexFileChunks)
}

// RescanRepository returns the operation sequence for reindexing a repository
// whose structure has changed since the last run.
func (p PrescribedOperations) RescanRepository() []Operation {
	ops := []Operation{
		OperationRescanRepository,
		OperationAnalyzeStructure,
		OperationExtractCodeEntities,
	}
	if p.embeddings {
		ops = append(ops, OperationEmbedCodeEntities)
	}
	return append(ops, OperationBuildKnowledgeGraph, OperationIndexFileChunks)
}

// GenerateDocumentation returns the operation sequence for the Documentation
// Generator's (C6) state machine: Analyzing, GeneratingContent,
// [Enriching], Indexing.
func (p PrescribedOperations) GenerateDocumentation() []Operation {
	ops := []Operation{
		OperationAnalyzeForDocumentation,
		OperationGenerateDocumentationSections,
	}
	if p.enrichment {
		ops = append(ops, OperationEnrichDocumentationSections)
	}
	return append(ops, OperationIndexDocumentationSections)
}

// RegenerateDocumentation returns the operation sequence run when a
// Documentation moves from UpdateRequired back through the pipeline.
func (p PrescribedOperations) RegenerateDocumentation() []Operation {
	ops := []Operation{OperationRegenerateDocumentation, OperationAnalyzeForDocumentation, OperationGenerateDocumentationSections}
	if p.enrichment {
		ops = append(ops, OperationEnrichDocumentationSections)
	}
	return append(ops, OperationIndexDocumentationSections)
}
