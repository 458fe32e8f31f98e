package task

import "testing"

func TestOperation_String(t *testing.T) {
	op := OperationExtractCodeEntities
	if op.String() != "sourcelore.ingestion.extract_code_entities" {
		t.Errorf("String() = %q, want %q", op.String(), "sourcelore.ingestion.extract_code_entities")
	}
}

func TestOperation_IsRepositoryOperation(t *testing.T) {
	tests := []struct {
		op   Operation
		want bool
	}{
		{OperationConnectRepository, true},
		{OperationSyncRepository, true},
		{OperationDeleteRepository, true},
		{OperationAnalyzeStructure, false},
		{OperationRoot, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			if got := tt.op.IsRepositoryOperation(); got != tt.want {
				t.Errorf("IsRepositoryOperation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperation_IsIngestionOperation(t *testing.T) {
	tests := []struct {
		op   Operation
		want bool
	}{
		{OperationAnalyzeStructure, true},
		{OperationExtractCodeEntities, true},
		{OperationEmbedCodeEntities, true},
		{OperationBuildKnowledgeGraph, true},
		{OperationIndexFileChunks, true},
		{OperationRescanRepository, true},
		{OperationConnectRepository, false},
		{OperationRoot, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			if got := tt.op.IsIngestionOperation(); got != tt.want {
				t.Errorf("IsIngestionOperation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOperation_IsDocumentationOperation(t *testing.T) {
	tests := []struct {
		op   Operation
		want bool
	}{
		{OperationAnalyzeForDocumentation, true},
		{OperationGenerateDocumentationSections, true},
		{OperationEnrichDocumentationSections, true},
		{OperationIndexDocumentationSections, true},
		{OperationRegenerateDocumentation, true},
		{OperationAnalyzeStructure, false},
		{OperationRoot, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			if got := tt.op.IsDocumentationOperation(); got != tt.want {
				t.Errorf("IsDocumentationOperation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrescribedOperations_All_ContainsAllWorkflows(t *testing.T) {
	po := NewPrescribedOperations(true, true)
	all := po.All()

	if len(all) == 0 {
		t.Fatal("All() should return operations")
	}

	allSet := make(map[Operation]struct{})
	for _, op := range all {
		allSet[op] = struct{}{}
	}

	for _, workflow := range [][]Operation{
		po.IngestRepository(),
		po.RescanRepository(),
		po.GenerateDocumentation(),
		po.RegenerateDocumentation(),
	} {
		for _, op := range workflow {
			if _, ok := allSet[op]; !ok {
				t.Errorf("All() missing operation %v", op)
			}
		}
	}
}

func TestPrescribedOperations_All_NoDuplicates(t *testing.T) {
	po := NewPrescribedOperations(true, true)
	all := po.All()

	seen := make(map[Operation]struct{})
	for _, op := range all {
		if _, ok := seen[op]; ok {
			t.Errorf("All() contains duplicate: %v", op)
		}
		seen[op] = struct{}{}
	}
}

func TestPrescribedOperations_IngestRepository(t *testing.T) {
	ops := NewPrescribedOperations(true, true).IngestRepository()
	if len(ops) == 0 {
		t.Fatal("IngestRepository() should return operations")
	}
	if ops[0] != OperationConnectRepository {
		t.Errorf("first operation = %v, want %v", ops[0], OperationConnectRepository)
	}
}

func TestPrescribedOperations_IngestRepository_EmbeddingsGate(t *testing.T) {
	withEmbeddings := NewPrescribedOperations(true, true).IngestRepository()
	withoutEmbeddings := NewPrescribedOperations(false, true).IngestRepository()

	hasEmbed := func(ops []Operation) bool {
		for _, op := range ops {
			if op == OperationEmbedCodeEntities {
				return true
			}
		}
		return false
	}

	if !hasEmbed(withEmbeddings) {
		t.Error("IngestRepository(embeddings=true) should include EmbedCodeEntities")
	}
	if hasEmbed(withoutEmbeddings) {
		t.Error("IngestRepository(embeddings=false) should not include EmbedCodeEntities")
	}
}

func TestPrescribedOperations_RescanRepository(t *testing.T) {
	ops := NewPrescribedOperations(true, true).RescanRepository()

	if ops[0] != OperationRescanRepository {
		t.Errorf("first operation = %v, want %v", ops[0], OperationRescanRepository)
	}

	hasAnalyze := false
	hasExtract := false
	hasGraph := false
	hasIndex := false
	for _, op := range ops {
		switch op {
		case OperationAnalyzeStructure:
			hasAnalyze = true
		case OperationExtractCodeEntities:
			hasExtract = true
		case OperationBuildKnowledgeGraph:
			hasGraph = true
		case OperationIndexFileChunks:
			hasIndex = true
		}
	}
	if !hasAnalyze {
		t.Error("RescanRepository should include AnalyzeStructure")
	}
	if !hasExtract {
		t.Error("RescanRepository should include ExtractCodeEntities")
	}
	if !hasGraph {
		t.Error("RescanRepository should include BuildKnowledgeGraph")
	}
	if !hasIndex {
		t.Error("RescanRepository should include IndexFileChunks")
	}
}

func TestPrescribedOperations_GenerateDocumentation_EnrichmentGate(t *testing.T) {
	withEnrichment := NewPrescribedOperations(true, true).GenerateDocumentation()
	withoutEnrichment := NewPrescribedOperations(true, false).GenerateDocumentation()

	hasEnrich := func(ops []Operation) bool {
		for _, op := range ops {
			if op == OperationEnrichDocumentationSections {
				return true
			}
		}
		return false
	}

	if !hasEnrich(withEnrichment) {
		t.Error("GenerateDocumentation(enrichment=true) should include EnrichDocumentationSections")
	}
	if hasEnrich(withoutEnrichment) {
		t.Error("GenerateDocumentation(enrichment=false) should not include EnrichDocumentationSections")
	}

	ops := withEnrichment
	if ops[0] != OperationAnalyzeForDocumentation {
		t.Errorf("first operation = %v, want %v", ops[0], OperationAnalyzeForDocumentation)
	}
	if ops[len(ops)-1] != OperationIndexDocumentationSections {
		t.Errorf("last operation = %v, want %v", ops[len(ops)-1], OperationIndexDocumentationSections)
	}
}

func TestPrescribedOperations_RegenerateDocumentation_StartsWithRegenerate(t *testing.T) {
	ops := NewPrescribedOperations(true, true).RegenerateDocumentation()

	if ops[0] != OperationRegenerateDocumentation {
		t.Errorf("first operation = %v, want %v", ops[0], OperationRegenerateDocumentation)
	}
	if ops[len(ops)-1] != OperationIndexDocumentationSections {
		t.Errorf("last operation = %v, want %v", ops[len(ops)-1], OperationIndexDocumentationSections)
	}
}

func TestPrescribedOperations_AllOperationsAreValidConstants(t *testing.T) {
	po := NewPrescribedOperations(true, true)

	validOps := map[Operation]struct{}{
		OperationRoot:                          {},
		OperationRepository:                    {},
		OperationConnectRepository:             {},
		OperationDeleteRepository:              {},
		OperationSyncRepository:                {},
		OperationIngestion:                     {},
		OperationAnalyzeStructure:              {},
		OperationExtractCodeEntities:           {},
		OperationEmbedCodeEntities:             {},
		OperationBuildKnowledgeGraph:           {},
		OperationIndexFileChunks:               {},
		OperationRescanRepository:              {},
		OperationDocumentation:                 {},
		OperationAnalyzeForDocumentation:       {},
		OperationGenerateDocumentationSections: {},
		OperationEnrichDocumentationSections:   {},
		OperationIndexDocumentationSections:    {},
		OperationRegenerateDocumentation:       {},
		OperationConversation:                  {},
		OperationArchiveConversations:           {},
		OperationCleanupConversations:           {},
	}

	for _, op := range po.All() {
		if _, ok := validOps[op]; !ok {
			t.Errorf("prescribed operation %q is not a defined constant", op)
		}
	}
}
