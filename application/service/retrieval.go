package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcelore/sourcelore/domain/conversation"
	"github.com/sourcelore/sourcelore/domain/documentation"
	"github.com/sourcelore/sourcelore/domain/entity"
	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/domain/search"
	domainservice "github.com/sourcelore/sourcelore/domain/service"
	"github.com/sourcelore/sourcelore/infrastructure/indexer"

	"golang.org/x/sync/errgroup"
)

const (
	// summarizationThreshold is the message-history length past which
	// retrieveRelevantContext folds a running summary of older turns into
	// the search query instead of just the raw query text.
	summarizationThreshold = 12

	// recentTurnsLimit caps how many of the most recent messages
	// buildContextPrompt includes verbatim, per spec.md §4.8.
	recentTurnsLimit = 20

	// defaultMaxPromptChars is the character-budget equivalent of the
	// spec's default 12,000-token prompt ceiling, at the same ~3
	// chars/token ratio domain/search.DefaultTokenBudget already assumes.
	defaultMaxPromptChars = 36000

	// crossRepositoryFanout bounds how many per-repository retrievals
	// buildCrossRepositoryContext runs concurrently.
	crossRepositoryFanout = 4
)

// architectureBoostIntents are the intents for which retrieveRelevantContext
// additionally merges related CodeEntitys and ArchitecturalPatterns from the
// knowledge graph (C4) into the evidence set, per spec.md §4.8 step 5.
var architectureBoostIntents = map[search.Intent]bool{
	search.IntentArchitecturalQuery:  true,
	search.IntentFindImplementation: true,
}

// Evidence is one piece of retrieved context backing a conversational
// answer: an indexed chunk resolved back to its source record, scored for
// relevance to a specific query and intent.
type Evidence struct {
	title          string
	filePath       string
	line           int
	snippet        string
	relevanceScore float64
	repositoryID   int64
	evidenceType   search.EvidenceType
	provenance     string
}

func (e Evidence) Title() string                    { return e.title }
func (e Evidence) FilePath() string                  { return e.filePath }
func (e Evidence) Line() int                         { return e.line }
func (e Evidence) Snippet() string                   { return e.snippet }
func (e Evidence) RelevanceScore() float64           { return e.relevanceScore }
func (e Evidence) RepositoryID() int64               { return e.repositoryID }
func (e Evidence) Type() search.EvidenceType         { return e.evidenceType }
func (e Evidence) Provenance() string                { return e.provenance }

// RepositoryContext is one repository's slice of a cross-repository
// retrieval: its own evidence plus how it was scoped.
type RepositoryContext struct {
	RepositoryID int64
	Evidence     []Evidence
}

// CrossRepositoryContext is the result of buildCrossRepositoryContext: one
// RepositoryContext per requested repository, plus a short LLM-produced
// comparative summary of patterns and differences across them.
type CrossRepositoryContext struct {
	Repositories []RepositoryContext
	Summary      string
}

// Retrieval implements the Retrieval Service (C8): hybrid search over the
// Content Indexer (C5), reranked by a weighted blend of lexical, vector,
// and intent-dependent type-boost scores, augmented with related code
// entities and architectural patterns from the Graph Builder (C4) for
// intents that call for them, and assembled into a token-budgeted prompt.
type Retrieval struct {
	indexer             *indexer.Indexer
	documentationStore  documentation.Store
	entityStore         entity.EntityStore
	graph               *Graph
	summarizer          domainservice.Enricher
	maxPromptChars      int
}

// NewRetrieval creates a new Retrieval service. summarizer may be nil, in
// which case buildCrossRepositoryContext skips the comparative summary.
// maxPromptChars <= 0 uses defaultMaxPromptChars.
func NewRetrieval(
	idx *indexer.Indexer,
	documentationStore documentation.Store,
	entityStore entity.EntityStore,
	graph *Graph,
	summarizer domainservice.Enricher,
	maxPromptChars int,
) *Retrieval {
	if maxPromptChars <= 0 {
		maxPromptChars = defaultMaxPromptChars
	}
	return &Retrieval{
		indexer:            idx,
		documentationStore: documentationStore,
		entityStore:        entityStore,
		graph:              graph,
		summarizer:         summarizer,
		maxPromptChars:     maxPromptChars,
	}
}

// RetrieveRelevantContext resolves a conversational query into the evidence
// used to ground an answer:
//  1. the query is expanded with a digest of older conversation turns once
//     history grows past summarizationThreshold;
//  2. hybrid search runs over k = min(maxResults*2, 50) candidates;
//  3. each hit is reranked by 0.6*vectorScore + 0.3*lexicalScore +
//     0.1*typeBoost(intent, evidenceType);
//  4. for intents in architectureBoostIntents, related CodeEntitys and
//     ArchitecturalPatterns are merged in from the knowledge graph;
//  5. the top maxResults, sorted by relevance, are returned.
//
// Intent classification itself is the Conversational AI Service's (C9)
// responsibility; callers pass the already-classified intent in.
func (r *Retrieval) RetrieveRelevantContext(
	ctx context.Context,
	query string,
	convCtx conversation.Context,
	intent search.Intent,
	history []conversation.Message,
	maxResults int,
) ([]Evidence, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	k := maxResults * 2
	if k > 50 {
		k = 50
	}

	expanded := expandQuery(query, history)

	hits, err := r.indexer.Search(ctx, expanded, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve relevant context: hybrid search: %w", err)
	}

	allowed := repositorySet(convCtx.RepositoryIDs())

	evidence := make([]Evidence, 0, len(hits))
	for _, hit := range hits {
		ev, ok, err := r.resolveHit(ctx, hit)
		if err != nil {
			return nil, fmt.Errorf("retrieve relevant context: resolve hit: %w", err)
		}
		if !ok {
			continue
		}
		if len(allowed) > 0 && !allowed[ev.repositoryID] {
			continue
		}
		ev.relevanceScore = rerank(hit, intent, ev.evidenceType)
		evidence = append(evidence, ev)
	}

	if architectureBoostIntents[intent] {
		related, err := r.relatedGraphEvidence(ctx, convCtx.RepositoryIDs())
		if err != nil {
			return nil, fmt.Errorf("retrieve relevant context: related graph evidence: %w", err)
		}
		evidence = append(evidence, related...)
	}

	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].relevanceScore > evidence[j].relevanceScore
	})
	if len(evidence) > maxResults {
		evidence = evidence[:maxResults]
	}
	return evidence, nil
}

// rerank applies the weighted blend of pre-fusion scores and the
// intent-dependent type boost; the fused RRF score Indexer.Search itself
// produced is discarded in favor of this spec-mandated formula.
func rerank(hit indexer.Hit, intent search.Intent, evidenceType search.EvidenceType) float64 {
	return 0.6*hit.VectorScore + 0.3*hit.LexicalScore + 0.1*search.TypeBoost(intent, evidenceType)
}

// expandQuery folds a digest of older conversation turns into the search
// query once history grows past summarizationThreshold, so retrieval keeps
// tracking what the conversation is actually about instead of drifting
// toward whatever the latest message alone says. Below the threshold the
// query is returned unchanged.
func expandQuery(query string, history []conversation.Message) string {
	if len(history) <= summarizationThreshold {
		return query
	}
	older := history[:len(history)-summarizationThreshold]
	var digest strings.Builder
	for _, msg := range older {
		if msg.Type() != conversation.MessageTypeUserQuery {
			continue
		}
		digest.WriteString(msg.Content())
		digest.WriteString(" ")
	}
	if digest.Len() == 0 {
		return query
	}
	return digest.String() + query
}

func (r *Retrieval) resolveHit(ctx context.Context, hit indexer.Hit) (Evidence, bool, error) {
	switch hit.ChunkID.Kind {
	case indexer.KindDocumentationSection:
		return r.resolveDocumentationHit(ctx, hit)
	case indexer.KindFileChunk:
		return r.resolveFileChunkHit(ctx, hit)
	default:
		// Conversation-message chunks are retrieval-indexed so a
		// conversation's own history is searchable, but they are not
		// surfaced as grounding evidence for a *different* answer.
		return Evidence{}, false, nil
	}
}

// resolveDocumentationHit resolves a documentation_section hit. SourceID
// is "repositoryID:sectionType", the convention application/service's
// documentation indexing establishes when it calls Indexer.Upsert.
func (r *Retrieval) resolveDocumentationHit(ctx context.Context, hit indexer.Hit) (Evidence, bool, error) {
	repositoryID, sectionType, err := splitDocumentationSourceID(hit.ChunkID.SourceID)
	if err != nil {
		return Evidence{}, false, nil
	}
	doc, err := r.documentationStore.FindOne(ctx, documentation.WithRepositoryID(repositoryID))
	if err != nil {
		return Evidence{}, false, nil
	}
	section, ok := doc.Section(sectionType)
	if !ok {
		return Evidence{}, false, nil
	}
	return Evidence{
		title:        string(sectionType),
		filePath:     "",
		line:         0,
		snippet:      section.Content(),
		repositoryID: repositoryID,
		evidenceType: documentationEvidenceType(sectionType),
		provenance:   fmt.Sprintf("documentation:%s", sectionType),
	}, true, nil
}

// resolveFileChunkHit resolves a file_chunk hit. SourceID is
// "repositoryID:filePath" (for entity chunks, "repositoryID:entityID"), as
// written by the Ingestion Orchestrator's IndexFileChunksHandler and
// EmbedCodeEntitiesHandler. The hit carries no chunk text, so the evidence
// snippet is taken from the first CodeEntity found on the same file path;
// when none is found the evidence names the file with an empty snippet.
func (r *Retrieval) resolveFileChunkHit(ctx context.Context, hit indexer.Hit) (Evidence, bool, error) {
	repositoryID, filePath, err := splitFileChunkSourceID(hit.ChunkID.SourceID)
	if err != nil {
		return Evidence{}, false, nil
	}
	entities, err := r.entityStore.Find(ctx, entity.WithRepositoryID(repositoryID), entity.WithFilePath(filePath), repository.WithLimit(1))
	if err != nil {
		return Evidence{}, false, nil
	}
	if len(entities) == 0 {
		return Evidence{
			title:        filePath,
			filePath:     filePath,
			repositoryID: repositoryID,
			evidenceType: search.EvidenceSourceCode,
			provenance:   fmt.Sprintf("file:%s", filePath),
		}, true, nil
	}
	e := entities[0]
	return Evidence{
		title:        e.FullName(),
		filePath:     e.FilePath(),
		line:         e.Location().StartLine(),
		snippet:      e.Content(),
		repositoryID: e.RepositoryID(),
		evidenceType: search.EvidenceSourceCode,
		provenance:   fmt.Sprintf("code:%s", e.EntityID()),
	}, true, nil
}

// relatedGraphEvidence surfaces CodeEntitys and ArchitecturalPatterns from
// the knowledge graph for architecture- and implementation-shaped queries,
// per spec.md §4.8 step 5. It is a coarse pass (the top entities and
// patterns for each repository) rather than a relevance-scored one, since
// the graph has no notion of query similarity of its own.
func (r *Retrieval) relatedGraphEvidence(ctx context.Context, repositoryIDs []int64) ([]Evidence, error) {
	if r.graph == nil {
		return nil, nil
	}
	var evidence []Evidence
	for _, repositoryID := range repositoryIDs {
		patterns, err := r.graph.Patterns(ctx, repositoryID)
		if err != nil {
			return nil, fmt.Errorf("patterns for repository %d: %w", repositoryID, err)
		}
		for _, p := range patterns {
			evidence = append(evidence, Evidence{
				title:        p.Name(),
				snippet:      strings.Join(p.Characteristics(), "; "),
				relevanceScore: p.Confidence(),
				repositoryID: repositoryID,
				evidenceType: search.EvidenceOverview,
				provenance:   fmt.Sprintf("pattern:%s", p.Type()),
			})
		}

		entities, err := r.entityStore.Find(ctx, entity.WithRepositoryID(repositoryID), repository.WithLimit(5))
		if err != nil {
			return nil, fmt.Errorf("entities for repository %d: %w", repositoryID, err)
		}
		for _, e := range entities {
			evidence = append(evidence, Evidence{
				title:        e.FullName(),
				filePath:     e.FilePath(),
				line:         e.Location().StartLine(),
				snippet:      e.Content(),
				relevanceScore: e.Metadata().ComplexityScore(),
				repositoryID: e.RepositoryID(),
				evidenceType: search.EvidenceSourceCode,
				provenance:   fmt.Sprintf("code:%s", e.EntityID()),
			})
		}
	}
	return evidence, nil
}

// BuildContextPrompt composes the five-section prompt template: system
// guidance, repository context summary, top-K evidence, recent turns (last
// <= 20), and the user query. When the assembled prompt exceeds
// maxPromptChars, the oldest messages are dropped first, then the
// lowest-scored evidence, generalizing domain/search.TokenBudget's
// truncate-to-fit approach from embedding batches to prompt assembly.
func (r *Retrieval) BuildContextPrompt(
	query string,
	evidence []Evidence,
	history []conversation.Message,
	convCtx conversation.Context,
) string {
	evidence = append([]Evidence{}, evidence...)
	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].relevanceScore > evidence[j].relevanceScore
	})

	recent := history
	if len(recent) > recentTurnsLimit {
		recent = recent[len(recent)-recentTurnsLimit:]
	}
	recent = append([]conversation.Message{}, recent...)

	for {
		prompt := renderPrompt(query, evidence, recent, convCtx)
		if len(prompt) <= r.maxPromptChars {
			return prompt
		}
		switch {
		case len(recent) > 0:
			recent = recent[1:]
		case len(evidence) > 0:
			evidence = evidence[:len(evidence)-1]
		default:
			return prompt[:r.maxPromptChars]
		}
	}
}

func renderPrompt(query string, evidence []Evidence, recent []conversation.Message, convCtx conversation.Context) string {
	var b strings.Builder

	b.WriteString("[System guidance]\n")
	b.WriteString("You are a grounded technical assistant. Answer only from the evidence provided; say so when the evidence does not cover the question.\n\n")

	b.WriteString("[Repository context]\n")
	if domain := convCtx.Domain(); domain != "" {
		fmt.Fprintf(&b, "Domain: %s\n", domain)
	}
	if hint := convCtx.IntentHint(); hint != "" {
		fmt.Fprintf(&b, "Hint: %s\n", hint)
	}
	fmt.Fprintf(&b, "Repositories: %v\n\n", convCtx.RepositoryIDs())

	b.WriteString("[Evidence]\n")
	for i, ev := range evidence {
		fmt.Fprintf(&b, "%d. %s", i+1, ev.title)
		if ev.filePath != "" {
			fmt.Fprintf(&b, " (%s:%d)", ev.filePath, ev.line)
		}
		b.WriteString("\n")
		b.WriteString(ev.snippet)
		b.WriteString("\n\n")
	}

	if len(recent) > 0 {
		b.WriteString("[Recent turns]\n")
		for _, msg := range recent {
			fmt.Fprintf(&b, "%s: %s\n", msg.Type(), msg.Content())
		}
		b.WriteString("\n")
	}

	b.WriteString("[User query]\n")
	b.WriteString(query)
	return b.String()
}

// BuildCrossRepositoryContext runs one retrieval per repository with
// bounded parallelism, groups evidence by repository, and — when a
// summarizer is configured — asks the LLM for a short comparison of
// patterns and differences across them. The total evidence returned is
// capped at 3*perRepo.
func (r *Retrieval) BuildCrossRepositoryContext(
	ctx context.Context,
	query string,
	repositoryIDs []int64,
	intent search.Intent,
	perRepo int,
) (CrossRepositoryContext, error) {
	if perRepo <= 0 {
		perRepo = 5
	}

	results := make([]RepositoryContext, len(repositoryIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(crossRepositoryFanout)

	for i, repositoryID := range repositoryIDs {
		i, repositoryID := i, repositoryID
		group.Go(func() error {
			scoped := conversation.NewContext([]int64{repositoryID}, "", "", nil)
			evidence, err := r.RetrieveRelevantContext(groupCtx, query, scoped, intent, nil, perRepo)
			if err != nil {
				return fmt.Errorf("repository %d: %w", repositoryID, err)
			}
			results[i] = RepositoryContext{RepositoryID: repositoryID, Evidence: evidence}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return CrossRepositoryContext{}, fmt.Errorf("build cross-repository context: %w", err)
	}

	evidenceCap := perRepo * 3
	total := 0
	for i := range results {
		remaining := evidenceCap - total
		if remaining <= 0 {
			results[i].Evidence = nil
			continue
		}
		if len(results[i].Evidence) > remaining {
			results[i].Evidence = results[i].Evidence[:remaining]
		}
		total += len(results[i].Evidence)
	}

	summary, err := r.summarizeAcrossRepositories(ctx, query, results)
	if err != nil {
		return CrossRepositoryContext{}, err
	}
	return CrossRepositoryContext{Repositories: results, Summary: summary}, nil
}

const crossRepositorySystemPrompt = `
You compare software repositories. You will be given evidence gathered independently from each repository for the same query. Identify common patterns and notable differences in two or three sentences.
`

func (r *Retrieval) summarizeAcrossRepositories(ctx context.Context, query string, results []RepositoryContext) (string, error) {
	if r.summarizer == nil {
		return "", nil
	}
	var report strings.Builder
	fmt.Fprintf(&report, "Query: %s\n\n", query)
	for _, rc := range results {
		fmt.Fprintf(&report, "Repository %d:\n", rc.RepositoryID)
		for _, ev := range rc.Evidence {
			fmt.Fprintf(&report, "- %s: %s\n", ev.title, truncate(ev.snippet, 200))
		}
		report.WriteString("\n")
	}

	responses, err := r.summarizer.Enrich(ctx, []domainservice.EnrichmentRequest{
		domainservice.NewEnrichmentRequest(query, report.String(), crossRepositorySystemPrompt),
	})
	if err != nil {
		return "", fmt.Errorf("summarize across repositories: %w", err)
	}
	if len(responses) == 0 {
		return "", nil
	}
	return responses[0].Text(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func repositorySet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func splitDocumentationSourceID(sourceID string) (int64, documentation.SectionType, error) {
	parts := strings.SplitN(sourceID, ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("malformed documentation source id %q", sourceID)
	}
	repositoryID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed documentation source id %q: %w", sourceID, err)
	}
	return repositoryID, documentation.SectionType(parts[1]), nil
}

func splitFileChunkSourceID(sourceID string) (int64, string, error) {
	parts := strings.SplitN(sourceID, ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("malformed file chunk source id %q", sourceID)
	}
	repositoryID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed file chunk source id %q: %w", sourceID, err)
	}
	return repositoryID, parts[1], nil
}

func documentationEvidenceType(sectionType documentation.SectionType) search.EvidenceType {
	switch sectionType {
	case documentation.SectionOverview, documentation.SectionArchitecture:
		return search.EvidenceOverview
	case documentation.SectionUsage, documentation.SectionGettingStarted, documentation.SectionConfiguration, documentation.SectionDeployment:
		return search.EvidenceUsage
	case documentation.SectionAPIReference:
		return search.EvidenceAPIReference
	case documentation.SectionExamples, documentation.SectionTesting:
		return search.EvidenceExamples
	default:
		return search.EvidenceOverview
	}
}
