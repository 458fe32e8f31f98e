// Package indexer implements the Content Indexer (C5): it chunks arbitrary
// text content (source files, documentation sections, conversation
// messages) and indexes each chunk for both keyword (BM25) and, when an
// embedding provider is configured, vector search, fusing the two result
// sets with reciprocal rank fusion at query time.
package indexer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/domain/search"
	domainservice "github.com/sourcelore/sourcelore/domain/service"
	"github.com/sourcelore/sourcelore/infrastructure/chunking"
)

// Kind identifies what a chunk's source content is, so a retrieved ID can
// be traced back to the record it came from.
type Kind string

const (
	KindFileChunk            Kind = "file_chunk"
	KindDocumentationSection Kind = "documentation_section"
	KindConversationMessage  Kind = "conversation_message"
)

// ChunkID identifies one indexed chunk and the record it was derived from.
type ChunkID struct {
	Kind     Kind
	SourceID string // e.g. "repositoryID:filePath", a documentation ID, a conversation ID
	ChunkSeq int
}

// String encodes the ChunkID as the opaque snippet ID domain/search stores
// key results by.
func (c ChunkID) String() string {
	return fmt.Sprintf("%s|%s|%d", c.Kind, c.SourceID, c.ChunkSeq)
}

// ParseChunkID decodes a snippet ID produced by ChunkID.String.
func ParseChunkID(raw string) (ChunkID, error) {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) != 3 {
		return ChunkID{}, fmt.Errorf("indexer: malformed chunk id %q", raw)
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil {
		return ChunkID{}, fmt.Errorf("indexer: malformed chunk sequence in %q: %w", raw, err)
	}
	return ChunkID{Kind: Kind(parts[0]), SourceID: parts[1], ChunkSeq: seq}, nil
}

// Indexer chunks and indexes content, and performs fused hybrid search over
// it. The embedding-backed half is optional: when no embedder is
// configured, Search falls back to BM25-only results.
type Indexer struct {
	bm25           *domainservice.BM25
	embedding      domainservice.Embedding
	embeddingStore search.EmbeddingStore
	fusion         *search.Fusion
	chunkParams    chunking.ChunkParams
}

// New creates an Indexer. embedding/embeddingStore may both be nil, in
// which case indexing and search operate on keyword search alone;
// embeddingStore is the same store embedding was built from, kept
// separately because domainservice.Embedding does not expose deletion.
func New(bm25 *domainservice.BM25, embedding domainservice.Embedding, embeddingStore search.EmbeddingStore, chunkParams chunking.ChunkParams) *Indexer {
	return &Indexer{
		bm25:           bm25,
		embedding:      embedding,
		embeddingStore: embeddingStore,
		fusion:         search.NewFusion(),
		chunkParams:    chunkParams,
	}
}

// Upsert chunks text and indexes every chunk under the given kind/sourceID,
// returning the number of chunks written. Callers that may re-chunk the
// same source later (e.g. on a rescan) should pass the previous chunk count
// to DeleteBySource first, since neither store can enumerate IDs by prefix.
// Indexing is idempotent for BM25 (re-indexing overwrites by ID) and
// deduplicating for embeddings (domainservice.Embedding.Index skips chunks
// whose ID already exists).
func (idx *Indexer) Upsert(ctx context.Context, kind Kind, sourceID, text string) (int, error) {
	chunks, err := chunking.NewTextChunks(text, idx.chunkParams)
	if err != nil {
		return 0, fmt.Errorf("chunk content: %w", err)
	}

	docs := make([]search.Document, 0, len(chunks.All()))
	for seq, chunk := range chunks.All() {
		id := ChunkID{Kind: kind, SourceID: sourceID, ChunkSeq: seq}
		docs = append(docs, search.NewDocument(id.String(), chunk.Content()))
	}
	if len(docs) == 0 {
		return 0, nil
	}

	request := search.NewIndexRequest(docs)
	if err := idx.bm25.Index(ctx, request); err != nil {
		return 0, fmt.Errorf("bm25 index: %w", err)
	}
	if idx.embedding != nil {
		if err := idx.embedding.Index(ctx, request); err != nil {
			return 0, fmt.Errorf("embedding index: %w", err)
		}
	}
	return len(docs), nil
}

// DeleteBySource removes the first chunkCount indexed chunks for a given
// kind/sourceID — the count a prior Upsert (or persisted chunk-count
// tracking) reported.
func (idx *Indexer) DeleteBySource(ctx context.Context, kind Kind, sourceID string, chunkCount int) error {
	if chunkCount <= 0 {
		return nil
	}
	ids := make([]string, chunkCount)
	for seq := 0; seq < chunkCount; seq++ {
		ids[seq] = ChunkID{Kind: kind, SourceID: sourceID, ChunkSeq: seq}.String()
	}
	if err := idx.bm25.DeleteBy(ctx, search.WithSnippetIDs(ids)); err != nil {
		return fmt.Errorf("bm25 delete: %w", err)
	}
	if idx.embeddingStore != nil {
		if err := idx.embeddingStore.DeleteBy(ctx, search.WithSnippetIDs(ids)); err != nil {
			return fmt.Errorf("embedding delete: %w", err)
		}
	}
	return nil
}

// Hit is one fused search result, resolved back to its originating record.
// LexicalScore and VectorScore are the pre-fusion scores from each method
// that contributed (zero if that method found nothing or was not
// configured), kept separate so callers can apply their own weighting
// on top of the RRF fusion Indexer itself uses to rank.
type Hit struct {
	ChunkID      ChunkID
	Score        float64
	LexicalScore float64
	VectorScore  float64
}

// Search performs BM25 search and, if an embedder is configured, vector
// search, then fuses both result lists with reciprocal rank fusion. kinds
// restricts results to the given content kinds; pass none to search across
// all indexed content.
func (idx *Indexer) Search(ctx context.Context, query string, topK int, kinds ...Kind) ([]Hit, error) {
	bm25Results, err := idx.bm25.Find(ctx, query, repository.WithLimit(topK*4))
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}

	lists := [][]search.FusionRequest{toFusionRequests(bm25Results)}

	if idx.embedding != nil {
		vecResults, err := idx.embedding.Find(ctx, query, repository.WithLimit(topK*4))
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		lists = append(lists, toFusionRequests(vecResults))
	}

	fused := idx.fusion.FuseTopK(topK*len(kindsOrAll(kinds)), lists...)

	hits := make([]Hit, 0, len(fused))
	for _, f := range fused {
		chunkID, err := ParseChunkID(f.ID())
		if err != nil {
			continue
		}
		if len(kinds) > 0 && !containsKind(kinds, chunkID.Kind) {
			continue
		}
		original := f.OriginalScores()
		hit := Hit{ChunkID: chunkID, Score: f.Score()}
		if len(original) > 0 {
			hit.LexicalScore = original[0]
		}
		if len(original) > 1 {
			hit.VectorScore = original[1]
		}
		hits = append(hits, hit)
		if len(hits) >= topK {
			break
		}
	}
	return hits, nil
}

func toFusionRequests(results []search.Result) []search.FusionRequest {
	requests := make([]search.FusionRequest, len(results))
	for i, r := range results {
		requests[i] = search.NewFusionRequest(r.SnippetID(), r.Score())
	}
	return requests
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func kindsOrAll(kinds []Kind) []Kind {
	if len(kinds) == 0 {
		return []Kind{KindFileChunk, KindDocumentationSection, KindConversationMessage}
	}
	return kinds
}
