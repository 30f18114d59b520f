package usecase

import (
	"context"
	"log/slog"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
	"github.com/knowledgeport/corpus-assistant/internal/core/ports"
)

// Retriever issues the single hybrid query: lexical + vector + engine-side
// semantic re-rank, constrained by the supplied filter.
type Retriever struct {
	embedder ports.Embedder
	index    ports.SearchIndex
}

func NewRetriever(embedder ports.Embedder, index ports.SearchIndex) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Search embeds the query and runs one filtered hybrid search. An embedding
// failure is not fatal: retrieval degrades to keyword-only scoring. An index
// failure propagates as a typed retrieval error for the orchestrator to turn
// into an "insufficient information" answer.
func (r *Retriever) Search(ctx context.Context, queryText string, filter domain.FilterNode, limit int) ([]domain.RetrievedPassage, error) {
	if limit <= 0 {
		limit = 10
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		slog.Warn("query_embedding_failed_keyword_only", "error", err)
		queryVector = nil
	}

	passages, err := r.index.Search(ctx, queryText, queryVector, filter, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrieval, "hybrid search", err)
	}
	return passages, nil
}
