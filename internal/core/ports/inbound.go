package ports

import (
	"context"
	"io"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

// QuestionAnswerer is the inbound contract for the ask pipeline: answer this
// question given this conversation history.
type QuestionAnswerer interface {
	Ask(ctx context.Context, question string, history []domain.Turn) *domain.Answer
}

// DocumentIngestor is the inbound contract for dropping a file into the corpus.
type DocumentIngestor interface {
	Upload(ctx context.Context, corpusPath, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentIndexer is the inbound contract for asynchronous index population.
type DocumentIndexer interface {
	IndexByID(ctx context.Context, documentID string) error
}
