package ports

import (
	"context"
	"io"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

// IntentModel classifies a query into one knowledge-domain category with a
// single constrained model call.
type IntentModel interface {
	ClassifyIntent(ctx context.Context, question string) (domain.Intent, error)
}

// Embedder builds vectors for passage text and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SearchIndex is the document index. Search issues one hybrid query: lexical
// scoring on text, nearest-neighbour on queryVector (nil means keyword-only),
// the filter as a pre-filter, and engine-side semantic re-ranking. Results
// come back ordered by the engine's re-ranked score.
type SearchIndex interface {
	Search(ctx context.Context, queryText string, queryVector []float32, filter domain.FilterNode, limit int) ([]domain.RetrievedPassage, error)
	UpsertPassages(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
}

// AnswerGenerator produces the user-facing text. GenerateAnswer grounds the
// reply in the supplied passages; GenerateReply handles conversational turns
// with no document context.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, passages []domain.RetrievedPassage, history []domain.Turn) (string, error)
	GenerateReply(ctx context.Context, question string, history []domain.Turn) (string, error)
}

// ConversationStore persists chat history per session. History persistence is
// a caller-side concern; the ask pipeline only reads what it is handed.
type ConversationStore interface {
	AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error
	ListRecentTurns(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error)
}

// DocumentRepository persists ingestion-side document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// ObjectStorage stores dropped source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document-ingested events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits extracted text into indexable passages.
type Chunker interface {
	Split(text string) []string
}
