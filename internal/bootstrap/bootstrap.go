package bootstrap

import (
	"context"
	"fmt"

	"github.com/knowledgeport/corpus-assistant/internal/config"
	"github.com/knowledgeport/corpus-assistant/internal/core/ports"
	"github.com/knowledgeport/corpus-assistant/internal/core/usecase"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/chunking"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/llm/openaichat"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/queue/nats"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/repository/postgres"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/resilience"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/search/azsearch"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Queue         ports.MessageQueue
	Repo          ports.DocumentRepository
	Conversations ports.ConversationStore
	IngestUC      ports.DocumentIngestor
	IndexUC       ports.DocumentIndexer
	AskUC         ports.QuestionAnswerer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	conversations := postgres.NewConversationRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	// One executor serves every outbound dependency; breakers stay isolated
	// per operation inside it.
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	llmClient := openaichat.NewWithOptions(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMChatModel, cfg.LLMEmbedModel, openaichat.Options{
		ResilienceExecutor: executor,
	})
	classifier := openaichat.NewClassifier(llmClient)
	embedder := openaichat.NewEmbedder(llmClient)
	generator := openaichat.NewGenerator(llmClient)

	searchIndex := azsearch.NewWithOptions(cfg.SearchEndpoint, cfg.SearchIndex, cfg.SearchAPIKey, azsearch.Options{
		SemanticConfig:     cfg.SearchSemanticConfig,
		ResilienceExecutor: executor,
	})

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := plaintext.NewExtractor(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	indexUC := usecase.NewIndexDocumentUseCase(repo, extractor, chunker, embedder, searchIndex)

	metadataExtractor := usecase.NewMetadataExtractor()
	retriever := usecase.NewRetriever(embedder, searchIndex)
	synthesizer := usecase.NewSynthesizer(generator, usecase.ContextConfig{
		ListContextSize:  cfg.ListContextSize,
		FocusContextSize: cfg.FocusContextSize,
	})
	askUC := usecase.NewAskUseCase(metadataExtractor, classifier, retriever, synthesizer, generator, usecase.AskLimits{
		ListResultLimit:  cfg.ListResultLimit,
		FocusResultLimit: cfg.FocusResultLimit,
		ClassifyTimeout:  cfg.ClassifyTimeout,
	})

	return &App{
		Config: cfg,

		Queue:         queue,
		Repo:          repo,
		Conversations: conversations,
		IngestUC:      ingestUC,
		IndexUC:       indexUC,
		AskUC:         askUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
