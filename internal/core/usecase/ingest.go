package usecase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
	"github.com/knowledgeport/corpus-assistant/internal/core/ports"
)

// IngestDocumentUseCase accepts a file drop at a corpus path, persists it and
// hands the heavy lifting (extract/chunk/embed/index) to the worker via the
// queue.
type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	corpusPath, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	corpusPath = cleanCorpusPath(corpusPath)
	if corpusPath == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("corpus path is required"))
	}

	id := uuid.NewString()
	storageKey := id + "_" + strings.ReplaceAll(corpusPath, "/", "__")
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := newDocumentFromCorpusPath(id, corpusPath, mimeType, storageKey, now)
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		statusErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, "enqueue failed")
		if statusErr != nil {
			return nil, fmt.Errorf("publish ingest event: %w; mark failed: %w", err, statusErr)
		}
		return nil, fmt.Errorf("publish ingest event: %w", err)
	}
	return doc, nil
}

// newDocumentFromCorpusPath derives the structured index fields from the
// file's location in the corpus tree. Project paths follow
// Projects/<bucket>/<job>/..., so the second segment is the year bucket and
// the third the job number.
func newDocumentFromCorpusPath(id, corpusPath, mimeType, storageKey string, now time.Time) *domain.Document {
	folder := path.Dir(corpusPath)
	if folder == "." {
		folder = ""
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    path.Base(corpusPath),
		MimeType:    mimeType,
		CorpusPath:  corpusPath,
		StoragePath: storageKey,
		Folder:      folder,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	segments := strings.Split(corpusPath, "/")
	if len(segments) >= 3 && segments[0] == "Projects" {
		if yearCodePattern.MatchString(segments[1]) {
			doc.YearCode = segments[1]
		}
		if jobNumberPattern.MatchString(segments[2]) {
			doc.ProjectName = segments[2]
		}
	}
	if len(segments) >= 2 && segments[0] == "Clients" {
		doc.ProjectName = segments[1]
	}
	return doc
}

func cleanCorpusPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == "." || p == "/" || strings.HasPrefix(p, "..") {
		return ""
	}
	return p
}
