package usecase

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

// Hand-rolled port fakes shared by the use case tests.

type intentModelFake struct {
	intent domain.Intent
	err    error
	calls  int
}

func (f *intentModelFake) ClassifyIntent(_ context.Context, _ string) (domain.Intent, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.intent, nil
}

type embedderFake struct {
	queryVector []float32
	queryErr    error
	vectors     [][]float32
	embedErr    error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryVector != nil {
		return f.queryVector, nil
	}
	return []float32{0.1, 0.2}, nil
}

type searchIndexFake struct {
	results   []domain.RetrievedPassage
	searchErr error
	upsertErr error

	gotQuery    string
	gotVector   []float32
	gotFilter   domain.FilterNode
	gotLimit    int
	upsertedDoc *domain.Document
	upsertedN   int
}

func (f *searchIndexFake) Search(_ context.Context, queryText string, queryVector []float32, filter domain.FilterNode, limit int) ([]domain.RetrievedPassage, error) {
	f.gotQuery = queryText
	f.gotVector = queryVector
	f.gotFilter = filter
	f.gotLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *searchIndexFake) UpsertPassages(_ context.Context, doc *domain.Document, chunks []string, _ [][]float32) error {
	f.upsertedDoc = doc
	f.upsertedN = len(chunks)
	return f.upsertErr
}

type generatorFake struct {
	answerText string
	answerErr  error
	replyText  string
	replyErr   error

	gotPassages []domain.RetrievedPassage
	answerCalls int
	replyCalls  int
}

func (f *generatorFake) GenerateAnswer(_ context.Context, _ string, passages []domain.RetrievedPassage, _ []domain.Turn) (string, error) {
	f.answerCalls++
	f.gotPassages = passages
	if f.answerErr != nil {
		return "", f.answerErr
	}
	return f.answerText, nil
}

func (f *generatorFake) GenerateReply(_ context.Context, _ string, _ []domain.Turn) (string, error) {
	f.replyCalls++
	if f.replyErr != nil {
		return "", f.replyErr
	}
	return f.replyText, nil
}

type statusChange struct {
	id      string
	status  domain.DocumentStatus
	message string
}

type documentRepoFake struct {
	docs      map[string]*domain.Document
	createErr error
	getErr    error
	updateErr error
	statuses  []statusChange
}

func newDocumentRepoFake() *documentRepoFake {
	return &documentRepoFake{docs: map[string]*domain.Document{}}
}

func (f *documentRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *documentRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *documentRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.statuses = append(f.statuses, statusChange{id: id, status: status, message: errMessage})
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

type objectStorageFake struct {
	saved   map[string]string
	saveErr error
}

func newObjectStorageFake() *objectStorageFake {
	return &objectStorageFake{saved: map[string]string{}}
}

func (f *objectStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(data); err != nil {
		return err
	}
	f.saved[key] = buf.String()
	return nil
}

func (f *objectStorageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.saved[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type messageQueueFake struct {
	published  []string
	publishErr error
}

func (f *messageQueueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *messageQueueFake) SubscribeDocumentIngested(_ context.Context, _ func(context.Context, string) error) error {
	return nil
}

type textExtractorFake struct {
	text string
	err  error
}

func (f *textExtractorFake) Extract(_ context.Context, _ *domain.Document) (string, error) {
	return f.text, f.err
}

type chunkerFake struct {
	chunks []string
}

func (f *chunkerFake) Split(_ string) []string {
	return f.chunks
}

func passagesFixture(n int) []domain.RetrievedPassage {
	out := make([]domain.RetrievedPassage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.RetrievedPassage{
			ChunkID:     "chunk-" + strings.Repeat("x", i%3+1),
			Text:        "passage text",
			Filename:    "report.pdf",
			Folder:      "Projects/225/225001",
			ProjectName: "225001",
			Score:       float64(n-i) / float64(n),
			RerankScore: float64(n-i) * 0.5,
		})
	}
	return out
}
