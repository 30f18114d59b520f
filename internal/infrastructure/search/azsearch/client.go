package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/resilience"
)

const defaultAPIVersion = "2024-07-01"

// Client implements the search index port against an Azure AI Search
// compatible REST endpoint: hybrid lexical+vector queries with engine-side
// semantic re-ranking, and batch passage upserts.
type Client struct {
	endpoint       string
	indexName      string
	apiKey         string
	apiVersion     string
	semanticConfig string
	vectorField    string
	httpClient     *http.Client
	executor       *resilience.Executor
}

type Options struct {
	APIVersion         string
	SemanticConfig     string
	VectorField        string
	HTTPTimeout        time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(endpoint, indexName, apiKey string) *Client {
	return NewWithOptions(endpoint, indexName, apiKey, Options{})
}

func NewWithOptions(endpoint, indexName, apiKey string, options Options) *Client {
	apiVersion := options.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	semanticConfig := options.SemanticConfig
	if semanticConfig == "" {
		semanticConfig = "default"
	}
	vectorField := options.VectorField
	if vectorField == "" {
		vectorField = "content_vector"
	}
	timeout := options.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:       strings.TrimRight(endpoint, "/"),
		indexName:      indexName,
		apiKey:         apiKey,
		apiVersion:     apiVersion,
		semanticConfig: semanticConfig,
		vectorField:    vectorField,
		httpClient:     &http.Client{Timeout: timeout},
		executor:       options.ResilienceExecutor,
	}
}

type searchDocument struct {
	ChunkID     string  `json:"chunk_id"`
	Content     string  `json:"content"`
	Filename    string  `json:"filename"`
	Folder      string  `json:"folder"`
	ProjectName string  `json:"project_name"`
	Score       float64 `json:"@search.score"`
	RerankScore float64 `json:"@search.rerankerScore"`
}

func (c *Client) Search(
	ctx context.Context,
	queryText string,
	queryVector []float32,
	filter domain.FilterNode,
	limit int,
) ([]domain.RetrievedPassage, error) {
	odataFilter, err := serializeFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("serialize filter: %w", err)
	}

	request := map[string]any{
		"search":    queryText,
		"top":       limit,
		"select":    "chunk_id,content,filename,folder,project_name",
		"queryType": "semantic",
		"semanticConfiguration": c.semanticConfig,
	}
	if odataFilter != "" {
		request["filter"] = odataFilter
	}
	if len(queryVector) > 0 {
		request["vectorQueries"] = []map[string]any{{
			"kind":   "vector",
			"vector": queryVector,
			"fields": c.vectorField,
			"k":      limit,
		}}
	}

	var response struct {
		Value []searchDocument `json:"value"`
	}
	if err := c.postJSON(ctx, "/docs/search", request, &response, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedPassage, 0, len(response.Value))
	for _, doc := range response.Value {
		out = append(out, domain.RetrievedPassage{
			ChunkID:     doc.ChunkID,
			Text:        doc.Content,
			Filename:    doc.Filename,
			Folder:      doc.Folder,
			ProjectName: doc.ProjectName,
			Score:       doc.Score,
			RerankScore: doc.RerankScore,
		})
	}
	return out, nil
}

func (c *Client) UpsertPassages(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	type indexAction struct {
		Action      string    `json:"@search.action"`
		ChunkID     string    `json:"chunk_id"`
		DocumentID  string    `json:"document_id"`
		Content     string    `json:"content"`
		Filename    string    `json:"filename"`
		Folder      string    `json:"folder"`
		ProjectName string    `json:"project_name"`
		Year        string    `json:"year"`
		ChunkIndex  int       `json:"chunk_index"`
		Vector      []float32 `json:"content_vector"`
	}

	actions := make([]indexAction, 0, len(chunks))
	for i := range chunks {
		actions = append(actions, indexAction{
			Action:      "mergeOrUpload",
			ChunkID:     uuid.NewString(),
			DocumentID:  doc.ID,
			Content:     chunks[i],
			Filename:    doc.Filename,
			Folder:      doc.Folder,
			ProjectName: doc.ProjectName,
			Year:        doc.YearCode,
			ChunkIndex:  i,
			Vector:      vectors[i],
		})
	}

	request := map[string]any{"value": actions}
	var response struct {
		Value []struct {
			Status       bool   `json:"status"`
			ErrorMessage string `json:"errorMessage"`
		} `json:"value"`
	}
	if err := c.postJSON(ctx, "/docs/index", request, &response, "upsert"); err != nil {
		return err
	}
	for _, item := range response.Value {
		if !item.Status {
			return fmt.Errorf("index upsert rejected: %s", item.ErrorMessage)
		}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	call := func(callCtx context.Context) error {
		return c.doPostJSON(callCtx, path, payload, out, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "search."+operation, call, classifySearchError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

func (c *Client) doPostJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	url := fmt.Sprintf("%s/indexes/%s%s?api-version=%s", c.endpoint, c.indexName, path, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "search status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("search %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("search %s status: %s: %s", e.Operation, e.Status, e.Body)
}
