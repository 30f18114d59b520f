package azsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

func TestSearchSendsHybridRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/indexes/corpus/docs/search") {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("api-key"); got != "secret" {
			t.Fatalf("expected api-key header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"value":[
			{"chunk_id":"c1","content":"wellness text","filename":"wellness.pdf","folder":"Policies","@search.score":0.8,"@search.rerankerScore":2.5},
			{"chunk_id":"c2","content":"other","filename":"other.pdf","folder":"Policies","@search.score":0.5}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "corpus", "secret")
	filter := domain.TermMatchFilter{Field: domain.FieldFolder, Terms: []string{"Policies"}}
	passages, err := client.Search(context.Background(), "wellness policy", []float32{0.1, 0.2}, filter, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if captured["queryType"] != "semantic" {
		t.Fatalf("expected semantic query type, got %v", captured["queryType"])
	}
	if captured["search"] != "wellness policy" {
		t.Fatalf("expected lexical query text, got %v", captured["search"])
	}
	if _, ok := captured["vectorQueries"]; !ok {
		t.Fatalf("expected vector query alongside lexical search")
	}
	if f, _ := captured["filter"].(string); !strings.Contains(f, "'folder'") {
		t.Fatalf("expected serialized folder filter, got %v", captured["filter"])
	}
	if captured["top"] != float64(10) {
		t.Fatalf("expected top=10, got %v", captured["top"])
	}

	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].RerankScore != 2.5 || passages[0].Relevance() != 2.5 {
		t.Fatalf("expected reranker score preserved, got %+v", passages[0])
	}
	if passages[1].Relevance() != 0.5 {
		t.Fatalf("expected base score when no rerank, got %+v", passages[1])
	}
}

func TestSearchNilVectorOmitsVectorQuery(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "corpus", "secret")
	if _, err := client.Search(context.Background(), "q", nil, nil, 5); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := captured["vectorQueries"]; ok {
		t.Fatalf("keyword-only search must not carry a vector query")
	}
	if _, ok := captured["filter"]; ok {
		t.Fatalf("nil filter must be omitted, got %v", captured["filter"])
	}
}

func TestSearchRetryableStatusIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL, "corpus", "secret")
	_, err := client.Search(context.Background(), "q", nil, nil, 5)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary classification, got %v", err)
	}
}

func TestUpsertPassagesSendsBatch(t *testing.T) {
	var captured struct {
		Value []map[string]any `json:"value"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/indexes/corpus/docs/index") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"value":[{"status":true},{"status":true}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "corpus", "secret")
	doc := &domain.Document{
		ID:          "doc-1",
		Filename:    "report.pdf",
		Folder:      "Projects/225/225001",
		ProjectName: "225001",
		YearCode:    "225",
	}
	err := client.UpsertPassages(context.Background(), doc, []string{"a", "b"}, [][]float32{{0.1}, {0.2}})
	if err != nil {
		t.Fatalf("UpsertPassages() error = %v", err)
	}

	if len(captured.Value) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(captured.Value))
	}
	first := captured.Value[0]
	if first["@search.action"] != "mergeOrUpload" {
		t.Fatalf("expected mergeOrUpload action, got %v", first["@search.action"])
	}
	if first["folder"] != "Projects/225/225001" || first["project_name"] != "225001" || first["year"] != "225" {
		t.Fatalf("expected routing fields on actions, got %v", first)
	}
	if first["chunk_id"] == captured.Value[1]["chunk_id"] {
		t.Fatalf("chunk ids must be unique")
	}
}

func TestUpsertPassagesReportsRejectedItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[{"status":false,"errorMessage":"field year not filterable"}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "corpus", "secret")
	err := client.UpsertPassages(context.Background(), &domain.Document{ID: "d"}, []string{"a"}, [][]float32{{0.1}})
	if err == nil || !strings.Contains(err.Error(), "not filterable") {
		t.Fatalf("expected rejection error, got %v", err)
	}
}

func TestUpsertPassagesMismatchedVectors(t *testing.T) {
	client := New("http://unused", "corpus", "secret")
	err := client.UpsertPassages(context.Background(), &domain.Document{ID: "d"}, []string{"a", "b"}, [][]float32{{0.1}})
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
}
