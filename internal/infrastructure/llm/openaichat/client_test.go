package openaichat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestClassifierParsesIntentJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(chatResponse(`{"intent": "Project", "confidence": 0.95}`)))
	}))
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "key", "chat", "embed"))
	intent, err := classifier.ClassifyIntent(context.Background(), "what is project 225?")
	if err != nil {
		t.Fatalf("ClassifyIntent() error = %v", err)
	}
	if intent != domain.IntentProject {
		t.Fatalf("expected Project, got %s", intent)
	}
}

func TestClassifierAcceptsBareCategoryWord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatResponse("Policy")))
	}))
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "key", "chat", "embed"))
	intent, err := classifier.ClassifyIntent(context.Background(), "wellness policy?")
	if err != nil {
		t.Fatalf("ClassifyIntent() error = %v", err)
	}
	if intent != domain.IntentPolicy {
		t.Fatalf("expected Policy, got %s", intent)
	}
}

func TestClassifierUnknownCategoryCollapsesToGeneral(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatResponse(`{"intent": "Gossip"}`)))
	}))
	defer server.Close()

	classifier := NewClassifier(New(server.URL, "key", "chat", "embed"))
	intent, err := classifier.ClassifyIntent(context.Background(), "anything")
	if err != nil {
		t.Fatalf("ClassifyIntent() error = %v", err)
	}
	if intent != domain.IntentGeneralKnowledge {
		t.Fatalf("expected General_Knowledge, got %s", intent)
	}
}

func TestGeneratorStripsStructuredScaffold(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Messages []chatMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt = payload.Messages[len(payload.Messages)-1].Content
		_, _ = w.Write([]byte(chatResponse("ANSWER:\nThe wellness policy covers flexible hours.\n\nSOURCES:\n1. wellness.pdf (Policies)")))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "key", "chat", "embed"))
	answer, err := gen.GenerateAnswer(context.Background(), "what is the wellness policy?", []domain.RetrievedPassage{
		{Filename: "wellness.pdf", Folder: "Policies", Text: "flexible hours are available"},
	}, nil)
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "The wellness policy covers flexible hours." {
		t.Fatalf("expected scaffold stripped, got %q", answer)
	}
	if !strings.Contains(capturedPrompt, "wellness.pdf (Policies)") || !strings.Contains(capturedPrompt, "flexible hours are available") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
}

func TestGeneratorKeepsUnstructuredResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(chatResponse("plain answer with no markers")))
	}))
	defer server.Close()

	gen := NewGenerator(New(server.URL, "key", "chat", "embed"))
	answer, err := gen.GenerateAnswer(context.Background(), "q", []domain.RetrievedPassage{{Text: "x"}}, nil)
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "plain answer with no markers" {
		t.Fatalf("unexpected answer %q", answer)
	}
}

func TestEmbedParsesVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Fatalf("expected bearer auth, got %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2]},{"embedding":[0.3,0.4]}]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "key", "chat", "embed"))
	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || vectors[1][0] != 0.3 {
		t.Fatalf("unexpected vectors %v", vectors)
	}
}

func TestRetryableStatusWrapsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "key", "chat", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary classification, got %v", err)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || !strings.Contains(statusErr.Body, "model overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestNonRetryableStatusIsNotTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "key", "chat", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("4xx must not be classified temporary, got %v", err)
	}
}
