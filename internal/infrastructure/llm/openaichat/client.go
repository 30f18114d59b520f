package openaichat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
	"github.com/knowledgeport/corpus-assistant/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat/embeddings endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	HTTPTimeout        time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, chatModel, embedModel string) *Client {
	return NewWithOptions(baseURL, apiKey, chatModel, embedModel, Options{})
}

func NewWithOptions(baseURL, apiKey, chatModel, embedModel string, options Options) *Client {
	timeout := options.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) chatCompletion(
	ctx context.Context,
	operation string,
	messages []chatMessage,
	temperature float64,
	maxTokens int,
) (string, error) {
	request := map[string]any{
		"model":       c.chatModel,
		"messages":    messages,
		"temperature": temperature,
	}
	if maxTokens > 0 {
		request["max_tokens"] = maxTokens
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, "/v1/chat/completions", request, &response, operation); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// Classifier assigns one knowledge-domain category per query.
type Classifier struct {
	client *Client
}

func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

func (c *Classifier) ClassifyIntent(ctx context.Context, question string) (domain.Intent, error) {
	raw, err := c.client.chatCompletion(ctx, "classify", []chatMessage{
		{Role: "system", Content: intentSystemPrompt},
		{Role: "user", Content: buildIntentPrompt(question)},
	}, 0.1, 200)
	if err != nil {
		return "", err
	}

	var result struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		// Some models answer with the bare category word despite the JSON
		// instruction; that is still usable.
		return domain.ParseIntent(raw), nil
	}
	return domain.ParseIntent(result.Intent), nil
}

// Embedder builds dense vectors via the embeddings endpoint.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.postJSON(ctx, "/v1/embeddings", request, &response, "embed"); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(response.Data))
	for _, d := range response.Data {
		out = append(out, d.Embedding)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Generator produces the grounded answer and the conversational replies.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(
	ctx context.Context,
	question string,
	passages []domain.RetrievedPassage,
	history []domain.Turn,
) (string, error) {
	raw, err := g.client.chatCompletion(ctx, "generate", []chatMessage{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: "user", Content: buildSynthesisPrompt(question, passages, history)},
	}, 0.3, 1500)
	if err != nil {
		return "", err
	}
	return extractAnswerSection(raw), nil
}

func (g *Generator) GenerateReply(ctx context.Context, question string, history []domain.Turn) (string, error) {
	messages := []chatMessage{{Role: "system", Content: replySystemPrompt}}
	for _, turn := range recentTurns(history, historyTurnsInPrompt) {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: question})

	return g.client.chatCompletion(ctx, "reply", messages, 0.6, 500)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

// extractAnswerSection strips the structured citation scaffold: the prose
// between "ANSWER:" and "SOURCES:" is the user-facing text, the source list is
// rebuilt from retrieval metadata instead.
func extractAnswerSection(raw string) string {
	const answerMarker = "ANSWER:"
	const sourcesMarker = "SOURCES:"

	if idx := strings.Index(raw, answerMarker); idx >= 0 {
		answer := raw[idx+len(answerMarker):]
		if end := strings.Index(answer, sourcesMarker); end >= 0 {
			answer = answer[:end]
		}
		return strings.TrimSpace(answer)
	}
	return strings.TrimSpace(raw)
}
