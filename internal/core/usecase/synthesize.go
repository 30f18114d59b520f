package usecase

import (
	"context"
	"log/slog"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
	"github.com/knowledgeport/corpus-assistant/internal/core/ports"
)

const (
	// Context slice sizes per query shape. A single fixed size cannot serve
	// both "what is X" and "list every X": too few passages starves an
	// enumeration, too many dilutes a narrow question.
	DefaultListContextSize  = 20
	DefaultFocusContextSize = 5

	sourceExcerptLength = 200
)

const (
	fallbackAnswerText     = "I'm unable to generate an answer right now. Please try again shortly."
	insufficientAnswerText = "I couldn't find any relevant information in the knowledge base to answer your question."
)

// ContextConfig carries the named slice sizes so they are an explicit wiring
// decision rather than constants buried in the prompt assembly.
type ContextConfig struct {
	ListContextSize  int
	FocusContextSize int
}

func (c ContextConfig) normalize() ContextConfig {
	if c.ListContextSize <= 0 {
		c.ListContextSize = DefaultListContextSize
	}
	if c.FocusContextSize <= 0 {
		c.FocusContextSize = DefaultFocusContextSize
	}
	return c
}

// Synthesizer turns ranked passages into a grounded, cited answer with one
// model call. It never returns an error: model failure degrades to a
// deterministic fallback message.
type Synthesizer struct {
	generator ports.AnswerGenerator
	cfg       ContextConfig
}

func NewSynthesizer(generator ports.AnswerGenerator, cfg ContextConfig) *Synthesizer {
	return &Synthesizer{generator: generator, cfg: cfg.normalize()}
}

func (s *Synthesizer) Synthesize(
	ctx context.Context,
	queryText string,
	results []domain.RetrievedPassage,
	history []domain.Turn,
	intent domain.Intent,
) *domain.Answer {
	answer := &domain.Answer{
		Intent:    intent,
		Sources:   []domain.Source{},
		Retrieved: len(results),
	}

	if len(results) == 0 {
		if intent != domain.IntentGeneralKnowledge {
			answer.Text = insufficientAnswerText
			return answer
		}
		// Unscoped queries with an empty index still deserve a reply from
		// general domain knowledge.
		text, err := s.generator.GenerateReply(ctx, queryText, history)
		if err != nil {
			slog.Warn("synthesis_fallback", "error", err)
			answer.Text = fallbackAnswerText
			answer.Degraded = true
			return answer
		}
		answer.Text = text
		return answer
	}

	contextSlice := results[:min(s.contextSize(queryText), len(results))]

	text, err := s.generator.GenerateAnswer(ctx, queryText, contextSlice, history)
	if err != nil {
		slog.Warn("synthesis_fallback", "error", err)
		answer.Text = fallbackAnswerText
		answer.Degraded = true
		return answer
	}

	answer.Text = text
	answer.Sources = buildSources(contextSlice)
	return answer
}

func (s *Synthesizer) contextSize(queryText string) int {
	if classifyQueryShape(queryText) == shapeList {
		return s.cfg.ListContextSize
	}
	return s.cfg.FocusContextSize
}

func buildSources(passages []domain.RetrievedPassage) []domain.Source {
	out := make([]domain.Source, 0, len(passages))
	for _, p := range passages {
		out = append(out, domain.Source{
			Filename:  p.Filename,
			Folder:    p.Folder,
			Relevance: p.Relevance(),
			Excerpt:   excerpt(p.Text),
		})
	}
	return out
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= sourceExcerptLength {
		return text
	}
	return string(runes[:sourceExcerptLength]) + "..."
}
