package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
)

func TestSynthesizeListShapeGetsLargerContext(t *testing.T) {
	gen := &generatorFake{answerText: "here are the projects"}
	s := NewSynthesizer(gen, ContextConfig{ListContextSize: 20, FocusContextSize: 5})
	results := passagesFixture(40)

	answer := s.Synthesize(context.Background(), "list all projects from the past 4 years", results, nil, domain.IntentProject)

	if len(gen.gotPassages) != 20 {
		t.Fatalf("expected 20 passages in list context, got %d", len(gen.gotPassages))
	}
	if answer.Retrieved != 40 {
		t.Fatalf("expected retrieved count 40, got %d", answer.Retrieved)
	}
	if len(answer.Sources) != 20 {
		t.Fatalf("expected one source per context passage, got %d", len(answer.Sources))
	}
}

func TestSynthesizeFocusedShapeGetsSmallContext(t *testing.T) {
	gen := &generatorFake{answerText: "the answer"}
	s := NewSynthesizer(gen, ContextConfig{ListContextSize: 20, FocusContextSize: 5})

	s.Synthesize(context.Background(), "what is the wellness policy?", passagesFixture(40), nil, domain.IntentPolicy)

	if len(gen.gotPassages) != 5 {
		t.Fatalf("expected 5 passages in focused context, got %d", len(gen.gotPassages))
	}
}

func TestSynthesizeFewerResultsThanContextSize(t *testing.T) {
	gen := &generatorFake{answerText: "partial"}
	s := NewSynthesizer(gen, ContextConfig{})

	answer := s.Synthesize(context.Background(), "list all standards", passagesFixture(3), nil, domain.IntentStandards)

	if len(gen.gotPassages) != 3 {
		t.Fatalf("expected all 3 passages, got %d", len(gen.gotPassages))
	}
	if answer.Degraded {
		t.Fatalf("short result set is not a degraded answer")
	}
}

func TestSynthesizeEmptyResultsScopedIntent(t *testing.T) {
	gen := &generatorFake{answerText: "should not be called"}
	s := NewSynthesizer(gen, ContextConfig{})

	answer := s.Synthesize(context.Background(), "wellness policy", nil, nil, domain.IntentPolicy)

	if answer.Text != insufficientAnswerText {
		t.Fatalf("expected insufficiency statement, got %q", answer.Text)
	}
	if gen.answerCalls != 0 || gen.replyCalls != 0 {
		t.Fatalf("expected no model calls on empty scoped results")
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources, got %d", len(answer.Sources))
	}
}

func TestSynthesizeEmptyResultsGeneralKnowledgeUsesReply(t *testing.T) {
	gen := &generatorFake{replyText: "a concrete beam resists bending"}
	s := NewSynthesizer(gen, ContextConfig{})

	answer := s.Synthesize(context.Background(), "what is a moment connection", nil, nil, domain.IntentGeneralKnowledge)

	if answer.Text != "a concrete beam resists bending" {
		t.Fatalf("expected general-knowledge reply, got %q", answer.Text)
	}
	if gen.replyCalls != 1 {
		t.Fatalf("expected one reply call, got %d", gen.replyCalls)
	}
}

func TestSynthesizeGeneratorFailureFallsBack(t *testing.T) {
	gen := &generatorFake{answerErr: errors.New("model unavailable")}
	s := NewSynthesizer(gen, ContextConfig{})

	answer := s.Synthesize(context.Background(), "what is the wellness policy", passagesFixture(5), nil, domain.IntentPolicy)

	if answer.Text != fallbackAnswerText {
		t.Fatalf("expected fallback text, got %q", answer.Text)
	}
	if !answer.Degraded {
		t.Fatalf("expected degraded flag on fallback")
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Fatalf("fallback answers carry no sources, got %v", answer.Sources)
	}
}

func TestSynthesizeSourcesPreferRerankScore(t *testing.T) {
	gen := &generatorFake{answerText: "answer"}
	s := NewSynthesizer(gen, ContextConfig{})
	results := []domain.RetrievedPassage{
		{Text: "a", Filename: "a.pdf", Score: 0.9, RerankScore: 2.7},
		{Text: "b", Filename: "b.pdf", Score: 0.8},
	}

	answer := s.Synthesize(context.Background(), "what is x", results, nil, domain.IntentPolicy)

	if answer.Sources[0].Relevance != 2.7 {
		t.Fatalf("expected reranker score, got %v", answer.Sources[0].Relevance)
	}
	if answer.Sources[1].Relevance != 0.8 {
		t.Fatalf("expected base score when no rerank, got %v", answer.Sources[1].Relevance)
	}
}

func TestExcerptTruncatesLongText(t *testing.T) {
	long := strings.Repeat("é", sourceExcerptLength+50)
	got := excerpt(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix")
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != sourceExcerptLength {
		t.Fatalf("expected %d runes, got %d", sourceExcerptLength, n)
	}

	short := "brief passage"
	if excerpt(short) != short {
		t.Fatalf("short text is returned verbatim")
	}
}
