package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
	"github.com/knowledgeport/corpus-assistant/internal/core/ports"
)

const (
	// List-shaped queries need enough raw material to enumerate many
	// distinct entities; narrow factual queries do not.
	DefaultListResultLimit  = 40
	DefaultFocusResultLimit = 10
)

const conversationalFallbackText = "Happy to help - ask me anything about our projects, policies, procedures, standards or clients."

// AskLimits are the per-stage knobs of one pipeline run.
type AskLimits struct {
	ListResultLimit  int
	FocusResultLimit int
	ClassifyTimeout  time.Duration
}

func (l AskLimits) normalize() AskLimits {
	if l.ListResultLimit <= 0 {
		l.ListResultLimit = DefaultListResultLimit
	}
	if l.FocusResultLimit <= 0 {
		l.FocusResultLimit = DefaultFocusResultLimit
	}
	if l.ClassifyTimeout <= 0 {
		l.ClassifyTimeout = 10 * time.Second
	}
	return l
}

// AskUseCase sequences one query through the pipeline: conversational-turn
// check, metadata extraction + intent classification (concurrent), filter
// construction, hybrid retrieval, answer synthesis. Every stage converts its
// own failures into a safe outcome, so Ask always returns a usable Answer.
type AskUseCase struct {
	extractor   *MetadataExtractor
	intentModel ports.IntentModel
	retriever   *Retriever
	synthesizer *Synthesizer
	generator   ports.AnswerGenerator
	limits      AskLimits
}

func NewAskUseCase(
	extractor *MetadataExtractor,
	intentModel ports.IntentModel,
	retriever *Retriever,
	synthesizer *Synthesizer,
	generator ports.AnswerGenerator,
	limits AskLimits,
) *AskUseCase {
	return &AskUseCase{
		extractor:   extractor,
		intentModel: intentModel,
		retriever:   retriever,
		synthesizer: synthesizer,
		generator:   generator,
		limits:      limits.normalize(),
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string, history []domain.Turn) *domain.Answer {
	question = strings.TrimSpace(question)
	if question == "" {
		return &domain.Answer{
			Text:    "Please ask a question.",
			Sources: []domain.Source{},
			Intent:  domain.IntentGeneralKnowledge,
		}
	}

	if isConversationalTurn(question) {
		return uc.conversationalReply(ctx, question, history)
	}

	// The extractor is pure and the classifier is one network round trip;
	// they share no data, so the model call runs while we parse.
	intentCh := make(chan domain.Intent, 1)
	go func() {
		intentCh <- uc.classify(ctx, question)
	}()

	metadata := uc.extractor.Extract(question)
	intent := <-intentCh

	filter := BuildFilter(intent, metadata)

	results, err := uc.retriever.Search(ctx, question, filter, uc.resultLimit(question))
	if err != nil {
		slog.Error("retrieval_failed", "intent", intent, "error", err)
		return &domain.Answer{
			Text:     insufficientAnswerText,
			Sources:  []domain.Source{},
			Intent:   intent,
			Filter:   domain.FilterString(filter),
			Degraded: true,
		}
	}

	answer := uc.synthesizer.Synthesize(ctx, question, results, history, intent)
	answer.Filter = domain.FilterString(filter)
	return answer
}

// classify never fails: model trouble degrades to unscoped retrieval.
func (uc *AskUseCase) classify(ctx context.Context, question string) domain.Intent {
	classifyCtx, cancel := context.WithTimeout(ctx, uc.limits.ClassifyTimeout)
	defer cancel()

	intent, err := uc.intentModel.ClassifyIntent(classifyCtx, question)
	if err != nil {
		slog.Warn("intent_classification_failed", "error", err)
		return domain.IntentGeneralKnowledge
	}
	return intent
}

func (uc *AskUseCase) resultLimit(question string) int {
	if classifyQueryShape(question) == shapeList {
		return uc.limits.ListResultLimit
	}
	return uc.limits.FocusResultLimit
}

func (uc *AskUseCase) conversationalReply(ctx context.Context, question string, history []domain.Turn) *domain.Answer {
	answer := &domain.Answer{
		Sources:        []domain.Source{},
		Intent:         domain.IntentGeneralKnowledge,
		Conversational: true,
	}

	text, err := uc.generator.GenerateReply(ctx, question, history)
	if err != nil {
		slog.Warn("conversational_reply_failed", "error", err)
		answer.Text = conversationalFallbackText
		answer.Degraded = true
		return answer
	}
	answer.Text = text
	return answer
}
