package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/knowledgeport/corpus-assistant/internal/core/domain"
	"github.com/knowledgeport/corpus-assistant/internal/core/ports"
	"github.com/knowledgeport/corpus-assistant/internal/observability/metrics"
)

type RouterConfig struct {
	Service        string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	HistoryTurns   int
}

// Router is the API surface: question answering, document drops, and
// per-document status lookups.
type Router struct {
	askUC         ports.QuestionAnswerer
	ingestUC      ports.DocumentIngestor
	repo          ports.DocumentRepository
	conversations ports.ConversationStore
	metrics       *metrics.APIMetrics
	cfg           RouterConfig
}

func NewRouter(
	askUC ports.QuestionAnswerer,
	ingestUC ports.DocumentIngestor,
	repo ports.DocumentRepository,
	conversations ports.ConversationStore,
	apiMetrics *metrics.APIMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.Service == "" {
		cfg.Service = "api"
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 20
	}
	return &Router{
		askUC:         askUC,
		ingestUC:      ingestUC,
		repo:          repo,
		conversations: conversations,
		metrics:       apiMetrics,
		cfg:           cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxConcurrent, 100*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type askResponse struct {
	Answer    *domain.Answer `json:"answer"`
	SessionID string         `json:"session_id,omitempty"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	history := rt.loadHistory(r, req.SessionID)

	start := time.Now()
	answer := rt.askUC.Ask(r.Context(), req.Question, history)

	if rt.metrics != nil {
		if answer.Conversational {
			rt.metrics.RecordConversationalTurn(rt.cfg.Service)
		} else {
			rt.metrics.RecordAsk(rt.cfg.Service, string(answer.Intent), answer.Retrieved, answer.Degraded, time.Since(start))
		}
	}

	rt.saveTurns(r, req.SessionID, req.Question, answer.Text)

	writeJSON(w, http.StatusOK, askResponse{Answer: answer, SessionID: req.SessionID})
}

// loadHistory is best-effort: a broken conversation store degrades to a
// history-free answer, never a failed request.
func (rt *Router) loadHistory(r *http.Request, sessionID string) []domain.Turn {
	if rt.conversations == nil || sessionID == "" {
		return nil
	}
	history, err := rt.conversations.ListRecentTurns(r.Context(), sessionID, rt.cfg.HistoryTurns)
	if err != nil {
		slog.Warn("history_load_failed", "session_id", sessionID, "error", err)
		return nil
	}
	return history
}

func (rt *Router) saveTurns(r *http.Request, sessionID, question, answerText string) {
	if rt.conversations == nil || sessionID == "" {
		return
	}
	turns := []domain.Turn{
		{Role: domain.RoleUser, Content: question},
		{Role: domain.RoleAssistant, Content: answerText},
	}
	for _, turn := range turns {
		if err := rt.conversations.AppendTurn(r.Context(), sessionID, turn); err != nil {
			slog.Warn("history_append_failed", "session_id", sessionID, "error", err)
			return
		}
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	corpusPath := r.FormValue("path")
	if corpusPath == "" {
		corpusPath = fileHeader.Filename
	}

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		corpusPath,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.repo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
