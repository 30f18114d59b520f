package domain

import "strings"

// Intent is the knowledge-domain category assigned to a query. It decides
// which slice of the corpus is eligible for retrieval.
type Intent string

const (
	IntentPolicy           Intent = "Policy"
	IntentProcedure        Intent = "Procedure"
	IntentStandards        Intent = "Standards"
	IntentProject          Intent = "Project"
	IntentClient           Intent = "Client"
	IntentGeneralKnowledge Intent = "General_Knowledge"
)

// ParseIntent maps a raw model token to a known intent. Anything the model
// produces that is not a known category collapses to General_Knowledge so
// downstream logic never sees an unmapped value.
func ParseIntent(raw string) Intent {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"'.`)) {
	case "policy", "policies":
		return IntentPolicy
	case "procedure", "procedures":
		return IntentProcedure
	case "standard", "standards":
		return IntentStandards
	case "project", "projects":
		return IntentProject
	case "client", "clients":
		return IntentClient
	default:
		return IntentGeneralKnowledge
	}
}

// YearRange is an inclusive range of 3-digit year buckets (e.g. 221..225).
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Buckets returns the bucket literals covered by the range, ascending.
func (r YearRange) Buckets() []int {
	if r.To < r.From {
		return nil
	}
	out := make([]int, 0, r.To-r.From+1)
	for b := r.From; b <= r.To; b++ {
		out = append(out, b)
	}
	return out
}

// ExtractedMetadata holds the structural identifiers parsed out of query text.
// All fields are optional; absence simply means the pattern did not match.
type ExtractedMetadata struct {
	JobNumber  string     `json:"job_number,omitempty"`
	YearCode   string     `json:"year_code,omitempty"`
	YearRange  *YearRange `json:"year_range,omitempty"`
	ClientHint string     `json:"client_hint,omitempty"`
}

func (m ExtractedMetadata) Empty() bool {
	return m.JobNumber == "" && m.YearCode == "" && m.YearRange == nil && m.ClientHint == ""
}

// Turn is one prior message in the conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RetrievedPassage is one ranked chunk returned by the search index. The
// embedding vector is deliberately absent: it is never reused after retrieval.
type RetrievedPassage struct {
	ChunkID     string  `json:"chunk_id"`
	Text        string  `json:"text"`
	Filename    string  `json:"filename"`
	Folder      string  `json:"folder"`
	ProjectName string  `json:"project_name,omitempty"`
	Score       float64 `json:"score"`
	RerankScore float64 `json:"rerank_score"`
}

// Relevance prefers the re-ranker score when the engine produced one.
func (p RetrievedPassage) Relevance() float64 {
	if p.RerankScore > 0 {
		return p.RerankScore
	}
	return p.Score
}

// Source is one citation attached to an answer.
type Source struct {
	Filename  string  `json:"filename"`
	Folder    string  `json:"folder"`
	Relevance float64 `json:"relevance"`
	Excerpt   string  `json:"excerpt,omitempty"`
}

// Answer is the final pipeline output. Intent and Filter are carried for
// diagnostic transparency; Degraded marks answers produced by a fallback path.
type Answer struct {
	Text           string   `json:"text"`
	Sources        []Source `json:"sources"`
	Intent         Intent   `json:"intent"`
	Filter         string   `json:"filter,omitempty"`
	Retrieved      int      `json:"retrieved"`
	Degraded       bool     `json:"degraded,omitempty"`
	Conversational bool     `json:"conversational,omitempty"`
}
