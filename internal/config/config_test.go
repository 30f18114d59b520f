package config

import (
	"testing"
	"time"
)

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("LIST_RESULT_LIMIT", "")
	t.Setenv("FOCUS_RESULT_LIMIT", "")
	t.Setenv("LIST_CONTEXT_SIZE", "")
	t.Setenv("FOCUS_CONTEXT_SIZE", "")
	t.Setenv("CLASSIFY_TIMEOUT_SECONDS", "")

	cfg := Load()
	if cfg.ListResultLimit != 40 {
		t.Fatalf("expected default list result limit 40, got %d", cfg.ListResultLimit)
	}
	if cfg.FocusResultLimit != 10 {
		t.Fatalf("expected default focus result limit 10, got %d", cfg.FocusResultLimit)
	}
	if cfg.ListContextSize != 20 {
		t.Fatalf("expected default list context size 20, got %d", cfg.ListContextSize)
	}
	if cfg.FocusContextSize != 5 {
		t.Fatalf("expected default focus context size 5, got %d", cfg.FocusContextSize)
	}
	if cfg.ClassifyTimeout != 10*time.Second {
		t.Fatalf("expected default classify timeout 10s, got %v", cfg.ClassifyTimeout)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("LIST_RESULT_LIMIT", "60")
	t.Setenv("FOCUS_RESULT_LIMIT", "15")
	t.Setenv("SEARCH_SEMANTIC_CONFIG", "corpus-semantic")
	t.Setenv("API_RATE_LIMIT_RPS", "25.5")
	t.Setenv("API_MAX_CONCURRENT", "64")

	cfg := Load()
	if cfg.ListResultLimit != 60 {
		t.Fatalf("expected list result limit 60, got %d", cfg.ListResultLimit)
	}
	if cfg.FocusResultLimit != 15 {
		t.Fatalf("expected focus result limit 15, got %d", cfg.FocusResultLimit)
	}
	if cfg.SearchSemanticConfig != "corpus-semantic" {
		t.Fatalf("expected semantic config override, got %q", cfg.SearchSemanticConfig)
	}
	if cfg.RateLimitRPS != 25.5 {
		t.Fatalf("expected rate limit 25.5, got %v", cfg.RateLimitRPS)
	}
	if cfg.MaxConcurrent != 64 {
		t.Fatalf("expected max concurrent 64, got %d", cfg.MaxConcurrent)
	}
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "not-a-number")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.ChunkSize != 900 {
		t.Fatalf("expected fallback chunk size 900, got %d", cfg.ChunkSize)
	}
	if cfg.RateLimitRPS != 0 {
		t.Fatalf("expected fallback rate limit 0, got %v", cfg.RateLimitRPS)
	}
}
