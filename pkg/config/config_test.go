package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8000" {
		t.Errorf("expected :8000, got %s", cfg.Listen)
	}
	if cfg.DBPath != ":memory:" {
		t.Errorf("expected in-memory db, got %s", cfg.DBPath)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("expected 24h TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.SimilarityThreshold != 65 {
		t.Errorf("expected threshold 65, got %v", cfg.Cache.SimilarityThreshold)
	}
	if cfg.RapidFire.NumQuestions != 10 {
		t.Errorf("expected 10 rapid fire questions, got %d", cfg.RapidFire.NumQuestions)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "gm-test-123")

	content := `
listen: ":9090"
db_path: "test.db"
llm:
  api_key: ${TEST_GEMINI_KEY}
  model: gemini-1.5-pro
cache:
  enabled: true
  ttl: 2h
  max_pool_size: 50
  similarity_threshold: 70
rapid_fire:
  question_bank: bank.json
  time_per_question: 45s
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.LLM.APIKey != "gm-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.LLM.APIKey)
	}
	if cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("expected 2h TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxPoolSize != 50 {
		t.Errorf("expected pool size 50, got %d", cfg.Cache.MaxPoolSize)
	}
	if cfg.Cache.MaxSimilarReuse != 5 {
		t.Errorf("expected default reuse cap to survive, got %d", cfg.Cache.MaxSimilarReuse)
	}
	if cfg.RapidFire.TimePerQuestion != 45*time.Second {
		t.Errorf("expected 45s per question, got %v", cfg.RapidFire.TimePerQuestion)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":8000" {
		t.Errorf("expected defaults, got %s", cfg.Listen)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env.local")
	second := filepath.Join(dir, ".env")
	if err := os.WriteFile(first, []byte("INTERVUE_TEST_VAR=local\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("INTERVUE_TEST_VAR=base\nINTERVUE_TEST_OTHER=base\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("INTERVUE_TEST_VAR")
		os.Unsetenv("INTERVUE_TEST_OTHER")
	})

	LoadEnvFiles(first, second, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("INTERVUE_TEST_VAR"); got != "local" {
		t.Errorf("expected first file to win, got %q", got)
	}
	if got := os.Getenv("INTERVUE_TEST_OTHER"); got != "base" {
		t.Errorf("expected value from second file, got %q", got)
	}
}
