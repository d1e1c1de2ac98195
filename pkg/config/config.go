package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all intervue configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	DBPath    string          `yaml:"db_path"`
	LLM       LLMConfig       `yaml:"llm"`
	Cache     CacheConfig     `yaml:"cache"`
	RapidFire RapidFireConfig `yaml:"rapid_fire"`
	Session   SessionConfig   `yaml:"session"`
}

// LLMConfig defines the Gemini model used for analysis, questions and feedback.
type LLMConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// CacheConfig controls the in-memory response cache.
type CacheConfig struct {
	Enabled             bool          `yaml:"enabled"`
	TTL                 time.Duration `yaml:"ttl"`
	MaxPoolSize         int           `yaml:"max_pool_size"`
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	MaxSimilarReuse     int           `yaml:"max_similar_reuse"`
	APICooldown         time.Duration `yaml:"api_cooldown"`
}

// RapidFireConfig controls the offline question bank mode.
type RapidFireConfig struct {
	QuestionBank    string        `yaml:"question_bank"`
	NumQuestions    int           `yaml:"num_questions"`
	TimePerQuestion time.Duration `yaml:"time_per_question"`
}

// SessionConfig bounds interview input.
type SessionConfig struct {
	MaxAnswerLen int `yaml:"max_answer_len"`
	MinResumeLen int `yaml:"min_resume_len"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8000",
		DBPath: ":memory:",
		LLM: LLMConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   "gemini-2.5-flash",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:             true,
			TTL:                 24 * time.Hour,
			MaxPoolSize:         500,
			SimilarityThreshold: 65,
			MaxSimilarReuse:     5,
			APICooldown:         500 * time.Millisecond,
		},
		RapidFire: RapidFireConfig{
			QuestionBank:    "data/questions.json",
			NumQuestions:    10,
			TimePerQuestion: time.Minute,
		},
		Session: SessionConfig{
			MaxAnswerLen: 5000,
			MinResumeLen: 50,
		},
	}
}

// LoadEnvFiles loads variables from the given .env files that exist. Earlier
// files win because godotenv never overrides a variable that is already set.
func LoadEnvFiles(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("load env file %s: %v", f, err)
			continue
		}
		log.Printf("loaded environment from %s", f)
	}
}

// Load reads a YAML config file and expands environment variables. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
