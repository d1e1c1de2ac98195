package models

// CacheStrategy identifies how a question lookup was answered.
type CacheStrategy string

const (
	StrategyExact            CacheStrategy = "exact_match"
	StrategyHighSimilarity   CacheStrategy = "high_similarity"
	StrategyMediumSimilarity CacheStrategy = "medium_similarity"
	StrategyNoMatch          CacheStrategy = "no_match"
)

// Hit reports whether the strategy served a cached payload.
func (s CacheStrategy) Hit() bool {
	return s != StrategyNoMatch && s != ""
}

// CacheStats is a point-in-time snapshot of response cache accounting.
type CacheStats struct {
	TotalRequests   int64   `json:"total_requests"`
	ExactHits       int64   `json:"exact_hits"`
	SimilarHits     int64   `json:"similar_hits"`
	TotalCacheHits  int64   `json:"total_cache_hits"`
	CacheMisses     int64   `json:"cache_misses"`
	TotalAPICalls   int64   `json:"total_api_calls"`
	APICallsSaved   float64 `json:"api_calls_saved"`
	CostSaved       float64 `json:"cost_saved_dollars"`
	HitRate         float64 `json:"cache_hit_rate"` // percent, 0 when no requests
	Efficiency      string  `json:"cache_efficiency"`
	QuestionsCached int     `json:"questions_cached"`
	AnalysisCached  int     `json:"analysis_cached"`
	PoolSize        int     `json:"pool_size"`
}
