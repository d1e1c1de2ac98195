package memory

import (
	"fmt"
	"log"
	"strings"

	"github.com/intervue-ai/intervue/pkg/models"
)

// RecordAPICall notes that the caller went to the external model.
func (s *Store[Q, A]) RecordAPICall() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastCall = s.opts.now()
	s.stats.apiCalls++
	log.Printf("cache: api call recorded")
}

// CanCallAPI reports whether the advisory cooldown since the last recorded
// call has elapsed. Enforcing it is up to the caller.
func (s *Store[Q, A]) CanCallAPI() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastCall.IsZero() {
		return true
	}
	return s.opts.now().Sub(s.lastCall) >= s.opts.apiCooldown
}

// Stats sweeps expired entries and returns a snapshot of the accounting.
func (s *Store[Q, A]) Stats() models.CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()

	st := s.stats
	hits := st.exactHits + st.similarHits
	var rate float64
	if st.requests > 0 {
		rate = float64(hits) / float64(st.requests) * 100
	}
	return models.CacheStats{
		TotalRequests:   st.requests,
		ExactHits:       st.exactHits,
		SimilarHits:     st.similarHits,
		TotalCacheHits:  hits,
		CacheMisses:     st.misses,
		TotalAPICalls:   st.apiCalls,
		APICallsSaved:   st.apiCallsSaved,
		CostSaved:       st.costSaved,
		HitRate:         rate,
		Efficiency:      Efficiency(st.requests, rate),
		QuestionsCached: len(s.questions),
		AnalysisCached:  len(s.analyses),
		PoolSize:        len(s.pool),
	}
}

// Status renders Stats as a short multi-line summary.
func (s *Store[Q, A]) Status() string {
	st := s.Stats()

	var b strings.Builder
	b.WriteString("Cache Status:\n")
	fmt.Fprintf(&b, "  Hit Rate: %.1f%%\n", st.HitRate)
	fmt.Fprintf(&b, "  Questions: %d\n", st.QuestionsCached)
	fmt.Fprintf(&b, "  Analysis: %d\n", st.AnalysisCached)
	fmt.Fprintf(&b, "  Saved: %.0f calls\n", st.APICallsSaved)
	fmt.Fprintf(&b, "  Cost: $%.2f\n", st.CostSaved)
	fmt.Fprintf(&b, "  Efficiency: %s", st.Efficiency)
	return b.String()
}

// Efficiency labels a hit rate given as a percentage.
func Efficiency(requests int64, hitRate float64) string {
	switch {
	case requests == 0:
		return "No data yet"
	case hitRate >= 80:
		return "Excellent (80%+)"
	case hitRate >= 60:
		return "Good (60-80%)"
	case hitRate >= 40:
		return "Fair (40-60%)"
	default:
		return "Warming up (<40%)"
	}
}
