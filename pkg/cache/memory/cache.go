// Package memory is the in-process response cache for generated interview
// questions and resume analyses. Question sets are found by exact fingerprint
// or, failing that, by the most similar recent job posting; analyses are exact
// match only. Nothing outlives the process.
//
// A Store is guarded by a single RWMutex. Every lookup mutates accounting or
// entry metadata, so lookups take the write lock; only size and existence
// queries share the read lock.
package memory

import (
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/intervue-ai/intervue/pkg/models"
	"github.com/intervue-ai/intervue/pkg/similarity"
)

// ErrEmptyPayload is returned when saving a question set with no questions.
var ErrEmptyPayload = errors.New("empty payload")

// Defaults applied by New.
const (
	DefaultTTL             = 24 * time.Hour
	DefaultMaxPoolSize     = 500
	DefaultThreshold       = 65.0
	DefaultMaxSimilarReuse = 5
	DefaultAPICooldown     = 500 * time.Millisecond
)

// HighSimilarity is the score at or above which a similarity hit is tagged
// high rather than medium.
const HighSimilarity = 80.0

// Per-hit accounting credits.
const (
	exactCallCredit    = 1.0
	similarCallCredit  = 0.5
	exactCostCredit    = 0.001
	analysisCostCredit = 0.0005
)

// Scorer rates the similarity of two job postings on a 0-100 scale.
type Scorer interface {
	Score(roleA, descA, roleB, descB string) float64
}

// Option configures a Store.
type Option func(*options)

type options struct {
	ttl             time.Duration
	maxPoolSize     int
	threshold       float64
	maxSimilarReuse int
	apiCooldown     time.Duration
	scorer          Scorer
	now             func() time.Time
}

// WithTTL sets how long entries live. Zero expires entries immediately.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithMaxPoolSize bounds the similarity pool.
func WithMaxPoolSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPoolSize = n
		}
	}
}

// WithThreshold sets the minimum similarity SmartResponse accepts.
func WithThreshold(score float64) Option {
	return func(o *options) { o.threshold = score }
}

// WithMaxSimilarReuse sets the access count above which an entry stops being a
// similarity candidate.
func WithMaxSimilarReuse(n int) Option {
	return func(o *options) { o.maxSimilarReuse = n }
}

// WithAPICooldown sets the advisory minimum gap between external calls.
func WithAPICooldown(d time.Duration) Option {
	return func(o *options) { o.apiCooldown = d }
}

// WithScorer replaces the default similarity scorer.
func WithScorer(s Scorer) Option {
	return func(o *options) { o.scorer = s }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

type questionEntry[Q any] struct {
	fingerprint string
	role        string
	description string
	difficulty  string
	questions   []Q
	createdAt   time.Time
	expiresAt   time.Time
	accessCount int
}

type analysisEntry[A any] struct {
	key         string
	description string
	analysis    A
	createdAt   time.Time
	expiresAt   time.Time
	accessCount int
}

type poolItem[Q any] struct {
	entry      *questionEntry[Q]
	accessedAt time.Time
	seq        uint64 // breaks accessedAt ties; higher is more recent
}

type counters struct {
	exactHits     int64
	similarHits   int64
	misses        int64
	apiCalls      int64
	requests      int64
	apiCallsSaved float64
	costSaved     float64
}

// Store caches question sets of type Q and analyses of type A. The cache never
// inspects either payload.
type Store[Q, A any] struct {
	mu   sync.RWMutex
	opts options

	questions map[string]*questionEntry[Q]
	analyses  map[string]*analysisEntry[A]
	pool      []*poolItem[Q]
	seq       uint64

	stats    counters
	lastCall time.Time
}

// New creates an empty Store.
func New[Q, A any](opts ...Option) *Store[Q, A] {
	o := options{
		ttl:             DefaultTTL,
		maxPoolSize:     DefaultMaxPoolSize,
		threshold:       DefaultThreshold,
		maxSimilarReuse: DefaultMaxSimilarReuse,
		apiCooldown:     DefaultAPICooldown,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scorer == nil {
		o.scorer = similarity.New()
	}
	return &Store[Q, A]{
		opts:      o,
		questions: make(map[string]*questionEntry[Q]),
		analyses:  make(map[string]*analysisEntry[A]),
	}
}

// SaveQuestions stores a question set and adds it to the similarity pool,
// returning its fingerprint. Saving the same role and description again
// replaces the earlier entry.
func (s *Store[Q, A]) SaveQuestions(questions []Q, role, description, difficulty string) (string, error) {
	if len(questions) == 0 {
		return "", ErrEmptyPayload
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	fp := Fingerprint(role, description)
	if old, ok := s.questions[fp]; ok {
		s.dropFromPool(old)
	}

	e := &questionEntry[Q]{
		fingerprint: fp,
		role:        role,
		description: description,
		difficulty:  difficulty,
		questions:   slices.Clone(questions),
		createdAt:   now,
		expiresAt:   now.Add(s.opts.ttl),
	}
	s.questions[fp] = e
	s.pool = append(s.pool, &poolItem[Q]{entry: e, accessedAt: now, seq: s.nextSeq()})
	s.evict()

	log.Printf("cache: questions saved: %s (%s)", role, difficulty)
	return fp, nil
}

// GetExactQuestions returns the question set saved for exactly this role,
// description and difficulty.
func (s *Store[Q, A]) GetExactQuestions(role, description, difficulty string) ([]Q, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.requests++
	if qs, ok := s.exact(role, description, difficulty); ok {
		return qs, true
	}
	s.stats.misses++
	return nil, false
}

// GetSimilarQuestions returns the best-scoring pooled question set with the
// same difficulty whose similarity is at least threshold, with its score.
func (s *Store[Q, A]) GetSimilarQuestions(role, description, difficulty string, threshold float64) ([]Q, float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.requests++
	if qs, score, ok := s.similar(role, description, difficulty, threshold); ok {
		return qs, score, true
	}
	s.stats.misses++
	return nil, 0, false
}

// SmartResponse tries an exact match, then a similarity match at the configured
// threshold. An exact match always takes precedence.
func (s *Store[Q, A]) SmartResponse(role, description, difficulty string) ([]Q, models.CacheStrategy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.requests++
	if qs, ok := s.exact(role, description, difficulty); ok {
		return qs, models.StrategyExact
	}
	if qs, score, ok := s.similar(role, description, difficulty, s.opts.threshold); ok {
		if score >= HighSimilarity {
			return qs, models.StrategyHighSimilarity
		}
		return qs, models.StrategyMediumSimilarity
	}
	s.stats.misses++
	log.Printf("cache: no match: %s (%s)", role, difficulty)
	return nil, models.StrategyNoMatch
}

// SaveAnalysis stores an analysis under the description's analysis key.
func (s *Store[Q, A]) SaveAnalysis(analysis A, description string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	key := AnalysisKey(description)
	s.analyses[key] = &analysisEntry[A]{
		key:         key,
		description: truncate(description, analysisKeyLen),
		analysis:    analysis,
		createdAt:   now,
		expiresAt:   now.Add(s.opts.ttl),
	}
	log.Printf("cache: analysis saved")
	return key
}

// GetExactAnalysis returns the analysis saved for this description.
func (s *Store[Q, A]) GetExactAnalysis(description string) (A, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.requests++
	key := AnalysisKey(description)
	e, ok := s.analyses[key]
	if ok && e.expired(s.opts.now()) {
		delete(s.analyses, key)
		ok = false
	}
	if !ok {
		s.stats.misses++
		var zero A
		return zero, false
	}

	e.accessCount++
	s.stats.exactHits++
	s.stats.apiCallsSaved += exactCallCredit
	s.stats.costSaved += analysisCostCredit
	log.Printf("cache: analysis hit")
	return e.analysis, true
}

// Contains reports whether an unexpired question set exists for the role and
// description, without touching accounting.
func (s *Store[Q, A]) Contains(role, description string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.questions[Fingerprint(role, description)]
	return ok && !e.expired(s.opts.now())
}

// Size returns the number of cached question sets, analyses and pool items.
func (s *Store[Q, A]) Size() (questions, analyses, pool int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions), len(s.analyses), len(s.pool)
}

// Clear drops every entry. Accounting is kept.
func (s *Store[Q, A]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = make(map[string]*questionEntry[Q])
	s.analyses = make(map[string]*analysisEntry[A])
	s.pool = nil
}

// SweepExpired removes expired question sets and analyses and returns how many
// were removed.
func (s *Store[Q, A]) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweep()
}

func (s *Store[Q, A]) exact(role, description, difficulty string) ([]Q, bool) {
	fp := Fingerprint(role, description)
	e, ok := s.questions[fp]
	if !ok {
		return nil, false
	}
	if e.expired(s.opts.now()) {
		delete(s.questions, fp)
		s.dropFromPool(e)
		return nil, false
	}
	if e.difficulty != difficulty {
		return nil, false
	}

	e.accessCount++
	s.stats.exactHits++
	s.stats.apiCallsSaved += exactCallCredit
	s.stats.costSaved += exactCostCredit
	log.Printf("cache: exact hit: %s", role)
	return slices.Clone(e.questions), true
}

func (s *Store[Q, A]) similar(role, description, difficulty string, threshold float64) ([]Q, float64, bool) {
	now := s.opts.now()

	var (
		best      *poolItem[Q]
		bestScore float64
	)
	for _, item := range s.pool {
		e := item.entry
		if e.difficulty != difficulty || e.accessCount > s.opts.maxSimilarReuse || e.expired(now) {
			continue
		}
		score := s.opts.scorer.Score(role, description, e.role, e.description)
		if best == nil || score > bestScore {
			best, bestScore = item, score
		}
	}
	if best == nil || bestScore < threshold {
		return nil, 0, false
	}

	best.entry.accessCount++
	best.accessedAt = now
	best.seq = s.nextSeq()
	s.stats.similarHits++
	s.stats.apiCallsSaved += similarCallCredit
	s.stats.costSaved += similarCostCredit(bestScore)
	log.Printf("cache: similar hit: %.1f%% similarity", bestScore)
	return slices.Clone(best.entry.questions), bestScore, true
}

// similarCostCredit scales the saved cost by how close the match was.
func similarCostCredit(score float64) float64 {
	switch {
	case score >= HighSimilarity:
		return 0.0008
	case score >= 70:
		return 0.0005
	default:
		return 0.0003
	}
}

// evict keeps the most recently accessed items when the pool is over capacity.
func (s *Store[Q, A]) evict() {
	if len(s.pool) <= s.opts.maxPoolSize {
		return
	}
	slices.SortFunc(s.pool, func(a, b *poolItem[Q]) int {
		if c := b.accessedAt.Compare(a.accessedAt); c != 0 {
			return c
		}
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})
	clear(s.pool[s.opts.maxPoolSize:])
	s.pool = s.pool[:s.opts.maxPoolSize]
}

func (s *Store[Q, A]) dropFromPool(e *questionEntry[Q]) {
	s.pool = slices.DeleteFunc(s.pool, func(item *poolItem[Q]) bool {
		return item.entry == e
	})
}

func (s *Store[Q, A]) sweep() int {
	now := s.opts.now()
	removed := 0
	for k, e := range s.questions {
		if e.expired(now) {
			delete(s.questions, k)
			removed++
		}
	}
	for k, e := range s.analyses {
		if e.expired(now) {
			delete(s.analyses, k)
			removed++
		}
	}
	s.pool = slices.DeleteFunc(s.pool, func(item *poolItem[Q]) bool {
		return item.entry.expired(now)
	})
	return removed
}

func (s *Store[Q, A]) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (e *questionEntry[Q]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

func (e *analysisEntry[A]) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}
