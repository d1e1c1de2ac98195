// Package interview runs interview sessions: it analyses a resume, picks or
// generates questions through the response cache, records answers and builds
// the completion reports.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/intervue-ai/intervue/pkg/cache/memory"
	"github.com/intervue-ai/intervue/pkg/config"
	"github.com/intervue-ai/intervue/pkg/llm"
	"github.com/intervue-ai/intervue/pkg/models"
	"github.com/intervue-ai/intervue/pkg/rapidfire"
	"github.com/intervue-ai/intervue/pkg/tracker"
)

var (
	ErrSessionComplete      = errors.New("interview already completed")
	ErrEmptyAnswer          = errors.New("answer cannot be empty")
	ErrAnswerTooLong        = errors.New("answer too long")
	ErrResumeTooShort       = errors.New("resume text too short")
	ErrLLMUnavailable       = errors.New("llm service unavailable")
	ErrRapidFireUnavailable = errors.New("rapid fire service unavailable")
)

// Tips shown when a session starts.
var (
	StandardTips = []string{
		"Listen carefully to each question",
		"Take a moment before answering",
		"Provide specific examples from your experience",
		"Ask for clarification if needed",
	}
	RapidFireTips = []string{
		"Keep answers concise",
		"Watch the timer on each question",
		"Focus on key points",
		"Stay calm under pressure",
	}
)

// QuestionCache is the response cache specialised to interview payloads.
type QuestionCache = memory.Store[models.Question, models.Analysis]

// Service coordinates sessions. The LLM client, cache and question bank are
// optional; a nil client disables standard interviews and a nil bank disables
// rapid fire.
type Service struct {
	cfg     *config.Config
	llm     llm.Client
	tracker tracker.Tracker
	cache   *QuestionCache
	bank    *rapidfire.Bank

	group singleflight.Group
	now   func() time.Time
	newID func() string
}

// New creates a Service.
func New(cfg *config.Config, client llm.Client, t tracker.Tracker, c *QuestionCache, b *rapidfire.Bank) *Service {
	return &Service{
		cfg:     cfg,
		llm:     client,
		tracker: t,
		cache:   c,
		bank:    b,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// StartRequest is the input for a standard interview.
type StartRequest struct {
	Resume         string
	JobRole        string
	JobDescription string
}

// StartResult describes a newly created session.
type StartResult struct {
	Session        *models.Session
	FirstQuestion  *models.Question
	Strategy       models.CacheStrategy
	AnalysisCached bool
	Tips           []string
}

// Progress is the 1-based position of the next question.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Summary condenses a completed session.
type Summary struct {
	TotalQuestions     int     `json:"total_questions"`
	AverageScore       float64 `json:"average_score"`
	Duration           string  `json:"duration"`
	DifficultyLevel    string  `json:"difficulty_level,omitempty"`
	EstimatedReadiness string  `json:"estimated_readiness,omitempty"`
	Rating             string  `json:"rating,omitempty"`
	Message            string  `json:"message,omitempty"`
}

// SubmitResult is the outcome of answering one question. Completed sessions
// carry their reports on Session and a Summary; otherwise NextQuestion and
// Progress are set.
type SubmitResult struct {
	Completed    bool
	Evaluation   models.Evaluation
	NextQuestion *models.Question
	Progress     Progress
	Session      *models.Session
	Summary      *Summary
}

// Start analyses the resume, selects questions and opens a standard session.
func (s *Service) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if s.llm == nil {
		return nil, ErrLLMUnavailable
	}
	resume := strings.TrimSpace(req.Resume)
	if utf8.RuneCountInString(resume) < s.cfg.Session.MinResumeLen {
		return nil, ErrResumeTooShort
	}
	role := strings.TrimSpace(req.JobRole)
	if role == "" {
		role = "General"
	}

	analysis, analysisCached := s.analyze(ctx, resume, req.JobDescription)
	n := analysis.SuggestedQuestions
	if n <= 0 {
		n = 4
	}
	difficulty := analysis.QuestionDifficulty
	if difficulty == "" {
		difficulty = "Medium"
	}

	questions, strategy := s.questions(ctx, llm.QuestionRequest{
		Resume:         resume,
		JobRole:        role,
		JobDescription: req.JobDescription,
		Count:          n,
		Difficulty:     difficulty,
		Topics:         analysis.KeyTopics,
	})

	sess := &models.Session{
		ID:             s.newID(),
		Mode:           models.ModeStandard,
		JobRole:        role,
		JobDescription: req.JobDescription,
		ResumeText:     resume,
		Analysis:       analysis,
		Questions:      questions,
		StartedAt:      s.now().UTC(),
	}
	if err := s.tracker.Create(ctx, sess); err != nil {
		return nil, err
	}
	log.Printf("session %s created: %d questions, %s difficulty, questions %s", sess.ID, len(questions), difficulty, strategy)

	return &StartResult{
		Session:        sess,
		FirstQuestion:  &sess.Questions[0],
		Strategy:       strategy,
		AnalysisCached: analysisCached,
		Tips:           StandardTips,
	}, nil
}

// StartRapidFire opens an offline session with questions from the bank.
func (s *Service) StartRapidFire(ctx context.Context, jobRole string) (*StartResult, error) {
	if s.bank == nil {
		return nil, ErrRapidFireUnavailable
	}
	role := strings.TrimSpace(jobRole)
	if role == "" {
		role = rapidfire.GeneralRole
	}

	questions := s.bank.Select(role, s.cfg.RapidFire.NumQuestions, s.cfg.RapidFire.TimePerQuestion)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions for %q", ErrRapidFireUnavailable, role)
	}

	sess := &models.Session{
		ID:             s.newID(),
		Mode:           models.ModeRapidFire,
		JobRole:        role,
		JobDescription: "Rapid Fire Mode",
		Questions:      questions,
		StartedAt:      s.now().UTC(),
	}
	if err := s.tracker.Create(ctx, sess); err != nil {
		return nil, err
	}
	log.Printf("rapid fire session %s created: %d questions for %s", sess.ID, len(questions), role)

	return &StartResult{
		Session:       sess,
		FirstQuestion: &sess.Questions[0],
		Strategy:      models.StrategyNoMatch,
		Tips:          RapidFireTips,
	}, nil
}

// SubmitAnswer records an answer to the current question. Standard answers
// are evaluated immediately; rapid fire answers are evaluated together when
// the round ends.
func (s *Service) SubmitAnswer(ctx context.Context, id, answer string) (*SubmitResult, error) {
	sess, err := s.tracker.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Done() {
		return nil, ErrSessionComplete
	}
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}
	if limit := s.cfg.Session.MaxAnswerLen; limit > 0 && utf8.RuneCountInString(answer) > limit {
		return nil, fmt.Errorf("%w: limit is %d characters", ErrAnswerTooLong, limit)
	}

	idx := sess.CurrentIndex
	q := sess.Questions[idx]

	var evaluation models.Evaluation
	if sess.Mode == models.ModeRapidFire {
		evaluation = models.Evaluation{Score: 0, Feedback: "Answer saved.", ConfidenceIndicator: "N/A"}
	} else {
		evaluation = s.evaluate(ctx, q, answer)
	}

	rec := models.AnswerRecord{
		Question:   q.Question,
		Answer:     answer,
		Evaluation: evaluation,
		Details: models.QuestionDetails{
			Type:       q.Type,
			Difficulty: q.Difficulty,
			KeyTopic:   q.KeyTopic,
			WhyAsked:   q.WhyAsked,
		},
		AnsweredAt: s.now().UTC(),
	}
	if err := s.tracker.AppendAnswer(ctx, id, idx, rec); err != nil {
		return nil, err
	}
	sess.Answers = append(sess.Answers, rec)
	sess.CurrentIndex++

	if !sess.Done() {
		return &SubmitResult{
			Evaluation:   evaluation,
			NextQuestion: &sess.Questions[sess.CurrentIndex],
			Progress:     Progress{Current: sess.CurrentIndex + 1, Total: len(sess.Questions)},
			Session:      sess,
		}, nil
	}

	log.Printf("session %s complete, building report", id)
	var summary *Summary
	if sess.Mode == models.ModeRapidFire {
		summary = s.completeRapidFire(ctx, sess)
	} else {
		summary = s.completeStandard(ctx, sess)
	}
	if err := s.tracker.Complete(ctx, sess); err != nil {
		return nil, err
	}
	return &SubmitResult{
		Completed:  true,
		Evaluation: sess.Answers[len(sess.Answers)-1].Evaluation,
		Progress:   Progress{Current: len(sess.Questions), Total: len(sess.Questions)},
		Session:    sess,
		Summary:    summary,
	}, nil
}

// LLMAvailable reports whether standard interviews can be started.
func (s *Service) LLMAvailable() bool {
	return s.llm != nil
}

// Session returns a stored session.
func (s *Service) Session(ctx context.Context, id string) (*models.Session, error) {
	return s.tracker.Get(ctx, id)
}

// Analytics returns platform-wide counts.
func (s *Service) Analytics(ctx context.Context) (models.Analytics, error) {
	return s.tracker.Analytics(ctx)
}

// CacheStats returns the cache accounting and whether caching is enabled.
func (s *Service) CacheStats() (models.CacheStats, bool) {
	if s.cache == nil {
		return models.CacheStats{Efficiency: memory.Efficiency(0, 0)}, false
	}
	return s.cache.Stats(), true
}

// ClearCache drops every cached question set and analysis, returning how many
// of each were removed. It reports false when caching is disabled.
func (s *Service) ClearCache() (questions, analyses int, ok bool) {
	if s.cache == nil {
		return 0, 0, false
	}
	questions, analyses, _ = s.cache.Size()
	s.cache.Clear()
	log.Printf("cache: cleared %d question sets and %d analyses", questions, analyses)
	return questions, analyses, true
}

func (s *Service) analyze(ctx context.Context, resume, description string) (models.Analysis, bool) {
	if s.cache != nil {
		if a, ok := s.cache.GetExactAnalysis(description); ok {
			return a, true
		}
	}

	s.noteCooldown()
	a, err := s.llm.AnalyzeResume(ctx, resume, description)
	if err != nil {
		log.Printf("resume analysis failed, using defaults: %v", err)
		return llm.DefaultAnalysis(), false
	}
	if s.cache != nil {
		s.cache.SaveAnalysis(a, description)
		s.cache.RecordAPICall()
	}
	return a, false
}

// questions serves a cached set when one matches and otherwise generates one.
// Concurrent misses for the same posting and difficulty share one generation.
func (s *Service) questions(ctx context.Context, req llm.QuestionRequest) ([]models.Question, models.CacheStrategy) {
	if s.cache != nil {
		if qs, strategy := s.cache.SmartResponse(req.JobRole, req.JobDescription, req.Difficulty); strategy.Hit() {
			return slices.Clone(qs[:min(req.Count, len(qs))]), strategy
		}
	}

	key := memory.Fingerprint(req.JobRole, req.JobDescription) + "|" + strings.ToLower(req.Difficulty)
	// The shared generation outlives any one caller; the llm timeout still bounds it.
	genCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		s.noteCooldown()
		qs, err := s.llm.GenerateQuestions(genCtx, req)
		if err != nil {
			return nil, err
		}
		if len(qs) == 0 {
			return nil, fmt.Errorf("generate questions: %w", memory.ErrEmptyPayload)
		}
		if s.cache != nil {
			if _, err := s.cache.SaveQuestions(qs, req.JobRole, req.JobDescription, req.Difficulty); err != nil {
				log.Printf("cache questions: %v", err)
			}
			s.cache.RecordAPICall()
		}
		return qs, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		log.Printf("question generation abandoned, using defaults: %v", ctx.Err())
		return llm.DefaultQuestions(req.JobRole, req.Count), models.StrategyNoMatch
	case res = <-ch:
	}
	if res.Err != nil {
		log.Printf("question generation failed, using defaults: %v", res.Err)
		return llm.DefaultQuestions(req.JobRole, req.Count), models.StrategyNoMatch
	}
	if res.Shared {
		log.Printf("question generation shared for %s", req.JobRole)
	}
	qs := res.Val.([]models.Question)
	return slices.Clone(qs[:min(req.Count, len(qs))]), models.StrategyNoMatch
}

func (s *Service) evaluate(ctx context.Context, q models.Question, answer string) models.Evaluation {
	if s.llm == nil {
		return llm.DefaultEvaluation()
	}
	ev, err := s.llm.EvaluateAnswer(ctx, q, answer)
	if err != nil {
		log.Printf("answer evaluation failed, using defaults: %v", err)
		return llm.DefaultEvaluation()
	}
	return ev
}

func (s *Service) noteCooldown() {
	if s.cache != nil && !s.cache.CanCallAPI() {
		log.Printf("llm: calling within the api cooldown")
	}
}

func (s *Service) completeStandard(ctx context.Context, sess *models.Session) *Summary {
	var sum int
	for _, a := range sess.Answers {
		sum += a.Evaluation.Score
	}
	avg := float64(sum) / float64(len(sess.Answers))

	learning := llm.DefaultLearningReport()
	final := llm.DefaultFinalReport()
	if s.llm != nil {
		if r, err := s.llm.LearningReport(ctx, sess.JobRole, sess.Analysis, sess.Answers); err != nil {
			log.Printf("learning report failed, using defaults: %v", err)
		} else {
			learning = r
		}
		// Answer scores are out of 10; the report prompt takes a percentage.
		if r, err := s.llm.FinalReport(ctx, int(math.Round(avg*10)), sess.Analysis); err != nil {
			log.Printf("final report failed, using defaults: %v", err)
		} else {
			final = r
		}
	}

	completed := s.now().UTC()
	sess.CompletedAt = &completed
	sess.LearningReport = &learning
	sess.FinalReport = &final

	return &Summary{
		TotalQuestions:     len(sess.Questions),
		AverageScore:       math.Round(avg*100) / 100,
		Duration:           completed.Sub(sess.StartedAt).Round(time.Second).String(),
		DifficultyLevel:    sess.Analysis.QuestionDifficulty,
		EstimatedReadiness: learning.EstimatedReadiness,
	}
}

// completeRapidFire scores the round in one model call, falling back to
// offline keyword scoring for any answer the model did not grade.
func (s *Service) completeRapidFire(ctx context.Context, sess *models.Session) *Summary {
	var batch models.BatchReport
	if s.llm != nil {
		r, err := s.llm.EvaluateBatch(ctx, sess.JobRole, sess.Answers)
		if err != nil {
			log.Printf("batch evaluation failed, scoring offline: %v", err)
		} else {
			batch = r
		}
	}

	scores := make([]int, len(sess.Answers))
	for i := range sess.Answers {
		if i < len(batch.QuestionEvaluations) {
			sess.Answers[i].Evaluation = batch.QuestionEvaluations[i]
		} else {
			sess.Answers[i].Evaluation = rapidfire.EvaluateOffline(sess.Answers[i].Answer, sess.Questions[i].Keywords)
		}
		scores[i] = sess.Answers[i].Evaluation.Score
	}

	completed := s.now().UTC()
	sess.CompletedAt = &completed
	results := rapidfire.Results(scores, sess.StartedAt, completed)
	if batch.OverallReport.Summary != "" {
		results.Message = batch.OverallReport.Summary
	}
	sess.Results = &results

	return &Summary{
		TotalQuestions: results.TotalQuestions,
		AverageScore:   results.AverageScore,
		Duration:       completed.Sub(sess.StartedAt).Round(time.Second).String(),
		Rating:         results.Rating,
		Message:        results.Message,
	}
}
