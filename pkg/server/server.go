// Package server exposes the interview service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/intervue-ai/intervue/pkg/config"
	"github.com/intervue-ai/intervue/pkg/interview"
	"github.com/intervue-ai/intervue/pkg/models"
	"github.com/intervue-ai/intervue/pkg/tracker"
)

const (
	serviceName    = "InterVue AI"
	serviceVersion = "3.0.0"
	maxBodyBytes   = 1 << 20
)

// Server is the InterVue HTTP API.
type Server struct {
	cfg *config.Config
	svc *interview.Service
	mux *http.ServeMux
	now func() time.Time
}

// New creates a Server wired to the interview service.
func New(cfg *config.Config, svc *interview.Service) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		mux: http.NewServeMux(),
		now: time.Now,
	}
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /interviews", s.handleStart)
	s.mux.HandleFunc("POST /rapid-fire", s.handleStartRapidFire)
	s.mux.HandleFunc("POST /interviews/{id}/answers", s.handleAnswer)
	s.mux.HandleFunc("POST /rapid-fire/{id}/answers", s.handleAnswer)
	s.mux.HandleFunc("GET /interviews/{id}", s.handleSession)
	s.mux.HandleFunc("GET /analytics", s.handleAnalytics)
	s.mux.HandleFunc("GET /cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("DELETE /cache", s.handleCacheClear)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the API server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("intervue listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	status := "disconnected"
	if s.svc.LLMAvailable() {
		status = "connected"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": s.now().Format(time.RFC3339),
		"features": []string{
			"Smart Question Generation",
			"Adaptive Difficulty",
			"Learning Insights",
			"Rapid Fire Practice",
		},
		"llm_status": status,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.svc.Analytics(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	_, cacheEnabled := s.svc.CacheStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"service":         serviceName,
		"version":         serviceVersion,
		"llm_connected":   s.svc.LLMAvailable(),
		"cache_enabled":   cacheEnabled,
		"sessions_active": analytics.TotalSessions - analytics.CompletedInterviews,
		"analytics":       analytics,
		"timestamp":       s.now().Format(time.RFC3339),
	})
}

type startRequest struct {
	Resume         string `json:"resume"`
	JobRole        string `json:"job_role"`
	JobDescription string `json:"job_description"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.svc.Start(r.Context(), interview.StartRequest{
		Resume:         req.Resume,
		JobRole:        req.JobRole,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("X-Intervue-Cache", string(res.Strategy))
	a := res.Session.Analysis
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":          "success",
		"session_id":      res.Session.ID,
		"analysis":        a,
		"analysis_cached": res.AnalysisCached,
		"cache_strategy":  res.Strategy,
		"first_question":  res.FirstQuestion,
		"total_questions": len(res.Session.Questions),
		"difficulty":      a.QuestionDifficulty,
		"learning_focus":  a.LearningFocus,
		"key_topics":      a.KeyTopics,
		"interview_tips":  res.Tips,
	})
}

type rapidFireRequest struct {
	JobRole string `json:"job_role"`
}

func (s *Server) handleStartRapidFire(w http.ResponseWriter, r *http.Request) {
	var req rapidFireRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.svc.StartRapidFire(r.Context(), req.JobRole)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":     "success",
		"session_id": res.Session.ID,
		"mode":       res.Session.Mode,
		"config": map[string]any{
			"num_questions":     s.cfg.RapidFire.NumQuestions,
			"time_per_question": int(s.cfg.RapidFire.TimePerQuestion.Seconds()),
		},
		"first_question":  res.FirstQuestion,
		"total_questions": len(res.Session.Questions),
		"interview_tips":  res.Tips,
	})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.svc.SubmitAnswer(r.Context(), r.PathValue("id"), req.Answer)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !res.Completed {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":             "success",
			"evaluation":         res.Evaluation,
			"learning_insight":   res.Evaluation.HowToImprove,
			"real_interview_tip": res.Evaluation.RealInterviewTip,
			"follow_up_topic":    res.Evaluation.FollowUpTopic,
			"next_question":      res.NextQuestion,
			"progress":           res.Progress,
		})
		return
	}

	sess := res.Session
	body := map[string]any{
		"status":            "completed",
		"mode":              sess.Mode,
		"evaluation":        res.Evaluation,
		"interview_summary": res.Summary,
	}
	if sess.Mode == models.ModeRapidFire {
		body["results"] = sess.Results
	} else {
		body["final_report"] = sess.FinalReport
		body["learning_report"] = sess.LearningReport
		if sess.LearningReport != nil {
			body["next_steps"] = sess.LearningReport.NextSteps
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"session": map[string]any{
			"session_id":       sess.ID,
			"mode":             sess.Mode,
			"job_role":         sess.JobRole,
			"difficulty":       sess.Analysis.QuestionDifficulty,
			"current_question": sess.CurrentIndex,
			"total_questions":  len(sess.Questions),
			"answers":          sess.Answers,
			"started_at":       sess.StartedAt,
			"completed_at":     sess.CompletedAt,
		},
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Analytics(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	insights := map[string]string{"platform_rating": "N/A"}
	if a.CompletedInterviews > 0 {
		insights["platform_rating"] = fmt.Sprintf("%.1f/10", a.AverageScore)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"analytics": a,
		"insights":  insights,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	st, enabled := s.svc.CacheStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"cache_enabled": enabled,
		"stats":         st,
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	questions, analyses, ok := s.svc.ClearCache()
	if !ok {
		s.writeErrorStatus(w, http.StatusConflict, "cache is disabled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"questions_cleared": questions,
		"analyses_cleared":  analyses,
	})
}

// decode reads a JSON request body, writing a 400 and returning false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeError maps service errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, tracker.ErrSessionNotFound):
		code = http.StatusNotFound
	case errors.Is(err, interview.ErrEmptyAnswer),
		errors.Is(err, interview.ErrAnswerTooLong),
		errors.Is(err, interview.ErrResumeTooShort):
		code = http.StatusBadRequest
	case errors.Is(err, interview.ErrSessionComplete),
		errors.Is(err, tracker.ErrStaleSession):
		code = http.StatusConflict
	case errors.Is(err, interview.ErrLLMUnavailable),
		errors.Is(err, interview.ErrRapidFireUnavailable):
		code = http.StatusServiceUnavailable
	default:
		log.Printf("request failed: %v", err)
		s.writeErrorStatus(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeErrorStatus(w, code, err.Error())
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]any{
		"status":    "error",
		"detail":    detail,
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
