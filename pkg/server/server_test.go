package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/intervue-ai/intervue/pkg/cache/memory"
	"github.com/intervue-ai/intervue/pkg/config"
	"github.com/intervue-ai/intervue/pkg/interview"
	"github.com/intervue-ai/intervue/pkg/llm"
	"github.com/intervue-ai/intervue/pkg/models"
	"github.com/intervue-ai/intervue/pkg/rapidfire"
	"github.com/intervue-ai/intervue/pkg/tracker"
)

const resume = "Data engineer with Spark, Airflow and Python experience running nightly ETL pipelines."

type stubLLM struct{}

func (stubLLM) AnalyzeResume(context.Context, string, string) (models.Analysis, error) {
	return models.Analysis{SuggestedQuestions: 3, QuestionDifficulty: "Medium", LearningFocus: "streaming"}, nil
}

func (stubLLM) GenerateQuestions(_ context.Context, req llm.QuestionRequest) ([]models.Question, error) {
	var qs []models.Question
	for i := range req.Count {
		qs = append(qs, models.Question{Question: fmt.Sprintf("Q%d", i+1), Type: "Technical"})
	}
	return qs, nil
}

func (stubLLM) EvaluateAnswer(context.Context, models.Question, string) (models.Evaluation, error) {
	return models.Evaluation{Score: 7, Feedback: "fine", HowToImprove: "add numbers"}, nil
}

func (stubLLM) EvaluateBatch(context.Context, string, []models.AnswerRecord) (models.BatchReport, error) {
	return models.BatchReport{}, llm.ErrMalformedResponse
}

func (stubLLM) LearningReport(context.Context, string, models.Analysis, []models.AnswerRecord) (models.LearningReport, error) {
	return models.LearningReport{NextSteps: []string{"mock interviews"}}, nil
}

func (stubLLM) FinalReport(context.Context, int, models.Analysis) (models.FinalReport, error) {
	return models.FinalReport{Recommendation: "Good Fit"}, nil
}

func setupServer(t *testing.T, client llm.Client) *Server {
	t.Helper()
	tr, err := tracker.New(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tr.Close() })

	cfg := config.Default()
	cfg.Listen = ":0"
	cfg.RapidFire.NumQuestions = 2

	bank := rapidfire.NewBank(map[string][]models.Question{
		"General": {
			{Question: "Why this company?", Keywords: []string{"mission"}},
			{Question: "Biggest weakness?", Keywords: []string{"improve"}},
		},
	}, rand.New(rand.NewPCG(1, 1)))

	c := memory.New[models.Question, models.Analysis]()
	return New(cfg, interview.New(cfg, client, tr, c, bank))
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return out
}

func startInterview(t *testing.T, srv *Server) (string, *httptest.ResponseRecorder) {
	t.Helper()
	body := fmt.Sprintf(`{"resume":%q,"job_role":"Data Engineer","job_description":"Batch pipelines on Spark"}`, resume)
	w := do(t, srv, http.MethodPost, "/interviews", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decodeBody(t, w)["session_id"].(string), w
}

func TestRootAndHealth(t *testing.T) {
	srv := setupServer(t, stubLLM{})

	w := do(t, srv, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody(t, w)["llm_status"]; got != "connected" {
		t.Errorf("expected connected, got %v", got)
	}

	w = do(t, srv, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "healthy" || body["cache_enabled"] != true {
		t.Errorf("unexpected health %v", body)
	}

	if w := do(t, srv, http.MethodGet, "/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", w.Code)
	}
}

func TestStartInterviewCacheHeader(t *testing.T) {
	srv := setupServer(t, stubLLM{})

	_, w := startInterview(t, srv)
	if got := w.Header().Get("X-Intervue-Cache"); got != "no_match" {
		t.Errorf("expected no_match on first start, got %q", got)
	}
	body := decodeBody(t, w)
	if body["total_questions"] != float64(3) {
		t.Errorf("expected 3 questions, got %v", body["total_questions"])
	}
	if body["learning_focus"] != "streaming" {
		t.Errorf("unexpected learning focus %v", body["learning_focus"])
	}

	_, w = startInterview(t, srv)
	if got := w.Header().Get("X-Intervue-Cache"); got != "exact_match" {
		t.Errorf("expected exact_match on repeat, got %q", got)
	}

	w = do(t, srv, http.MethodGet, "/cache/stats", "")
	stats := decodeBody(t, w)["stats"].(map[string]any)
	if stats["exact_hits"] != float64(2) {
		t.Errorf("expected 2 exact hits, got %v", stats["exact_hits"])
	}
}

func TestInterviewFlow(t *testing.T) {
	srv := setupServer(t, stubLLM{})
	id, _ := startInterview(t, srv)
	path := "/interviews/" + id + "/answers"

	w := do(t, srv, http.MethodPost, path, `{"answer":"I partition by date."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["status"] != "success" || body["learning_insight"] != "add numbers" {
		t.Errorf("unexpected answer response %v", body)
	}
	progress := body["progress"].(map[string]any)
	if progress["current"] != float64(2) || progress["total"] != float64(3) {
		t.Errorf("unexpected progress %v", progress)
	}

	do(t, srv, http.MethodPost, path, `{"answer":"Retries with backoff."}`)
	w = do(t, srv, http.MethodPost, path, `{"answer":"Idempotent writes."}`)
	body = decodeBody(t, w)
	if body["status"] != "completed" {
		t.Fatalf("expected completed, got %v", body)
	}
	if body["final_report"] == nil || body["next_steps"] == nil {
		t.Errorf("expected reports, got %v", body)
	}

	w = do(t, srv, http.MethodPost, path, `{"answer":"late"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 after completion, got %d", w.Code)
	}

	w = do(t, srv, http.MethodGet, "/interviews/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	sess := decodeBody(t, w)["session"].(map[string]any)
	if sess["current_question"] != float64(3) || sess["completed_at"] == nil {
		t.Errorf("unexpected session %v", sess)
	}

	w = do(t, srv, http.MethodGet, "/analytics", "")
	body = decodeBody(t, w)
	if got := body["insights"].(map[string]any)["platform_rating"]; got != "7.0/10" {
		t.Errorf("unexpected platform rating %v", got)
	}
}

func TestRapidFireFlow(t *testing.T) {
	srv := setupServer(t, stubLLM{})

	w := do(t, srv, http.MethodPost, "/rapid-fire", `{"job_role":"Product Manager"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	id := body["session_id"].(string)
	if body["mode"] != "rapid_fire" || body["total_questions"] != float64(2) {
		t.Errorf("unexpected rapid fire start %v", body)
	}

	do(t, srv, http.MethodPost, "/rapid-fire/"+id+"/answers", `{"answer":"our mission matters to me"}`)
	w = do(t, srv, http.MethodPost, "/rapid-fire/"+id+"/answers", `{"answer":"I keep trying to improve"}`)
	body = decodeBody(t, w)
	if body["status"] != "completed" {
		t.Fatalf("expected completed, got %v", body)
	}
	results := body["results"].(map[string]any)
	if results["total_questions"] != float64(2) {
		t.Errorf("unexpected results %v", results)
	}
}

func TestErrorResponses(t *testing.T) {
	srv := setupServer(t, stubLLM{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"invalid json", http.MethodPost, "/interviews", `{`, http.StatusBadRequest},
		{"short resume", http.MethodPost, "/interviews", `{"resume":"hi"}`, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/interviews/missing", "", http.StatusNotFound},
		{"answer unknown session", http.MethodPost, "/interviews/missing/answers", `{"answer":"x"}`, http.StatusNotFound},
		{"wrong method", http.MethodGet, "/interviews", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, tt.method, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if tt.code == http.StatusMethodNotAllowed {
				return
			}
			body := decodeBody(t, w)
			if body["status"] != "error" || body["detail"] == "" || body["timestamp"] == nil {
				t.Errorf("unexpected error body %v", body)
			}
		})
	}

	id, _ := startInterview(t, srv)
	w := do(t, srv, http.MethodPost, "/interviews/"+id+"/answers", `{"answer":"  "}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty answer, got %d", w.Code)
	}
}

func TestLLMUnavailable(t *testing.T) {
	srv := setupServer(t, nil)

	body := fmt.Sprintf(`{"resume":%q,"job_role":"Data Engineer"}`, resume)
	w := do(t, srv, http.MethodPost, "/interviews", body)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
	w = do(t, srv, http.MethodGet, "/", "")
	if got := decodeBody(t, w)["llm_status"]; got != "disconnected" {
		t.Errorf("expected disconnected, got %v", got)
	}
}

func TestCacheClear(t *testing.T) {
	srv := setupServer(t, stubLLM{})
	startInterview(t, srv)

	w := do(t, srv, http.MethodDelete, "/cache", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["questions_cleared"] != float64(1) || body["analyses_cleared"] != float64(1) {
		t.Errorf("unexpected clear response %v", body)
	}

	_, w = startInterview(t, srv)
	if got := w.Header().Get("X-Intervue-Cache"); got != "no_match" {
		t.Errorf("expected no_match after clear, got %q", got)
	}
}

func TestCacheClearDisabled(t *testing.T) {
	tr, err := tracker.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tr.Close() })
	cfg := config.Default()
	srv := New(cfg, interview.New(cfg, stubLLM{}, tr, nil, nil))

	if w := do(t, srv, http.MethodDelete, "/cache", ""); w.Code != http.StatusConflict {
		t.Errorf("expected 409 with cache disabled, got %d", w.Code)
	}
}
