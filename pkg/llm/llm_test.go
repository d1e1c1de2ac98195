package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/intervue-ai/intervue/pkg/config"
	"github.com/intervue-ai/intervue/pkg/models"
)

func stubGemini(reply string, err error) (*Gemini, *[]string) {
	var prompts []string
	g := &Gemini{model: "test-model"}
	g.complete = func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return reply, err
	}
	return g, &prompts
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", `[1,2]`},
		{"  {\"a\":\"b\x01c\"}  ", `{"a":"bc"}`},
	}
	for _, tt := range tests {
		if got := cleanJSON(tt.in); got != tt.want {
			t.Errorf("cleanJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseAnalysisClamps(t *testing.T) {
	a, err := parseAnalysis(`{"compatibility_score": "82", "skill_match": 140, "suggested_questions": 12, "gaps": "Kubernetes"}`)
	if err != nil {
		t.Fatal(err)
	}
	if a.CompatibilityScore != 82 {
		t.Errorf("expected 82 from string, got %d", a.CompatibilityScore)
	}
	if a.SkillMatch != 100 {
		t.Errorf("expected skill match clamped to 100, got %d", a.SkillMatch)
	}
	if a.SuggestedQuestions != 6 {
		t.Errorf("expected suggested questions clamped to 6, got %d", a.SuggestedQuestions)
	}
	if len(a.Gaps) != 1 || a.Gaps[0] != "Kubernetes" {
		t.Errorf("expected single gap, got %v", a.Gaps)
	}
	if a.ExperienceLevel != "Mid" || a.QuestionDifficulty != "Medium" {
		t.Errorf("expected defaults, got %q %q", a.ExperienceLevel, a.QuestionDifficulty)
	}
	if len(a.KeyTopics) != 2 {
		t.Errorf("expected default topics, got %v", a.KeyTopics)
	}

	a, err = parseAnalysis(`{"suggested_questions": 1}`)
	if err != nil {
		t.Fatal(err)
	}
	if a.SuggestedQuestions != 3 {
		t.Errorf("expected suggested questions clamped to 3, got %d", a.SuggestedQuestions)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := parseAnalysis("I think the candidate is great"); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
	if _, err := parseQuestions(`[{"type": "Technical"}]`, 3, "Hard"); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse for questions without text, got %v", err)
	}
	if _, err := parseBatch(`{"question_evaluations": []}`); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse for empty batch, got %v", err)
	}
}

func TestParseQuestions(t *testing.T) {
	text := "```json\n" + `[
		{"question": "Explain goroutines", "type": "Technical"},
		{"question": "", "type": "Technical"},
		{"question": "Describe a conflict", "difficulty": "Easy", "sample_answer_points": ["situation", "result"]},
		{"question": "Design a cache"}
	]` + "\n```"

	qs, err := parseQuestions(text, 3, "Hard")
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions within the first 3 entries, got %d", len(qs))
	}
	if qs[0].Difficulty != "Hard" || qs[0].KeyTopic != "General" || len(qs[0].SampleAnswerPoints) != 2 {
		t.Errorf("defaults not applied: %+v", qs[0])
	}
	if qs[1].Type != "General" || qs[1].Difficulty != "Easy" {
		t.Errorf("unexpected second question %+v", qs[1])
	}

	qs, err = parseQuestions(`{"question": "Only one"}`, 4, "Medium")
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 || qs[0].Question != "Only one" {
		t.Errorf("expected single object to be accepted, got %+v", qs)
	}
}

func TestParseEvaluationClamps(t *testing.T) {
	ev, err := parseEvaluation(`{"score": 14, "strengths": "clear", "improvements": null}`)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Score != 10 {
		t.Errorf("expected score clamped to 10, got %d", ev.Score)
	}
	if len(ev.Strengths) != 1 || ev.Strengths[0] != "clear" {
		t.Errorf("unexpected strengths %v", ev.Strengths)
	}
	if len(ev.Improvements) != 1 {
		t.Errorf("expected default improvements, got %v", ev.Improvements)
	}
	if ev.HowToImprove != "Add more details" || ev.FollowUpTopic != "General" {
		t.Errorf("defaults not applied: %+v", ev)
	}

	ev, err = parseEvaluation(`{"score": 0}`)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Score != 1 {
		t.Errorf("expected score clamped to 1, got %d", ev.Score)
	}
}

func TestParseReports(t *testing.T) {
	lr, err := parseLearningReport(`{"confidence_level": 20, "preparation_plan": {"immediate_focus": "SQL", "daily_practice": "drills"}}`)
	if err != nil {
		t.Fatal(err)
	}
	if lr.ConfidenceLevel != 10 {
		t.Errorf("expected confidence clamped to 10, got %d", lr.ConfidenceLevel)
	}
	if lr.PreparationPlan.ImmediateFocus != "SQL" || len(lr.PreparationPlan.DailyPractice) != 1 {
		t.Errorf("unexpected plan %+v", lr.PreparationPlan)
	}
	if len(lr.PreparationPlan.Resources) != 1 || lr.PreparationPlan.Resources[0] != "Study resources" {
		t.Errorf("expected default resources, got %v", lr.PreparationPlan.Resources)
	}

	fr, err := parseFinalReport(`{"recommendation": "Strong Fit", "interview_readiness": -2}`)
	if err != nil {
		t.Fatal(err)
	}
	if fr.InterviewReadiness != 1 {
		t.Errorf("expected readiness clamped to 1, got %d", fr.InterviewReadiness)
	}
	if len(fr.KeyLearnings) != 2 {
		t.Errorf("expected default learnings, got %v", fr.KeyLearnings)
	}
}

func TestGeminiGenerateQuestions(t *testing.T) {
	g, prompts := stubGemini(`[{"question": "What is a channel?"}]`, nil)

	qs, err := g.GenerateQuestions(context.Background(), QuestionRequest{
		JobRole:    "Go Developer",
		Count:      4,
		Difficulty: "Medium",
		Topics:     []string{"concurrency", "testing"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	p := (*prompts)[0]
	if !strings.Contains(p, "Generate 4 interview questions for: Go Developer") {
		t.Errorf("prompt missing request line: %s", p)
	}
	if !strings.Contains(p, "concurrency, testing") {
		t.Errorf("prompt missing topics: %s", p)
	}
}

func TestGeminiTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	g, _ := stubGemini("", boom)

	_, err := g.EvaluateAnswer(context.Background(), models.Question{Question: "Why Go?"}, "Because")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
}

func TestGeminiEvaluateBatch(t *testing.T) {
	g, prompts := stubGemini(`{"question_evaluations": [{"score": 8}, {"score": "4"}], "overall_report": {"average_score": 6, "rating": "CONSIDER"}}`, nil)

	answers := []models.AnswerRecord{
		{Question: "What is REST?", Answer: "An architectural style"},
		{Question: "What is gRPC?", Answer: "RPC over HTTP/2"},
	}
	r, err := g.EvaluateBatch(context.Background(), "Backend Developer", answers)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.QuestionEvaluations) != 2 || r.QuestionEvaluations[1].Score != 4 {
		t.Errorf("unexpected evaluations %+v", r.QuestionEvaluations)
	}
	if r.OverallReport.Rating != "CONSIDER" {
		t.Errorf("unexpected rating %q", r.OverallReport.Rating)
	}
	if !strings.Contains((*prompts)[0], "2. Q: What is gRPC?") {
		t.Errorf("prompt missing numbered answers: %s", (*prompts)[0])
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), config.LLMConfig{Model: "gemini-2.5-flash"})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	if got := DefaultQuestions("SRE", 2); len(got) != 2 || !strings.Contains(got[0].Question, "SRE") {
		t.Errorf("unexpected default questions %+v", got)
	}
	if got := DefaultQuestions("SRE", 10); len(got) != 4 {
		t.Errorf("expected all 4 default questions, got %d", len(got))
	}
	if got := DefaultQuestions("SRE", 0); len(got) != 1 {
		t.Errorf("expected at least one default question, got %d", len(got))
	}
	if a := DefaultAnalysis(); a.SuggestedQuestions != 4 || a.QuestionDifficulty != "Medium" {
		t.Errorf("unexpected default analysis %+v", a)
	}
}
