package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/intervue-ai/intervue/pkg/config"
	"github.com/intervue-ai/intervue/pkg/models"
)

// Gemini implements Client against the Gemini API.
type Gemini struct {
	model    string
	timeout  time.Duration
	complete func(ctx context.Context, prompt string) (string, error)
}

// NewGemini creates a Gemini client from the LLM config.
func NewGemini(ctx context.Context, cfg config.LLMConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	g := &Gemini{model: cfg.Model, timeout: cfg.Timeout}
	g.complete = func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return g, nil
}

// generate sends one prompt under the configured timeout and returns the raw text.
func (g *Gemini) generate(ctx context.Context, op, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.complete(ctx, prompt)
	if err != nil {
		log.Printf("llm: %s failed after %v: %v", op, time.Since(start), err)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	log.Printf("llm: %s completed in %v", op, time.Since(start))
	return text, nil
}

// AnalyzeResume scores the resume against the job description and suggests
// how many questions to ask and at what difficulty.
func (g *Gemini) AnalyzeResume(ctx context.Context, resume, jobDescription string) (models.Analysis, error) {
	prompt := fmt.Sprintf(`Analyze this resume against the job description. Return ONLY valid JSON.

RESUME:
%s

JOB DESCRIPTION:
%s

Return this JSON object and nothing else:
{"compatibility_score": 75, "skill_match": 80, "experience_level": "Mid", "gaps": ["gap1"], "strengths": ["strength1"], "suggested_questions": 4, "question_difficulty": "Medium", "key_topics": ["topic1"], "learning_focus": "what to study", "summary": "brief summary"}

suggested_questions must be between 3 and 6.`, truncate(resume, 1500), truncate(jobDescription, 1000))

	text, err := g.generate(ctx, "analyze resume", prompt)
	if err != nil {
		return models.Analysis{}, err
	}
	return parseAnalysis(text)
}

// GenerateQuestions asks for req.Count questions tailored to the resume and role.
func (g *Gemini) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]models.Question, error) {
	topics := "general"
	if len(req.Topics) > 0 {
		topics = strings.Join(req.Topics[:min(5, len(req.Topics))], ", ")
	}
	prompt := fmt.Sprintf(`Generate %[1]d interview questions for: %[2]s

Resume: %[3]s
Job requirements: %[4]s
Topics: %[5]s
Difficulty: %[6]s

Return ONLY a JSON array where each element has this shape:
[{"question": "the question text", "type": "Technical", "difficulty": "%[6]s", "why_asked": "why this matters", "sample_answer_points": ["point1", "point2"], "key_topic": "topic"}]`,
		req.Count, req.JobRole, truncate(req.Resume, 1000), truncate(req.JobDescription, 800), topics, req.Difficulty)

	text, err := g.generate(ctx, "generate questions", prompt)
	if err != nil {
		return nil, err
	}
	return parseQuestions(text, req.Count, req.Difficulty)
}

// EvaluateAnswer scores one answer from 1 to 10 with feedback.
func (g *Gemini) EvaluateAnswer(ctx context.Context, q models.Question, answer string) (models.Evaluation, error) {
	expected := "Good examples"
	if len(q.SampleAnswerPoints) > 0 {
		expected = strings.Join(q.SampleAnswerPoints, ", ")
	}
	prompt := fmt.Sprintf(`Evaluate this interview answer. Return ONLY valid JSON.

QUESTION: %s
ANSWER: %s
EXPECTED: %s

Return this JSON object:
{"score": 7, "feedback": "Good answer", "strengths": ["strength1"], "improvements": ["improvement1"], "missing_points": ["missing1"], "how_to_improve": "how to improve", "example_improvement": "better answer", "confidence_indicator": "Good", "real_interview_tip": "real tip", "follow_up_topic": "topic"}

score must be between 1 and 10.`, q.Question, answer, expected)

	text, err := g.generate(ctx, "evaluate answer", prompt)
	if err != nil {
		return models.Evaluation{}, err
	}
	return parseEvaluation(text)
}

// EvaluateBatch grades a whole rapid fire round in one call. The returned
// evaluations may be fewer than answers.
func (g *Gemini) EvaluateBatch(ctx context.Context, jobRole string, answers []models.AnswerRecord) (models.BatchReport, error) {
	var b strings.Builder
	for i, a := range answers {
		fmt.Fprintf(&b, "%d. Q: %s\nA: %s\n\n", i+1, a.Question, truncate(a.Answer, 600))
	}
	prompt := fmt.Sprintf(`You are grading a rapid fire interview for: %s
Evaluate every answer below in order. Return ONLY valid JSON.

%s
Return this JSON object with exactly %d entries in question_evaluations:
{"question_evaluations": [{"score": 7, "feedback": "short feedback", "strengths": ["s1"], "missing_points": ["m1"], "how_to_improve": "tip"}], "overall_report": {"average_score": 7.0, "rating": "CONSIDER", "summary": "one paragraph"}}

Scores must be between 1 and 10. rating is one of HIRE, CONSIDER, TRAIN.`, jobRole, b.String(), len(answers))

	text, err := g.generate(ctx, "evaluate batch", prompt)
	if err != nil {
		return models.BatchReport{}, err
	}
	return parseBatch(text)
}

// LearningReport builds the study plan shown when a standard interview ends.
func (g *Gemini) LearningReport(ctx context.Context, jobRole string, analysis models.Analysis, answers []models.AnswerRecord) (models.LearningReport, error) {
	var scores strings.Builder
	for _, a := range answers[:min(3, len(answers))] {
		fmt.Fprintf(&scores, "Q: %s\nScore: %d/10\n", a.Question, a.Evaluation.Score)
	}
	prompt := fmt.Sprintf(`Generate a learning report. Return ONLY valid JSON.

Job: %s
Compatibility: %d%%
Level: %s
Scores:
%s
Return this JSON object:
{"overall_assessment": "assessment", "recommendation": "Good Fit", "confidence_level": 7, "strengths_demonstrated": ["s1"], "areas_for_improvement": ["a1"], "preparation_plan": {"immediate_focus": "focus", "daily_practice": ["p1"], "resources": ["r1"]}, "interview_tips": ["t1"], "next_steps": ["n1"], "technical_topics_to_study": ["t1"], "behavioral_patterns_to_develop": ["b1"], "estimated_readiness": "2 weeks prep", "motivational_message": "You got this!"}

confidence_level must be between 1 and 10.`, jobRole, analysis.CompatibilityScore, orString(analysis.ExperienceLevel, "Mid"), scores.String())

	text, err := g.generate(ctx, "learning report", prompt)
	if err != nil {
		return models.LearningReport{}, err
	}
	return parseLearningReport(text)
}

// FinalReport gives the readiness verdict for an average score in percent.
func (g *Gemini) FinalReport(ctx context.Context, score int, analysis models.Analysis) (models.FinalReport, error) {
	prompt := fmt.Sprintf(`Generate a final interview report. Return ONLY valid JSON.

Score: %d%%
Experience: %s

Return this JSON object:
{"recommendation": "Good Fit", "overall_summary": "summary", "interview_readiness": 7, "confidence_boost": "motivational", "key_learnings": ["l1"], "next_big_step": "next step", "estimated_interview_success_rate": "75%%"}

interview_readiness must be between 1 and 10.`, score, orString(analysis.ExperienceLevel, "Mid"))

	text, err := g.generate(ctx, "final report", prompt)
	if err != nil {
		return models.FinalReport{}, err
	}
	return parseFinalReport(text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
