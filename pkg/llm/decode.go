package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/intervue-ai/intervue/pkg/models"
)

// cleanJSON strips markdown code fences and control characters other than
// whitespace from model output.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	text = strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}

func decode(text string, out any) error {
	if err := json.Unmarshal([]byte(cleanJSON(text)), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// flexInt accepts a JSON number or a numeric string.
type flexInt struct {
	v  int
	ok bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.v, f.ok = int(n), true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.v, f.ok = int(n), true
		}
	}
	return nil
}

func (f flexInt) or(def int) int {
	if !f.ok {
		return def
	}
	return f.v
}

// flexList accepts a JSON array of strings or a single string.
type flexList struct {
	v  []string
	ok bool
}

func (f *flexList) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		f.v, f.ok = list, true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.v, f.ok = []string{s}, true
	}
	return nil
}

func (f flexList) or(def ...string) []string {
	if !f.ok {
		return def
	}
	return f.v
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func orString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

type analysisWire struct {
	CompatibilityScore flexInt  `json:"compatibility_score"`
	SkillMatch         flexInt  `json:"skill_match"`
	ExperienceLevel    string   `json:"experience_level"`
	Gaps               flexList `json:"gaps"`
	Strengths          flexList `json:"strengths"`
	SuggestedQuestions flexInt  `json:"suggested_questions"`
	QuestionDifficulty string   `json:"question_difficulty"`
	KeyTopics          flexList `json:"key_topics"`
	LearningFocus      string   `json:"learning_focus"`
	Summary            string   `json:"summary"`
}

func parseAnalysis(text string) (models.Analysis, error) {
	var w analysisWire
	if err := decode(text, &w); err != nil {
		return models.Analysis{}, err
	}
	return models.Analysis{
		CompatibilityScore: clamp(w.CompatibilityScore.or(50), 0, 100),
		SkillMatch:         clamp(w.SkillMatch.or(50), 0, 100),
		ExperienceLevel:    orString(w.ExperienceLevel, "Mid"),
		Gaps:               w.Gaps.or("General preparation"),
		Strengths:          w.Strengths.or("Problem solving"),
		SuggestedQuestions: clamp(w.SuggestedQuestions.or(4), 3, 6),
		QuestionDifficulty: orString(w.QuestionDifficulty, "Medium"),
		KeyTopics:          w.KeyTopics.or("general", "technical"),
		LearningFocus:      w.LearningFocus,
		Summary:            w.Summary,
	}, nil
}

type questionWire struct {
	Question           string   `json:"question"`
	Type               string   `json:"type"`
	Difficulty         string   `json:"difficulty"`
	WhyAsked           string   `json:"why_asked"`
	SampleAnswerPoints flexList `json:"sample_answer_points"`
	KeyTopic           string   `json:"key_topic"`
}

// parseQuestions accepts a JSON array or a single object, keeps at most n
// entries that carry question text and fills missing metadata.
func parseQuestions(text string, n int, difficulty string) ([]models.Question, error) {
	cleaned := cleanJSON(text)
	var ws []questionWire
	if strings.HasPrefix(cleaned, "{") {
		var w questionWire
		if err := decode(cleaned, &w); err != nil {
			return nil, err
		}
		ws = []questionWire{w}
	} else if err := decode(cleaned, &ws); err != nil {
		return nil, err
	}

	var out []models.Question
	for _, w := range ws[:min(n, len(ws))] {
		if strings.TrimSpace(w.Question) == "" {
			continue
		}
		out = append(out, models.Question{
			Question:           w.Question,
			Type:               orString(w.Type, "General"),
			Difficulty:         orString(w.Difficulty, difficulty),
			WhyAsked:           orString(w.WhyAsked, "To assess your experience"),
			SampleAnswerPoints: w.SampleAnswerPoints.or("Experience", "Skills"),
			KeyTopic:           orString(w.KeyTopic, "General"),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrMalformedResponse)
	}
	return out, nil
}

type evaluationWire struct {
	Score               flexInt  `json:"score"`
	Feedback            string   `json:"feedback"`
	Strengths           flexList `json:"strengths"`
	Improvements        flexList `json:"improvements"`
	MissingPoints       flexList `json:"missing_points"`
	HowToImprove        string   `json:"how_to_improve"`
	ExampleImprovement  string   `json:"example_improvement"`
	ConfidenceIndicator string   `json:"confidence_indicator"`
	RealInterviewTip    string   `json:"real_interview_tip"`
	FollowUpTopic       string   `json:"follow_up_topic"`
}

func (w evaluationWire) normalize() models.Evaluation {
	return models.Evaluation{
		Score:               clamp(w.Score.or(5), 1, 10),
		Feedback:            orString(w.Feedback, "Good attempt"),
		Strengths:           w.Strengths.or("Good"),
		Improvements:        w.Improvements.or("Good"),
		MissingPoints:       w.MissingPoints.or("Good"),
		HowToImprove:        orString(w.HowToImprove, "Add more details"),
		ExampleImprovement:  w.ExampleImprovement,
		ConfidenceIndicator: w.ConfidenceIndicator,
		RealInterviewTip:    orString(w.RealInterviewTip, "Be specific"),
		FollowUpTopic:       orString(w.FollowUpTopic, "General"),
	}
}

func parseEvaluation(text string) (models.Evaluation, error) {
	var w evaluationWire
	if err := decode(text, &w); err != nil {
		return models.Evaluation{}, err
	}
	return w.normalize(), nil
}

type batchWire struct {
	QuestionEvaluations []evaluationWire `json:"question_evaluations"`
	OverallReport       struct {
		AverageScore float64 `json:"average_score"`
		Rating       string  `json:"rating"`
		Summary      string  `json:"summary"`
	} `json:"overall_report"`
}

func parseBatch(text string) (models.BatchReport, error) {
	var w batchWire
	if err := decode(text, &w); err != nil {
		return models.BatchReport{}, err
	}
	if len(w.QuestionEvaluations) == 0 {
		return models.BatchReport{}, fmt.Errorf("%w: no evaluations", ErrMalformedResponse)
	}
	r := models.BatchReport{
		OverallReport: models.OverallReport{
			AverageScore: w.OverallReport.AverageScore,
			Rating:       w.OverallReport.Rating,
			Summary:      w.OverallReport.Summary,
		},
	}
	for _, e := range w.QuestionEvaluations {
		r.QuestionEvaluations = append(r.QuestionEvaluations, e.normalize())
	}
	return r, nil
}

type learningWire struct {
	OverallAssessment     string   `json:"overall_assessment"`
	Recommendation        string   `json:"recommendation"`
	ConfidenceLevel       flexInt  `json:"confidence_level"`
	StrengthsDemonstrated flexList `json:"strengths_demonstrated"`
	AreasForImprovement   flexList `json:"areas_for_improvement"`
	PreparationPlan       struct {
		ImmediateFocus string   `json:"immediate_focus"`
		DailyPractice  flexList `json:"daily_practice"`
		Resources      flexList `json:"resources"`
	} `json:"preparation_plan"`
	InterviewTips               flexList `json:"interview_tips"`
	NextSteps                   flexList `json:"next_steps"`
	TechnicalTopicsToStudy      flexList `json:"technical_topics_to_study"`
	BehavioralPatternsToDevelop flexList `json:"behavioral_patterns_to_develop"`
	EstimatedReadiness          string   `json:"estimated_readiness"`
	MotivationalMessage         string   `json:"motivational_message"`
}

func parseLearningReport(text string) (models.LearningReport, error) {
	var w learningWire
	if err := decode(text, &w); err != nil {
		return models.LearningReport{}, err
	}
	return models.LearningReport{
		OverallAssessment:     w.OverallAssessment,
		Recommendation:        w.Recommendation,
		ConfidenceLevel:       clamp(w.ConfidenceLevel.or(5), 1, 10),
		StrengthsDemonstrated: w.StrengthsDemonstrated.or("Item"),
		AreasForImprovement:   w.AreasForImprovement.or("Item"),
		PreparationPlan: models.PreparationPlan{
			ImmediateFocus: w.PreparationPlan.ImmediateFocus,
			DailyPractice:  w.PreparationPlan.DailyPractice.or("Practice daily"),
			Resources:      w.PreparationPlan.Resources.or("Study resources"),
		},
		InterviewTips:               w.InterviewTips.or("Item"),
		NextSteps:                   w.NextSteps.or("Item"),
		TechnicalTopicsToStudy:      w.TechnicalTopicsToStudy.or("Item"),
		BehavioralPatternsToDevelop: w.BehavioralPatternsToDevelop.or("Item"),
		EstimatedReadiness:          orString(w.EstimatedReadiness, "2 weeks prep"),
		MotivationalMessage:         w.MotivationalMessage,
	}, nil
}

type finalWire struct {
	Recommendation                string   `json:"recommendation"`
	OverallSummary                string   `json:"overall_summary"`
	InterviewReadiness            flexInt  `json:"interview_readiness"`
	ConfidenceBoost               string   `json:"confidence_boost"`
	KeyLearnings                  flexList `json:"key_learnings"`
	NextBigStep                   string   `json:"next_big_step"`
	EstimatedInterviewSuccessRate string   `json:"estimated_interview_success_rate"`
}

func parseFinalReport(text string) (models.FinalReport, error) {
	var w finalWire
	if err := decode(text, &w); err != nil {
		return models.FinalReport{}, err
	}
	return models.FinalReport{
		Recommendation:                w.Recommendation,
		OverallSummary:                w.OverallSummary,
		InterviewReadiness:            clamp(w.InterviewReadiness.or(5), 1, 10),
		ConfidenceBoost:               w.ConfidenceBoost,
		KeyLearnings:                  w.KeyLearnings.or("Learning 1", "Learning 2"),
		NextBigStep:                   w.NextBigStep,
		EstimatedInterviewSuccessRate: w.EstimatedInterviewSuccessRate,
	}, nil
}
