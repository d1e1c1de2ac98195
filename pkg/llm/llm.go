// Package llm wraps the language model used for resume analysis, question
// generation and answer feedback.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/intervue-ai/intervue/pkg/models"
)

var (
	// ErrNoAPIKey is returned when no model API key is configured.
	ErrNoAPIKey = errors.New("llm: no API key configured")
	// ErrMalformedResponse is returned when model output is not the expected JSON.
	ErrMalformedResponse = errors.New("llm: malformed response")
)

// QuestionRequest describes a set of questions to generate.
type QuestionRequest struct {
	Resume         string
	JobRole        string
	JobDescription string
	Count          int
	Difficulty     string
	Topics         []string
}

// Client produces interview content. Callers fall back to the Default*
// values when a call fails.
type Client interface {
	AnalyzeResume(ctx context.Context, resume, jobDescription string) (models.Analysis, error)
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]models.Question, error)
	EvaluateAnswer(ctx context.Context, q models.Question, answer string) (models.Evaluation, error)
	EvaluateBatch(ctx context.Context, jobRole string, answers []models.AnswerRecord) (models.BatchReport, error)
	LearningReport(ctx context.Context, jobRole string, analysis models.Analysis, answers []models.AnswerRecord) (models.LearningReport, error)
	FinalReport(ctx context.Context, score int, analysis models.Analysis) (models.FinalReport, error)
}

// DefaultAnalysis is used when the model cannot analyse a resume.
func DefaultAnalysis() models.Analysis {
	return models.Analysis{
		CompatibilityScore: 50,
		SkillMatch:         50,
		ExperienceLevel:    "Mid",
		Gaps:               []string{"Check manually"},
		Strengths:          []string{"Experience"},
		SuggestedQuestions: 4,
		QuestionDifficulty: "Medium",
		KeyTopics:          []string{"general", "technical", "behavioral"},
		LearningFocus:      "Focus on technical depth and real-world examples",
		Summary:            "Analysis unavailable - using defaults",
	}
}

// DefaultQuestions returns up to n generic questions for the role.
func DefaultQuestions(jobRole string, n int) []models.Question {
	qs := []models.Question{
		{
			Question:           fmt.Sprintf("Tell us about your experience as a %s.", jobRole),
			Type:               "Behavioral",
			Difficulty:         "Medium",
			WhyAsked:           "To understand your background and experience",
			SampleAnswerPoints: []string{"Years of experience", "Key projects", "Technologies used"},
			KeyTopic:           "Experience",
		},
		{
			Question:           fmt.Sprintf("What's your strongest skill related to %s?", jobRole),
			Type:               "General",
			Difficulty:         "Easy",
			WhyAsked:           "To identify your core competencies",
			SampleAnswerPoints: []string{"Specific skill", "How you developed it", "Examples"},
			KeyTopic:           "Skills",
		},
		{
			Question:           "Describe a challenging problem you solved at work.",
			Type:               "Technical",
			Difficulty:         "Medium",
			WhyAsked:           "To see your problem-solving approach",
			SampleAnswerPoints: []string{"Problem description", "Your approach", "Final solution"},
			KeyTopic:           "Problem Solving",
		},
		{
			Question:           "How do you stay updated with the latest technologies?",
			Type:               "Behavioral",
			Difficulty:         "Easy",
			WhyAsked:           "To assess your learning mindset",
			SampleAnswerPoints: []string{"Learning methods", "Recent learnings", "Certifications"},
			KeyTopic:           "Learning",
		},
	}
	if n < 1 {
		n = 1
	}
	return qs[:min(n, len(qs))]
}

// DefaultEvaluation is used when an answer cannot be evaluated.
func DefaultEvaluation() models.Evaluation {
	return models.Evaluation{
		Score:               6,
		Feedback:            "Good attempt with room for improvement",
		Strengths:           []string{"Clear communication"},
		Improvements:        []string{"Add more specific examples"},
		MissingPoints:       []string{"Quantifiable metrics"},
		HowToImprove:        "Include specific numbers and metrics in your examples",
		ExampleImprovement:  "Instead of 'improved performance', say 'reduced latency by 40%'",
		ConfidenceIndicator: "Average",
		RealInterviewTip:    "Always back up claims with measurable results",
		FollowUpTopic:       "Technical depth",
	}
}

// DefaultLearningReport is used when the learning report cannot be generated.
func DefaultLearningReport() models.LearningReport {
	return models.LearningReport{
		OverallAssessment:     "Good performance overall",
		Recommendation:        "Good Fit",
		ConfidenceLevel:       7,
		StrengthsDemonstrated: []string{"Communication", "Problem-solving"},
		AreasForImprovement:   []string{"Technical depth", "System design"},
		PreparationPlan: models.PreparationPlan{
			ImmediateFocus: "Practice coding problems",
			DailyPractice:  []string{"DSA problems - 30 min", "System design - 30 min"},
			Resources:      []string{"LeetCode", "System Design Primer"},
		},
		InterviewTips: []string{
			"Think aloud during problem solving",
			"Ask clarifying questions first",
			"Use STAR method for behavioral questions",
		},
		NextSteps:                   []string{"Practice daily", "Review weak areas", "Mock interviews"},
		TechnicalTopicsToStudy:      []string{"Data Structures", "Algorithms"},
		BehavioralPatternsToDevelop: []string{"STAR method", "Confidence"},
		EstimatedReadiness:          "Ready in 2 weeks",
		MotivationalMessage:         "You're on the right track! Keep practicing.",
	}
}

// DefaultFinalReport is used when the final report cannot be generated.
func DefaultFinalReport() models.FinalReport {
	return models.FinalReport{
		Recommendation:                "Good Fit",
		OverallSummary:                "Solid performance in interview",
		InterviewReadiness:            7,
		ConfidenceBoost:               "You're ready for real interviews with a bit more practice",
		KeyLearnings:                  []string{"Technical communication", "Practical examples", "Problem-solving"},
		NextBigStep:                   "Apply to real positions with confidence",
		EstimatedInterviewSuccessRate: "75%",
	}
}
