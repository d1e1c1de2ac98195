package models

// Question is a single interview question, either generated or drawn from the
// offline bank.
type Question struct {
	Question           string   `json:"question"`
	Type               string   `json:"type"`
	Difficulty         string   `json:"difficulty"`
	WhyAsked           string   `json:"why_asked,omitempty"`
	SampleAnswerPoints []string `json:"sample_answer_points,omitempty"`
	KeyTopic           string   `json:"key_topic,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	Number             int      `json:"question_number,omitempty"`
	TimeLimit          int      `json:"time_limit,omitempty"` // seconds
}

// Analysis is the resume-versus-job assessment that drives question generation.
type Analysis struct {
	CompatibilityScore int      `json:"compatibility_score"`
	SkillMatch         int      `json:"skill_match"`
	ExperienceLevel    string   `json:"experience_level"`
	Gaps               []string `json:"gaps"`
	Strengths          []string `json:"strengths"`
	SuggestedQuestions int      `json:"suggested_questions"`
	QuestionDifficulty string   `json:"question_difficulty"`
	KeyTopics          []string `json:"key_topics"`
	LearningFocus      string   `json:"learning_focus"`
	Summary            string   `json:"summary"`
}

// Evaluation is the feedback for one answer. Score is 1-10 once evaluated and 0
// while a rapid fire answer is waiting for batch evaluation.
type Evaluation struct {
	Score               int      `json:"score"`
	Feedback            string   `json:"feedback"`
	Strengths           []string `json:"strengths,omitempty"`
	Improvements        []string `json:"improvements,omitempty"`
	MissingPoints       []string `json:"missing_points,omitempty"`
	HowToImprove        string   `json:"how_to_improve,omitempty"`
	ExampleImprovement  string   `json:"example_improvement,omitempty"`
	ConfidenceIndicator string   `json:"confidence_indicator,omitempty"`
	RealInterviewTip    string   `json:"real_interview_tip,omitempty"`
	FollowUpTopic       string   `json:"follow_up_topic,omitempty"`
}

// PreparationPlan is the study plan section of a learning report.
type PreparationPlan struct {
	ImmediateFocus string   `json:"immediate_focus"`
	DailyPractice  []string `json:"daily_practice"`
	Resources      []string `json:"resources"`
}

// LearningReport summarises what a candidate should work on next.
type LearningReport struct {
	OverallAssessment           string          `json:"overall_assessment"`
	Recommendation              string          `json:"recommendation"`
	ConfidenceLevel             int             `json:"confidence_level"`
	StrengthsDemonstrated       []string        `json:"strengths_demonstrated"`
	AreasForImprovement         []string        `json:"areas_for_improvement"`
	PreparationPlan             PreparationPlan `json:"preparation_plan"`
	InterviewTips               []string        `json:"interview_tips"`
	NextSteps                   []string        `json:"next_steps"`
	TechnicalTopicsToStudy      []string        `json:"technical_topics_to_study"`
	BehavioralPatternsToDevelop []string        `json:"behavioral_patterns_to_develop"`
	EstimatedReadiness          string          `json:"estimated_readiness"`
	MotivationalMessage         string          `json:"motivational_message"`
}

// FinalReport is the readiness verdict produced when a standard interview ends.
type FinalReport struct {
	Recommendation                string   `json:"recommendation"`
	OverallSummary                string   `json:"overall_summary"`
	InterviewReadiness            int      `json:"interview_readiness"`
	ConfidenceBoost               string   `json:"confidence_boost"`
	KeyLearnings                  []string `json:"key_learnings"`
	NextBigStep                   string   `json:"next_big_step"`
	EstimatedInterviewSuccessRate string   `json:"estimated_interview_success_rate"`
}

// BatchReport is the result of evaluating a whole rapid fire round at once.
type BatchReport struct {
	QuestionEvaluations []Evaluation  `json:"question_evaluations"`
	OverallReport       OverallReport `json:"overall_report"`
}

// OverallReport is the summary half of a BatchReport.
type OverallReport struct {
	AverageScore float64 `json:"average_score"`
	Rating       string  `json:"rating"`
	Summary      string  `json:"summary"`
}

// RapidFireResults is the scored outcome of a completed rapid fire round.
type RapidFireResults struct {
	TotalQuestions   int     `json:"total_questions"`
	AverageScore     float64 `json:"average_score"`
	BestScore        int     `json:"best_score"`
	WorstScore       int     `json:"worst_score"`
	Scores           []int   `json:"scores"`
	Rating           string  `json:"rating"`
	Message          string  `json:"message"`
	TotalTimeSeconds int     `json:"total_time_seconds"`
}
