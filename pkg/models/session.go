package models

import "time"

// SessionMode distinguishes LLM-driven interviews from offline rapid fire rounds.
type SessionMode string

const (
	ModeStandard  SessionMode = "standard"
	ModeRapidFire SessionMode = "rapid_fire"
)

// Session tracks one interview from start to report.
type Session struct {
	ID             string            `json:"session_id"`
	Mode           SessionMode       `json:"mode"`
	JobRole        string            `json:"job_role"`
	JobDescription string            `json:"job_description"`
	ResumeText     string            `json:"-"`
	Analysis       Analysis          `json:"analysis"`
	Questions      []Question        `json:"questions"`
	Answers        []AnswerRecord    `json:"answers"`
	CurrentIndex   int               `json:"current_question"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	FinalReport    *FinalReport      `json:"final_report,omitempty"`
	LearningReport *LearningReport   `json:"learning_report,omitempty"`
	Results        *RapidFireResults `json:"results,omitempty"`
}

// Done reports whether every question has been answered.
func (s *Session) Done() bool {
	return s.CurrentIndex >= len(s.Questions)
}

// AnswerRecord is a submitted answer and its evaluation.
type AnswerRecord struct {
	Question   string          `json:"question"`
	Answer     string          `json:"answer"`
	Evaluation Evaluation      `json:"evaluation"`
	Details    QuestionDetails `json:"question_details"`
	AnsweredAt time.Time       `json:"answered_at"`
}

// QuestionDetails copies the question metadata onto the answer record.
type QuestionDetails struct {
	Type       string `json:"type,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	KeyTopic   string `json:"key_topic,omitempty"`
	WhyAsked   string `json:"why_asked,omitempty"`
}

// Analytics aggregates platform-wide interview counts.
type Analytics struct {
	TotalSessions       int     `json:"total_sessions"`
	CompletedInterviews int     `json:"completed_interviews"`
	AverageScore        float64 `json:"average_score"`
	TotalCandidates     int     `json:"total_candidates"`
}
