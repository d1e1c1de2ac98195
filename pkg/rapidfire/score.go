package rapidfire

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/intervue-ai/intervue/pkg/models"
)

// EvaluateOffline scores an answer from its length and keyword coverage:
// a base of 2, up to 3 for length and up to 5 for keywords, clamped to 1-10.
// An empty answer scores 0.
func EvaluateOffline(answer string, keywords []string) models.Evaluation {
	if strings.TrimSpace(answer) == "" {
		return models.Evaluation{
			Score:               0,
			Feedback:            "No answer provided.",
			ConfidenceIndicator: "None",
		}
	}

	length := utf8.RuneCountInString(answer)
	lengthScore := 1
	switch {
	case length > 100:
		lengthScore = 3
	case length > 50:
		lengthScore = 2
	}

	lower := strings.ToLower(answer)
	var matched, missing []string
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			matched = append(matched, k)
		} else {
			missing = append(missing, k)
		}
	}
	var ratio float64
	if len(keywords) > 0 {
		ratio = float64(len(matched)) / float64(len(keywords))
	}
	keywordScore := 0
	switch {
	case ratio > 0.7:
		keywordScore = 5
	case ratio > 0.4:
		keywordScore = 4
	case ratio > 0.2:
		keywordScore = 3
	case ratio > 0:
		keywordScore = 2
	}

	score := min(10, max(1, 2+lengthScore+keywordScore))

	var feedback string
	switch {
	case score >= 8:
		feedback = "Excellent! You covered key concepts clearly."
	case score >= 6:
		feedback = "Good answer. Try to mention: " + strings.Join(keywords[:min(2, len(keywords))], ", ")
	default:
		feedback = "A bit short. Key terms missing: " + strings.Join(keywords[:min(3, len(keywords))], ", ")
	}

	confidence := "Medium"
	if length > 200 {
		confidence = "High"
	}
	focus := "the topic"
	if len(keywords) > 0 {
		focus = keywords[0]
	}

	return models.Evaluation{
		Score:               score,
		Feedback:            feedback,
		Strengths:           matched,
		MissingPoints:       missing,
		ConfidenceIndicator: confidence,
		HowToImprove:        fmt.Sprintf("Elaborate more on %s.", focus),
		RealInterviewTip:    "Use the STAR method (Situation, Task, Action, Result).",
		FollowUpTopic:       "General",
	}
}

// Results summarises a finished round.
func Results(scores []int, started, completed time.Time) models.RapidFireResults {
	if len(scores) == 0 {
		return models.RapidFireResults{Rating: "N/A", Message: "No answers recorded."}
	}

	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := float64(sum) / float64(len(scores))

	r := models.RapidFireResults{
		TotalQuestions:   len(scores),
		AverageScore:     math.Round(avg*10) / 10,
		BestScore:        slices.Max(scores),
		WorstScore:       slices.Min(scores),
		Scores:           slices.Clone(scores),
		TotalTimeSeconds: int(completed.Sub(started).Seconds()),
	}
	switch {
	case avg >= 8:
		r.Rating, r.Message = "HIRE", "Outstanding! You are ready for this role."
	case avg >= 6:
		r.Rating, r.Message = "CONSIDER", "Strong potential. Review weak areas."
	default:
		r.Rating, r.Message = "TRAIN", "Keep practicing. Focus on technical depth."
	}
	return r
}
