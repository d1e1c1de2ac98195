package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/intervue-ai/intervue/pkg/models"
)

func newTestTracker(t *testing.T) *SQLiteTracker {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	tr, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func newSession(id string, mode models.SessionMode) *models.Session {
	return &models.Session{
		ID:             id,
		Mode:           mode,
		JobRole:        "Backend Developer",
		JobDescription: "Go services",
		ResumeText:     "five years of Go",
		Analysis:       models.Analysis{CompatibilityScore: 70, QuestionDifficulty: "Medium"},
		Questions: []models.Question{
			{Question: "What is a goroutine?", Type: "Technical", KeyTopic: "concurrency"},
			{Question: "Describe a hard bug.", Type: "Behavioral"},
		},
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func answer(q string, score int) models.AnswerRecord {
	return models.AnswerRecord{
		Question:   q,
		Answer:     "an answer",
		Evaluation: models.Evaluation{Score: score, Feedback: "ok"},
		Details:    models.QuestionDetails{Type: "Technical"},
		AnsweredAt: time.Now().UTC(),
	}
}

func TestCreateAndGet(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	s := newSession("s1", models.ModeStandard)
	if err := tr.Create(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := tr.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != models.ModeStandard || got.JobRole != "Backend Developer" {
		t.Errorf("unexpected session %+v", got)
	}
	if got.ResumeText != "five years of Go" {
		t.Errorf("resume not stored: %q", got.ResumeText)
	}
	if len(got.Questions) != 2 || got.Questions[0].KeyTopic != "concurrency" {
		t.Errorf("questions not round-tripped: %+v", got.Questions)
	}
	if got.Analysis.CompatibilityScore != 70 {
		t.Errorf("analysis not round-tripped: %+v", got.Analysis)
	}
	if !got.StartedAt.Equal(s.StartedAt) {
		t.Errorf("expected started at %v, got %v", s.StartedAt, got.StartedAt)
	}
	if got.CompletedAt != nil || got.FinalReport != nil || got.Results != nil {
		t.Errorf("new session should not be completed: %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	tr := newTestTracker(t)
	if _, err := tr.Get(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendAnswer(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	_ = tr.Create(ctx, newSession("s1", models.ModeStandard))

	if err := tr.AppendAnswer(ctx, "s1", 0, answer("What is a goroutine?", 8)); err != nil {
		t.Fatal(err)
	}

	got, err := tr.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentIndex != 1 {
		t.Errorf("expected index 1, got %d", got.CurrentIndex)
	}
	if len(got.Answers) != 1 || got.Answers[0].Evaluation.Score != 8 {
		t.Errorf("unexpected answers %+v", got.Answers)
	}
	if got.Answers[0].Details.Type != "Technical" {
		t.Errorf("details not stored: %+v", got.Answers[0].Details)
	}
}

func TestAppendAnswerStale(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	_ = tr.Create(ctx, newSession("s1", models.ModeStandard))

	if err := tr.AppendAnswer(ctx, "s1", 0, answer("q", 5)); err != nil {
		t.Fatal(err)
	}
	if err := tr.AppendAnswer(ctx, "s1", 0, answer("q", 5)); !errors.Is(err, ErrStaleSession) {
		t.Errorf("expected ErrStaleSession, got %v", err)
	}
	if err := tr.AppendAnswer(ctx, "missing", 0, answer("q", 5)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	got, _ := tr.Get(ctx, "s1")
	if len(got.Answers) != 1 {
		t.Errorf("stale append must not store an answer, got %d", len(got.Answers))
	}
}

func TestComplete(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()
	s := newSession("rf", models.ModeRapidFire)
	_ = tr.Create(ctx, s)
	_ = tr.AppendAnswer(ctx, "rf", 0, answer("q1", 0))
	_ = tr.AppendAnswer(ctx, "rf", 1, answer("q2", 0))

	s, _ = tr.Get(ctx, "rf")
	s.Answers[0].Evaluation.Score = 9
	s.Answers[1].Evaluation.Score = 4
	done := time.Now().UTC().Truncate(time.Second)
	s.CompletedAt = &done
	s.Results = &models.RapidFireResults{TotalQuestions: 2, AverageScore: 6.5, Rating: "CONSIDER"}

	if err := tr.Complete(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, err := tr.Get(ctx, "rf")
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(done) {
		t.Errorf("expected completed at %v, got %v", done, got.CompletedAt)
	}
	if got.Results == nil || got.Results.Rating != "CONSIDER" {
		t.Errorf("results not stored: %+v", got.Results)
	}
	if got.Answers[0].Evaluation.Score != 9 || got.Answers[1].Evaluation.Score != 4 {
		t.Errorf("batch scores not stored: %+v", got.Answers)
	}
	if got.FinalReport != nil {
		t.Errorf("expected no final report, got %+v", got.FinalReport)
	}
}

func TestCompleteMissing(t *testing.T) {
	tr := newTestTracker(t)
	err := tr.Complete(context.Background(), newSession("ghost", models.ModeStandard))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAnalytics(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	a, err := tr.Analytics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalSessions != 0 || a.AverageScore != 0 {
		t.Errorf("expected empty analytics, got %+v", a)
	}

	for _, id := range []string{"a", "b"} {
		_ = tr.Create(ctx, newSession(id, models.ModeStandard))
	}
	_ = tr.Create(ctx, newSession("rf", models.ModeRapidFire))

	// a averages 6, b averages 9.
	for id, scores := range map[string][]int{"a": {4, 8}, "b": {9, 9}} {
		for i, sc := range scores {
			if err := tr.AppendAnswer(ctx, id, i, answer("q", sc)); err != nil {
				t.Fatal(err)
			}
		}
		s, _ := tr.Get(ctx, id)
		if err := tr.Complete(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	a, err = tr.Analytics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalSessions != 3 {
		t.Errorf("expected 3 sessions, got %d", a.TotalSessions)
	}
	if a.TotalCandidates != 2 {
		t.Errorf("expected 2 candidates, got %d", a.TotalCandidates)
	}
	if a.CompletedInterviews != 2 {
		t.Errorf("expected 2 completed, got %d", a.CompletedInterviews)
	}
	if a.AverageScore != 7.5 {
		t.Errorf("expected average 7.5, got %v", a.AverageScore)
	}
}

func TestInMemory(t *testing.T) {
	tr, err := New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()

	ctx := context.Background()
	if err := tr.Create(ctx, newSession("m1", models.ModeStandard)); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Get(ctx, "m1"); err != nil {
		t.Errorf("expected session in memory db, got %v", err)
	}
}
