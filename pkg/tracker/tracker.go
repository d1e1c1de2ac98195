package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/intervue-ai/intervue/pkg/models"
)

var (
	// ErrSessionNotFound is returned when no session has the given ID.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStaleSession is returned when an answer is appended against a
	// question index that another request has already moved past.
	ErrStaleSession = errors.New("session was modified concurrently")
)

// Tracker stores interview sessions and their answers.
type Tracker interface {
	// Create stores a new session.
	Create(ctx context.Context, s *models.Session) error
	// Get loads a session with its answers.
	Get(ctx context.Context, id string) (*models.Session, error)
	// AppendAnswer stores an answer for the question at index and advances
	// the session to the next question.
	AppendAnswer(ctx context.Context, id string, index int, rec models.AnswerRecord) error
	// Complete stores the completion time, reports and final answer evaluations.
	Complete(ctx context.Context, s *models.Session) error
	// Analytics returns platform-wide counts.
	Analytics(ctx context.Context) (models.Analytics, error)
	// Close releases resources.
	Close() error
}

// SQLiteTracker implements Tracker with a SQLite database.
type SQLiteTracker struct {
	db *sql.DB
}

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS interview_sessions (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	job_role TEXT NOT NULL,
	job_description TEXT NOT NULL DEFAULT '',
	resume_text TEXT NOT NULL DEFAULT '',
	analysis TEXT NOT NULL DEFAULT '{}',
	questions TEXT NOT NULL DEFAULT '[]',
	current_index INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	completed_at DATETIME,
	score REAL,
	final_report TEXT,
	learning_report TEXT,
	results TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON interview_sessions(started_at);
`

const createAnswersTable = `
CREATE TABLE IF NOT EXISTS interview_answers (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	evaluation TEXT NOT NULL,
	details TEXT NOT NULL,
	answered_at DATETIME NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// New creates a SQLiteTracker and runs auto-migration. ":memory:" keeps all
// sessions in process memory.
func New(dbPath string) (*SQLiteTracker, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open tracker db: %w", err)
	}
	// Every pooled connection to :memory: would get its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createSessionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sessions table: %w", err)
	}
	if _, err := db.Exec(createAnswersTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate answers table: %w", err)
	}

	return &SQLiteTracker{db: db}, nil
}

// Create stores a new session. Answers on s are ignored.
func (t *SQLiteTracker) Create(ctx context.Context, s *models.Session) error {
	analysis, err := json.Marshal(s.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	_, err = t.db.ExecContext(ctx,
		`INSERT INTO interview_sessions (id, mode, job_role, job_description, resume_text, analysis, questions, current_index, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Mode), s.JobRole, s.JobDescription, s.ResumeText, string(analysis), string(questions), s.CurrentIndex, s.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get loads a session with its answers in order.
func (t *SQLiteTracker) Get(ctx context.Context, id string) (*models.Session, error) {
	var (
		s                                   models.Session
		mode, analysis, questions           string
		completedAt                         sql.NullTime
		finalReport, learningReport, result sql.NullString
	)
	err := t.db.QueryRowContext(ctx,
		`SELECT id, mode, job_role, job_description, resume_text, analysis, questions, current_index,
		        started_at, completed_at, final_report, learning_report, results
		 FROM interview_sessions WHERE id = ?`, id,
	).Scan(&s.ID, &mode, &s.JobRole, &s.JobDescription, &s.ResumeText, &analysis, &questions, &s.CurrentIndex,
		&s.StartedAt, &completedAt, &finalReport, &learningReport, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	s.Mode = models.SessionMode(mode)
	if err := json.Unmarshal([]byte(analysis), &s.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &s.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if completedAt.Valid {
		ts := completedAt.Time
		s.CompletedAt = &ts
	}
	if err := decodeOptional(finalReport, &s.FinalReport); err != nil {
		return nil, fmt.Errorf("decode final report: %w", err)
	}
	if err := decodeOptional(learningReport, &s.LearningReport); err != nil {
		return nil, fmt.Errorf("decode learning report: %w", err)
	}
	if err := decodeOptional(result, &s.Results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	answers, err := t.answers(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Answers = answers
	return &s, nil
}

func (t *SQLiteTracker) answers(ctx context.Context, id string) ([]models.AnswerRecord, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT question, answer, evaluation, details, answered_at
		 FROM interview_answers WHERE session_id = ? ORDER BY seq ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []models.AnswerRecord
	for rows.Next() {
		var r models.AnswerRecord
		var evaluation, details string
		if err := rows.Scan(&r.Question, &r.Answer, &evaluation, &details, &r.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if err := json.Unmarshal([]byte(evaluation), &r.Evaluation); err != nil {
			return nil, fmt.Errorf("decode evaluation: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &r.Details); err != nil {
			return nil, fmt.Errorf("decode question details: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendAnswer stores rec as the answer to question index and advances the
// session. It returns ErrStaleSession if the session is no longer at index.
func (t *SQLiteTracker) AppendAnswer(ctx context.Context, id string, index int, rec models.AnswerRecord) error {
	evaluation, err := json.Marshal(rec.Evaluation)
	if err != nil {
		return fmt.Errorf("encode evaluation: %w", err)
	}
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("encode question details: %w", err)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append answer: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE interview_sessions SET current_index = current_index + 1 WHERE id = ? AND current_index = ?`,
		id, index,
	)
	if err != nil {
		return fmt.Errorf("advance session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM interview_sessions WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return ErrStaleSession
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO interview_answers (session_id, seq, question, answer, evaluation, details, answered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, index, rec.Question, rec.Answer, string(evaluation), string(details), rec.AnsweredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return tx.Commit()
}

// Complete marks s as completed and stores its reports. Answer evaluations are
// rewritten from s.Answers so batch scores replace placeholders.
func (t *SQLiteTracker) Complete(ctx context.Context, s *models.Session) error {
	completedAt := time.Now().UTC()
	if s.CompletedAt != nil {
		completedAt = s.CompletedAt.UTC()
	}
	finalReport, err := encodeOptional(s.FinalReport)
	if err != nil {
		return fmt.Errorf("encode final report: %w", err)
	}
	learningReport, err := encodeOptional(s.LearningReport)
	if err != nil {
		return fmt.Errorf("encode learning report: %w", err)
	}
	results, err := encodeOptional(s.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	var score sql.NullFloat64
	if s.Mode == models.ModeStandard && len(s.Answers) > 0 {
		score = sql.NullFloat64{Float64: averageScore(s.Answers), Valid: true}
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete session: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE interview_sessions SET completed_at = ?, score = ?, final_report = ?, learning_report = ?, results = ?
		 WHERE id = ?`,
		completedAt, score, finalReport, learningReport, results, s.ID,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}

	for i, a := range s.Answers {
		evaluation, err := json.Marshal(a.Evaluation)
		if err != nil {
			return fmt.Errorf("encode evaluation: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE interview_answers SET evaluation = ? WHERE session_id = ? AND seq = ?`,
			string(evaluation), s.ID, i,
		); err != nil {
			return fmt.Errorf("update evaluation: %w", err)
		}
	}
	return tx.Commit()
}

// Analytics counts sessions. The average score covers completed standard
// interviews; total candidates counts standard interviews started.
func (t *SQLiteTracker) Analytics(ctx context.Context) (models.Analytics, error) {
	var a models.Analytics
	err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(completed_at),
		        COALESCE(AVG(score), 0),
		        COALESCE(SUM(CASE WHEN mode = ? THEN 1 ELSE 0 END), 0)
		 FROM interview_sessions`, string(models.ModeStandard),
	).Scan(&a.TotalSessions, &a.CompletedInterviews, &a.AverageScore, &a.TotalCandidates)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("analytics: %w", err)
	}
	return a, nil
}

// Close releases the database connection.
func (t *SQLiteTracker) Close() error {
	return t.db.Close()
}

func averageScore(answers []models.AnswerRecord) float64 {
	var sum int
	for _, a := range answers {
		sum += a.Evaluation.Score
	}
	return float64(sum) / float64(len(answers))
}

func encodeOptional[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeOptional[T any](s sql.NullString, dst **T) error {
	if !s.Valid {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(s.String), &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}
