package postgres

import (
	"context"
	"fmt"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type resultRow struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID              string    `bun:"id,pk"`
	QuizID          string    `bun:"quiz_id,notnull"`
	StudentUsername string    `bun:"student_username,notnull"`
	Score           int       `bun:"score,notnull"`
	TotalQuestions  int       `bun:"total_questions,notnull"`
	SubmittedAt     time.Time `bun:"submitted_at,notnull"`
}

func (r resultRow) toDomain() domain.Result {
	return domain.Result{
		ID:              r.ID,
		QuizID:          r.QuizID,
		StudentUsername: r.StudentUsername,
		Score:           r.Score,
		TotalQuestions:  r.TotalQuestions,
		SubmittedAt:     r.SubmittedAt.UTC(),
	}
}

// ResultStore is the bun-backed app.ResultRepository.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

// UpsertByKey relies on INSERT ... ON CONFLICT over the (quiz_id, student_username) unique
// constraint, so concurrent submissions for one key collapse into a single row.
func (s *ResultStore) UpsertByKey(ctx context.Context, result domain.Result) (domain.Result, error) {
	row := &resultRow{
		ID:              result.ID,
		QuizID:          result.QuizID,
		StudentUsername: result.StudentUsername,
		Score:           result.Score,
		TotalQuestions:  result.TotalQuestions,
		SubmittedAt:     result.SubmittedAt,
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (quiz_id, student_username) DO UPDATE").
		Set("score = EXCLUDED.score").
		Set("total_questions = EXCLUDED.total_questions").
		Set("submitted_at = EXCLUDED.submitted_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		if sqlState(err) == foreignKeyViolation {
			return domain.Result{}, domain.ErrQuizNotFound
		}
		return domain.Result{}, fmt.Errorf("upsert result: %w", err)
	}
	return row.toDomain(), nil
}

func (s *ResultStore) FindByStudent(ctx context.Context, username string) ([]domain.Result, error) {
	return s.list(ctx, "r.student_username = ?", username)
}

func (s *ResultStore) FindByQuiz(ctx context.Context, quizID string) ([]domain.Result, error) {
	return s.list(ctx, "r.quiz_id = ?", quizID)
}

func (s *ResultStore) DeleteByQuiz(ctx context.Context, quizID string) (int, error) {
	res, err := s.db.NewDelete().
		Model((*resultRow)(nil)).
		Where("quiz_id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (s *ResultStore) list(ctx context.Context, where string, arg string) ([]domain.Result, error) {
	var rows []resultRow
	err := s.db.NewSelect().
		Model(&rows).
		Where(where, arg).
		OrderExpr("r.submitted_at DESC, r.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select results: %w", err)
	}
	out := make([]domain.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
