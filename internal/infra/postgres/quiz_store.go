package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizStore keeps each quiz as a JSONB document. author and title are mirrored into columns
// so owner-scoped statements can filter on {id, author}.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, author, title, data, created_at, updated_at) VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
		quiz.ID, quiz.Author, quiz.Title, string(raw), quiz.CreatedAt, quiz.UpdatedAt)
	if err != nil {
		if sqlState(err) == uniqueViolation {
			return domain.Quiz{}, domain.ErrConflict
		}
		return domain.Quiz{}, fmt.Errorf("insert quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) FindByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id = $1`, quizID))
}

// LoadQuiz satisfies the cache loader contract.
func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.FindByID(ctx, quizID)
}

func (s *QuizStore) FindOwned(ctx context.Context, quizID, author string) (domain.Quiz, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id = $1 AND author = $2`, quizID, author))
}

func (s *QuizStore) Find(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM quizzes WHERE ($1 = '' OR author = $1) ORDER BY created_at, id`,
		filter.Author)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quiz, err := decodeQuiz(raw)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return quizzes, nil
}

// UpdateOwned locks the row, applies mutate and writes the document back in one transaction.
func (s *QuizStore) UpdateOwned(ctx context.Context, quizID, author string, mutate func(*domain.Quiz) error) (domain.Quiz, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	stored, err := s.scanOne(tx.QueryRow(ctx,
		`SELECT data FROM quizzes WHERE id = $1 AND author = $2 FOR UPDATE`, quizID, author))
	if err != nil {
		return domain.Quiz{}, err
	}

	working := stored.Clone()
	if err := mutate(&working); err != nil {
		return domain.Quiz{}, err
	}
	working.ID = stored.ID
	working.Author = stored.Author
	working.CreatedAt = stored.CreatedAt

	raw, err := json.Marshal(working)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("marshal quiz: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE quizzes SET title = $3, data = $4::jsonb, updated_at = $5 WHERE id = $1 AND author = $2`,
		quizID, author, working.Title, string(raw), working.UpdatedAt); err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Quiz{}, fmt.Errorf("commit: %w", err)
	}
	return working, nil
}

// DeleteOwned removes the quiz; results follow through ON DELETE CASCADE.
func (s *QuizStore) DeleteOwned(ctx context.Context, quizID, author string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1 AND author = $2`, quizID, author)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) scanOne(row pgx.Row) (domain.Quiz, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return decodeQuiz(raw)
}

func decodeQuiz(raw []byte) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	if quiz.Questions == nil {
		quiz.Questions = []domain.Question{}
	}
	return quiz, nil
}
