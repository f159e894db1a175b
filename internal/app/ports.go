package app

import (
	"context"

	"classroom-quiz-service/internal/domain"
)

// QuizReader loads quiz documents straight from the store.
type QuizReader interface {
	FindByID(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository abstracts how quiz documents are stored (in-memory, Postgres JSONB).
// Owner-scoped methods match on {id, author}, so a foreign quiz is indistinguishable from a
// missing one and yields domain.ErrQuizNotFound.
type QuizRepository interface {
	QuizReader
	Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	Find(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
	FindOwned(ctx context.Context, quizID, author string) (domain.Quiz, error)
	// UpdateOwned applies mutate to the stored quiz atomically and persists the result.
	UpdateOwned(ctx context.Context, quizID, author string, mutate func(*domain.Quiz) error) (domain.Quiz, error)
	// DeleteOwned removes the quiz; stores cascade the removal to its results.
	DeleteOwned(ctx context.Context, quizID, author string) error
}

// QuizCache serves quiz reads for display. Grading never goes through it.
type QuizCache interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// ResultRepository stores at most one result per (quizID, studentUsername).
type ResultRepository interface {
	// UpsertByKey inserts or overwrites the result for its key in one atomic store operation.
	UpsertByKey(ctx context.Context, result domain.Result) (domain.Result, error)
	FindByStudent(ctx context.Context, username string) ([]domain.Result, error)
	FindByQuiz(ctx context.Context, quizID string) ([]domain.Result, error)
	DeleteByQuiz(ctx context.Context, quizID string) (int, error)
}

// UserRepository stores accounts. Create returns domain.ErrConflict for a taken username.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// TokenIssuer signs and verifies bearer credentials.
type TokenIssuer interface {
	Issue(identity domain.Identity) (string, error)
	Verify(token string) (domain.Identity, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}
