package memory

import (
	"context"
	"sort"

	"classroom-quiz-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizRepository.
type QuizStore struct {
	db *Database
}

func (s *QuizStore) Create(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.quizzes[quiz.ID]; ok {
		return domain.Quiz{}, domain.ErrConflict
	}
	s.db.quizzes[quiz.ID] = quiz.Clone()
	return quiz.Clone(), nil
}

func (s *QuizStore) FindByID(_ context.Context, quizID string) (domain.Quiz, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	quiz, ok := s.db.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

// LoadQuiz satisfies the cache loader contract.
func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.FindByID(ctx, quizID)
}

func (s *QuizStore) FindOwned(_ context.Context, quizID, author string) (domain.Quiz, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	quiz, ok := s.db.quizzes[quizID]
	if !ok || quiz.Author != author {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *QuizStore) Find(_ context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	s.db.mu.RLock()
	out := make([]domain.Quiz, 0, len(s.db.quizzes))
	for _, quiz := range s.db.quizzes {
		if filter.Author != "" && quiz.Author != filter.Author {
			continue
		}
		out = append(out, quiz.Clone())
	}
	s.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *QuizStore) UpdateOwned(_ context.Context, quizID, author string, mutate func(*domain.Quiz) error) (domain.Quiz, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.quizzes[quizID]
	if !ok || stored.Author != author {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	working := stored.Clone()
	if err := mutate(&working); err != nil {
		return domain.Quiz{}, err
	}
	// identity fields are immutable
	working.ID = stored.ID
	working.Author = stored.Author
	working.CreatedAt = stored.CreatedAt
	s.db.quizzes[quizID] = working.Clone()
	return working, nil
}

// DeleteOwned removes the quiz and cascades to its results.
func (s *QuizStore) DeleteOwned(_ context.Context, quizID, author string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	stored, ok := s.db.quizzes[quizID]
	if !ok || stored.Author != author {
		return domain.ErrQuizNotFound
	}
	delete(s.db.quizzes, quizID)
	for key := range s.db.results {
		if key.quizID == quizID {
			delete(s.db.results, key)
		}
	}
	return nil
}
