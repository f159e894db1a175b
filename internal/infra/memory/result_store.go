package memory

import (
	"context"
	"sort"

	"classroom-quiz-service/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultRepository.
type ResultStore struct {
	db *Database
}

// UpsertByKey overwrites the result for (quizID, student) or inserts it. The existing row keeps
// its ID. Upserting for a quiz that no longer exists fails with domain.ErrQuizNotFound.
func (s *ResultStore) UpsertByKey(_ context.Context, result domain.Result) (domain.Result, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.quizzes[result.QuizID]; !ok {
		return domain.Result{}, domain.ErrQuizNotFound
	}
	key := resultKey{quizID: result.QuizID, student: result.StudentUsername}
	if existing, ok := s.db.results[key]; ok {
		result.ID = existing.ID
	}
	s.db.results[key] = result
	return result, nil
}

func (s *ResultStore) FindByStudent(_ context.Context, username string) ([]domain.Result, error) {
	return s.collect(func(r domain.Result) bool { return r.StudentUsername == username }), nil
}

func (s *ResultStore) FindByQuiz(_ context.Context, quizID string) ([]domain.Result, error) {
	return s.collect(func(r domain.Result) bool { return r.QuizID == quizID }), nil
}

func (s *ResultStore) DeleteByQuiz(_ context.Context, quizID string) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	removed := 0
	for key := range s.db.results {
		if key.quizID == quizID {
			delete(s.db.results, key)
			removed++
		}
	}
	return removed, nil
}

func (s *ResultStore) collect(match func(domain.Result) bool) []domain.Result {
	s.db.mu.RLock()
	out := make([]domain.Result, 0)
	for _, result := range s.db.results {
		if match(result) {
			out = append(out, result)
		}
	}
	s.db.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
