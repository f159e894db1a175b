package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"classroom-quiz-service/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	ctx := context.Background()
	db := NewDatabase()
	seedQuiz(t, db, sampleQuiz())
	loader := &countingLoader{QuizLoader: db.Quizzes()}
	cache := NewQuizCache(loader, time.Minute)

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestQuizCacheInvalidateReloads(t *testing.T) {
	ctx := context.Background()
	db := NewDatabase()
	seedQuiz(t, db, sampleQuiz())
	loader := &countingLoader{QuizLoader: db.Quizzes()}
	cache := NewQuizCache(loader, time.Minute)

	if _, err := cache.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if _, err := db.Quizzes().UpdateOwned(ctx, "quiz-1", "ms-frizzle", func(q *domain.Quiz) error {
		q.Title = "Renamed"
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := cache.Invalidate(ctx, "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz after invalidate: %v", err)
	}
	if quiz.Title != "Renamed" || loader.count() != 2 {
		t.Fatalf("expected reload with new title, got %q after %d loads", quiz.Title, loader.count())
	}
}

func TestQuizCacheExpires(t *testing.T) {
	ctx := context.Background()
	db := NewDatabase()
	seedQuiz(t, db, sampleQuiz())
	loader := &countingLoader{QuizLoader: db.Quizzes()}
	cache := NewQuizCache(loader, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.GetQuiz(ctx, "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetQuiz(ctx, "quiz-1")
	if loader.count() != 2 {
		t.Fatalf("expected expired entry to reload, loader calls %d", loader.count())
	}
}

func TestQuizCacheMissingQuiz(t *testing.T) {
	cache := NewQuizCache(NewDatabase().Quizzes(), time.Minute)
	if _, err := cache.GetQuiz(context.Background(), "nope"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func seedQuiz(t *testing.T, db *Database, quiz domain.Quiz) {
	t.Helper()
	if _, err := db.Quizzes().Create(context.Background(), quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:     "quiz-1",
		Title:  "Arithmetic",
		Author: "ms-frizzle",
		Questions: []domain.Question{
			{
				ID:                 "q1",
				Text:               "What is 2 + 2?",
				Options:            []string{"3", "4", "5"},
				CorrectAnswerIndex: 1,
			},
		},
	}
}
