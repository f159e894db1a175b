package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// GradingService scores submissions and records the latest result per (quiz, student).
type GradingService struct {
	quizzes QuizRepository
	results ResultRepository
	feed    *ResultFeed
	now     func() time.Time
}

func NewGradingService(quizzes QuizRepository, results ResultRepository, feed *ResultFeed) *GradingService {
	if feed == nil {
		feed = NewResultFeed()
	}
	return &GradingService{quizzes: quizzes, results: results, feed: feed, now: time.Now}
}

// NewGradingServiceWithClock is test-only for deterministic timestamps.
func NewGradingServiceWithClock(quizzes QuizRepository, results ResultRepository, feed *ResultFeed, now func() time.Time) *GradingService {
	s := NewGradingService(quizzes, results, feed)
	s.now = now
	return s
}

// Grade compares answers to the answer key of the quiz's current question set.
// Missing or non-numeric answers score nothing.
func Grade(quiz domain.Quiz, answers domain.Answers) domain.Grade {
	score := 0
	for _, question := range quiz.Questions {
		answer, ok := answers[question.ID]
		if ok && answer.Matches(question.CorrectAnswerIndex) {
			score++
		}
	}
	return domain.Grade{Score: score, TotalQuestions: len(quiz.Questions)}
}

// SubmitAnswers grades the caller's answers and upserts the result under the caller's username.
// The quiz is returned alongside the grade for review rendering.
func (s *GradingService) SubmitAnswers(ctx context.Context, caller domain.Identity, quizID string, answers domain.Answers) (domain.Grade, domain.Quiz, error) {
	if caller.Username == "" {
		return domain.Grade{}, domain.Quiz{}, domain.ErrUnauthorized
	}
	if quizID == "" {
		return domain.Grade{}, domain.Quiz{}, domain.Invalid("quizId is required")
	}

	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return domain.Grade{}, domain.Quiz{}, err
	}

	grade := Grade(quiz, answers)
	stored, err := s.results.UpsertByKey(ctx, domain.Result{
		ID:              uuid.NewString(),
		QuizID:          quiz.ID,
		StudentUsername: caller.Username,
		Score:           grade.Score,
		TotalQuestions:  grade.TotalQuestions,
		SubmittedAt:     s.now().UTC(),
	})
	if err != nil {
		return domain.Grade{}, domain.Quiz{}, fmt.Errorf("record result: %w", err)
	}
	s.feed.Publish(stored)
	return grade, quiz, nil
}

// StudentResults lists the caller's results, newest first, with quiz titles resolved.
func (s *GradingService) StudentResults(ctx context.Context, caller domain.Identity) ([]domain.StudentResult, error) {
	results, err := s.results.FindByStudent(ctx, caller.Username)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SubmittedAt.After(results[j].SubmittedAt)
	})

	titles := make(map[string]string, len(results))
	out := make([]domain.StudentResult, 0, len(results))
	for _, result := range results {
		title, ok := titles[result.QuizID]
		if !ok {
			quiz, err := s.quizzes.FindByID(ctx, result.QuizID)
			switch {
			case err == nil:
				title = quiz.Title
			case errors.Is(err, domain.ErrNotFound):
				title = domain.DeletedQuizTitle
			default:
				return nil, fmt.Errorf("resolve quiz title: %w", err)
			}
			titles[result.QuizID] = title
		}
		out = append(out, domain.StudentResult{Result: result, QuizTitle: title})
	}
	return out, nil
}

// QuizResults lists every result of a quiz owned by the calling teacher.
func (s *GradingService) QuizResults(ctx context.Context, caller domain.Identity, quizID string) ([]domain.Result, error) {
	if err := s.requireOwner(ctx, caller, quizID); err != nil {
		return nil, err
	}
	results, err := s.results.FindByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("list quiz results: %w", err)
	}
	sortByScore(results)
	return results, nil
}

// WatchResults returns the current results of an owned quiz and a channel of subsequent
// graded submissions. The caller must invoke the returned cancel function to avoid leaks.
func (s *GradingService) WatchResults(ctx context.Context, caller domain.Identity, quizID string) ([]domain.Result, <-chan domain.Result, func(), error) {
	if err := s.requireOwner(ctx, caller, quizID); err != nil {
		return nil, nil, nil, err
	}
	// subscribe before reading so no submission falls between snapshot and stream
	updates, cancel := s.feed.Subscribe(quizID)
	snapshot, err := s.results.FindByQuiz(ctx, quizID)
	if err != nil {
		cancel()
		return nil, nil, nil, fmt.Errorf("list quiz results: %w", err)
	}
	sortByScore(snapshot)
	return snapshot, updates, cancel, nil
}

func (s *GradingService) requireOwner(ctx context.Context, caller domain.Identity, quizID string) error {
	if !caller.IsTeacher() {
		return domain.ErrForbidden
	}
	_, err := s.quizzes.FindOwned(ctx, quizID, caller.Username)
	return err
}

func sortByScore(results []domain.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].SubmittedAt.Equal(results[j].SubmittedAt) {
			return results[i].SubmittedAt.Before(results[j].SubmittedAt)
		}
		return results[i].StudentUsername < results[j].StudentUsername
	})
}
