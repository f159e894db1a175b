package app_test

import (
	"context"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	teacher = domain.Identity{Username: "ms-frizzle", Role: domain.RoleTeacher}
	rival   = domain.Identity{Username: "mr-ratburn", Role: domain.RoleTeacher}
	arnold  = domain.Identity{Username: "arnold", Role: domain.RoleStudent}
	wanda   = domain.Identity{Username: "wanda", Role: domain.RoleStudent}
)

type fixture struct {
	db      *memory.Database
	feed    *app.ResultFeed
	quizzes *app.QuizService
	grading *app.GradingService
	clock   *stepClock
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDatabase()
	feed := app.NewResultFeed()
	clock := &stepClock{at: time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)}
	cache := memory.NewQuizCache(db.Quizzes(), time.Minute)
	core, logs := observer.New(zap.InfoLevel)
	return &fixture{
		db:      db,
		feed:    feed,
		logs:    logs,
		quizzes: app.NewQuizService(db.Quizzes(), db.Results(), cache, feed, zap.New(core)),
		grading: app.NewGradingServiceWithClock(db.Quizzes(), db.Results(), feed, clock.now),
		clock:   clock,
	}
}

// arithmeticQuiz builds a three question quiz whose answer key is [2, 0, 1].
func (f *fixture) arithmeticQuiz(t *testing.T) domain.Quiz {
	t.Helper()
	ctx := context.Background()
	quiz, err := f.quizzes.Create(ctx, teacher, app.QuizDetails{Title: "Arithmetic", Description: "warm up"})
	require.NoError(t, err)
	for _, q := range []app.QuestionInput{
		{Text: "1 + 1?", Options: []string{"0", "1", "2"}, CorrectAnswerIndex: 2},
		{Text: "0 * 9?", Options: []string{"0", "9"}, CorrectAnswerIndex: 0},
		{Text: "3 - 2?", Options: []string{"0", "1", "2"}, CorrectAnswerIndex: 1},
	} {
		quiz, err = f.quizzes.AddQuestion(ctx, teacher, quiz.ID, q)
		require.NoError(t, err)
	}
	require.Len(t, quiz.Questions, 3)
	return quiz
}

type stepClock struct {
	at time.Time
}

func (c *stepClock) now() time.Time {
	c.at = c.at.Add(time.Second)
	return c.at
}

func answersFor(quiz domain.Quiz, picks ...int) domain.Answers {
	out := domain.Answers{}
	for i, pick := range picks {
		out[quiz.Questions[i].ID] = domain.AnswerIndex(pick)
	}
	return out
}
