package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuizDetails are the editable top-level fields of a quiz.
type QuizDetails struct {
	Title       string
	Description string
}

// QuestionInput is a question as authored by a teacher.
type QuestionInput struct {
	Text               string
	Options            []string
	CorrectAnswerIndex int
	Feedback           string
}

// QuizService contains the quiz authoring use cases. Every mutation is scoped to the author.
type QuizService struct {
	quizzes QuizRepository
	results ResultRepository
	cache   QuizCache
	feed    *ResultFeed
	log     *zap.Logger
	now     func() time.Time
}

func NewQuizService(quizzes QuizRepository, results ResultRepository, cache QuizCache, feed *ResultFeed, log *zap.Logger) *QuizService {
	if log == nil {
		log = zap.NewNop()
	}
	if feed == nil {
		feed = NewResultFeed()
	}
	return &QuizService{
		quizzes: quizzes,
		results: results,
		cache:   cache,
		feed:    feed,
		log:     log,
		now:     time.Now,
	}
}

// List returns quizzes matching the filter.
func (s *QuizService) List(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	quizzes, err := s.quizzes.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// Get returns a quiz by ID, served from the read cache when one is configured.
func (s *QuizService) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	if s.cache != nil {
		return s.cache.GetQuiz(ctx, quizID)
	}
	return s.quizzes.FindByID(ctx, quizID)
}

// Create stores a new, empty quiz authored by the caller.
func (s *QuizService) Create(ctx context.Context, caller domain.Identity, details QuizDetails) (domain.Quiz, error) {
	if err := requireTeacher(caller); err != nil {
		return domain.Quiz{}, err
	}
	details, err := normalizeDetails(details)
	if err != nil {
		return domain.Quiz{}, err
	}
	now := s.now().UTC()
	quiz, err := s.quizzes.Create(ctx, domain.Quiz{
		ID:          uuid.NewString(),
		Title:       details.Title,
		Description: details.Description,
		Author:      caller.Username,
		Questions:   []domain.Question{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	s.log.Info("quiz created", zap.String("quizId", quiz.ID), zap.String("author", quiz.Author))
	return quiz, nil
}

// Update replaces title and description of an owned quiz.
func (s *QuizService) Update(ctx context.Context, caller domain.Identity, quizID string, details QuizDetails) (domain.Quiz, error) {
	details, err := normalizeDetails(details)
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.mutate(ctx, caller, quizID, func(quiz *domain.Quiz) error {
		quiz.Title = details.Title
		quiz.Description = details.Description
		return nil
	})
}

// Delete removes an owned quiz together with every result recorded for it.
func (s *QuizService) Delete(ctx context.Context, caller domain.Identity, quizID string) error {
	if err := requireTeacher(caller); err != nil {
		return err
	}
	if _, err := s.quizzes.FindOwned(ctx, quizID, caller.Username); err != nil {
		return err
	}
	// results go first so the count is real; the store cascade still catches a submission
	// that lands between the two deletes
	removed, err := s.results.DeleteByQuiz(ctx, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz results: %w", err)
	}
	if err := s.quizzes.DeleteOwned(ctx, quizID, caller.Username); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	s.feed.Close(quizID)
	s.log.Info("quiz deleted",
		zap.String("quizId", quizID),
		zap.String("author", caller.Username),
		zap.Int("resultsRemoved", removed),
	)
	return nil
}

// AddQuestion appends a question to an owned quiz.
func (s *QuizService) AddQuestion(ctx context.Context, caller domain.Identity, quizID string, in QuestionInput) (domain.Quiz, error) {
	question, err := buildQuestion(uuid.NewString(), in)
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.mutate(ctx, caller, quizID, func(quiz *domain.Quiz) error {
		quiz.Questions = append(quiz.Questions, question)
		return nil
	})
}

// UpdateQuestion replaces a question of an owned quiz in place.
func (s *QuizService) UpdateQuestion(ctx context.Context, caller domain.Identity, quizID, questionID string, in QuestionInput) (domain.Quiz, error) {
	question, err := buildQuestion(questionID, in)
	if err != nil {
		return domain.Quiz{}, err
	}
	return s.mutate(ctx, caller, quizID, func(quiz *domain.Quiz) error {
		idx := quiz.QuestionIndex(questionID)
		if idx < 0 {
			return domain.ErrQuestionNotFound
		}
		quiz.Questions[idx] = question
		return nil
	})
}

// DeleteQuestion removes a question from an owned quiz. Stored results keep their totals.
func (s *QuizService) DeleteQuestion(ctx context.Context, caller domain.Identity, quizID, questionID string) (domain.Quiz, error) {
	return s.mutate(ctx, caller, quizID, func(quiz *domain.Quiz) error {
		idx := quiz.QuestionIndex(questionID)
		if idx < 0 {
			return domain.ErrQuestionNotFound
		}
		quiz.Questions = append(quiz.Questions[:idx], quiz.Questions[idx+1:]...)
		return nil
	})
}

func (s *QuizService) mutate(ctx context.Context, caller domain.Identity, quizID string, fn func(*domain.Quiz) error) (domain.Quiz, error) {
	if err := requireTeacher(caller); err != nil {
		return domain.Quiz{}, err
	}
	now := s.now().UTC()
	quiz, err := s.quizzes.UpdateOwned(ctx, quizID, caller.Username, func(quiz *domain.Quiz) error {
		if err := fn(quiz); err != nil {
			return err
		}
		quiz.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return quiz, nil
}

func (s *QuizService) invalidate(ctx context.Context, quizID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		s.log.Warn("quiz cache invalidation failed", zap.String("quizId", quizID), zap.Error(err))
	}
}

func requireTeacher(caller domain.Identity) error {
	if !caller.IsTeacher() {
		return domain.ErrForbidden
	}
	return nil
}

func normalizeDetails(details QuizDetails) (QuizDetails, error) {
	details.Title = strings.TrimSpace(details.Title)
	details.Description = strings.TrimSpace(details.Description)
	if details.Title == "" {
		return details, domain.Invalid("title is required")
	}
	return details, nil
}

func buildQuestion(id string, in QuestionInput) (domain.Question, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return domain.Question{}, domain.Invalid("question text is required")
	}
	if len(in.Options) == 0 {
		return domain.Question{}, domain.Invalid("at least one option is required")
	}
	options := make([]string, len(in.Options))
	for i, opt := range in.Options {
		options[i] = strings.TrimSpace(opt)
		if options[i] == "" {
			return domain.Question{}, domain.Invalid("option %d is empty", i+1)
		}
	}
	if in.CorrectAnswerIndex < 0 || in.CorrectAnswerIndex >= len(options) {
		return domain.Question{}, domain.Invalid("correctAnswerIndex must be between 0 and %d", len(options)-1)
	}
	return domain.Question{
		ID:                 id,
		Text:               text,
		Options:            options,
		CorrectAnswerIndex: in.CorrectAnswerIndex,
		Feedback:           strings.TrimSpace(in.Feedback),
	}, nil
}
