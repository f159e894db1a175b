package cli

import (
	"context"
	"errors"
	"fmt"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads a teacher account and a sample quiz into the configured store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a teacher account and a sample web fundamentals quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured; seeding the in-memory store has no effect")
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
				return err
			}
			services, err := buildStack(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer services.close()

			teacher, err := services.auth.Register(ctx, username, password, domain.RoleTeacher)
			switch {
			case errors.Is(err, domain.ErrConflict):
				log.Info("teacher already exists", zap.String("username", username))
				teacher = domain.Identity{Username: username, Role: domain.RoleTeacher}
			case err != nil:
				return err
			}

			quiz, created, err := seedSampleQuiz(ctx, services.quizzes, teacher)
			if err != nil {
				return err
			}
			if !created {
				log.Info("sample quiz already present", zap.String("quiz_id", quiz.ID), zap.String("author", teacher.Username))
				return nil
			}
			log.Info("seeded quiz",
				zap.String("quiz_id", quiz.ID),
				zap.String("author", teacher.Username),
				zap.Int("questions", len(quiz.Questions)))
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "teacher", "teacher account to own the sample quiz")
	cmd.Flags().StringVar(&password, "password", "password123", "password for a newly created teacher account")
	return cmd
}

const sampleQuizTitle = "Web Development Fundamentals"

// seedSampleQuiz creates the sample quiz for teacher unless they already own one with its title.
func seedSampleQuiz(ctx context.Context, quizzes *app.QuizService, teacher domain.Identity) (domain.Quiz, bool, error) {
	owned, err := quizzes.List(ctx, domain.QuizFilter{Author: teacher.Username})
	if err != nil {
		return domain.Quiz{}, false, err
	}
	for _, quiz := range owned {
		if quiz.Title == sampleQuizTitle {
			return quiz, false, nil
		}
	}

	quiz, err := quizzes.Create(ctx, teacher, app.QuizDetails{
		Title:       sampleQuizTitle,
		Description: "Core concepts of how the web works: HTTP, HTML, CSS and JavaScript.",
	})
	if err != nil {
		return domain.Quiz{}, false, err
	}
	for _, q := range sampleQuestions() {
		if quiz, err = quizzes.AddQuestion(ctx, teacher, quiz.ID, q); err != nil {
			return domain.Quiz{}, false, err
		}
	}
	return quiz, true, nil
}

func sampleQuestions() []app.QuestionInput {
	return []app.QuestionInput{
		{
			Text:               "Which component in the web system architecture listens for HTTP requests and sends back resources?",
			Options:            []string{"Web Browser", "DNS Server", "Web Server", "URL"},
			CorrectAnswerIndex: 2,
			Feedback:           "A web server such as Nginx waits for requests from clients and serves the requested files.",
		},
		{
			Text:               "In the CSS box model, what is the order of layers from the inside out?",
			Options:            []string{"Margin, Border, Padding, Content", "Content, Padding, Border, Margin", "Content, Margin, Padding, Border", "Padding, Content, Margin, Border"},
			CorrectAnswerIndex: 1,
			Feedback:           "Content sits at the core, surrounded by padding, then the border, then the margin.",
		},
		{
			Text:               "Which HTML5 tag is most semantically appropriate for the main, unique content of a page?",
			Options:            []string{"<div>", "<section>", "<article>", "<main>"},
			CorrectAnswerIndex: 3,
			Feedback:           "<main> holds the dominant content of the document body.",
		},
		{
			Text:               "Which method selects a single element by its unique ID?",
			Options:            []string{"document.querySelector('.myClass')", "document.getElementById('myId')", "document.getElementsByTagName('p')", "document.getElementsByClassName('myClass')"},
			CorrectAnswerIndex: 1,
			Feedback:           "getElementById is the direct way to reference an element when its ID is known.",
		},
		{
			Text:               "What does JSON stand for and what is its primary use?",
			Options:            []string{"JavaScript Object Notation; data interchange", "Java Standard Object Naming; a naming convention", "JavaScript Oriented Networking; a network protocol", "Java Source Object Notation; writing Java objects"},
			CorrectAnswerIndex: 0,
			Feedback:           "JSON is a lightweight text format and the common choice for data exchanged between clients and servers.",
		},
		{
			Text:               "Which HTTP status code means the requested resource could not be found?",
			Options:            []string{"200 OK", "500 Internal Server Error", "301 Moved Permanently", "404 Not Found"},
			CorrectAnswerIndex: 3,
			Feedback:           "4xx codes are client errors; 404 is returned for a URL that does not exist.",
		},
	}
}
