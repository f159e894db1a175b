package cli

import (
	"context"
	"fmt"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/config"
	"classroom-quiz-service/internal/infra/memory"
	"classroom-quiz-service/internal/infra/postgres"
	rediscache "classroom-quiz-service/internal/infra/redis"
	"classroom-quiz-service/internal/logging"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stack is the assembled service graph shared by start and seed.
type stack struct {
	auth    *app.AuthService
	quizzes *app.QuizService
	grading *app.GradingService
	close   func()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
}

// buildStack picks Postgres when a URL is configured and the in-memory database otherwise.
// The quiz read cache lives in Redis when an address is configured.
func buildStack(ctx context.Context, cfg config.Config, log *zap.Logger) (*stack, error) {
	var (
		quizRepo   app.QuizRepository
		resultRepo app.ResultRepository
		userRepo   app.UserRepository
		loader     memory.QuizLoader
		closers    []func()
	)

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		db := postgres.NewBunDB(cfg.Postgres.URL)
		closers = append(closers, pool.Close, func() { _ = db.Close() })

		quizStore := postgres.NewQuizStore(pool)
		quizRepo, loader = quizStore, quizStore
		resultRepo = postgres.NewResultStore(db)
		userRepo = postgres.NewUserStore(db)
		log.Info("using postgres storage")
	} else {
		mem := memory.NewDatabase()
		quizRepo, loader = mem.Quizzes(), mem.Quizzes()
		resultRepo = mem.Results()
		userRepo = mem.Users()
		log.Warn("postgres url not configured, using in-memory storage")
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	var cache app.QuizCache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		cache = rediscache.NewQuizCache(client, loader, cacheTTL)
	} else {
		cache = memory.NewQuizCache(loader, cacheTTL)
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	feed := app.NewResultFeed()

	return &stack{
		auth:    app.NewAuthService(userRepo, hasher, tokens),
		quizzes: app.NewQuizService(quizRepo, resultRepo, cache, feed, log),
		grading: app.NewGradingService(quizRepo, resultRepo, feed),
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}
