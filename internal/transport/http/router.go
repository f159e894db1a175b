package http

import (
	"net/http"
	"time"

	"classroom-quiz-service/internal/app"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps are the use cases and settings the router is built from.
type Deps struct {
	Auth               *app.AuthService
	Quizzes            *app.QuizService
	Grading            *app.GradingService
	Metrics            *Metrics
	Log                *zap.Logger
	AllowedOrigins     []string
	LoginRatePerMinute int
}

// NewRouter wires every route of the API onto a gin engine.
func NewRouter(deps Deps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), metrics.Middleware(), corsMiddleware(deps.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/metrics", metrics.Handler())

	authHandler := NewAuthHandler(deps.Auth, log)
	quizHandler := NewQuizHandler(deps.Quizzes, log)
	resultHandler := NewResultHandler(deps.Grading, metrics, log)
	wsHandler := NewWSHandler(deps.Grading, deps.AllowedOrigins, log)

	api := router.Group("/api")

	authGroup := api.Group("/auth", RateLimiter(deps.LoginRatePerMinute))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	authed := api.Group("", RequireAuth(deps.Auth))
	authed.GET("/quizzes", quizHandler.List)
	authed.GET("/quizzes/:id", quizHandler.Get)
	authed.POST("/results", resultHandler.Submit)
	authed.GET("/results", resultHandler.Mine)

	teacher := authed.Group("", RequireTeacher())
	teacher.POST("/quizzes", quizHandler.Create)
	teacher.PUT("/quizzes/:id", quizHandler.Update)
	teacher.DELETE("/quizzes/:id", quizHandler.Delete)
	teacher.POST("/quizzes/:id/questions", quizHandler.AddQuestion)
	teacher.PUT("/quizzes/:id/questions/:questionId", quizHandler.UpdateQuestion)
	teacher.DELETE("/quizzes/:id/questions/:questionId", quizHandler.DeleteQuestion)
	teacher.GET("/quizzes/:id/results", resultHandler.ForQuiz)
	teacher.GET("/quizzes/:id/results/live", wsHandler.ServeLiveResults)

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
