package http

import (
	"errors"
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ResultHandler struct {
	service *app.GradingService
	metrics *Metrics
	log     *zap.Logger
}

func NewResultHandler(service *app.GradingService, metrics *Metrics, log *zap.Logger) *ResultHandler {
	return &ResultHandler{service: service, metrics: metrics, log: log}
}

// Submit handles POST /api/results. The student is always the authenticated caller.
func (h *ResultHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	caller := identityFrom(c)
	grade, quiz, err := h.service.SubmitAnswers(c.Request.Context(), caller, req.QuizID, req.Answers)
	if err != nil {
		h.observe(err)
		respondError(c, h.log, err)
		return
	}
	h.observe(nil)
	h.log.Info("submission graded",
		zap.String("quizId", quiz.ID),
		zap.String("student", caller.Username),
		zap.Int("score", grade.Score),
		zap.Int("totalQuestions", grade.TotalQuestions),
	)
	c.JSON(http.StatusCreated, submitResponse{
		Score:          grade.Score,
		TotalQuestions: grade.TotalQuestions,
		Quiz:           newQuizResponse(quiz, true),
	})
}

// Mine handles GET /api/results.
func (h *ResultHandler) Mine(c *gin.Context) {
	results, err := h.service.StudentResults(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// ForQuiz handles GET /api/quizzes/:id/results.
func (h *ResultHandler) ForQuiz(c *gin.Context) {
	results, err := h.service.QuizResults(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *ResultHandler) observe(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case err == nil:
		h.metrics.observeSubmission("graded")
	case errors.Is(err, domain.ErrNotFound):
		h.metrics.observeSubmission("quiz_not_found")
	default:
		h.metrics.observeSubmission("error")
	}
}
