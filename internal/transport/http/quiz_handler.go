package http

import (
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QuizHandler struct {
	service *app.QuizService
	log     *zap.Logger
}

func NewQuizHandler(service *app.QuizService, log *zap.Logger) *QuizHandler {
	return &QuizHandler{service: service, log: log}
}

// List handles GET /api/quizzes. Students never see the answer key.
func (h *QuizHandler) List(c *gin.Context) {
	caller := identityFrom(c)
	quizzes, err := h.service.List(c.Request.Context(), domain.QuizFilter{Author: c.Query("author")})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newQuizListResponse(quizzes, caller.IsTeacher()))
}

// Get handles GET /api/quizzes/:id.
func (h *QuizHandler) Get(c *gin.Context) {
	caller := identityFrom(c)
	quiz, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newQuizResponse(quiz, caller.IsTeacher()))
}

// Create handles POST /api/quizzes.
func (h *QuizHandler) Create(c *gin.Context) {
	var req quizDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	quiz, err := h.service.Create(c.Request.Context(), identityFrom(c), app.QuizDetails{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, newQuizResponse(quiz, true))
}

// Update handles PUT /api/quizzes/:id.
func (h *QuizHandler) Update(c *gin.Context) {
	var req quizDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	quiz, err := h.service.Update(c.Request.Context(), identityFrom(c), c.Param("id"), app.QuizDetails{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newQuizResponse(quiz, true))
}

// Delete handles DELETE /api/quizzes/:id.
func (h *QuizHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Quiz and associated results deleted successfully."})
}

// AddQuestion handles POST /api/quizzes/:id/questions.
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	in, ok := h.bindQuestion(c)
	if !ok {
		return
	}
	quiz, err := h.service.AddQuestion(c.Request.Context(), identityFrom(c), c.Param("id"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, newQuizResponse(quiz, true))
}

// UpdateQuestion handles PUT /api/quizzes/:id/questions/:questionId.
func (h *QuizHandler) UpdateQuestion(c *gin.Context) {
	in, ok := h.bindQuestion(c)
	if !ok {
		return
	}
	quiz, err := h.service.UpdateQuestion(c.Request.Context(), identityFrom(c), c.Param("id"), c.Param("questionId"), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newQuizResponse(quiz, true))
}

// DeleteQuestion handles DELETE /api/quizzes/:id/questions/:questionId.
func (h *QuizHandler) DeleteQuestion(c *gin.Context) {
	quiz, err := h.service.DeleteQuestion(c.Request.Context(), identityFrom(c), c.Param("id"), c.Param("questionId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, newQuizResponse(quiz, true))
}

func (h *QuizHandler) bindQuestion(c *gin.Context) (app.QuestionInput, bool) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return app.QuestionInput{}, false
	}
	idx, ok := req.CorrectAnswerIndex.Index()
	if !ok {
		respondError(c, h.log, domain.Invalid("correctAnswerIndex must be a whole number"))
		return app.QuestionInput{}, false
	}
	return app.QuestionInput{
		Text:               req.Text,
		Options:            req.Options,
		CorrectAnswerIndex: idx,
		Feedback:           req.Feedback,
	}, true
}
