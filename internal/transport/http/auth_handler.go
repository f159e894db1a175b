package http

import (
	"errors"
	"net/http"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service *app.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service *app.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, log: log}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	_, err := h.service.Register(c.Request.Context(), req.Username, req.Password, domain.Role(req.Role))
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			c.AbortWithStatusJSON(http.StatusConflict, messageResponse{Message: "Username already exists"})
			return
		}
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "User created successfully"})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	token, identity, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: identity})
}
