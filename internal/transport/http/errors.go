package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"classroom-quiz-service/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	msgTeachersOnly = "Access denied. Only teachers can perform this action."
	msgInternal     = "An internal error occurred."
)

// statusFor maps a use-case error onto an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, "Quiz not found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "Question not found."
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, msgTeachersOnly
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "Resource already exists"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// respondError writes the mapped error. Internal failures are logged, never echoed.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, messageResponse{Message: message})
}

// respondBadRequest reports a binding failure without echoing decoder or validator internals.
func respondBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, messageResponse{Message: bindingMessage(err)})
}

func bindingMessage(err error) string {
	var (
		fieldErrs validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &fieldErrs) && len(fieldErrs) > 0:
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return "Invalid request: " + fe.Field() + " is required"
		}
		return "Invalid request: " + fe.Field() + " is invalid"
	case errors.As(err, &typeErr):
		if typeErr.Field != "" {
			return "Invalid request: " + typeErr.Field + " has the wrong type"
		}
		return "Invalid request: unexpected body shape"
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "Invalid request: malformed JSON body"
	default:
		return "Invalid request body"
	}
}

var fieldNamesOnce sync.Once

// useJSONFieldNames makes validator errors name fields the way clients send them.
func useJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

func validationMessage(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, domain.ErrValidation.Error()+": "); idx >= 0 {
		return msg[idx+len(domain.ErrValidation.Error())+2:]
	}
	return msg
}
