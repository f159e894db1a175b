package http

import (
	"time"

	"classroom-quiz-service/internal/domain"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  domain.Identity `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type quizDetailsRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

type questionRequest struct {
	Text    string   `json:"text" binding:"required,max=1000"`
	Options []string `json:"options" binding:"required,min=1,max=20,dive,required"`
	// accepts 2 or "2", the same normalization used when grading
	CorrectAnswerIndex *domain.Answer `json:"correctAnswerIndex" binding:"required"`
	Feedback           string         `json:"feedback" binding:"max=2000"`
}

type submitRequest struct {
	QuizID  string         `json:"quizId" binding:"required"`
	Answers domain.Answers `json:"answers"`
}

type submitResponse struct {
	Score          int          `json:"score"`
	TotalQuestions int          `json:"totalQuestions"`
	Quiz           quizResponse `json:"quiz"`
}

type questionResponse struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex,omitempty"`
	Feedback           string   `json:"feedback,omitempty"`
}

type quizResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Author      string             `json:"author"`
	Questions   []questionResponse `json:"questions"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// newQuizResponse renders a quiz. Without withAnswers the answer key and feedback are stripped.
func newQuizResponse(quiz domain.Quiz, withAnswers bool) quizResponse {
	questions := make([]questionResponse, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		out := questionResponse{
			ID:      q.ID,
			Text:    q.Text,
			Options: q.Options,
		}
		if withAnswers {
			idx := q.CorrectAnswerIndex
			out.CorrectAnswerIndex = &idx
			out.Feedback = q.Feedback
		}
		questions = append(questions, out)
	}
	return quizResponse{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Author:      quiz.Author,
		Questions:   questions,
		CreatedAt:   quiz.CreatedAt,
		UpdatedAt:   quiz.UpdatedAt,
	}
}

func newQuizListResponse(quizzes []domain.Quiz, withAnswers bool) []quizResponse {
	out := make([]quizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		out = append(out, newQuizResponse(quiz, withAnswers))
	}
	return out
}
