package domain

import "time"

// Role is the coarse permission level carried in a bearer token.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// Identity is the authenticated caller. It is trusted verbatim once the token is verified.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsTeacher reports whether the caller may use quiz-mutation endpoints.
func (i Identity) IsTeacher() bool {
	return i.Role == RoleTeacher
}

// User is a stored account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Feedback           string   `json:"feedback,omitempty"`
}

// Quiz is an author-owned, ordered collection of questions.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Author      string     `json:"author"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// QuestionIndex returns the position of the question with the given ID, or -1.
func (q Quiz) QuestionIndex(questionID string) int {
	for i := range q.Questions {
		if q.Questions[i].ID == questionID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate questions without aliasing a stored quiz.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	return out
}

// QuizFilter narrows quiz listings. Zero value matches every quiz.
type QuizFilter struct {
	Author string
}

// Result is the latest graded submission of one student for one quiz.
// (QuizID, StudentUsername) is unique.
type Result struct {
	ID              string    `json:"id"`
	QuizID          string    `json:"quizId"`
	StudentUsername string    `json:"studentUsername"`
	Score           int       `json:"score"`
	TotalQuestions  int       `json:"totalQuestions"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// StudentResult is a result with the quiz title resolved for display.
type StudentResult struct {
	Result
	QuizTitle string `json:"quizTitle"`
}

// DeletedQuizTitle is shown for results whose quiz no longer resolves.
const DeletedQuizTitle = "Deleted Quiz"

// Grade is the outcome of grading one submission.
type Grade struct {
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
}
