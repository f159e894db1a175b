package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/infra/memory"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memory.NewDatabase()
	feed := app.NewResultFeed()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	router := NewRouter(Deps{
		Auth:               app.NewAuthService(db.Users(), auth.NewPasswordHasher(bcrypt.MinCost), tokens),
		Quizzes:            app.NewQuizService(db.Quizzes(), db.Results(), memory.NewQuizCache(db.Quizzes(), time.Minute), feed, nil),
		Grading:            app.NewGradingService(db.Quizzes(), db.Results(), feed),
		LoginRatePerMinute: 1000,
	})
	return &testAPI{t: t, router: router}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// signup registers an account and returns a bearer token for it.
func (a *testAPI) signup(username, role string) string {
	a.t.Helper()
	creds := map[string]string{"username": username, "password": "pw-" + username, "role": role}
	rec := a.do(http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var login loginResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(a.t, login.Token)
	return login.Token
}

// arithmeticQuiz creates a quiz whose answer key is [2, 0, 1].
func (a *testAPI) arithmeticQuiz(token string) quizResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/quizzes", token, map[string]string{"title": "Arithmetic"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	quiz := decode[quizResponse](a.t, rec)

	for _, q := range []map[string]any{
		{"text": "1 + 1?", "options": []string{"0", "1", "2"}, "correctAnswerIndex": 2, "feedback": "two"},
		{"text": "0 * 9?", "options": []string{"0", "9"}, "correctAnswerIndex": 0},
		{"text": "3 - 2?", "options": []string{"0", "1", "2"}, "correctAnswerIndex": 1},
	} {
		rec = a.do(http.MethodPost, "/api/quizzes/"+quiz.ID+"/questions", token, q)
		require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
		quiz = decode[quizResponse](a.t, rec)
	}
	return quiz
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRegisterAndLoginErrors(t *testing.T) {
	api := newTestAPI(t)
	api.signup("arnold", "student")

	rec := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "arnold", "password": "x", "role": "teacher"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username already exists", decode[messageResponse](t, rec).Message)

	rec = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"username": "keesha", "password": "x", "role": "principal"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "arnold", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid credentials", decode[messageResponse](t, rec).Message)

	rec = api.do(http.MethodPost, "/api/auth/login", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddlewareStatuses(t *testing.T) {
	api := newTestAPI(t)
	student := api.signup("arnold", "student")

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/quizzes", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/quizzes", "garbage", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/quizzes", student, nil).Code)

	rec := api.do(http.MethodPost, "/api/quizzes", student, map[string]string{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgTeachersOnly, decode[messageResponse](t, rec).Message)
}

func TestSubmitAndReviewFlow(t *testing.T) {
	api := newTestAPI(t)
	teacher := api.signup("ms-frizzle", "teacher")
	student := api.signup("arnold", "student")
	quiz := api.arithmeticQuiz(teacher)
	q := quiz.Questions

	// students see the questions without the answer key
	rec := api.do(http.MethodGet, "/api/quizzes/"+quiz.ID, student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correctAnswerIndex")
	assert.NotContains(t, rec.Body.String(), "feedback")

	rec = api.do(http.MethodPost, "/api/results", student, map[string]any{
		"quizId":  quiz.ID,
		"answers": map[string]any{q[0].ID: "2", q[1].ID: 0},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	graded := decode[submitResponse](t, rec)
	assert.Equal(t, 2, graded.Score)
	assert.Equal(t, 3, graded.TotalQuestions)
	require.NotNil(t, graded.Quiz.Questions[0].CorrectAnswerIndex)
	assert.Equal(t, 2, *graded.Quiz.Questions[0].CorrectAnswerIndex)

	rec = api.do(http.MethodPost, "/api/results", student, map[string]any{
		"quizId":  quiz.ID,
		"answers": map[string]any{q[0].ID: 2, q[1].ID: 0, q[2].ID: 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, decode[submitResponse](t, rec).Score)

	rec = api.do(http.MethodGet, "/api/results", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]map[string]any](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "Arithmetic", mine[0]["quizTitle"])
	assert.EqualValues(t, 3, mine[0]["score"])

	rec = api.do(http.MethodGet, "/api/quizzes/"+quiz.ID+"/results", teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = api.do(http.MethodDelete, "/api/quizzes/"+quiz.ID, teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/results", student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSubmitErrors(t *testing.T) {
	api := newTestAPI(t)
	student := api.signup("arnold", "student")

	rec := api.do(http.MethodPost, "/api/results", student, map[string]any{"quizId": "missing", "answers": map[string]any{}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Quiz not found", decode[messageResponse](t, rec).Message)

	rec = api.do(http.MethodPost, "/api/results", student, map[string]any{"answers": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForeignQuizLooksMissing(t *testing.T) {
	api := newTestAPI(t)
	owner := api.signup("ms-frizzle", "teacher")
	rival := api.signup("mr-ratburn", "teacher")
	quiz := api.arithmeticQuiz(owner)

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, "/api/quizzes/" + quiz.ID, map[string]string{"title": "Hijacked"}},
		{http.MethodDelete, "/api/quizzes/" + quiz.ID, nil},
		{http.MethodDelete, "/api/quizzes/" + quiz.ID + "/questions/" + quiz.Questions[0].ID, nil},
		{http.MethodGet, "/api/quizzes/" + quiz.ID + "/results", nil},
	} {
		rec := api.do(tc.method, tc.path, rival, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method+" "+tc.path)
	}

	rec := api.do(http.MethodGet, "/api/quizzes/"+quiz.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Arithmetic", decode[quizResponse](t, rec).Title)
}

func TestQuestionEndpoints(t *testing.T) {
	api := newTestAPI(t)
	teacher := api.signup("ms-frizzle", "teacher")
	quiz := api.arithmeticQuiz(teacher)
	path := "/api/quizzes/" + quiz.ID + "/questions/"

	rec := api.do(http.MethodPost, "/api/quizzes/"+quiz.ID+"/questions", teacher, map[string]any{"text": "No key?", "options": []string{"a"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/quizzes/"+quiz.ID+"/questions", teacher, map[string]any{"text": "Out of range?", "options": []string{"a"}, "correctAnswerIndex": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, path+quiz.Questions[1].ID, teacher, map[string]any{"text": "0 + 9?", "options": []string{"0", "9"}, "correctAnswerIndex": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "0 + 9?", decode[quizResponse](t, rec).Questions[1].Text)

	rec = api.do(http.MethodPut, path+"missing", teacher, map[string]any{"text": "x", "options": []string{"a"}, "correctAnswerIndex": 0})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Question not found.", decode[messageResponse](t, rec).Message)

	rec = api.do(http.MethodDelete, path+quiz.Questions[0].ID, teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[quizResponse](t, rec).Questions, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)
	student := api.signup("arnold", "student")
	api.do(http.MethodPost, "/api/results", student, map[string]any{"quizId": "missing", "answers": map[string]any{}})

	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `quiz_submissions_total{outcome="quiz_not_found"} 1`), body)
	assert.Contains(t, body, "http_requests_total")
}

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", RateLimiter(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestQuestionIndexAcceptsNumericText(t *testing.T) {
	api := newTestAPI(t)
	teacher := api.signup("ms-frizzle", "teacher")
	student := api.signup("arnold", "student")

	rec := api.do(http.MethodPost, "/api/quizzes", teacher, map[string]string{"title": "Form posted"})
	require.Equal(t, http.StatusCreated, rec.Code)
	quiz := decode[quizResponse](t, rec)
	questions := "/api/quizzes/" + quiz.ID + "/questions"

	rec = api.do(http.MethodPost, questions, teacher, `{"text":"1+1?","options":["0","1","2"],"correctAnswerIndex":"2"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	quiz = decode[quizResponse](t, rec)
	require.Len(t, quiz.Questions, 1)
	require.NotNil(t, quiz.Questions[0].CorrectAnswerIndex)
	assert.Equal(t, 2, *quiz.Questions[0].CorrectAnswerIndex)

	qid := quiz.Questions[0].ID
	rec = api.do(http.MethodPut, questions+"/"+qid, teacher, `{"text":"1+0?","options":["0","1","2"],"correctAnswerIndex":" 1 "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, *decode[quizResponse](t, rec).Questions[0].CorrectAnswerIndex)

	for _, bad := range []string{`"two"`, `1.5`, `true`} {
		rec = api.do(http.MethodPut, questions+"/"+qid, teacher, `{"text":"x","options":["a","b"],"correctAnswerIndex":`+bad+`}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		assert.Equal(t, "correctAnswerIndex must be a whole number", decode[messageResponse](t, rec).Message, bad)
	}

	rec = api.do(http.MethodPost, "/api/results", student, map[string]any{"quizId": quiz.ID, "answers": map[string]any{qid: 1}})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, decode[submitResponse](t, rec).Score)
}

func TestBindingErrorsStayClientSafe(t *testing.T) {
	api := newTestAPI(t)
	teacher := api.signup("ms-frizzle", "teacher")
	quiz := api.arithmeticQuiz(teacher)

	cases := []struct {
		name, path, body, want string
	}{
		{"wrong type", "/api/quizzes", `{"title":42}`, "Invalid request: title has the wrong type"},
		{"missing field", "/api/quizzes", `{"description":"no title"}`, "Invalid request: title is required"},
		{"missing index", "/api/quizzes/" + quiz.ID + "/questions", `{"text":"x","options":["a"]}`, "Invalid request: correctAnswerIndex is required"},
		{"malformed", "/api/quizzes", `{not json`, "Invalid request: malformed JSON body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := api.do(http.MethodPost, tc.path, teacher, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			msg := decode[messageResponse](t, rec).Message
			assert.Equal(t, tc.want, msg)
			assert.NotContains(t, msg, "Go struct")
		})
	}
}
