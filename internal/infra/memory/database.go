package memory

import (
	"sync"

	"classroom-quiz-service/internal/domain"
)

type resultKey struct {
	quizID  string
	student string
}

// Database is an in-process document store. Quizzes, results and users share one lock so
// quiz deletion and result upserts observe each other the way a foreign key would.
type Database struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
	results map[resultKey]domain.Result
	users   map[string]domain.User
}

func NewDatabase() *Database {
	return &Database{
		quizzes: make(map[string]domain.Quiz),
		results: make(map[resultKey]domain.Result),
		users:   make(map[string]domain.User),
	}
}

func (db *Database) Quizzes() *QuizStore {
	return &QuizStore{db: db}
}

func (db *Database) Results() *ResultStore {
	return &ResultStore{db: db}
}

func (db *Database) Users() *UserStore {
	return &UserStore{db: db}
}
