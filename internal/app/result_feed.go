package app

import (
	"sync"

	"classroom-quiz-service/internal/domain"
)

const feedBuffer = 8

// ResultFeed fans graded results out to in-process subscribers of a quiz.
type ResultFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Result]struct{}
}

func NewResultFeed() *ResultFeed {
	return &ResultFeed{subscribers: make(map[string]map[chan domain.Result]struct{})}
}

// Subscribe registers a channel for results of quizID. cancel is idempotent.
func (f *ResultFeed) Subscribe(quizID string) (<-chan domain.Result, func()) {
	ch := make(chan domain.Result, feedBuffer)

	f.mu.Lock()
	subs, ok := f.subscribers[quizID]
	if !ok {
		subs = make(map[chan domain.Result]struct{})
		f.subscribers[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[quizID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, quizID)
		}
	}
	return ch, cancel
}

// Publish delivers the result to every subscriber of its quiz without blocking.
// A subscriber that has fallen behind loses its oldest pending result.
func (f *ResultFeed) Publish(result domain.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[result.QuizID] {
		select {
		case ch <- result:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- result
		}
	}
}

// Close ends every subscription of quizID, e.g. once the quiz is deleted.
func (f *ResultFeed) Close(quizID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[quizID] {
		close(ch)
	}
	delete(f.subscribers, quizID)
}

// Subscribers reports the number of live subscriptions for quizID.
func (f *ResultFeed) Subscribers(quizID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[quizID])
}
