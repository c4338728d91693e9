package memory

import (
	"context"
	"sync"
	"time"

	"lectio-quiz-service/internal/domain"
)

// DailyQuestionsRepository is the in-memory implementation of
// app.DailyQuestionsRepository, used by tests and local runs.
type DailyQuestionsRepository struct {
	mu     sync.RWMutex
	byID   map[string]domain.DailyQuestions
	byDate map[string]string
}

func NewDailyQuestionsRepository() *DailyQuestionsRepository {
	return &DailyQuestionsRepository{
		byID:   make(map[string]domain.DailyQuestions),
		byDate: make(map[string]string),
	}
}

func (r *DailyQuestionsRepository) FindByID(_ context.Context, id string) (domain.DailyQuestions, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.byID[id]
	if !ok {
		return domain.DailyQuestions{}, domain.ErrDailyQuestionsNotFound
	}
	return set, nil
}

func (r *DailyQuestionsRepository) FindByDate(_ context.Context, date time.Time) (domain.DailyQuestions, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byDate[dayKey(date)]
	if !ok {
		return domain.DailyQuestions{}, domain.ErrDailyQuestionsNotFound
	}
	return r.byID[id], nil
}

// Create stores the set unless its date already has one, in which case
// the existing set is returned unchanged.
func (r *DailyQuestionsRepository) Create(_ context.Context, set domain.DailyQuestions) (domain.DailyQuestions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := dayKey(set.Date)
	if id, ok := r.byDate[key]; ok {
		return r.byID[id], nil
	}
	r.byID[set.ID] = set
	r.byDate[key] = set.ID
	return set, nil
}

func dayKey(date time.Time) string {
	return domain.DayOf(date).Format("2006-01-02")
}
