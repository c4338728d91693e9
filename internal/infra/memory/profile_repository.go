package memory

import (
	"context"
	"sync"

	"lectio-quiz-service/internal/domain"
)

// ProfileRepository is an in-memory implementation of
// app.ProfileRepository with the same conditional-write semantics as
// the durable stores: Save only succeeds when the caller's version
// matches the stored one.
type ProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[string]domain.Profile)}
}

func (r *ProfileRepository) FindByAccountID(_ context.Context, accountID string) (domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[accountID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return cloneProfile(profile), nil
}

func (r *ProfileRepository) FindByUsername(_ context.Context, username string) (domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, profile := range r.profiles {
		if profile.Username == username {
			return cloneProfile(profile), nil
		}
	}
	return domain.Profile{}, domain.ErrProfileNotFound
}

func (r *ProfileRepository) Create(_ context.Context, profile domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.AccountID]; ok {
		return domain.ErrProfileConflict
	}
	for _, existing := range r.profiles {
		if existing.Username == profile.Username {
			return domain.ErrUsernameTaken
		}
	}
	profile.Version = 1
	r.profiles[profile.AccountID] = cloneProfile(profile)
	return nil
}

func (r *ProfileRepository) Save(_ context.Context, profile domain.Profile) (domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.profiles[profile.AccountID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if existing.Version != profile.Version {
		return domain.Profile{}, domain.ErrProfileConflict
	}
	profile.Version++
	r.profiles[profile.AccountID] = cloneProfile(profile)
	return cloneProfile(profile), nil
}

// cloneProfile detaches the answer-history slice so callers cannot
// mutate stored state.
func cloneProfile(p domain.Profile) domain.Profile {
	history := make([]domain.AnswerRecord, len(p.LastAnswers))
	copy(history, p.LastAnswers)
	p.LastAnswers = history
	return p
}
