package app

import (
	"context"
	"errors"
	"time"

	"lectio-quiz-service/internal/domain"
)

// ProfileRepository abstracts durable profile storage (in-memory,
// Postgres, DynamoDB). Save is a conditional write on the profile's
// version and fails with domain.ErrProfileConflict when a concurrent
// writer got there first.
type ProfileRepository interface {
	FindByAccountID(ctx context.Context, accountID string) (domain.Profile, error)
	FindByUsername(ctx context.Context, username string) (domain.Profile, error)
	Create(ctx context.Context, profile domain.Profile) error
	Save(ctx context.Context, profile domain.Profile) (domain.Profile, error)
}

// DailyQuestionsRepository stores one question set per calendar date.
// Create de-duplicates by date and returns the existing set unchanged.
type DailyQuestionsRepository interface {
	FindByID(ctx context.Context, id string) (domain.DailyQuestions, error)
	FindByDate(ctx context.Context, date time.Time) (domain.DailyQuestions, error)
	Create(ctx context.Context, set domain.DailyQuestions) (domain.DailyQuestions, error)
}

// AccountLocker serializes profile writers per account. Locking keeps
// version conflicts rare; the Save condition stays the correctness
// backstop, so lock failures are tolerated.
type AccountLocker interface {
	Lock(ctx context.Context, accountID string) (func(), error)
}

// ShieldCost is the fixed price of one shield.
const ShieldCost = 100

// maxSaveRetries bounds reload-and-reevaluate cycles after a lost
// conditional write.
const maxSaveRetries = 3

// QuizService contains the scoring, streak and daily-content use cases.
type QuizService struct {
	profiles ProfileRepository
	sets     DailyQuestionsRepository
	locks    AccountLocker
	events   *ProfileEvents
	now      func() time.Time
}

func NewQuizService(profiles ProfileRepository, sets DailyQuestionsRepository, locks AccountLocker, events *ProfileEvents) *QuizService {
	return NewQuizServiceWithClock(profiles, sets, locks, events, time.Now)
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(profiles ProfileRepository, sets DailyQuestionsRepository, locks AccountLocker, events *ProfileEvents, now func() time.Time) *QuizService {
	return &QuizService{profiles: profiles, sets: sets, locks: locks, events: events, now: now}
}

// AnswerInput identifies one submission. AccountID is empty for
// anonymous play.
type AnswerInput struct {
	AccountID        string
	DailyQuestionsID string
	QuestionID       int
	UserAnswerText   string
}

// AnswerResult is what the client gets back for a submission.
type AnswerResult struct {
	QuestionID         int    `json:"questionId"`
	IsCorrect          bool   `json:"isCorrect"`
	Answer             string `json:"answer"`
	CorrectOptionIndex int    `json:"correctOptionIndex"`
}

// SubmitAnswer grades a submission and, for signed-in users, feeds the
// outcome through the streak engine and persists the result.
func (s *QuizService) SubmitAnswer(ctx context.Context, in AnswerInput) (AnswerResult, error) {
	set, err := s.sets.FindByID(ctx, in.DailyQuestionsID)
	if err != nil {
		return AnswerResult{}, err
	}

	res := AnswerResult{QuestionID: in.QuestionID, CorrectOptionIndex: -1}
	question, found := set.QuestionByID(in.QuestionID)
	if found {
		res.Answer = question.Answer
		res.CorrectOptionIndex = question.CorrectOptionIndex
		res.IsCorrect = question.CorrectOption() == in.UserAnswerText
	}
	// Unknown question ids grade as incorrect instead of failing; the
	// client contract tolerates them.

	if in.AccountID == "" {
		return res, nil
	}

	if unlock, err := s.locks.Lock(ctx, in.AccountID); err == nil {
		defer unlock()
	}

	for attempt := 0; ; attempt++ {
		profile, err := s.profiles.FindByAccountID(ctx, in.AccountID)
		if err != nil {
			return AnswerResult{}, err
		}
		if profile.HasAnswered(in.DailyQuestionsID, in.QuestionID) {
			// Already scored; answering again never re-credits.
			return res, nil
		}

		now := s.now()
		rec := &domain.AnswerRecord{
			DailyQuestionsID:   in.DailyQuestionsID,
			QuestionID:         in.QuestionID,
			AnsweredAt:         now,
			UserAnswerIndex:    optionIndex(question, in.UserAnswerText),
			CorrectAnswerText:  res.Answer,
			CorrectOptionIndex: res.CorrectOptionIndex,
		}

		ev := StreakEvent{Outcome: AnsweredIncorrectly, Record: rec}
		if res.IsCorrect {
			ev.Outcome = AnsweredCorrectly
			ev.PointsAwarded = questionPoints(question)
		}

		saved, err := s.profiles.Save(ctx, EvaluateStreak(profile, now, ev))
		if errors.Is(err, domain.ErrProfileConflict) && attempt < maxSaveRetries {
			continue
		}
		if err != nil {
			return AnswerResult{}, err
		}
		s.events.Publish(saved)
		return res, nil
	}
}

// GetProfile returns the profile after a passive streak check. When the
// check changed streak state the result is persisted before returning.
func (s *QuizService) GetProfile(ctx context.Context, accountID string) (domain.Profile, error) {
	profile, err := s.profiles.FindByAccountID(ctx, accountID)
	if err != nil {
		return domain.Profile{}, err
	}

	updated := EvaluateStreak(profile, s.now(), StreakEvent{Outcome: ProfileViewed})
	if !streakStateChanged(profile, updated) {
		return profile, nil
	}

	saved, err := s.profiles.Save(ctx, updated)
	if errors.Is(err, domain.ErrProfileConflict) {
		// A concurrent writer already advanced the profile; serve theirs.
		return s.profiles.FindByAccountID(ctx, accountID)
	}
	if err != nil {
		return domain.Profile{}, err
	}
	s.events.Publish(saved)
	return saved, nil
}

// BuyShield spends ShieldCost points on one shield. The capacity check
// runs before any points are deducted, so a rejected purchase never
// charges.
func (s *QuizService) BuyShield(ctx context.Context, accountID string) (domain.Profile, error) {
	if unlock, err := s.locks.Lock(ctx, accountID); err == nil {
		defer unlock()
	}

	for attempt := 0; ; attempt++ {
		profile, err := s.profiles.FindByAccountID(ctx, accountID)
		if err != nil {
			return domain.Profile{}, err
		}
		if profile.Shields >= domain.MaxShields {
			return domain.Profile{}, domain.ErrShieldCapacity
		}
		if profile.Points < ShieldCost {
			return domain.Profile{}, domain.ErrInsufficientPoints
		}

		profile.Points -= ShieldCost
		profile.Shields++

		saved, err := s.profiles.Save(ctx, profile)
		if errors.Is(err, domain.ErrProfileConflict) && attempt < maxSaveRetries {
			continue
		}
		if err != nil {
			return domain.Profile{}, err
		}
		s.events.Publish(saved)
		return saved, nil
	}
}

// CreateDailyQuestions stores a set for the given date, returning the
// existing set unchanged when the date already has one.
func (s *QuizService) CreateDailyQuestions(ctx context.Context, date time.Time, questions []domain.Question) (domain.DailyQuestions, error) {
	existing, err := s.sets.FindByDate(ctx, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrDailyQuestionsNotFound) {
		return domain.DailyQuestions{}, err
	}
	return s.sets.Create(ctx, domain.NewDailyQuestions(date, questions, s.now()))
}

// GetDailyQuestionsByDate fetches the set for a calendar date.
func (s *QuizService) GetDailyQuestionsByDate(ctx context.Context, date time.Time) (domain.DailyQuestions, error) {
	return s.sets.FindByDate(ctx, date)
}

func streakStateChanged(before, after domain.Profile) bool {
	return before.StreakCount != after.StreakCount ||
		before.Shields != after.Shields ||
		!before.LastActivityDate.Equal(after.LastActivityDate)
}

func questionPoints(q domain.Question) int {
	if q.Points > 0 {
		return q.Points
	}
	return q.Difficulty.DefaultPoints()
}

func optionIndex(q domain.Question, answer string) int {
	for i, opt := range q.Options {
		if opt == answer {
			return i
		}
	}
	return -1
}
