package domain

import "time"

// LastAnswersCap bounds the answer history kept on a profile; the
// oldest entry is evicted first.
const LastAnswersCap = 5

// MaxShields caps the consumable shield balance.
const MaxShields = 2

// MaxSignupBonus caps the points a profile can receive from a signup bonus.
const MaxSignupBonus = 60

// AnswerRecord is one entry of a profile's bounded answer history.
type AnswerRecord struct {
	DailyQuestionsID   string    `json:"dailyQuestionsId"`
	QuestionID         int       `json:"questionId"`
	AnsweredAt         time.Time `json:"answeredAt"`
	UserAnswerIndex    int       `json:"userAnswerIndex"`
	CorrectAnswerText  string    `json:"correctAnswerText"`
	CorrectOptionIndex int       `json:"correctOptionIndex"`
}

// Profile is the gamification state of one account. Values are treated
// as immutable: the streak engine and the use cases return updated
// copies instead of mutating in place.
type Profile struct {
	AccountID        string         `json:"accountId"`
	Username         string         `json:"username"`
	Points           int            `json:"points"`
	Shields          int            `json:"shields"`
	StreakCount      int            `json:"streakCount"`
	LastActivityDate time.Time      `json:"lastActivityDate"`
	CreatedAt        time.Time      `json:"createdAt"`
	LastAnswers      []AnswerRecord `json:"lastAnswers"`

	// Version guards conditional writes; repositories bump it on save.
	Version int64 `json:"-"`
}

// NewProfile builds the signup-time state. A bonus is capped at
// MaxSignupBonus and counts as today's activity; without a bonus the
// activity date is backdated so the first answer lands on a new day.
func NewProfile(accountID, username string, bonusPoints int, now time.Time) Profile {
	points := bonusPoints
	if points > MaxSignupBonus {
		points = MaxSignupBonus
	}
	if points < 0 {
		points = 0
	}
	lastActivity := now
	if points == 0 {
		lastActivity = now.AddDate(0, 0, -1)
	}
	return Profile{
		AccountID:        accountID,
		Username:         username,
		Points:           points,
		Shields:          0,
		StreakCount:      0,
		LastActivityDate: lastActivity,
		CreatedAt:        now,
		LastAnswers:      []AnswerRecord{},
	}
}

// HasAnswered reports whether the given question of the given set is
// already present in the answer history.
func (p Profile) HasAnswered(dailyQuestionsID string, questionID int) bool {
	for _, a := range p.LastAnswers {
		if a.DailyQuestionsID == dailyQuestionsID && a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// WithAnswer returns a copy of the profile with the record appended and
// the history truncated to the most recent LastAnswersCap entries.
func (p Profile) WithAnswer(rec AnswerRecord) Profile {
	history := make([]AnswerRecord, 0, len(p.LastAnswers)+1)
	history = append(history, p.LastAnswers...)
	history = append(history, rec)
	if len(history) > LastAnswersCap {
		history = history[len(history)-LastAnswersCap:]
	}
	p.LastAnswers = history
	return p
}
