package app

import (
	"time"

	"lectio-quiz-service/internal/domain"
)

// Outcome identifies the event that triggered a streak evaluation.
type Outcome int

const (
	// ProfileViewed is a passive check with no new answer.
	ProfileViewed Outcome = iota
	// AnsweredCorrectly is a correct first-time answer worth PointsAwarded.
	AnsweredCorrectly
	// AnsweredIncorrectly is a wrong answer.
	AnsweredIncorrectly
)

// StreakEvent carries the trigger of an evaluation. Record is nil for
// passive checks and set for answer submissions.
type StreakEvent struct {
	Outcome       Outcome
	PointsAwarded int
	Record        *domain.AnswerRecord
}

// EvaluateStreak is the streak/shield decision procedure. It is pure:
// it returns a new Profile and never touches storage. Rules:
//
//   - The day gap is the calendar-day difference between now and the
//     profile's last activity, never an hour count.
//   - A passive check on a new day either spends shields to bridge the
//     gap (gap <= shields) or resets the streak and the shields.
//   - A question already present in the history scores nothing.
//   - A correct answer always pays its points; on a new day it also
//     extends the streak and stamps the activity date, so the streak
//     grows at most once per calendar day.
//   - A wrong answer on a new day is treated like a passive check.
func EvaluateStreak(p domain.Profile, now time.Time, ev StreakEvent) domain.Profile {
	gap := domain.DaysBetween(now, p.LastActivityDate)

	if ev.Outcome == ProfileViewed {
		if gap >= 1 && p.StreakCount > 0 {
			p = coverGapOrReset(p, gap, now)
		}
		return p
	}

	if ev.Record != nil && p.HasAnswered(ev.Record.DailyQuestionsID, ev.Record.QuestionID) {
		return p
	}

	switch ev.Outcome {
	case AnsweredCorrectly:
		p.Points += ev.PointsAwarded
		if gap >= 1 {
			p.StreakCount++
			p.LastActivityDate = now
		}
	case AnsweredIncorrectly:
		if gap >= 1 && p.StreakCount > 0 {
			p = coverGapOrReset(p, gap, now)
		}
	}

	if ev.Record != nil {
		p = p.WithAnswer(*ev.Record)
	}
	return p
}

// coverGapOrReset spends shields to bridge the missed days or, when the
// gap exceeds the balance, resets streak and shields. The covered
// branch cannot drive shields negative because gap <= shields there.
func coverGapOrReset(p domain.Profile, gap int, now time.Time) domain.Profile {
	if gap <= p.Shields {
		p.Shields -= gap
		p.LastActivityDate = now
	} else {
		p.StreakCount = 0
		p.Shields = 0
	}
	return p
}
