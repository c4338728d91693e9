package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestNewProfileWithBonus(t *testing.T) {
	now := time.Date(2025, 9, 26, 10, 0, 0, 0, ReferenceZone)
	p := NewProfile("acc-1", "ana", 100, now)

	if p.Points != MaxSignupBonus {
		t.Fatalf("expected bonus capped at %d, got %d", MaxSignupBonus, p.Points)
	}
	if p.StreakCount != 0 || p.Shields != 0 {
		t.Fatalf("expected fresh streak/shields, got %d/%d", p.StreakCount, p.Shields)
	}
	if !IsSameCalendarDay(p.LastActivityDate, now) {
		t.Fatalf("expected bonus to count as today's activity")
	}
}

func TestNewProfileWithoutBonusBackdatesActivity(t *testing.T) {
	now := time.Date(2025, 9, 26, 10, 0, 0, 0, ReferenceZone)
	p := NewProfile("acc-1", "ana", 0, now)

	if got := DaysBetween(now, p.LastActivityDate); got != 1 {
		t.Fatalf("expected activity backdated one day, gap=%d", got)
	}
}

func TestWithAnswerCapsHistory(t *testing.T) {
	now := time.Date(2025, 9, 26, 10, 0, 0, 0, ReferenceZone)
	p := NewProfile("acc-1", "ana", 0, now)

	for i := 0; i < 6; i++ {
		p = p.WithAnswer(AnswerRecord{
			DailyQuestionsID: fmt.Sprintf("set-%d", i),
			QuestionID:       i,
			AnsweredAt:       now,
		})
	}

	if len(p.LastAnswers) != LastAnswersCap {
		t.Fatalf("expected %d entries, got %d", LastAnswersCap, len(p.LastAnswers))
	}
	if p.LastAnswers[0].QuestionID != 1 || p.LastAnswers[4].QuestionID != 5 {
		t.Fatalf("expected oldest entry evicted, got %+v", p.LastAnswers)
	}
}

func TestWithAnswerDoesNotMutateReceiver(t *testing.T) {
	now := time.Date(2025, 9, 26, 10, 0, 0, 0, ReferenceZone)
	p := NewProfile("acc-1", "ana", 0, now)

	updated := p.WithAnswer(AnswerRecord{DailyQuestionsID: "set-1", QuestionID: 0})
	if len(p.LastAnswers) != 0 {
		t.Fatalf("expected original history untouched, got %d entries", len(p.LastAnswers))
	}
	if !updated.HasAnswered("set-1", 0) {
		t.Fatalf("expected updated copy to record the answer")
	}
}
