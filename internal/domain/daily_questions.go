package domain

import (
	"time"

	"github.com/rs/xid"
)

// Difficulty classifies a question; point values follow the
// 10/20/30 convention.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// DefaultPoints returns the conventional point value for the difficulty.
func (d Difficulty) DefaultPoints() int {
	switch d {
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 30
	default:
		return 10
	}
}

// Question is one entry of a daily set. IDs are 0-based and stable
// within the set.
type Question struct {
	ID                 int        `json:"id"`
	Text               string     `json:"text"`
	Difficulty         Difficulty `json:"difficulty"`
	Points             int        `json:"points"`
	Options            []string   `json:"options"`
	CorrectOptionIndex int        `json:"correctOptionIndex"`
	Answer             string     `json:"answer"`
}

// CorrectOption returns the text of the correct option, or "" when the
// index is out of range.
func (q Question) CorrectOption() string {
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectOptionIndex]
}

// DailyQuestions is the question set for one calendar date. Once
// created with content the question list is immutable for scoring.
type DailyQuestions struct {
	ID        string     `json:"id"`
	Date      time.Time  `json:"date"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NewDailyQuestions builds a set for the calendar day of date.
func NewDailyQuestions(date time.Time, questions []Question, now time.Time) DailyQuestions {
	return DailyQuestions{
		ID:        xid.New().String(),
		Date:      DayOf(date),
		Questions: questions,
		CreatedAt: now,
	}
}

// QuestionByID looks a question up by its stable id.
func (d DailyQuestions) QuestionByID(id int) (Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
