package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lectio-quiz-service/internal/domain"
)

// DailyQuestionsRepository stores one JSONB row per calendar date.
type DailyQuestionsRepository struct {
	pool *pgxpool.Pool
}

func NewDailyQuestionsRepository(pool *pgxpool.Pool) *DailyQuestionsRepository {
	return &DailyQuestionsRepository{pool: pool}
}

func (r *DailyQuestionsRepository) FindByID(ctx context.Context, id string) (domain.DailyQuestions, error) {
	row := r.pool.QueryRow(ctx, `SELECT data FROM daily_questions WHERE id=$1`, id)
	return scanDailyQuestions(row)
}

func (r *DailyQuestionsRepository) FindByDate(ctx context.Context, date time.Time) (domain.DailyQuestions, error) {
	row := r.pool.QueryRow(ctx, `SELECT data FROM daily_questions WHERE date=$1`, dayString(date))
	return scanDailyQuestions(row)
}

// Create inserts the set unless its date already has one; the date
// unique constraint makes concurrent producers safe, and the loser of
// the race gets the winner's set back.
func (r *DailyQuestionsRepository) Create(ctx context.Context, set domain.DailyQuestions) (domain.DailyQuestions, error) {
	data, err := json.Marshal(set)
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("marshal daily questions: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO daily_questions (id, date, data) VALUES ($1, $2, $3) ON CONFLICT (date) DO NOTHING`,
		set.ID, dayString(set.Date), data)
	if err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("insert daily questions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.FindByDate(ctx, set.Date)
	}
	return set, nil
}

func scanDailyQuestions(row pgx.Row) (domain.DailyQuestions, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DailyQuestions{}, domain.ErrDailyQuestionsNotFound
		}
		return domain.DailyQuestions{}, fmt.Errorf("load daily questions: %w", err)
	}
	var set domain.DailyQuestions
	if err := json.Unmarshal(raw, &set); err != nil {
		return domain.DailyQuestions{}, fmt.Errorf("unmarshal daily questions: %w", err)
	}
	return set, nil
}

func dayString(date time.Time) string {
	return domain.DayOf(date).Format("2006-01-02")
}
