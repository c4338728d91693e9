package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lectio-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// ProfileRepository stores profiles as JSONB rows with a version column
// guarding concurrent writers.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) FindByAccountID(ctx context.Context, accountID string) (domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT data, version FROM profiles WHERE account_id=$1`, accountID)
	return scanProfile(row)
}

func (r *ProfileRepository) FindByUsername(ctx context.Context, username string) (domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT data, version FROM profiles WHERE username=$1`, username)
	return scanProfile(row)
}

func (r *ProfileRepository) Create(ctx context.Context, profile domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO profiles (account_id, username, data, version) VALUES ($1, $2, $3, 1)`,
		profile.AccountID, profile.Username, data)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "profiles_username_key" {
			return domain.ErrUsernameTaken
		}
		return domain.ErrProfileConflict
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Save is a conditional write: the row is only updated when the stored
// version still matches the caller's snapshot.
func (r *ProfileRepository) Save(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("marshal profile: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET data=$1, version=version+1 WHERE account_id=$2 AND version=$3`,
		data, profile.AccountID, profile.Version)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Profile{}, domain.ErrProfileConflict
	}
	profile.Version++
	return profile, nil
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var raw []byte
	var version int64
	if err := row.Scan(&raw, &version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrProfileNotFound
		}
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	var profile domain.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return domain.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	profile.Version = version
	return profile, nil
}
