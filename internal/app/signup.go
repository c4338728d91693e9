package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/xid"

	"lectio-quiz-service/internal/domain"
)

// Tokens are the credentials handed to the client after sign-up or
// sign-in.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthGateway wraps the external identity provider (Cognito in
// production). The core consults it by identity only.
type AuthGateway interface {
	SignUp(ctx context.Context, email, password, internalID string) (externalID string, err error)
	SignIn(ctx context.Context, email, password string) (Tokens, error)
	DeleteUser(ctx context.Context, externalID string) error
}

// AuthService bootstraps accounts: identity lives in the gateway, the
// gamification profile in the profile repository.
type AuthService struct {
	gateway  AuthGateway
	profiles ProfileRepository
	now      func() time.Time
}

func NewAuthService(gateway AuthGateway, profiles ProfileRepository) *AuthService {
	return NewAuthServiceWithClock(gateway, profiles, time.Now)
}

// NewAuthServiceWithClock is test-only for deterministic timestamps.
func NewAuthServiceWithClock(gateway AuthGateway, profiles ProfileRepository, now func() time.Time) *AuthService {
	return &AuthService{gateway: gateway, profiles: profiles, now: now}
}

// SignUpInput carries the registration form. BonusPoints comes from
// promotional links and is capped by the profile rules.
type SignUpInput struct {
	Email       string
	Password    string
	Username    string
	BonusPoints int
}

// SignUp registers the identity, creates the profile and signs the new
// user in. When profile creation fails the gateway user is removed
// (best effort) so the email can register again.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (Tokens, error) {
	if _, err := s.profiles.FindByUsername(ctx, in.Username); err == nil {
		return Tokens{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return Tokens{}, err
	}

	accountID := xid.New().String()
	externalID, err := s.gateway.SignUp(ctx, in.Email, in.Password, accountID)
	if err != nil {
		return Tokens{}, err
	}

	profile := domain.NewProfile(accountID, in.Username, in.BonusPoints, s.now())
	if err := s.profiles.Create(ctx, profile); err != nil {
		_ = s.gateway.DeleteUser(ctx, externalID)
		return Tokens{}, err
	}

	return s.gateway.SignIn(ctx, in.Email, in.Password)
}

// SignIn exchanges credentials for tokens.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	return s.gateway.SignIn(ctx, email, password)
}
