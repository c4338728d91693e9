package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lectio-quiz-service/internal/app"
	"lectio-quiz-service/internal/domain"
	"lectio-quiz-service/internal/infra/memory"
)

func newAuthService() (*app.AuthService, *memory.ProfileRepository) {
	profiles := memory.NewProfileRepository()
	service := app.NewAuthServiceWithClock(memory.NewAuthGateway(), profiles, func() time.Time { return now })
	return service, profiles
}

func TestSignUpCreatesProfile(t *testing.T) {
	ctx := context.Background()
	service, profiles := newAuthService()

	tokens, err := service.SignUp(ctx, app.SignUpInput{
		Email:       "ana@example.com",
		Password:    "secret",
		Username:    "ana",
		BonusPoints: 100,
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", tokens)
	}

	profile, err := profiles.FindByUsername(ctx, "ana")
	if err != nil {
		t.Fatalf("find profile: %v", err)
	}
	if profile.Points != domain.MaxSignupBonus {
		t.Fatalf("expected capped bonus, got %d", profile.Points)
	}
	if profile.StreakCount != 0 || profile.Shields != 0 {
		t.Fatalf("expected fresh gamification state, got %+v", profile)
	}
}

func TestSignUpRejectsTakenUsername(t *testing.T) {
	ctx := context.Background()
	service, _ := newAuthService()

	if _, err := service.SignUp(ctx, app.SignUpInput{Email: "a@example.com", Password: "pw", Username: "ana"}); err != nil {
		t.Fatalf("first sign up: %v", err)
	}
	_, err := service.SignUp(ctx, app.SignUpInput{Email: "b@example.com", Password: "pw", Username: "ana"})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
}

func TestSignUpRollsBackGatewayUserOnProfileFailure(t *testing.T) {
	ctx := context.Background()
	gateway := &recordingGateway{AuthGateway: memory.NewAuthGateway()}
	profiles := &failingCreateRepo{ProfileRepository: memory.NewProfileRepository()}
	service := app.NewAuthServiceWithClock(gateway, profiles, func() time.Time { return now })

	_, err := service.SignUp(ctx, app.SignUpInput{Email: "a@example.com", Password: "pw", Username: "ana"})
	if err == nil {
		t.Fatalf("expected sign up failure")
	}
	if gateway.deleted == "" {
		t.Fatalf("expected gateway user removed after profile failure")
	}
}

type recordingGateway struct {
	app.AuthGateway
	deleted string
}

func (g *recordingGateway) DeleteUser(ctx context.Context, externalID string) error {
	g.deleted = externalID
	return g.AuthGateway.DeleteUser(ctx, externalID)
}

type failingCreateRepo struct {
	*memory.ProfileRepository
}

func (r *failingCreateRepo) Create(context.Context, domain.Profile) error {
	return errors.New("storage unavailable")
}
