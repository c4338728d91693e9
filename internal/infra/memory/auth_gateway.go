package memory

import (
	"context"
	"errors"
	"sync"

	"lectio-quiz-service/internal/app"
)

// ErrInvalidCredentials is returned by the fake gateway on a bad
// email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthGateway is an in-memory stand-in for the Cognito gateway, used by
// tests and local runs without AWS credentials.
type AuthGateway struct {
	mu    sync.Mutex
	users map[string]fakeUser
}

type fakeUser struct {
	password   string
	externalID string
}

func NewAuthGateway() *AuthGateway {
	return &AuthGateway{users: make(map[string]fakeUser)}
}

func (g *AuthGateway) SignUp(_ context.Context, email, password, internalID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.users[email]; ok {
		return "", errors.New("email already registered")
	}
	externalID := "local-" + internalID
	g.users[email] = fakeUser{password: password, externalID: externalID}
	return externalID, nil
}

func (g *AuthGateway) SignIn(_ context.Context, email, password string) (app.Tokens, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	user, ok := g.users[email]
	if !ok || user.password != password {
		return app.Tokens{}, ErrInvalidCredentials
	}
	return app.Tokens{
		AccessToken:  "access-" + user.externalID,
		RefreshToken: "refresh-" + user.externalID,
	}, nil
}

func (g *AuthGateway) DeleteUser(_ context.Context, externalID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for email, user := range g.users {
		if user.externalID == externalID {
			delete(g.users, email)
			return nil
		}
	}
	return nil
}
