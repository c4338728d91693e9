package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"lectio-quiz-service/internal/app"
)

// API is the subset of the Cognito client the gateway uses.
type API interface {
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error)
}

// AuthGateway signs accounts up and in against a Cognito user pool. The
// pool stores the internal account id as a custom attribute so tokens
// can be traced back to a profile.
type AuthGateway struct {
	client       API
	clientID     string
	clientSecret string
	userPoolID   string
}

func NewAuthGateway(client API, clientID, clientSecret, userPoolID string) *AuthGateway {
	return &AuthGateway{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		userPoolID:   userPoolID,
	}
}

func (g *AuthGateway) SignUp(ctx context.Context, email, password, internalID string) (string, error) {
	out, err := g.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId:   aws.String(g.clientID),
		Username:   aws.String(email),
		Password:   aws.String(password),
		SecretHash: aws.String(g.secretHash(email)),
		UserAttributes: []types.AttributeType{
			{
				Name:  aws.String("custom:internalId"),
				Value: aws.String(internalID),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("cognito sign up: %w", err)
	}
	if out.UserSub == nil || *out.UserSub == "" {
		return "", fmt.Errorf("cognito sign up: missing user sub for %s", email)
	}
	return *out.UserSub, nil
}

func (g *AuthGateway) SignIn(ctx context.Context, email, password string) (app.Tokens, error) {
	out, err := g.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(g.clientID),
		AuthParameters: map[string]string{
			"USERNAME":    email,
			"PASSWORD":    password,
			"SECRET_HASH": g.secretHash(email),
		},
	})
	if err != nil {
		return app.Tokens{}, fmt.Errorf("cognito sign in: %w", err)
	}
	result := out.AuthenticationResult
	if result == nil || result.AccessToken == nil || result.RefreshToken == nil {
		return app.Tokens{}, fmt.Errorf("cognito sign in: incomplete authentication result for %s", email)
	}
	return app.Tokens{
		AccessToken:  *result.AccessToken,
		RefreshToken: *result.RefreshToken,
	}, nil
}

func (g *AuthGateway) DeleteUser(ctx context.Context, externalID string) error {
	_, err := g.client.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(g.userPoolID),
		Username:   aws.String(externalID),
	})
	if err != nil {
		return fmt.Errorf("cognito delete user: %w", err)
	}
	return nil
}

func (g *AuthGateway) secretHash(username string) string {
	mac := hmac.New(sha256.New, []byte(g.clientSecret))
	mac.Write([]byte(username + g.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
