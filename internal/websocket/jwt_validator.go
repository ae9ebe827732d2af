package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

// WorkspaceLookup resolves the workspace of an Auth0 subject
type WorkspaceLookup interface {
	GetWorkspaceByAuth0ID(auth0ID string) (workspaceID int32, err error)
}

// TokenVerifier checks a raw JWT. *validator.Validator satisfies it.
type TokenVerifier interface {
	ValidateToken(ctx context.Context, tokenString string) (interface{}, error)
}

// CustomClaims is empty; a socket only needs the subject
type CustomClaims struct{}

// Validate implements validator.CustomClaims
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// Auth0JWTValidator checks the token a browser passes in the query string
// when opening a socket, since the upgrade request cannot carry headers.
type Auth0JWTValidator struct {
	verifier        TokenVerifier
	workspaceLookup WorkspaceLookup
}

// NewAuth0JWTValidator verifies RS256 tokens against the tenant's JWKS
func NewAuth0JWTValidator(domain, audience string, workspaceLookup WorkspaceLookup) (*Auth0JWTValidator, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid auth0 domain: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	v, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &CustomClaims{} }),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up token validator: %w", err)
	}

	return NewJWTValidator(v, workspaceLookup), nil
}

// NewJWTValidator pairs a verifier with the workspace lookup
func NewJWTValidator(verifier TokenVerifier, workspaceLookup WorkspaceLookup) *Auth0JWTValidator {
	return &Auth0JWTValidator{verifier: verifier, workspaceLookup: workspaceLookup}
}

// ValidateToken returns the workspace of the token's subject
func (v *Auth0JWTValidator) ValidateToken(ctx context.Context, token string) (int32, error) {
	claims, err := v.verifier.ValidateToken(ctx, token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok || validated.RegisteredClaims.Subject == "" {
		return 0, ErrInvalidToken
	}

	workspaceID, err := v.workspaceLookup.GetWorkspaceByAuth0ID(validated.RegisteredClaims.Subject)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWorkspaceNotFound, err)
	}
	return workspaceID, nil
}
