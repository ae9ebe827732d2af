package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWorkspaceLookup struct {
	workspaceID int32
	err         error
	gotSubject  string
}

func (m *mockWorkspaceLookup) GetWorkspaceByAuth0ID(auth0ID string) (int32, error) {
	m.gotSubject = auth0ID
	return m.workspaceID, m.err
}

type stubVerifier struct {
	claims interface{}
	err    error
}

func (s stubVerifier) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	return s.claims, s.err
}

func claimsFor(subject string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{RegisteredClaims: validator.RegisteredClaims{Subject: subject}}
}

func TestNewAuth0JWTValidator_RejectsMalformedToken(t *testing.T) {
	v, err := NewAuth0JWTValidator("test.auth0.com", "https://api.elektrikci.app", &mockWorkspaceLookup{workspaceID: 1})
	require.NoError(t, err)

	workspaceID, err := v.ValidateToken(context.Background(), "invalid-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, int32(0), workspaceID)
}

func TestAuth0JWTValidator_ValidateToken(t *testing.T) {
	lookupErr := errors.New("no rows")

	tests := []struct {
		name     string
		verifier stubVerifier
		lookup   *mockWorkspaceLookup
		wantID   int32
		wantErr  error
	}{
		{
			name:     "resolves workspace of subject",
			verifier: stubVerifier{claims: claimsFor("auth0|abc")},
			lookup:   &mockWorkspaceLookup{workspaceID: 7},
			wantID:   7,
		},
		{
			name:     "verifier failure",
			verifier: stubVerifier{err: errors.New("expired")},
			lookup:   &mockWorkspaceLookup{workspaceID: 7},
			wantErr:  ErrInvalidToken,
		},
		{
			name:     "unexpected claims type",
			verifier: stubVerifier{claims: "not claims"},
			lookup:   &mockWorkspaceLookup{workspaceID: 7},
			wantErr:  ErrInvalidToken,
		},
		{
			name:     "empty subject",
			verifier: stubVerifier{claims: claimsFor("")},
			lookup:   &mockWorkspaceLookup{workspaceID: 7},
			wantErr:  ErrInvalidToken,
		},
		{
			name:     "unknown user",
			verifier: stubVerifier{claims: claimsFor("auth0|abc")},
			lookup:   &mockWorkspaceLookup{err: lookupErr},
			wantErr:  ErrWorkspaceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewJWTValidator(tt.verifier, tt.lookup)

			workspaceID, err := v.ValidateToken(context.Background(), "token")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, int32(0), workspaceID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, workspaceID)
			assert.Equal(t, "auth0|abc", tt.lookup.gotSubject)
		})
	}
}
