package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKID = "test-key"

func newTestValidator(t *testing.T) (*KeycloakValidator, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		testKID: keyfunc.NewGivenRSA(&key.PublicKey, keyfunc.GivenKeyOptions{Algorithm: "RS256"}),
	})
	return NewKeycloakValidatorWithJWKS(jwks, "https://auth.example/realms/jan", "conversation-api", time.Minute, zerolog.Nop()), key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	raw, err := token.SignedString(key)
	require.NoError(t, err)
	return raw
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":                "user-123",
		"iss":                "https://auth.example/realms/jan",
		"aud":                []string{"conversation-api", "account"},
		"exp":                time.Now().Add(time.Hour).Unix(),
		"preferred_username": "alice",
		"realm_access":       map[string]any{"roles": []string{"user"}},
	}
}

func TestKeycloakValidatorAcceptsValidToken(t *testing.T) {
	v, key := newTestValidator(t)

	principal, err := v.Validate(context.Background(), sign(t, key, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-123", principal.Subject)
	assert.Equal(t, "alice", principal.PreferredUsername)
	assert.Equal(t, []string{"user"}, principal.Roles)
	assert.True(t, v.Ready())
}

func TestKeycloakValidatorRejects(t *testing.T) {
	v, key := newTestValidator(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(jwt.MapClaims)
		key    *rsa.PrivateKey
	}{
		{name: "wrong issuer", mutate: func(c jwt.MapClaims) { c["iss"] = "https://evil.example" }},
		{name: "wrong audience", mutate: func(c jwt.MapClaims) { c["aud"] = "other" }},
		{name: "expired beyond skew", mutate: func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }},
		{name: "missing expiry", mutate: func(c jwt.MapClaims) { delete(c, "exp") }},
		{name: "missing subject", mutate: func(c jwt.MapClaims) { delete(c, "sub") }},
		{name: "unknown signer", key: otherKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := baseClaims()
			if tt.mutate != nil {
				tt.mutate(claims)
			}
			signer := key
			if tt.key != nil {
				signer = tt.key
			}
			_, err := v.Validate(context.Background(), sign(t, signer, claims))
			assert.Error(t, err)
		})
	}
}

func TestKeycloakValidatorToleratesClockSkew(t *testing.T) {
	v, key := newTestValidator(t)
	claims := baseClaims()
	claims["exp"] = time.Now().Add(-30 * time.Second).Unix()

	_, err := v.Validate(context.Background(), sign(t, key, claims))
	assert.NoError(t, err)
}
