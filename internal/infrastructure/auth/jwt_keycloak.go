package auth

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Principal is the caller identity extracted from a verified token.
type Principal struct {
	Subject           string
	Issuer            string
	Audience          []string
	PreferredUsername string
	Email             string
	Roles             []string
	ExpiresAt         time.Time
}

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(ctx context.Context, rawToken string) (*Principal, error)
	Ready() bool
}

type keycloakClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// KeycloakValidator validates JWT tokens against Keycloak JWKS.
type KeycloakValidator struct {
	issuer    string
	audience  string
	jwksURL   string
	clockSkew time.Duration
	logger    zerolog.Logger
	jwks      atomic.Pointer[keyfunc.JWKS]
	refreshOK atomic.Bool
}

var _ TokenValidator = (*KeycloakValidator)(nil)

const (
	jwksRefreshInterval        = time.Hour
	jwksInitialRetryInterval   = time.Second
	jwksInitialRetryMaxBackoff = 10 * time.Second
	jwksInitialRetryTimeout    = 2 * time.Minute
)

// NewKeycloakValidator fetches the JWKS, retrying with backoff until the
// context or jwksInitialRetryTimeout runs out.
func NewKeycloakValidator(ctx context.Context, jwksURL, issuer, audience string, clockSkew time.Duration, logger zerolog.Logger) (*KeycloakValidator, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url is required")
	}
	v := &KeycloakValidator{
		issuer:    issuer,
		audience:  audience,
		jwksURL:   jwksURL,
		clockSkew: clockSkew,
		logger:    logger,
	}
	if err := v.initJWKS(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// NewKeycloakValidatorWithJWKS builds a validator around an already loaded key set.
func NewKeycloakValidatorWithJWKS(jwks *keyfunc.JWKS, issuer, audience string, clockSkew time.Duration, logger zerolog.Logger) *KeycloakValidator {
	v := &KeycloakValidator{
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		logger:    logger,
	}
	v.jwks.Store(jwks)
	v.refreshOK.Store(true)
	return v
}

func (v *KeycloakValidator) initJWKS(ctx context.Context) error {
	options := keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			v.refreshOK.Store(err == nil)
			if err != nil {
				v.logger.Error().Err(err).Msg("jwks refresh failed")
			}
		},
		RefreshInterval:   jwksRefreshInterval,
		RefreshUnknownKID: true,
	}

	backoff := jwksInitialRetryInterval
	deadline := time.Now().Add(jwksInitialRetryTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	for attempt := 1; ; attempt++ {
		jwks, err := keyfunc.Get(v.jwksURL, options)
		if err == nil {
			v.jwks.Store(jwks)
			v.refreshOK.Store(true)
			return nil
		}

		v.logger.Warn().
			Err(err).
			Str("jwks_url", v.jwksURL).
			Int("attempt", attempt).
			Msg("initial jwks fetch failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("fetch jwks: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("fetch jwks: %w", err)
		}
		backoff = min(backoff*2, jwksInitialRetryMaxBackoff)
	}
}

// Validate parses and validates the given JWT returning the principal.
func (v *KeycloakValidator) Validate(_ context.Context, rawToken string) (*Principal, error) {
	jwks := v.jwks.Load()
	if jwks == nil {
		return nil, errors.New("jwks not initialised")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &keycloakClaims{}
	if _, err := jwt.ParseWithClaims(rawToken, claims, jwks.Keyfunc, opts...); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("sub claim missing")
	}

	principal := &Principal{
		Subject:           claims.Subject,
		Issuer:            claims.Issuer,
		Audience:          claims.Audience,
		PreferredUsername: claims.PreferredUsername,
		Email:             claims.Email,
		Roles:             claims.RealmAccess.Roles,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// Ready indicates whether JWKS is loaded and the last refresh succeeded.
func (v *KeycloakValidator) Ready() bool {
	return v.jwks.Load() != nil && v.refreshOK.Load()
}
