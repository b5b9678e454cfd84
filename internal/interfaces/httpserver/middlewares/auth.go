package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/conversation-api/internal/infrastructure/auth"
	"jan-server/services/conversation-api/internal/interfaces/httpserver/responses"
)

const (
	principalContextKey = "principal"
	userIDContextKey    = "user_id"
	userIDHeader        = "X-User-Id"
)

var errNoCredentials = errors.New("no credentials")

// AuthMiddleware authenticates the caller with a Keycloak bearer token. When
// no validator is configured, or trustHeaders is set, an X-User-Id header
// injected by the gateway is accepted as the identity.
func AuthMiddleware(validator auth.TokenValidator, logger zerolog.Logger, trustHeaders bool) gin.HandlerFunc {
	trustHeaders = trustHeaders || validator == nil

	return func(c *gin.Context) {
		principal, err := principalFromJWT(c, validator)
		switch {
		case err == nil:
			setPrincipal(c, principal)
		case errors.Is(err, errNoCredentials):
			userID := strings.TrimSpace(c.GetHeader(userIDHeader))
			if !trustHeaders || userID == "" {
				logger.Warn().
					Str("path", c.FullPath()).
					Str("method", c.Request.Method).
					Msg("unauthenticated request")
				responses.HandleErrorWithStatus(c, http.StatusUnauthorized, errors.New("authentication required"), "unauthorized")
				return
			}
			setPrincipal(c, &auth.Principal{Subject: userID})
		default:
			logger.Warn().Err(err).Msg("jwt validation failed")
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized, err, "unauthorized")
			return
		}

		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (*auth.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return nil, false
	}
	principal, ok := val.(*auth.Principal)
	return principal, ok
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDContextKey)
	return userID, userID != ""
}

func setPrincipal(c *gin.Context, principal *auth.Principal) {
	c.Set(principalContextKey, principal)
	c.Set(userIDContextKey, principal.Subject)
	c.Writer.Header().Set(userIDHeader, principal.Subject)
}

func principalFromJWT(c *gin.Context, validator auth.TokenValidator) (*auth.Principal, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || validator == nil {
		return nil, errNoCredentials
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errNoCredentials
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return nil, errNoCredentials
	}
	principal, err := validator.Validate(c.Request.Context(), token)
	if err != nil {
		return nil, err
	}
	if principal.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return principal, nil
}
