package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"task-assistant/internal/services"
)

const (
	sessionCookie = "session_id"

	userIDCtxKey   = "user_id"
	usernameCtxKey = "username"
	emailCtxKey    = "email"
)

// sessionToken pulls the opaque token from the session_id cookie or
// the Authorization header. Both forms are accepted because browser
// clients use the cookie while API clients send a bearer token.
func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		return token
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	const bearerPrefix = "Bearer "
	if strings.HasPrefix(header, bearerPrefix) {
		return header[len(bearerPrefix):]
	}
	return header
}

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	token := sessionToken(c)
	if token == "" {
		h.logger.Warn().Msg("no session token provided")
		abort(c, newUnauthorizedError(errMissingSessionToken.Error()))
		return
	}

	user, err := h.sessions.GetUserBySession(c, token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound),
			errors.Is(err, services.ErrSessionExpired):
			h.logger.Warn().
				Err(err).
				Msg("session rejected")
			abort(c, newUnauthorizedError(errInvalidSession.Error()))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to resolve session")
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.Set(userIDCtxKey, user.ID)
	c.Set(usernameCtxKey, user.Username)
	c.Set(emailCtxKey, user.Email)
	c.Next()
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}
