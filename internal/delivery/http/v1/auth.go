package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"task-assistant/internal/metrics"
	"task-assistant/internal/models"
	"task-assistant/internal/services"
)

type userResponse struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	h.logger.Info().
		Str("username", req.Username).
		Msg("register request")

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	result, err := h.auth.Register(c, services.RegisterParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			abort(c, newConflictError(services.ErrUserAlreadyExists.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	setSessionCookie(c, result.Token, time.Until(result.ExpiresAt))
	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"user":       newUserResponse(&result.User),
		"session_id": result.Token,
		"message":    "User registered and logged in successfully",
	})
}

type loginRequest struct {
	// Username also accepts an email address.
	Username string `json:"username" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=255"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Login:       req.Username,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			metrics.ObserveAuthFailure()
			h.monitor.LogFailedLogin(req.Username, c.ClientIP())
			abort(c, newUnauthorizedError("invalid username or password"))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.monitor.LogSuccessfulLogin(result.User.Username, c.ClientIP())

	setSessionCookie(c, result.Token, time.Until(result.ExpiresAt))
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user":       newUserResponse(&result.User),
		"session_id": result.Token,
		"message":    "Login successful",
	})
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	err := h.auth.Logout(c, sessionToken(c))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to logout")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

// HandleValidateSession is the unauthenticated session probe clients
// call on page load.
func (h *handlerImpl) HandleValidateSession(c *gin.Context) {
	token := sessionToken(c)
	if token == "" {
		abort(c, newUnauthorizedError("no session found"))
		return
	}

	user, err := h.sessions.GetUserBySession(c, token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound),
			errors.Is(err, services.ErrSessionExpired):
			abort(c, newUnauthorizedError(errInvalidSession.Error()))
		default:
			h.logger.Error().
				Err(err).
				Msg("failed to validate session")
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    newUserResponse(user),
	})
}

func (h *handlerImpl) HandleCurrentUser(c *gin.Context) {
	user, err := h.sessions.GetUserBySession(c, sessionToken(c))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to fetch current user")
		abort(c, newUnauthorizedError(errInvalidSession.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    newUserResponse(user),
	})
}

func (h *handlerImpl) HandleDeleteAccount(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	err := h.auth.DeleteAccount(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete account")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account deleted successfully",
	})
}

func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

func setSessionCookie(c *gin.Context, token string, maxAge time.Duration) {
	// httpOnly must be false to allow client-side JavaScript
	// to read the cookie and send it in the Authorization header.
	const secure, httpOnly = false, false
	c.SetCookie(sessionCookie, token, int(maxAge.Seconds()),
		"/", "", secure, httpOnly)
}

func clearSessionCookie(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1,
		"/", "", false, false)
}
