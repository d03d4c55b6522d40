package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"task-assistant/internal/services"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleUserinfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandleGoogleLogin redirects to the Google consent screen. The state
// parameter is a short-lived signed token so the callback can verify
// the round trip started here.
func (h *handlerImpl) HandleGoogleLogin(c *gin.Context) {
	if h.oauth.ClientID == "" {
		h.logger.Warn().Msg("google oauth is not configured")
		abort(c, newStatusTextError(http.StatusNotImplemented))
		return
	}

	state, err := h.signOAuthState()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign oauth state")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

func (h *handlerImpl) HandleGoogleCallback(c *gin.Context) {
	state := c.Query("state")
	if err := h.verifyOAuthState(state); err != nil {
		h.logger.Error().
			Err(err).
			Msg("invalid oauth state")
		abort(c, newUnauthorizedError("invalid oauth state"))
		return
	}

	code := c.Query("code")
	if code == "" {
		h.logger.Error().Msg("no oauth code provided")
		abort(c, newBadRequestError("missing authorization code"))
		return
	}

	token, err := h.oauth.Exchange(c, code)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to exchange oauth code")
		abort(c, newUnauthorizedError("oauth code exchange failed"))
		return
	}

	info, err := h.fetchGoogleUserinfo(c, token.AccessToken)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to fetch google userinfo")
		abort(c, newStatusTextError(http.StatusInternalServerError))
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

	result, err := h.auth.LoginWithGoogle(c, services.GoogleLoginParams{
		Subject:     info.ID,
		Email:       info.Email,
		Name:        info.Name,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login with google")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.monitor.LogSuccessfulLogin(result.User.Username, c.ClientIP())

	setSessionCookie(c, result.Token, time.Until(result.ExpiresAt))
	c.Redirect(http.StatusTemporaryRedirect, "/")
}

func (h *handlerImpl) fetchGoogleUserinfo(c *gin.Context, accessToken string) (*googleUserinfo, error) {
	req, err := http.NewRequestWithContext(c, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned %s", resp.Status)
	}

	var info googleUserinfo
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return &info, nil
}

func (h *handlerImpl) signOAuthState() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.oauthState.StateTTL)),
	})
	return token.SignedString([]byte(h.oauthState.StateKey))
}

func (h *handlerImpl) verifyOAuthState(state string) error {
	if state == "" {
		return fmt.Errorf("empty state")
	}

	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(h.oauthState.StateKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("invalid state token: %w", err)
	}
	return nil
}
