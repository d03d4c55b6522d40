// Package security records security-relevant events in the
// application log.
package security

import "github.com/rs/zerolog"

type Monitor struct {
	logger zerolog.Logger
}

func NewMonitor(logger zerolog.Logger) *Monitor {
	return &Monitor{logger: logger}
}

func (m *Monitor) LogFailedLogin(login, ip string) {
	m.logger.Warn().
		Str("event", "failed_login").
		Str("login", login).
		Str("ip", ip).
		Msg("security event")
}

func (m *Monitor) LogSuccessfulLogin(username, ip string) {
	m.logger.Info().
		Str("event", "successful_login").
		Str("username", username).
		Str("ip", ip).
		Msg("security event")
}

func (m *Monitor) LogRateLimited(ip, path string) {
	m.logger.Warn().
		Str("event", "rate_limited").
		Str("ip", ip).
		Str("path", path).
		Msg("security event")
}
