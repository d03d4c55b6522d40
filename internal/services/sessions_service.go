package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"task-assistant/internal/models"
)

type sessionServiceImpl struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewSessionService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) SessionService {
	return &sessionServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *sessionServiceImpl) GetUserBySession(ctx context.Context, token string) (*models.User, error) {
	user := &models.User{}
	session := models.Session{Token: token}

	const selectSessionUserQuery = `
SELECT u.id,
       u.username,
       u.email,
       u.google_subject,
       u.created_at,
       u.last_login,
       s.expires_at
FROM sessions s
         JOIN users u ON u.id = s.user_id
WHERE s.token = $1 AND
      u.is_active = TRUE
`
	err := s.pgPool.QueryRow(
		ctx,
		selectSessionUserQuery,
		token,
	).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.GoogleSubject,
		&user.CreatedAt,
		&user.LastLogin,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn().Msg("session not found")
			return nil, ErrSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select session user")
		return nil, err
	}

	if session.Expired(time.Now()) {
		s.logger.Warn().
			Str("user_id", user.ID).
			Time("expires_at", session.ExpiresAt).
			Msg("session expired")

		const deleteSessionQuery = `
DELETE FROM sessions WHERE token = $1
`
		_, err = s.pgPool.Exec(ctx, deleteSessionQuery, token)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to delete expired session")
		}
		return nil, ErrSessionExpired
	}

	return user, nil
}

func (s *sessionServiceImpl) CleanupExpired(ctx context.Context) (int64, error) {
	const deleteExpiredSessionsQuery = `
DELETE FROM sessions WHERE expires_at < NOW()
`
	tag, err := s.pgPool.Exec(ctx, deleteExpiredSessionsQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete expired sessions")
		return 0, err
	}

	deleted := tag.RowsAffected()
	if deleted > 0 {
		s.logger.Info().
			Int64("deleted", deleted).
			Msg("cleaned up expired sessions")
	}
	return deleted, nil
}
