package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"task-assistant/internal/models"
)

type authServiceImpl struct {
	logger     zerolog.Logger
	pgPool     *pgxpool.Pool
	index      VectorIndex
	sessionTTL time.Duration
}

func NewAuthService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	index VectorIndex,
	sessionTTL time.Duration,
) AuthService {
	return &authServiceImpl{
		logger:     logger,
		pgPool:     pgPool,
		index:      index,
		sessionTTL: sessionTTL,
	}
}

func (s *authServiceImpl) Register(ctx context.Context, params RegisterParams) (*LoginResult, error) {
	now := time.Now()
	user := models.User{
		Username:  params.Username,
		Email:     params.Email,
		IsActive:  true,
		CreatedAt: now,
		LastLogin: &now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}
	user.Password = passwordHash

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertUserQuery = `
INSERT INTO users (id,
                   username,
                   email,
                   password,
                   is_active,
                   created_at,
                   last_login)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = tx.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Username,
		user.Email,
		user.Password,
		user.IsActive,
		user.CreatedAt,
		user.LastLogin,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.UniqueViolation {
				s.logger.Error().
					Str("username", user.Username).
					Str("email", user.Email).
					Msg("user with this username or email already exists")
				return nil, ErrUserAlreadyExists
			}
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("inserted user")

	session, err := s.insertSession(ctx, tx, user.ID, params.Fingerprint)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("registered user")
	return &LoginResult{
		User:      user,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user := models.User{}

	const selectUserByLoginQuery = `
SELECT id,
       username,
       email,
       password,
       created_at
FROM users
WHERE (username = $1 OR email = $1) AND
      is_active = TRUE
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByLoginQuery,
		params.Login,
	).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("login", params.Login).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("login", params.Login).
			Msg("failed to select user by login")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("selected user")

	if user.Password == "" {
		// OAuth-only account, there is no password to check.
		s.logger.Error().
			Str("user_id", user.ID).
			Msg("password login attempted for oauth account")
		return nil, ErrUserPasswordMismatch
	}

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().Msg("passwords do not match")
		return nil, ErrUserPasswordMismatch
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	const updateLastLoginQuery = `
UPDATE users
SET last_login = $1
WHERE id = $2
`
	_, err = tx.Exec(ctx, updateLastLoginQuery, now, user.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to update last login")
		return nil, err
	}
	user.LastLogin = &now

	session, err := s.insertSession(ctx, tx, user.ID, params.Fingerprint)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in")
	return &LoginResult{
		User:      user,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) LoginWithGoogle(ctx context.Context, params GoogleLoginParams) (*LoginResult, error) {
	user := models.User{}

	const selectUserByEmailQuery = `
SELECT id,
       username,
       email,
       google_subject,
       created_at
FROM users
WHERE email = $1 AND
      is_active = TRUE
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByEmailQuery,
		params.Email,
	).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.GoogleSubject,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.registerGoogleUser(ctx, params)
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select user by email")
		return nil, err
	}

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	const updateGoogleUserQuery = `
UPDATE users
SET google_subject = $1,
    last_login = $2
WHERE id = $3
`
	_, err = tx.Exec(ctx, updateGoogleUserQuery, params.Subject, now, user.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to update google user")
		return nil, err
	}
	user.GoogleSubject = params.Subject
	user.LastLogin = &now

	session, err := s.insertSession(ctx, tx, user.ID, params.Fingerprint)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("logged in with google")
	return &LoginResult{
		User:      user,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// registerGoogleUser creates an account for a first-time OAuth login.
// The username is derived from the profile name or the email local
// part, with a short random suffix on collision.
func (s *authServiceImpl) registerGoogleUser(ctx context.Context, params GoogleLoginParams) (*LoginResult, error) {
	now := time.Now()
	user := models.User{
		Username:      usernameFromProfile(params.Name, params.Email),
		Email:         params.Email,
		GoogleSubject: params.Subject,
		IsActive:      true,
		CreatedAt:     now,
		LastLogin:     &now,
	}

	userUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	user.ID = userUUID.String()

	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertGoogleUserQuery = `
INSERT INTO users (id,
                   username,
                   email,
                   google_subject,
                   is_active,
                   created_at,
                   last_login)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	// Each attempt runs in a savepoint: a failed INSERT aborts the
	// surrounding transaction otherwise, and the retry could never run.
	insertUser := func(ctx context.Context, u models.User) error {
		nested, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		_, err = nested.Exec(
			ctx,
			insertGoogleUserQuery,
			u.ID,
			u.Username,
			u.Email,
			u.GoogleSubject,
			u.IsActive,
			u.CreatedAt,
			u.LastLogin,
		)
		if err != nil {
			_ = nested.Rollback(ctx)
			return err
		}
		return nested.Commit(ctx)
	}

	err = insertUserWithUsernameRetry(ctx, &user, insertUser)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Error().
				Str("email", user.Email).
				Msg("google user already exists")
			return nil, ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert google user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("inserted google user")

	session, err := s.insertSession(ctx, tx, user.ID, params.Fingerprint)
	if err != nil {
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("registered user via google")
	return &LoginResult{
		User:      user,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

const usersUsernameConstraint = "users_username_key"

// insertUserWithUsernameRetry inserts the user, retrying once with a
// random username suffix when the username constraint is violated. Any
// other error, including an email collision, is returned as is. On
// success the user reflects the username that was actually stored.
func insertUserWithUsernameRetry(
	ctx context.Context,
	user *models.User,
	insert func(context.Context, models.User) error,
) error {
	err := insert(ctx, *user)
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == usersUsernameConstraint {
		retry := *user
		retry.Username = user.Username + "-" + randomSuffix()
		if err = insert(ctx, retry); err == nil {
			user.Username = retry.Username
			return nil
		}
	}
	return err
}

func (s *authServiceImpl) Logout(ctx context.Context, token string) error {
	const deleteSessionQuery = `
DELETE FROM sessions
       WHERE token = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteSessionQuery,
		token,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to delete session")
		return err
	}
	s.logger.Debug().
		Int64("affected", tag.RowsAffected()).
		Msg("deleted session")

	s.logger.Info().Msg("logged out")
	return nil
}

func (s *authServiceImpl) DeleteAccount(ctx context.Context, userID string) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Sessions and tasks cascade from the user row.
	const deleteUserQuery = `
DELETE FROM users WHERE id = $1
`
	tag, err := tx.Exec(ctx, deleteUserQuery, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete user")
		return err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("user_id", userID).
			Msg("user not found")
		return ErrUserNotFound
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}

	err = s.index.DeleteNamespace(ctx, userID)
	if err != nil {
		// The account is gone either way, orphaned vectors only cost
		// index space.
		s.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete vector namespace")
	}

	s.logger.Info().
		Str("user_id", userID).
		Msg("deleted account")
	return nil
}

func (s *authServiceImpl) insertSession(ctx context.Context, tx pgx.Tx, userID, fingerprint string) (*models.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate session token")
		return nil, err
	}

	now := time.Now()
	session := &models.Session{
		Token:       token,
		UserID:      userID,
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}

	const insertSessionQuery = `
INSERT INTO sessions (token,
                      user_id,
                      fingerprint,
                      expires_at,
                      created_at)
VALUES ($1, $2, $3, $4, $5)
`
	_, err = tx.Exec(
		ctx,
		insertSessionQuery,
		session.Token,
		session.UserID,
		session.Fingerprint,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert session")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", session.UserID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted session")

	return session, nil
}

func generateSessionToken() (string, error) {
	const length = 32
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func usernameFromProfile(name, email string) string {
	username := strings.ToLower(strings.TrimSpace(name))
	username = strings.ReplaceAll(username, " ", ".")
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	return username
}

func randomSuffix() string {
	bytes := make([]byte, 3)
	_, _ = rand.Read(bytes)
	return base64.RawURLEncoding.EncodeToString(bytes)
}
