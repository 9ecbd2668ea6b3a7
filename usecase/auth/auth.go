package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

const (
	minPasswordLength = 6
	devSecret         = "taskboard-insecure-development-secret"
)

var (
	errEmailRequired    = domain.NewError(domain.ErrCodeInvalid, "a valid email is required")
	errPasswordTooShort = domain.NewError(domain.ErrCodeInvalid, "password must be at least 6 characters")
)

// Config tunes token signing and password hashing.
type Config struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	BcryptCost int
}

// UseCase owns accounts, password checks and revocable sessions.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	signer   tokenSigner
	ttl      time.Duration
	cost     int
	logger   *zap.Logger
	now      func() time.Time
}

func New(users repository.UserRepository, sessions repository.SessionRepository, cfg Config, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		cfg.Secret = devSecret
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "taskboard"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		signer:   tokenSigner{secret: []byte(cfg.Secret), issuer: cfg.Issuer},
		ttl:      cfg.SessionTTL,
		cost:     cfg.BcryptCost,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an account with a profile record and signs it in.
func (uc *UseCase) Register(ctx context.Context, name, email, password string) (*domain.Credential, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "could not hash password", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         "",
		PasswordHash: hash,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, domain.Unavailable("could not create account", err)
	}

	uc.logger.Info("account registered", zap.String("user_id", user.ID))
	return uc.openSession(ctx, user)
}

// Login checks the password and opens a new session.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*domain.Credential, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "email and password are required")
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Unavailable("could not load account", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		uc.logger.Info("login rejected", zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	return uc.openSession(ctx, user)
}

// Logout revokes the session. Revoking an unknown session is not an error.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return domain.Unavailable("could not end session", err)
	}
	return nil
}

// Verify validates a token against its live session and account.
func (uc *UseCase) Verify(ctx context.Context, token string) (*domain.Credential, error) {
	c, err := uc.signer.parse(token)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeAuthFailed, domain.ErrInvalidToken.Message, err)
	}

	session, err := uc.sessions.Get(ctx, c.ID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, domain.Unavailable("could not load session", err)
	}
	if session.UserID != c.Subject || session.IsExpired(uc.now()) {
		if err := uc.sessions.Delete(ctx, session.ID); err != nil {
			uc.logger.Warn("could not drop rejected session", zap.String("session_id", session.ID), zap.Error(err))
		}
		return nil, domain.ErrInvalidToken
	}

	user, err := uc.users.GetByID(ctx, c.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, domain.Unavailable("could not load account", err)
	}

	return &domain.Credential{
		Token:     token,
		SessionID: session.ID,
		Identity:  user.Identity(),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Refresh extends a live session and issues a fresh token for it.
func (uc *UseCase) Refresh(ctx context.Context, token string) (*domain.Credential, error) {
	current, err := uc.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, current.SessionID, int(uc.ttl.Seconds())); err != nil {
		return nil, domain.Unavailable("could not extend session", err)
	}
	session, err := uc.sessions.Get(ctx, current.SessionID)
	if err != nil {
		return nil, domain.Unavailable("could not load session", err)
	}
	return uc.issue(current.Identity, session)
}

func (uc *UseCase) openSession(ctx context.Context, user *domain.User) (*domain.Credential, error) {
	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, domain.Unavailable("could not start session", err)
	}
	return uc.issue(user.Identity(), session)
}

func (uc *UseCase) issue(identity domain.Identity, session *domain.Session) (*domain.Credential, error) {
	token, err := uc.signer.sign(newClaims(identity.UserID, session.ID, identity.Email, identity.DisplayName, uc.now(), session.ExpiresAt))
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "could not sign credential", err)
	}
	return &domain.Credential{
		Token:     token,
		SessionID: session.ID,
		Identity:  identity,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func validateCredentials(email, password string) (string, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return "", errEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errEmailRequired
	}
	if len(password) < minPasswordLength {
		return "", errPasswordTooShort
	}
	return email, nil
}
