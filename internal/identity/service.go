// Package identity implements usecase.IdentityService for a single signed-in client.
// The active credential is kept in a local cache so the next process can restore it.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase"
)

const credentialKey = "credential"

// Authenticator is the account backend (usecase/auth.UseCase).
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*domain.Credential, error)
	Login(ctx context.Context, email, password string) (*domain.Credential, error)
	Logout(ctx context.Context, sessionID string) error
	Verify(ctx context.Context, token string) (*domain.Credential, error)
}

// CredentialCache persists the credential between runs (internal/infrastructure/localstore).
type CredentialCache interface {
	Put(key string, value interface{}, expiresAt time.Time) error
	Get(key string, dst interface{}) (bool, error)
	Clear() error
}

type listener struct {
	id int
	fn func(*domain.Identity)
}

type Service struct {
	auth   Authenticator
	cache  CredentialCache
	logger *zap.Logger

	mu        sync.Mutex
	listeners []listener
	nextID    int
}

func New(auth Authenticator, cache CredentialCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{auth: auth, cache: cache, logger: logger}
}

var _ usecase.IdentityService = (*Service)(nil)

func (s *Service) CreateIdentity(ctx context.Context, email, password, displayName string) (domain.Identity, error) {
	cred, err := s.auth.Register(ctx, displayName, email, password)
	if err != nil {
		return domain.Identity{}, err
	}
	s.replace(ctx, cred)
	s.notify(&cred.Identity)
	return cred.Identity, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (domain.Identity, error) {
	cred, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return domain.Identity{}, err
	}
	s.replace(ctx, cred)
	s.notify(&cred.Identity)
	return cred.Identity, nil
}

// SignOut revokes the stored session and wipes the local cache.
func (s *Service) SignOut(ctx context.Context) error {
	cred, err := s.load()
	if err != nil {
		s.logger.Warn("discarding unreadable credential", zap.Error(err))
	}
	if cred != nil {
		if err := s.auth.Logout(ctx, cred.SessionID); err != nil {
			return err
		}
	}
	if err := s.cache.Clear(); err != nil {
		return domain.Unavailable("could not clear local credentials", err)
	}
	s.notify(nil)
	return nil
}

// CurrentIdentity restores the cached credential. Stale or revoked credentials are
// cleared and reported as signed out; backend outages are returned as errors.
func (s *Service) CurrentIdentity(ctx context.Context) (*domain.Identity, error) {
	cred, err := s.load()
	if err != nil {
		s.logger.Warn("discarding unreadable credential", zap.Error(err))
		s.forget()
		s.notify(nil)
		return nil, nil
	}
	if cred == nil || cred.IsExpired(time.Now()) {
		if cred != nil {
			s.forget()
		}
		s.notify(nil)
		return nil, nil
	}

	verified, err := s.auth.Verify(ctx, cred.Token)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeAuthFailed) {
			s.logger.Info("stored credential rejected", zap.Error(err))
			s.forget()
			s.notify(nil)
			return nil, nil
		}
		return nil, err
	}

	identity := verified.Identity
	s.notify(&identity)
	return &identity, nil
}

func (s *Service) OnIdentityChange(fn func(*domain.Identity)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Service) load() (*domain.Credential, error) {
	var cred domain.Credential
	found, err := s.cache.Get(credentialKey, &cred)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	if cred.Token == "" || cred.Identity.IsZero() {
		return nil, errors.New("credential missing token or identity")
	}
	return &cred, nil
}

// replace stores cred and revokes the session it supersedes.
func (s *Service) replace(ctx context.Context, cred *domain.Credential) {
	previous, err := s.load()
	if err != nil {
		s.logger.Debug("ignoring unreadable previous credential", zap.Error(err))
	}
	if previous != nil && previous.SessionID != cred.SessionID {
		if err := s.auth.Logout(ctx, previous.SessionID); err != nil {
			s.logger.Warn("could not revoke previous session", zap.String("session_id", previous.SessionID), zap.Error(err))
		}
	}
	s.remember(cred)
}

func (s *Service) remember(cred *domain.Credential) {
	if err := s.cache.Put(credentialKey, cred, cred.ExpiresAt); err != nil {
		s.logger.Warn("could not persist credential, session will not survive restart", zap.Error(err))
	}
}

func (s *Service) forget() {
	if err := s.cache.Clear(); err != nil {
		s.logger.Warn("could not clear local credentials", zap.Error(err))
	}
}

func (s *Service) notify(identity *domain.Identity) {
	s.mu.Lock()
	listeners := make([]listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		if identity == nil {
			l.fn(nil)
			continue
		}
		copied := *identity
		l.fn(&copied)
	}
}
