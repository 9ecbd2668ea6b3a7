// Package session tracks which identity the client is signed in as and tells
// observers whenever that changes.
package session

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/usecase"
)

// State is the authentication state of the client.
type State int

const (
	Resolving State = iota
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Snapshot is what observers receive on every transition.
type Snapshot struct {
	State    State
	Identity domain.Identity
}

// Observer is called synchronously after each state change.
type Observer func(Snapshot)

type subscription struct {
	id int
	fn Observer
}

// Provider is the client's session state machine. It starts in Resolving.
type Provider struct {
	identity usecase.IdentityService
	logger   *zap.Logger

	mu        sync.Mutex
	state     State
	current   domain.Identity
	observers []subscription
	nextID    int
	detach    func()
}

func New(identity usecase.IdentityService, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		identity: identity,
		logger:   logger,
		state:    Resolving,
	}
}

var _ usecase.IdentitySource = (*Provider)(nil)

// Start listens for backend identity changes and restores any persisted credential.
// A backend failure leaves the provider Anonymous and is returned to the caller.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.detach == nil {
		p.detach = p.identity.OnIdentityChange(p.onBackendChange)
	}
	p.mu.Unlock()

	restored, err := p.identity.CurrentIdentity(ctx)
	if err != nil {
		p.logger.Warn("session restore failed", zap.Error(err))
		p.apply(Anonymous, domain.Identity{})
		return domain.Unavailable("could not restore session", err)
	}
	if restored == nil {
		p.apply(Anonymous, domain.Identity{})
		return nil
	}
	p.apply(Authenticated, *restored)
	return nil
}

// Close stops listening to the backend. Observers stay registered.
func (p *Provider) Close() {
	p.mu.Lock()
	detach := p.detach
	p.detach = nil
	p.mu.Unlock()
	if detach != nil {
		detach()
	}
}

func (p *Provider) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return domain.NewError(domain.ErrCodeInvalid, "email and password are required")
	}
	identity, err := p.identity.Authenticate(ctx, email, password)
	if err != nil {
		return domain.Unavailable("could not sign in", err)
	}
	p.apply(Authenticated, identity)
	return nil
}

func (p *Provider) Register(ctx context.Context, name, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return domain.NewError(domain.ErrCodeInvalid, "email and password are required")
	}
	identity, err := p.identity.CreateIdentity(ctx, email, password, strings.TrimSpace(name))
	if err != nil {
		return domain.Unavailable("could not register", err)
	}
	p.apply(Authenticated, identity)
	return nil
}

// Logout becomes Anonymous only once the backend confirms sign-out.
func (p *Provider) Logout(ctx context.Context) error {
	if err := p.identity.SignOut(ctx); err != nil {
		return domain.Unavailable("could not sign out", err)
	}
	p.apply(Anonymous, domain.Identity{})
	return nil
}

// Subscribe registers fn and returns a function that removes it.
func (p *Provider) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.observers = append(p.observers, subscription{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, s := range p.observers {
				if s.id == id {
					p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
					return
				}
			}
		})
	}
}

func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Loading reports whether the startup resolution is still pending.
func (p *Provider) Loading() bool {
	return p.State() == Resolving
}

// Identity returns the signed-in identity, if any.
func (p *Provider) Identity() (domain.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Authenticated {
		return domain.Identity{}, false
	}
	return p.current, true
}

func (p *Provider) ActiveIdentity(ctx context.Context) (domain.Identity, bool) {
	return p.Identity()
}

func (p *Provider) onBackendChange(identity *domain.Identity) {
	if identity == nil || identity.IsZero() {
		p.apply(Anonymous, domain.Identity{})
		return
	}
	p.apply(Authenticated, *identity)
}

// apply records the transition and notifies observers outside the lock.
// Repeating the current state is not a change.
func (p *Provider) apply(state State, identity domain.Identity) {
	p.mu.Lock()
	if p.state == state && p.current == identity {
		p.mu.Unlock()
		return
	}
	p.state = state
	p.current = identity
	snapshot := Snapshot{State: state, Identity: identity}
	observers := make([]subscription, len(p.observers))
	copy(observers, p.observers)
	p.mu.Unlock()

	p.logger.Debug("session state changed", zap.Stringer("state", state), zap.String("user_id", identity.UserID))
	for _, s := range observers {
		s.fn(snapshot)
	}
}
