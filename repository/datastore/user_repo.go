package datastore

import (
	"context"
	"errors"
	"time"

	gds "cloud.google.com/go/datastore"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type userDoc struct {
	Name         string    `datastore:"name"`
	Email        string    `datastore:"email"`
	Role         string    `datastore:"role"`
	PasswordHash []byte    `datastore:"passwordHash,noindex"`
	CreatedAt    time.Time `datastore:"createdAt"`
	UpdatedAt    time.Time `datastore:"updatedAt"`
}

// emailDoc reserves an email address for exactly one user id.
type emailDoc struct {
	UserID string `datastore:"userId"`
}

type userRepository struct {
	client *gds.Client
}

// NewUserRepository returns a Datastore-backed user repository.
func NewUserRepository(client *gds.Client) repository.UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var doc userDoc
	if err := r.client.Get(ctx, gds.NameKey(KindUser, id, nil), &doc); err != nil {
		if errors.Is(err, gds.ErrNoSuchEntity) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toDomain(id), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var ref emailDoc
	if err := r.client.Get(ctx, gds.NameKey(KindUserEmail, domain.NormalizeEmail(email), nil), &ref); err != nil {
		if errors.Is(err, gds.ErrNoSuchEntity) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, ref.UserID)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	user.Email = domain.NormalizeEmail(user.Email)
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.client.RunInTransaction(ctx, func(tx *gds.Transaction) error {
		emailKey := gds.NameKey(KindUserEmail, user.Email, nil)
		var existing emailDoc
		err := tx.Get(emailKey, &existing)
		switch {
		case err == nil:
			return domain.ErrEmailInUse
		case !errors.Is(err, gds.ErrNoSuchEntity):
			return err
		}
		if _, err := tx.Put(emailKey, &emailDoc{UserID: user.ID}); err != nil {
			return err
		}
		_, err = tx.Put(gds.NameKey(KindUser, user.ID, nil), fromUser(user))
		return err
	})
	return err
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return domain.ErrInvalidPayload
	}
	user.Email = domain.NormalizeEmail(user.Email)

	_, err := r.client.RunInTransaction(ctx, func(tx *gds.Transaction) error {
		key := gds.NameKey(KindUser, user.ID, nil)
		var prev userDoc
		err := tx.Get(key, &prev)
		switch {
		case err == nil:
			if user.CreatedAt.IsZero() {
				user.CreatedAt = prev.CreatedAt
			}
			if len(user.PasswordHash) == 0 {
				user.PasswordHash = prev.PasswordHash
			}
			if prev.Email != user.Email {
				if err := tx.Delete(gds.NameKey(KindUserEmail, prev.Email, nil)); err != nil {
					return err
				}
			}
		case !errors.Is(err, gds.ErrNoSuchEntity):
			return err
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now().UTC()
		}
		user.UpdatedAt = time.Now().UTC()
		if _, err := tx.Put(gds.NameKey(KindUserEmail, user.Email, nil), &emailDoc{UserID: user.ID}); err != nil {
			return err
		}
		_, err = tx.Put(key, fromUser(user))
		return err
	})
	return err
}

func fromUser(u *domain.User) *userDoc {
	return &userDoc{
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d *userDoc) toDomain(id string) *domain.User {
	return &domain.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		Role:         d.Role,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}
