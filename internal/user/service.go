package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/redmonkez12/go-user-api/internal/logging"
	"github.com/redmonkez12/go-user-api/internal/password"
)

var ErrInvalidCredentials = errors.New("incorrect email or password")

// Store is the persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, email, hashedPassword string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, skip, limit int) ([]*User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id int64, c Changes) (*User, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles user business logic
type Service struct {
	store  Store
	hasher password.Hasher
	logger *logging.Logger
}

func NewService(store Store, hasher password.Hasher, logger *logging.Logger) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		logger: logger,
	}
}

// HashPassword returns the stored form of a plaintext password
func (s *Service) HashPassword(plain string) (string, error) {
	return s.hasher.Hash(plain)
}

// VerifyPassword reports whether plain matches hashed
func (s *Service) VerifyPassword(plain, hashed string) bool {
	return s.hasher.Verify(plain, hashed)
}

// Authenticate returns the user owning email if plain is its password.
// The activity flag is not consulted here.
func (s *Service) Authenticate(ctx context.Context, email, plain string) (*User, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.VerifyPassword(plain, u.HashedPassword) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Create registers a new user. A taken email yields ErrDuplicateEmail whether
// it is caught up front or by the store's unique index.
func (s *Service) Create(ctx context.Context, email, plain string) (*User, error) {
	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := s.HashPassword(plain)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.store.Create(ctx, email, hashed)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Debug("user created", "user_id", u.ID)
	return u, nil
}

// Update applies a partial update. A new password is hashed before it is
// stored; an email already owned by a different user yields ErrDuplicateEmail.
func (s *Service) Update(ctx context.Context, id int64, upd Update) (*User, error) {
	if upd.Email != nil {
		existing, err := s.store.GetByEmail(ctx, *upd.Email)
		switch {
		case err == nil && existing.ID != id:
			return nil, ErrDuplicateEmail
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
	}

	changes := Changes{
		Email:    upd.Email,
		IsActive: upd.IsActive,
	}

	if upd.Password != nil {
		hashed, err := s.HashPassword(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		changes.HashedPassword = &hashed
	}

	u, err := s.store.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return u, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context, skip, limit int) ([]*User, error) {
	return s.store.List(ctx, skip, limit)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
