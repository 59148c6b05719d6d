package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-user-api/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository handles user data persistence
type Repository struct {
	db  bun.IDB
	now func() time.Time
}

func NewRepository(db bun.IDB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// conn prefers the request-scoped connection over the pool
func (r *Repository) conn(ctx context.Context) bun.IDB {
	return database.IDB(ctx, r.db)
}

// Create inserts a new active user
func (r *Repository) Create(ctx context.Context, email, hashedPassword string) (*User, error) {
	dbUser := &database.User{
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		CreatedAt:      r.now().UTC(),
	}

	_, err := r.conn(ctx).NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	dbUser := new(database.User)
	err := r.conn(ctx).NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by exact email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.conn(ctx).NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// List returns up to limit users after skipping skip, in id order
func (r *Repository) List(ctx context.Context, skip, limit int) ([]*User, error) {
	var dbUsers []database.User
	err := r.conn(ctx).NewSelect().
		Model(&dbUsers).
		OrderExpr("id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*User, 0, len(dbUsers))
	for i := range dbUsers {
		users = append(users, mapDBUserToModel(&dbUsers[i]))
	}
	return users, nil
}

// Count returns the number of stored users
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.conn(ctx).NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

// Update applies the non-nil fields of c and refreshes updated_at.
// An empty Changes still touches updated_at.
func (r *Repository) Update(ctx context.Context, id int64, c Changes) (*User, error) {
	dbUser := &database.User{ID: id}

	q := r.conn(ctx).NewUpdate().
		Model(dbUser).
		Set("updated_at = ?", r.now().UTC())

	if c.Email != nil {
		q = q.Set("email = ?", *c.Email)
	}
	if c.HashedPassword != nil {
		q = q.Set("hashed_password = ?", *c.HashedPassword)
	}
	if c.IsActive != nil {
		q = q.Set("is_active = ?", *c.IsActive)
	}

	result, err := q.WherePK().Returning("*").Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// Delete removes a user; ErrNotFound if no row existed
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.conn(ctx).NewDelete().
		Model((*database.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:             dbu.ID,
		Email:          dbu.Email,
		HashedPassword: dbu.HashedPassword,
		IsActive:       dbu.IsActive,
		CreatedAt:      dbu.CreatedAt,
		UpdatedAt:      dbu.UpdatedAt,
	}
}
