package user

import (
	"time"
)

type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"` // Never expose password hash in JSON
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"` // nil until the first update
}

// Changes is a partial update at the storage level. Nil fields are left untouched.
type Changes struct {
	Email          *string
	HashedPassword *string
	IsActive       *bool
}

// Update is a partial update as requested by a caller; Password is plaintext
// and never reaches the store.
type Update struct {
	Email    *string
	Password *string
	IsActive *bool
}
