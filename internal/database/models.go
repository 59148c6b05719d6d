package database

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the row layout of the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int64      `bun:"id,pk,autoincrement"`
	Email          string     `bun:"email,notnull,unique"`
	HashedPassword string     `bun:"hashed_password,notnull"`
	IsActive       bool       `bun:"is_active,notnull"`
	CreatedAt      time.Time  `bun:"created_at,notnull"`
	UpdatedAt      *time.Time `bun:"updated_at"`
}
