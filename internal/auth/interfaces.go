package auth

import (
	"context"
	"time"

	"github.com/redmonkez12/go-user-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
type TokenService interface {
	CreateToken(userID int64, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// Users is the part of the user service that authentication needs.
type Users interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}
