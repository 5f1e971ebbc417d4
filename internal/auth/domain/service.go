package domain

import (
	"context"
	"time"

	customerdomain "github.com/smallbiznis/maidbook/internal/customer/domain"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type Me struct {
	User     User                     `json:"user"`
	Customer *customerdomain.Customer `json:"customer,omitempty"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (Token, error)
	Login(ctx context.Context, req LoginRequest) (Token, error)
	Authenticate(ctx context.Context, token string) (Identity, error)
	Me(ctx context.Context, userID string) (Me, error)
	// EnsureAdmin creates the admin account or promotes an existing user.
	EnsureAdmin(ctx context.Context, email, password, name string) (User, error)
}
