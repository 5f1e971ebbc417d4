package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCustomer:
		return RoleCustomer, nil
	default:
		return "", ErrInvalidRole
	}
}

type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	Role         Role         `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	FirstName    string       `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string       `gorm:"type:varchar(100)" json:"last_name"`
	Phone        string       `gorm:"type:varchar(32)" json:"phone,omitempty"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Identity is the verified caller attached to a request.
type Identity struct {
	UserID snowflake.ID
	Email  string
	Role   Role
}

// Subject is the casbin subject for the identity.
func (i Identity) Subject() string {
	return "user:" + i.UserID.String()
}

// Claims is the payload of issued access tokens.
type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}
