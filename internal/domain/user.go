package domain

import "time"

// Role describes what a user may do on the platform
type Role string

const (
	RoleAuthor Role = "AUTHOR"
	RoleReader Role = "READER"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAuthor || r == RoleReader
}

// User represents a registered account
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// AuthClaims holds the validated identity extracted from a JWT
type AuthClaims struct {
	UserID string `json:"sub"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// SignupRequest represents a registration request
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and public user info
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}
