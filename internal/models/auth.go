package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest creates a teacher or student account.
type RegisterRequest struct {
	Name               string   `json:"name" validate:"required"`
	Email              string   `json:"email" validate:"required,email"`
	Password           string   `json:"password" validate:"required,min=6"`
	Role               UserRole `json:"role" validate:"required,oneof=teacher student"`
	InstitutionName    *string  `json:"institutionName,omitempty"`
	InstitutionAddress *string  `json:"institutionAddress,omitempty"`
	TeacherID          *string  `json:"teacherId,omitempty"`
	RollNumber         *string  `json:"rollNumber,omitempty"`
}

// RegisterResponse echoes the new account id.
type RegisterResponse struct {
	UserID string `json:"userId"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResult carries the signed session token alongside the user summary.
type LoginResult struct {
	Token   string
	Session *Session
	User    UserSummary
}

// UserSummary describes the authenticated user in responses.
type UserSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          UserRole `json:"role"`
	InstitutionID *string  `json:"institutionId,omitempty"`
	RollNumber    *string  `json:"rollNumber,omitempty"`
}

// SessionClaims is the payload of the signed session cookie. The registered
// ID claim carries the server-side session id.
type SessionClaims struct {
	UserID string   `json:"uid"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}
