package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the principal's role as issued by the backend
type Role string

// Role constants
const (
	RoleOwner  Role = "OWNER"
	RoleTenant Role = "TENANT"
)

// Claims represents the payload of a backend-issued session token.
// Claim names are fixed by the issuer.
type Claims struct {
	Subject   string `json:"sub"` // email
	UserID    string `json:"userId"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat,omitempty"`
	ExpiresAt int64  `json:"exp"`
}

// WellFormed reports whether all required claims are present
func (c Claims) WellFormed() bool {
	return c.Subject != "" && c.UserID != "" && c.Role != ""
}

// ExpiresAtTime returns the expiry as a time.Time
func (c Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// The methods below let Claims be used with jwt.NewWithClaims so Go callers
// can mint tokens carrying the same claim names.

// GetExpirationTime implements jwt.Claims
func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

// GetIssuedAt implements jwt.Claims
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.IssuedAt == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

// GetNotBefore implements jwt.Claims
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetIssuer implements jwt.Claims
func (c Claims) GetIssuer() (string, error) {
	return "", nil
}

// GetSubject implements jwt.Claims
func (c Claims) GetSubject() (string, error) {
	return c.Subject, nil
}

// GetAudience implements jwt.Claims
func (c Claims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}
