package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Inspector reads claims from compact tokens without verifying signatures.
// Verification belongs to the backend that issued the token; the inspector
// only answers questions about what the token says.
//
// Every method is total: malformed input yields a zero value, never an error.
type Inspector struct {
	now func() time.Time
}

// NewInspector creates an inspector using the given clock.
// A nil clock means time.Now.
func NewInspector(now func() time.Time) *Inspector {
	if now == nil {
		now = time.Now
	}
	return &Inspector{now: now}
}

var defaultInspector = NewInspector(nil)

// payload mirrors Claims but keeps exp optional so a missing expiry can be
// told apart from a zero one
type payload struct {
	Subject   string `json:"sub"`
	UserID    string `json:"userId"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt *int64 `json:"exp"`
}

var urlAlphabet = strings.NewReplacer("-", "+", "_", "/")

// decodeSegment turns a base64url segment (padded or not) into bytes
func decodeSegment(seg string) ([]byte, error) {
	seg = urlAlphabet.Replace(seg)
	if rem := len(seg) % 4; rem != 0 {
		seg += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(seg)
}

// Parse decodes the payload segment of a token
func (i *Inspector) Parse(tokenString string) (*Claims, bool) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, false
	}

	raw, err := decodeSegment(parts[1])
	if err != nil {
		return nil, false
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}

	if p.ExpiresAt == nil {
		return nil, false
	}

	return &Claims{
		Subject:   p.Subject,
		UserID:    p.UserID,
		Role:      p.Role,
		IssuedAt:  p.IssuedAt,
		ExpiresAt: *p.ExpiresAt,
	}, true
}

func (i *Inspector) nowSeconds() int64 {
	return i.now().Unix()
}

// IsExpired reports whether the token is unreadable or past its expiry.
// A token expiring in the current second is not yet expired.
func (i *Inspector) IsExpired(tokenString string) bool {
	claims, ok := i.Parse(tokenString)
	if !ok {
		return true
	}
	return claims.ExpiresAt < i.nowSeconds()
}

// IsValid reports whether the token is well-formed and not expired
func (i *Inspector) IsValid(tokenString string) bool {
	claims, ok := i.Parse(tokenString)
	if !ok || !claims.WellFormed() {
		return false
	}
	return claims.ExpiresAt >= i.nowSeconds()
}

// ExtractUserID returns the userId claim
func (i *Inspector) ExtractUserID(tokenString string) (string, bool) {
	claims, ok := i.Parse(tokenString)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}

// ExtractSubject returns the sub claim (the user's email)
func (i *Inspector) ExtractSubject(tokenString string) (string, bool) {
	claims, ok := i.Parse(tokenString)
	if !ok {
		return "", false
	}
	return claims.Subject, true
}

// ExtractRole returns the role claim
func (i *Inspector) ExtractRole(tokenString string) (Role, bool) {
	claims, ok := i.Parse(tokenString)
	if !ok {
		return "", false
	}
	return claims.Role, true
}

// SecondsUntilExpiry returns the remaining lifetime in seconds, never negative
func (i *Inspector) SecondsUntilExpiry(tokenString string) int64 {
	claims, ok := i.Parse(tokenString)
	if !ok {
		return 0
	}
	remaining := claims.ExpiresAt - i.nowSeconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WillExpireWithin reports whether the token expires within the given minutes
func (i *Inspector) WillExpireWithin(tokenString string, minutes int) bool {
	return i.SecondsUntilExpiry(tokenString) <= int64(minutes)*60
}

// Parse decodes a token's claims using the wall clock inspector
func Parse(tokenString string) (*Claims, bool) {
	return defaultInspector.Parse(tokenString)
}

// IsExpired see Inspector.IsExpired
func IsExpired(tokenString string) bool {
	return defaultInspector.IsExpired(tokenString)
}

// IsValid see Inspector.IsValid
func IsValid(tokenString string) bool {
	return defaultInspector.IsValid(tokenString)
}

// ExtractUserID see Inspector.ExtractUserID
func ExtractUserID(tokenString string) (string, bool) {
	return defaultInspector.ExtractUserID(tokenString)
}

// ExtractSubject see Inspector.ExtractSubject
func ExtractSubject(tokenString string) (string, bool) {
	return defaultInspector.ExtractSubject(tokenString)
}

// ExtractRole see Inspector.ExtractRole
func ExtractRole(tokenString string) (Role, bool) {
	return defaultInspector.ExtractRole(tokenString)
}

// SecondsUntilExpiry see Inspector.SecondsUntilExpiry
func SecondsUntilExpiry(tokenString string) int64 {
	return defaultInspector.SecondsUntilExpiry(tokenString)
}

// WillExpireWithin see Inspector.WillExpireWithin
func WillExpireWithin(tokenString string, minutes int) bool {
	return defaultInspector.WillExpireWithin(tokenString, minutes)
}
