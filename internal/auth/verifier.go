// Package auth verifies tenant session tokens and extracts the identity
// claims a WebSocket connection is scoped by.
package auth

import (
	"errors"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken indicates the handshake carried no token at all.
	ErrMissingToken = errors.New("auth: missing token")
	// ErrInvalidToken indicates a token that failed signature or expiry checks.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrMissingClaims indicates a valid token without tenantId or subject.
	ErrMissingClaims = errors.New("auth: token missing required claims")
)

// SessionClaims are the identity attributes derived from a verified token.
// They are attached to a connection for its entire lifetime and never
// persisted.
type SessionClaims struct {
	TenantID    string
	EmployeeID  string
	DisplayName string
	Email       string
}

// Verifier validates HMAC-signed session tokens against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify validates the raw token and returns its session claims. It fails
// when the token is absent, unsigned by the shared secret, expired, or
// missing the tenantId/sub claims. Optional name and email claims default
// to the empty string.
func (v *Verifier) Verify(rawToken string) (*SessionClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrMissingToken
	}

	token, err := jwtlib.Parse(rawToken, func(*jwtlib.Token) (any, error) {
		return v.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	tenantID, _ := claims["tenantId"].(string)
	employeeID, _ := claims["sub"].(string)
	if tenantID == "" || employeeID == "" {
		return nil, ErrMissingClaims
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return &SessionClaims{
		TenantID:    tenantID,
		EmployeeID:  employeeID,
		DisplayName: name,
		Email:       email,
	}, nil
}
