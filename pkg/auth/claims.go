package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/backoffice-backend/pkg/enums"
)

// AccessTokenPayload is what the login flow knows about the user being signed in.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	Name   string
	Email  string
	JTI    string
}

// AccessTokenClaims is the JWT body. The jti doubles as the session id.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	Name   string         `json:"name,omitempty"`
	Email  string         `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claim checks on ParseAccessToken.
func (c AccessTokenClaims) Validate() error {
	if c.UserID == uuid.Nil || c.Subject != c.UserID.String() {
		return errors.New("token subject does not match user")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("token carries unknown role %q", c.Role)
	}
	if c.ID == "" {
		return errors.New("token has no session id")
	}
	return nil
}
