package models

import "github.com/golang-jwt/jwt/v5"

// AccessClaims is the payload of externally issued bearer tokens. The API
// only validates tokens; it never mints them.
type AccessClaims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id"`
	Email          string `json:"email"`
	jwt.RegisteredClaims
}
