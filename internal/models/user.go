package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the token payload minted by the upstream backend's auth service.
// This service only verifies it; it never issues tokens.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
