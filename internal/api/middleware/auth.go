package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/velomart/cart-service/internal/errors"
	"github.com/velomart/cart-service/internal/models"
	"github.com/velomart/cart-service/internal/utils/response"
)

type authContextKey string

const (
	claimsKey = authContextKey("claims")
	tokenKey  = authContextKey("bearer")
)

type AuthMiddleware struct {
	jwtKey []byte
}

func NewAuthMiddleware(jwtKey []byte) *AuthMiddleware {
	return &AuthMiddleware{jwtKey: jwtKey}
}

// Optional verifies a bearer token when one is supplied and otherwise lets
// the request through anonymously. Guest carts need no identity; an
// authenticated shopper's token is kept so checkout can forward it upstream.
func (m *AuthMiddleware) Optional(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if authHeader == "" {
			next.ServeHTTP(w, r)

			return
		}

		logger := LoggerFromContext(r.Context())

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			logger.Warn("Invalid authorization header format")
			response.Error(w, errors.UnauthorizedError("Invalid authorization format"))

			return
		}

		tokenString := tokenParts[1]

		// No key configured: trust the upstream to verify, just carry the
		// token along.
		if len(m.jwtKey) == 0 {
			ctx := context.WithValue(r.Context(), tokenKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))

			return
		}

		claims := &models.Claims{}

		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.UnauthorizedError("unexpected signing method")
			}

			return m.jwtKey, nil
		})
		if err != nil {
			logger.Warn("JWT parsing failed", slog.String("error", err.Error()))
			response.Error(w, errors.UnauthorizedError("Invalid or expired token"))

			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		ctx = context.WithValue(ctx, tokenKey, tokenString)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// ClaimsFromContext returns the verified claims, if any.
func ClaimsFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*models.Claims)

	return claims, ok
}

// BearerFromContext returns the raw bearer token carried by the request.
func BearerFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey).(string); ok {
		return token
	}

	return ""
}
