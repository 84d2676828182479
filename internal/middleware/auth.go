// Package middleware provides request authentication for the API. Identity
// lives in an external provider; requests carry a signed bearer token whose
// claims identify the group member.
package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gravadigital/movienight-api/internal/response"
)

const identityKey = "identity"

// Identity is the authenticated group member extracted from the token.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	IsAdmin     bool
}

// Claims is the expected token payload.
type Claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token and stores the caller's identity in the
// request context. Requests without a valid token are rejected.
func Auth(secret string) gin.HandlerFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.UnauthorizedError(c, "missing authorization header")
			c.Abort()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			response.UnauthorizedError(c, "authorization header must be a bearer token")
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, keyFunc)
		if err != nil || !token.Valid {
			response.UnauthorizedError(c, "invalid or expired token")
			c.Abort()
			return
		}

		if claims.Subject == "" {
			response.UnauthorizedError(c, "token has no subject")
			c.Abort()
			return
		}

		c.Set(identityKey, Identity{
			UserID:      claims.Subject,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			IsAdmin:     claims.IsAdmin,
		})
		c.Next()
	}
}

// AdminRequired rejects callers whose token does not carry the admin flag.
// It must run after Auth.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			response.UnauthorizedError(c, "authentication required")
			c.Abort()
			return
		}
		if !identity.IsAdmin {
			response.ForbiddenError(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetIdentity stores an identity directly on the context, bypassing token
// verification. Handler tests use it in place of Auth.
func SetIdentity(c *gin.Context, identity Identity) {
	c.Set(identityKey, identity)
}

// GetIdentity returns the authenticated caller stored by Auth.
func GetIdentity(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}
