package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func memberClaims(userID string, admin bool) Claims {
	return Claims{
		Email:       userID + "@example.com",
		DisplayName: "Test User",
		IsAdmin:     admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func authRouter(secret string, adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	group := router.Group("/", Auth(secret))
	if adminOnly {
		group.Use(AdminRequired())
	}
	group.GET("/whoami", func(c *gin.Context) {
		identity, _ := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID, "is_admin": identity.IsAdmin})
	})
	return router
}

func doRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthAcceptsValidToken(t *testing.T) {
	router := authRouter(testSecret, false)
	token := signToken(t, testSecret, memberClaims("alice", false))

	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"alice"`)
}

func TestAuthRejectsMissingHeader(t *testing.T) {
	router := authRouter(testSecret, false)
	w := doRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsNonBearerHeader(t *testing.T) {
	router := authRouter(testSecret, false)
	w := doRequest(router, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsWrongSignature(t *testing.T) {
	router := authRouter(testSecret, false)
	token := signToken(t, "some-other-secret", memberClaims("alice", false))

	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	router := authRouter(testSecret, false)
	claims := memberClaims("alice", false)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token := signToken(t, testSecret, claims)

	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsMissingSubject(t *testing.T) {
	router := authRouter(testSecret, false)
	claims := memberClaims("", false)
	token := signToken(t, testSecret, claims)

	w := doRequest(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRequired(t *testing.T) {
	router := authRouter(testSecret, true)

	member := signToken(t, testSecret, memberClaims("alice", false))
	w := doRequest(router, "Bearer "+member)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := signToken(t, testSecret, memberClaims("root", true))
	w = doRequest(router, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_admin":true`)
}
