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

	"github.com/noah-isme/timetable-api/internal/models"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, userID string, method jwt.SigningMethod, secret string) string {
	t.Helper()
	claims := &models.AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runMiddleware(t *testing.T, handler gin.HandlerFunc, authorization string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/organizations", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	c.Request = req
	handler(c)
	return w, c
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	w, c := runMiddleware(t, JWT(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token := signedToken(t, "user-1", jwt.SigningMethodHS256, "other-secret")
	w, c := runMiddleware(t, JWT(testSecret), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestJWTAttachesClaims(t *testing.T) {
	token := signedToken(t, "user-1", jwt.SigningMethodHS256, testSecret)
	_, c := runMiddleware(t, JWT(testSecret), "Bearer "+token)
	require.False(t, c.IsAborted())

	value, ok := c.Get(ContextUserKey)
	require.True(t, ok)
	claims, ok := value.(*models.AccessClaims)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestOptionalJWTPassesWithoutToken(t *testing.T) {
	_, c := runMiddleware(t, OptionalJWT(testSecret), "")
	assert.False(t, c.IsAborted())
	_, ok := c.Get(ContextUserKey)
	assert.False(t, ok)
}

func TestOptionalJWTAttachesValidClaims(t *testing.T) {
	token := signedToken(t, "user-2", jwt.SigningMethodHS256, testSecret)
	_, c := runMiddleware(t, OptionalJWT(testSecret), "Bearer "+token)
	require.False(t, c.IsAborted())

	value, ok := c.Get(ContextUserKey)
	require.True(t, ok)
	claims := value.(*models.AccessClaims)
	assert.Equal(t, "user-2", claims.UserID)
}

func TestOptionalJWTIgnoresInvalidToken(t *testing.T) {
	token := signedToken(t, "user-2", jwt.SigningMethodHS256, "other-secret")
	_, c := runMiddleware(t, OptionalJWT(testSecret), "Bearer "+token)
	assert.False(t, c.IsAborted())
	_, ok := c.Get(ContextUserKey)
	assert.False(t, ok)
}
