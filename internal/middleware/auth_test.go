package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims, secret []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestParseToken(t *testing.T) {
	id := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	identity, err := ParseToken(signToken(t, jwt.MapClaims{"sub": id.String(), "role": "supervisor", "exp": exp}, testSecret), testSecret)
	require.NoError(t, err)
	assert.Equal(t, id, identity.UserID)
	assert.Equal(t, "supervisor", identity.Role)

	tests := []struct {
		name   string
		claims jwt.MapClaims
		secret []byte
	}{
		{"wrong secret", jwt.MapClaims{"sub": id.String(), "role": "employee", "exp": exp}, []byte("other")},
		{"expired", jwt.MapClaims{"sub": id.String(), "role": "employee", "exp": time.Now().Add(-time.Minute).Unix()}, testSecret},
		{"missing role", jwt.MapClaims{"sub": id.String(), "exp": exp}, testSecret},
		{"bad subject", jwt.MapClaims{"sub": "42", "role": "employee", "exp": exp}, testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(signToken(t, tt.claims, tt.secret), testSecret)
			assert.Error(t, err)
		})
	}
}

func TestGuard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard := NewGuard(string(testSecret))
	id := uuid.New()

	router := gin.New()
	router.GET("/any", guard.Any(), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, user.String())
	})
	router.GET("/admin", guard.Roles("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	token := signToken(t, jwt.MapClaims{"sub": id.String(), "role": "employee", "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	do := func(path string, setup func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if setup != nil {
			setup(req)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do("/any", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())

	w = do("/any", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: token}) })
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusUnauthorized, do("/any", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do("/any", func(r *http.Request) { r.Header.Set("Authorization", "Token "+token) }).Code)
	assert.Equal(t, http.StatusForbidden, do("/admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }).Code)
}
