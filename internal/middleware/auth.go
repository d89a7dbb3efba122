package middleware

import (
	"errors"
	"net/http"
	"strings"

	"dailyreport/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// Identity is the caller resolved from a verified token.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

// ParseToken verifies an HMAC-signed JWT and extracts the identity claims.
func ParseToken(tokenString string, secret []byte) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("invalid subject claim")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return nil, errors.New("role not found in token")
	}
	return &Identity{UserID: id, Role: role}, nil
}

// tokenFromRequest tries the access_token cookie first, then the Authorization header.
func tokenFromRequest(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

// RequireAuth validates the JWT and stores the caller in the gin context.
// With roles given, the caller's role must be one of them.
func RequireAuth(secret []byte, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, problem))
			return
		}

		identity, err := ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if identity.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
				return
			}
		}

		c.Set(ctxUserID, identity.UserID)
		c.Set(ctxUserRole, identity.Role)
		c.Next()
	}
}

// CurrentUser returns the caller stored by RequireAuth.
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// SetTokenCookie stores the access token as an HttpOnly cookie.
func SetTokenCookie(c *gin.Context, token string, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", token, 3600*24, "/", "", secure, true)
}

// ClearTokenCookie removes the access token cookie.
func ClearTokenCookie(c *gin.Context, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

// Guard builds auth middleware bound to one signing secret.
type Guard struct {
	secret []byte
}

func NewGuard(secret string) Guard {
	return Guard{secret: []byte(secret)}
}

// Secret exposes the signing key for token checks outside gin middleware.
func (g Guard) Secret() []byte {
	return g.secret
}

// Any accepts every authenticated caller.
func (g Guard) Any() gin.HandlerFunc {
	return RequireAuth(g.secret)
}

// Roles accepts callers whose role is listed.
func (g Guard) Roles(roles ...string) gin.HandlerFunc {
	return RequireAuth(g.secret, roles...)
}
