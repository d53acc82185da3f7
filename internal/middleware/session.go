package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ChatSync/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const sessionKey = "session"

var ErrInvalidToken = errors.New("invalid session token")

// Session authenticates requests with a bearer token minted by the external
// authentication provider and threads the resulting identity through the
// request context. Claims: "email" (required) and "name".
func Session(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		session, err := ParseSessionToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// ParseSessionToken validates an HS256 token and extracts the session
// identity. Shared by the HTTP middleware and the websocket endpoint, which
// carries the token as a query parameter.
func ParseSessionToken(tokenString, secret string) (model.Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return model.Session{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Session{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if email == "" {
		return model.Session{}, ErrInvalidToken
	}

	return model.Session{Email: email, Name: name}, nil
}

// SessionFrom returns the session set by the Session middleware.
func SessionFrom(c *gin.Context) model.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(model.Session); ok {
			return s
		}
	}
	return model.Session{}
}
