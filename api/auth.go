package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/rustyeddy/tradebridge/ledger"
)

const userKey = "api.user"

// authRequired verifies the Bearer token and resolves the principal. Token
// issuance lives with the identity service; this side only verifies HS256
// signatures and expiry, then maps the subject claim to a ledger user.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := s.subjectFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    "unauthorized",
				Message: "could not validate credentials",
			})
			return
		}

		user, err := s.store.UserByEmail(c.Request.Context(), email)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    "unauthorized",
				Message: "could not validate credentials",
			})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func (s *Server) subjectFromHeader(header string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", fmt.Errorf("missing bearer token")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

func currentUser(c *gin.Context) ledger.User {
	u, _ := c.Get(userKey)
	user, _ := u.(ledger.User)
	return user
}
