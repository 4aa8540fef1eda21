package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"drafthub/internal/response"
	"drafthub/internal/session"
	"drafthub/pkg/apperr"
	"drafthub/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Auth validates the Supabase access token and puts the caller's identity on
// the request context. Browsers cannot set headers on a WebSocket handshake,
// so a token query parameter is accepted as well as a bearer header.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if tokenString == "" {
				response.Error(w, r, apperr.New(apperr.KindNotAuthenticated, "auth", "no token provided"))
				return
			}

			id, err := ParseToken(tokenString, secret)
			if err != nil {
				logger.Sugar.Infof("Rejected token for %s %s: %v", r.Method, r.URL.Path, err)
				response.Error(w, r, apperr.Auth("auth", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), id)))
		})
	}
}

// ParseToken checks an HMAC-signed token and returns the identity it names.
// The user id is the sub claim.
func ParseToken(tokenString string, secret []byte) (*session.Identity, error) {
	if len(secret) == 0 {
		return nil, errors.New("server is not configured to validate tokens")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("could not parse token claims")
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, errors.New("user id (sub) claim is missing or invalid")
	}

	id := &session.Identity{UserID: userID, AccessToken: tokenString}
	id.Email, _ = claims["email"].(string)
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		id.DisplayName, _ = meta["name"].(string)
	}
	return id, nil
}
