package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/config"
)

// ErrMissingToken is returned when a request carries no bearer token
var ErrMissingToken = errors.New("missing bearer token")

// Authenticator issues and verifies HS256 access tokens whose subject is a user id
type Authenticator struct {
	secret []byte
}

// NewAuthenticator returns an authenticator signing with secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// SignToken returns an access token for the user valid for ttl
func (a *Authenticator) SignToken(userID primitive.ObjectID, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret is not set")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.Hex(),
		"typ": "access",
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses the token and returns the user id in its subject
func (a *Authenticator) Verify(tokenString string) (primitive.ObjectID, error) {
	if len(a.secret) == 0 {
		return primitive.NilObjectID, errors.New("jwt secret is not set")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return primitive.NilObjectID, err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(sub)
}

func (a *Authenticator) fromRequest(r *http.Request) (primitive.ObjectID, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return primitive.NilObjectID, ErrMissingToken
	}
	return a.Verify(strings.TrimSpace(token))
}

// Middleware rejects requests without a valid bearer token
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.fromRequest(r)
		if err != nil {
			zap.S().Debugw("unauthorized",
				"url", r.URL.String(),
				"error", err)
			config.ErrorStatus("unauthorized", http.StatusUnauthorized, w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// Optional attaches the user id when a valid token is present and passes every request
// through.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := a.fromRequest(r); err == nil {
			r = r.WithContext(WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
