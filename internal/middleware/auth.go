package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenClaims is the validated content of a token.
type TokenClaims struct {
	UserID    uuid.UUID
	Type      string
	ID        string
	ExpiresAt time.Time
}

type JWTAuth struct {
	Secret       []byte
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	AccessCookie string
	now          func() time.Time
}

func NewJWTAuth(secret string, accessTTL, refreshTTL time.Duration, accessCookie string) *JWTAuth {
	return &JWTAuth{
		Secret:       []byte(secret),
		AccessTTL:    accessTTL,
		RefreshTTL:   refreshTTL,
		AccessCookie: accessCookie,
		now:          time.Now,
	}
}

// SetClock replaces the time source used for issuing and validating tokens.
func (j *JWTAuth) SetClock(now func() time.Time) {
	j.now = now
}

func (j *JWTAuth) Now() time.Time {
	return j.now()
}

// Issue signs a token of the given type for userID.
func (j *JWTAuth) Issue(userID uuid.UUID, tokenType string) (string, TokenClaims, error) {
	ttl := j.AccessTTL
	if tokenType == TokenTypeRefresh {
		ttl = j.RefreshTTL
	}
	now := j.now()
	tc := TokenClaims{
		UserID:    userID,
		Type:      tokenType,
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(ttl).Truncate(time.Second),
	}

	claims := jwt.MapClaims{
		"user_id":    userID.String(),
		"token_type": tokenType,
		"jti":        tc.ID,
		"exp":        tc.ExpiresAt.Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.Secret)
	if err != nil {
		return "", TokenClaims{}, fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, tc, nil
}

// Parse verifies tokenStr and requires its token_type to equal wantType.
func (j *JWTAuth) Parse(tokenStr, wantType string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if tt, _ := claims["token_type"].(string); tt != wantType {
		return nil, ErrInvalidToken
	}

	userIDStr, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || jti == "" {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{UserID: userID, Type: wantType, ID: jti, ExpiresAt: exp.Time}, nil
}

// Middleware validates the access token from the Authorization header, or
// from the access cookie when no header is sent, and attaches user_id to
// the context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := j.tokenFromRequest(w, r)
		if !ok {
			return
		}

		claims, err := j.Parse(tokenStr, TokenTypeAccess)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", r)
			}
			return
		}

		ctx := WithUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (j *JWTAuth) tokenFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization format", r)
			return "", false
		}
		return parts[1], true
	}

	if c, err := r.Cookie(j.AccessCookie); err == nil && c.Value != "" {
		return c.Value, true
	}

	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication credentials were not provided", r)
	return "", false
}

// WithUserID attaches the authenticated user id to ctx.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// GetUserID extracts user_id from request context
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}

// RequestIDFrom prefers the chi request id and falls back to the inbound header.
func RequestIDFrom(r *http.Request) string {
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": RequestIDFrom(r),
		},
	})
}
