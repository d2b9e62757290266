package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"videoquiz-backend/internal/middleware"
	"videoquiz-backend/internal/models"
	"videoquiz-backend/internal/repository"
)

const blacklistPrefix = "auth:blacklist:"

// UserStore is the persistence the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthService struct {
	users      UserStore
	redis      *redis.Client
	jwt        *middleware.JWTAuth
	bcryptCost int
	log        *zap.Logger
}

func NewAuthService(users UserStore, redisClient *redis.Client, jwt *middleware.JWTAuth, log *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		redis:      redisClient,
		jwt:        jwt,
		bcryptCost: 12,
		log:        log,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	// Validate all fields at once
	fieldErrors := make(map[string]string)

	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		fieldErrors["username"] = "This field is required."
	case len([]rune(username)) > 150:
		fieldErrors["username"] = "Ensure this field has no more than 150 characters."
	}
	email := strings.TrimSpace(req.Email)
	if !emailRegex.MatchString(email) {
		fieldErrors["email"] = "Enter a valid email address."
	}
	if len(req.Password) < 8 {
		fieldErrors["password"] = "Ensure this field has at least 8 characters."
	}
	if req.ConfirmedPassword == "" {
		fieldErrors["confirmed_password"] = "This field is required."
	}

	if _, ok := fieldErrors["username"]; !ok {
		if err := s.checkFree(ctx, s.users.GetByUsername, username); err != nil {
			if !isConflict(err) {
				return nil, err
			}
			fieldErrors["username"] = "Username is already taken."
		}
	}
	if _, ok := fieldErrors["email"]; !ok {
		if err := s.checkFree(ctx, s.users.GetByEmail, email); err != nil {
			if !isConflict(err) {
				return nil, err
			}
			fieldErrors["email"] = "Email is already in use."
		}
	}

	if len(fieldErrors) == 0 && req.Password != req.ConfirmedPassword {
		fieldErrors["confirmed_password"] = "Passwords do not match."
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "Username or email already in use."}
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *AuthService) checkFree(ctx context.Context, lookup func(context.Context, string) (*models.User, error), value string) error {
	_, err := lookup(ctx, value)
	if err == nil {
		return &ConflictError{Message: "already in use"}
	}
	if repository.IsNotFound(err) {
		return nil
	}
	return err
}

func isConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// Login accepts a username, or an email when the identifier contains '@'.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, *models.AuthTokens, error) {
	identifier := strings.TrimSpace(req.Username)
	if identifier == "" || req.Password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	var user *models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, identifier)
	} else {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.AuthTokens, error) {
	access, accessClaims, err := s.jwt.Issue(user.ID, middleware.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := s.jwt.Issue(user.ID, middleware.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return &models.AuthTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// Refresh validates a refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	if refreshToken == "" {
		return nil, &UnauthorizedError{Message: "Refresh token not provided."}
	}
	claims, err := s.jwt.Parse(refreshToken, middleware.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	n, err := s.redis.Exists(ctx, blacklistKey(claims.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if n > 0 {
		return nil, ErrInvalidToken
	}

	access, accessClaims, err := s.jwt.Issue(claims.UserID, middleware.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &models.AuthTokens{AccessToken: access, AccessExpiresAt: accessClaims.ExpiresAt}, nil
}

// Logout blacklists the refresh token until it would have expired. A
// missing or already invalid token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.jwt.Parse(refreshToken, middleware.TokenTypeRefresh)
	if err != nil {
		return nil
	}

	ttl := claims.ExpiresAt.Sub(s.jwt.Now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistKey(claims.ID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist refresh token: %w", err)
	}
	return nil
}

func blacklistKey(jti string) string {
	return blacklistPrefix + jti
}
