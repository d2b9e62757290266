package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"videoquiz-backend/internal/models"
)

type fakeAuth struct {
	registerErr error
	loginUser   *models.User
	loginTokens *models.AuthTokens
	loginErr    error
	refreshErr  error
	logoutErr   error

	gotRegister models.RegisterRequest
	gotLogin    models.LoginRequest
	gotRefresh  string
	gotLogout   string
}

func (f *fakeAuth) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	f.gotRegister = req
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: uuid.New(), Username: req.Username, Email: req.Email}, nil
}

func (f *fakeAuth) Login(ctx context.Context, req models.LoginRequest) (*models.User, *models.AuthTokens, error) {
	f.gotLogin = req
	return f.loginUser, f.loginTokens, f.loginErr
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	f.gotRefresh = refreshToken
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &models.AuthTokens{AccessToken: "new-access", AccessExpiresAt: time.Now().Add(15 * time.Minute)}, nil
}

func (f *fakeAuth) Logout(ctx context.Context, refreshToken string) error {
	f.gotLogout = refreshToken
	return f.logoutErr
}

type fakeQuizzes struct {
	quiz    *models.Quiz
	quizzes []*models.Quiz
	err     error

	gotOwner uuid.UUID
	gotID    uuid.UUID
	gotURL   string
	gotReq   models.UpdateQuizRequest
}

func (f *fakeQuizzes) Create(ctx context.Context, ownerID uuid.UUID, videoURL string) (*models.Quiz, error) {
	f.gotOwner, f.gotURL = ownerID, videoURL
	return f.quiz, f.err
}

func (f *fakeQuizzes) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Quiz, error) {
	f.gotOwner = ownerID
	return f.quizzes, f.err
}

func (f *fakeQuizzes) Get(ctx context.Context, ownerID, quizID uuid.UUID) (*models.Quiz, error) {
	f.gotOwner, f.gotID = ownerID, quizID
	return f.quiz, f.err
}

func (f *fakeQuizzes) Update(ctx context.Context, ownerID, quizID uuid.UUID, req models.UpdateQuizRequest) (*models.Quiz, error) {
	f.gotOwner, f.gotID, f.gotReq = ownerID, quizID, req
	return f.quiz, f.err
}

func (f *fakeQuizzes) Delete(ctx context.Context, ownerID, quizID uuid.UUID) error {
	f.gotOwner, f.gotID = ownerID, quizID
	return f.err
}
