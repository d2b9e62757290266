package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"videoquiz-backend/internal/models"
	"videoquiz-backend/internal/pipeline"
	"videoquiz-backend/internal/repository"
)

// QuizGenerator turns a video URL into a normalized quiz.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, rawURL string) (*pipeline.Quiz, *pipeline.CanonicalReference, error)
}

type QuizStore interface {
	CreateWithQuestions(ctx context.Context, q *models.Quiz) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Quiz, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, title, description *string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type QuizService struct {
	generator QuizGenerator
	store     QuizStore
	log       *zap.Logger
}

func NewQuizService(generator QuizGenerator, store QuizStore, log *zap.Logger) *QuizService {
	return &QuizService{generator: generator, store: store, log: log}
}

func validateVideoURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &ValidationError{Fields: map[string]string{"url": "This field is required."}}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Fields: map[string]string{"url": "Enter a valid URL."}}
	}
	if !pipeline.IsPlatformURL(raw) {
		return &ValidationError{Fields: map[string]string{"url": "Only YouTube URLs are allowed."}}
	}
	return nil
}

// Create generates a quiz for videoURL and stores it for ownerID. Pipeline
// failures are returned unchanged so callers can map their kind.
func (s *QuizService) Create(ctx context.Context, ownerID uuid.UUID, videoURL string) (*models.Quiz, error) {
	if err := validateVideoURL(videoURL); err != nil {
		return nil, err
	}
	videoURL = strings.TrimSpace(videoURL)

	generated, ref, err := s.generator.GenerateQuiz(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	quiz := models.NewQuiz(ownerID, videoURL, generated)
	if err := s.store.CreateWithQuestions(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to store quiz: %w", err)
	}

	s.log.Info("quiz created",
		zap.String("quiz_id", quiz.ID.String()),
		zap.String("content_id", ref.ContentID),
		zap.Int("questions", len(quiz.Questions)),
	)
	return quiz, nil
}

func (s *QuizService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Quiz, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Get returns the quiz when ownerID owns it.
func (s *QuizService) Get(ctx context.Context, ownerID, quizID uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.store.GetByID(ctx, quizID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Message: "Quiz not found."}
		}
		return nil, err
	}
	if quiz.OwnerID != ownerID {
		return nil, &ForbiddenError{Message: "You do not have permission to access this quiz."}
	}
	return quiz, nil
}

func (s *QuizService) Update(ctx context.Context, ownerID, quizID uuid.UUID, req models.UpdateQuizRequest) (*models.Quiz, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &ValidationError{Fields: map[string]string{"title": "This field may not be blank."}}
		}
		req.Title = &title
	}

	if _, err := s.Get(ctx, ownerID, quizID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDetails(ctx, quizID, req.Title, req.Description); err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Message: "Quiz not found."}
		}
		return nil, err
	}
	return s.Get(ctx, ownerID, quizID)
}

func (s *QuizService) Delete(ctx context.Context, ownerID, quizID uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, quizID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, quizID); err != nil {
		if repository.IsNotFound(err) {
			return &NotFoundError{Message: "Quiz not found."}
		}
		return err
	}
	return nil
}
