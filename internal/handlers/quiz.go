package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"videoquiz-backend/internal/middleware"
	"videoquiz-backend/internal/models"
)

type QuizAPI interface {
	Create(ctx context.Context, ownerID uuid.UUID, videoURL string) (*models.Quiz, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*models.Quiz, error)
	Get(ctx context.Context, ownerID, quizID uuid.UUID) (*models.Quiz, error)
	Update(ctx context.Context, ownerID, quizID uuid.UUID, req models.UpdateQuizRequest) (*models.Quiz, error)
	Delete(ctx context.Context, ownerID, quizID uuid.UUID) error
}

type QuizHandler struct {
	quizService QuizAPI
	log         *zap.Logger
}

func NewQuizHandler(quizService QuizAPI, log *zap.Logger) *QuizHandler {
	return &QuizHandler{quizService: quizService, log: log}
}

// quizID parses the {id} route parameter; malformed ids are reported as not found.
func (h *QuizHandler) quizID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found.", r))
		return uuid.Nil, false
	}
	return id, true
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quiz, err := h.quizService.Create(r.Context(), middleware.GetUserID(r.Context()), req.URL)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizService.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quizID(w, r)
	if !ok {
		return
	}

	quiz, err := h.quizService.Get(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quizID(w, r)
	if !ok {
		return
	}
	var req models.UpdateQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	quiz, err := h.quizService.Update(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quizID(w, r)
	if !ok {
		return
	}

	if err := h.quizService.Delete(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
