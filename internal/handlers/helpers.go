package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"videoquiz-backend/internal/middleware"
	"videoquiz-backend/internal/models"
	"videoquiz-backend/internal/pipeline"
	"videoquiz-backend/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: middleware.RequestIDFrom(r),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: middleware.RequestIDFrom(r),
		},
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return false
	}
	return true
}

func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		handlePipelineError(w, r, log, pe)
		return
	}

	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.ConflictError:
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnauthorizedError:
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", e.Message, r))
	case *services.ForbiddenError:
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", e.Message, r))
	default:
		log.Error("unhandled error", zap.String("path", r.URL.Path), zap.String("request_id", middleware.RequestIDFrom(r)), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// handlePipelineError returns the safe message only; the cause is logged.
func handlePipelineError(w http.ResponseWriter, r *http.Request, log *zap.Logger, pe *pipeline.Error) {
	if pe.Kind.IsClientError() {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields(string(pe.Kind), pe.Message, map[string]string{"url": pe.Message}, r))
		return
	}
	fields := []zap.Field{
		zap.String("kind", string(pe.Kind)),
		zap.String("request_id", middleware.RequestIDFrom(r)),
		zap.Error(pe.Err),
	}
	if errors.Is(pe, pipeline.ErrAccessDenied) {
		fields = append(fields, zap.Bool("access_denied", true))
	}
	log.Error("quiz pipeline failed", fields...)
	writeJSON(w, http.StatusInternalServerError, errorResp(string(pe.Kind), pe.Message, r))
}
