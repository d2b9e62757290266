package models

import (
	"time"

	"github.com/google/uuid"

	"videoquiz-backend/internal/pipeline"
)

type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	VideoURL    string     `json:"video_url"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	ID              uuid.UUID `json:"id"`
	QuizID          uuid.UUID `json:"-"`
	Position        int       `json:"-"`
	QuestionTitle   string    `json:"question_title"`
	QuestionOptions []string  `json:"question_options"`
	Answer          string    `json:"answer"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateQuizRequest struct {
	URL string `json:"url"`
}

// UpdateQuizRequest is a partial update; nil fields are left unchanged.
type UpdateQuizRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// NewQuiz converts a generated quiz into a storable record.
func NewQuiz(ownerID uuid.UUID, videoURL string, generated *pipeline.Quiz) *Quiz {
	q := &Quiz{
		OwnerID:     ownerID,
		Title:       generated.Title,
		Description: generated.Description,
		VideoURL:    videoURL,
		Questions:   make([]Question, 0, len(generated.Questions)),
	}
	for i, gq := range generated.Questions {
		q.Questions = append(q.Questions, Question{
			Position:        i,
			QuestionTitle:   gq.QuestionTitle,
			QuestionOptions: append([]string(nil), gq.QuestionOptions...),
			Answer:          gq.Answer,
		})
	}
	return q
}
