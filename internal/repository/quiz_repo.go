package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"videoquiz-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

// CreateWithQuestions inserts the quiz and all its questions in one transaction.
func (r *QuizRepo) CreateWithQuestions(ctx context.Context, q *models.Quiz) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin quiz transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO quizzes (id, owner_id, title, description, video_url)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`,
		q.ID, q.OwnerID, q.Title, q.Description, q.VideoURL,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quiz: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range q.Questions {
		qq := &q.Questions[i]
		qq.ID = uuid.New()
		qq.QuizID = q.ID
		qq.Position = i
		optionsBytes, err := json.Marshal(qq.QuestionOptions)
		if err != nil {
			return fmt.Errorf("failed to encode question options: %w", err)
		}
		batch.Queue(
			`INSERT INTO questions (id, quiz_id, position, question_title, question_options, answer)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`,
			qq.ID, qq.QuizID, qq.Position, qq.QuestionTitle, optionsBytes, qq.Answer,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&qq.CreatedAt, &qq.UpdatedAt)
		})
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert questions: %w", err)
		}
	}

	return tx.Commit(ctx)
}

const quizColumns = `id, owner_id, title, description, video_url, created_at, updated_at`

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	q := &models.Quiz{}
	if err := row.Scan(&q.ID, &q.OwnerID, &q.Title, &q.Description, &q.VideoURL, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	q.Questions = []models.Question{}
	return q, nil
}

// GetByID returns the quiz with its questions. Returns pgx.ErrNoRows when absent.
func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q, err := scanQuiz(r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachQuestions(ctx, []*models.Quiz{q}); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByOwner returns the owner's quizzes newest first.
func (r *QuizRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []*models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachQuestions(ctx, quizzes); err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *QuizRepo) attachQuestions(ctx context.Context, quizzes []*models.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Quiz, len(quizzes))
	ids := make([]uuid.UUID, 0, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = q
		ids = append(ids, q.ID)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, quiz_id, position, question_title, question_options, answer, created_at, updated_at
		FROM questions WHERE quiz_id = ANY($1) ORDER BY quiz_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var qq models.Question
		var optionsBytes []byte
		if err := rows.Scan(&qq.ID, &qq.QuizID, &qq.Position, &qq.QuestionTitle, &optionsBytes, &qq.Answer, &qq.CreatedAt, &qq.UpdatedAt); err != nil {
			return err
		}
		if err := json.Unmarshal(optionsBytes, &qq.QuestionOptions); err != nil {
			return fmt.Errorf("failed to decode options of question %s: %w", qq.ID, err)
		}
		if q, ok := byID[qq.QuizID]; ok {
			q.Questions = append(q.Questions, qq)
		}
	}
	return rows.Err()
}

// UpdateDetails applies the non-nil fields and bumps updated_at.
func (r *QuizRepo) UpdateDetails(ctx context.Context, id uuid.UUID, title, description *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET title = COALESCE($2, title), description = COALESCE($3, description), updated_at = NOW()
		WHERE id = $1`,
		id, title, description,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the quiz; questions go with it through ON DELETE CASCADE.
func (r *QuizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM quizzes WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
