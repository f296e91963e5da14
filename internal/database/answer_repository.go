package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/spanishbot/pkg/models"
)

// AnswerRepository keeps a log of graded answers for per-user statistics
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository creates a new repository instance
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// Record appends an answer to the log
func (r *AnswerRepository) Record(ctx context.Context, a Answer) error {
	query := r.db.Rebind(`INSERT INTO answers (user_id, vocabulary_id, is_correct) VALUES (?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, a.UserID, a.VocabularyID, a.IsCorrect); err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	return nil
}

// Stats counts the user's answers
func (r *AnswerRepository) Stats(ctx context.Context, userID int64) (models.AnswerStats, error) {
	var stats models.AnswerStats
	query := r.db.Rebind(`
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct
		FROM answers
		WHERE user_id = ?
	`)
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return stats, fmt.Errorf("failed to get answer stats: %w", err)
	}
	return stats, nil
}
