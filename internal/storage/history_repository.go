package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rate-copy-manager/backend/internal/storage/models"
)

// HistoryRepository persists the submission audit log.
type HistoryRepository struct {
	BaseRepository
}

// NewHistoryRepository creates a repository for submission history.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{BaseRepository: NewBaseRepository(db)}
}

// Record inserts one submission record. The ID is generated when empty.
func (r *HistoryRepository) Record(ctx context.Context, rec models.SubmissionRecord) error {
	if rec.ID == "" {
		rec.ID = GenerateID()
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO submission_history
			(id, session_id, property_id, room_type_id, source_date, target_date, target_year, rate_amount, success, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SessionID, rec.PropertyID, rec.RoomTypeID, rec.SourceDate,
		rec.TargetDate, rec.TargetYear, rec.RateAmount, rec.Success, rec.Error)

	if err != nil {
		return fmt.Errorf("inserting submission record: %w", err)
	}
	return nil
}

// List returns the most recent submission records, newest first.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]models.SubmissionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, session_id, property_id, room_type_id, source_date, target_date, target_year, rate_amount, success, error, created_at
		FROM submission_history
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying submission history: %w", err)
	}
	defer rows.Close()

	var records []models.SubmissionRecord
	for rows.Next() {
		var rec models.SubmissionRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.PropertyID, &rec.RoomTypeID,
			&rec.SourceDate, &rec.TargetDate, &rec.TargetYear, &rec.RateAmount,
			&rec.Success, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning submission record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Count returns the total number of submission records.
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM submission_history").Scan(&count)
	return count, err
}

// DeleteOlderThan removes records created before the cutoff and returns
// how many rows were deleted.
func (r *HistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.DB().ExecContext(ctx,
		"DELETE FROM submission_history WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning submission history: %w", err)
	}
	return result.RowsAffected()
}
