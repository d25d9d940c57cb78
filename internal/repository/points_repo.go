package repository

import (
	"context"
	"fmt"
	"time"

	"familyspace/internal/database"
)

// PointRepository handles the per-member point ledger
type PointRepository struct {
	db database.DBTX
}

// NewPointRepository creates a new point repository
func NewPointRepository(db database.DBTX) *PointRepository {
	return &PointRepository{db: db}
}

// Ensure creates an empty ledger for a member when none exists. An
// existing ledger is left untouched.
func (r *PointRepository) Ensure(ctx context.Context, memberID int64, at time.Time) error {
	query := "INSERT INTO member_points (member_id, daily_point, updated_at) VALUES (?, 0, ?)" +
		r.db.GetDialect().InsertIgnoreSuffix("member_id")
	if _, err := r.db.ExecContext(ctx, query, memberID, at); err != nil {
		return fmt.Errorf("failed to create point ledger: %w", err)
	}
	return nil
}

// GetForUpdate reads a member's points, holding a row lock until the
// surrounding transaction ends where the dialect supports it
func (r *PointRepository) GetForUpdate(ctx context.Context, memberID int64) (int, error) {
	query := "SELECT daily_point FROM member_points WHERE member_id = ?" + r.db.GetDialect().LockRowsSuffix()
	var points int
	if err := r.db.QueryRowContext(ctx, query, memberID).Scan(&points); err != nil {
		return 0, fmt.Errorf("failed to read points: %w", err)
	}
	return points, nil
}

// CompareAndSet moves the ledger from before to after and reports whether
// the row still held before
func (r *PointRepository) CompareAndSet(ctx context.Context, memberID int64, before, after int, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE member_points SET daily_point = ?, updated_at = ? WHERE member_id = ? AND daily_point = ?",
		after, at, memberID, before)
	if err != nil {
		return false, fmt.Errorf("failed to update points: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}
