package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyspace/internal/database"
	"familyspace/internal/models"
)

// MembershipRepository stores which family a member belongs to
type MembershipRepository struct {
	db database.DBTX
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db database.DBTX) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Get returns the membership of a member, or nil when it has none
func (r *MembershipRepository) Get(ctx context.Context, memberID int64) (*models.Membership, error) {
	query := "SELECT member_id, family_id, joined_at FROM family_memberships WHERE member_id = ?"
	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, memberID).Scan(&m.MemberID, &m.FamilyID, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// Set points a member at familyID, replacing any previous membership
func (r *MembershipRepository) Set(ctx context.Context, memberID, familyID int64, joinedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE family_memberships SET family_id = ?, joined_at = ? WHERE member_id = ?",
		familyID, joinedAt, memberID)
	if err != nil {
		return fmt.Errorf("failed to update membership: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO family_memberships (member_id, family_id, joined_at) VALUES (?, ?, ?)",
		memberID, familyID, joinedAt)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

// CountByFamily returns the number of members in a family
func (r *MembershipRepository) CountByFamily(ctx context.Context, familyID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM family_memberships WHERE family_id = ?", familyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count family members: %w", err)
	}
	return count, nil
}
