package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyspace/internal/database"
	"familyspace/internal/models"
)

type InvitationRepository struct {
	db database.DBTX
}

func NewInvitationRepository(db database.DBTX) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Exists reports whether a code is already taken
func (r *InvitationRepository) Exists(ctx context.Context, code string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM invitation_codes WHERE code = ?", code).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check invitation code: %w", err)
	}
	return count > 0, nil
}

// Create stores a code for a family. A taken code yields ErrDuplicate.
func (r *InvitationRepository) Create(ctx context.Context, code string, familyID int64, createdAt time.Time) (*models.InvitationCode, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO invitation_codes (code, family_id, created_at) VALUES (?, ?, ?)",
		code, familyID, createdAt)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create invitation code: %w", err)
	}
	return &models.InvitationCode{ID: id, Code: code, FamilyID: familyID, CreatedAt: createdAt}, nil
}

// GetByCode retrieves a code, or nil when it does not exist
func (r *InvitationRepository) GetByCode(ctx context.Context, code string) (*models.InvitationCode, error) {
	inv := &models.InvitationCode{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, code, family_id, created_at FROM invitation_codes WHERE code = ?", code).
		Scan(&inv.ID, &inv.Code, &inv.FamilyID, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation code: %w", err)
	}
	return inv, nil
}

// ListByFamily returns every code issued for a family, oldest first
func (r *InvitationRepository) ListByFamily(ctx context.Context, familyID int64) ([]models.InvitationCode, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, code, family_id, created_at FROM invitation_codes WHERE family_id = ? ORDER BY id", familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitation codes: %w", err)
	}
	defer rows.Close()

	var codes []models.InvitationCode
	for rows.Next() {
		var inv models.InvitationCode
		if err := rows.Scan(&inv.ID, &inv.Code, &inv.FamilyID, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invitation code: %w", err)
		}
		codes = append(codes, inv)
	}
	return codes, rows.Err()
}
