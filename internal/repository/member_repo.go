package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyspace/internal/database"
	"familyspace/internal/models"
)

// MemberRepository handles database operations for member profiles
type MemberRepository struct {
	db database.DBTX
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db database.DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = `m.id, m.display_name, m.email, m.picture, m.role, m.nickname,
	m.family_role, m.birthdate, m.push_token, m.created_at, m.updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner, extra ...interface{}) (*models.Member, error) {
	member := &models.Member{}
	var role string
	var familyRole, birthdate sql.NullString
	dest := []interface{}{
		&member.ID, &member.DisplayName, &member.Email, &member.Picture, &role, &member.Nickname,
		&familyRole, &birthdate, &member.PushToken, &member.CreatedAt, &member.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	member.Role = models.Role(role)
	if familyRole.Valid {
		member.FamilyRole = &familyRole.String
	}
	if birthdate.Valid {
		member.Birthdate = &birthdate.String
	}
	return member, nil
}

// Create inserts a member profile and sets its ID
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	query := `INSERT INTO members (display_name, email, picture, role, nickname, push_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query,
		member.DisplayName, member.Email, member.Picture, string(member.Role),
		member.Nickname, member.PushToken, member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create member: %w", err)
	}
	member.ID = id
	return nil
}

// GetByID retrieves a member profile by ID
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members m WHERE m.id = ?"
	member, err := scanMember(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// GetByEmail retrieves a member profile by email
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := "SELECT " + memberColumns + " FROM members m WHERE m.email = ?"
	member, err := scanMember(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member by email: %w", err)
	}
	return member, nil
}

// GetState composes profile, membership and point ledger of a member
func (r *MemberRepository) GetState(ctx context.Context, id int64) (*models.MemberState, error) {
	query := "SELECT " + memberColumns + `, COALESCE(fm.family_id, 0), COALESCE(mp.daily_point, 0)
		FROM members m
		LEFT JOIN family_memberships fm ON fm.member_id = m.id
		LEFT JOIN member_points mp ON mp.member_id = m.id
		WHERE m.id = ?`

	var familyID int64
	var dailyPoint int
	member, err := scanMember(r.db.QueryRowContext(ctx, query, id), &familyID, &dailyPoint)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member state: %w", err)
	}
	return &models.MemberState{Member: *member, FamilyID: familyID, DailyPoint: dailyPoint}, nil
}

// UpdateProfile stores the fields completed at signup
func (r *MemberRepository) UpdateProfile(ctx context.Context, id int64, nickname string, familyRole, birthdate *string, pushToken string, updatedAt time.Time) error {
	query := `UPDATE members SET nickname = ?, family_role = ?, birthdate = ?, push_token = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, nickname, familyRole, birthdate, pushToken, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update member profile: %w", err)
	}
	return expectOneRow(result, "member")
}

// SetRole changes a member's role
func (r *MemberRepository) SetRole(ctx context.Context, id int64, role models.Role, updatedAt time.Time) error {
	query := "UPDATE members SET role = ?, updated_at = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, query, string(role), updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to set member role: %w", err)
	}
	return expectOneRow(result, "member")
}

// ListFamilyMembers returns the profiles of a family's members, optionally
// leaving one member out
func (r *MemberRepository) ListFamilyMembers(ctx context.Context, familyID, excludeMemberID int64) ([]models.Member, error) {
	query := "SELECT " + memberColumns + `
		FROM members m
		INNER JOIN family_memberships fm ON fm.member_id = m.id
		WHERE fm.family_id = ? AND m.id <> ?
		ORDER BY m.id`

	rows, err := r.db.QueryContext(ctx, query, familyID, excludeMemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *member)
	}
	return members, rows.Err()
}

func expectOneRow(result sql.Result, what string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found", what)
	}
	return nil
}
