package repository

import (
	"context"
	"fmt"
	"time"

	"familyspace/internal/database"
	"familyspace/internal/models"
)

// AttendanceRepository handles daily check-in records
type AttendanceRepository struct {
	db database.DBTX
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db database.DBTX) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create records a check-in. A second check-in for the same member and
// calendar day yields ErrDuplicate.
func (r *AttendanceRepository) Create(ctx context.Context, memberID int64, attendedAt time.Time, attendedOn string) (*models.Attendance, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO attendances (member_id, attended_at, attended_on) VALUES (?, ?, ?)",
		memberID, attendedAt, attendedOn)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create attendance: %w", err)
	}
	return &models.Attendance{ID: id, MemberID: memberID, AttendedAt: attendedAt, AttendedOn: attendedOn}, nil
}

// ExistsBetween reports whether the member checked in within [from, to)
func (r *AttendanceRepository) ExistsBetween(ctx context.Context, memberID int64, from, to time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendances WHERE member_id = ? AND attended_at >= ? AND attended_at < ?",
		memberID, from, to).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count attendances: %w", err)
	}
	return count > 0, nil
}

// ListByFamilyBetween returns the family's check-ins within [from, to),
// oldest first
func (r *AttendanceRepository) ListByFamilyBetween(ctx context.Context, familyID int64, from, to time.Time) ([]models.Attendance, error) {
	query := `
		SELECT a.id, a.member_id, a.attended_at, a.attended_on, m.nickname
		FROM attendances a
		INNER JOIN family_memberships fm ON fm.member_id = a.member_id
		INNER JOIN members m ON m.id = a.member_id
		WHERE fm.family_id = ? AND a.attended_at >= ? AND a.attended_at < ?
		ORDER BY a.attended_at, a.id
	`
	rows, err := r.db.QueryContext(ctx, query, familyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	var attendances []models.Attendance
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.ID, &a.MemberID, &a.AttendedAt, &a.AttendedOn, &a.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, a)
	}
	return attendances, rows.Err()
}

// PostRepository handles daily posts
type PostRepository struct {
	db database.DBTX
}

// NewPostRepository creates a new post repository
func NewPostRepository(db database.DBTX) *PostRepository {
	return &PostRepository{db: db}
}

// Create stores a post
func (r *PostRepository) Create(ctx context.Context, memberID int64, content string, createdAt time.Time) (*models.DailyPost, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO daily_posts (member_id, content, created_at) VALUES (?, ?, ?)",
		memberID, content, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return &models.DailyPost{ID: id, MemberID: memberID, Content: content, CreatedAt: createdAt}, nil
}

// CountBetween counts the member's posts within [from, to)
func (r *PostRepository) CountBetween(ctx context.Context, memberID int64, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM daily_posts WHERE member_id = ? AND created_at >= ? AND created_at < ?",
		memberID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListByFamilyBetween returns the family's posts within [from, to). Posts
// come oldest first unless newestFirst is set.
func (r *PostRepository) ListByFamilyBetween(ctx context.Context, familyID int64, from, to time.Time, newestFirst bool) ([]models.DailyPost, error) {
	order := "p.created_at, p.id"
	if newestFirst {
		order = "p.created_at DESC, p.id DESC"
	}
	query := `
		SELECT p.id, p.member_id, p.content, p.created_at, m.nickname
		FROM daily_posts p
		INNER JOIN family_memberships fm ON fm.member_id = p.member_id
		INNER JOIN members m ON m.id = p.member_id
		WHERE fm.family_id = ? AND p.created_at >= ? AND p.created_at < ?
		ORDER BY ` + order

	rows, err := r.db.QueryContext(ctx, query, familyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []models.DailyPost
	for rows.Next() {
		var p models.DailyPost
		if err := rows.Scan(&p.ID, &p.MemberID, &p.Content, &p.CreatedAt, &p.Nickname); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
