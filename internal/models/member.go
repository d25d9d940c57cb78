package models

import "time"

// Role is the authorization role of a member
type Role string

const (
	RoleGuest Role = "GUEST"
	RoleUser  Role = "USER"
)

// Key returns the role key carried in session credentials
func (r Role) Key() string {
	return "ROLE_" + string(r)
}

// MaxDailyPoint is the ceiling of a member's point ledger
const MaxDailyPoint = 10

// Member is the profile record of an account
type Member struct {
	ID          int64
	DisplayName string
	Email       string
	Picture     string
	Role        Role
	Nickname    string
	FamilyRole  *string
	Birthdate   *string
	PushToken   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership links a member to at most one family
type Membership struct {
	MemberID int64
	FamilyID int64
	JoinedAt time.Time
}

// PointLedger holds a member's bounded activity points
type PointLedger struct {
	MemberID   int64
	DailyPoint int
	UpdatedAt  time.Time
}

// MemberState composes the three member records. FamilyID is 0 when the
// member has not joined a family yet.
type MemberState struct {
	Member     Member
	FamilyID   int64
	DailyPoint int
}

// HasFamily reports whether the member belongs to a family
func (s *MemberState) HasFamily() bool {
	return s.FamilyID != 0
}

// CappedDelta returns how many of amount points can be granted on top of
// current without exceeding MaxDailyPoint
func CappedDelta(current, amount int) int {
	if amount <= 0 || current >= MaxDailyPoint {
		return 0
	}
	next := current + amount
	if next > MaxDailyPoint {
		next = MaxDailyPoint
	}
	return next - current
}
