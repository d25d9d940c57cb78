package repository

import "familyspace/internal/database"

// Store bundles the repositories over one connection or transaction so a
// workflow can reach every aggregate inside the same unit of work
type Store struct {
	Members     *MemberRepository
	Memberships *MembershipRepository
	Points      *PointRepository
	Families    *FamilyRepository
	Invitations *InvitationRepository
	Attendances *AttendanceRepository
	Posts       *PostRepository
}

// NewStore creates a store over db
func NewStore(db database.DBTX) *Store {
	return &Store{
		Members:     NewMemberRepository(db),
		Memberships: NewMembershipRepository(db),
		Points:      NewPointRepository(db),
		Families:    NewFamilyRepository(db),
		Invitations: NewInvitationRepository(db),
		Attendances: NewAttendanceRepository(db),
		Posts:       NewPostRepository(db),
	}
}
