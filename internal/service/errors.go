package service

import "errors"

var (
	ErrMemberNotFound         = errors.New("member not found")
	ErrFamilyNotFound         = errors.New("family not found")
	ErrNotInFamily            = errors.New("member has not joined a family")
	ErrInvitationCodeNotFound = errors.New("invitation code not found")
	ErrAlreadyMember          = errors.New("member already belongs to this family")
	ErrAlreadyInFamily        = errors.New("member already belongs to another family")
	ErrAlreadyAttended        = errors.New("already checked in today")
	ErrCodeSpaceExhausted     = errors.New("could not allocate a unique invitation code")
	ErrPointContention        = errors.New("point ledger kept changing during update")
)
