package models

import "time"

// Family groups members around one chat room and one plant
type Family struct {
	ID         int64
	Name       string
	ChatRoomID int64
	PlantID    int64
	CreatedAt  time.Time
}

// ChatRoom is the family's communication channel
type ChatRoom struct {
	ID         int64
	ChannelKey string
	CreatedAt  time.Time
}

// InvitationCode lets other members join a family. Codes are reusable and
// never expire.
type InvitationCode struct {
	ID        int64
	Code      string
	FamilyID  int64
	CreatedAt time.Time
}
