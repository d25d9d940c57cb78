package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"familyspace/internal/database"
	"familyspace/internal/models"
)

// FamilyRepository handles database operations for families and the
// aggregates each family owns exclusively: its chat room and its plant
type FamilyRepository struct {
	db database.DBTX
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db database.DBTX) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// CreateChatRoom inserts a communication channel
func (r *FamilyRepository) CreateChatRoom(ctx context.Context, channelKey string, createdAt time.Time) (*models.ChatRoom, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO chat_rooms (channel_key, created_at) VALUES (?, ?)",
		channelKey, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat room: %w", err)
	}
	return &models.ChatRoom{ID: id, ChannelKey: channelKey, CreatedAt: createdAt}, nil
}

// CreatePlant inserts a plant with zero experience
func (r *FamilyRepository) CreatePlant(ctx context.Context, name string, createdAt time.Time) (*models.Plant, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO plants (name, experience, created_at) VALUES (?, 0, ?)",
		name, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create plant: %w", err)
	}
	return &models.Plant{ID: id, Name: name, CreatedAt: createdAt}, nil
}

// Create inserts a family bound to an existing chat room and plant
func (r *FamilyRepository) Create(ctx context.Context, name string, chatRoomID, plantID int64, createdAt time.Time) (*models.Family, error) {
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO families (name, chat_room_id, plant_id, created_at) VALUES (?, ?, ?, ?)",
		name, chatRoomID, plantID, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}
	return &models.Family{ID: id, Name: name, ChatRoomID: chatRoomID, PlantID: plantID, CreatedAt: createdAt}, nil
}

// GetByID retrieves a family by ID
func (r *FamilyRepository) GetByID(ctx context.Context, id int64) (*models.Family, error) {
	query := "SELECT id, name, chat_room_id, plant_id, created_at FROM families WHERE id = ?"
	family := &models.Family{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&family.ID,
		&family.Name,
		&family.ChatRoomID,
		&family.PlantID,
		&family.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// GetChatRoom retrieves a chat room by ID
func (r *FamilyRepository) GetChatRoom(ctx context.Context, id int64) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	err := r.db.QueryRowContext(ctx, "SELECT id, channel_key, created_at FROM chat_rooms WHERE id = ?", id).
		Scan(&room.ID, &room.ChannelKey, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat room: %w", err)
	}
	return room, nil
}

// GetPlantByFamily retrieves the plant owned by a family
func (r *FamilyRepository) GetPlantByFamily(ctx context.Context, familyID int64) (*models.Plant, error) {
	query := `
		SELECT p.id, p.name, p.experience, p.created_at
		FROM plants p
		INNER JOIN families f ON f.plant_id = p.id
		WHERE f.id = ?
	`
	plant := &models.Plant{}
	err := r.db.QueryRowContext(ctx, query, familyID).Scan(&plant.ID, &plant.Name, &plant.Experience, &plant.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plant: %w", err)
	}
	return plant, nil
}

// AddExperience grows a plant by delta in a single statement
func (r *FamilyRepository) AddExperience(ctx context.Context, plantID int64, delta int) error {
	result, err := r.db.ExecContext(ctx, "UPDATE plants SET experience = experience + ? WHERE id = ?", delta, plantID)
	if err != nil {
		return fmt.Errorf("failed to grow plant: %w", err)
	}
	return expectOneRow(result, "plant")
}
