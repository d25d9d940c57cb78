package repository

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyspace/internal/database"
	"familyspace/internal/models"
	"familyspace/migrations"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS))
	return db
}

func createMember(t *testing.T, store *Store, email string) *models.Member {
	t.Helper()
	now := time.Now().UTC()
	m := &models.Member{DisplayName: "name", Email: email, Role: models.RoleGuest, Nickname: "nick-" + email, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Members.Create(context.Background(), m))
	require.NoError(t, store.Points.Ensure(context.Background(), m.ID, now))
	return m
}

func createFamily(t *testing.T, store *Store, name string) *models.Family {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	room, err := store.Families.CreateChatRoom(ctx, "key-"+name, now)
	require.NoError(t, err)
	plant, err := store.Families.CreatePlant(ctx, "plant-"+name, now)
	require.NoError(t, err)
	family, err := store.Families.Create(ctx, name, room.ID, plant.ID, now)
	require.NoError(t, err)
	return family
}

func TestMemberRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))

	m := createMember(t, store, "a@example.com")
	assert.NotZero(t, m.ID)

	dup := &models.Member{DisplayName: "x", Email: "a@example.com", Role: models.RoleGuest, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, store.Members.Create(ctx, dup), ErrDuplicate)

	byEmail, err := store.Members.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, m.ID, byEmail.ID)
	assert.Nil(t, byEmail.FamilyRole)

	missing, err := store.Members.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	role, birth := "MOM", "1980-05-05"
	require.NoError(t, store.Members.UpdateProfile(ctx, m.ID, "mom", &role, &birth, "push-1", time.Now().UTC()))
	require.NoError(t, store.Members.SetRole(ctx, m.ID, models.RoleUser, time.Now().UTC()))

	state, err := store.Members.GetState(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.RoleUser, state.Member.Role)
	assert.Equal(t, "mom", state.Member.Nickname)
	require.NotNil(t, state.Member.FamilyRole)
	assert.Equal(t, "MOM", *state.Member.FamilyRole)
	assert.False(t, state.HasFamily())
	assert.Equal(t, 0, state.DailyPoint)

	assert.Error(t, store.Members.SetRole(ctx, 9999, models.RoleUser, time.Now()))
}

func TestMembershipRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))

	m := createMember(t, store, "b@example.com")
	f1 := createFamily(t, store, "one")
	f2 := createFamily(t, store, "two")

	none, err := store.Memberships.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, store.Memberships.Set(ctx, m.ID, f1.ID, time.Now().UTC()))
	require.NoError(t, store.Memberships.Set(ctx, m.ID, f2.ID, time.Now().UTC().Add(time.Second)))

	got, err := store.Memberships.Get(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f2.ID, got.FamilyID)

	n, err := store.Memberships.CountByFamily(ctx, f1.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	others := createMember(t, store, "c@example.com")
	require.NoError(t, store.Memberships.Set(ctx, others.ID, f2.ID, time.Now().UTC()))
	members, err := store.Members.ListFamilyMembers(ctx, f2.ID, m.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, others.ID, members[0].ID)
}

func TestPointRepositoryCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	m := createMember(t, store, "p@example.com")

	// Ensure is idempotent
	require.NoError(t, store.Points.Ensure(ctx, m.ID, time.Now().UTC()))

	before, err := store.Points.GetForUpdate(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, before)

	ok, err := store.Points.CompareAndSet(ctx, m.ID, 0, 2, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Points.CompareAndSet(ctx, m.ID, 0, 4, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok, "stale expected value must not apply")

	after, err := store.Points.GetForUpdate(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, after)

	// The ledger is bounded by a CHECK constraint
	_, err = store.Points.CompareAndSet(ctx, m.ID, 2, 11, time.Now().UTC())
	assert.Error(t, err)
}

func TestPointRepositoryEnsureKeepsTransactionUsable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	m := createMember(t, NewStore(db), "tx@example.com")

	err := db.WithTx(ctx, func(tx *database.Tx) error {
		store := NewStore(tx)
		ok, err := store.Points.CompareAndSet(ctx, m.ID, 0, 4, time.Now().UTC())
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, store.Points.Ensure(ctx, m.ID, time.Now().UTC()))

		points, err := store.Points.GetForUpdate(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, points, "existing ledger must not be reset")
		return nil
	})
	require.NoError(t, err)
}

func TestPointRepositoryEnsureOnPostgres(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	db := database.New(conn, database.NewPostgresDialect())
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO member_points (member_id, daily_point, updated_at) VALUES ($1, 0, $2) ON CONFLICT (member_id) DO NOTHING")).
		WithArgs(int64(7), now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPointRepository(db).Ensure(context.Background(), 7, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilyRepositoryPlant(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	f := createFamily(t, store, "green")

	require.NoError(t, store.Families.AddExperience(ctx, f.PlantID, 3))
	require.NoError(t, store.Families.AddExperience(ctx, f.PlantID, 2))

	plant, err := store.Families.GetPlantByFamily(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, plant)
	assert.Equal(t, 5, plant.Experience)
	assert.Equal(t, "plant-green", plant.Name)

	room, err := store.Families.GetChatRoom(ctx, f.ChatRoomID)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, "key-green", room.ChannelKey)

	got, err := store.Families.GetByID(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "green", got.Name)
}

func TestInvitationRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	f := createFamily(t, store, "codes")

	exists, err := store.Invitations.Exists(ctx, "ABCD2345")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Invitations.Create(ctx, "ABCD2345", f.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = store.Invitations.Create(ctx, "ABCD2345", f.ID, time.Now().UTC())
	assert.ErrorIs(t, err, ErrDuplicate)

	inv, err := store.Invitations.GetByCode(ctx, "ABCD2345")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, f.ID, inv.FamilyID)

	unknown, err := store.Invitations.GetByCode(ctx, "ZZZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	codes, err := store.Invitations.ListByFamily(ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, codes, 1)
}

func TestAttendanceRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	m := createMember(t, store, "att@example.com")
	f := createFamily(t, store, "att")
	require.NoError(t, store.Memberships.Set(ctx, m.ID, f.ID, time.Now().UTC()))

	day1 := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	_, err := store.Attendances.Create(ctx, m.ID, day1, "2024-01-01")
	require.NoError(t, err)

	_, err = store.Attendances.Create(ctx, m.ID, day1.Add(time.Hour), "2024-01-01")
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = store.Attendances.Create(ctx, m.ID, day1.Add(24*time.Hour), "2024-01-02")
	require.NoError(t, err)

	ok, err := store.Attendances.ExistsBetween(ctx, m.ID, day1.Add(-time.Hour), day1.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Attendances.ExistsBetween(ctx, m.ID, day1.Add(time.Hour), day1.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := store.Attendances.ListByFamilyBetween(ctx, f.ID, day1.Add(-time.Hour), day1.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-01", list[0].AttendedOn)
	assert.Equal(t, "nick-att@example.com", list[0].Nickname)
	assert.True(t, list[0].AttendedAt.Equal(day1))
}

func TestPostRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupTestDB(t))
	m := createMember(t, store, "post@example.com")
	f := createFamily(t, store, "post")
	require.NoError(t, store.Memberships.Set(ctx, m.ID, f.ID, time.Now().UTC()))

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err := store.Posts.Create(ctx, m.ID, "first", base)
	require.NoError(t, err)
	_, err = store.Posts.Create(ctx, m.ID, "second", base.Add(time.Minute))
	require.NoError(t, err)

	count, err := store.Posts.CountBetween(ctx, m.ID, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	newest, err := store.Posts.ListByFamilyBetween(ctx, f.ID, base, base.Add(time.Hour), true)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "second", newest[0].Content)

	oldest, err := store.Posts.ListByFamilyBetween(ctx, f.ID, base, base.Add(time.Hour), false)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, "first", oldest[0].Content)
}
