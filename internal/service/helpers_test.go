package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"familyspace/internal/auth"
	"familyspace/internal/database"
	"familyspace/internal/models"
	"familyspace/internal/notify"
	"familyspace/internal/repository"
	"familyspace/migrations"
)

var seoul = time.FixedZone("KST", 9*3600)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) NotifyFamilyExcludingActor(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

type fakeProvider struct {
	users map[string]*auth.UserInfo
}

func (p *fakeProvider) FetchUser(_ context.Context, accessToken string) (*auth.UserInfo, error) {
	info, ok := p.users[accessToken]
	if !ok {
		return nil, auth.ErrProviderRejected
	}
	return info, nil
}

type failingIssuer struct{}

func (failingIssuer) Issue(context.Context, *database.Tx, int64) (*models.InvitationCode, error) {
	return nil, errors.New("code store unavailable")
}

type testEnv struct {
	db         *database.DB
	calendar   *Calendar
	tokens     *auth.JWTService
	registry   *InvitationRegistry
	families   *FamilyService
	activities *ActivityService
	auth       *AuthService
	notifier   *recordingNotifier
	provider   *fakeProvider

	mu  sync.Mutex
	now time.Time
}

func newTestEnv(t *testing.T, rejoinPolicy string) *testEnv {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), migrations.FS))

	env := &testEnv{
		db:       db,
		now:      time.Date(2024, 1, 1, 12, 0, 0, 0, seoul),
		notifier: &recordingNotifier{},
		provider: &fakeProvider{users: map[string]*auth.UserInfo{}},
	}
	logger := zap.NewNop()
	env.calendar = NewCalendar(seoul, env.clock)
	env.tokens = auth.NewJWTService("test-secret", time.Hour)
	env.registry = NewInvitationRegistry(db, env.tokens, rejoinPolicy, env.calendar, logger)
	env.families = NewFamilyService(db, env.registry, env.tokens, rejoinPolicy, env.calendar, logger)
	env.activities = NewActivityService(db, env.calendar, env.notifier, logger)
	env.auth = NewAuthService(db, env.provider, env.tokens, env.calendar, logger)
	return env
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) setNow(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = t
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func (e *testEnv) newMember(t *testing.T, email string) int64 {
	t.Helper()
	e.provider.users["token-"+email] = &auth.UserInfo{Subject: email, Email: email, Name: "nick-" + email}
	res, err := e.auth.KakaoLogin(context.Background(), "token-"+email)
	require.NoError(t, err)
	return res.Member.Member.ID
}

func (e *testEnv) newFamily(t *testing.T, email string) (int64, *FormationResult) {
	t.Helper()
	memberID := e.newMember(t, email)
	res, err := e.families.Create(context.Background(), memberID, "family of "+email, "plant")
	require.NoError(t, err)
	return memberID, res
}

func (e *testEnv) state(t *testing.T, memberID int64) *models.MemberState {
	t.Helper()
	state, err := repository.NewMemberRepository(e.db).GetState(context.Background(), memberID)
	require.NoError(t, err)
	require.NotNil(t, state)
	return state
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func sequenceGenerator(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}
