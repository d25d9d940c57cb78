package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"familyspace/internal/database"
	"familyspace/internal/metrics"
	"familyspace/internal/models"
	"familyspace/internal/notify"
	"familyspace/internal/repository"
	"familyspace/internal/validation"
)

// Points granted per activity before the daily cap is applied
const (
	AttendancePoint = 2
	PostPoint       = 1
)

const maxPointAttempts = 5

// ActivityResult reports what an activity earned
type ActivityResult struct {
	Delta int
	Plant models.Plant
}

// PostResult reports a stored post and what it earned
type PostResult struct {
	Post models.DailyPost
	ActivityResult
}

// ActivityService gates daily activities and grants capped points
type ActivityService struct {
	db       *database.DB
	calendar *Calendar
	notifier notify.Gateway
	logger   *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(db *database.DB, calendar *Calendar, notifier notify.Gateway, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		db:       db,
		calendar: calendar,
		notifier: notifier,
		logger:   logger,
	}
}

// ApplyPoints adds up to amount points to a member's ledger without passing
// models.MaxDailyPoint and returns the points actually granted. It must run
// inside the caller's transaction.
func (s *ActivityService) ApplyPoints(ctx context.Context, store *repository.Store, memberID int64, amount int) (int, error) {
	if err := validation.ValidatePoints(amount); err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, nil
	}

	for attempt := 0; attempt < maxPointAttempts; attempt++ {
		before, err := store.Points.GetForUpdate(ctx, memberID)
		if errors.Is(err, sql.ErrNoRows) {
			if err := store.Points.Ensure(ctx, memberID, s.calendar.Now()); err != nil {
				return 0, err
			}
			continue
		}
		if err != nil {
			return 0, err
		}

		delta := models.CappedDelta(before, amount)
		if delta == 0 {
			return 0, nil
		}

		ok, err := store.Points.CompareAndSet(ctx, memberID, before, before+delta, s.calendar.Now())
		if err != nil {
			return 0, err
		}
		if ok {
			return delta, nil
		}
	}
	return 0, ErrPointContention
}

// CheckIn records today's attendance and grants AttendancePoint. A second
// check-in on the same calendar day fails with ErrAlreadyAttended and
// writes nothing.
func (s *ActivityService) CheckIn(ctx context.Context, memberID int64) (*ActivityResult, error) {
	var result ActivityResult
	var state *models.MemberState

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		var err error
		state, err = s.memberInFamily(ctx, store, memberID)
		if err != nil {
			return err
		}

		now := s.calendar.Now()
		_, err = store.Attendances.Create(ctx, memberID, now, s.calendar.Date(now))
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadyAttended
		}
		if err != nil {
			return err
		}

		plant, delta, err := s.grant(ctx, store, state, AttendancePoint)
		if err != nil {
			return err
		}
		result = ActivityResult{Delta: delta, Plant: *plant}
		return nil
	})
	if err != nil {
		metrics.RecordActivity("attendance", activityOutcome(err), 0)
		return nil, err
	}

	metrics.RecordActivity("attendance", "ok", result.Delta)
	s.notifyFamily(ctx, notify.Event{
		Type:          notify.EventAttendance,
		FamilyID:      state.FamilyID,
		ActorID:       memberID,
		ActorNickname: nicknameOf(state),
		OccurredAt:    s.calendar.Now(),
	})
	return &result, nil
}

// RegisterPost stores a post and grants PostPoint. Posting is not gated;
// the daily cap still applies to the points.
func (s *ActivityService) RegisterPost(ctx context.Context, memberID int64, content string) (*PostResult, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateContent(content); err != nil {
		return nil, err
	}

	var result PostResult
	var state *models.MemberState

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		store := repository.NewStore(tx)

		var err error
		state, err = s.memberInFamily(ctx, store, memberID)
		if err != nil {
			return err
		}

		post, err := store.Posts.Create(ctx, memberID, content, s.calendar.Now())
		if err != nil {
			return err
		}

		plant, delta, err := s.grant(ctx, store, state, PostPoint)
		if err != nil {
			return err
		}
		post.Nickname = state.Member.Nickname
		result = PostResult{Post: *post, ActivityResult: ActivityResult{Delta: delta, Plant: *plant}}
		return nil
	})
	if err != nil {
		metrics.RecordActivity("post", activityOutcome(err), 0)
		return nil, err
	}

	metrics.RecordActivity("post", "ok", result.Delta)
	s.notifyFamily(ctx, notify.Event{
		Type:          notify.EventPost,
		FamilyID:      state.FamilyID,
		ActorID:       memberID,
		ActorNickname: nicknameOf(state),
		Content:       content,
		OccurredAt:    result.Post.CreatedAt,
	})
	return &result, nil
}

// HasPostedToday reports whether the member posted during the current
// calendar day
func (s *ActivityService) HasPostedToday(ctx context.Context, memberID int64) (bool, error) {
	from, to := s.calendar.Today()
	count, err := repository.NewPostRepository(s.db).CountBetween(ctx, memberID, from, to)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasCheckedInToday reports whether the member checked in during the
// current calendar day
func (s *ActivityService) HasCheckedInToday(ctx context.Context, memberID int64) (bool, error) {
	from, to := s.calendar.Today()
	return repository.NewAttendanceRepository(s.db).ExistsBetween(ctx, memberID, from, to)
}

// CurrentFamily returns the family the member belongs to now. Family
// views resolve it per request so a member who moved families stops
// seeing the old one even with an unexpired token.
func (s *ActivityService) CurrentFamily(ctx context.Context, memberID int64) (int64, error) {
	state, err := s.memberInFamily(ctx, repository.NewStore(s.db), memberID)
	if err != nil {
		return 0, err
	}
	return state.FamilyID, nil
}

// TodayAttendees lists the family's check-ins of the current day
func (s *ActivityService) TodayAttendees(ctx context.Context, familyID int64) ([]models.Attendance, error) {
	from, to := s.calendar.Today()
	return repository.NewAttendanceRepository(s.db).ListByFamilyBetween(ctx, familyID, from, to)
}

// TodayPosts lists the family's posts of the current day, newest first
func (s *ActivityService) TodayPosts(ctx context.Context, familyID int64) ([]models.DailyPost, error) {
	from, to := s.calendar.Today()
	return repository.NewPostRepository(s.db).ListByFamilyBetween(ctx, familyID, from, to, true)
}

// WeeklyAttendance groups the family's check-ins of the last week by
// calendar date
func (s *ActivityService) WeeklyAttendance(ctx context.Context, familyID int64) ([]models.DailyGroup[models.Attendance], error) {
	from, to := s.calendar.LastWeek()
	records, err := repository.NewAttendanceRepository(s.db).ListByFamilyBetween(ctx, familyID, from, to)
	if err != nil {
		return nil, err
	}
	return models.GroupByDay(records, func(a models.Attendance) time.Time { return a.AttendedAt }, s.calendar.Location()), nil
}

// WeeklyPosts groups the family's posts of the last week by calendar date
func (s *ActivityService) WeeklyPosts(ctx context.Context, familyID int64) ([]models.DailyGroup[models.DailyPost], error) {
	from, to := s.calendar.LastWeek()
	records, err := repository.NewPostRepository(s.db).ListByFamilyBetween(ctx, familyID, from, to, false)
	if err != nil {
		return nil, err
	}
	return models.GroupByDay(records, func(p models.DailyPost) time.Time { return p.CreatedAt }, s.calendar.Location()), nil
}

func (s *ActivityService) memberInFamily(ctx context.Context, store *repository.Store, memberID int64) (*models.MemberState, error) {
	state, err := store.Members.GetState(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrMemberNotFound
	}
	if !state.HasFamily() {
		return nil, ErrNotInFamily
	}
	return state, nil
}

// grant applies amount to the member's ledger and grows the family plant by
// the realized delta
func (s *ActivityService) grant(ctx context.Context, store *repository.Store, state *models.MemberState, amount int) (*models.Plant, int, error) {
	delta, err := s.ApplyPoints(ctx, store, state.Member.ID, amount)
	if err != nil {
		return nil, 0, err
	}

	plant, err := store.Families.GetPlantByFamily(ctx, state.FamilyID)
	if err != nil {
		return nil, 0, err
	}
	if plant == nil {
		return nil, 0, ErrFamilyNotFound
	}

	if delta > 0 {
		if err := store.Families.AddExperience(ctx, plant.ID, delta); err != nil {
			return nil, 0, err
		}
		plant.Experience += delta
	}
	return plant, delta, nil
}

func (s *ActivityService) notifyFamily(ctx context.Context, event notify.Event) {
	if err := s.notifier.NotifyFamilyExcludingActor(ctx, event); err != nil {
		metrics.RecordNotifyFailure()
		s.logger.Warn("failed to notify family",
			zap.String("event", string(event.Type)),
			zap.Int64("family_id", event.FamilyID),
			zap.Error(err),
		)
	}
}

func nicknameOf(state *models.MemberState) string {
	if state.Member.Nickname != "" {
		return state.Member.Nickname
	}
	return state.Member.DisplayName
}

func activityOutcome(err error) string {
	var vErr validation.ValidationError
	switch {
	case errors.Is(err, ErrAlreadyAttended):
		return "already_done"
	case errors.Is(err, ErrNotInFamily), errors.As(err, &vErr):
		return "rejected"
	default:
		return "error"
	}
}
