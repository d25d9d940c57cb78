// Package notify fans activity events out to the other members of a family.
// Delivery is best effort: callers log failures and move on.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"familyspace/internal/models"
)

// EventType names the activity that triggered a notification
type EventType string

const (
	EventAttendance EventType = "ATTENDANCE"
	EventPost       EventType = "POST"
)

// Event describes one activity performed by a family member
type Event struct {
	Type          EventType `json:"type"`
	FamilyID      int64     `json:"family_id"`
	ActorID       int64     `json:"actor_id"`
	ActorNickname string    `json:"actor_nickname"`
	Content       string    `json:"content,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Gateway delivers an event to every member of the actor's family except
// the actor
type Gateway interface {
	NotifyFamilyExcludingActor(ctx context.Context, event Event) error
}

// Sink delivers an event to a resolved set of recipients
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event, recipients []models.Member) error
}

// RecipientLister resolves the members of a family
type RecipientLister interface {
	ListFamilyMembers(ctx context.Context, familyID, excludeMemberID int64) ([]models.Member, error)
}

// Dispatcher implements Gateway over any number of sinks
type Dispatcher struct {
	recipients RecipientLister
	sinks      []Sink
	logger     *zap.Logger
}

var _ Gateway = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher. With no sinks it only resolves
// recipients.
func NewDispatcher(recipients RecipientLister, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{recipients: recipients, sinks: sinks, logger: logger}
}

func (d *Dispatcher) NotifyFamilyExcludingActor(ctx context.Context, event Event) error {
	recipients, err := d.recipients.ListFamilyMembers(ctx, event.FamilyID, event.ActorID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, event, recipients); err != nil {
			d.logger.Warn("notification sink failed",
				zap.String("sink", sink.Name()),
				zap.String("event", string(event.Type)),
				zap.Int64("family_id", event.FamilyID),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event
type Nop struct{}

func (Nop) NotifyFamilyExcludingActor(context.Context, Event) error { return nil }
