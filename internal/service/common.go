package service

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"go.uber.org/zap"
)

// calendar turns the clock into local civil dates
type calendar struct {
	now Clock
	loc *time.Location
}

func newCalendar(now Clock, loc *time.Location) calendar {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return calendar{now: now, loc: loc}
}

func (c calendar) Now() time.Time {
	return c.now().In(c.loc)
}

func (c calendar) Today() civil.Date {
	return civil.DateOf(c.Now())
}

// addMonths shifts a date by whole months with time.AddDate normalisation
func addMonths(d civil.Date, months int) civil.Date {
	return civil.DateOf(d.In(time.UTC).AddDate(0, months, 0))
}

// dispatcher delivers notifications after the owning transaction committed.
// Delivery errors are logged and never reach the caller.
type dispatcher struct {
	notifier Notifier
	logger   *zap.Logger
}

func (d dispatcher) send(ctx context.Context, notes ...model.Notification) {
	if d.notifier == nil {
		return
	}
	for _, n := range notes {
		if err := d.notifier.Notify(ctx, n); err != nil {
			d.logger.Warn("Failed to deliver notification",
				zap.Int64("recipient_id", n.RecipientID),
				zap.String("type", string(n.Type)),
				zap.Error(err),
			)
		}
	}
}

// requireRole loads the actor and checks the role
func requireRole(ctx context.Context, users UserStore, userID int64, role model.Role) (*model.User, error) {
	user, err := users.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("get user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", userID)
	}
	if user.Role != role {
		return nil, apperr.Forbidden("user %d is not a %s", userID, role)
	}
	return user, nil
}
