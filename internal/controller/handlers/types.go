package handlers

import (
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"go.uber.org/zap"
)

// QueueHealth reports whether the notification queue backend is reachable
type QueueHealth interface {
	Healthy() bool
}

// Handlers holds the dependencies of the command and callback handlers
type Handlers struct {
	userService    *service.UserService
	slotService    *service.SlotService
	bookingService *service.BookingService
	leaseService   *service.LeaseService
	billService    *service.BillService
	runner         *service.AutomationRunner
	queueHealth    QueueHealth
	stateManager   *state.Manager
	loc            *time.Location
	now            service.Clock
	logger         *zap.Logger
}

func NewHandlers(
	userService *service.UserService,
	slotService *service.SlotService,
	bookingService *service.BookingService,
	leaseService *service.LeaseService,
	billService *service.BillService,
	runner *service.AutomationRunner,
	stateManager *state.Manager,
	now service.Clock,
	loc *time.Location,
	logger *zap.Logger,
) *Handlers {
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		userService:    userService,
		slotService:    slotService,
		bookingService: bookingService,
		leaseService:   leaseService,
		billService:    billService,
		runner:         runner,
		stateManager:   stateManager,
		loc:            loc,
		now:            now,
		logger:         logger,
	}
}

// WithQueueHealth makes /status report the notification queue
func (h *Handlers) WithQueueHealth(q QueueHealth) *Handlers {
	h.queueHealth = q
	return h
}
