package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/tenancy_scheduler/internal/controller/state"
	"github.com/Freeeeeet/tenancy_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Services groups the application services the bot talks to
type Services struct {
	Users    *service.UserService
	Slots    *service.SlotService
	Bookings *service.BookingService
	Leases   *service.LeaseService
	Bills    *service.BillService
	Runner   *service.AutomationRunner

	// QueueHealth is nil when notifications are not queued
	QueueHealth handlers.QueueHealth
}

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, services Services, loc *time.Location, logger *zap.Logger) *BotController {
	stateManager := state.NewManager()

	cmdHandlers := handlers.NewHandlers(
		services.Users,
		services.Slots,
		services.Bookings,
		services.Leases,
		services.Bills,
		services.Runner,
		stateManager,
		time.Now,
		loc,
		logger,
	)
	if services.QueueHealth != nil {
		cmdHandlers.WithQueueHealth(services.QueueHealth)
	}

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers registers the commands, the dialog handler and the button handler
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	h := c.handlers

	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, h.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, h.HandleCancel)

	// Tenants
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/book", bot.MatchTypePrefix, h.HandleBook)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reschedule", bot.MatchTypePrefix, h.HandleReschedule)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybookings", bot.MatchTypeExact, h.HandleMyBookings)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mylease", bot.MatchTypeExact, h.HandleMyLease)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/mybills", bot.MatchTypeExact, h.HandleMyBills)

	// Landlords
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/becomelandlord", bot.MatchTypeExact, h.HandleBecomeLandlord)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/addslots", bot.MatchTypePrefix, h.HandleAddSlots)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/delslot", bot.MatchTypePrefix, h.HandleDeleteSlot)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/requests", bot.MatchTypeExact, h.HandleRequests)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/assign", bot.MatchTypePrefix, h.HandleAssign)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/bill", bot.MatchTypePrefix, h.HandleBill)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/approveend", bot.MatchTypePrefix, h.HandleApproveEnd)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/endlease", bot.MatchTypePrefix, h.HandleEndLease)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/renewal", bot.MatchTypePrefix, h.HandleRenewal)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/rundaily", bot.MatchTypeExact, h.HandleRunDaily)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.HandleStatus)

	// Dialog input: text and receipt photos
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, h.HandleTextMessage)

	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.HandleCallbackQuery)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Start"},
		{Command: "help", Description: "❓ Commands"},
		{Command: "mybookings", Description: "📅 My viewings"},
		{Command: "mylease", Description: "🏠 My lease"},
		{Command: "mybills", Description: "🧾 My bills"},
		{Command: "becomelandlord", Description: "🔑 Become a landlord"},
		{Command: "requests", Description: "📋 Viewing requests (landlord)"},
		{Command: "rundaily", Description: "🤖 Run daily automation (landlord)"},
		{Command: "status", Description: "🩺 Delivery status (landlord)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start polls for updates until ctx is done
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
