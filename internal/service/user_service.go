package service

import (
	"context"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"go.uber.org/zap"
)

type UserService struct {
	users  UserStore
	logger *zap.Logger
}

func NewUserService(users UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// RegisterUser registers a Telegram user or refreshes their profile. New users are tenants.
func (s *UserService) RegisterUser(ctx context.Context, telegramID int64, username, firstName, lastName string) (*model.User, error) {
	existing, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, apperr.Persistence("check existing user", err)
	}

	if existing != nil {
		existing.Username = username
		existing.FirstName = firstName
		existing.LastName = lastName

		if err := s.users.UpdateUser(ctx, existing); err != nil {
			return nil, apperr.Persistence("update user", err)
		}

		s.logger.Info("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.String("username", username),
		)
		return existing, nil
	}

	user := &model.User{
		TelegramID: telegramID,
		Username:   username,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       model.RoleTenant,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, apperr.Persistence("create user", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.String("username", username),
	)
	return user, nil
}

func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, apperr.Persistence("get user", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user", id)
	}
	return user, nil
}

// BecomeLandlord switches a registered user to the landlord role
func (s *UserService) BecomeLandlord(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, apperr.Persistence("get user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("telegram user", telegramID)
	}
	if user.IsLandlord() {
		return user, nil
	}

	user.Role = model.RoleLandlord
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Persistence("update user", err)
	}

	s.logger.Info("User became landlord",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)
	return user, nil
}
