package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/tenancy_scheduler/internal/apperr"
	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 1, 9, 0))

	user, err := f.users.RegisterUser(ctx, 777, "maria", "Maria", "Santos")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, model.RoleTenant, user.Role)

	again, err := f.users.RegisterUser(ctx, 777, "maria_s", "Maria", "Santos")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "maria_s", again.Username)

	found, err := f.users.GetByTelegramID(ctx, 777)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "maria_s", found.Username)

	missing, err := f.users.GetByTelegramID(ctx, 778)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = f.users.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestBecomeLandlord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(2025, time.June, 1, 9, 0))

	_, err := f.users.BecomeLandlord(ctx, 501)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.users.RegisterUser(ctx, 501, "jose", "Jose", "")
	require.NoError(t, err)

	landlord, err := f.users.BecomeLandlord(ctx, 501)
	require.NoError(t, err)
	assert.True(t, landlord.IsLandlord())

	stored, err := f.users.GetByID(ctx, landlord.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleLandlord, stored.Role)

	// registering again keeps the role
	refreshed, err := f.users.RegisterUser(ctx, 501, "jose", "Jose", "Cruz")
	require.NoError(t, err)
	assert.Equal(t, model.RoleLandlord, refreshed.Role)
}

func TestRegisterUserPersistenceFailure(t *testing.T) {
	f := newFixture(t, at(2025, time.June, 1, 9, 0))
	f.store.FailOn("GetUserByTelegramID", assert.AnError)

	_, err := f.users.RegisterUser(context.Background(), 1, "x", "", "")
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Equal(t, "persistence", apperr.Kind(err))
}
