package base

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDateRoundTrip(t *testing.T) {
	d := civil.Date{Year: 2025, Month: time.February, Day: 28}
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), DateArg(d))
	assert.Equal(t, d, Date(DateArg(d)))

	assert.Nil(t, NullDateArg(nil))
	assert.Nil(t, NullDate(nil))
	assert.Equal(t, d, *NullDate(NullDateArg(&d)))
}

func TestErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_bookings_live_slot"})
	assert.True(t, IsUniqueViolation(unique))
	assert.Equal(t, "uq_bookings_live_slot", ConstraintName(unique))

	check := &pgconn.PgError{Code: "23514", ConstraintName: "bills_status_check"}
	assert.False(t, IsUniqueViolation(check))

	assert.True(t, IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(check))
	assert.Empty(t, ConstraintName(pgx.ErrNoRows))
}

func TestInTx(t *testing.T) {
	assert.False(t, InTx(context.Background()))
}
