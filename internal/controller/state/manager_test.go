package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	sm := NewManager()
	assert.Equal(t, StateNone, sm.GetState(1))

	data := map[string]int64{KeyBillID: 42}
	sm.Begin(1, StateAwaitingPaymentProof, data)
	data[KeyBillID] = 7

	assert.Equal(t, StateAwaitingPaymentProof, sm.GetState(1))
	id, ok := sm.GetData(1, KeyBillID)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id, "data is copied on Begin")

	_, ok = sm.GetData(1, KeyOccupancyID)
	assert.False(t, ok)

	sm.Begin(1, StateAwaitingEndDate, map[string]int64{KeyOccupancyID: 3})
	_, ok = sm.GetData(1, KeyBillID)
	assert.False(t, ok, "a new dialog drops old data")

	sm.ClearState(1)
	assert.Equal(t, StateNone, sm.GetState(1))

	sm.Begin(2, StateNone, nil)
	assert.Equal(t, StateNone, sm.GetState(2))
}
