package state

import (
	"sync"
)

// Manager keeps dialog state per Telegram user
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
}

func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*UserData),
	}
}

func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		return userData.State
	}
	return StateNone
}

// Begin starts a dialog step, dropping whatever the user was doing before
func (sm *Manager) Begin(telegramID int64, state UserState, data map[string]int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	copied := make(map[string]int64, len(data))
	for k, v := range data {
		copied[k] = v
	}
	sm.states[telegramID] = &UserData{
		State: state,
		Data:  copied,
	}
}

func (sm *Manager) GetData(telegramID int64, key string) (int64, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, exists := sm.states[telegramID]; exists {
		value, ok := userData.Data[key]
		return value, ok
	}
	return 0, false
}

func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}
