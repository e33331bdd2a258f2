package services

import (
	"sync"
)

// BaseService holds the state shared by every service process: its name,
// lifecycle state, last error and the state change callback.
type BaseService struct {
	mu            sync.RWMutex
	name          string
	state         ServiceState
	lastError     error
	stateChangeCb StateChangeCallback
}

// NewBaseService creates a new base service in the stopped state.
func NewBaseService(name string) *BaseService {
	return &BaseService{
		name:  name,
		state: StateStopped,
	}
}

// GetName returns the service name
func (b *BaseService) GetName() string {
	return b.name
}

// GetState returns the current state
func (b *BaseService) GetState() ServiceState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// GetLastError returns the last error
func (b *BaseService) GetLastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastError
}

// SetStateChangeCallback sets the state change callback
func (b *BaseService) SetStateChangeCallback(callback StateChangeCallback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stateChangeCb = callback
}

// UpdateState updates the service state and notifies the callback
func (b *BaseService) UpdateState(newState ServiceState, err error) {
	b.mu.Lock()
	oldState := b.state
	b.state = newState
	b.lastError = err
	callback := b.stateChangeCb
	b.mu.Unlock()

	// Call the callback outside of the lock to avoid deadlocks
	if callback != nil && oldState != newState {
		callback(b.name, oldState, newState, err)
	}
}

// transition moves from one of the expected states to next. It reports
// false, leaving the state untouched, when the current state is not one of
// from.
func (b *BaseService) transition(next ServiceState, err error, from ...ServiceState) bool {
	b.mu.Lock()
	current := b.state
	allowed := false
	for _, s := range from {
		if s == current {
			allowed = true
			break
		}
	}
	b.mu.Unlock()
	if !allowed {
		return false
	}
	b.UpdateState(next, err)
	return true
}
