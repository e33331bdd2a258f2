package services

import (
	"errors"
	"sync"
	"testing"
)

func TestNewBaseService(t *testing.T) {
	base := NewBaseService("api")

	if base.GetName() != "api" {
		t.Errorf("Expected name api, got %s", base.GetName())
	}
	if base.GetState() != StateStopped {
		t.Errorf("Expected initial state %s, got %s", StateStopped, base.GetState())
	}
	if base.GetLastError() != nil {
		t.Errorf("Expected no initial error, got %v", base.GetLastError())
	}
}

func TestBaseServiceUpdateState(t *testing.T) {
	base := NewBaseService("api")

	var calls []ServiceState
	base.SetStateChangeCallback(func(name string, oldState, newState ServiceState, err error) {
		if name != "api" {
			t.Errorf("callback got name %s", name)
		}
		calls = append(calls, newState)
	})

	base.UpdateState(StateStarting, nil)
	base.UpdateState(StateStarting, nil)
	testErr := errors.New("spawn failed")
	base.UpdateState(StateFailed, testErr)

	if len(calls) != 2 {
		t.Fatalf("Expected 2 callbacks (unchanged state is not reported), got %d", len(calls))
	}
	if base.GetLastError() != testErr {
		t.Errorf("Expected last error %v, got %v", testErr, base.GetLastError())
	}
}

func TestBaseServiceTransition(t *testing.T) {
	base := NewBaseService("api")

	if base.transition(StateStopping, nil, StateRunning) {
		t.Error("transition from Stopped to Stopping should be refused")
	}
	base.UpdateState(StateRunning, nil)
	if !base.transition(StateStopping, nil, StateRunning, StateFailed) {
		t.Error("transition from Running to Stopping should be allowed")
	}
	if base.GetState() != StateStopping {
		t.Errorf("Expected Stopping, got %s", base.GetState())
	}
}

func TestBaseServiceConcurrentAccess(t *testing.T) {
	base := NewBaseService("api")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			base.UpdateState(StateRunning, nil)
		}()
		go func() {
			defer wg.Done()
			_ = base.GetState()
			_ = base.GetLastError()
		}()
	}
	wg.Wait()
}

func TestServiceStateIsActive(t *testing.T) {
	for _, s := range []ServiceState{StateStarting, StateRunning, StateStopping} {
		if !s.IsActive() {
			t.Errorf("%s should be active", s)
		}
	}
	for _, s := range []ServiceState{StateStopped, StateFailed} {
		if s.IsActive() {
			t.Errorf("%s should not be active", s)
		}
	}
}
